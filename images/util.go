package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// ComputeGrayChecksum generates a deterministic checksum for a gray frame to verify idempotency
// across pipeline stages.
//
// Arguments:
// - img: The frame to compute a checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty frame.
//
// Example:
//
// ```go
//
//	checksum := ComputeGrayChecksum(frame)
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func ComputeGrayChecksum(img *image.Gray) string {
	b := img.Bounds()
	if b.Empty() {
		return "empty"
	}

	hash := md5.New()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		hash.Write(img.Pix[img.PixOffset(b.Min.X, y) : img.PixOffset(b.Min.X, y)+b.Dx()])
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// ComputeMaskChecksum generates a deterministic checksum for a mask.
func ComputeMaskChecksum(m Mask) string {
	if len(m.Pix) == 0 {
		return "empty"
	}
	return ComputeGrayChecksum(m.ToGray(1))
}
