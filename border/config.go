// Package border extracts the endocardial border of the left ventricle from a segmentation mask
// as a one pixel wide open curve.
package border

import "github.com/pkg/errors"

// ErrExtractionFailed is returned when the border does not reduce to a simple open curve with two
// endpoints.
var ErrExtractionFailed = errors.New("border extraction failed")

// Config holds the border extraction tuning. Row and length values are in mask pixels.
type Config struct {
	// MaskMedianKernel smooths the segmentation mask before the contour is taken. Zero disables it.
	MaskMedianKernel int `json:"maskMedianKernel" yaml:"maskMedianKernel"`
	// BaseEraseStartRow is the first row where flat horizontal contour runs (the valve plane) are
	// erased. Rows above it keep their horizontal runs.
	BaseEraseStartRow int `json:"baseEraseStartRow" yaml:"baseEraseStartRow"`
	// BranchThreshold is the minimum length of a side branch that survives pruning.
	BranchThreshold int `json:"branchThreshold" yaml:"branchThreshold"`
	// SkeletonThreshold is the minimum size of a skeleton component that survives pruning.
	SkeletonThreshold int `json:"skeletonThreshold" yaml:"skeletonThreshold"`
	// BorderMedianKernel smooths the border after it is resized to the tracking geometry. Zero
	// disables it.
	BorderMedianKernel int `json:"borderMedianKernel" yaml:"borderMedianKernel"`
}

// DefaultConfig returns the tuning for 112x112 segmentation masks.
func DefaultConfig() Config {
	return Config{
		MaskMedianKernel:   13,
		BaseEraseStartRow:  55,
		BranchThreshold:    40,
		SkeletonThreshold:  40,
		BorderMedianKernel: 13,
	}
}
