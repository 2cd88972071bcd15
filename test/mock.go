package test

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"sync"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
)

// MockFrameGenerator creates deterministic test frames for idempotent testing.
//
// Frames carry a fixed random texture so dense optical flow has structure to lock onto, and an
// optional horizontal shift to simulate motion.
//
// @example
// gen := NewMockFrameGenerator(600, 500)
// frames := gen.GenerateStaticSequence(40)
type MockFrameGenerator struct {
	width   int
	height  int
	seed    int64
	texture *image.Gray
	once    sync.Once
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured MockFrameGenerator instance.
//
// @example
// gen := NewMockFrameGenerator(640, 480)
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{
		width:  width,
		height: height,
		seed:   42, // Deterministic seed for reproducibility.
	}
}

// Texture returns the gray texture shared by every frame of the generator.
//
// The texture is built from 8x8 blocks of random intensity in [40, 215] so it is neither
// saturated nor flat.
func (g *MockFrameGenerator) Texture() *image.Gray {
	g.once.Do(func() {
		rng := rand.New(rand.NewSource(g.seed))
		tex := image.NewGray(image.Rect(0, 0, g.width, g.height))
		const block = 8
		for by := 0; by < g.height; by += block {
			for bx := 0; bx < g.width; bx += block {
				v := uint8(40 + rng.Intn(176))
				for y := by; y < min(by+block, g.height); y++ {
					for x := bx; x < min(bx+block, g.width); x++ {
						tex.Pix[y*tex.Stride+x] = v
					}
				}
			}
		}
		g.texture = tex
	})
	return g.texture
}

// GenerateStaticFrame creates a colour frame carrying the texture in every channel.
//
// @example
// frame := gen.GenerateStaticFrame()
func (g *MockFrameGenerator) GenerateStaticFrame() *image.RGBA {
	return g.GenerateShiftedFrame(0)
}

// GenerateShiftedFrame creates a frame whose texture is moved dx pixels to the right. Columns
// uncovered by the shift repeat the first texture column.
//
// Arguments:
// - dx: Horizontal shift in pixels.
//
// Returns:
// - An RGBA frame of the generator's size.
func (g *MockFrameGenerator) GenerateShiftedFrame(dx int) *image.RGBA {
	tex := g.Texture()
	frame := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			sx := images.ClampInt(x-dx, 0, g.width-1)
			v := tex.Pix[y*tex.Stride+sx]
			frame.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return frame
}

// GenerateStaticSequence returns n identical frames.
func (g *MockFrameGenerator) GenerateStaticSequence(n int) []image.Image {
	frame := g.GenerateStaticFrame()
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = frame
	}
	return frames
}

// SquareMask returns a size x size mask holding a filled square of the given side centred on
// (size/2, size/2). The square starts at size/2 - side/2 on both axes.
func SquareMask(size, side int) images.Mask {
	m := images.NewMask(size, size)
	lo := size/2 - side/2
	for y := max(lo, 0); y < min(lo+side, size); y++ {
		for x := max(lo, 0); x < min(lo+side, size); x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// MockSegmenter returns synthetic square masks instead of running a network.
//
// Side maps a frame index to the square side. When Err is set every call fails with it. Count,
// when positive, overrides the number of masks returned.
type MockSegmenter struct {
	Size  int
	Side  func(frame int) int
	Err   error
	Count int

	mu     sync.Mutex
	calls  int
	frames [][]*image.Gray
}

// NewBeatingSegmenter returns a segmenter whose square side follows a triangle wave between 20
// and 20 + period pixels, peaking on frames that are odd multiples of period/2.
//
// With period 20 the masks have areas 400..1600 and a 40 frame sequence holds a single cycle
// from frame 10 to frame 30.
//
// @example
// seg := NewBeatingSegmenter(20)
func NewBeatingSegmenter(period int) *MockSegmenter {
	return &MockSegmenter{
		Size: 112,
		Side: func(f int) int {
			return 20 + 2*min(f%period, period-f%period)
		},
	}
}

// NewConstantSegmenter returns a segmenter that yields the same square for every frame.
func NewConstantSegmenter(side int) *MockSegmenter {
	return &MockSegmenter{
		Size: 112,
		Side: func(int) int { return side },
	}
}

// Segment implements inference.Segmenter.
func (m *MockSegmenter) Segment(ctx context.Context, frames []*image.Gray) ([]images.Mask, error) {
	m.mu.Lock()
	m.calls++
	m.frames = append(m.frames, frames)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "mock segmentation cancelled")
	}
	if m.Err != nil {
		return nil, m.Err
	}

	n := len(frames)
	if m.Count > 0 {
		n = m.Count
	}
	masks := make([]images.Mask, n)
	for i := range masks {
		masks[i] = SquareMask(m.Size, m.Side(i))
	}
	return masks, nil
}

// Calls returns how many times Segment was invoked.
func (m *MockSegmenter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Frames returns the frames handed to the most recent Segment call.
func (m *MockSegmenter) Frames() []*image.Gray {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}
