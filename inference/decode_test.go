package inference

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMasks(t *testing.T) {
	// Two 2x3 frames.
	logits := []float32{
		1, -1, 0,
		0.5, 2, -3,

		-1, -1, -1,
		-1, 0.01, -1,
	}

	masks, err := DecodeMasks(logits, 2, 2, 3)
	require.NoError(t, err)
	require.Len(t, masks, 2)

	assert.Equal(t, []bool{true, false, false, true, true, false}, masks[0].Pix)
	assert.Equal(t, []bool{false, false, false, false, true, false}, masks[1].Pix)
	assert.Equal(t, 3, masks[1].Width)
	assert.Equal(t, 2, masks[1].Height)
}

func TestDecodeMasksRejects(t *testing.T) {
	tests := []struct {
		name    string
		logits  []float32
		n, h, w int
	}{
		{"size mismatch", make([]float32, 5), 1, 2, 3},
		{"nan", []float32{0, float32(math.NaN()), 0, 0}, 1, 2, 2},
		{"inf", []float32{0, 0, 0, float32(math.Inf(-1))}, 1, 2, 2},
		{"empty geometry", nil, 0, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMasks(tt.logits, tt.n, tt.h, tt.w)
			assert.True(t, errors.Is(err, ErrSegmentation))
		})
	}
}

func TestSegmenterFunc(t *testing.T) {
	var s Segmenter = SegmenterFunc(func(ctx context.Context, frames []*image.Gray) ([]images.Mask, error) {
		out := make([]images.Mask, len(frames))
		for i := range frames {
			out[i] = images.NewMask(4, 4)
		}
		return out, nil
	})

	masks, err := s.Segment(context.Background(), make([]*image.Gray, 3))
	require.NoError(t, err)
	assert.Len(t, masks, 3)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 112, cfg.Model.InputWidth)
	assert.Equal(t, 3, cfg.Model.InputChannels)
	assert.Positive(t, cfg.BatchSize)
}
