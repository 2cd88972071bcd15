package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/nvr-ai/go-strain/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func uniformFrame(size int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func gradientFrame(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	return img
}

// TestPreprocessEchoNet validates the segmentation input: 3 identical standardized planes of
// 112x112 in CHW order.
func TestPreprocessEchoNet(t *testing.T) {
	p := NewPreprocessor(EchoNetConfig())

	result, err := p.Preprocess(uniformFrame(568, 100))
	require.NoError(t, err)

	assert.Equal(t, []int{3, 112, 112}, result.Shape)
	assert.Len(t, result.Data, 3*112*112)
	assert.Equal(t, 568, result.OriginalWidth)
	assert.Equal(t, 568, result.OriginalHeight)

	cfg := EchoNetConfig()
	plane := 112 * 112
	for c := 0; c < 3; c++ {
		want := (100 - cfg.MeanValues[c]) / cfg.StdValues[c]
		assert.InDelta(t, want, result.Data[c*plane], 0.025, "channel %d", c)
		assert.InDelta(t, want, result.Data[c*plane+plane-1], 0.025, "channel %d", c)
	}
}

func TestPreprocessKeepsInputSizedFrame(t *testing.T) {
	cfg := EchoNetConfig()
	cfg.NormalizationType = NormalizeNone
	p := NewPreprocessor(cfg)

	frame := gradientFrame(112)
	result, err := p.Preprocess(frame)
	require.NoError(t, err)

	plane := 112 * 112
	for _, pt := range []image.Point{{0, 0}, {5, 7}, {111, 111}} {
		want := float32(frame.GrayAt(pt.X, pt.Y).Y)
		i := pt.Y*112 + pt.X
		assert.Equal(t, want, result.Data[i])
		assert.Equal(t, want, result.Data[plane+i])
		assert.Equal(t, want, result.Data[2*plane+i])
	}
}

func TestPreprocessHWC(t *testing.T) {
	cfg := &ModelConfig{
		Name:              "hwc",
		InputWidth:        4,
		InputHeight:       4,
		InputChannels:     2,
		NormalizationType: NormalizeZeroToOne,
		ChannelOrder:      ChannelOrderHWC,
	}
	result, err := NewPreprocessor(cfg).Preprocess(uniformFrame(8, 255))
	require.NoError(t, err)

	assert.Equal(t, []int{4, 4, 2}, result.Shape)
	for _, v := range result.Data {
		assert.InDelta(t, 1.0, v, 0.005)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		norm NormalizationType
		want float32
	}{
		{"none", NormalizeNone, 51},
		{"zero to one", NormalizeZeroToOne, 0.2},
		{"minus one to one", NormalizeMinusOneToOne, -0.6},
		{"standardize", NormalizeStandardize, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPreprocessor(&ModelConfig{
				InputChannels:     1,
				NormalizationType: tt.norm,
				MeanValues:        []float32{1},
				StdValues:         []float32{2},
				ChannelOrder:      ChannelOrderCHW,
			})
			tensor := []float32{51, 51}
			p.normalize(tensor)
			assert.InDelta(t, tt.want, tensor[0], 1e-6)
		})
	}
}

func TestPreprocessValidation(t *testing.T) {
	p := NewPreprocessor(EchoNetConfig())

	_, err := p.Preprocess(nil)
	assert.Error(t, err)

	_, err = p.Preprocess(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)

	bad := NewPreprocessor(&ModelConfig{InputWidth: 0, InputHeight: 112, InputChannels: 3})
	_, err = bad.Preprocess(uniformFrame(16, 1))
	assert.Error(t, err)
}

func TestPreprocessRejectsBadStandardization(t *testing.T) {
	tests := []struct {
		name string
		mean []float32
		std  []float32
	}{
		{"missing values", nil, nil},
		{"short mean", []float32{1, 2}, []float32{1, 1, 1}},
		{"zero std", []float32{1, 1, 1}, []float32{1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EchoNetConfig()
			cfg.MeanValues = tt.mean
			cfg.StdValues = tt.std

			_, err := NewPreprocessor(cfg).Preprocess(uniformFrame(112, 50))
			assert.Error(t, err)
		})
	}
}

func TestPreprocessCubicMatchesOpenCV(t *testing.T) {
	cfg := EchoNetConfig()
	cfg.NormalizationType = NormalizeNone
	frame := gradientFrame(224)

	want, err := images.ResizeGray(frame, image.Pt(112, 112), gocv.InterpolationCubic)
	require.NoError(t, err)

	result, err := NewPreprocessor(cfg).Preprocess(frame)
	require.NoError(t, err)
	for _, pt := range []image.Point{{0, 0}, {40, 17}, {111, 111}} {
		assert.Equal(t, float32(want.GrayAt(pt.X, pt.Y).Y), result.Data[pt.Y*112+pt.X], "pixel %v", pt)
	}
}

func TestPreprocessIdempotency(t *testing.T) {
	p := NewPreprocessor(EchoNetConfig())
	frame := gradientFrame(300)

	a, err := p.Preprocess(frame)
	require.NoError(t, err)
	b, err := p.Preprocess(frame)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestBatchPreprocessAndStack(t *testing.T) {
	p := NewPreprocessor(EchoNetConfig())
	frames := []*image.Gray{uniformFrame(200, 0), uniformFrame(200, 50), uniformFrame(200, 200)}

	results, err := p.BatchPreprocess(frames, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	data, shape, err := Stack(results)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 3, 112, 112}, shape)
	assert.Len(t, data, 3*3*112*112)

	frameSize := 3 * 112 * 112
	for i, r := range results {
		assert.Equal(t, r.Data[0], data[i*frameSize])
	}
	assert.Less(t, data[0], data[frameSize])
	assert.Less(t, data[frameSize], data[2*frameSize])
}

func TestBatchPreprocessReportsFailingFrame(t *testing.T) {
	p := NewPreprocessor(EchoNetConfig())
	_, err := p.BatchPreprocess([]*image.Gray{uniformFrame(10, 1), nil}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 1")
}

func TestStackRejectsMismatchedShapes(t *testing.T) {
	_, _, err := Stack(nil)
	assert.Error(t, err)

	_, _, err = Stack([]*Result{
		{Data: make([]float32, 4), Shape: []int{1, 2, 2}},
		{Data: make([]float32, 6), Shape: []int{1, 2, 3}},
	})
	assert.Error(t, err)
}

func BenchmarkPreprocessEchoNet(b *testing.B) {
	p := NewPreprocessor(EchoNetConfig())
	frame := gradientFrame(568)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Preprocess(frame); err != nil {
			b.Fatal(err)
		}
	}
}
