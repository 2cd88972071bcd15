package motion

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"testing"

	"github.com/nvr-ai/go-strain/polyline"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformField(w, h int, dx, dy float32) Field {
	f := NewField(w, h)
	for i := range f.DX {
		f.DX[i] = dx
		f.DY[i] = dy
	}
	return f
}

// texture renders a smooth pattern shifted right by shift pixels.
func texture(size int, shift float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx := float64(x) - shift
			v := 128 + 50*math.Sin(fx/6)*math.Cos(float64(y)/9) + 30*math.Sin((fx+float64(y))/11)
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return img
}

func TestTrackZeroFieldsIsIdentity(t *testing.T) {
	initial := polyline.Points{{X: 10, Y: 20}, {X: 30.5, Y: 40.25}}
	fields := []Field{NewField(64, 64), NewField(64, 64), NewField(64, 64)}

	snaps := Track(initial, fields)
	require.Len(t, snaps, 4)
	for _, s := range snaps {
		assert.Equal(t, initial, s)
	}
}

func TestTrackAxisConvention(t *testing.T) {
	initial := polyline.Points{{X: 10, Y: 20}}
	snaps := Track(initial, []Field{uniformField(64, 64, 2, 0), uniformField(64, 64, 0, -3)})

	require.Len(t, snaps, 3)
	assert.Equal(t, polyline.Point{X: 12, Y: 20}, snaps[1][0], "positive dx moves right")
	assert.Equal(t, polyline.Point{X: 12, Y: 17}, snaps[2][0], "negative dy moves up")
}

func TestTrackSnapshotsDoNotAlias(t *testing.T) {
	initial := polyline.Points{{X: 1, Y: 1}}
	snaps := Track(initial, []Field{uniformField(8, 8, 1, 1)})

	initial[0].X = 100
	snaps[1][0].Y = 50
	assert.Equal(t, 1.0, snaps[0][0].X)
	assert.Equal(t, 1.0, snaps[0][0].Y)
}

func TestStepSamplesRoundedClampedPosition(t *testing.T) {
	f := NewField(4, 4)
	f.DX[1*4+2] = 1   // column 2, row 1
	f.DY[3*4+3] = 0.5 // bottom-right corner

	tests := []struct {
		name string
		in   polyline.Point
		want polyline.Point
	}{
		{"rounds to nearest", polyline.Point{X: 1.6, Y: 0.7}, polyline.Point{X: 2.6, Y: 0.7}},
		{"half to even", polyline.Point{X: 2.5, Y: 1.2}, polyline.Point{X: 3.5, Y: 1.2}},
		{"half to even upward", polyline.Point{X: 1.5, Y: 1.2}, polyline.Point{X: 2.5, Y: 1.2}},
		{"clamped outside", polyline.Point{X: 9, Y: 7}, polyline.Point{X: 9, Y: 7.5}},
		{"negative clamps to zero", polyline.Point{X: -3, Y: -2}, polyline.Point{X: -3, Y: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Step(polyline.Points{tt.in}, f)
			assert.InDelta(t, tt.want.X, got[0].X, 1e-9)
			assert.InDelta(t, tt.want.Y, got[0].Y, 1e-9)
		})
	}
}

func TestComputeFieldsKeepsFrameOrder(t *testing.T) {
	frames := make([]*image.Gray, 9)
	for i := range frames {
		frames[i] = image.NewGray(image.Rect(0, 0, i+1, 1))
	}

	fields, err := computeFields(context.Background(), frames, 3, func(prev, next *image.Gray) (Field, error) {
		return uniformField(1, 1, float32(prev.Bounds().Dx()), float32(next.Bounds().Dx())), nil
	})
	require.NoError(t, err)
	require.Len(t, fields, 8)
	for i, f := range fields {
		assert.Equal(t, float32(i+1), f.DX[0])
		assert.Equal(t, float32(i+2), f.DY[0])
	}
}

func TestComputeFieldsShortInput(t *testing.T) {
	fields, err := computeFields(context.Background(), []*image.Gray{image.NewGray(image.Rect(0, 0, 1, 1))}, 2,
		func(prev, next *image.Gray) (Field, error) { return Field{}, nil })
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestComputeFieldsPropagatesError(t *testing.T) {
	frames := make([]*image.Gray, 20)
	for i := range frames {
		frames[i] = image.NewGray(image.Rect(0, 0, 1, 1))
	}
	boom := errors.New("boom")

	var calls atomic.Int32
	_, err := computeFields(context.Background(), frames, 2, func(prev, next *image.Gray) (Field, error) {
		if calls.Add(1) == 3 {
			return Field{}, boom
		}
		return NewField(1, 1), nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestComputeFieldsCancelled(t *testing.T) {
	frames := make([]*image.Gray, 5)
	for i := range frames {
		frames[i] = image.NewGray(image.Rect(0, 0, 1, 1))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := computeFields(ctx, frames, 2, func(prev, next *image.Gray) (Field, error) {
		return NewField(1, 1), nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFarnebackIdenticalFrames(t *testing.T) {
	frame := texture(96, 0)
	f, err := Farneback(frame, frame, DefaultConfig().Params)
	require.NoError(t, err)

	assert.Equal(t, 96, f.Width)
	assert.Equal(t, 96, f.Height)
	assert.Equal(t, make([]float32, 96*96), f.DX)
	assert.Equal(t, make([]float32, 96*96), f.DY)
}

func TestFarnebackDetectsRightwardShift(t *testing.T) {
	f, err := Farneback(texture(128, 0), texture(128, 2), DefaultConfig().Params)
	require.NoError(t, err)

	var sumX, sumY float64
	n := 0
	for y := 32; y < 96; y++ {
		for x := 32; x < 96; x++ {
			dx, dy := f.At(x, y)
			sumX += float64(dx)
			sumY += float64(dy)
			n++
		}
	}
	assert.InDelta(t, 2, sumX/float64(n), 0.5)
	assert.InDelta(t, 0, sumY/float64(n), 0.5)
}

func TestFarnebackSizeMismatch(t *testing.T) {
	_, err := Farneback(texture(32, 0), texture(16, 0), DefaultConfig().Params)
	assert.Error(t, err)
}
