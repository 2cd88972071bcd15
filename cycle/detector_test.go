package cycle

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineAreas(n int, period float64) []float64 {
	areas := make([]float64, n)
	for f := range areas {
		areas[f] = 1000 + 200*math.Sin(2*math.Pi*(float64(f)+0.3)/period)
	}
	return areas
}

// triangleSquareAreas returns the areas of square masks whose side follows a triangle wave with
// a period of 20 frames.
func triangleSquareAreas(n int) []float64 {
	areas := make([]float64, n)
	for f := range areas {
		tri := min(f%20, 20-f%20)
		side := float64(20 + 2*tri)
		areas[f] = side * side
	}
	return areas
}

func TestButterworthCoefficients(t *testing.T) {
	// Order 3 with a normalized cutoff of 0.2.
	b, a, err := Butterworth(3, 3, 30)
	require.NoError(t, err)

	expectedB := []float64{0.018098933007514, 0.054296799022543, 0.054296799022543, 0.018098933007514}
	expectedA := []float64{1, -1.760041880343169, 1.182893262037831, -0.278059917634546}
	assert.InDeltaSlice(t, expectedB, b, 1e-9)
	assert.InDeltaSlice(t, expectedA, a, 1e-9)
}

func TestButterworthRejectsCutoffAboveNyquist(t *testing.T) {
	_, _, err := Butterworth(3, 3, 6)
	assert.Error(t, err)

	_, _, err = Butterworth(0, 1, 30)
	assert.Error(t, err)
}

func TestFiltFiltPreservesConstant(t *testing.T) {
	b, a, err := Butterworth(3, 3, 30)
	require.NoError(t, err)

	x := make([]float64, 20)
	for i := range x {
		x[i] = 5
	}
	y, err := FiltFilt(b, a, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, x, y, 1e-9)

	_, err = FiltFilt(b, a, x[:12])
	assert.Error(t, err)
}

func TestZeroCrossings(t *testing.T) {
	assert.Equal(t, []int{1, 3}, ZeroCrossings([]float64{1, 2, -1, -2, 3}))
	assert.Equal(t, []int{0, 1}, ZeroCrossings([]float64{1, 0, 1}))
	assert.Empty(t, ZeroCrossings([]float64{1}))
}

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want []int
	}{
		{"single", []float64{0, 1, 0}, []int{1}},
		{"plateau", []float64{0, 2, 2, 2, 0}, []int{2}},
		{"even plateau", []float64{0, 2, 2, 0}, []int{1}},
		{"edges ignored", []float64{3, 1, 3}, nil},
		{"rising plateau", []float64{0, 2, 2, 3, 0}, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalMaxima(tt.x))
		})
	}
}

func TestFindPeaksDistancePrefersHigher(t *testing.T) {
	x := []float64{0, 5, 0, 9, 0, 4, 0, 0, 0, 7, 0}
	assert.Equal(t, []int{3, 9}, FindPeaks(x, 0, 3))
	assert.Equal(t, []int{3, 9}, FindPeaks(x, 6, 1))
}

func TestFindPeaksTieKeepsLaterPeak(t *testing.T) {
	x := []float64{0, 5, 0, 5, 0}
	assert.Equal(t, []int{3}, FindPeaks(x, 0, 3))
}

func TestDetectSinePeriod(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		period float64
		fps    float64
	}{
		{"period 20 at 30 fps", 100, 20, 30},
		{"period 24 at 30 fps", 100, 24, 30},
		{"period 30 at 30 fps", 100, 30, 30},
		{"period 25 at 50 fps", 120, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := Detect(sineAreas(tt.n, tt.period), tt.fps, DefaultConfig())
			require.NoError(t, err)
			assert.InDelta(t, tt.period, float64(span.Len()), 1)
			assert.GreaterOrEqual(t, span.Start, 0)
			assert.LessOrEqual(t, span.End, tt.n)
		})
	}
}

func TestDetectTriangleSquares(t *testing.T) {
	a, err := Analyze(triangleSquareAreas(40), 30, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, Span{Start: 10, End: 30}, a.Span)
	assert.Equal(t, []int{10, 30}, a.Peaks)
	assert.Equal(t, 11, a.MinPeakDistance)
	assert.InDelta(t, 29.0/3.0, a.MinStartFrame, 1e-9)
	assert.Equal(t, "[10, 30)", a.Span.String())
}

func TestDetectEndsAtLastFrameWithoutNextPeak(t *testing.T) {
	// Same wave shifted so the only peak lands on frame 15.
	areas := triangleSquareAreas(45)[15:]

	span, err := Detect(areas, 30, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 15, End: 29}, span)
}

func TestDetectInsufficientData(t *testing.T) {
	tests := []struct {
		name  string
		areas []float64
		fps   float64
	}{
		{"too short", []float64{1, 2, 3, 2, 1}, 30},
		{"constant", make([]float64, 40), 30},
		{"bad frame rate", sineAreas(100, 20), 0},
		{"low frame rate", sineAreas(100, 20), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Detect(tt.areas, tt.fps, DefaultConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientCycleData))
		})
	}
}
