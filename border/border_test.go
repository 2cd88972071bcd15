package border

import (
	"image"
	"math"
	"testing"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drawArc rasterizes a circle arc between angles a0 and a1 (radians, y pointing down).
func drawArc(m images.Mask, cx, cy, r, a0, a1 float64) {
	const steps = 2000
	for i := 0; i <= steps; i++ {
		a := a0 + (a1-a0)*float64(i)/steps
		m.Set(int(math.Round(cx+r*math.Cos(a))), int(math.Round(cy+r*math.Sin(a))), true)
	}
}

// squareOutline draws the one pixel outline of a square centred on (56, 56) in a 112x112 mask.
func squareOutline(side int) images.Mask {
	m := images.NewMask(112, 112)
	lo := 56 - side/2
	hi := lo + side - 1
	for i := lo; i <= hi; i++ {
		m.Set(i, lo, true)
		m.Set(i, hi, true)
		m.Set(lo, i, true)
		m.Set(hi, i, true)
	}
	return m
}

func filledSquare(side int) images.Mask {
	m := images.NewMask(112, 112)
	lo := 56 - side/2
	for y := lo; y < lo+side; y++ {
		for x := lo; x < lo+side; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

func TestEraseBaseOnlyBelowStartRow(t *testing.T) {
	outline := squareOutline(40)
	open, err := EraseBase(outline, 55)
	require.NoError(t, err)

	// Top edge (row 36) is untouched, bottom edge (row 75) loses its interior.
	for x := 36; x <= 75; x++ {
		assert.True(t, open.At(x, 36), "top edge x=%d", x)
	}
	for x := 38; x <= 74; x++ {
		assert.False(t, open.At(x, 75), "bottom edge x=%d", x)
	}
	assert.True(t, open.At(36, 75))
	assert.True(t, open.At(37, 75))

	// Vertical walls never match the probe.
	for y := 36; y <= 75; y++ {
		assert.True(t, open.At(36, y))
		assert.True(t, open.At(75, y))
	}
	assert.True(t, outline.At(50, 75), "input must not be modified")
}

func TestThinProducesOnePixelCurve(t *testing.T) {
	m := images.NewMask(60, 20)
	for y := 8; y < 13; y++ {
		for x := 5; x < 55; x++ {
			m.Set(x, y, true)
		}
	}

	thin := Thin(m)
	require.Positive(t, thin.Count())
	assert.Len(t, Components(thin), 1)
	assert.Len(t, Endpoints(thin), 2)
	for _, p := range thin.Points() {
		assert.LessOrEqual(t, thin.Neighbors(p.X, p.Y), 2, "pixel %v", p)
	}
}

func TestThinKeepsTwoPixelDiagonal(t *testing.T) {
	m := images.NewMask(20, 20)
	for i := 2; i < 14; i++ {
		m.Set(i, i, true)
		m.Set(i+1, i, true)
	}

	thin := Thin(m)
	assert.Equal(t, 13, thin.Count())
	assert.Equal(t, []image.Point{{X: 2, Y: 2}, {X: 14, Y: 13}}, Endpoints(thin))
	for _, p := range thin.Points() {
		assert.LessOrEqual(t, thin.Neighbors(p.X, p.Y), 2)
	}
}

func TestThinKeepsCurveTip(t *testing.T) {
	m := images.NewMask(10, 10)
	m.Set(2, 2, true)
	m.Set(3, 2, true)
	m.Set(3, 3, true)
	m.Set(4, 3, true)

	thin := Thin(m)
	assert.Equal(t, []image.Point{{X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 3}}, thin.Points())
}

func TestPruneBranchesCircleWithTail(t *testing.T) {
	circle := images.NewMask(100, 100)
	drawArc(circle, 50, 50, 20, 0, 2*math.Pi)
	ring := Thin(circle)

	tailed := circle.Clone()
	for x := 71; x <= 80; x++ {
		tailed.Set(x, 50, true)
	}

	pruned := PruneBranches(Thin(tailed), DefaultConfig())

	assert.Empty(t, Endpoints(pruned), "tail must be gone")
	assert.Len(t, Components(pruned), 1)
	assert.Equal(t, ring.Count(), pruned.Count())
	for _, p := range pruned.Points() {
		assert.LessOrEqual(t, p.X, 71, "tail pixel %v survived", p)
	}
}

func TestPruneBranchesKeepsLongBranches(t *testing.T) {
	m := images.NewMask(200, 100)
	for x := 10; x < 190; x++ {
		m.Set(x, 50, true)
	}
	for y := 51; y < 95; y++ {
		m.Set(100, y, true)
	}

	pruned := PruneBranches(m, DefaultConfig())
	assert.Len(t, Endpoints(pruned), 3)
}

func TestPruneBranchesDropsSmallComponents(t *testing.T) {
	m := images.NewMask(100, 20)
	for x := 5; x < 95; x++ {
		m.Set(x, 5, true)
	}
	for x := 5; x < 20; x++ {
		m.Set(x, 15, true)
	}

	pruned := PruneBranches(m, DefaultConfig())
	assert.Equal(t, 90, pruned.Count())
}

func TestReduceSquareOutline(t *testing.T) {
	tests := []struct {
		side  int
		count int
		ends  []image.Point
	}{
		{20, 56, []image.Point{{X: 47, Y: 65}, {X: 65, Y: 65}}},
		{30, 86, []image.Point{{X: 42, Y: 70}, {X: 70, Y: 70}}},
		{40, 116, []image.Point{{X: 37, Y: 75}, {X: 75, Y: 75}}},
	}

	for _, tt := range tests {
		open, err := EraseBase(squareOutline(tt.side), DefaultConfig().BaseEraseStartRow)
		require.NoError(t, err, "side %d", tt.side)
		b, err := Reduce(Thin(open), DefaultConfig())
		require.NoError(t, err, "side %d", tt.side)
		assert.Equal(t, tt.count, b.Count(), "side %d", tt.side)
		assert.Equal(t, tt.ends, Endpoints(b), "side %d", tt.side)
	}
}

func TestReduceClosedLoopFails(t *testing.T) {
	_, err := Reduce(Thin(squareOutline(40)), DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}

func TestReduceEmptyFails(t *testing.T) {
	_, err := Reduce(images.NewMask(10, 10), DefaultConfig())
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}

func TestLongestPathPicksLongestEnds(t *testing.T) {
	m := images.NewMask(200, 100)
	for x := 10; x < 190; x++ {
		m.Set(x, 50, true)
	}
	for y := 51; y < 70; y++ {
		m.Set(60, y, true)
	}

	path, err := LongestPath(m)
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{X: 10, Y: 50}, {X: 189, Y: 50}}, Endpoints(path))
	assert.Equal(t, 180, path.Count())
}

func TestOuterContourFilledSquare(t *testing.T) {
	contour, err := OuterContour(filledSquare(40))
	require.NoError(t, err)

	assert.Equal(t, squareOutline(40).Count(), contour.Count())
	assert.True(t, contour.At(36, 36))
	assert.False(t, contour.At(56, 56))
}

func TestOuterContourEmptyMask(t *testing.T) {
	_, err := OuterContour(images.NewMask(112, 112))
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}

func TestExtractSquareMask(t *testing.T) {
	b, err := Extract(filledSquare(40), DefaultConfig())
	require.NoError(t, err)

	ends := Endpoints(b)
	require.Len(t, ends, 2)
	for _, e := range ends {
		assert.GreaterOrEqual(t, e.Y, DefaultConfig().BaseEraseStartRow)
	}
	assert.Greater(t, b.Count(), 80)
	assert.Len(t, Components(b), 1)
}

func TestRefineToTrackingSize(t *testing.T) {
	b, err := Extract(filledSquare(40), DefaultConfig())
	require.NoError(t, err)

	refined, err := Refine(b, image.Pt(568, 568), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 568, refined.Width)
	assert.Len(t, Endpoints(refined), 2)
	assert.Greater(t, refined.Count(), 4*b.Count())
}
