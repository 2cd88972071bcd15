package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskSetAndAt(t *testing.T) {
	m := NewMask(4, 3)
	m.Set(1, 2, true)
	m.Set(10, 10, true) // ignored

	assert.True(t, m.At(1, 2))
	assert.False(t, m.At(2, 1), "axes must not be transposed")
	assert.False(t, m.At(-1, 0))
	assert.Equal(t, 1, m.Count())
}

func TestMaskCloneIsIndependent(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(1, 1, true)

	c := m.Clone()
	c.Set(0, 0, true)

	assert.False(t, m.At(0, 0))
	assert.True(t, c.At(1, 1))
	assert.False(t, m.Equal(c))
}

func TestMaskNeighbors(t *testing.T) {
	m := NewMask(3, 3)
	for i := range m.Pix {
		m.Pix[i] = true
	}

	assert.Equal(t, 8, m.Neighbors(1, 1))
	assert.Equal(t, 3, m.Neighbors(0, 0))
}

func TestMaskPointsRowMajor(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(2, 0, true)
	m.Set(0, 1, true)
	m.Set(1, 0, true)

	assert.Equal(t, []image.Point{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 1}}, m.Points())
}

func TestMaskGrayRoundTrip(t *testing.T) {
	m := NewMask(5, 4)
	m.Set(4, 3, true)
	m.Set(0, 1, true)

	g := m.ToGray(255)
	require.Equal(t, image.Rect(0, 0, 5, 4), g.Bounds())
	assert.Equal(t, uint8(255), g.GrayAt(4, 3).Y)

	assert.True(t, MaskFromGray(g).Equal(m))
}

func TestNeighbors8CompassOrder(t *testing.T) {
	expected := []image.Point{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0},
		{X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0},
	}
	assert.Equal(t, expected, Neighbors8[:])
}
