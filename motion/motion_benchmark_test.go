package motion

import (
	"context"
	"image"
	"testing"

	"github.com/nvr-ai/go-strain/polyline"
)

// BenchmarkFarneback measures one dense flow field at the tracking size.
func BenchmarkFarneback(b *testing.B) {
	prev, next := texture(568, 0), texture(568, 1)
	params := DefaultConfig().Params

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Farneback(prev, next, params); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkComputeFields measures a short cycle with the default worker pool.
func BenchmarkComputeFields(b *testing.B) {
	frames := make([]*image.Gray, 8)
	for i := range frames {
		frames[i] = texture(256, float64(i))
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ComputeFields(context.Background(), frames, DefaultConfig()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTrack measures folding 28 points through a 20 frame cycle.
func BenchmarkTrack(b *testing.B) {
	fields := make([]Field, 19)
	for i := range fields {
		fields[i] = uniformField(568, 568, 0.5, -0.25)
	}
	initial := make(polyline.Points, 28)
	for i := range initial {
		initial[i] = polyline.Point{X: float64(100 + 10*i), Y: 300}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = Track(initial, fields)
	}
}
