package images

import (
	"runtime"
	"sync"
)

// Clamp restricts a value to the given range.
//
// Arguments:
// - value: The value to clamp.
// - min: The minimum allowed value.
// - max: The maximum allowed value.
//
// Returns:
// - The clamped value.
//
// @example
// pixel := Clamp(300.0, 0.0, 255.0) // Returns 255.0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampInt restricts an integer index to [min, max].
func ClampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Parallel splits [0, dataSize) into contiguous partitions processed concurrently.
//
// Small inputs are processed serially on the calling goroutine.
//
// Arguments:
// - dataSize: Total number of items (typically image rows).
// - fn: Function processing the half-open partition [partStart, partEnd).
//
// @example
//
//	Parallel(img.Bounds().Dy(), func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining rows.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
