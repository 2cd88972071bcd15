package motion

import (
	"context"
	"image"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// FlowFunc computes the displacement between two frames.
type FlowFunc func(prev, next *image.Gray) (Field, error)

// ComputeFields computes the flow for every consecutive frame pair.
//
// Pairs are processed by a bounded pool of workers; the result slice is indexed by pair, so
// fields[i] maps frame i onto frame i+1 regardless of completion order. The first error (or the
// context's cancellation) stops the remaining work.
//
// Arguments:
// - ctx: Cancels outstanding pairs.
// - frames: The tracking frames in time order.
// - cfg: Flow parameters and the worker bound.
//
// Returns:
// - len(frames)-1 fields in frame order.
// - The first error encountered.
//
// @example
// fields, err := motion.ComputeFields(ctx, frames[span.Start:span.End], motion.DefaultConfig())
func ComputeFields(ctx context.Context, frames []*image.Gray, cfg Config) ([]Field, error) {
	return computeFields(ctx, frames, cfg.Workers, func(prev, next *image.Gray) (Field, error) {
		return Farneback(prev, next, cfg.Params)
	})
}

func computeFields(ctx context.Context, frames []*image.Gray, workers int, flow FlowFunc) ([]Field, error) {
	if len(frames) < 2 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fields := make([]Field, len(frames)-1)
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w, n := 0, min(workers, len(fields)); w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				f, err := flow(frames[i], frames[i+1])
				if err != nil {
					fail(errors.Wrapf(err, "flow between frames %d and %d", i, i+1))
					continue
				}
				fields[i] = f
			}
		}()
	}

feed:
	for i := range fields {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "flow computation cancelled")
	}
	return fields, nil
}
