package pipeline

import (
	"context"
	"image"
	"log/slog"

	"github.com/nvr-ai/go-strain/border"
	"github.com/nvr-ai/go-strain/cycle"
	"github.com/nvr-ai/go-strain/images"
	"github.com/nvr-ai/go-strain/inference"
	"github.com/nvr-ai/go-strain/motion"
	"github.com/nvr-ai/go-strain/polyline"
	"github.com/nvr-ai/go-strain/profiler"
	"github.com/nvr-ai/go-strain/strain"
	"github.com/pkg/errors"
)

// Result is the outcome of one estimation.
type Result struct {
	// Span is the analysed cycle in input frame indices.
	Span cycle.Span `json:"span"`
	// Lengths holds the border length per span frame, in tracking pixels.
	Lengths []float64 `json:"lengths"`
	// Strain holds the strain curve per span frame; Strain[0] is 0.
	Strain []float64 `json:"strain"`
	// LVGLS is min(Strain) as a percentage.
	LVGLS float64 `json:"lvgls"`
	// Border is the ordered reference border in tracking coordinates.
	Border polyline.Path `json:"-"`
	// Tracked holds the tracked points per span frame in input frame coordinates.
	Tracked []polyline.Path `json:"-"`
	// Annotated holds the span frames with the tracked points drawn, when annotation is enabled.
	Annotated []*image.RGBA `json:"-"`
	// Timings holds the duration of every completed stage in run order.
	Timings []profiler.OperationStats `json:"timings"`
}

// Estimator runs the strain estimation with a fixed configuration and segmenter.
type Estimator struct {
	cfg       Config
	segmenter inference.Segmenter
	logger    *slog.Logger
}

// New creates an estimator.
//
// Arguments:
// - cfg: Stage settings.
// - segmenter: Produces the left ventricle masks.
//
// Returns:
// - The estimator.
//
// @example
// est := pipeline.New(pipeline.DefaultConfig(), seg)
// res, err := est.Run(ctx, frames, 30)
func New(cfg Config, segmenter inference.Segmenter) *Estimator {
	return &Estimator{
		cfg:       cfg,
		segmenter: segmenter,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for stage output.
func (e *Estimator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Config returns the estimator's settings.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Run estimates LVGLS from a cine.
//
// Arguments:
// - ctx: Cancels the run between stages and during flow computation.
// - frames: The cine frames in time order, all of the same size and any colour model.
// - fps: Frame rate of the cine.
//
// Returns:
// - The strain result, tracked points and annotated span frames.
// - A *StageError naming the failing stage and wrapping its cause.
func (e *Estimator) Run(ctx context.Context, frames []image.Image, fps float64) (*Result, error) {
	prof := profiler.New()

	geom, err := e.validate(frames, fps)
	if err != nil {
		return nil, fail(StageInput, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(StagePreprocess, err)
	}
	done := prof.StartOperation(string(StagePreprocess))
	tracking := make([]*image.Gray, len(frames))
	err = parallelFrames(len(frames), func(i int) error {
		g, err := geom.Prepare(frames[i])
		tracking[i] = g
		return err
	})
	if err != nil {
		return nil, fail(StagePreprocess, err)
	}
	done()
	e.logger.Debug("prepared tracking frames",
		"frames", len(frames),
		"orientation", geom.Orientation,
		"square", geom.Square,
		"crop", geom.Crop,
		"scale", geom.Scale)

	if err := ctx.Err(); err != nil {
		return nil, fail(StageSegmentation, err)
	}
	done = prof.StartOperation(string(StageSegmentation))
	masks, err := e.segmenter.Segment(ctx, tracking)
	if err != nil {
		return nil, fail(StageSegmentation, errors.Wrap(err, "segment frames"))
	}
	if len(masks) != len(frames) {
		return nil, fail(StageSegmentation, errors.Wrapf(inference.ErrSegmentation,
			"got %d masks for %d frames", len(masks), len(frames)))
	}

	done()

	done = prof.StartOperation(string(StageCycle))
	areas := make([]float64, len(masks))
	for i, m := range masks {
		areas[i] = float64(m.Count())
	}
	span, err := cycle.Detect(areas, fps, e.cfg.Cycle)
	if err != nil {
		return nil, fail(StageCycle, err)
	}
	done()
	e.logger.Debug("detected cycle", "span", span.String(), "frames", span.Len())

	if err := ctx.Err(); err != nil {
		return nil, fail(StageBorder, err)
	}
	done = prof.StartOperation(string(StageBorder))
	path, points, err := e.extractBorder(masks[span.Start])
	if err != nil {
		return nil, fail(StageBorder, err)
	}
	done()
	e.logger.Debug("extracted border",
		"frame", span.Start,
		"mask", images.ComputeMaskChecksum(masks[span.Start]),
		"pixels", len(path),
		"points", len(points))

	done = prof.StartOperation(string(StageMotion))
	fields, err := motion.ComputeFields(ctx, tracking[span.Start:span.End], e.cfg.Motion)
	if err != nil {
		return nil, fail(StageMotion, err)
	}
	snapshots := motion.Track(points, fields)
	done()
	e.logger.Debug("tracked border", "fields", len(fields), "snapshots", len(snapshots))

	done = prof.StartOperation(string(StageStrain))
	measured, err := strain.Measure(snapshots, e.cfg.Strain)
	if err != nil {
		return nil, fail(StageStrain, err)
	}
	done()

	res := &Result{
		Span:    span,
		Lengths: measured.Lengths,
		Strain:  measured.Strain,
		LVGLS:   measured.LVGLS,
		Border:  path,
		Tracked: make([]polyline.Path, len(snapshots)),
	}
	for i, s := range snapshots {
		res.Tracked[i] = geom.ToOriginalPath(s)
	}

	if e.cfg.Annotate {
		if err := ctx.Err(); err != nil {
			return nil, fail(StageAnnotation, err)
		}
		done = prof.StartOperation(string(StageAnnotation))
		res.Annotated, err = e.annotate(frames[span.Start:span.End], res.Tracked)
		if err != nil {
			return nil, fail(StageAnnotation, err)
		}
		done()
	}
	res.Timings = prof.Stats()

	e.logger.Info("estimated LVGLS",
		"lvgls", res.LVGLS,
		"span", span.String(),
		"points", len(points),
		"timings", prof)
	return res, nil
}

// validate checks the frames and the frame rate and derives the geometry shared by every frame.
func (e *Estimator) validate(frames []image.Image, fps float64) (Geometry, error) {
	if e.segmenter == nil {
		return Geometry{}, errors.Wrap(ErrInvalidInput, "no segmenter configured")
	}
	if len(frames) == 0 {
		return Geometry{}, errors.Wrap(ErrInvalidInput, "no frames")
	}
	if fps <= 0 {
		return Geometry{}, errors.Wrapf(ErrInvalidInput, "frame rate must be positive, got %g", fps)
	}

	for i, f := range frames {
		if f == nil {
			return Geometry{}, errors.Wrapf(ErrInvalidInput, "frame %d is nil", i)
		}
	}
	size := frames[0].Bounds().Size()
	for i, f := range frames {
		if s := f.Bounds().Size(); s != size {
			return Geometry{}, errors.Wrapf(ErrInvalidInput, "frame %d is %v, frame 0 is %v", i, s, size)
		}
	}
	return NewGeometry(size, e.cfg.Preprocess)
}

// extractBorder extracts the reference border from the mask at the start of the cycle, refines it to
// the tracking size and samples the points to track.
func (e *Estimator) extractBorder(mask images.Mask) (polyline.Path, polyline.Points, error) {
	b, err := border.Extract(mask, e.cfg.Border)
	if err != nil {
		return nil, nil, err
	}
	size := e.cfg.Preprocess.TrackingSize
	b, err = border.Refine(b, image.Pt(size, size), e.cfg.Border)
	if err != nil {
		return nil, nil, err
	}

	path, err := polyline.Order(b)
	if err != nil {
		return nil, nil, errors.Wrapf(border.ErrExtractionFailed, "order border: %v", err)
	}
	points, err := polyline.Sample(path, e.cfg.Sampling.Points)
	if err != nil {
		return nil, nil, errors.Wrapf(border.ErrExtractionFailed, "sample border: %v", err)
	}
	return path, points, nil
}

// annotate draws the tracked points of each span frame onto a copy of it.
func (e *Estimator) annotate(frames []image.Image, tracked []polyline.Path) ([]*image.RGBA, error) {
	out := make([]*image.RGBA, len(frames))
	err := parallelFrames(len(frames), func(i int) error {
		origin := frames[i].Bounds().Min
		pts := make([]image.Point, len(tracked[i]))
		for j, p := range tracked[i] {
			pts[j] = p.Add(origin)
		}
		a, err := images.DrawPoints(frames[i], pts, e.cfg.Marker)
		out[i] = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EstimateLVGLS runs a default estimator and returns the LVGLS percentage with the annotated
// span frames.
//
// @example
// lvgls, annotated, err := pipeline.EstimateLVGLS(ctx, frames, 30, seg)
func EstimateLVGLS(ctx context.Context, frames []image.Image, fps float64, segmenter inference.Segmenter) (float64, []*image.RGBA, error) {
	res, err := New(DefaultConfig(), segmenter).Run(ctx, frames, fps)
	if err != nil {
		return 0, nil, err
	}
	return res.LVGLS, res.Annotated, nil
}
