// Command lvgls estimates left ventricular global longitudinal strain from an echo cine.
//
// The cine is read either from a directory of frame-<n> images or from a video file. The
// annotated cycle frames and a JSON summary are written to the output directory when one is
// given.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-strain/config"
	"github.com/nvr-ai/go-strain/inference"
	"github.com/nvr-ai/go-strain/inference/providers"
	"github.com/nvr-ai/go-strain/pipeline"
	"github.com/nvr-ai/go-strain/util"
	"github.com/pkg/errors"
)

func main() {
	var (
		configFile = flag.String("config", "lvgls.yaml", "Path to the YAML configuration file")
		framesDir  = flag.String("frames", "", "Directory of frame-<n> images")
		videoFile  = flag.String("video", "", "Video file to read instead of a frame directory")
		fps        = flag.Float64("fps", 0, "Frame rate (overrides the video and the configuration)")
		modelPath  = flag.String("model", "", "Path to the segmentation ONNX model")
		provider   = flag.String("provider", "", "Execution provider: cpu, cuda, coreml or openvino")
		outputDir  = flag.String("out", "", "Directory for annotated frames and result.json")
		logFormat  = flag.String("log-format", "", "Log format: text or json")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn or error")
		timeout    = flag.Duration("timeout", 10*time.Minute, "Abort the run after this duration")
		writeCfg   = flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *modelPath != "" {
		cfg.Segmentation.ModelPath = *modelPath
	}
	if *provider != "" {
		cfg.Segmentation.Provider.Backend = providers.ProviderBackend(*provider)
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	slog.SetDefault(logger)

	if *writeCfg {
		if err := config.SaveConfig(cfg, *configFile); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		logger.Info("wrote configuration", "path", *configFile)
		return
	}

	frames, rate, err := loadCine(*framesDir, *videoFile)
	if err != nil {
		log.Fatalf("Failed to load cine: %v", err)
	}
	switch {
	case *fps > 0:
		rate = *fps
	case rate <= 0:
		rate = cfg.FrameRate
	}
	logger.Info("loaded cine", "frames", len(frames), "fps", rate, "size", frames[0].Bounds().Size())

	seg, err := inference.NewONNXSegmenter(cfg.Segmentation, logger)
	if err != nil {
		log.Fatalf("Failed to create segmenter: %v", err)
	}
	defer seg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	est := pipeline.New(cfg.Pipeline, seg)
	est.SetLogger(logger)

	res, err := est.Run(ctx, frames, rate)
	if err != nil {
		if stage, ok := pipeline.StageOf(err); ok {
			logger.Error("estimation failed", "stage", stage, "error", err)
		}
		seg.Close()
		log.Fatalf("Failed to estimate LVGLS: %v", err)
	}

	fmt.Printf("LVGLS: %.2f%% (frames %s)\n", res.LVGLS, res.Span)

	if *outputDir != "" {
		if err := writeOutput(*outputDir, res); err != nil {
			seg.Close()
			log.Fatalf("Failed to write output: %v", err)
		}
		logger.Info("wrote output", "dir", *outputDir, "frames", len(res.Annotated))
	}
}

// loadCine reads the frames from a directory or a video file. The returned rate is zero when
// the source does not carry one.
func loadCine(dir, video string) ([]image.Image, float64, error) {
	switch {
	case dir != "" && video != "":
		return nil, 0, errors.New("use either -frames or -video, not both")
	case video != "":
		return util.LoadVideo(video)
	case dir != "":
		frames, err := util.LoadFrames(dir)
		return frames, 0, err
	default:
		return nil, 0, errors.New("an input is required (-frames or -video)")
	}
}

type summary struct {
	LVGLS   float64   `json:"lvgls"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Strain  []float64 `json:"strain"`
	Lengths []float64 `json:"lengths"`
	Frames  []string  `json:"frames,omitempty"`
}

func writeOutput(dir string, res *pipeline.Result) error {
	annotated := make([]image.Image, len(res.Annotated))
	for i, a := range res.Annotated {
		annotated[i] = a
	}
	paths, err := util.SaveFrames(dir, res.Span.Start, annotated)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary{
		LVGLS:   res.LVGLS,
		Start:   res.Span.Start,
		End:     res.Span.End,
		Strain:  res.Strain,
		Lengths: res.Lengths,
		Frames:  paths,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode summary")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(dir, "result.json"), data, 0o644), "failed to write summary")
}
