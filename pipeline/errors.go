package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage names a step of the estimation.
type Stage string

const (
	StageInput        Stage = "input"
	StagePreprocess   Stage = "preprocess"
	StageSegmentation Stage = "segmentation"
	StageCycle        Stage = "cycle"
	StageBorder       Stage = "border"
	StageMotion       Stage = "motion"
	StageStrain       Stage = "strain"
	StageAnnotation   Stage = "annotation"
)

// ErrInvalidInput is returned (wrapped in a StageError) when the frames or the frame rate cannot
// be processed.
var ErrInvalidInput = errors.New("invalid input")

// StageError reports the stage at which a run failed together with the cause.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements error.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the cause so errors.Is matches the stage sentinels.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage carried by err, if any.
//
// @example
//
//	if stage, ok := pipeline.StageOf(err); ok && stage == pipeline.StageCycle {
//	    // ask for a longer recording
//	}
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

func fail(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
