package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies one step of the pipeline.
type Stage int

const (
	StageExtract Stage = iota
	StageResize
	StageReconstruct
	StageAdvise
	StageTrain
	StageSummarize
)

var stageNames = [...]string{
	StageExtract:     "extract",
	StageResize:      "resize",
	StageReconstruct: "reconstruct",
	StageAdvise:      "advise",
	StageTrain:       "train",
	StageSummarize:   "summarize",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ErrPrecondition means a skipped stage's expected output is missing, or an
// input the run needs does not exist. No tool was started.
var ErrPrecondition = errors.New("missing precondition")

var (
	errNoFrames = errors.New("no frames were produced")
	errNoModel  = errors.New("no reconstruction model was produced")
)

// StageError is a fatal failure inside a stage. Err is usually a
// *runner.ExitError carrying the tool's stderr.
type StageError struct {
	Stage Stage
	Step  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed at %s: %v", e.Stage, e.Step, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func precondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
