package pipeline

import (
	"time"

	"github.com/backmassage/splatmaster/internal/advisor"
	"github.com/backmassage/splatmaster/internal/resize"
	"github.com/backmassage/splatmaster/internal/workspace"
)

// StageTiming records how long a stage that actually ran took.
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// Result collects what a run did. It is returned alongside a fatal error
// too, describing the stages completed before the failure.
type Result struct {
	Workspace workspace.Workspace
	Frames    int

	Preserved int            // originals newly copied
	Resize    *resize.Report // nil when the resize pass did not run

	Models []string // reconstruction models converted this run

	Recommendation *advisor.Recommendation
	Training       *advisor.TrainingConfig

	// TrainErr is a failed training run. Training failures never abort
	// the pipeline because partial exports may still exist.
	TrainErr error

	Artifacts []workspace.Artifact
	Ran       []StageTiming
	Skipped   []Stage
}

// Elapsed is the total time spent in stages that ran.
func (r *Result) Elapsed() time.Duration {
	var d time.Duration
	for _, t := range r.Ran {
		d += t.Duration
	}
	return d
}

// RanStage reports whether s executed (rather than being skipped).
func (r *Result) RanStage(s Stage) bool {
	for _, t := range r.Ran {
		if t.Stage == s {
			return true
		}
	}
	return false
}
