// Package advisor derives Brush training parameters from the size of the
// frame set and merges them with user overrides.
//
// Derivation is pure: the same frame count always yields the same
// recommendation, so it can run before any training tool is located.
package advisor

import (
	"fmt"
)

// Defaults applied before frame-count adjustments.
const (
	DefaultSteps         = 30000
	DefaultSHDegree      = 3
	DefaultExportEvery   = 5000
	DefaultMaxResolution = 1600

	// MaxRefineEvery caps the densification interval.
	MaxRefineEvery = 200
)

// Frame-count thresholds for the step curve.
const (
	SparseFrames = 50  // below: small scene, fewer steps
	mediumFrames = 100 // below (and >= SparseFrames): slightly fewer steps
	denseFrames  = 300 // above: large scene, more steps
)

// TrainingConfig is the full parameter set handed to the trainer.
type TrainingConfig struct {
	TotalSteps    int
	RefineEvery   int
	SHDegree      int
	ExportEvery   int
	MaxResolution int
}

// Pairs returns the config as ordered label/value pairs for display.
func (c TrainingConfig) Pairs() [][2]string {
	return [][2]string{
		{"total_steps", fmt.Sprint(c.TotalSteps)},
		{"refine_every", fmt.Sprint(c.RefineEvery)},
		{"sh_degree", fmt.Sprint(c.SHDegree)},
		{"export_every", fmt.Sprint(c.ExportEvery)},
		{"max_resolution", fmt.Sprint(c.MaxResolution)},
	}
}

// Recommendation is a derived config plus human-readable advisories about
// the input.
type Recommendation struct {
	Frames     int
	Config     TrainingConfig
	Advisories []string
}

// Derive maps a frame count to recommended training parameters. Negative
// counts are treated as zero.
func Derive(frames int) Recommendation {
	if frames < 0 {
		frames = 0
	}
	rec := Recommendation{
		Frames: frames,
		Config: TrainingConfig{
			TotalSteps:    stepCurve(frames),
			RefineEvery:   min(frames, MaxRefineEvery),
			SHDegree:      DefaultSHDegree,
			ExportEvery:   DefaultExportEvery,
			MaxResolution: DefaultMaxResolution,
		},
	}
	if frames < SparseFrames {
		rec.Advisories = append(rec.Advisories,
			fmt.Sprintf("only %d frames - quality may be limited", frames),
			"try increasing --fps to extract more frames")
	}
	return rec
}

// stepCurve: small scenes converge sooner, large ones need more iterations.
func stepCurve(frames int) int {
	switch {
	case frames < SparseFrames:
		return 20000
	case frames < mediumFrames:
		return 25000
	case frames > denseFrames:
		return 35000
	default:
		return DefaultSteps
	}
}

// Overrides are user-supplied values. Steps <= 0 means "use the
// recommendation". SHDegree, ExportEvery and MaxResolution always carry the
// effective CLI value (its default when not given).
type Overrides struct {
	Steps         int
	SHDegree      int
	ExportEvery   int
	MaxResolution int
}

// Merge combines a recommendation with overrides. RefineEvery always comes
// from the recommendation.
func Merge(rec Recommendation, o Overrides) TrainingConfig {
	tc := rec.Config
	if o.Steps > 0 {
		tc.TotalSteps = o.Steps
	}
	tc.SHDegree = o.SHDegree
	tc.ExportEvery = o.ExportEvery
	tc.MaxResolution = o.MaxResolution
	return tc
}
