package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/backmassage/splatmaster/internal/advisor"
	"github.com/backmassage/splatmaster/internal/colmap"
	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/display"
	"github.com/backmassage/splatmaster/internal/ffmpeg"
	"github.com/backmassage/splatmaster/internal/probe"
	"github.com/backmassage/splatmaster/internal/resize"
	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/workspace"
)

// stderrTail is how many lines of a failed tool's stderr get logged.
const stderrTail = 20

// Logger is the subset of the application logger the pipeline uses.
type Logger interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
}

// Trainer performs the Train stage. Implementations block until training
// ends.
type Trainer interface {
	Name() string
	Train(ctx context.Context, ws workspace.Workspace, tc advisor.TrainingConfig) error
}

// Env carries the collaborators a run needs.
type Env struct {
	Runner  runner.Runner
	Resizer resize.Resizer // required when the resize pass runs
	Trainer Trainer        // required unless training is skipped
	Log     Logger

	// NewProgress creates a per-frame progress indicator. Nil draws nothing.
	NewProgress func(total int, description string) display.Progress

	// Out receives tables and the final summary. Defaults to os.Stdout.
	Out io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) progress(total int, description string) display.Progress {
	if e.NewProgress == nil {
		return display.Discard{}
	}
	return e.NewProgress(total, description)
}

// Run executes the pipeline for cfg. The returned Result is non-nil even on
// error and reflects the stages completed so far.
func Run(ctx context.Context, cfg *config.Config, env Env) (*Result, error) {
	ws, err := workspace.New(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	res := &Result{Workspace: ws}

	if err := checkPreconditions(cfg, ws, env); err != nil {
		return res, err
	}
	if err := os.MkdirAll(ws.Root, 0o755); err != nil {
		return res, fmt.Errorf("create workspace: %w", err)
	}

	stages := []struct {
		stage Stage
		skip  bool
		run   func() error
	}{
		{StageExtract, cfg.SkipExtract, func() error { return extract(ctx, cfg, ws, env, res) }},
		{StageResize, !cfg.ResizeEnabled(), func() error { return resizeFrames(ctx, cfg, ws, env, res) }},
		{StageReconstruct, !cfg.LocalReconstruct(), func() error {
			models, err := reconstruct(ctx, ws, env, colmap.Options{Matcher: cfg.Matcher, UseGPU: cfg.UseGPU}, true)
			res.Models = models
			return err
		}},
		{StageAdvise, false, func() error { return advise(cfg, ws, env, res) }},
		{StageTrain, cfg.SkipTraining, func() error { return train(ctx, ws, env, res) }},
		{StageSummarize, false, func() error { return summarize(ws, env, res) }},
	}

	for i, s := range stages {
		if err := ctx.Err(); err != nil {
			env.Log.Warn("Interrupted")
			return res, err
		}
		if s.skip {
			logSkip(cfg, env.Log, s.stage)
			res.Skipped = append(res.Skipped, s.stage)
			continue
		}
		env.Log.Info("[%d/%d] %s", i+1, len(stages), stageTitle(s.stage))
		start := time.Now()
		err := s.run()
		res.Ran = append(res.Ran, StageTiming{Stage: s.stage, Duration: time.Since(start)})
		if err != nil {
			if ctx.Err() != nil {
				env.Log.Warn("Interrupted")
				return res, ctx.Err()
			}
			logFailure(env.Log, err)
			return res, err
		}
	}
	return res, nil
}

// checkPreconditions verifies every skipped stage's output and every
// required collaborator before anything runs.
func checkPreconditions(cfg *config.Config, ws workspace.Workspace, env Env) error {
	if cfg.SkipExtract {
		n, err := ws.FrameCount()
		if err != nil {
			return fmt.Errorf("scan %s: %w", ws.Images(), err)
		}
		if n == 0 {
			return precondition("--skip-extract needs existing frames in %s", ws.Images())
		}
	} else if err := checkVideo(cfg.VideoPath); err != nil {
		return err
	}

	localTraining := !cfg.SkipTraining && !cfg.Remote
	if cfg.SkipReconstruct && localTraining {
		models, err := ws.Models()
		if err != nil {
			return fmt.Errorf("scan %s: %w", ws.Sparse(), err)
		}
		if len(models) == 0 {
			return precondition("--skip-colmap needs a reconstruction model in %s", ws.Sparse())
		}
	}

	if cfg.ResizeEnabled() && env.Resizer == nil {
		return errors.New("no resizer configured")
	}
	if !cfg.SkipTraining && env.Trainer == nil {
		return errors.New("no trainer configured")
	}
	return nil
}

func extract(ctx context.Context, cfg *config.Config, ws workspace.Workspace, env Env, res *Result) error {
	if !IsVideoFile(cfg.VideoPath) {
		env.Log.Warn("Unrecognized video extension, letting ffmpeg decide: %s", cfg.VideoPath)
	}
	if err := os.MkdirAll(ws.Images(), 0o755); err != nil {
		return &StageError{Stage: StageExtract, Step: "create images dir", Err: err}
	}

	inspect(ctx, cfg, env)

	env.Log.Info("Sampling %s at %s fps", cfg.VideoPath, ffmpeg.FormatRate(cfg.FPS))
	args := ffmpeg.ExtractArgs(cfg.VideoPath, cfg.FPS, ws.FrameTemplate())
	env.Log.Debug("%s", runner.CommandLine(ffmpeg.Tool, args...))
	if _, err := env.Runner.Run(ctx, ffmpeg.Tool, args...); err != nil {
		if hint := ffmpeg.Hint(stderrOf(err)); hint != "" {
			env.Log.Warn("Hint: %s", hint)
		}
		return &StageError{Stage: StageExtract, Step: ffmpeg.Tool, Err: err}
	}

	n, err := ws.FrameCount()
	if err != nil {
		return &StageError{Stage: StageExtract, Step: "count frames", Err: err}
	}
	if n == 0 {
		return &StageError{Stage: StageExtract, Step: ffmpeg.Tool, Err: errNoFrames}
	}
	res.Frames = n
	env.Log.Success("Extracted %d frames", n)
	return nil
}

// inspect logs what ffprobe reports about the source and warns about
// inputs that tend to reconstruct poorly. Probe failures are not fatal.
func inspect(ctx context.Context, cfg *config.Config, env Env) {
	vi, err := probe.Probe(ctx, env.Runner, cfg.VideoPath)
	if err != nil {
		env.Log.Debug("Skipping video inspection: %v", err)
		return
	}
	env.Log.Info("Source: %s %s, %.1fs", vi.Codec, vi.Resolution(), vi.Duration)
	if vi.IsHDR() {
		env.Log.Warn("HDR source (%s); extracted frames are not tonemapped and may look washed out", vi.ColorTransfer)
	}
	if vi.IsInterlaced() {
		env.Log.Warn("Interlaced source (field order %s); combing can hurt feature matching", vi.FieldOrder)
	}
	if n := vi.ExpectedFrames(cfg.FPS); n > 0 {
		env.Log.Debug("Expecting about %d frames", n)
		if n < advisor.SparseFrames {
			env.Log.Warn("Only about %d frames at %s fps; consider raising --fps", n, ffmpeg.FormatRate(cfg.FPS))
		}
	}
}

func resizeFrames(ctx context.Context, cfg *config.Config, ws workspace.Workspace, env Env, res *Result) error {
	frames, err := ws.Frames()
	if err != nil {
		return &StageError{Stage: StageResize, Step: "list frames", Err: err}
	}

	copied, err := resize.PreserveOriginals(frames, ws.Originals())
	if err != nil {
		return &StageError{Stage: StageResize, Step: "preserve originals", Err: err}
	}
	res.Preserved = copied
	env.Log.Debug("Preserved %d originals in %s", copied, ws.Originals())

	bar := env.progress(len(frames), fmt.Sprintf("Resizing to %dpx", cfg.Resolution))
	rep, err := resize.Apply(ctx, env.Resizer, frames, cfg.Resolution, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	rep.Preserved = copied
	res.Resize = &rep
	if err != nil {
		return err
	}

	if rep.Failed() {
		env.Log.Warn("%d of %d frames could not be resized and keep their original size", len(rep.Failures), rep.Total)
		for _, f := range rep.Failures {
			env.Log.Debug("  %s: %v", f.Path, f.Err)
		}
	} else {
		env.Log.Success("Resized %d frames to at most %dpx", rep.Resized, cfg.Resolution)
	}
	return nil
}

// reconstruct runs feature extraction, matching and mapping, then
// optionally converts every model to TXT. It returns the models found.
func reconstruct(ctx context.Context, ws workspace.Workspace, env Env, opts colmap.Options, convert bool) ([]string, error) {
	if err := os.MkdirAll(ws.Sparse(), 0o755); err != nil {
		return nil, &StageError{Stage: StageReconstruct, Step: "create sparse dir", Err: err}
	}

	for _, step := range colmap.Reconstruction(ws.Database(), ws.Images(), ws.Sparse(), opts) {
		if err := runColmap(ctx, env, step); err != nil {
			return nil, err
		}
	}

	models, err := ws.Models()
	if err != nil {
		return nil, &StageError{Stage: StageReconstruct, Step: "list models", Err: err}
	}
	if len(models) == 0 {
		return nil, &StageError{Stage: StageReconstruct, Step: "mapper", Err: errNoModel}
	}

	if convert {
		for _, m := range models {
			if err := runColmap(ctx, env, colmap.ModelConverter(m)); err != nil {
				return models, err
			}
		}
	}
	env.Log.Success("Reconstructed %d model(s)", len(models))
	return models, nil
}

func runColmap(ctx context.Context, env Env, step colmap.Step) error {
	env.Log.Info("  %s", step.Name)
	env.Log.Debug("%s", runner.CommandLine(colmap.Tool, step.Args...))
	if _, err := env.Runner.Run(ctx, colmap.Tool, step.Args...); err != nil {
		return &StageError{Stage: StageReconstruct, Step: step.Args[0], Err: err}
	}
	return nil
}

func advise(cfg *config.Config, ws workspace.Workspace, env Env, res *Result) error {
	n, err := ws.FrameCount()
	if err != nil {
		return &StageError{Stage: StageAdvise, Step: "count frames", Err: err}
	}
	res.Frames = n

	rec := advisor.Derive(n)
	res.Recommendation = &rec
	for _, a := range rec.Advisories {
		env.Log.Warn("%s", a)
	}

	tc := advisor.Merge(rec, advisor.Overrides{
		Steps:         cfg.Steps,
		SHDegree:      cfg.SHDegree,
		ExportEvery:   cfg.ExportEvery,
		MaxResolution: cfg.Resolution,
	})
	res.Training = &tc
	env.Log.Info("Training settings for %d frames:", n)
	fmt.Fprintln(env.out(), display.KeyValueTable(tc.Pairs()))
	return nil
}

func train(ctx context.Context, ws workspace.Workspace, env Env, res *Result) error {
	env.Log.Info("Training with %s for %s steps", env.Trainer.Name(), display.FormatCount(res.Training.TotalSteps))
	if err := env.Trainer.Train(ctx, ws, *res.Training); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.TrainErr = err
		env.Log.Warn("Training failed (exit %d); exported checkpoints may still be usable", runner.ExitCode(err))
		logStderr(env.Log, stderrOf(err))
		return nil
	}
	env.Log.Success("Training complete")
	return nil
}

func summarize(ws workspace.Workspace, env Env, res *Result) error {
	arts, err := ws.Artifacts()
	if err != nil {
		env.Log.Warn("Could not scan %s: %v", ws.Root, err)
	}
	res.Artifacts = arts
	display.PrintSummary(env.out(), display.Summary{
		Root:      ws.Root,
		Frames:    res.Frames,
		Artifacts: arts,
	})
	return nil
}

// --- Logging helpers ---

func stageTitle(s Stage) string {
	switch s {
	case StageExtract:
		return "Extracting frames"
	case StageResize:
		return "Resizing frames"
	case StageReconstruct:
		return "Reconstructing camera poses"
	case StageAdvise:
		return "Choosing training parameters"
	case StageTrain:
		return "Training Gaussian splat"
	default:
		return "Summary"
	}
}

func logSkip(cfg *config.Config, log Logger, s Stage) {
	switch {
	case s == StageResize && cfg.SkipExtract:
		log.Info("Skipping resize (reusing existing frames)")
	default:
		log.Info("Skipping %s", s)
	}
}

func logFailure(log Logger, err error) {
	log.Error("%v", err)
	logStderr(log, stderrOf(err))
}

func stderrOf(err error) string {
	var ee *runner.ExitError
	if errors.As(err, &ee) {
		return ee.Stderr
	}
	return ""
}

func logStderr(log Logger, stderr string) {
	lines := runner.Tail(stderr, stderrTail)
	if len(lines) == 0 {
		return
	}
	log.Error("Last tool output:")
	for _, l := range lines {
		log.Error("  %s", l)
	}
}
