// Command splatmaster turns a video into a trained Gaussian splat.
//
// It parses flags, validates configuration, and either runs system
// diagnostics (--check), the remote worker side of a dispatched job
// (--worker), or the local pipeline with training on this machine or on a
// remote GPU host (--remote).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backmassage/splatmaster/internal/brush"
	"github.com/backmassage/splatmaster/internal/check"
	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/display"
	"github.com/backmassage/splatmaster/internal/logging"
	"github.com/backmassage/splatmaster/internal/pipeline"
	"github.com/backmassage/splatmaster/internal/remote"
	"github.com/backmassage/splatmaster/internal/resize"
	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/term"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "0.3.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "splatmaster: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "splatmaster: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "splatmaster: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available.
	display.PrintBanner(os.Stdout, version)

	// Cancel on SIGINT/SIGTERM; the running tool is killed and the current
	// stage reports the interruption.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping current stage…")
		cancel()
	}()

	quiet := &runner.ExecRunner{}
	if cfg.Verbose {
		quiet.Tee = os.Stdout
	}
	// Long-running tools (training, transfers) always stream their output.
	loud := &runner.ExecRunner{Tee: os.Stdout}

	if cfg.CheckOnly {
		check.RunCheck(ctx, &cfg, quiet, log)
		return 0
	}

	if cfg.Worker {
		return runWorker(ctx, &cfg, log, quiet, loud)
	}

	env := pipeline.Env{Runner: quiet, Log: log}

	// Phase 3: Resolve training. Remote profiles are validated before any
	// network action; local training needs Brush before any work starts.
	trainingLabel := "skipped"
	if !cfg.SkipTraining {
		if cfg.Remote {
			tr, err := remoteTrainer(&cfg, log, loud)
			if err != nil {
				log.Error("%v", err)
				return 1
			}
			env.Trainer = tr
		} else {
			path, err := brush.DefaultLocator(cfg.BrushPath).Locate()
			if err != nil {
				log.Error("%v", err)
				for _, hint := range brush.Remediation() {
					log.Info("  %s", hint)
				}
				return 1
			}
			env.Trainer = &brush.LocalTrainer{Runner: loud, Path: path, Viewer: cfg.Viewer}
		}
		trainingLabel = env.Trainer.Name()
	}

	cfg.Resizer = check.ResolveResizer(cfg.Resizer)
	if cfg.Resizer == config.ResizeMagick {
		env.Resizer = &resize.MagickResizer{Runner: quiet}
	} else {
		env.Resizer = &resize.ImagingResizer{}
	}

	// Fail fast if a tool the selected stages need is missing.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	if term.IsTerminal(os.Stdout) && !cfg.Verbose {
		env.NewProgress = func(total int, description string) display.Progress {
			return display.NewFrameBar(os.Stdout, total, description)
		}
	}

	log.Info("=== splatmaster v%s (%s) ===", version, commit)
	if !cfg.SkipExtract {
		log.Info("Video:      %s", cfg.VideoPath)
	}
	log.Info("Workspace:  %s", cfg.Workspace)
	log.Info("FPS:        %g", cfg.FPS)
	log.Info("Resolution: %d (%s resizer)", cfg.Resolution, cfg.Resizer)
	log.Info("Matcher:    %s", cfg.Matcher)
	log.Info("Training:   %s", trainingLabel)
	log.Info("")

	// Phase 4: Run pipeline.
	res, err := pipeline.Run(ctx, &cfg, env)
	if err != nil {
		reportFailure(log, err)
		return 1
	}
	if res.TrainErr != nil {
		log.Warn("Finished with a failed training run: %v", res.TrainErr)
	} else {
		log.Success("Done in %s", res.Elapsed().Round(time.Second))
	}
	return 0
}

func remoteTrainer(cfg *config.Config, log *logging.Logger, r runner.Runner) (*remote.Trainer, error) {
	d := &remote.Dispatcher{
		Transport: &remote.SSHTransport{Runner: r},
		Store:     &remote.FileStore{Path: remote.DefaultStorePath()},
		Log:       log,
		Command:   cfg.RemoteCommand,
	}
	explicit := remote.Profile{Host: cfg.RemoteHost, User: cfg.RemoteUser, BasePath: cfg.RemotePath}
	p, err := d.ResolveProfile(explicit, cfg.SaveRemoteConfig)
	if err != nil {
		return nil, err
	}
	return &remote.Trainer{Dispatcher: d, Profile: p}, nil
}

func runWorker(ctx context.Context, cfg *config.Config, log *logging.Logger, quiet, loud runner.Runner) int {
	if err := check.CheckDeps(cfg); err != nil {
		log.Error("%v", err)
		return 1
	}
	env := pipeline.Env{
		Runner:  quiet,
		Log:     log,
		Trainer: &pipeline.ScriptTrainer{Runner: loud, Script: cfg.TrainerScript},
	}
	if _, err := pipeline.RunWorker(ctx, cfg, env); err != nil {
		reportFailure(log, err)
		return 1
	}
	return 0
}

// reportFailure logs err unless the pipeline already did: stage failures
// are logged with their tool output, interruptions when they happen.
func reportFailure(log *logging.Logger, err error) {
	var se *pipeline.StageError
	if errors.As(err, &se) || errors.Is(err, context.Canceled) {
		return
	}
	log.Error("%v", err)
}
