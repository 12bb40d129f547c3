package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/splatmaster/internal/advisor"
	"github.com/backmassage/splatmaster/internal/colmap"
	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/workspace"
)

// PythonTool runs the worker's training script.
const PythonTool = "python"

// cudaCheckArgs prints the CUDA device name, or an empty line when PyTorch
// sees no GPU.
var cudaCheckArgs = []string{
	"-c",
	"import torch; print(torch.cuda.get_device_name(0) if torch.cuda.is_available() else '')",
}

// reIteration extracts the step count from 3DGS checkpoint directories
// ("point_cloud/iteration_30000/point_cloud.ply").
var reIteration = regexp.MustCompile(`(?:^|[/\\])iteration_(\d+)(?:[/\\]|$)`)

// ScriptTrainer runs a 3D Gaussian Splatting train.py on the worker, writing
// its model into the workspace's output directory.
type ScriptTrainer struct {
	Runner runner.Runner
	Script string // "~/" is expanded to the home directory
}

// Name labels the trainer in logs.
func (t *ScriptTrainer) Name() string { return PythonTool + " " + t.Script }

// Args returns the python arguments for training ws.
func (t *ScriptTrainer) Args(ws workspace.Workspace, steps int) []string {
	return []string{
		expandHome(t.Script),
		"-s", ws.Root,
		"-m", ws.Output(),
		"--iterations", strconv.Itoa(steps),
	}
}

// Train implements [Trainer]. Only TotalSteps is used.
func (t *ScriptTrainer) Train(ctx context.Context, ws workspace.Workspace, tc advisor.TrainingConfig) error {
	if err := os.MkdirAll(ws.Output(), 0o755); err != nil {
		return err
	}
	_, err := t.Runner.Run(ctx, PythonTool, t.Args(ws, tc.TotalSteps)...)
	return err
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// WorkerResult is what a worker run produced.
type WorkerResult struct {
	Workspace workspace.Workspace
	Frames    int
	Steps     int
	Models    []string
	Output    *workspace.Artifact // final checkpoint under output/, if any
	Exported  string              // copy of Output at output/point_cloud.ply
}

// RunWorker reconstructs and trains a workspace pushed by a dispatcher.
// Unlike [Run], a training failure is fatal here: the dispatching side
// learns about it from the exit status.
func RunWorker(ctx context.Context, cfg *config.Config, env Env) (*WorkerResult, error) {
	ws, err := workspace.New(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	res := &WorkerResult{Workspace: ws}

	n, err := ws.FrameCount()
	if err != nil {
		return res, err
	}
	if n == 0 {
		return res, precondition("no frames in %s", ws.Images())
	}
	res.Frames = n
	if cfg.SkipReconstruct {
		models, err := ws.Models()
		if err != nil {
			return res, err
		}
		if len(models) == 0 {
			return res, precondition("--skip-colmap needs a reconstruction model in %s", ws.Sparse())
		}
		res.Models = models
	}
	if env.Trainer == nil {
		return res, precondition("no trainer configured")
	}

	env.Log.Info("Worker job %s (%d frames)", ws.Root, n)
	checkGPU(ctx, env)

	if cfg.SkipReconstruct {
		env.Log.Info("Skipping reconstruction (using existing model)")
	} else {
		env.Log.Info("[1/2] Reconstructing camera poses on GPU")
		start := time.Now()
		models, err := reconstruct(ctx, ws, env, colmap.Options{Matcher: cfg.Matcher, UseGPU: true}, false)
		if err != nil {
			logFailure(env.Log, err)
			return res, err
		}
		res.Models = models
		env.Log.Debug("Reconstruction took %s", time.Since(start).Round(time.Second))
	}

	steps := cfg.Steps
	if steps <= 0 {
		steps = advisor.Derive(n).Config.TotalSteps
	}
	res.Steps = steps

	env.Log.Info("[2/2] Training Gaussian splat (%d steps)", steps)
	if err := env.Trainer.Train(ctx, ws, advisor.TrainingConfig{TotalSteps: steps}); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		serr := &StageError{Stage: StageTrain, Step: env.Trainer.Name(), Err: err}
		logFailure(env.Log, serr)
		return res, serr
	}

	arts, err := workspace.FindArtifacts(ws.Output())
	if err != nil {
		env.Log.Warn("Could not scan %s: %v", ws.Output(), err)
	}
	if len(arts) == 0 {
		env.Log.Warn("No .ply file found in %s", ws.Output())
		return res, nil
	}
	final := finalArtifact(arts)
	res.Output = &final

	dst := filepath.Join(ws.Output(), workspace.FinalArtifact)
	if final.Path != dst {
		if err := workspace.CopyFile(final.Path, dst); err != nil {
			env.Log.Warn("Could not copy %s to %s: %v", final.Path, dst, err)
			return res, nil
		}
	}
	res.Exported = dst
	env.Log.Success("Training complete: %s", final.Path)
	return res, nil
}

// finalArtifact picks the checkpoint with the highest iteration number.
// Artifacts outside iteration_N directories only win when no checkpoint
// directory exists; among those the last in path order is taken.
func finalArtifact(arts []workspace.Artifact) workspace.Artifact {
	best, bestIter := arts[len(arts)-1], -1
	for _, a := range arts {
		m := reIteration.FindStringSubmatch(a.Path)
		if m == nil {
			continue
		}
		if it, err := strconv.Atoi(m[1]); err == nil && it > bestIter {
			best, bestIter = a, it
		}
	}
	return best
}

// checkGPU logs the CUDA device the trainer will use. A missing GPU or
// PyTorch only slows training down, so neither stops the job.
func checkGPU(ctx context.Context, env Env) {
	r, err := env.Runner.Run(ctx, PythonTool, cudaCheckArgs...)
	if err != nil {
		env.Log.Warn("PyTorch not found; training will likely fail")
		env.Log.Debug("CUDA check: %v", err)
		return
	}
	if name := strings.TrimSpace(r.Stdout); name != "" {
		env.Log.Info("GPU: %s", name)
		return
	}
	env.Log.Warn("CUDA not available; training will be slow")
}
