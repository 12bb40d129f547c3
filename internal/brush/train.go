package brush

import (
	"context"
	"strconv"

	"github.com/backmassage/splatmaster/internal/advisor"
	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/workspace"
)

// TrainArgs returns the Brush arguments for training on the workspace at
// root. Checkpoints are exported into root itself.
func TrainArgs(root string, tc advisor.TrainingConfig, viewer bool) []string {
	args := []string{
		root,
		"--total-steps", strconv.Itoa(tc.TotalSteps),
		"--refine-every", strconv.Itoa(tc.RefineEvery),
		"--sh-degree", strconv.Itoa(tc.SHDegree),
		"--export-every", strconv.Itoa(tc.ExportEvery),
		"--export-path", root,
		"--max-resolution", strconv.Itoa(tc.MaxResolution),
	}
	if viewer {
		args = append(args, "--with-viewer")
	}
	return args
}

// LocalTrainer runs Brush on this machine. The call blocks until training
// finishes or the viewer window is closed.
type LocalTrainer struct {
	Runner runner.Runner
	Path   string // resolved executable
	Viewer bool
}

// Name labels the trainer in logs.
func (t *LocalTrainer) Name() string { return "brush (" + t.Path + ")" }

// Train runs Brush once with tc.
func (t *LocalTrainer) Train(ctx context.Context, ws workspace.Workspace, tc advisor.TrainingConfig) error {
	_, err := t.Runner.Run(ctx, t.Path, TrainArgs(ws.Root, tc, t.Viewer)...)
	return err
}
