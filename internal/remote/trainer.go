package remote

import (
	"context"
	"fmt"

	"github.com/backmassage/splatmaster/internal/advisor"
	"github.com/backmassage/splatmaster/internal/workspace"
)

// Trainer trains by dispatching the workspace to a worker. Only the step
// count is forwarded; the worker derives the rest itself.
type Trainer struct {
	Dispatcher *Dispatcher
	Profile    Profile

	// Last holds the most recent outcome, if the dispatch got that far.
	Last *Outcome
}

// Name labels the trainer in logs.
func (t *Trainer) Name() string { return "remote (" + t.Profile.Target() + ")" }

// Train runs one dispatch. A failed remote run is returned as an error even
// though results were still pulled.
func (t *Trainer) Train(ctx context.Context, ws workspace.Workspace, tc advisor.TrainingConfig) error {
	out, err := t.Dispatcher.Dispatch(ctx, ws, t.Profile, tc.TotalSteps)
	t.Last = out
	if err != nil {
		return err
	}
	if out.RemoteErr != nil {
		return fmt.Errorf("remote job %s: %w", out.JobID, out.RemoteErr)
	}
	return nil
}
