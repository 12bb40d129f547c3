package remote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/workspace"
)

var (
	// ErrCreateJob means the job directory could not be created on the
	// worker. Nothing else was attempted.
	ErrCreateJob = errors.New("create remote job directory")
	// ErrTransfer means the frames could not be pushed. The remote pipeline
	// was not started.
	ErrTransfer = errors.New("push frames to worker")
	// ErrNoCommand means the dispatcher has no remote command template.
	ErrNoCommand = errors.New("remote command template is empty")
)

// DefaultPullPatterns are tried in order after the remote run, each
// relative to the job directory.
var DefaultPullPatterns = []string{"output/*.ply", "*.ply", "output/**/*.ply"}

// Logger is the subset of the application logger the dispatcher uses.
type Logger interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Debug(format string, args ...any)
}

// PullError records one retrieval pattern that failed.
type PullError struct {
	Pattern string
	Err     error
}

// Outcome describes a dispatch that got past the transfer step.
type Outcome struct {
	JobID      string
	JobPath    string
	RemoteErr  error // non-nil when the remote pipeline failed
	PullErrors []PullError
	Retrieved  []workspace.Artifact // every *.ply under the workspace afterwards
}

// Dispatcher runs jobs on a worker through a Transport.
type Dispatcher struct {
	Transport Transport
	Store     Store // optional; used by ResolveProfile
	Log       Logger
	Now       func() time.Time // defaults to time.Now
	Patterns  []string         // defaults to DefaultPullPatterns
	Command   string           // remote command template with {job} and {steps}
}

// NewJobID derives a job ID from a timestamp. Two dispatches within the same
// second share an ID.
func NewJobID(t time.Time) string {
	return "job_" + strconv.FormatInt(t.Unix(), 10)
}

// RenderCommand substitutes {job} and {steps} in tmpl.
func RenderCommand(tmpl, jobPath string, steps int) string {
	return strings.NewReplacer(
		"{job}", jobPath,
		"{steps}", strconv.Itoa(steps),
	).Replace(tmpl)
}

// ResolveProfile loads the stored profile, merges explicit over it, and
// validates the result. When save is set the merged profile is written back
// to the store. No network action happens here.
func (d *Dispatcher) ResolveProfile(explicit Profile, save bool) (Profile, error) {
	var stored *Profile
	if d.Store != nil {
		var err error
		if stored, err = d.Store.Load(); err != nil {
			return Profile{}, err
		}
	}
	p := Merge(explicit, stored)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	if save && d.Store != nil {
		if err := d.Store.Save(p); err != nil {
			return Profile{}, err
		}
		d.Log.Info("Saved remote profile for %s", p.Target())
	}
	return p, nil
}

// Dispatch uploads the workspace frames to a fresh job directory, runs the
// remote pipeline with the given step count, and pulls exported splats back
// into the workspace root.
//
// An error is returned only when the job could not be set up (ErrCreateJob,
// ErrTransfer) or ctx was cancelled. Remote and retrieval failures are
// reported in the Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ws workspace.Workspace, p Profile, steps int) (*Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Command) == "" {
		return nil, ErrNoCommand
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	id := NewJobID(now())
	out := &Outcome{JobID: id, JobPath: p.JobPath(id)}

	d.Log.Info("Creating remote job %s on %s", out.JobPath, p.Target())
	if err := d.Transport.Exec(ctx, p, fmt.Sprintf(`mkdir -p "%s"`, out.JobPath)); err != nil {
		return out, fmt.Errorf("%w %s: %w", ErrCreateJob, out.JobPath, err)
	}

	d.Log.Info("Pushing frames to %s", p.Host)
	if err := d.Transport.Push(ctx, p, ws.Images(), out.JobPath+"/"+workspace.ImagesDir); err != nil {
		return out, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	cmd := RenderCommand(d.Command, out.JobPath, steps)
	d.Log.Info("Running remote pipeline (%d steps)", steps)
	d.Log.Debug("Remote command: %s", cmd)
	if err := d.Transport.Exec(ctx, p, cmd); err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		out.RemoteErr = err
		d.Log.Warn("Remote pipeline failed (exit %d); retrieving whatever it exported", runner.ExitCode(err))
	}

	patterns := d.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPullPatterns
	}
	d.Log.Info("Retrieving results")
	for _, pat := range patterns {
		if err := d.Transport.Pull(ctx, p, out.JobPath+"/"+pat, ws.Root); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.PullErrors = append(out.PullErrors, PullError{Pattern: pat, Err: err})
			d.Log.Debug("Nothing retrieved for %s: %v", pat, err)
		}
	}

	arts, err := ws.AllArtifacts()
	if err != nil {
		d.Log.Warn("Could not scan workspace for results: %v", err)
	}
	out.Retrieved = arts
	if len(arts) == 0 {
		d.Log.Warn("No .ply files retrieved from %s", out.JobPath)
	} else {
		d.Log.Success("Retrieved %d .ply file(s)", len(arts))
	}
	return out, nil
}
