package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/splatmaster/internal/advisor"
	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/runner/runnertest"
	"github.com/backmassage/splatmaster/internal/workspace"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)    {}
func (nopLogger) Success(string, ...any) {}
func (nopLogger) Warn(string, ...any)    {}
func (nopLogger) Debug(string, ...any)   {}

// fakeTransport records operations as "exec <cmd>", "push <src> <dst>",
// "pull <pattern> <dst>" and fails those listed in fail.
type fakeTransport struct {
	ops    []string
	fail   map[string]bool // keyed by op kind or full op
	onPull func(pattern, dir string)
}

func (f *fakeTransport) record(kind, op string) error {
	f.ops = append(f.ops, op)
	if f.fail[kind] || f.fail[op] {
		return &runner.ExitError{Tool: kind, ExitCode: 1}
	}
	return nil
}

func (f *fakeTransport) Exec(_ context.Context, _ Profile, command string) error {
	kind := "exec"
	if strings.HasPrefix(command, "mkdir") {
		kind = "mkdir"
	}
	return f.record(kind, "exec "+command)
}

func (f *fakeTransport) Push(_ context.Context, _ Profile, src, dst string) error {
	return f.record("push", "push "+src+" "+dst)
}

func (f *fakeTransport) Pull(_ context.Context, _ Profile, pattern, dir string) error {
	err := f.record("pull", "pull "+pattern)
	if err == nil && f.onPull != nil {
		f.onPull(pattern, dir)
	}
	return err
}

var fixedNow = func() time.Time { return time.Unix(1700000000, 0) }

func testProfile() Profile {
	return Profile{Host: "gpu-box", User: "kris", BasePath: "/c/splat/jobs"}
}

func newDispatcher(tr Transport) *Dispatcher {
	return &Dispatcher{Transport: tr, Log: nopLogger{}, Now: fixedNow, Command: config.DefaultRemoteCommand}
}

func TestMergeFieldByField(t *testing.T) {
	stored := &Profile{Host: "A", User: "B", BasePath: "C"}
	assert.Equal(t, Profile{Host: "X", User: "B", BasePath: "C"}, Merge(Profile{Host: "X"}, stored))
	assert.Equal(t, Profile{Host: "h", User: "u", BasePath: DefaultBasePath}, Merge(Profile{Host: "h", User: "u"}, nil))
	assert.Equal(t, Profile{BasePath: DefaultBasePath}, Merge(Profile{}, nil))
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, testProfile().Validate())
	err := Profile{Host: "h"}.Validate()
	assert.ErrorIs(t, err, ErrIncompleteProfile)
	assert.Contains(t, err.Error(), "--remote-user")
	assert.ErrorIs(t, Profile{User: "u"}.Validate(), ErrIncompleteProfile)
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := &FileStore{Path: filepath.Join(t.TempDir(), "remote.json")}
	p, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFileStoreRoundTripCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "remote.json")
	s := &FileStore{Path: path}
	require.NoError(t, s.Save(testProfile()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"remote_path": "/c/splat/jobs"`)
	assert.Contains(t, string(data), `"host": "gpu-box"`)

	p, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, testProfile(), *p)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remote.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := (&FileStore{Path: path}).Load()
	assert.Error(t, err)
}

func TestDefaultStorePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultStorePath(), filepath.Join("splatmaster", "remote.json")))
}

type memStore struct {
	p     *Profile
	saved []Profile
}

func (m *memStore) Load() (*Profile, error) { return m.p, nil }
func (m *memStore) Save(p Profile) error    { m.saved = append(m.saved, p); return nil }

func TestResolveProfile(t *testing.T) {
	store := &memStore{p: &Profile{Host: "A", User: "B", BasePath: "C"}}
	d := &Dispatcher{Store: store, Log: nopLogger{}}

	p, err := d.ResolveProfile(Profile{Host: "X"}, true)
	require.NoError(t, err)
	assert.Equal(t, Profile{Host: "X", User: "B", BasePath: "C"}, p)
	assert.Equal(t, []Profile{p}, store.saved)

	empty := &Dispatcher{Store: &memStore{}, Log: nopLogger{}}
	_, err = empty.ResolveProfile(Profile{Host: "X"}, true)
	assert.ErrorIs(t, err, ErrIncompleteProfile)
}

func TestRenderCommand(t *testing.T) {
	got := RenderCommand(config.DefaultRemoteCommand, "/c/splat/jobs/job_1", 20000)
	assert.Equal(t, `cd "/c/splat/jobs/job_1" && splatmaster --worker --output "/c/splat/jobs/job_1" --steps 20000`, got)
}

func TestNewJobID(t *testing.T) {
	assert.Equal(t, "job_1700000000", NewJobID(fixedNow()))
}

func TestDispatchOrder(t *testing.T) {
	ws := workspace.Workspace{Root: t.TempDir()}
	tr := &fakeTransport{onPull: func(pattern, dir string) {
		if strings.HasSuffix(pattern, "output/*.ply") {
			_ = os.WriteFile(filepath.Join(dir, "export_30000.ply"), []byte("ply"), 0o644)
		}
	}}
	out, err := newDispatcher(tr).Dispatch(context.Background(), ws, testProfile(), 20000)
	require.NoError(t, err)

	job := "/c/splat/jobs/job_1700000000"
	want := []string{
		`exec mkdir -p "` + job + `"`,
		"push " + ws.Images() + " " + job + "/images",
		fmt.Sprintf(`exec cd "%s" && splatmaster --worker --output "%s" --steps 20000`, job, job),
		"pull " + job + "/output/*.ply",
		"pull " + job + "/*.ply",
		"pull " + job + "/output/**/*.ply",
	}
	if diff := cmp.Diff(want, tr.ops); diff != "" {
		t.Errorf("operation order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "job_1700000000", out.JobID)
	assert.Nil(t, out.RemoteErr)
	require.Len(t, out.Retrieved, 1)
	assert.Equal(t, "export_30000.ply", filepath.Base(out.Retrieved[0].Path))
}

func TestDispatchMkdirFailureStopsEverything(t *testing.T) {
	tr := &fakeTransport{fail: map[string]bool{"mkdir": true}}
	_, err := newDispatcher(tr).Dispatch(context.Background(), workspace.Workspace{Root: t.TempDir()}, testProfile(), 100)
	assert.ErrorIs(t, err, ErrCreateJob)
	require.Len(t, tr.ops, 1)
	assert.True(t, strings.HasPrefix(tr.ops[0], "exec mkdir -p"))
}

func TestDispatchPushFailureSkipsRemoteRun(t *testing.T) {
	tr := &fakeTransport{fail: map[string]bool{"push": true}}
	_, err := newDispatcher(tr).Dispatch(context.Background(), workspace.Workspace{Root: t.TempDir()}, testProfile(), 100)
	assert.ErrorIs(t, err, ErrTransfer)
	assert.Len(t, tr.ops, 2)
}

func TestDispatchRemoteFailureStillPulls(t *testing.T) {
	tr := &fakeTransport{fail: map[string]bool{"exec": true}}
	out, err := newDispatcher(tr).Dispatch(context.Background(), workspace.Workspace{Root: t.TempDir()}, testProfile(), 100)
	require.NoError(t, err)
	assert.Error(t, out.RemoteErr)

	pulls := 0
	for _, op := range tr.ops {
		if strings.HasPrefix(op, "pull ") {
			pulls++
		}
	}
	assert.Equal(t, 3, pulls)
	assert.Empty(t, out.Retrieved)
}

func TestDispatchPullFailuresAreRecorded(t *testing.T) {
	job := "/c/splat/jobs/job_1700000000"
	tr := &fakeTransport{fail: map[string]bool{"pull " + job + "/*.ply": true}}
	out, err := newDispatcher(tr).Dispatch(context.Background(), workspace.Workspace{Root: t.TempDir()}, testProfile(), 100)
	require.NoError(t, err)
	require.Len(t, out.PullErrors, 1)
	assert.Equal(t, "*.ply", out.PullErrors[0].Pattern)
}

func TestDispatchRejectsIncompleteProfile(t *testing.T) {
	tr := &fakeTransport{}
	_, err := newDispatcher(tr).Dispatch(context.Background(), workspace.Workspace{Root: t.TempDir()}, Profile{Host: "h"}, 100)
	assert.ErrorIs(t, err, ErrIncompleteProfile)
	assert.Empty(t, tr.ops)
}

func TestDispatchWithoutCommandTransfersNothing(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(tr)
	d.Command = "  "
	out, err := d.Dispatch(context.Background(), workspace.Workspace{Root: t.TempDir()}, testProfile(), 100)
	assert.ErrorIs(t, err, ErrNoCommand)
	assert.Nil(t, out)
	assert.Empty(t, tr.ops)
}

func TestSSHTransportCommands(t *testing.T) {
	rec := runnertest.New()
	tr := &SSHTransport{Runner: rec}
	p := testProfile()
	ctx := context.Background()

	require.NoError(t, tr.Exec(ctx, p, `mkdir -p "/c/splat/jobs/job_1"`))
	require.NoError(t, tr.Push(ctx, p, "/ws/images", "/c/splat/jobs/job_1/images"))
	require.NoError(t, tr.Pull(ctx, p, "/c/splat/jobs/job_1/output/*.ply", "/ws"))

	want := []runnertest.Call{
		{Tool: "ssh", Args: []string{"kris@gpu-box", `mkdir -p "/c/splat/jobs/job_1"`}},
		{Tool: "rsync", Args: []string{"-avz", "--progress", "/ws/images/", "kris@gpu-box:/c/splat/jobs/job_1/images/"}},
		{Tool: "rsync", Args: []string{"-avz", "--progress", "kris@gpu-box:/c/splat/jobs/job_1/output/*.ply", "/ws/"}},
	}
	if diff := cmp.Diff(want, rec.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTrainerReportsRemoteFailure(t *testing.T) {
	tr := &fakeTransport{fail: map[string]bool{"exec": true}}
	trainer := &Trainer{Dispatcher: newDispatcher(tr), Profile: testProfile()}
	err := trainer.Train(context.Background(), workspace.Workspace{Root: t.TempDir()}, advisor.TrainingConfig{TotalSteps: 20000})
	require.Error(t, err)
	assert.Equal(t, 1, runner.ExitCode(err))
	require.NotNil(t, trainer.Last)
	assert.Equal(t, "job_1700000000", trainer.Last.JobID)

	ok := &Trainer{Dispatcher: newDispatcher(&fakeTransport{}), Profile: testProfile()}
	assert.NoError(t, ok.Train(context.Background(), workspace.Workspace{Root: t.TempDir()}, advisor.TrainingConfig{TotalSteps: 1}))
}
