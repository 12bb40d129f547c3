package remote

import (
	"context"
	"strings"

	"github.com/backmassage/splatmaster/internal/runner"
)

// Transport moves commands and files between this machine and a worker.
// Every call is independent; no connection is held between calls.
type Transport interface {
	// Exec runs command in the worker's shell.
	Exec(ctx context.Context, p Profile, command string) error
	// Push copies the contents of localDir into remoteDir.
	Push(ctx context.Context, p Profile, localDir, remoteDir string) error
	// Pull copies remote files matching remotePattern into localDir.
	Pull(ctx context.Context, p Profile, remotePattern, localDir string) error
}

// Tool names used by SSHTransport.
const (
	SSHTool   = "ssh"
	RsyncTool = "rsync"
)

// SSHTransport runs ssh and rsync through a Runner. Authentication is
// whatever the user's ssh configuration provides.
type SSHTransport struct {
	Runner runner.Runner
}

// Exec implements [Transport].
func (t *SSHTransport) Exec(ctx context.Context, p Profile, command string) error {
	_, err := t.Runner.Run(ctx, SSHTool, p.Target(), command)
	return err
}

// Push implements [Transport]. Both sides get a trailing slash so rsync
// copies directory contents rather than nesting the directory.
func (t *SSHTransport) Push(ctx context.Context, p Profile, localDir, remoteDir string) error {
	_, err := t.Runner.Run(ctx, RsyncTool, PushArgs(p, localDir, remoteDir)...)
	return err
}

// Pull implements [Transport].
func (t *SSHTransport) Pull(ctx context.Context, p Profile, remotePattern, localDir string) error {
	_, err := t.Runner.Run(ctx, RsyncTool, PullArgs(p, remotePattern, localDir)...)
	return err
}

// PushArgs returns the rsync arguments for uploading localDir.
func PushArgs(p Profile, localDir, remoteDir string) []string {
	return []string{
		"-avz", "--progress",
		withSlash(localDir),
		p.Target() + ":" + withSlash(remoteDir),
	}
}

// PullArgs returns the rsync arguments for downloading remotePattern.
func PullArgs(p Profile, remotePattern, localDir string) []string {
	return []string{
		"-avz", "--progress",
		p.Target() + ":" + remotePattern,
		withSlash(localDir),
	}
}

func withSlash(dir string) string {
	return strings.TrimRight(dir, "/") + "/"
}
