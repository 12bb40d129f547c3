package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/runner/runnertest"
)

// withPath makes lookPath find exactly the given tools.
func withPath(t *testing.T, tools ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	found := make(map[string]bool)
	for _, tool := range tools {
		found[tool] = true
	}
	lookPath = func(name string) (string, error) {
		if found[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
}

func names(tools []Tool) []string {
	var out []string
	for _, t := range tools {
		out = append(out, t.Name)
	}
	return out
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{"local defaults", func(*config.Config) {}, []string{"ffmpeg", "colmap"}},
		{"magick resizer", func(c *config.Config) { c.Resizer = config.ResizeMagick }, []string{"ffmpeg", "magick", "colmap"}},
		{"magick but skip resize", func(c *config.Config) {
			c.Resizer = config.ResizeMagick
			c.SkipResize = true
		}, []string{"ffmpeg", "colmap"}},
		{"remote", func(c *config.Config) { c.Remote = true }, []string{"ffmpeg", "colmap", "ssh", "rsync"}},
		{"remote skip colmap", func(c *config.Config) {
			c.Remote = true
			c.SkipReconstruct = true
		}, []string{"ffmpeg", "ssh", "rsync"}},
		{"remote without training", func(c *config.Config) {
			c.Remote = true
			c.SkipTraining = true
		}, []string{"ffmpeg", "colmap"}},
		{"reuse everything", func(c *config.Config) {
			c.SkipExtract = true
			c.SkipReconstruct = true
		}, nil},
		{"worker", func(c *config.Config) { c.Worker = true }, []string{"colmap", "python"}},
		{"worker skip colmap", func(c *config.Config) {
			c.Worker = true
			c.SkipReconstruct = true
		}, []string{"python"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)
			assert.Equal(t, tt.want, names(Required(&cfg)))
		})
	}
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()

	withPath(t, "ffmpeg", "colmap")
	assert.NoError(t, CheckDeps(&cfg))

	withPath(t, "colmap")
	assert.ErrorIs(t, CheckDeps(&cfg), ErrFfmpegNotFound)

	withPath(t, "ffmpeg")
	assert.ErrorIs(t, CheckDeps(&cfg), ErrColmapNotFound)

	cfg.Remote = true
	withPath(t, "ffmpeg", "colmap", "ssh")
	assert.ErrorIs(t, CheckDeps(&cfg), ErrRsyncNotFound)
}

func TestResolveResizer(t *testing.T) {
	withPath(t, "magick")
	assert.Equal(t, config.ResizeMagick, ResolveResizer(config.ResizeAuto))
	assert.Equal(t, config.ResizeBuiltin, ResolveResizer(config.ResizeBuiltin))

	withPath(t)
	assert.Equal(t, config.ResizeBuiltin, ResolveResizer(config.ResizeAuto))
	assert.Equal(t, config.ResizeMagick, ResolveResizer(config.ResizeMagick))
}

type recordLogger struct{ lines []string }

func (l *recordLogger) add(level, f string, a []any) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(f, a...))
}
func (l *recordLogger) Info(f string, a ...any)    { l.add("INFO", f, a) }
func (l *recordLogger) Success(f string, a ...any) { l.add("OK", f, a) }
func (l *recordLogger) Warn(f string, a ...any)    { l.add("WARN", f, a) }
func (l *recordLogger) Error(f string, a ...any)   { l.add("ERROR", f, a) }

func TestRunCheck(t *testing.T) {
	withPath(t, "ffmpeg", "colmap", "ssh")
	rec := runnertest.New()
	rec.On("ffmpeg", func(runnertest.Call) (runner.Result, error) {
		return runner.Result{Stdout: "ffmpeg version 7.1 Copyright (c)\nbuilt with gcc"}, nil
	})
	rec.On("ssh", func(runnertest.Call) (runner.Result, error) {
		return runner.Result{Stderr: "OpenSSH_9.6p1, LibreSSL 3.3.6"}, nil
	})

	brushPath := filepath.Join(t.TempDir(), "brush_app")
	require.NoError(t, os.WriteFile(brushPath, []byte("bin"), 0o755))
	cfg := config.DefaultConfig()
	cfg.BrushPath = brushPath

	log := &recordLogger{}
	RunCheck(context.Background(), &cfg, rec, log)
	out := strings.Join(log.lines, "\n")

	assert.Contains(t, out, "OK ffmpeg: ffmpeg version 7.1 Copyright (c)")
	assert.Contains(t, out, "OK ssh: OpenSSH_9.6p1")
	assert.Contains(t, out, "WARN magick not found")
	assert.Contains(t, out, "WARN ffprobe not found")
	assert.Contains(t, out, "OK Brush: "+brushPath)
	assert.Contains(t, out, "OK All tools needed")
	assert.Zero(t, rec.Count("magick"))
}
