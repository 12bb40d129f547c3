// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for the external tools a run invokes.
package check

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/backmassage/splatmaster/internal/brush"
	"github.com/backmassage/splatmaster/internal/colmap"
	"github.com/backmassage/splatmaster/internal/config"
	"github.com/backmassage/splatmaster/internal/ffmpeg"
	"github.com/backmassage/splatmaster/internal/pipeline"
	"github.com/backmassage/splatmaster/internal/probe"
	"github.com/backmassage/splatmaster/internal/remote"
	"github.com/backmassage/splatmaster/internal/resize"
	"github.com/backmassage/splatmaster/internal/runner"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound = errors.New("ffmpeg not found on PATH")
	ErrMagickNotFound = errors.New("ImageMagick (magick) not found on PATH")
	ErrColmapNotFound = errors.New("colmap not found on PATH")
	ErrSSHNotFound    = errors.New("ssh not found on PATH")
	ErrRsyncNotFound  = errors.New("rsync not found on PATH")
	ErrPythonNotFound = errors.New("python not found on PATH")
)

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}

// Tool is an external executable and the error reported when it is missing.
type Tool struct {
	Name string
	Err  error
}

var (
	toolFfmpeg = Tool{ffmpeg.Tool, ErrFfmpegNotFound}
	toolMagick = Tool{resize.MagickTool, ErrMagickNotFound}
	toolColmap = Tool{colmap.Tool, ErrColmapNotFound}
	toolSSH    = Tool{remote.SSHTool, ErrSSHNotFound}
	toolRsync  = Tool{remote.RsyncTool, ErrRsyncNotFound}
	toolPython = Tool{pipeline.PythonTool, ErrPythonNotFound}

	// Optional: without it the extract stage skips source inspection.
	toolFfprobe = Tool{Name: probe.Tool}
)

// Required lists the tools the configured run will invoke, in stage order.
// Brush is located separately because it is usually not on PATH.
func Required(cfg *config.Config) []Tool {
	var tools []Tool
	if cfg.Worker {
		if !cfg.SkipReconstruct {
			tools = append(tools, toolColmap)
		}
		return append(tools, toolPython)
	}
	if !cfg.SkipExtract {
		tools = append(tools, toolFfmpeg)
	}
	if cfg.ResizeEnabled() && cfg.Resizer == config.ResizeMagick {
		tools = append(tools, toolMagick)
	}
	if cfg.LocalReconstruct() {
		tools = append(tools, toolColmap)
	}
	if cfg.Remote && !cfg.SkipTraining {
		tools = append(tools, toolSSH, toolRsync)
	}
	return tools
}

// CheckDeps is the pre-pipeline validation: it returns the sentinel error of
// the first required tool missing from PATH.
func CheckDeps(cfg *config.Config) error {
	for _, t := range Required(cfg) {
		if _, err := lookPath(t.Name); err != nil {
			return t.Err
		}
	}
	return nil
}

// ResolveResizer turns ResizeAuto into a concrete backend: ImageMagick when
// it is on PATH, the builtin resizer otherwise.
func ResolveResizer(mode config.ResizeBackend) config.ResizeBackend {
	if mode != config.ResizeAuto {
		return mode
	}
	if _, err := lookPath(resize.MagickTool); err == nil {
		return config.ResizeMagick
	}
	return config.ResizeBuiltin
}

// versionProbe is how RunCheck asks a tool for its version.
type versionProbe struct {
	tool Tool
	args []string
}

var probes = []versionProbe{
	{toolFfmpeg, []string{"-version"}},
	{toolFfprobe, []string{"-version"}},
	{toolMagick, []string{"-version"}},
	{toolColmap, []string{"help"}},
	{toolSSH, []string{"-V"}},
	{toolRsync, []string{"--version"}},
	{toolPython, []string{"--version"}},
}

// RunCheck runs the interactive --check flow: prints availability and
// version of every tool, and where Brush was found. This is informational
// only; it does not stop on failure.
func RunCheck(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger) {
	log.Info("=== System Check ===")

	for _, p := range probes {
		checkTool(ctx, r, log, p)
	}
	checkBrush(cfg, log)

	if err := CheckDeps(cfg); err != nil {
		log.Error("Current settings cannot run: %v", err)
	} else {
		log.Success("All tools needed by the current settings are available")
	}
}

func checkTool(ctx context.Context, r runner.Runner, log Logger, p versionProbe) {
	if _, err := lookPath(p.tool.Name); err != nil {
		log.Warn("%s not found", p.tool.Name)
		return
	}
	res, err := r.Run(ctx, p.tool.Name, p.args...)
	line := firstLine(res.Stdout)
	if line == "" {
		// ssh and older pythons print their version on stderr.
		line = firstLine(res.Stderr)
	}
	if err != nil && line == "" {
		log.Warn("%s found but version query failed: %v", p.tool.Name, err)
		return
	}
	log.Success("%s: %s", p.tool.Name, line)
}

func checkBrush(cfg *config.Config, log Logger) {
	path, err := brush.DefaultLocator(cfg.BrushPath).Locate()
	if err != nil {
		log.Warn("Brush: %v", err)
		for _, hint := range brush.Remediation() {
			log.Info("  %s", hint)
		}
		return
	}
	log.Success("Brush: %s", path)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
