// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// --- Enum types for validated string fields ---

// Matcher selects the COLMAP feature matching strategy.
type Matcher string

const (
	MatcherExhaustive Matcher = "exhaustive" // Full pairwise comparison.
	MatcherSequential Matcher = "sequential" // Adjacent-frame comparison (default, suits video).
)

// ResizeBackend selects how frames are downscaled during the quality pass.
type ResizeBackend string

const (
	ResizeAuto    ResizeBackend = "auto"    // ImageMagick when on PATH, builtin otherwise (default).
	ResizeMagick  ResizeBackend = "magick"  // ImageMagick "magick" CLI, one call per frame.
	ResizeBuiltin ResizeBackend = "builtin" // In-process Lanczos resize.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultRemoteCommand is the remote pipeline invocation. {job} and {steps}
// are substituted by the dispatcher.
const DefaultRemoteCommand = `cd "{job}" && splatmaster --worker --output "{job}" --steps {steps}`

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Paths.
	VideoPath string
	Workspace string

	// Frame extraction and normalization.
	FPS        float64       // Default: 2 frames per second.
	Resolution int           // Default: 1600 px longest edge.
	Resizer    ResizeBackend // Default: "auto".

	// Reconstruction.
	Matcher Matcher // Default: "sequential".
	UseGPU  bool    // COLMAP SIFT on GPU. Always on in worker mode.

	// Training. Steps == 0 means derive from frame count.
	Steps       int
	SHDegree    int  // Default: 3 (0-3).
	ExportEvery int  // Default: 5000.
	Viewer      bool // Default: true. Cleared by --no-viewer.
	BrushPath   string

	// Stage skips.
	SkipExtract     bool
	SkipResize      bool
	SkipReconstruct bool
	SkipTraining    bool

	// Remote execution. Empty host/user/path fall back to the stored profile.
	Remote           bool
	RemoteHost       string
	RemoteUser       string
	RemotePath       string
	RemoteCommand    string // Default: DefaultRemoteCommand.
	SaveRemoteConfig bool

	// Worker mode: act as the remote side of a dispatched job.
	Worker        bool
	TrainerScript string // Default: "~/gaussian-splatting/train.py".

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		FPS:           2.0,
		Resolution:    1600,
		Resizer:       ResizeAuto,
		Matcher:       MatcherSequential,
		SHDegree:      3,
		ExportEvery:   5000,
		Viewer:        true,
		RemoteCommand: DefaultRemoteCommand,
		TrainerScript: "~/gaussian-splatting/train.py",
		ColorMode:     ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric ranges. When not in CheckOnly mode
// it also requires a workspace, and a video unless extraction is skipped or
// the process runs as a remote worker.
func (c *Config) Validate() error {
	switch c.Matcher {
	case MatcherExhaustive, MatcherSequential:
		// valid
	default:
		return errors.New("invalid matcher (use 'exhaustive' or 'sequential')")
	}

	switch c.Resizer {
	case ResizeAuto, ResizeMagick, ResizeBuiltin:
		// valid
	default:
		return errors.New("invalid resizer (use 'auto', 'magick' or 'builtin')")
	}

	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive (got %g)", c.FPS)
	}
	if c.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive (got %d)", c.Resolution)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative (got %d)", c.Steps)
	}
	if c.SHDegree < 0 || c.SHDegree > 3 {
		return fmt.Errorf("sh-degree must be between 0 and 3 (got %d)", c.SHDegree)
	}
	if c.ExportEvery <= 0 {
		return fmt.Errorf("export-every must be positive (got %d)", c.ExportEvery)
	}
	if c.Remote && c.Worker {
		return errors.New("--remote and --worker are mutually exclusive")
	}
	if c.Remote && strings.TrimSpace(c.RemoteCommand) == "" {
		return errors.New("remote command must not be empty")
	}

	if c.CheckOnly {
		return nil
	}
	if c.Workspace == "" {
		return errors.New("need an output workspace (--output)")
	}
	if c.VideoPath == "" && !c.SkipExtract && !c.Worker {
		return errors.New("need an input video (--video) unless --skip-extract is set")
	}
	return nil
}

// ResizeEnabled reports whether the resize quality pass runs. Frames reused
// via --skip-extract are assumed to be prepared already.
func (c *Config) ResizeEnabled() bool {
	return !c.SkipExtract && !c.SkipResize
}

// LocalReconstruct reports whether COLMAP runs on this machine. Remote
// training does not change this: the workspace keeps its sparse models so a
// later local run can resume with --skip-colmap.
func (c *Config) LocalReconstruct() bool {
	return !c.SkipReconstruct
}
