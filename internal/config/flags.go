package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into input/output, extraction, training, stages, remote, display, and utility.
// Negated flags (e.g. --no-viewer) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses args (normally os.Args[1:]) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, stray positional args).
func ParseFlags(cfg *Config, args []string, version string) error {
	fs := flag.NewFlagSet("splatmaster", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var negated negatedFlags

	defineIOFlags(fs, cfg)
	defineExtractionFlags(fs, cfg)
	defineTrainingFlags(fs, cfg, &negated)
	defineStageFlags(fs, cfg)
	defineRemoteFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "splatmaster v"+version)
		os.Exit(0)
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	cfg.Workspace = NormalizeDirArg(cfg.Workspace)
	if cfg.Worker {
		// The worker runs on the GPU host; exhaustive GPU matching mirrors
		// the remote training script.
		cfg.UseGPU = true
		cfg.Matcher = MatcherExhaustive
		cfg.SkipExtract = true
	}
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	noViewer    bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineIOFlags registers -i/--video and -o/--output.
func defineIOFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.VideoPath, "video", "", "Input video file")
	fs.StringVar(&cfg.VideoPath, "i", "", "Same as --video")
	fs.StringVar(&cfg.Workspace, "output", "", "Output workspace directory")
	fs.StringVar(&cfg.Workspace, "o", "", "Same as --output")
}

// defineExtractionFlags registers fps, resolution, resizer, matcher and gpu.
func defineExtractionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Float64Var(&cfg.FPS, "fps", cfg.FPS, "Frames per second to extract")
	fs.Float64Var(&cfg.FPS, "f", cfg.FPS, "Same as --fps")
	fs.IntVar(&cfg.Resolution, "resolution", cfg.Resolution, "Longest image edge in pixels")
	fs.IntVar(&cfg.Resolution, "r", cfg.Resolution, "Same as --resolution")
	fs.Var(&resizeBackendValue{&cfg.Resizer}, "resizer", "Resize backend: auto | magick | builtin")
	fs.Var(&matcherValue{&cfg.Matcher}, "matcher", "COLMAP matcher: exhaustive | sequential")
	fs.Var(&matcherValue{&cfg.Matcher}, "m", "Same as --matcher")
	fs.BoolVar(&cfg.UseGPU, "gpu", false, "Run COLMAP SIFT extraction and matching on the GPU")
}

// defineTrainingFlags registers steps, sh-degree, export-every, brush-path, no-viewer.
func defineTrainingFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.IntVar(&cfg.Steps, "steps", 0, "Training steps (default: derived from frame count)")
	fs.IntVar(&cfg.Steps, "s", 0, "Same as --steps")
	fs.IntVar(&cfg.SHDegree, "sh-degree", cfg.SHDegree, "Spherical harmonics degree (0-3)")
	fs.IntVar(&cfg.ExportEvery, "export-every", cfg.ExportEvery, "Export a checkpoint every N steps")
	fs.StringVar(&cfg.BrushPath, "brush-path", "", "Path to the Brush executable")
	fs.BoolVar(&n.noViewer, "no-viewer", false, "Train without the viewer window")
	fs.StringVar(&cfg.TrainerScript, "trainer-script", cfg.TrainerScript, "Worker mode: gaussian-splatting train.py")
	fs.BoolVar(&cfg.Worker, "worker", false, "Run as the remote worker for a dispatched job")
}

// defineStageFlags registers the per-stage skip flags.
func defineStageFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.SkipExtract, "skip-extract", false, "Reuse frames already in <output>/images")
	fs.BoolVar(&cfg.SkipResize, "skip-resize", false, "Keep extracted frames at full resolution")
	fs.BoolVar(&cfg.SkipReconstruct, "skip-colmap", false, "Reuse camera poses already in <output>/sparse")
	fs.BoolVar(&cfg.SkipTraining, "skip-training", false, "Only prepare data, do not train")
}

// defineRemoteFlags registers the remote execution group.
func defineRemoteFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Remote, "remote", false, "Train on a remote GPU host over ssh")
	fs.StringVar(&cfg.RemoteHost, "remote-host", "", "Remote host name or IP")
	fs.StringVar(&cfg.RemoteUser, "remote-user", "", "SSH user on the remote host")
	fs.StringVar(&cfg.RemotePath, "remote-path", "", "Base directory for jobs on the remote host")
	fs.StringVar(&cfg.RemoteCommand, "remote-command", cfg.RemoteCommand, "Remote pipeline command ({job}, {steps})")
	fs.BoolVar(&cfg.SaveRemoteConfig, "save-remote-config", false, "Persist remote host/user/path for later runs")
}

// defineDisplayFlags registers color, verbose, log, check, version and help.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noViewer {
		cfg.Viewer = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 32
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "splatmaster v" + version + " - video to Gaussian splat pipeline"},
		{"", ""},
		{"  splatmaster --video <file> --output <dir> [OPTIONS]", ""},
		{"", ""},
		{"Input & output", ""},
		{"  -i, --video <file>", "Input video"},
		{"  -o, --output <dir>", "Workspace directory"},
		{"", ""},
		{"Frames", ""},
		{"  -f, --fps <n>", "Frames per second to extract (default: 2)"},
		{"  -r, --resolution <px>", "Longest image edge (default: 1600)"},
		{"  --resizer <auto|magick|builtin>", "Resize backend (default: auto)"},
		{"", ""},
		{"Reconstruction", ""},
		{"  -m, --matcher <name>", "exhaustive | sequential (default: sequential)"},
		{"  --gpu", "COLMAP SIFT on GPU"},
		{"", ""},
		{"Training", ""},
		{"  -s, --steps <n>", "Training steps (default: from frame count)"},
		{"  --sh-degree <0-3>", "Spherical harmonics degree (default: 3)"},
		{"  --export-every <n>", "Checkpoint cadence (default: 5000)"},
		{"  --brush-path <path>", "Brush executable (default: auto-detect)"},
		{"  --no-viewer", "Train without the viewer window"},
		{"", ""},
		{"Stages", ""},
		{"  --skip-extract", "Reuse <output>/images"},
		{"  --skip-resize", "Keep frames at full resolution"},
		{"  --skip-colmap", "Reuse <output>/sparse"},
		{"  --skip-training", "Prepare data only"},
		{"", ""},
		{"Remote GPU", ""},
		{"  --remote", "Train on a remote host over ssh/rsync"},
		{"  --remote-host <host>", "Remote host (saved profile if omitted)"},
		{"  --remote-user <user>", "SSH user (saved profile if omitted)"},
		{"  --remote-path <dir>", "Job base path (default: /c/splat/jobs)"},
		{"  --remote-command <cmd>", "Remote pipeline command template"},
		{"  --save-remote-config", "Persist host/user/path"},
		{"  --worker", "Act as the remote worker for a job"},
		{"  --trainer-script <path>", "Worker trainer (default: ~/gaussian-splatting/train.py)"},
		{"", ""},
		{"Utility", ""},
		{"  -v, --verbose", "Verbose output"},
		{"  --color, --no-color", "Force or disable colored logs"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment", ""},
		{"  BRUSH_PATH", "Brush executable (auto-detected if unset)"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types with flag.Var.

type matcherValue struct{ p *Matcher }

func (m *matcherValue) String() string {
	if m.p == nil {
		return ""
	}
	return string(*m.p)
}

func (m *matcherValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "exhaustive":
		*m.p = MatcherExhaustive
	case "sequential":
		*m.p = MatcherSequential
	default:
		return fmt.Errorf("invalid matcher %q (use 'exhaustive' or 'sequential')", s)
	}
	return nil
}

type resizeBackendValue struct{ p *ResizeBackend }

func (r *resizeBackendValue) String() string {
	if r.p == nil {
		return ""
	}
	return string(*r.p)
}

func (r *resizeBackendValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*r.p = ResizeAuto
	case "magick", "imagemagick":
		*r.p = ResizeMagick
	case "builtin":
		*r.p = ResizeBuiltin
	default:
		return fmt.Errorf("invalid resizer %q (use 'auto', 'magick' or 'builtin')", s)
	}
	return nil
}
