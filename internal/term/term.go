// Package term resolves whether terminal output should be colored.
//
// The decision is made once during startup by [Configure] and read by the
// logging and display packages, which style their own output.
package term

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/backmassage/splatmaster/internal/config"
)

var enabled atomic.Bool

// Configure resolves the color mode and records the result. Lipgloss styles
// are downgraded to plain ASCII when colors are off. Call once during startup
// (from [logging.NewLogger]).
func Configure(mode config.ColorMode) bool {
	on := resolve(mode)
	enabled.Store(on)
	if on {
		lipgloss.SetColorProfile(termenv.ANSI256)
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return on
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return enabled.Load() }

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
