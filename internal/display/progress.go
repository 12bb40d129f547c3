package display

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/backmassage/splatmaster/internal/term"
)

// Progress is the subset of a progress bar the pipeline drives.
type Progress interface {
	Add(n int) error
	Finish() error
}

// NewFrameBar returns a progress bar over total frames written to w.
func NewFrameBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	color := term.Enabled()
	saucer := "="
	head := ">"
	if color {
		saucer = "[green]=[reset]"
		head = "[green]>[reset]"
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionEnableColorCodes(color),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        saucer,
			SaucerHead:    head,
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Discard is a Progress that draws nothing. Used when stdout is not a TTY
// or verbose tool output would interleave with the bar.
type Discard struct{}

func (Discard) Add(int) error  { return nil }
func (Discard) Finish() error { return nil }
