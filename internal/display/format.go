package display

import (
	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable IEC size ("512 B", "1.5 KiB", "700 MiB").
// Negative sizes are reported as "0 B".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCount groups thousands ("35,000").
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
