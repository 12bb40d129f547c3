package ffmpeg

import (
	"strconv"
)

// Tool is the executable name looked up on PATH.
const Tool = "ffmpeg"

// jpegQuality is ffmpeg's -q:v scale (2 is near-lossless for mjpeg).
const jpegQuality = "2"

// ExtractArgs returns the arguments (without the tool name) that sample
// video at fps frames per second into outputTemplate, e.g.
// ".../images/frame_%04d.jpg". Existing frames are overwritten.
func ExtractArgs(video string, fps float64, outputTemplate string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", video,
		"-vf", "fps=" + FormatRate(fps),
		"-q:v", jpegQuality,
		outputTemplate,
	}
}

// FormatRate renders a sampling rate without trailing zeros ("2", "0.5").
func FormatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
