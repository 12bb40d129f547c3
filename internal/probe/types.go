package probe

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoVideo means the file has no usable video stream.
var ErrNoVideo = errors.New("no video stream")

// VideoInfo holds the properties of the primary video stream that matter
// for frame sampling.
type VideoInfo struct {
	Container      string
	Codec          string
	Width          int
	Height         int
	Duration       float64 // seconds; 0 when unknown
	FrameRate      float64 // average source frame rate
	Size           int64
	FieldOrder     string
	ColorTransfer  string
	ColorPrimaries string
}

// Resolution returns "WxH", or "unknown".
func (v *VideoInfo) Resolution() string {
	if v.Width <= 0 || v.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// ExpectedFrames estimates how many frames sampling at fps yields. Returns 0
// when the duration is unknown. Sampling faster than the source frame rate
// cannot produce more than the source's frames.
func (v *VideoInfo) ExpectedFrames(fps float64) int {
	if v.Duration <= 0 || fps <= 0 {
		return 0
	}
	rate := fps
	if v.FrameRate > 0 && v.FrameRate < rate {
		rate = v.FrameRate
	}
	return int(math.Round(v.Duration * rate))
}

// LongestEdge returns max(Width, Height).
func (v *VideoInfo) LongestEdge() int {
	return max(v.Width, v.Height)
}
