package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/splatmaster/internal/runner"
)

// Tool is the ffprobe executable name.
const Tool = "ffprobe"

// Args returns the ffprobe arguments for path.
func Args(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	}
}

// Probe runs ffprobe through r and parses its output.
func Probe(ctx context.Context, r runner.Runner, path string) (*VideoInfo, error) {
	res, err := r.Run(ctx, Tool, Args(path)...)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON([]byte(res.Stdout))
}

// ParseJSON converts raw ffprobe JSON output into a VideoInfo. It fails when
// the input has no video stream.
func ParseJSON(data []byte) (*VideoInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw)
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	CodecName      string         `json:"codec_name"`
	CodecType      string         `json:"codec_type"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Duration       string         `json:"duration"`
	FieldOrder     string         `json:"field_order"`
	ColorTransfer  string         `json:"color_transfer"`
	ColorPrimaries string         `json:"color_primaries"`
	AvgFrameRate   string         `json:"avg_frame_rate"`
	Disposition    map[string]int `json:"disposition"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) (*VideoInfo, error) {
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType != "video" || s.Disposition["attached_pic"] == 1 {
			continue
		}
		vi := &VideoInfo{
			Container:      raw.Format.FormatName,
			Codec:          s.CodecName,
			Width:          s.Width,
			Height:         s.Height,
			Duration:       parseFloat(raw.Format.Duration),
			FrameRate:      parseRate(s.AvgFrameRate),
			Size:           parseInt64(raw.Format.Size),
			FieldOrder:     s.FieldOrder,
			ColorTransfer:  s.ColorTransfer,
			ColorPrimaries: s.ColorPrimaries,
		}
		if vi.Duration <= 0 {
			vi.Duration = parseFloat(s.Duration)
		}
		return vi, nil
	}
	return nil, ErrNoVideo
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// parseRate parses ffprobe's "num/den" rationals ("30000/1001").
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return parseFloat(num)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}
