package ffmpeg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractArgs(t *testing.T) {
	got := ExtractArgs("/videos/garden.mp4", 2, "/ws/images/frame_%04d.jpg")
	want := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", "/videos/garden.mp4",
		"-vf", "fps=2",
		"-q:v", "2",
		"/ws/images/frame_%04d.jpg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		fps  float64
		want string
	}{
		{2, "2"},
		{0.5, "0.5"},
		{2.5, "2.5"},
		{30, "30"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.fps); got != tt.want {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.fps, got, tt.want)
		}
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"missing file", "garden.mp4: No such file or directory", "check the --video path"},
		{"truncated mp4", "[mov,mp4] moov atom not found\ngarden.mp4: Invalid data found when processing input",
			"the video looks truncated or uses an unsupported container; try re-exporting it"},
		{"audio only", "Output file #0 does not contain any stream", "the input has no video stream"},
		{"read only", "frame_0001.jpg: Permission denied", "the workspace is not writable; choose another --output"},
		{"disk full", "av_interleaved_write_frame(): No space left on device", "the disk is full; free space or lower --fps"},
		{"unknown", "something else entirely", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hint(tt.stderr); got != tt.want {
				t.Errorf("Hint() = %q, want %q", got, tt.want)
			}
		})
	}
}
