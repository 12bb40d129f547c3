package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// minVideoSize rejects stub files before ffmpeg gets a chance to produce a
// confusing error.
const minVideoSize = 1000

// Known video container extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".avi":  true,
	".m4v":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".ts":   true,
	".m2ts": true,
	".mpg":  true,
	".mpeg": true,
	".ogv":  true,
	".insv": true,
}

// IsVideoFile reports whether path has a known video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// checkVideo validates the extraction input. Unknown extensions are allowed
// (ffmpeg decides), but the file must exist, be regular, and not be tiny.
func checkVideo(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return precondition("video not found: %s", path)
	}
	if fi.IsDir() {
		return precondition("video path is a directory: %s", path)
	}
	if fi.Size() < minVideoSize {
		return precondition("video too small (possibly corrupt): %s", path)
	}
	return nil
}
