package ffmpeg

import "regexp"

// Pre-compiled regexes for classifying ffmpeg stderr into remediation hints.
// Checked in order by [Hint]; the first match wins.
var (
	reMissingInput = regexp.MustCompile(
		`(?i)No such file or directory|does not exist`)

	reInvalidInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|moov atom not found|` +
			`could not find codec parameters|Unknown input format`)

	reNoVideo = regexp.MustCompile(
		`(?i)Output file #0 does not contain any stream|` +
			`Stream specifier .* matches no streams|does not contain any video stream`)

	rePermission = regexp.MustCompile(
		`(?i)Permission denied|Read-only file system`)

	reDiskFull = regexp.MustCompile(
		`(?i)No space left on device`)
)

var hints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{reMissingInput, "check the --video path"},
	{reInvalidInput, "the video looks truncated or uses an unsupported container; try re-exporting it"},
	{reNoVideo, "the input has no video stream"},
	{rePermission, "the workspace is not writable; choose another --output"},
	{reDiskFull, "the disk is full; free space or lower --fps"},
}

// Hint maps ffmpeg stderr to a one-line remediation hint, or "" when no
// known pattern matches.
func Hint(stderr string) string {
	for _, h := range hints {
		if h.re.MatchString(stderr) {
			return h.hint
		}
	}
	return ""
}
