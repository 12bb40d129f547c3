package probe

import "strings"

// IsInterlaced returns true if field_order indicates interlaced content
// (tt, bb, tb, bt). Sampled interlaced frames show combing, which hurts
// feature matching.
func (v *VideoInfo) IsInterlaced() bool {
	switch strings.ToLower(strings.TrimSpace(v.FieldOrder)) {
	case "tt", "bb", "tb", "bt":
		return true
	}
	return false
}
