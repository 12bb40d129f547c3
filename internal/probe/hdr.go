package probe

// IsHDR reports PQ or HLG transfer, or bt2020 primaries. Frames extracted
// to JPEG from such sources come out washed out unless tonemapped.
func (v *VideoInfo) IsHDR() bool {
	switch v.ColorTransfer {
	case "smpte2084", "arib-std-b67":
		return true
	}
	return v.ColorPrimaries == "bt2020"
}
