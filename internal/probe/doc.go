// Package probe inspects the input video with a single ffprobe JSON call.
//
// The result is informational: it lets the extract stage predict the frame
// count before sampling and warn about sources that reconstruct poorly
// (HDR, interlaced). A failed probe never blocks extraction.
package probe
