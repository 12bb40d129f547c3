// Package ffmpeg builds the frame-extraction command and classifies ffmpeg
// diagnostics into operator hints.
//
// Extraction samples the source video at a fixed rate and writes numbered,
// high-quality JPEG frames into the workspace images directory. The command
// itself is run by the pipeline through a runner.Runner.
package ffmpeg
