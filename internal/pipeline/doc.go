// Package pipeline sequences the stages that turn a video into a trained
// Gaussian splat:
//
//	Extract -> Resize -> Reconstruct -> Advise -> Train -> Summarize
//
// Stages run strictly in order on the calling goroutine. Any stage can be
// skipped, but skipping one requires its output to already be in the
// workspace; [Run] checks every such precondition before the first tool
// is started. Extraction, the originals backup, and reconstruction failures
// abort the run with a [*StageError]. Per-frame resize failures and a failed
// training run are reported in the [Result] and the run continues.
//
// Extraction first inspects the source with ffprobe when it is available and
// warns about HDR, interlaced, or very short inputs.
//
// [RunWorker] is the GPU-host side of a remote job: reconstruct with GPU
// SIFT, then run the configured training script.
package pipeline
