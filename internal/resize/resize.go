// Package resize implements the frame quality pass: pristine frames are
// copied aside, then every working frame is downscaled in place so its
// longest edge fits the configured bound.
//
// Two backends are provided. [MagickResizer] shells out to ImageMagick once
// per frame; [ImagingResizer] resizes in-process with a Lanczos filter.
package resize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/backmassage/splatmaster/internal/runner"
	"github.com/backmassage/splatmaster/internal/workspace"
)

// Resizer shrinks a single image in place so that neither dimension exceeds
// maxEdge. Images already within the bound are left unchanged.
type Resizer interface {
	Resize(ctx context.Context, path string, maxEdge int) error
}

// MagickTool is the ImageMagick 7 entrypoint.
const MagickTool = "magick"

// MagickResizer runs `magick <f> -resize NxN> <f>`.
type MagickResizer struct {
	Runner runner.Runner
}

// Resize implements [Resizer].
func (m *MagickResizer) Resize(ctx context.Context, path string, maxEdge int) error {
	_, err := m.Runner.Run(ctx, MagickTool, MagickArgs(path, maxEdge)...)
	return err
}

// MagickArgs returns the ImageMagick arguments. The trailing '>' only
// shrinks, never enlarges.
func MagickArgs(path string, maxEdge int) []string {
	n := strconv.Itoa(maxEdge)
	return []string{path, "-resize", n + "x" + n + ">", path}
}

// ImagingResizer resizes in-process with disintegration/imaging.
type ImagingResizer struct {
	// JPEGQuality for re-encoded JPEG frames. Zero means 95.
	JPEGQuality int
}

// Resize implements [Resizer].
func (r *ImagingResizer) Resize(ctx context.Context, path string, maxEdge int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	b := img.Bounds()
	if b.Dx() <= maxEdge && b.Dy() <= maxEdge {
		return nil
	}
	q := r.JPEGQuality
	if q <= 0 {
		q = 95
	}
	out := imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	if err := imaging.Save(out, path, imaging.JPEGQuality(q)); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Failure records one frame the resizer could not process.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a quality pass.
type Report struct {
	Total     int
	Resized   int // frames processed without error
	Failures  []Failure
	Preserved int // originals newly copied this run
}

// Failed reports whether any frame could not be resized.
func (r Report) Failed() bool { return len(r.Failures) > 0 }

// PreserveOriginals copies every frame into dir unless a file with the same
// name already exists there. Existing originals are never overwritten, so a
// rerun after a partial resize cannot replace them with downscaled copies.
// It returns the number of files copied.
func PreserveOriginals(frames []string, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	copied := 0
	for _, src := range frames {
		dst := filepath.Join(dir, filepath.Base(src))
		if _, err := os.Stat(dst); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return copied, err
		}
		if err := workspace.CopyFile(src, dst); err != nil {
			return copied, fmt.Errorf("preserve %s: %w", filepath.Base(src), err)
		}
		copied++
	}
	return copied, nil
}

// Apply resizes every frame with r, tolerating per-file failures. tick, when
// non-nil, is called once per frame. Only context cancellation stops the
// pass early.
func Apply(ctx context.Context, r Resizer, frames []string, maxEdge int, tick func()) (Report, error) {
	rep := Report{Total: len(frames)}
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := r.Resize(ctx, f, maxEdge); err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			rep.Failures = append(rep.Failures, Failure{Path: f, Err: err})
		} else {
			rep.Resized++
		}
		if tick != nil {
			tick()
		}
	}
	return rep, nil
}
