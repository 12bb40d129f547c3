package resize

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/splatmaster/internal/runner/runnertest"
)

func writeFrame(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	require.NoError(t, imaging.Save(img, path))
}

func TestMagickArgs(t *testing.T) {
	got := MagickArgs("/ws/images/frame_0001.jpg", 1600)
	want := []string{"/ws/images/frame_0001.jpg", "-resize", "1600x1600>", "/ws/images/frame_0001.jpg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MagickArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestMagickResizerUsesRunner(t *testing.T) {
	rec := runnertest.New()
	m := &MagickResizer{Runner: rec}
	require.NoError(t, m.Resize(context.Background(), "a.jpg", 800))
	assert.Equal(t, []string{"magick a.jpg -resize 800x800> a.jpg"}, rec.Lines())

	rec.Fail("magick", 1, "magick: no decode delegate")
	assert.Error(t, m.Resize(context.Background(), "a.jpg", 800))
}

func TestImagingResizerShrinksLongestEdge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame_0001.jpg")
	writeFrame(t, path, 400, 200)

	r := &ImagingResizer{}
	require.NoError(t, r.Resize(context.Background(), path, 100))

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestImagingResizerLeavesSmallFramesUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame_0001.png")
	writeFrame(t, path, 64, 48)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, (&ImagingResizer{}).Resize(context.Background(), path, 100))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImagingResizerRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame_0001.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	assert.Error(t, (&ImagingResizer{}).Resize(context.Background(), path, 100))
}

func TestPreserveOriginalsIsBitForBit(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	originals := filepath.Join(dir, "images_original")
	require.NoError(t, os.MkdirAll(images, 0o755))

	var frames []string
	for i, name := range []string{"frame_0001.jpg", "frame_0002.jpg"} {
		p := filepath.Join(images, name)
		writeFrame(t, p, 300+i, 200)
		frames = append(frames, p)
	}

	n, err := PreserveOriginals(frames, originals)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Resizing the working set must not touch the copies.
	rep, err := Apply(context.Background(), &ImagingResizer{}, frames, 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Resized)

	for _, f := range frames {
		orig, err := os.ReadFile(filepath.Join(originals, filepath.Base(f)))
		require.NoError(t, err)
		img, err := imaging.Decode(bytes.NewReader(orig))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, img.Bounds().Dx(), 300)
	}
}

func TestPreserveOriginalsNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame_0001.jpg")
	require.NoError(t, os.WriteFile(src, []byte("resized"), 0o644))
	originals := filepath.Join(dir, "images_original")
	require.NoError(t, os.MkdirAll(originals, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(originals, "frame_0001.jpg"), []byte("pristine"), 0o644))

	n, err := PreserveOriginals([]string{src}, originals)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := os.ReadFile(filepath.Join(originals, "frame_0001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "pristine", string(got))
}

func TestPreserveOriginalsCopiesExactBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame_0001.jpg")
	payload := []byte{0xff, 0xd8, 0x00, 0x01, 0x02, 0xff, 0xd9}
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	_, err := PreserveOriginals([]string{src}, filepath.Join(dir, "orig"))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "orig", "frame_0001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	_, err = os.Stat(filepath.Join(dir, "orig", "frame_0001.jpg.partial"))
	assert.True(t, os.IsNotExist(err))
}

type flakyResizer struct {
	fail map[string]bool
	seen []string
}

func (f *flakyResizer) Resize(_ context.Context, path string, _ int) error {
	f.seen = append(f.seen, path)
	if f.fail[path] {
		return errors.New("boom")
	}
	return nil
}

func TestApplyToleratesPerFileFailures(t *testing.T) {
	r := &flakyResizer{fail: map[string]bool{"b.jpg": true}}
	ticks := 0
	rep, err := Apply(context.Background(), r, []string{"a.jpg", "b.jpg", "c.jpg"}, 1600, func() { ticks++ })
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, r.seen)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Resized)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "b.jpg", rep.Failures[0].Path)
	assert.True(t, rep.Failed())
	assert.Equal(t, 3, ticks)
}

func TestApplyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &flakyResizer{}
	_, err := Apply(ctx, r, []string{"a.jpg"}, 1600, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.seen)
}
