// Package workspace defines the on-disk layout shared by every pipeline
// stage. The layout is the contract that makes skip/resume work: a stage
// that is skipped finds its inputs exactly where an earlier run left them.
//
//	<root>/images/           current frame set (resized in place)
//	<root>/images_original/  pristine copies, never overwritten
//	<root>/database.db       COLMAP feature database
//	<root>/sparse/<model>/   one directory per reconstruction model
//	<root>/output/           remote trainer output; point_cloud.ply is the final splat
//	<root>/*.ply             exported splats
package workspace

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout names, relative to the workspace root.
const (
	ImagesDir    = "images"
	OriginalsDir = "images_original"
	SparseDir    = "sparse"
	OutputDir    = "output"
	DatabaseFile = "database.db"

	// FramePattern is the ffmpeg output template for extracted frames.
	FramePattern = "frame_%04d.jpg"

	// ArtifactExt is the extension of exported point clouds.
	ArtifactExt = ".ply"

	// FinalArtifact is where a worker leaves its final splat, inside
	// OutputDir, so a shallow remote glob can pull it back.
	FinalArtifact = "point_cloud.ply"
)

// Supported frame extensions (lowercase, with leading dot).
var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Workspace is a pipeline working directory identified by its absolute path.
type Workspace struct {
	Root string
}

// New resolves root to an absolute path. The directory is not created.
func New(root string) (Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve workspace %q: %w", root, err)
	}
	return Workspace{Root: abs}, nil
}

func (w Workspace) Images() string    { return filepath.Join(w.Root, ImagesDir) }
func (w Workspace) Originals() string { return filepath.Join(w.Root, OriginalsDir) }
func (w Workspace) Sparse() string    { return filepath.Join(w.Root, SparseDir) }
func (w Workspace) Output() string    { return filepath.Join(w.Root, OutputDir) }
func (w Workspace) Database() string  { return filepath.Join(w.Root, DatabaseFile) }

// FrameTemplate is the ffmpeg output path for numbered frames.
func (w Workspace) FrameTemplate() string {
	return filepath.Join(w.Images(), FramePattern)
}

// Frames returns the image files directly inside images/, sorted
// lexicographically so zero-padded frame numbers come out in order.
// A missing images directory yields an empty list, not an error.
func (w Workspace) Frames() ([]string, error) {
	return listFrames(w.Images())
}

// FrameCount returns len(Frames()).
func (w Workspace) FrameCount() (int, error) {
	frames, err := w.Frames()
	return len(frames), err
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

// Models returns every subdirectory of sparse/, sorted. Each one is a
// separate reconstruction model.
func (w Workspace) Models() ([]string, error) {
	entries, err := os.ReadDir(w.Sparse())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var models []string
	for _, e := range entries {
		if e.IsDir() {
			models = append(models, filepath.Join(w.Sparse(), e.Name()))
		}
	}
	sort.Strings(models)
	return models, nil
}

// Artifact is an exported point cloud file.
type Artifact struct {
	Path string
	Size int64
}

// Name returns the artifact path relative to root, or its base name when it
// cannot be made relative.
func (a Artifact) Name(root string) string {
	if rel, err := filepath.Rel(root, a.Path); err == nil {
		return rel
	}
	return filepath.Base(a.Path)
}

// Artifacts returns the *.ply files at the workspace root, sorted by name.
func (w Workspace) Artifacts() ([]Artifact, error) {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Artifact
	for _, e := range entries {
		if e.IsDir() || !isArtifact(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Artifact{Path: filepath.Join(w.Root, e.Name()), Size: info.Size()})
	}
	return out, nil
}

// FindArtifacts walks dir recursively and returns every *.ply file, sorted
// by path.
func FindArtifacts(dir string) ([]Artifact, error) {
	var out []Artifact
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !isArtifact(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, Artifact{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// AllArtifacts is FindArtifacts over the whole workspace.
func (w Workspace) AllArtifacts() ([]Artifact, error) {
	return FindArtifacts(w.Root)
}

func isArtifact(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ArtifactExt)
}

// CopyFile copies src to dst through a ".partial" sibling that is renamed
// into place, so dst is either absent or complete.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
