package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, size int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
	return p
}

func TestNew_Absolute(t *testing.T) {
	ws, err := New("relative/out")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(ws.Root))
	assert.Equal(t, filepath.Join(ws.Root, "images"), ws.Images())
	assert.Equal(t, filepath.Join(ws.Root, "images_original"), ws.Originals())
	assert.Equal(t, filepath.Join(ws.Root, "sparse"), ws.Sparse())
	assert.Equal(t, filepath.Join(ws.Root, "images", "frame_%04d.jpg"), ws.FrameTemplate())
}

func TestFrames_FiltersAndSorts(t *testing.T) {
	ws := Workspace{Root: t.TempDir()}
	touch(t, ws.Images(), "frame_0002.jpg", 1)
	touch(t, ws.Images(), "frame_0001.jpg", 1)
	touch(t, ws.Images(), "frame_0003.PNG", 1)
	touch(t, ws.Images(), "notes.txt", 1)
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Images(), "nested.jpg"), 0o755))

	frames, err := ws.Frames()
	require.NoError(t, err)

	var names []string
	for _, f := range frames {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"frame_0001.jpg", "frame_0002.jpg", "frame_0003.PNG"}, names)
}

func TestFrames_MissingDir(t *testing.T) {
	ws := Workspace{Root: t.TempDir()}
	n, err := ws.FrameCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestModels(t *testing.T) {
	ws := Workspace{Root: t.TempDir()}
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Sparse(), "1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Sparse(), "0"), 0o755))
	touch(t, ws.Sparse(), "project.ini", 1)

	models, err := ws.Models()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(ws.Sparse(), "0"), filepath.Join(ws.Sparse(), "1")}, models)
}

func TestArtifacts_RootOnly(t *testing.T) {
	ws := Workspace{Root: t.TempDir()}
	touch(t, ws.Root, "export_30000.ply", 2048)
	touch(t, ws.Root, "export_5000.PLY", 1024)
	touch(t, ws.Output(), "point_cloud.ply", 10)
	touch(t, ws.Root, "cameras.txt", 10)

	root, err := ws.Artifacts()
	require.NoError(t, err)
	require.Len(t, root, 2)
	assert.Equal(t, int64(2048), root[0].Size)
	assert.Equal(t, "export_30000.ply", root[0].Name(ws.Root))

	all, err := ws.AllArtifacts()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFindArtifacts_MissingDir(t *testing.T) {
	got, err := FindArtifacts(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ply")
	require.NoError(t, os.WriteFile(src, []byte("ply data"), 0o644))

	dst := filepath.Join(dir, "out", FinalArtifact)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "ply data", string(got))
	assert.NoFileExists(t, dst+".partial")

	assert.Error(t, CopyFile(filepath.Join(dir, "missing"), dst))
}
