// Package brush locates the Brush trainer executable and builds its command
// line for local Gaussian splat training.
package brush

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Binary is the Brush executable name.
const Binary = "brush_app"

// EnvPath names the environment variable consulted before the search.
const EnvPath = "BRUSH_PATH"

// DownloadURL is where prebuilt Brush releases are published.
const DownloadURL = "https://github.com/ArthurBrussee/brush/releases"

var (
	// ErrNotFound means no Brush executable was found anywhere.
	ErrNotFound = errors.New("brush executable not found")
	// ErrOverrideMissing means --brush-path names a file that does not exist.
	ErrOverrideMissing = errors.New("brush path does not exist")
)

// SearchPatterns are matched, in order, against paths under the home
// directory. The first pattern with any match wins.
var SearchPatterns = []string{
	"**/" + Binary,
	"**/brush-app*/" + Binary,
}

// Locator resolves the Brush executable. It only stats and walks the
// filesystem; nothing is created or modified.
type Locator struct {
	Override   string                       // --brush-path; must exist when set
	Getenv     func(string) string          // defaults to os.Getenv
	LookPath   func(string) (string, error) // defaults to exec.LookPath
	KnownPaths []string                     // checked in order
	Home       string                       // root of the recursive search; empty disables it
}

// DefaultLocator returns a Locator with the standard install locations.
func DefaultLocator(override string) *Locator {
	home, _ := os.UserHomeDir()
	l := &Locator{
		Override: override,
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
		Home:     home,
		KnownPaths: []string{
			"/Applications/brush_app",
			"/Applications/Brush.app/Contents/MacOS/brush_app",
		},
	}
	if home != "" {
		l.KnownPaths = append(l.KnownPaths,
			filepath.Join(home, "Applications", Binary),
			filepath.Join(home, "brush-app-aarch64-apple-darwin", Binary),
			filepath.Join(home, "Downloads", "brush-app-aarch64-apple-darwin", Binary),
		)
	}
	return l
}

// Locate returns the first Brush executable found, in order: the explicit
// override, $BRUSH_PATH, the known install paths, brush_app on PATH, and a
// recursive search of the home directory.
func (l *Locator) Locate() (string, error) {
	if l.Override != "" {
		if exists(l.Override) {
			return l.Override, nil
		}
		return "", fmt.Errorf("%w: %s", ErrOverrideMissing, l.Override)
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if p := getenv(EnvPath); p != "" && exists(p) {
		return p, nil
	}

	for _, p := range l.KnownPaths {
		if exists(p) {
			return p, nil
		}
	}

	if l.LookPath != nil {
		if p, err := l.LookPath(Binary); err == nil {
			return p, nil
		}
	}

	if l.Home != "" {
		if p := searchTree(l.Home, SearchPatterns); p != "" {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// Remediation lists the ways to make Brush discoverable, one per line.
func Remediation() []string {
	return []string{
		"set " + EnvPath + "=/path/to/" + Binary,
		"or pass --brush-path /path/to/" + Binary,
		"or download a release from " + DownloadURL,
		"or train on a GPU host with --remote",
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// searchTree walks root in lexical order and returns the first file matching
// the earliest pattern that matches anything. Hidden directories and
// unreadable subtrees are skipped.
func searchTree(root string, patterns []string) string {
	var candidates []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == Binary {
			candidates = append(candidates, path)
		}
		return nil
	})

	for _, pat := range patterns {
		for _, c := range candidates {
			if rel, err := filepath.Rel(root, c); err == nil && matchTail(pat, rel) {
				return c
			}
		}
	}
	return ""
}

// matchTail matches rel against a pattern of the form "**/seg/.../seg":
// the trailing segments of rel must match the pattern segments after "**".
func matchTail(pattern, rel string) bool {
	segs := strings.Split(pattern, "/")
	if len(segs) > 0 && segs[0] == "**" {
		segs = segs[1:]
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < len(segs) {
		return false
	}
	parts = parts[len(parts)-len(segs):]
	for i, s := range segs {
		ok, err := filepath.Match(s, parts[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}
