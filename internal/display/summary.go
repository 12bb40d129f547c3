package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/backmassage/splatmaster/internal/workspace"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).
			PaddingLeft(1).PaddingRight(1)
	cellStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

// ViewerURL is a browser-based splat viewer.
const ViewerURL = "https://supersplat.io/"

func newTable(headers ...string) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerRowStyle
			}
			if col == 1 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
}

// ArtifactTable renders artifacts as a two-column table of names relative to
// root and sizes.
func ArtifactTable(root string, artifacts []workspace.Artifact) string {
	t := newTable("Artifact", "Size")
	for _, a := range artifacts {
		t.Row(a.Name(root), FormatBytes(a.Size))
	}
	return t.Render()
}

// KeyValueTable renders ordered key/value pairs, used for the training
// configuration printout.
func KeyValueTable(pairs [][2]string) string {
	t := newTable("Setting", "Value")
	for _, p := range pairs {
		t.Row(p[0], p[1])
	}
	return t.Render()
}

// Summary is the end-of-run report.
type Summary struct {
	Root      string
	Frames    int
	Artifacts []workspace.Artifact
}

// PrintSummary writes the final artifact listing and viewing hints.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nWorkspace: %s\n", s.Root)
	fmt.Fprintf(w, "Frames processed: %d\n", s.Frames)
	if len(s.Artifacts) == 0 {
		fmt.Fprintln(w, "No .ply artifacts found yet (training may have been interrupted)")
		return
	}
	fmt.Fprintln(w, ArtifactTable(s.Root, s.Artifacts))
	fmt.Fprintln(w, "To view your splat:")
	fmt.Fprintf(w, "  - Open in Brush: brush_app %s\n", s.Root)
	fmt.Fprintln(w, "  - Upload to: "+ViewerURL)
	fmt.Fprintln(w, "  - Or use any PLY viewer")
}
