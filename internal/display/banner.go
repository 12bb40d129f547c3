package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))

const bannerArt = `           _       _                        _
 ___ _ __ | | __ _| |_ _ __ ___   __ _ ___| |_ ___ _ __
/ __| '_ \| |/ _` + "`" + ` | __| '_ ` + "`" + ` _ \ / _` + "`" + ` / __| __/ _ \ '__|
\__ \ |_) | | (_| | |_| | | | | | (_| \__ \ ||  __/ |
|___/ .__/|_|\__,_|\__|_| |_| |_|\__,_|___/\__\___|_|
    |_|`

// PrintBanner prints the ASCII art banner followed by the version. Styling is
// dropped automatically when colors are disabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprintln(w, bannerStyle.Render(bannerArt))
	fmt.Fprintf(w, "video -> frames -> colmap -> splat  (%s)\n\n", version)
}
