package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/splatmaster/internal/config"
)

func TestConfigure_ExplicitModes(t *testing.T) {
	if !Configure(config.ColorAlways) || !Enabled() {
		t.Error("ColorAlways should enable colors")
	}
	if Configure(config.ColorNever) || Enabled() {
		t.Error("ColorNever should disable colors")
	}
}

func TestConfigure_AutoRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if Configure(config.ColorAuto) {
		t.Error("NO_COLOR should disable auto colors")
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
}
