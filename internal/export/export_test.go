package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/florianHoidn/rl-drone-env/internal/storage"
)

func testTable(t *testing.T) *storage.Table {
	t.Helper()
	tab, err := storage.ReadCSV(strings.NewReader("t,px,py,pz\n0,0,0,1\n0.5,0.1,0.2,1.1\n1,0.3,0.1,1.05\n"))
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestLinePlotLengthMismatch(t *testing.T) {
	if _, err := LinePlot("bad", "x", "y", Series{X: []float64{1, 2}, Y: []float64{1}}); err == nil {
		t.Error("expected error for mismatched series")
	}
}

func TestWriteFormats(t *testing.T) {
	p, err := ColumnsPlot("altitude", testTable(t), "pz")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format string
		magic  []byte
	}{
		{"png", []byte("\x89PNG")},
		{"svg", []byte("<?xml")},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, p, tt.format, 4, 3); err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(buf.Bytes(), tt.magic) {
				t.Errorf("output does not start with %q", tt.magic)
			}
		})
	}

	if err := Write(&bytes.Buffer{}, p, "bmp", 4, 3); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSave(t *testing.T) {
	p, err := GroundTrackPlot("track", testTable(t))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "plots", "track.png")
	if err := Save(path, p, DefaultWidth, DefaultHeight); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}

	if err := Save(filepath.Join(t.TempDir(), "noext"), p, 4, 3); err == nil {
		t.Error("expected error without extension")
	}
}

func TestColumnsPlotMissingColumn(t *testing.T) {
	if _, err := ColumnsPlot("x", testTable(t), "qw"); err == nil {
		t.Error("expected error for missing column")
	}
}
