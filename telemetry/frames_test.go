package telemetry

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFrameWriter_Render(t *testing.T) {
	fw := &FrameWriter{res: 4, scale: 64, meter: testMeter()}
	if fw.Size() != 256 {
		t.Fatalf("Size = %d, want 256", fw.Size())
	}

	// Bucket (cx=3, cy=0) over-full, bucket (cx=3, cy=1) half covered.
	counts := make([]int32, 16)
	counts[3] = 9
	counts[7] = 2

	img := fw.Render(42, counts)
	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"clipped full", 255, 255, 255},
		{"half", 255, 255 - 64, 127},
		{"empty", 100, 255, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.RGBAAt(tt.x, tt.y).R; got != tt.want {
				t.Errorf("pixel (%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFrameWriter_Write(t *testing.T) {
	dir := t.TempDir()
	fw := &FrameWriter{dir: dir, res: 4, scale: 64, meter: testMeter()}

	path, err := fw.Write(7, make([]int32, 16))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "frame_000007.png" {
		t.Errorf("frame name = %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Errorf("bounds = %v, want 256×256", b)
	}
}
