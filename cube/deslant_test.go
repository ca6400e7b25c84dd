package cube

import (
	"testing"

	"github.com/cube-ocr/cube/internal/bitmap"
)

func TestDeslantLeavesNarrowBitmapUnchanged(t *testing.T) {
	bmp := bitmap.New(5, 10) // width < height*2
	bmp.Set(2, 5, 0)

	out, ok := Deslant(bmp)
	if !ok {
		t.Fatal("Deslant() failed on a narrow bitmap")
	}
	if out != bmp {
		t.Fatal("Deslant() should return the same bitmap unchanged when too narrow")
	}
}

func TestDeslantStraightensASlantedStroke(t *testing.T) {
	// Draw a diagonal stroke sheared 15 degrees from vertical: wide enough
	// (30 x 10) to pass the width gate, and the column histogram of a
	// perfectly vertical stroke has strictly lower entropy (all mass in
	// one column) than a slanted one spread across many columns, so
	// Deslant should shear it most of the way back upright.
	height := 10
	width := 30
	bmp := bitmap.New(width, height)
	for y := 0; y < height; y++ {
		desY := height - y - 1
		x := width/2 + int(float64(desY)*0.27) // ~15 degrees of shear
		if x >= 0 && x < width {
			bmp.Set(x, y, 0)
		}
	}

	out, ok := Deslant(bmp)
	if !ok {
		t.Fatal("Deslant() failed")
	}

	// the straightened stroke should occupy a narrower horizontal spread
	// than the original slanted one.
	origSpread := columnSpread(bmp)
	outSpread := columnSpread(out)
	if outSpread > origSpread {
		t.Fatalf("deslanted spread %d is wider than the original %d", outSpread, origSpread)
	}
}

func columnSpread(bmp *bitmap.Bmp8) int {
	minX, maxX := -1, -1
	for y := 0; y < bmp.Height; y++ {
		for x := 0; x < bmp.Width; x++ {
			if bmp.IsForeground(x, y) {
				if minX == -1 || x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
			}
		}
	}
	if minX == -1 {
		return 0
	}
	return maxX - minX
}
