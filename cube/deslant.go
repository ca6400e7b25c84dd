package cube

import (
	"math"

	"github.com/cube-ocr/cube/internal/bitmap"
)

// Deslant angle sweep, grounded on Bmp8::Deslant: 121 angles from -30° to
// +30° in 0.5° steps.
const (
	minDeslantAngle   = -30.0
	maxDeslantAngle   = 30.0
	deslantAngleDelta = 0.5
	deslantAngleCount = 1 + int(0.5+(maxDeslantAngle-minDeslantAngle)/deslantAngleDelta)

	// minDeslantWidthRatio gates the whole pass: too narrow a sample makes
	// the slant estimate unreliable, so the original leaves it unchanged.
	minDeslantWidthRatio = 2
)

var deslantTanTable = buildDeslantTanTable()

func buildDeslantTanTable() [deslantAngleCount]float64 {
	var table [deslantAngleCount]float64
	angle := minDeslantAngle
	for i := 0; i < deslantAngleCount; i++ {
		table[i] = math.Tan(angle * math.Pi / 180.0)
		angle += deslantAngleDelta
	}
	return table
}

// Deslant shears bmp horizontally by whatever angle in [-30°, +30°]
// minimizes the entropy of the resulting vertical pixel-column histogram,
// the same search cube_object.cpp's CharSamp::Deslant runs before a second
// recognition pass over italic-capable languages (§4.14). Returns the
// original bitmap unchanged (ok still true) when it is too narrow for the
// slant estimate to be reliable.
func Deslant(bmp *bitmap.Bmp8) (*bitmap.Bmp8, bool) {
	if bmp.Width < bmp.Height*minDeslantWidthRatio {
		return bmp, true
	}

	minDesX := round(float64(bmp.Height-1) * deslantTanTable[0])
	maxDesX := (bmp.Width - 1) + round(float64(bmp.Height-1)*deslantTanTable[deslantAngleCount-1])
	desWidth := maxDesX - minDesX + 1
	if desWidth <= 0 {
		return bmp, true
	}

	hist := make([][]int, deslantAngleCount)
	for a := range hist {
		hist[a] = make([]int, desWidth)
	}
	for y := 0; y < bmp.Height; y++ {
		for x := 0; x < bmp.Width; x++ {
			if !bmp.IsForeground(x, y) {
				continue
			}
			desY := bmp.Height - y - 1
			for a := 0; a < deslantAngleCount; a++ {
				desX := x + round(float64(desY)*deslantTanTable[a])
				if desX >= minDesX && desX <= maxDesX {
					hist[a][desX-minDesX]++
				}
			}
		}
	}

	bestAngle := -1
	bestEntropy := 0.0
	for a := 0; a < deslantAngleCount; a++ {
		entropy := 0.0
		for _, count := range hist[a] {
			if count <= 0 {
				continue
			}
			norm := float64(count) / float64(bmp.Height)
			entropy += -norm * math.Log(norm)
		}
		if bestAngle == -1 || entropy < bestEntropy {
			bestAngle = a
			bestEntropy = entropy
		}
	}
	if bestAngle == -1 {
		return bmp, true
	}

	out := bitmap.New(desWidth, bmp.Height)
	for y := 0; y < bmp.Height; y++ {
		for x := 0; x < bmp.Width; x++ {
			if !bmp.IsForeground(x, y) {
				continue
			}
			desY := bmp.Height - y - 1
			desX := x + round(float64(desY)*deslantTanTable[bestAngle])
			out.Set(desX-minDesX, y, 0)
		}
	}
	return out, true
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
