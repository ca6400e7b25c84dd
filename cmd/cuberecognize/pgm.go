package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cube-ocr/cube/internal/bitmap"
)

// readPGM decodes a binary-grayscale PGM (P5) file into a Bmp8. Thresholding
// uses the bitmap's own foreground convention (0 = ink, 255 = background):
// any sample at or below threshold becomes ink, matching the scanned-text
// assumption the rest of the pipeline is built around. No general-purpose
// image codec in the pack reads this one-channel line-art format directly,
// so this is a from-scratch minimal reader rather than an adapted library.
func readPGM(path string, threshold uint8) (*bitmap.Bmp8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic, err := readToken(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("%s: unsupported PGM magic %q, want P5", path, magic)
	}

	width, err := readIntToken(r)
	if err != nil {
		return nil, fmt.Errorf("%s: width: %w", path, err)
	}
	height, err := readIntToken(r)
	if err != nil {
		return nil, fmt.Errorf("%s: height: %w", path, err)
	}
	maxVal, err := readIntToken(r)
	if err != nil {
		return nil, fmt.Errorf("%s: maxval: %w", path, err)
	}
	if maxVal <= 0 || maxVal > 255 {
		return nil, fmt.Errorf("%s: unsupported maxval %d, want 1-255", path, maxVal)
	}

	pixels := make([]byte, width*height)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, fmt.Errorf("%s: reading %d pixel bytes: %w", path, len(pixels), err)
	}

	bmp := bitmap.New(width, height)
	bmp.Threshold = threshold
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sample := pixels[y*width+x]
			if sample <= threshold {
				bmp.Set(x, y, 0)
			}
		}
	}
	return bmp, nil
}

// readToken reads one whitespace-delimited token, skipping PGM "#" comment
// lines wherever one starts instead of a token.
func readToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
			continue
		}
		if isPGMSpace(b) {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, b)
	}
}

func readIntToken(r *bufio.Reader) (int, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(tok, "%d", &v); err != nil {
		return 0, fmt.Errorf("%q is not an integer", tok)
	}
	return v, nil
}

func isPGMSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}
