// Command cuberecognize is a minimal CLI over the cube library API (§6):
// load a language's RecoContext from a data directory, decode one PGM
// image region, recognize it, and print the ranked alternates as JSON.
// It exercises the same four entry points `cube/api.go` exposes to Go
// callers -- CreateContext, RecognizeWord, RecognizePhrase, RecognizeChar
// -- the way the teacher's binding/wrapper.go exercises analyzer.Analyze
// for its cgo callers, reworked here as a plain executable instead of a
// C-callable export surface.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/cube-ocr/cube"
	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/internal/bitmap"
	"github.com/cube-ocr/cube/internal/logging"
	"github.com/cube-ocr/cube/recocontext"
	"github.com/cube-ocr/cube/utf32"
)

func main() {
	lang := flag.String("lang", "eng", "language code (selects <lang>.* files in -datadir)")
	dataDir := flag.String("datadir", ".", "directory holding the language data files")
	imagePath := flag.String("image", "", "path to a binary PGM (P5) image of the word/phrase")
	mode := flag.String("mode", "word", "recognition mode: word, phrase, or char")
	threshold := flag.Uint("threshold", uint(bitmap.DefaultThreshold), "grayscale value at or below which a pixel counts as ink")
	flag.Parse()

	if *imagePath == "" {
		logging.Fatalf("-image is required")
	}

	ctx, err := cube.CreateContext(*lang, *dataDir)
	if err != nil {
		logging.Fatalf("loading %q from %s: %v", *lang, *dataDir, err)
	}

	bmp, err := readPGM(*imagePath, uint8(*threshold))
	if err != nil {
		logging.Fatalf("reading %s: %v", *imagePath, err)
	}
	region := cube.ImageRegion{Bmp: bmp}

	switch *mode {
	case "word":
		alts, err := cube.RecognizeWord(ctx, region)
		emitWordAlts(alts, err)
	case "phrase":
		alts, err := cube.RecognizePhrase(ctx, region)
		emitWordAlts(alts, err)
	case "char":
		alt, err := cube.RecognizeChar(ctx, region)
		emitCharAlts(ctx, alt, err)
	default:
		logging.Fatalf("unknown -mode %q, want word, phrase, or char", *mode)
	}
}

type wordAltJSON struct {
	Text string `json:"text"`
	Cost int    `json:"cost"`
}

type charAltJSON struct {
	Text string `json:"text"`
	Cost int    `json:"cost"`
}

func emitWordAlts(alts *altlist.WordAltList, err error) {
	if err != nil {
		logging.Fatalf("recognition failed: %v", err)
	}
	out := make([]wordAltJSON, 0, alts.AltCount())
	for _, e := range alts.Entries() {
		out = append(out, wordAltJSON{Text: utf32.ToUTF8(e.Str32), Cost: e.Cost})
	}
	writeJSON(out)
}

func emitCharAlts(ctx *recocontext.RecoContext, alt *altlist.CharAltList, err error) {
	if err != nil {
		logging.Fatalf("recognition failed: %v", err)
	}
	cs := ctx.CharacterSet()
	out := make([]charAltJSON, 0, alt.AltCount())
	for _, e := range alt.Entries() {
		text := "?"
		if str, err := cs.String(e.ClassID); err == nil {
			text = utf32.ToUTF8(str)
		}
		out = append(out, charAltJSON{Text: text, Cost: e.Cost})
	}
	writeJSON(out)
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Fatalf("encoding result: %v", err)
	}
}
