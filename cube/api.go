package cube

import (
	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/internal/bitmap"
	"github.com/cube-ocr/cube/recocontext"
)

// ImageRegion is an 8-bit grayscale raster plus its rectangle in page
// coordinates (§6: "Image input is an 8-bit grayscale raster plus a
// rectangle in page coordinates"). Left/Top record where the region sits
// on the source page; recognition itself only ever looks at Bmp.
type ImageRegion struct {
	Bmp        *bitmap.Bmp8
	Left, Top  int
}

// CreateContext loads a RecoContext for lang out of dataDir (§6:
// "create_context(lang, data_dir) -> opt<RecoContext>").
func CreateContext(lang, dataDir string) (*recocontext.RecoContext, error) {
	return recocontext.Load(dataDir, lang)
}

// RecognizeWord recognizes region as a single word (§6).
func RecognizeWord(ctx *recocontext.RecoContext, region ImageRegion) (*altlist.WordAltList, error) {
	return New(ctx, region.Bmp).RecognizeWord()
}

// RecognizePhrase recognizes region as a space-separated phrase (§6).
func RecognizePhrase(ctx *recocontext.RecoContext, region ImageRegion) (*altlist.WordAltList, error) {
	return New(ctx, region.Bmp).RecognizePhrase()
}

// RecognizeChar classifies region as a single character sample, without
// running the beam search (§6).
func RecognizeChar(ctx *recocontext.RecoContext, region ImageRegion) (*altlist.CharAltList, error) {
	return New(ctx, region.Bmp).RecognizeChar()
}

// WordCost scores region against one candidate UTF-32 string as if it
// were the only entry in the language model (§6).
func WordCost(ctx *recocontext.RecoContext, region ImageRegion, candidate string) int {
	return New(ctx, region.Bmp).WordCost(candidate)
}
