// Package cube implements CubeObject (§4.10) and the language-agnostic
// library API (§6): the facade that turns one word or phrase bitmap into a
// ranked WordAltList, lazily wiring a SearchObject and BeamSearch pair
// together and, for italic-capable languages, racing a de-slanted shadow
// pipeline against the primary one when the primary result looks weak.
package cube

import (
	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/beam"
	"github.com/cube-ocr/cube/bigrams"
	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/internal/bitmap"
	"github.com/cube-ocr/cube/internal/dawgfile"
	"github.com/cube-ocr/cube/langmodel"
	"github.com/cube-ocr/cube/recocontext"
	"github.com/cube-ocr/cube/searchobj"
	"github.com/cube-ocr/cube/sizemodel"
	"github.com/cube-ocr/cube/tuning"
	"github.com/cube-ocr/cube/unigrams"
)

// Thresholds governing size normalization and the de-slant retry,
// grounded on cube_object.h's kMin* constants.
const (
	minNormalizationAspectRatio = 3.5
	minNormalizationSegmentCnt  = 4
	minProbSkipDeslanted        = 0.25
)

// beamContext adapts a RecoContext plus a per-recognition word/phrase mode
// flag to beam.Context. PhraseMode is a property of one Recognize call,
// not of the context itself, so it cannot live on RecoContext -- the
// original threads the same distinction through via BeamSearch's
// constructor argument instead of a context field.
type beamContext struct {
	rc         *recocontext.RecoContext
	phraseMode bool
}

func (b *beamContext) Params() tuning.Params               { return b.rc.Params() }
func (b *beamContext) LangModel() langmodel.Model           { return b.rc.LangMod() }
func (b *beamContext) SizeModel() *sizemodel.SizeModel      { return b.rc.SizeModel() }
func (b *beamContext) Bigrams() *bigrams.CharBigrams        { return b.rc.Bigrams() }
func (b *beamContext) WordUnigrams() *unigrams.WordUnigrams { return b.rc.WordUnigramsObj() }
func (b *beamContext) PhraseMode() bool                     { return b.phraseMode }
func (b *beamContext) NoisyInput() bool                     { return b.rc.NoisyInput() }
func (b *beamContext) Contextual() bool                     { return b.rc.Contextual() }

// CubeObject recognizes one word or phrase bitmap against a RecoContext.
// Its search pipelines (and, if built, the de-slanted shadow pipeline) are
// constructed once and reused across repeated Recognize calls on the same
// bitmap.
type CubeObject struct {
	ctx *recocontext.RecoContext
	bmp *bitmap.Bmp8

	so   *searchobj.SearchObject
	beam *beam.Search

	deslantedBmp  *bitmap.Bmp8
	deslantedSO   *searchobj.SearchObject
	deslantedBeam *beam.Search
	deslanted     bool

	altList *altlist.WordAltList
}

// New creates a CubeObject over a whole-word (or whole-phrase) bitmap.
func New(ctx *recocontext.RecoContext, bmp *bitmap.Bmp8) *CubeObject {
	return &CubeObject{ctx: ctx, bmp: bmp}
}

// Deslanted reports whether the most recent Recognize call returned the
// de-slanted pipeline's result rather than the primary one.
func (c *CubeObject) Deslanted() bool { return c.deslanted }

// RecognizeWord recognizes the bitmap as a single word.
func (c *CubeObject) RecognizeWord() (*altlist.WordAltList, error) {
	return c.recognize(true)
}

// RecognizePhrase recognizes the bitmap as a space-separated phrase.
func (c *CubeObject) RecognizePhrase() (*altlist.WordAltList, error) {
	return c.recognize(false)
}

// RecognizeChar classifies the whole bitmap as a single character sample
// without running the beam search: a SearchObject segments the bitmap and
// every surviving segment is merged back into one sample for the
// classifier, so pieces the segmenter drops (components at or under
// MinConCompSize points, pieces smaller than 2x2) are not part of it.
func (c *CubeObject) RecognizeChar() (*altlist.CharAltList, error) {
	if c.bmp == nil {
		return nil, cuberr.ErrSegmentationUnusable
	}
	so := searchobj.New(c.ctx, c.bmp)
	samp, ok := so.CharSample(-1, so.SegPtCnt())
	if !ok {
		return nil, cuberr.ErrEmptyClassification
	}
	alt, ok := c.ctx.Classifier().Classify(samp)
	if !ok {
		return nil, cuberr.ErrEmptyClassification
	}
	return alt, nil
}

// WordCost scores candidate as if it were the single entry in the
// language model: it builds a temporary trie language model over just
// that one string, restricted to the word-list path (no OOD, numeric, or
// punctuation fallbacks, so only an exact match scores), recognizes the
// bitmap against it, and returns the top alternate's cost, or
// cost.WorstCost on failure. Grounded on CubeObject::WordCost's temporary
// WordListLangModel.
func (c *CubeObject) WordCost(candidate string) int {
	if c.bmp == nil {
		return cost.WorstCost
	}
	dawg := dawgfile.Build([]string{candidate})
	lm := langmodel.NewTrieModel(c.ctx.CharacterSet(), langmodel.Params{}, dawg)
	lm.SetOOD(false)
	lm.SetNumeric(false)
	lm.SetPunc(false)

	so := searchobj.New(c.ctx, c.bmp)
	ctx := &overrideLMContext{Context: &beamContext{rc: c.ctx, phraseMode: false}, lm: lm}
	alts, err := beam.New(ctx, so).Run()
	if err != nil || alts == nil || alts.AltCount() == 0 {
		return cost.WorstCost
	}
	return alts.Alt(0).Cost
}

// overrideLMContext lets WordCost's temporary language model stand in for
// a beamContext's LangModel without a constructor parameter on
// beam.Search itself -- the original passes lang_mod straight into
// BeamSearch::Search, but beam.Search always reads Context.LangModel(),
// so the override has to live on the Context value instead.
type overrideLMContext struct {
	beam.Context
	lm langmodel.Model
}

func (o *overrideLMContext) LangModel() langmodel.Model { return o.lm }

// recognize implements CubeObject::Recognize: optional size normalization,
// a primary beam search, and, for italic-capable languages whose primary
// result is weak or absent, a de-slanted shadow search that replaces it
// when cheaper.
func (c *CubeObject) recognize(wordMode bool) (*altlist.WordAltList, error) {
	if c.bmp == nil {
		return nil, cuberr.ErrSegmentationUnusable
	}

	if c.ctx.SizeNormalization() {
		c.normalize()
	}
	c.deslanted = false

	if c.so == nil {
		c.so = searchobj.New(c.ctx, c.bmp)
	}
	if c.beam == nil {
		c.beam = beam.New(&beamContext{rc: c.ctx, phraseMode: !wordMode}, c.so)
	}
	alts, err := c.beam.Run()
	c.altList = alts

	hasAlts := alts != nil && alts.AltCount() > 0
	bestCost := cost.WorstCost
	if hasAlts {
		bestCost = alts.Alt(0).Cost
	}

	if c.ctx.HasItalics() && (!hasAlts || bestCost > cost.Prob2Cost(minProbSkipDeslanted)) {
		if deslantedAlts, ok := c.recognizeDeslanted(); ok {
			deslantedHasAlts := deslantedAlts != nil && deslantedAlts.AltCount() > 0
			if deslantedHasAlts && (!hasAlts || deslantedAlts.Alt(0).Cost < bestCost) {
				c.deslanted = true
				return deslantedAlts, nil
			}
		}
	}

	if !hasAlts {
		return nil, err
	}
	return alts, nil
}

// recognizeDeslanted lazily builds and runs the de-slanted shadow
// pipeline. It is always run in word mode, matching BeamSearch's
// default-argument construction in CubeObject::Recognize's de-slant
// branch -- a quirk of the original preserved here rather than
// "corrected" to track the caller's word/phrase choice.
func (c *CubeObject) recognizeDeslanted() (*altlist.WordAltList, bool) {
	if c.deslantedBmp == nil {
		deslanted, ok := Deslant(c.bmp)
		if !ok {
			return nil, false
		}
		c.deslantedBmp = deslanted
	}
	if c.deslantedSO == nil {
		c.deslantedSO = searchobj.New(c.ctx, c.deslantedBmp)
	}
	if c.deslantedBeam == nil {
		c.deslantedBeam = beam.New(&beamContext{rc: c.ctx, phraseMode: false}, c.deslantedSO)
	}
	alts, err := c.deslantedBeam.Run()
	if err != nil && (alts == nil || alts.AltCount() == 0) {
		return nil, false
	}
	return alts, true
}

// normalize scales the bitmap's height down when its mean per-segment
// aspect ratio is too tall and narrow for reliable classification,
// grounded on CubeObject::Normalize.
func (c *CubeObject) normalize() {
	so := searchobj.New(c.ctx, c.bmp)
	segCnt := so.SegPtCnt()
	if segCnt < minNormalizationSegmentCnt {
		return
	}

	var arSum float64
	for segIdx := 0; segIdx <= segCnt; segIdx++ {
		box, ok := so.CharBox(segIdx-1, segIdx)
		if !ok || box.Width <= 0 {
			continue
		}
		arSum += float64(box.Height) / float64(box.Width)
	}
	arMean := arSum / float64(segCnt+1)
	if arMean <= minNormalizationAspectRatio {
		return
	}

	newHeight := int(2.0 * float64(c.bmp.Height) / arMean)
	scaled := bitmap.Scale(c.bmp, c.bmp.Width, newHeight)
	if scaled == nil {
		return
	}
	c.bmp = scaled
	c.so = nil
	c.beam = nil
}
