package searchobj

import (
	"testing"

	"github.com/cube-ocr/cube/charset"
	"github.com/cube-ocr/cube/classifier"
	"github.com/cube-ocr/cube/internal/bitmap"
	"github.com/cube-ocr/cube/tuning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContext is a minimal Context for tests: fixed tuning params, a
// configurable reading order/cursive flag, and an optional classifier.
type fakeContext struct {
	params  tuning.Params
	order   ReadingOrder
	cursive bool
	cls     *classifier.Classifier
	cs      *charset.CharSet
}

func (f *fakeContext) Params() tuning.Params                  { return f.params }
func (f *fakeContext) ReadingOrder() ReadingOrder             { return f.order }
func (f *fakeContext) Cursive() bool                          { return f.cursive }
func (f *fakeContext) Classifier() *classifier.Classifier     { return f.cls }
func (f *fakeContext) CharacterSet() *charset.CharSet         { return f.cs }

func buildCharset(t *testing.T) *charset.CharSet {
	t.Helper()
	cs := charset.New()
	cs.AddClass([]rune(" "), 0)
	cs.AddClass([]rune("a"), 1)
	cs.AddClass([]rune("b"), 2)
	return cs
}

// twoLetterWord draws two 4x10 ink blocks separated by a wide gap, on a
// 30x10 background raster -- a two-character "word" with an obvious space
// between segmentation-point 0 and the rest, for segmentation tests.
func twoLetterWord() *bitmap.Bmp8 {
	bmp := bitmap.New(30, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 4; x++ {
			bmp.Set(x, y, 0)
		}
		for x := 20; x < 24; x++ {
			bmp.Set(x, y, 0)
		}
	}
	return bmp
}

func newTestContext(cs *charset.CharSet) *fakeContext {
	return &fakeContext{params: tuning.Default(), order: LeftToRight, cs: cs}
}

func TestSegPtCntCountsSegments(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	if got := so.SegPtCnt(); got != 1 {
		t.Fatalf("SegPtCnt() = %d, want 1 (two blobs, one segmentation point)", got)
	}
}

func TestSegPtCntFailsOnBlankBitmap(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), bitmap.New(10, 10))
	if got := so.SegPtCnt(); got != -1 {
		t.Fatalf("SegPtCnt() on blank bitmap = %d, want -1", got)
	}
}

func TestCharSampleSpansWholeRange(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	samp, ok := so.CharSample(-1, 1)
	require.True(t, ok, "CharSample(-1, 1) failed")

	assert.Greater(t, samp.Box.Width, 0)
	assert.Greater(t, samp.Box.Height, 0)
	assert.True(t, samp.Context.FirstChar, "expected FirstChar for range starting at -1")
	assert.True(t, samp.Context.LastChar, "expected LastChar for range ending at the last segment")
}

func TestCharSampleRejectsInvalidRange(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	if _, ok := so.CharSample(5, 6); ok {
		t.Fatal("expected CharSample to reject an out-of-range segment range")
	}
}

func TestCharSampleCaches(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	a, ok := so.CharSample(-1, 0)
	if !ok {
		t.Fatal("CharSample(-1, 0) failed")
	}
	b, ok := so.CharSample(-1, 0)
	if !ok {
		t.Fatal("CharSample(-1, 0) second call failed")
	}
	if a != b {
		t.Fatal("expected cached CharSample pointer to be reused")
	}
}

func TestRecognizeSegmentFallbackWithoutClassifier(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	alt, ok := so.RecognizeSegment(-1, 0)
	if !ok {
		t.Fatal("RecognizeSegment fallback failed")
	}
	// unlike Classify, the no-classifier fallback covers every class,
	// including the null/space class.
	if alt.AltCount() != cs.ClassCount() {
		t.Fatalf("AltCount() = %d, want %d (every class)", alt.AltCount(), cs.ClassCount())
	}
}

func TestRecognizeSegmentUsesClassifierWhenPresent(t *testing.T) {
	cs := buildCharset(t)
	ctx := newTestContext(cs)
	ctx.cls = classifier.New(cs, classifier.NewBmpExtractor(4))
	so := New(ctx, twoLetterWord())
	alt, ok := so.RecognizeSegment(-1, 0)
	if !ok {
		t.Fatal("RecognizeSegment with classifier failed")
	}
	if alt.AltCount() != cs.ClassCount()-1 {
		t.Fatalf("AltCount() = %d, want %d", alt.AltCount(), cs.ClassCount()-1)
	}
}

func TestSpaceCostLowAtWideGap(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	spaceCost := so.SpaceCost(0)
	noSpaceCost := so.NoSpaceCost(0)
	if spaceCost >= noSpaceCost {
		t.Fatalf("expected a wide gap to cost less as a space: space=%d noSpace=%d", spaceCost, noSpaceCost)
	}
}

func TestNoSpaceCostRangeSumsInteriorPoints(t *testing.T) {
	cs := buildCharset(t)
	so := New(newTestContext(cs), twoLetterWord())
	// a single-point range has no interior segmentation points to sum.
	if got := so.NoSpaceCostRange(-1, 0); got != 0 {
		t.Fatalf("NoSpaceCostRange(-1, 0) = %d, want 0", got)
	}
}

func TestRightToLeftOrdersSegmentsByDescendingRight(t *testing.T) {
	cs := buildCharset(t)
	ctx := newTestContext(cs)
	ctx.order = RightToLeft
	so := New(ctx, twoLetterWord())
	if !so.init() {
		t.Fatal("init failed")
	}
	if len(so.segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(so.segments))
	}
	if so.segments[0].Right < so.segments[1].Right {
		t.Fatal("expected segments sorted by descending Right() for R2L order")
	}
}
