package classifier

import (
	"testing"

	"github.com/cube-ocr/cube/segment"
)

func solidSample(w, h int, val uint8) *segment.CharSample {
	pixels := make([]uint8, w*h)
	for i := range pixels {
		pixels[i] = val
	}
	return &segment.CharSample{
		Box:    segment.Box{Width: w, Height: h},
		Pixels: pixels,
		Context: segment.ContextAttributes{
			FirstChar: true, LastChar: false,
			NormTop: 10, NormBottom: 200, NormAspectRatio: 128,
		},
	}
}

func TestBmpExtractorFeatureCount(t *testing.T) {
	e := NewBmpExtractor(32)
	if e.FeatureCount() != 1029 {
		t.Fatalf("FeatureCount() = %d, want 1029", e.FeatureCount())
	}
}

func TestBmpExtractorComputeFeatures(t *testing.T) {
	e := NewBmpExtractor(4)
	samp := solidSample(8, 8, 255)
	features, ok := e.ComputeFeatures(samp)
	if !ok {
		t.Fatal("ComputeFeatures returned false")
	}
	if len(features) != e.FeatureCount() {
		t.Fatalf("got %d features, want %d", len(features), e.FeatureCount())
	}
	// a solid white (255) sample scaled down should read as ~0 ink activation
	for i := 0; i < 16; i++ {
		if features[i] != 0 {
			t.Fatalf("feature[%d] = %v, want 0 for an all-white sample", i, features[i])
		}
	}
	if features[16] != 1 { // FirstChar
		t.Fatalf("FirstChar feature = %v, want 1", features[16])
	}
}

func TestChebyshevExtractorFeatureCount(t *testing.T) {
	e := NewChebyshevExtractor()
	if e.FeatureCount() != 160 {
		t.Fatalf("FeatureCount() = %d, want 160", e.FeatureCount())
	}
}

func TestChebyshevExtractorRejectsZeroNormBottom(t *testing.T) {
	e := NewChebyshevExtractor()
	samp := solidSample(4, 4, 0)
	samp.Context.NormBottom = 0
	if _, ok := e.ComputeFeatures(samp); ok {
		t.Fatal("expected ComputeFeatures to reject a zero NormBottom sample")
	}
}

func TestChebyshevExtractorProducesFiniteCoefficients(t *testing.T) {
	e := NewChebyshevExtractor()
	samp := solidSample(6, 6, 0) // all foreground (0 = ink)
	features, ok := e.ComputeFeatures(samp)
	if !ok {
		t.Fatal("ComputeFeatures returned false")
	}
	for i, f := range features {
		if f != f { // NaN check
			t.Fatalf("feature[%d] is NaN", i)
		}
	}
}

func TestHybridExtractorConcatenates(t *testing.T) {
	e := NewHybridExtractor(4)
	samp := solidSample(8, 8, 128)
	features, ok := e.ComputeFeatures(samp)
	if !ok {
		t.Fatal("ComputeFeatures returned false")
	}
	want := e.Bmp.FeatureCount() + e.Chebyshev.FeatureCount()
	if len(features) != want {
		t.Fatalf("got %d features, want %d", len(features), want)
	}
}

func TestScaleSampleUpAndDown(t *testing.T) {
	src := solidSample(2, 2, 100)
	up := scaleSample(src, 8, 8, false)
	if up == nil || up.Box.Width != 8 || up.Box.Height != 8 {
		t.Fatalf("up-scale result = %+v, want 8x8", up)
	}
	down := scaleSample(solidSample(16, 16, 50), 4, 4, false)
	if down == nil || down.Box.Width != 4 || down.Box.Height != 4 {
		t.Fatalf("down-scale result = %+v, want 4x4", down)
	}
}

func TestScaleSampleDegenerate(t *testing.T) {
	if scaleSample(&segment.CharSample{}, 4, 4, true) != nil {
		t.Fatal("expected nil for a zero-sized source sample")
	}
}
