package classifier

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cube-ocr/cube/charset"
	"github.com/cube-ocr/cube/classifier/neuralnet"
	"github.com/cube-ocr/cube/segment"
)

// writeDirectNet hand-assembles a net with no hidden layer: every output
// neuron reads every input directly, with the given per-output bias and
// weight row, and pass-through input normalization.
func writeDirectNet(t *testing.T, path string, inputCount int, weights [][]float32, biases []float32) {
	t.Helper()
	outputCount := len(weights)
	neuronCount := inputCount + outputCount

	var buf bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}

	w(uint32(0x4e455431))
	w(uint32(0))
	w(uint32(neuronCount))
	w(uint32(inputCount))
	w(uint32(outputCount))

	for i := 0; i < inputCount; i++ {
		w(uint32(outputCount))
		for o := 0; o < outputCount; o++ {
			w(uint32(inputCount + o))
		}
	}
	for o := 0; o < outputCount; o++ {
		w(uint32(0))
	}

	for o := 0; o < outputCount; o++ {
		w(biases[o])
		for i := 0; i < inputCount; i++ {
			w(weights[o][i])
		}
	}

	for i := 0; i < inputCount; i++ {
		w(float32(0)) // mean
	}
	for i := 0; i < inputCount; i++ {
		w(float32(1)) // stddev
	}
	for i := 0; i < inputCount; i++ {
		w(float32(-1e9)) // min
	}
	for i := 0; i < inputCount; i++ {
		w(float32(1e9)) // max
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func buildClassifierCharset(t *testing.T) *charset.CharSet {
	t.Helper()
	cs := charset.New()
	cs.AddClass([]rune(" "), 0) // class 0, reserved
	cs.AddClass([]rune("a"), 1)
	cs.AddClass([]rune("A"), 2)
	cs.AddClass([]rune("b"), 3)
	return cs
}

func TestFoldCaseInsensitiveMerging(t *testing.T) {
	cs := buildClassifierCharset(t)
	c := New(cs, NewBmpExtractor(2))
	c.SetCaseSensitive(false)
	c.output = []float32{0, 0.2, 0.9, 0.1}
	c.fold()
	if c.output[1] != 0.9 || c.output[2] != 0.9 {
		t.Fatalf("case folding = %v, want both 'a' and 'A' raised to 0.9", c.output)
	}
}

func TestFoldSetsRaiseToFraction(t *testing.T) {
	cs := buildClassifierCharset(t)
	c := New(cs, NewBmpExtractor(2))
	c.foldSets = [][]int{{1, 2}}
	c.output = []float32{0, 0.1, 0.8, 0.1}
	c.fold()
	wantFloor := float32(0.8 * foldRatio)
	if c.output[1] != wantFloor {
		t.Fatalf("output[1] = %v, want floor %v", c.output[1], wantFloor)
	}
	if c.output[2] != 0.8 {
		t.Fatalf("output[2] = %v, want unchanged 0.8", c.output[2])
	}
	if c.output[3] != 0.1 {
		t.Fatalf("output[3] (outside set) = %v, want unchanged 0.1", c.output[3])
	}
}

func TestClassifyAndCharCostEndToEnd(t *testing.T) {
	cs := buildClassifierCharset(t)
	extractor := NewBmpExtractor(2) // 4 + 5 = 9 features
	dir := t.TempDir()
	netPath := filepath.Join(dir, "net.bin")
	// 4 output classes, each output neuron reads only its own bias (zero
	// weights) except class 1 ("a"), which reads feature 0 positively.
	weights := [][]float32{
		{0, 0, 0, 0, 0, 0, 0, 0, 0},
		{5, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	biases := []float32{0, 0, 0, 0}
	writeDirectNet(t, netPath, extractor.FeatureCount(), weights, biases)

	net, err := neuralnet.Load(netPath)
	if err != nil {
		t.Fatal(err)
	}

	c := New(cs, extractor)
	c.SetNets([]*neuralnet.Network{net}, []float64{1.0})

	samp := &segment.CharSample{
		Box:    segment.Box{Width: 2, Height: 2},
		Pixels: []uint8{0, 0, 0, 0}, // pure ink -> feature[0] = 255
		Context: segment.ContextAttributes{
			FirstChar: true, NormTop: 0, NormBottom: 200, NormAspectRatio: 128,
		},
	}

	alts, ok := c.Classify(samp)
	if !ok {
		t.Fatal("Classify returned false")
	}
	if alts.AltCount() != cs.ClassCount()-1 {
		t.Fatalf("AltCount() = %d, want %d", alts.AltCount(), cs.ClassCount()-1)
	}
	classACost, found := alts.ClassCost(1)
	if !found {
		t.Fatal("expected class 1 ('a') present in alt list")
	}
	classBCost, _ := alts.ClassCost(3)
	if classACost >= classBCost {
		t.Fatalf("expected 'a' (driven positive by ink feature) to cost less than 'b', got %d vs %d", classACost, classBCost)
	}

	charCost := c.CharCost(samp)
	if charCost < 0 {
		t.Fatalf("CharCost() = %d, want non-negative", charCost)
	}
}

func TestLoadWithMissingOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	cs := buildClassifierCharset(t)
	c, err := Load(dir, "eng", cs, NewBmpExtractor(2))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing optional files", err)
	}
	if len(c.nets) != 0 {
		t.Fatalf("expected no nets loaded, got %d", len(c.nets))
	}
}

func TestLoadFoldingSetsFromFile(t *testing.T) {
	dir := t.TempDir()
	cs := buildClassifierCharset(t)
	if err := os.WriteFile(filepath.Join(dir, "eng.cube.fold"), []byte("aA\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir, "eng", cs, NewBmpExtractor(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.foldSets) != 1 {
		t.Fatalf("got %d folding sets, want 1 (the single-char 'b' line should be invalidated)", len(c.foldSets))
	}
	if len(c.foldSets[0]) != 2 {
		t.Fatalf("folding set has %d members, want 2", len(c.foldSets[0]))
	}
}

func TestLoadNetsRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	cs := buildClassifierCharset(t)
	if err := os.WriteFile(filepath.Join(dir, "eng.cube.hybrid"), []byte("onlyonetoken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, "eng", cs, NewBmpExtractor(2)); err == nil {
		t.Fatal("expected error for malformed net list line")
	}
}
