package neuralnet

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeTestNet hand-assembles a tiny 2-input / 1-hidden / 1-output net in
// the on-disk format Load expects: 2 inputs summed into one hidden neuron,
// fed into one output neuron, with unit weights and zero bias throughout,
// and normalization vectors that pass inputs through unchanged.
func writeTestNet(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}

	w(magic)
	w(uint32(0)) // not an autoencoder
	w(uint32(4)) // neuron count: 0,1 inputs; 2 hidden; 3 output
	w(uint32(2)) // input count
	w(uint32(1)) // output count

	// fanout lists
	w(uint32(1))
	w(uint32(2)) // neuron 0 -> neuron 2
	w(uint32(1))
	w(uint32(2)) // neuron 1 -> neuron 2
	w(uint32(1))
	w(uint32(3)) // neuron 2 -> neuron 3
	w(uint32(0)) // neuron 3 -> (none)

	// bias + fan-in weights for neurons 2, 3 (inputs have none)
	w(float32(0)) // neuron 2 bias
	w(float32(1)) // weight from neuron 0
	w(float32(1)) // weight from neuron 1
	w(float32(0)) // neuron 3 bias
	w(float32(1)) // weight from neuron 2

	// mean, stddev, min, max (2 inputs): pass-through normalization
	w(float32(0))
	w(float32(0))
	w(float32(1))
	w(float32(1))
	w(float32(-1e9))
	w(float32(-1e9))
	w(float32(1e9))
	w(float32(1e9))

	path := filepath.Join(t.TempDir(), "test.nn")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndForward(t *testing.T) {
	path := writeTestNet(t)
	net, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if net.InputCount() != 2 || net.OutputCount() != 1 {
		t.Fatalf("InputCount/OutputCount = %d/%d, want 2/1", net.InputCount(), net.OutputCount())
	}
	if net.IsAutoEncoder() {
		t.Fatal("expected IsAutoEncoder() = false")
	}

	out, err := net.Forward([]float32{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("Forward returned %d outputs, want 1", len(out))
	}

	hidden := Sigmoid(2)
	want := Sigmoid(hidden)
	if math.Abs(float64(out[0]-want)) > 1e-3 {
		t.Fatalf("Forward output = %v, want ~%v", out[0], want)
	}
}

func TestForwardRejectsWrongInputWidth(t *testing.T) {
	path := writeTestNet(t)
	net, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := net.Forward([]float32{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched input width")
	}
}

func TestSigmoidMonotonicAndClamped(t *testing.T) {
	if Sigmoid(-100) >= Sigmoid(0) || Sigmoid(0) >= Sigmoid(100) {
		t.Fatal("expected Sigmoid to be monotonically increasing")
	}
	if Sigmoid(-100) < 0 || Sigmoid(100) > 1 {
		t.Fatal("expected Sigmoid outputs within [0, 1]")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.nn")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
