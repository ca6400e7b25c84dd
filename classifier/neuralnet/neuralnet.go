// Package neuralnet implements the minimal feed-forward neural net runtime
// the classifier implementations consume (§4.13): a flat array of neurons,
// each a fixed-fanin record of a bias and fan-in weights, pulled forward in
// a single pass, with activation computed from a tabulated sigmoid.
package neuralnet

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cube-ocr/cube/cuberr"
)

const magic = uint32(0x4e455431) // "NET1"

// sigmoid table: domain [-10, 10], step 0.01, matching §4.13.
const (
	sigmoidMin  = -10.0
	sigmoidMax  = 10.0
	sigmoidStep = 0.01
)

var sigmoidTable []float32

func init() {
	n := int((sigmoidMax-sigmoidMin)/sigmoidStep) + 1
	sigmoidTable = make([]float32, n)
	for i := range sigmoidTable {
		x := sigmoidMin + float64(i)*sigmoidStep
		sigmoidTable[i] = float32(1.0 / (1.0 + math.Exp(-x)))
	}
}

// Sigmoid evaluates the tabulated sigmoid, clamping to the table's domain
// and linearly interpolating between the two nearest entries.
func Sigmoid(x float32) float32 {
	if x <= sigmoidMin {
		return sigmoidTable[0]
	}
	if x >= sigmoidMax {
		return sigmoidTable[len(sigmoidTable)-1]
	}
	pos := (float64(x) - sigmoidMin) / sigmoidStep
	lo := int(pos)
	if lo >= len(sigmoidTable)-1 {
		return sigmoidTable[len(sigmoidTable)-1]
	}
	frac := float32(pos - float64(lo))
	return sigmoidTable[lo]*(1-frac) + sigmoidTable[lo+1]*frac
}

type neuron struct {
	bias    float32
	fanIn   []int32
	weights []float32
}

// Network is a loaded, optimized feed-forward net: every non-input neuron
// already carries its fixed fan-in list and weights, so Forward is a single
// pull-based pass with no further graph walking.
type Network struct {
	isAutoEncoder bool
	inputCount    int
	outputCount   int
	neurons       []neuron // index < inputCount are input neurons (no bias/fanin)

	mean, stddev, min, max []float32
}

// IsAutoEncoder reports whether this net was trained as an autoencoder
// (outputs mirror inputs rather than class scores).
func (n *Network) IsAutoEncoder() bool { return n.isAutoEncoder }

// InputCount and OutputCount report the net's input/output vector widths.
func (n *Network) InputCount() int  { return n.inputCount }
func (n *Network) OutputCount() int { return n.outputCount }

// Load reads a compiled net file: a signature word, an autoencoder flag,
// neuron/input/output counts, each neuron's fan-out list (inverted into
// fan-in lists here), each non-input neuron's bias and fan-in weights, and
// finally four input-normalization vectors (mean, stddev, min, max).
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	readU32 := func() (uint32, error) {
		var v uint32
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	}
	readF32 := func() (float32, error) {
		var v float32
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	}

	sig, err := readU32()
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading signature: "+err.Error())
	}
	if sig != magic {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": bad signature")
	}
	autoEnc, err := readU32()
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading autoencoder flag: "+err.Error())
	}
	neuronCount, err := readU32()
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading neuron count: "+err.Error())
	}
	inputCount, err := readU32()
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading input count: "+err.Error())
	}
	outputCount, err := readU32()
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading output count: "+err.Error())
	}
	if int(neuronCount) < int(inputCount)+int(outputCount) {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": neuron count smaller than input+output counts")
	}

	fanOut := make([][]int32, neuronCount)
	for i := uint32(0); i < neuronCount; i++ {
		cnt, err := readU32()
		if err != nil {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: neuron %d fanout count: %v", path, i, err))
		}
		targets := make([]int32, cnt)
		for j := range targets {
			v, err := readU32()
			if err != nil {
				return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: neuron %d fanout target %d: %v", path, i, j, err))
			}
			targets[j] = int32(v)
		}
		fanOut[i] = targets
	}

	fanIn := make([][]int32, neuronCount)
	for from, targets := range fanOut {
		for _, to := range targets {
			fanIn[to] = append(fanIn[to], int32(from))
		}
	}

	neurons := make([]neuron, neuronCount)
	for i := uint32(inputCount); i < neuronCount; i++ {
		bias, err := readF32()
		if err != nil {
			return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: neuron %d bias: %v", path, i, err))
		}
		weights := make([]float32, len(fanIn[i]))
		for j := range weights {
			w, err := readF32()
			if err != nil {
				return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: neuron %d weight %d: %v", path, i, j, err))
			}
			weights[j] = w
		}
		neurons[i] = neuron{bias: bias, fanIn: fanIn[i], weights: weights}
	}

	readVec := func(n uint32) ([]float32, error) {
		vec := make([]float32, n)
		for i := range vec {
			v, err := readF32()
			if err != nil {
				return nil, err
			}
			vec[i] = v
		}
		return vec, nil
	}
	mean, err := readVec(inputCount)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading mean vector: "+err.Error())
	}
	stddev, err := readVec(inputCount)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading stddev vector: "+err.Error())
	}
	minV, err := readVec(inputCount)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading min vector: "+err.Error())
	}
	maxV, err := readVec(inputCount)
	if err != nil && err != io.EOF {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": reading max vector: "+err.Error())
	}

	return &Network{
		isAutoEncoder: autoEnc != 0,
		inputCount:    int(inputCount),
		outputCount:   int(outputCount),
		neurons:       neurons,
		mean:          mean,
		stddev:        stddev,
		min:           minV,
		max:           maxV,
	}, nil
}

// Forward normalizes inputs against the loaded statistics, feeds them
// through the net in a single pull-based pass (each neuron's fan-in
// indices are guaranteed lower than its own, a feed-forward topology
// invariant the compiler enforces at training time), and returns the
// output layer's raw sigmoid activations.
func (n *Network) Forward(inputs []float32) ([]float32, error) {
	if len(inputs) != n.inputCount {
		return nil, fmt.Errorf("neuralnet: expected %d inputs, got %d", n.inputCount, len(inputs))
	}
	outputs := make([]float32, len(n.neurons))
	for i := 0; i < n.inputCount; i++ {
		v := inputs[i]
		if n.stddev != nil && n.stddev[i] != 0 {
			v = (v - n.mean[i]) / n.stddev[i]
		}
		if n.min != nil && v < n.min[i] {
			v = n.min[i]
		}
		if n.max != nil && v > n.max[i] {
			v = n.max[i]
		}
		outputs[i] = v
	}
	for i := n.inputCount; i < len(n.neurons); i++ {
		nr := n.neurons[i]
		activation := nr.bias
		for k, from := range nr.fanIn {
			activation += nr.weights[k] * outputs[from]
		}
		outputs[i] = Sigmoid(activation)
	}
	return outputs[len(outputs)-n.outputCount:], nil
}
