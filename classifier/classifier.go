// Package classifier implements CharClassifier (§4.5): a feature extractor
// feeding one or more feed-forward neural nets, whose weighted outputs are
// folded (case-insensitive merging, then confusable-set raising) into a
// per-class cost distribution.
package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode"

	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/charset"
	"github.com/cube-ocr/cube/classifier/neuralnet"
	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/internal/config"
	"github.com/cube-ocr/cube/segment"
)

// foldRatio is the fraction of a folding set's max activation every member
// is raised to at minimum, grounded on HybridNeuralNetCharClassifier::Fold.
const foldRatio = 0.75

// Classifier is a neural-net-backed CharClassifier: it may run several
// nets over disjoint slices of one feature vector (the hybrid extractor's
// bmp and Chebyshev halves, for instance) and sum their weighted outputs.
type Classifier struct {
	charSet       *charset.CharSet
	extractor     Extractor
	nets          []*neuralnet.Network
	netWeights    []float64
	foldSets      [][]int
	caseSensitive bool

	input  []float32
	output []float32
}

// New constructs a Classifier with no nets loaded (useful for training
// harnesses or tests that inject nets directly via SetNets).
func New(cs *charset.CharSet, extractor Extractor) *Classifier {
	return &Classifier{charSet: cs, extractor: extractor, caseSensitive: true}
}

// SetCaseSensitive toggles case folding in Fold.
func (c *Classifier) SetCaseSensitive(sensitive bool) { c.caseSensitive = sensitive }

// CaseSensitive reports whether case folding in Fold is currently disabled.
func (c *Classifier) CaseSensitive() bool { return c.caseSensitive }

// SetNets installs nets directly, bypassing file loading -- used by tests.
func (c *Classifier) SetNets(nets []*neuralnet.Network, weights []float64) {
	c.nets = nets
	c.netWeights = weights
}

// Load reads <dataPath>/<lang>.cube.hybrid (a list of "netfile weight"
// lines) and <dataPath>/<lang>.cube.fold (one confusable-class string per
// line), both optional: a missing file is not an error, only a malformed
// one is. Grounded on HybridNeuralNetCharClassifier::LoadNets and
// ::LoadFoldingSets.
func Load(dataPath, lang string, cs *charset.CharSet, extractor Extractor) (*Classifier, error) {
	c := New(cs, extractor)
	if err := c.loadNets(dataPath, lang); err != nil {
		return nil, err
	}
	if err := c.loadFoldingSets(dataPath, lang); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classifier) loadNets(dataPath, lang string) error {
	path := filepath.Join(dataPath, lang+".cube.hybrid")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}

	lines, err := splitNonEmptyLines(string(data))
	if err != nil {
		return cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}
	if len(lines) == 0 {
		return cuberr.Wrap(cuberr.ErrLoadMalformed, path+": empty net list")
	}

	nets := make([]*neuralnet.Network, len(lines))
	weights := make([]float64, len(lines))
	totalInput := 0
	for i, line := range lines {
		tokens := config.SplitFields(line)
		if len(tokens) != 2 {
			return cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: line %d: expected \"netfile weight\"", path, i+1))
		}
		net, err := neuralnet.Load(filepath.Join(dataPath, tokens[0]))
		if err != nil {
			return err
		}
		weight, err := strconv.ParseFloat(tokens[1], 64)
		if err != nil || weight < 0 {
			return cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: line %d: bad weight %q", path, i+1, tokens[1]))
		}
		nets[i] = net
		weights[i] = weight
		totalInput += net.InputCount()
	}
	if totalInput != c.extractor.FeatureCount() {
		return cuberr.Wrap(cuberr.ErrLoadMalformed, fmt.Sprintf("%s: nets expect %d total inputs, feature extractor produces %d", path, totalInput, c.extractor.FeatureCount()))
	}
	c.nets = nets
	c.netWeights = weights
	return nil
}

func (c *Classifier) loadFoldingSets(dataPath, lang string) error {
	path := filepath.Join(dataPath, lang+".cube.fold")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}

	lines, err := splitNonEmptyLines(string(data))
	if err != nil {
		return cuberr.Wrap(cuberr.ErrLoadMalformed, path+": "+err.Error())
	}

	var sets [][]int
	for _, line := range lines {
		runes := []rune(line)
		var classIDs []int
		for _, r := range runes {
			if id, ok := c.charSet.ClassID([]rune{r}); ok {
				classIDs = append(classIDs, id)
			}
		}
		if len(classIDs) <= 1 {
			// Matches the original's behavior of invalidating (rather than
			// rejecting the file for) a folding set with too few valid
			// members after removing unrecognized characters.
			continue
		}
		sets = append(sets, classIDs)
	}
	c.foldSets = sets
	return nil
}

func splitNonEmptyLines(text string) ([]string, error) {
	var lines []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' || text[i] == '\r' {
			if i > start {
				line := text[start:i]
				if len(line) > 0 {
					lines = append(lines, line)
				}
			}
			start = i + 1
		}
	}
	return lines, nil
}

// runNets computes the feature vector, feeds each net its slice of it
// (nets partition the feature vector in declared order), sums the
// weighted outputs into c.output, and applies folding.
func (c *Classifier) runNets(samp *segment.CharSample) bool {
	features, ok := c.extractor.ComputeFeatures(samp)
	if !ok {
		return false
	}
	c.input = features

	classCnt := c.charSet.ClassCount()
	if c.output == nil || len(c.output) != classCnt {
		c.output = make([]float32, classCnt)
	}
	for i := range c.output {
		c.output[i] = 0
	}

	offset := 0
	for netIdx, net := range c.nets {
		width := net.InputCount()
		if offset+width > len(features) {
			return false
		}
		out, err := net.Forward(features[offset : offset+width])
		if err != nil {
			return false
		}
		weight := float32(c.netWeights[netIdx])
		for classIdx := 0; classIdx < classCnt && classIdx < len(out); classIdx++ {
			c.output[classIdx] += out[classIdx] * weight
		}
		offset += width
	}

	c.fold()
	return true
}

// fold applies case-insensitive activation merging followed by
// folding-set raising, in that order, grounded on
// HybridNeuralNetCharClassifier::Fold.
func (c *Classifier) fold() {
	if !c.caseSensitive {
		classCnt := c.charSet.ClassCount()
		for classID := 0; classID < classCnt; classID++ {
			str, err := c.charSet.String(classID)
			if err != nil {
				continue
			}
			upper := make([]rune, len(str))
			changed := false
			for i, r := range str {
				if unicode.IsLetter(r) {
					u := unicode.ToUpper(r)
					if u != r {
						changed = true
					}
					upper[i] = u
				} else {
					upper[i] = r
				}
			}
			if !changed {
				continue
			}
			upperID, ok := c.charSet.ClassID(upper)
			if !ok || upperID == classID {
				continue
			}
			maxOut := c.output[classID]
			if c.output[upperID] > maxOut {
				maxOut = c.output[upperID]
			}
			c.output[classID] = maxOut
			c.output[upperID] = maxOut
		}
	}

	for _, set := range c.foldSets {
		maxProb := c.output[set[0]]
		for _, classID := range set[1:] {
			if c.output[classID] > maxProb {
				maxProb = c.output[classID]
			}
		}
		floor := maxProb * foldRatio
		for _, classID := range set {
			if c.output[classID] < floor {
				c.output[classID] = floor
			}
		}
	}
}

// Classify returns a ranked alternates list over every non-null class,
// or false if feature computation failed (e.g. a degenerate sample).
// Grounded on HybridNeuralNetCharClassifier::Classify.
func (c *Classifier) Classify(samp *segment.CharSample) (*altlist.CharAltList, bool) {
	if !c.runNets(samp) {
		return nil, false
	}
	classCnt := c.charSet.ClassCount()
	alts := altlist.NewCharAltList(classCnt)
	for classID := 1; classID < classCnt; classID++ {
		alts.Insert(classID, cost.Prob2Cost(float64(c.output[classID])), 0)
	}
	alts.Sort()
	return alts, true
}

// CharCost scores "this sample is a genuine single character", independent
// of class, as the cost of the complement of class 0's (the null/space
// class's) activation. Classification failure costs 0 by design, matching
// the original's comment that char_cost is only meaningful once nets are
// present.
func (c *Classifier) CharCost(samp *segment.CharSample) int {
	if !c.runNets(samp) {
		return 0
	}
	return cost.Prob2Cost(1.0 - float64(c.output[0]))
}
