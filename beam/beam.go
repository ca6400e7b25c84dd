// Package beam implements the beam search (§4.9): column-by-column lattice
// construction over a search object's segmentation points, fanning every
// live node out through the language model, merging and pruning each
// column to the configured beam width, then scoring every node reaching
// the final column by combining recognition, size, char-bigram, and
// word-unigram costs into one ranked WordAltList.
package beam

import (
	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/bigrams"
	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/langmodel"
	"github.com/cube-ocr/cube/lattice"
	"github.com/cube-ocr/cube/segment"
	"github.com/cube-ocr/cube/sizemodel"
	"github.com/cube-ocr/cube/tuning"
	"github.com/cube-ocr/cube/unigrams"
)

// maxSegPointCnt bounds how many segmentation points a single search will
// accept before bailing out as suspiciously over-segmented.
const maxSegPointCnt = 128

// SearchObject is the subset of searchobj.SearchObject the beam search
// needs: segmentation point count, per-range recognition and sampling, and
// the space/no-space cost model.
type SearchObject interface {
	SegPtCnt() int
	RecognizeSegment(startPt, endPt int) (*altlist.CharAltList, bool)
	CharBox(startPt, endPt int) (segment.Box, bool)
	SpaceCost(ptIdx int) int
	NoSpaceCost(ptIdx int) int
	NoSpaceCostRange(startPt, endPt int) int
}

// Context supplies the language model and the three optional weighting
// models (size, char-bigram, word-unigram) a word-alt-list score combines,
// plus the two mode flags that change how end-of-word edges are handled.
type Context interface {
	Params() tuning.Params
	LangModel() langmodel.Model
	SizeModel() *sizemodel.SizeModel
	Bigrams() *bigrams.CharBigrams
	WordUnigrams() *unigrams.WordUnigrams
	// PhraseMode, when true, lets the search restart the language model at
	// a space following an end-of-word edge, so a run of space-separated
	// words parses as one phrase instead of stopping at the first word.
	PhraseMode() bool
	// NoisyInput lets a path in the final column end on an edge that is
	// not an end-of-word edge; without it, only end-of-word edges are
	// accepted there.
	NoisyInput() bool
	// Contextual reports whether a character's size code should fold in
	// its start/end-of-word position, as the size model needs for scripts
	// whose glyph shapes vary with position (e.g. Arabic).
	Contextual() bool
}

// Search drives one beam search over a search object.
type Search struct {
	ctx Context
	so  SearchObject

	columns     []*lattice.Column
	root        *lattice.Node
	bestNodeIdx int
}

// New creates a beam search over so in the language-model/cost context ctx.
func New(ctx Context, so SearchObject) *Search {
	return &Search{ctx: ctx, so: so, bestNodeIdx: -1}
}

// ColCnt returns the number of columns built by the last Run call.
func (s *Search) ColCnt() int { return len(s.columns) }

// Column returns the idx'th column, or nil if out of range.
func (s *Search) Column(idx int) *lattice.Column {
	if idx < 0 || idx >= len(s.columns) {
		return nil
	}
	return s.columns[idx]
}

// Run performs the beam search and returns the resulting word-alternate
// list, sorted ascending by total cost.
func (s *Search) Run() (*altlist.WordAltList, error) {
	segPtCnt := s.so.SegPtCnt()
	if segPtCnt < 0 || segPtCnt > maxSegPointCnt {
		return nil, cuberr.ErrSegmentationUnusable
	}
	colCnt := segPtCnt + 1

	params := s.ctx.Params()
	lm := s.ctx.LangModel()
	rootEdge, _ := lm.Root()
	s.root = lattice.NewNode(nil, 0, rootEdge, -1)
	phraseMode := s.ctx.PhraseMode()

	s.columns = make([]*lattice.Column, colCnt)
	for endSeg := 0; endSeg < colCnt; endSeg++ {
		col := lattice.NewColumn(params.BeamWidth)
		s.columns[endSeg] = col
		isFinal := endSeg >= segPtCnt

		minStart := endSeg - params.MaxSegPerChar
		if minStart < -1 {
			minStart = -1
		}
		for startSeg := minStart; startSeg < endSeg; startSeg++ {
			parents := s.parentsAt(startSeg)
			if len(parents) == 0 {
				continue
			}
			alt, ok := s.so.RecognizeSegment(startSeg, endSeg)
			if !ok {
				continue
			}
			contig := s.so.NoSpaceCostRange(startSeg, endSeg)

			for _, parent := range parents {
				parentEdge := parent.LangModelEdge()

				noSpace := 0
				if phraseMode && startSeg >= 0 {
					noSpace = s.so.NoSpaceCost(startSeg)
				}
				if extra := contig + noSpace; extra < cost.MinProbCost {
					s.createChildren(col, parent, parentEdge, alt, endSeg, isFinal, extra)
				}

				// In phrase mode, a parent that just closed a word may
				// also restart the language model at its root, with the
				// gap between the two words charged as a space instead of
				// a no-space run.
				if phraseMode && startSeg >= 0 && parentEdge != nil && parentEdge.IsEOW() {
					spaceCost := s.so.SpaceCost(startSeg)
					if extra := contig + spaceCost; extra < cost.MinProbCost {
						s.createChildren(col, parent, nil, alt, endSeg, isFinal, extra)
					}
				}
			}
		}
		col.Prune()
	}

	return s.createWordAltList()
}

// parentsAt returns the live nodes a child at column startSeg can extend:
// the search root when startSeg is -1, or the previous column's surviving
// nodes otherwise.
func (s *Search) parentsAt(startSeg int) []*lattice.Node {
	if startSeg == -1 {
		return []*lattice.Node{s.root}
	}
	col := s.columns[startSeg]
	if col == nil {
		return nil
	}
	return col.Nodes()
}

// createChildren fans parentEdge (or the language model's root, when nil)
// out restricted to alt's classes, charging each child extraCost on top of
// its classification cost. An edge reaching the lattice's final column
// must be a valid end-of-word unless the context allows noisy input.
func (s *Search) createChildren(col *lattice.Column, parent *lattice.Node, parentEdge langmodel.Edge, alt *altlist.CharAltList, endSeg int, isFinal bool, extraCost int) {
	lm := s.ctx.LangModel()
	if parentEdge == nil {
		parentEdge, _ = lm.Root()
	}

	for _, edge := range lm.Edges(parentEdge, alt) {
		if isFinal && !s.ctx.NoisyInput() && !edge.IsEOW() {
			continue
		}

		recoCost := cost.MinProbCost
		if alt != nil && alt.AltCount() > 0 {
			if c, ok := alt.ClassCost(edge.ClassID()); ok {
				if c < 0 {
					c = 0
				}
				recoCost = c + extraCost
			}
		}

		col.AddNode(parent, recoCost, edge, endSeg)
	}
}

// backTrack walks from n to the search root, reconstructing the UTF-32
// string, per-character bounding boxes, and per-character class ids the
// path represents. In phrase mode, the boundary between two words carries
// no separate character or box of its own -- the cost of the gap is folded
// into the next word's first character instead -- so backtracking never
// needs to special-case a word-restart step.
func (s *Search) backTrack(n *lattice.Node) ([]rune, []segment.Box, []int, bool) {
	type step struct {
		r       rune
		box     segment.Box
		classID int
	}
	var steps []step

	for cur := n; cur != nil && cur.ParentNode() != nil; cur = cur.ParentNode() {
		edge := cur.LangModelEdge()
		if edge == nil {
			return nil, nil, nil, false
		}
		es := edge.EdgeString()
		if len(es) == 0 {
			continue
		}
		box, ok := s.so.CharBox(cur.ParentNode().ColIdx(), cur.ColIdx())
		if !ok {
			return nil, nil, nil, false
		}
		steps = append(steps, step{r: es[0], box: box, classID: edge.ClassID()})
	}

	str32 := make([]rune, 0, len(steps))
	boxes := make([]segment.Box, 0, len(steps))
	classIDs := make([]int, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		str32 = append(str32, steps[i].r)
		boxes = append(boxes, steps[i].box)
		classIDs = append(classIDs, steps[i].classID)
	}
	return str32, boxes, classIDs, true
}

// createWordAltList scores every node in the final column and returns the
// resulting alternates, cheapest first. Non-noisy construction already
// restricted the final column to valid end-of-word edges; in noisy mode,
// every surviving node is scored regardless.
func (s *Search) createWordAltList() (*altlist.WordAltList, error) {
	if len(s.columns) == 0 {
		return nil, cuberr.ErrLatticeExhausted
	}
	lastCol := s.columns[len(s.columns)-1]
	if lastCol == nil || lastCol.NodeCount() == 0 {
		return nil, cuberr.ErrLatticeExhausted
	}

	params := s.ctx.Params()
	wordAlt := altlist.NewWordAltList(0)

	bestCost := -1
	s.bestNodeIdx = -1

	contextual := s.ctx.Contextual()
	for i, n := range lastCol.Nodes() {
		str32, boxes, classIDs, ok := s.backTrack(n)
		if !ok || len(str32) == 0 {
			continue
		}

		total := params.RecoWgt * float64(n.BestCost())
		if sm := s.ctx.SizeModel(); sm != nil {
			total += params.SizeWgt * float64(sm.Cost(toSamples(boxes, classIDs, contextual)))
		}
		if bg := s.ctx.Bigrams(); bg != nil {
			total += params.CharBigramsWgt * float64(bg.Cost(str32))
		}
		if wu := s.ctx.WordUnigrams(); wu != nil {
			total += params.WordUnigramsWgt * float64(wu.Cost(str32))
		}

		combined := int(total)
		wordAlt.Insert(str32, combined, n)
		if bestCost < 0 || combined < bestCost {
			bestCost = combined
			s.bestNodeIdx = i
		}
	}

	if wordAlt.AltCount() == 0 {
		return nil, cuberr.ErrWorstCostOnly
	}
	wordAlt.Sort()
	return wordAlt, nil
}

// toSamples pairs each box with its class id's size code, so the size
// model's per-font table (keyed by a pair of size codes) can actually find
// a match instead of always looking up code 0. Non-contextual scripts key
// purely by class id; contextual ones (per ctx.Contextual) fold in
// whether the character opens or closes the word, matching
// sizemodel.SizeCode's cls_id/start/end composition.
func toSamples(boxes []segment.Box, classIDs []int, contextual bool) []sizemodel.Sample {
	samples := make([]sizemodel.Sample, len(boxes))
	last := len(boxes) - 1
	for i, b := range boxes {
		code := classIDs[i]
		if contextual {
			code = sizemodel.SizeCode(classIDs[i], i == 0, i == last)
		}
		samples[i] = sizemodel.Sample{Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height, SizeCode: code}
	}
	return samples
}

// BestNode returns the node, in the final column's pre-word-alt-list-sort
// order, that produced the lowest combined cost in the last Run call.
func (s *Search) BestNode() *lattice.Node {
	if len(s.columns) == 0 || s.bestNodeIdx < 0 {
		return nil
	}
	lastCol := s.columns[len(s.columns)-1]
	nodes := lastCol.Nodes()
	if s.bestNodeIdx >= len(nodes) {
		return nil
	}
	return nodes[s.bestNodeIdx]
}

// BestPresortedNodeIndex returns BestNode's index into the final column's
// pre-word-alt-list-sort node order, or -1 if Run has not produced a best
// node. Visualization tooling used this to highlight the winning path in
// the lattice before CreateWordAltList's own sort reordered it; kept here
// as the same cheap bookkeeping, already computed during Run, even though
// the visualizer itself is out of scope.
func (s *Search) BestPresortedNodeIndex() int {
	return s.bestNodeIdx
}

// SizeCost backtracks n and returns its size-model cost alone: 0 when no
// size model is configured, cost.WorstCost if n can't be backtracked.
func (s *Search) SizeCost(n *lattice.Node) int {
	sm := s.ctx.SizeModel()
	if sm == nil {
		return 0
	}
	_, boxes, classIDs, ok := s.backTrack(n)
	if !ok {
		return cost.WorstCost
	}
	return sm.Cost(toSamples(boxes, classIDs, s.ctx.Contextual()))
}
