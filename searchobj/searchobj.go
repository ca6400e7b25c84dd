// Package searchobj implements CubeSearchObject (§4.7): it turns one
// whole-word bitmap into a reading-order sequence of over-segmented pieces,
// caches the CharSample and recognition result for every segment range the
// beam search asks about, and derives the space/no-space cost model used
// to decide where a candidate word boundary falls.
package searchobj

import (
	"math"
	"sort"

	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/charset"
	"github.com/cube-ocr/cube/classifier"
	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/internal/bitmap"
	"github.com/cube-ocr/cube/internal/concomp"
	"github.com/cube-ocr/cube/segment"
	"github.com/cube-ocr/cube/tuning"
)

// ReadingOrder selects which direction segments read in. Defined here
// rather than in recocontext so recocontext can depend on searchobj
// without a cycle.
type ReadingOrder int

const (
	LeftToRight ReadingOrder = iota
	RightToLeft
)

// Context is the slice of RecoContext that a SearchObject needs: tuning
// knobs, reading order, cursive-script flag, and the classifier/char set
// pair recognition runs against.
type Context interface {
	Params() tuning.Params
	ReadingOrder() ReadingOrder
	Cursive() bool
	Classifier() *classifier.Classifier
	CharacterSet() *charset.CharSet
}

// maxSegmentCount mirrors the original's sanity cap on how many segments a
// single word bitmap may decompose into before it's treated as garbage.
const maxSegmentCount = 128

// SearchObject owns one word bitmap, its over-segmentation, and the
// memoized results of recognizing and costing every segment range the
// search visits.
type SearchObject struct {
	ctx Context
	bmp *bitmap.Bmp8
	rtl bool

	height        int
	minSpaceGap   int
	maxSpaceGap   int
	maxSegPerChar int

	initialized bool
	segments    []*concomp.ConComp

	sampCache map[[2]int]*segment.CharSample
	recoCache map[[2]int]*altlist.CharAltList

	spaceCost   []int
	noSpaceCost []int
}

// New creates a SearchObject over a whole-word raster. Segmentation is
// deferred to the first call that needs it.
func New(ctx Context, bmp *bitmap.Bmp8) *SearchObject {
	params := ctx.Params()
	height := bmp.Height
	return &SearchObject{
		ctx:           ctx,
		bmp:           bmp,
		rtl:           ctx.ReadingOrder() == RightToLeft,
		height:        height,
		minSpaceGap:   int(float64(height) * params.MinSpaceHeightRatio),
		maxSpaceGap:   int(float64(height) * params.MaxSpaceHeightRatio),
		maxSegPerChar: params.MaxSegPerChar,
		sampCache:     make(map[[2]int]*segment.CharSample),
		recoCache:     make(map[[2]int]*altlist.CharAltList),
	}
}

// SegPtCnt returns the segmentation-point count: one less than the number
// of segments, or -1 if segmentation failed.
func (s *SearchObject) SegPtCnt() int {
	if !s.init() {
		return -1
	}
	return len(s.segments) - 1
}

func (s *SearchObject) init() bool {
	if s.initialized {
		return true
	}
	if !s.segmentBitmap() {
		return false
	}
	s.initialized = true
	return true
}

// segmentBitmap flood-fills the whole-word bitmap into connected
// components, further splits each by its windowed density histogram,
// drops slivers too small to be a character fragment, and sorts the
// survivors into reading order.
func (s *SearchObject) segmentBitmap() bool {
	params := s.ctx.Params()
	comps := concomp.FindAll(s.bmp, 0, 0, s.bmp.Width, s.bmp.Height)
	if len(comps) == 0 {
		return false
	}

	maxHistWnd := int(params.HistWindWid)
	if maxHistWnd <= 0 {
		maxHistWnd = s.bmp.Width
	}
	minConCompSize := params.MinConCompSize

	var segs []*concomp.ConComp
	for _, c := range comps {
		if float64(len(c.Points)) <= minConCompSize {
			continue
		}
		pieces := c.Segment(maxHistWnd)
		if pieces == nil {
			pieces = []*concomp.ConComp{c}
		}
		for _, p := range pieces {
			if p.Width() < 2 && p.Height() < 2 {
				continue
			}
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 || len(segs) >= maxSegmentCount {
		return false
	}

	sortSegments(segs, s.rtl)
	s.segments = segs
	return true
}

// sortSegments orders pieces left-to-right (ascending by left+right, a
// center-x proxy) or right-to-left (descending by right edge).
func sortSegments(segs []*concomp.ConComp, rtl bool) {
	if rtl {
		sort.SliceStable(segs, func(i, j int) bool { return segs[i].Right > segs[j].Right })
		return
	}
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Left+segs[i].Right < segs[j].Left+segs[j].Right
	})
}

// isValidSegmentRange checks the same bounds the original's inline
// predicate does: end strictly after start, start allowed to be -1 (the
// "before the first segment" sentinel), and the range no wider than
// max_seg_per_char.
func (s *SearchObject) isValidSegmentRange(startPt, endPt int) bool {
	n := len(s.segments)
	return endPt > startPt && startPt >= -1 && startPt < n &&
		endPt >= 0 && endPt <= n && endPt <= startPt+s.maxSegPerChar
}

// CharSample builds (or returns the cached) CharSample spanning segments
// (startPt, endPt], i.e. the original's 1-based-by-convention [start_pt+1,
// end_pt] inclusive range.
func (s *SearchObject) CharSample(startPt, endPt int) (*segment.CharSample, bool) {
	if !s.init() {
		return nil, false
	}
	if !s.isValidSegmentRange(startPt, endPt) {
		return nil, false
	}

	key := [2]int{startPt, endPt}
	if cached, ok := s.sampCache[key]; ok {
		return cached, true
	}

	segRange := s.segments[startPt+1 : endPt+1]
	samp := segment.Merge(s.bmp.Pixels, s.bmp.Width, toSegments(segRange))
	if samp == nil {
		return nil, false
	}

	leftMost := segRange[0].LeftMost
	rightMost := segRange[len(segRange)-1].RightMost

	if s.ctx.Cursive() {
		firstChar := leftMost
		lastChar := rightMost
		if s.rtl {
			firstChar, lastChar = rightMost, leftMost
		}
		samp.Context.FirstChar = firstChar
		samp.Context.LastChar = lastChar
	} else {
		samp.Context.FirstChar = startPt == -1
		samp.Context.LastChar = endPt == len(s.segments)-1
	}

	charTop := samp.Box.Top
	charWid := samp.Box.Width
	charHgt := samp.Box.Height
	samp.Context.NormTop = uint8(255 * charTop / s.height)
	samp.Context.NormBottom = uint8(255 * (charTop + charHgt) / s.height)
	samp.Context.NormAspectRatio = uint8(255 * charWid / (charWid + charHgt))

	s.sampCache[key] = samp
	return samp, true
}

// toSegments converts a contiguous run of over-segmented ConComp pieces
// into segment.Segment values suitable for segment.Merge.
func toSegments(comps []*concomp.ConComp) []segment.Segment {
	segs := make([]segment.Segment, len(comps))
	for i, c := range comps {
		pts := make([]segment.Point, len(c.Points))
		for j, p := range c.Points {
			pts[j] = segment.Point{X: p.X, Y: p.Y}
		}
		segs[i] = segment.Segment{
			Box:    segment.Box{Left: c.Left, Top: c.Top, Width: c.Width(), Height: c.Height()},
			Pixels: pts,
		}
	}
	return segs
}

// CharBox returns the bounding box of the CharSample for (startPt, endPt].
func (s *SearchObject) CharBox(startPt, endPt int) (segment.Box, bool) {
	samp, ok := s.CharSample(startPt, endPt)
	if !ok {
		return segment.Box{}, false
	}
	return samp.Box, true
}

// RecognizeSegment classifies the CharSample for (startPt, endPt], or, if
// the context carries no classifier, invents a probability distribution
// that favors two-segment characters and narrow aspect ratios -- the same
// fallback the original uses so the search still has costs to rank
// against when no language data is loaded.
func (s *SearchObject) RecognizeSegment(startPt, endPt int) (*altlist.CharAltList, bool) {
	if !s.init() {
		return nil, false
	}
	if !s.isValidSegmentRange(startPt, endPt) {
		return nil, false
	}

	key := [2]int{startPt, endPt}
	if cached, ok := s.recoCache[key]; ok {
		return cached, true
	}

	samp, ok := s.CharSample(startPt, endPt)
	if !ok {
		return nil, false
	}

	var alt *altlist.CharAltList
	if cls := s.ctx.Classifier(); cls != nil {
		var classifyOK bool
		alt, classifyOK = cls.Classify(samp)
		if !classifyOK {
			return nil, false
		}
	} else {
		classCount := s.ctx.CharacterSet().ClassCount()
		alt = altlist.NewCharAltList(classCount)
		segCount := endPt - startPt
		probVal := (1.0 / float64(classCount)) *
			math.Exp(-math.Abs(float64(segCount)-2.0)) *
			math.Exp(-samp.AspectRatio())
		for classIdx := 0; classIdx < classCount; classIdx++ {
			alt.Insert(classIdx, cost.Prob2Cost(probVal), 0)
		}
	}

	s.recoCache[key] = alt
	return alt, true
}

// computeSpaceCosts derives, for every segmentation point, the cost of a
// space and the cost of no space from the horizontal gap between the
// segments on either side, modeling the space probability as linear in
// the gap width between min/max space-height-ratio bounds.
func (s *SearchObject) computeSpaceCosts() bool {
	if !s.init() {
		return false
	}
	if s.spaceCost != nil {
		return true
	}

	n := len(s.segments)
	if n < 2 {
		return false
	}

	minRightX := make([]int, n-1)
	maxLeftX := make([]int, n-1)
	if s.rtl {
		minRightX[0] = s.segments[0].Left
		maxLeftX[n-2] = s.segments[n-1].Right
		for ptIdx := 1; ptIdx < n-1; ptIdx++ {
			minRightX[ptIdx] = min(minRightX[ptIdx-1], s.segments[ptIdx].Left)
			maxLeftX[n-ptIdx-2] = max(maxLeftX[n-ptIdx-1], s.segments[n-ptIdx-1].Right)
		}
	} else {
		minRightX[n-2] = s.segments[n-1].Left
		maxLeftX[0] = s.segments[0].Right
		for ptIdx := 1; ptIdx < n-1; ptIdx++ {
			minRightX[n-ptIdx-2] = min(minRightX[n-ptIdx-1], s.segments[n-ptIdx-1].Left)
			maxLeftX[ptIdx] = max(maxLeftX[ptIdx-1], s.segments[ptIdx].Right)
		}
	}

	spaceCost := make([]int, n-1)
	noSpaceCost := make([]int, n-1)
	for ptIdx := 0; ptIdx < n-1; ptIdx++ {
		gap := minRightX[ptIdx] - maxLeftX[ptIdx]
		var prob float64
		switch {
		case gap < s.minSpaceGap:
			prob = 0.0
		case gap > s.maxSpaceGap:
			prob = 1.0
		default:
			prob = float64(gap-s.minSpaceGap) / float64(s.maxSpaceGap-s.minSpaceGap)
		}
		spaceCost[ptIdx] = cost.Prob2Cost(prob) + cost.Prob2Cost(0.1)
		noSpaceCost[ptIdx] = cost.Prob2Cost(1.0 - prob)
	}

	s.spaceCost = spaceCost
	s.noSpaceCost = noSpaceCost
	return true
}

// SpaceCost returns the cost of a space falling before segmentation point
// ptIdx, falling back to Prob2Cost(0) if costs couldn't be computed --
// matching the original's fallback exactly, inconsistent as it looks next
// to NoSpaceCostRange's fallback.
func (s *SearchObject) SpaceCost(ptIdx int) int {
	if s.spaceCost == nil && !s.computeSpaceCosts() {
		return cost.Prob2Cost(0.0)
	}
	return s.spaceCost[ptIdx]
}

// NoSpaceCost returns the cost of no space falling before segmentation
// point ptIdx.
func (s *SearchObject) NoSpaceCost(ptIdx int) int {
	if s.spaceCost == nil && !s.computeSpaceCosts() {
		return cost.Prob2Cost(0.0)
	}
	return s.noSpaceCost[ptIdx]
}

// NoSpaceCostRange sums NoSpaceCost over every segmentation point strictly
// between startPt and endPt -- the cost of the whole range containing no
// space. Named distinctly from NoSpaceCost since Go has no overloading;
// the original exposes both under one name.
func (s *SearchObject) NoSpaceCostRange(startPt, endPt int) int {
	if s.spaceCost == nil && !s.computeSpaceCosts() {
		return cost.Prob2Cost(1.0)
	}
	total := 0
	for ptIdx := startPt + 1; ptIdx < endPt; ptIdx++ {
		total += s.NoSpaceCost(ptIdx)
	}
	return total
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
