package cube

import (
	"sort"

	"github.com/cube-ocr/cube/internal/bitmap"
	"github.com/cube-ocr/cube/internal/concomp"
	"github.com/cube-ocr/cube/recocontext"
)

// PhraseSplitter slices a full text-line bitmap into phrase sub-images at
// wide inter-component gaps, the coarse word-boundary pass
// cube_line_segmenter.cpp runs (via its connected-component and gap
// analysis) before handing each piece to a CubeObject. Unlike the
// original's full page/line segmenter -- which also locates text lines
// within a page and estimates per-script font parameters -- this only
// covers the one piece a recognizer downstream of line-finding needs: a
// single line's components, grouped into phrases by gap width.
type PhraseSplitter struct {
	ctx *recocontext.RecoContext
	bmp *bitmap.Bmp8

	maxGap int
}

// NewPhraseSplitter prepares a splitter over one line bitmap, deriving its
// gap threshold from the same MaxSpaceHeightRatio tuning knob the
// word-level space-cost model uses as its upper bound on an inter-component
// gap that is still just a character spacing rather than a word break
// (§4.7): any gap at or past it starts a new phrase, everything narrower
// stays in the current one (a cautious default -- an under-split phrase
// still recognizes via phrase mode's own space handling, but an over-split
// one loses cross-word context for good).
func NewPhraseSplitter(ctx *recocontext.RecoContext, bmp *bitmap.Bmp8) *PhraseSplitter {
	params := ctx.Params()
	return &PhraseSplitter{
		ctx:    ctx,
		bmp:    bmp,
		maxGap: int(float64(bmp.Height) * params.MaxSpaceHeightRatio),
	}
}

// Phrase is one split-out sub-image and its bounding box in the original
// line bitmap's coordinates.
type Phrase struct {
	Bmp *bitmap.Bmp8
	Box struct{ Left, Top, Width, Height int }
}

// Split runs connected-component extraction over the line and groups the
// components into phrases, breaking before any component whose gap from
// its predecessor is at least maxGap. Components are read in the
// context's reading order; an empty line yields no phrases.
func (p *PhraseSplitter) Split() []Phrase {
	comps := concomp.FindAll(p.bmp, 0, 0, p.bmp.Width, p.bmp.Height)
	if len(comps) == 0 {
		return nil
	}

	rtl := p.ctx.ReadingOrder() == recocontext.RightToLeft
	if rtl {
		sort.SliceStable(comps, func(i, j int) bool { return comps[i].Right > comps[j].Right })
	} else {
		sort.SliceStable(comps, func(i, j int) bool { return comps[i].Left < comps[j].Left })
	}

	var groups [][]*concomp.ConComp
	cur := []*concomp.ConComp{comps[0]}
	prevLeft, prevRight := comps[0].Left, comps[0].Right
	for _, c := range comps[1:] {
		var gap int
		if rtl {
			gap = prevLeft - c.Right
		} else {
			gap = c.Left - prevRight
		}
		if gap >= p.maxGap {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, c)
		prevLeft, prevRight = c.Left, c.Right
	}
	groups = append(groups, cur)

	phrases := make([]Phrase, 0, len(groups))
	for _, g := range groups {
		left, top, right, bottom := g[0].Left, g[0].Top, g[0].Right, g[0].Bottom
		for _, c := range g[1:] {
			left = min(left, c.Left)
			top = min(top, c.Top)
			right = max(right, c.Right)
			bottom = max(bottom, c.Bottom)
		}
		width, height := right-left+1, bottom-top+1
		out := bitmap.New(width, height)
		for _, c := range g {
			for _, pt := range c.Points {
				out.Set(pt.X-left, pt.Y-top, p.bmp.At(pt.X, pt.Y))
			}
		}
		ph := Phrase{Bmp: out}
		ph.Box.Left, ph.Box.Top, ph.Box.Width, ph.Box.Height = left, top, width, height
		phrases = append(phrases, ph)
	}
	return phrases
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
