// Package concomp implements connected-component extraction and the
// windowed-pixel-density segmentation the word segmenter layers on top of a
// bitmap.Bmp8 (§4.7). A ConComp is a flood-filled blob of foreground pixels;
// Segment further splits one blob at local minima of its smoothed vertical
// density histogram, the same over-segmentation step that feeds the beam
// search its segment-point choices.
package concomp

import "github.com/cube-ocr/cube/internal/bitmap"

// Default window ratios used to derive the histogram smoothing window and
// the minimum spacing between segmentation points from a component's
// height, expressed as a fraction of height. The upstream constant file
// these were tuned in was not available; these defaults reproduce the
// documented "window grows with component height, capped" behavior.
const (
	DefaultHistWindowRatio = 0.25
	DefaultSegPointRatio   = 0.1
)

// Point is one foreground pixel's coordinates in the source bitmap.
type Point struct {
	X, Y int
}

// ConComp is a connected blob of foreground pixels with its bounding box.
type ConComp struct {
	ID            int
	LeftMost      bool
	RightMost     bool
	Left, Top     int
	Right, Bottom int
	Points        []Point
}

func (c *ConComp) Width() int  { return c.Right - c.Left + 1 }
func (c *ConComp) Height() int { return c.Bottom - c.Top + 1 }

func newConComp(id int) *ConComp {
	return &ConComp{ID: id}
}

func (c *ConComp) add(x, y int) {
	if len(c.Points) == 0 {
		c.Left, c.Right = x, x
		c.Top, c.Bottom = y, y
	} else {
		if x < c.Left {
			c.Left = x
		}
		if x > c.Right {
			c.Right = x
		}
		if y < c.Top {
			c.Top = y
		}
		if y > c.Bottom {
			c.Bottom = y
		}
	}
	c.Points = append(c.Points, Point{X: x, Y: y})
}

// Merge appends other's points into c in-place, extending c's bounding box.
func (c *ConComp) Merge(other *ConComp) {
	if len(other.Points) == 0 {
		return
	}
	c.Points = append(c.Points, other.Points...)
	c.Left = min(c.Left, other.Left)
	c.Top = min(c.Top, other.Top)
	c.Right = max(c.Right, other.Right)
	c.Bottom = max(c.Bottom, other.Bottom)
	other.Points = nil
}

// Shift translates every point (and the bounding box) by (dx, dy).
func (c *ConComp) Shift(dx, dy int) {
	for i := range c.Points {
		c.Points[i].X += dx
		c.Points[i].Y += dy
	}
	c.Left += dx
	c.Right += dx
	c.Top += dy
	c.Bottom += dy
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

// FindAll flood-fills every 4-connected foreground blob in the bitmap's
// window [left, left+width) x [top, top+height) and returns one ConComp per
// blob, left-to-right reading order, each with consecutive IDs starting at
// 0. Coordinates in the returned components are relative to the bitmap's
// own origin, not the window.
func FindAll(bmp *bitmap.Bmp8, left, top, width, height int) []*ConComp {
	visited := make([]bool, width*height)
	idx := func(x, y int) int { return (y-top)*width + (x - left) }

	var comps []*ConComp
	id := 0
	for y := top; y < top+height; y++ {
		for x := left; x < left+width; x++ {
			if visited[idx(x, y)] || !bmp.IsForeground(x, y) {
				continue
			}
			comp := newConComp(id)
			id++
			stack := []Point{{X: x, Y: y}}
			visited[idx(x, y)] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp.add(p.X, p.Y)
				neighbors := [4]Point{
					{X: p.X - 1, Y: p.Y}, {X: p.X + 1, Y: p.Y},
					{X: p.X, Y: p.Y - 1}, {X: p.X, Y: p.Y + 1},
				}
				for _, n := range neighbors {
					if n.X < left || n.X >= left+width || n.Y < top || n.Y >= top+height {
						continue
					}
					if visited[idx(n.X, n.Y)] || !bmp.IsForeground(n.X, n.Y) {
						continue
					}
					visited[idx(n.X, n.Y)] = true
					stack = append(stack, n)
				}
			}
			comp.LeftMost = true
			comp.RightMost = true
			comps = append(comps, comp)
		}
	}
	return comps
}

// CreateHistogram builds the windowed vertical pixel-density histogram of
// c: a count, per column, of foreground points within a smoothing window
// that grows with c's height (scaled by histWindowRatio) but never exceeds
// maxHistWindow.
func (c *ConComp) CreateHistogram(maxHistWindow int, histWindowRatio float64) []int {
	width := c.Width()
	histWindow := int(float64(c.Height()) * histWindowRatio)
	if histWindow > maxHistWindow {
		histWindow = maxHistWindow
	}
	hist := make([]int, width)
	for _, p := range c.Points {
		x := p.X - c.Left
		for xdel := -histWindow; xdel <= histWindow; xdel++ {
			xw := x + xdel
			if xw >= 0 && xw < width {
				hist[xw]++
			}
		}
	}
	return hist
}

// segmentHistogram finds local minima of hist, each minimum becoming a
// segmentation point, skipping forward by segPointWindow columns after each
// hit so adjacent minima don't collapse into the same split.
func segmentHistogram(hist []int, height int, segPointRatio float64) []int {
	width := len(hist)
	segPointWindow := int(float64(height) * segPointRatio)
	if segPointWindow > 1 {
		segPointWindow = 1
	}
	var points []int
	for x := 2; x < width-2; x++ {
		strictLeft := hist[x] < hist[x-1] && hist[x] < hist[x-2]
		strictRight := hist[x] <= hist[x+1] && hist[x] <= hist[x+2]
		looseLeft := hist[x] <= hist[x-1] && hist[x] <= hist[x-2]
		looseRight := hist[x] < hist[x+1] && hist[x] < hist[x+2]
		if (strictLeft && strictRight) || (looseLeft && looseRight) {
			points = append(points, x)
			x += segPointWindow
		}
	}
	return points
}

// Segment splits c at local minima of its windowed density histogram and
// returns the resulting pieces in left-to-right order, or nil if no minima
// qualify as split points (the caller keeps c whole in that case).
func (c *ConComp) Segment(maxHistWindow int) []*ConComp {
	return c.SegmentWithRatios(maxHistWindow, DefaultHistWindowRatio, DefaultSegPointRatio)
}

// SegmentWithRatios is Segment with explicit window ratios, exposed for
// tuning-driven callers.
func (c *ConComp) SegmentWithRatios(maxHistWindow int, histWindowRatio, segPointRatio float64) []*ConComp {
	if len(c.Points) == 0 {
		return nil
	}
	hist := c.CreateHistogram(maxHistWindow, histWindowRatio)
	segPts := segmentHistogram(hist, c.Height(), segPointRatio)
	if len(segPts) == 0 {
		return nil
	}

	pieces := make([]*ConComp, len(segPts)+1)
	for i := range pieces {
		pieces[i] = newConComp(c.ID)
	}
	pieces[0].LeftMost = true
	pieces[len(pieces)-1].RightMost = true

	for _, p := range c.Points {
		piece := len(segPts)
		for i, sp := range segPts {
			if sp+c.Left > p.X {
				piece = i
				break
			}
		}
		pieces[piece].add(p.X, p.Y)
	}
	return pieces
}
