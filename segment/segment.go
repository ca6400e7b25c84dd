// Package segment defines the over-segmentation data model (§3): Segment,
// a connected-component piece with a bounding box and pixel membership, and
// CharSample, the cropped 8-bit raster (plus context attributes) carved
// from one or more consecutive segments and fed to the classifier.
package segment

// Point is one foreground pixel coordinate, relative to the owning word
// image's origin.
type Point struct {
	X, Y int
}

// Box is an axis-aligned bounding box in word-image pixel coordinates.
type Box struct {
	Left, Top, Width, Height int
}

// Right and Bottom are the exclusive edges of the box.
func (b Box) Right() int  { return b.Left + b.Width }
func (b Box) Bottom() int { return b.Top + b.Height }

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	left := min(b.Left, other.Left)
	top := min(b.Top, other.Top)
	right := max(b.Right(), other.Right())
	bottom := max(b.Bottom(), other.Bottom())
	return Box{Left: left, Top: top, Width: right - left, Height: bottom - top}
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

// Segment is a connected-component piece with a bounding box and the raw
// foreground pixel coordinates that made it up (§3).
type Segment struct {
	Box    Box
	Pixels []Point
}

// ContextAttributes are the five classifier-input attributes computed when
// a CharSample is carved from a segment range (§3).
type ContextAttributes struct {
	FirstChar       bool // true ⇒ this sample starts the word
	LastChar        bool // true ⇒ this sample ends the word
	NormTop         uint8
	NormBottom      uint8
	NormAspectRatio uint8
}

// CharSample is an 8-bit grayscale raster plus bounding box and context
// attributes, the unit the classifier operates over (§3).
type CharSample struct {
	Box     Box
	Pixels  []uint8 // row-major, Box.Width * Box.Height bytes, 0 = ink (foreground), 255 = background
	Context ContextAttributes
}

// AspectRatio returns width/height, or 0 if the sample is degenerate.
func (c *CharSample) AspectRatio() float64 {
	if c.Box.Height == 0 {
		return 0
	}
	return float64(c.Box.Width) / float64(c.Box.Height)
}

// At returns the pixel value at (x, y) in sample-local coordinates, or 255
// (background) when out of range.
func (c *CharSample) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= c.Box.Width || y >= c.Box.Height {
		return 255
	}
	return c.Pixels[y*c.Box.Width+x]
}

// Merge composes a new CharSample spanning the union of segs' bounding
// boxes, copying pixel data from src (a full word-image raster of width
// srcWidth) into the merged sample's local coordinate space. Segments
// outside segs' union contribute nothing.
func Merge(src []uint8, srcWidth int, segs []Segment) *CharSample {
	if len(segs) == 0 {
		return nil
	}
	box := segs[0].Box
	for _, s := range segs[1:] {
		box = box.Union(s.Box)
	}
	pixels := make([]uint8, box.Width*box.Height)
	for i := range pixels {
		pixels[i] = 255
	}
	for _, seg := range segs {
		for _, p := range seg.Pixels {
			localX, localY := p.X-box.Left, p.Y-box.Top
			if localX < 0 || localY < 0 || localX >= box.Width || localY >= box.Height {
				continue
			}
			srcIdx := p.Y*srcWidth + p.X
			if srcIdx < 0 || srcIdx >= len(src) {
				continue
			}
			pixels[localY*box.Width+localX] = src[srcIdx]
		}
	}
	return &CharSample{Box: box, Pixels: pixels}
}
