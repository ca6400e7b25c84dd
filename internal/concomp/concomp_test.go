package concomp

import (
	"testing"

	"github.com/cube-ocr/cube/internal/bitmap"
)

func TestFindAllSeparatesDisjointBlobs(t *testing.T) {
	bmp := bitmap.New(10, 5)
	// two 2x2 blobs, far apart
	for _, p := range []struct{ x, y int }{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		bmp.Set(p.x, p.y, 0)
	}
	for _, p := range []struct{ x, y int }{{7, 3}, {7, 4}, {8, 3}, {8, 4}} {
		bmp.Set(p.x, p.y, 0)
	}

	comps := FindAll(bmp, 0, 0, 10, 5)
	if len(comps) != 2 {
		t.Fatalf("FindAll found %d components, want 2", len(comps))
	}
	if !comps[0].LeftMost || !comps[0].RightMost {
		t.Fatal("expected first component marked both LeftMost and RightMost")
	}
	if !comps[1].LeftMost || !comps[1].RightMost {
		t.Fatal("expected second component marked both LeftMost and RightMost")
	}
	if comps[0].Width() != 2 || comps[0].Height() != 2 {
		t.Fatalf("first component size = %dx%d, want 2x2", comps[0].Width(), comps[0].Height())
	}
}

func TestFindAllMergesConnectedPixels(t *testing.T) {
	bmp := bitmap.New(5, 1)
	for x := 0; x < 5; x++ {
		bmp.Set(x, 0, 0)
	}
	comps := FindAll(bmp, 0, 0, 5, 1)
	if len(comps) != 1 {
		t.Fatalf("FindAll found %d components, want 1 connected run", len(comps))
	}
	if len(comps[0].Points) != 5 {
		t.Fatalf("component has %d points, want 5", len(comps[0].Points))
	}
}

func TestMergeCombinesBoundsAndPoints(t *testing.T) {
	a := newConComp(0)
	a.add(0, 0)
	a.add(1, 1)
	b := newConComp(1)
	b.add(5, 5)

	a.Merge(b)
	if len(a.Points) != 3 {
		t.Fatalf("merged point count = %d, want 3", len(a.Points))
	}
	if a.Right != 5 || a.Bottom != 5 {
		t.Fatalf("merged bounds = (%d,%d), want (5,5)", a.Right, a.Bottom)
	}
	if len(b.Points) != 0 {
		t.Fatal("expected donor component's points cleared after merge")
	}
}

func TestShiftTranslatesPointsAndBounds(t *testing.T) {
	c := newConComp(0)
	c.add(2, 3)
	c.Shift(10, -1)
	if c.Points[0].X != 12 || c.Points[0].Y != 2 {
		t.Fatalf("shifted point = (%d,%d), want (12,2)", c.Points[0].X, c.Points[0].Y)
	}
	if c.Left != 12 || c.Top != 2 {
		t.Fatalf("shifted bounds = (%d,%d), want (12,2)", c.Left, c.Top)
	}
}

// TestSegmentSplitsAtDensityValley builds a dumbbell shape: two dense
// columns of points separated by a single sparse column. With the
// smoothing window capped at one column the valley survives and yields a
// local-minimum split roughly in the middle.
func TestSegmentSplitsAtDensityValley(t *testing.T) {
	c := newConComp(0)
	for y := 0; y < 20; y++ {
		for x := 0; x < 3; x++ {
			c.add(x, y)
		}
	}
	for y := 0; y < 2; y++ {
		c.add(4, y)
	}
	for y := 0; y < 20; y++ {
		for x := 6; x < 9; x++ {
			c.add(x, y)
		}
	}

	pieces := c.Segment(1)
	if pieces == nil {
		t.Fatal("expected Segment to find a split at the sparse column")
	}
	if len(pieces) < 2 {
		t.Fatalf("Segment produced %d pieces, want at least 2", len(pieces))
	}
	total := 0
	for _, p := range pieces {
		total += len(p.Points)
	}
	if total != len(c.Points) {
		t.Fatalf("segmented pieces hold %d points total, want %d", total, len(c.Points))
	}
}

func TestSegmentReturnsNilForUniformDensity(t *testing.T) {
	c := newConComp(0)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c.add(x, y)
		}
	}
	if pieces := c.Segment(3); pieces != nil {
		t.Fatalf("expected nil for a uniform-density block, got %d pieces", len(pieces))
	}
}

func TestSegmentEmptyComponent(t *testing.T) {
	c := newConComp(0)
	if pieces := c.Segment(3); pieces != nil {
		t.Fatal("expected nil for an empty component")
	}
}
