package segment

import "testing"

func TestBoxUnion(t *testing.T) {
	a := Box{Left: 0, Top: 0, Width: 5, Height: 5}
	b := Box{Left: 3, Top: 3, Width: 5, Height: 5}
	u := a.Union(b)
	want := Box{Left: 0, Top: 0, Width: 8, Height: 8}
	if u != want {
		t.Fatalf("Union() = %+v, want %+v", u, want)
	}
}

func TestMergeComposesPixels(t *testing.T) {
	// 4x1 source image: [10, 20, 30, 40]
	src := []uint8{10, 20, 30, 40}
	segs := []Segment{
		{Box: Box{Left: 0, Top: 0, Width: 2, Height: 1}, Pixels: []Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
		{Box: Box{Left: 2, Top: 0, Width: 2, Height: 1}, Pixels: []Point{{X: 2, Y: 0}, {X: 3, Y: 0}}},
	}
	sample := Merge(src, 4, segs)
	if sample == nil {
		t.Fatal("Merge returned nil")
	}
	if sample.Box.Width != 4 || sample.Box.Height != 1 {
		t.Fatalf("merged box = %+v, want width 4 height 1", sample.Box)
	}
	for x, want := range []uint8{10, 20, 30, 40} {
		if got := sample.At(x, 0); got != want {
			t.Fatalf("At(%d,0) = %d, want %d", x, got, want)
		}
	}
}

func TestMergeEmptyReturnsNil(t *testing.T) {
	if Merge(nil, 0, nil) != nil {
		t.Fatal("expected nil for empty segment list")
	}
}

func TestAspectRatio(t *testing.T) {
	c := &CharSample{Box: Box{Width: 10, Height: 5}}
	if got := c.AspectRatio(); got != 2.0 {
		t.Fatalf("AspectRatio() = %v, want 2.0", got)
	}
	zero := &CharSample{Box: Box{Width: 10, Height: 0}}
	if got := zero.AspectRatio(); got != 0 {
		t.Fatalf("AspectRatio() with zero height = %v, want 0", got)
	}
}
