package bitmap

import "testing"

func TestSetAndAt(t *testing.T) {
	b := New(4, 3)
	b.Set(1, 2, 10)
	if got := b.At(1, 2); got != 10 {
		t.Fatalf("At(1,2) = %d, want 10", got)
	}
	if got := b.At(0, 0); got != 255 {
		t.Fatalf("At(0,0) = %d, want 255 (default background)", got)
	}
}

func TestOutOfBoundsReadsBackground(t *testing.T) {
	b := New(2, 2)
	if b.At(-1, 0) != 255 || b.At(5, 5) != 255 {
		t.Fatal("expected out-of-bounds reads to return 255 (background)")
	}
}

func TestOutOfBoundsWritesIgnored(t *testing.T) {
	b := New(2, 2)
	b.Set(-1, 0, 10)
	b.Set(5, 5, 10)
	for _, v := range b.Pixels {
		if v != 255 {
			t.Fatal("expected out-of-bounds writes to be ignored")
		}
	}
}

func TestIsForeground(t *testing.T) {
	b := New(2, 2)
	b.Set(0, 0, 0) // ink
	if !b.IsForeground(0, 0) {
		t.Fatal("expected (0,0) to be foreground (ink)")
	}
	if b.IsForeground(1, 1) {
		t.Fatal("expected (1,1) to be background (unset, 255)")
	}
}

func TestColumnDensity(t *testing.T) {
	b := New(3, 2)
	b.Set(0, 0, 0)
	b.Set(0, 1, 0)
	b.Set(1, 0, 0)
	density := b.ColumnDensity(0, 0, 3, 2)
	want := []int{2, 1, 0}
	for i, w := range want {
		if density[i] != w {
			t.Fatalf("density[%d] = %d, want %d", i, density[i], w)
		}
	}
}
