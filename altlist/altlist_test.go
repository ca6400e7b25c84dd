package altlist

import "testing"

func TestCharAltListSortStableByCost(t *testing.T) {
	l := NewCharAltList(0)
	l.Insert(3, 50, 0)
	l.Insert(1, 10, 0)
	l.Insert(2, 10, 0)
	l.Sort()
	if l.AltCount() != 3 {
		t.Fatalf("AltCount = %d, want 3", l.AltCount())
	}
	// ties (class 1 and 2, both cost 10) keep insertion order.
	if l.Alt(0).ClassID != 1 || l.Alt(1).ClassID != 2 {
		t.Fatalf("unstable sort: got order %v", l.Entries())
	}
	if l.Alt(2).ClassID != 3 {
		t.Fatalf("expected class 3 last, got %v", l.Entries())
	}
}

func TestCharAltListCheaperWins(t *testing.T) {
	l := NewCharAltList(0)
	l.Insert(1, 100, 0)
	l.Insert(1, 20, 0)
	c, ok := l.ClassCost(1)
	if !ok || c != 20 {
		t.Fatalf("ClassCost(1) = %d,%v want 20,true", c, ok)
	}
	if l.AltCount() != 1 {
		t.Fatalf("AltCount = %d, want 1 (no duplicate entry)", l.AltCount())
	}
}

func TestWordAltListDedupLowerCostWins(t *testing.T) {
	l := NewWordAltList(0)
	l.Insert([]rune("cat"), 500, nil)
	l.Insert([]rune("cat"), 100, nil)
	l.Insert([]rune("dog"), 300, nil)
	if l.AltCount() != 2 {
		t.Fatalf("AltCount = %d, want 2", l.AltCount())
	}
	l.Sort()
	if string(l.Alt(0).Str32) != "cat" || l.Alt(0).Cost != 100 {
		t.Fatalf("got %+v, want cat with cost 100 first", l.Alt(0))
	}
}
