// Package altlist implements the two ranked-alternates containers the
// search uses: CharAltList (class id alternates, §4) and WordAltList
// (UTF-32 string alternates, §4). Both insert in discovery order and sort
// ascending by cost only once the caller asks for it, matching the
// original's Insert-then-Sort lifecycle.
package altlist

import "sort"

// CharEntry is one ranked class-id alternate.
type CharEntry struct {
	ClassID int
	Cost    int
	OptTag  int
}

// CharAltList is a capped, cost-sorted list of class-id alternates with an
// O(1) direct-access cost table.
type CharAltList struct {
	entries  []CharEntry
	costOf   map[int]int // class id -> cheapest cost seen, for O(1) lookup
	capacity int
	sorted   bool
}

// NewCharAltList creates an alt list capped at capacity entries (<=0 means
// unbounded).
func NewCharAltList(capacity int) *CharAltList {
	return &CharAltList{capacity: capacity, costOf: make(map[int]int)}
}

// Insert adds a class-id alternate in discovery order. If the class id was
// already present, the cheaper cost wins (matching the original's
// direct-access cost table semantics).
func (l *CharAltList) Insert(classID, cost, optTag int) {
	if existing, ok := l.costOf[classID]; ok {
		if cost < existing {
			l.costOf[classID] = cost
			for i := range l.entries {
				if l.entries[i].ClassID == classID {
					l.entries[i].Cost = cost
					l.entries[i].OptTag = optTag
					break
				}
			}
		}
		return
	}
	if l.capacity > 0 && len(l.entries) >= l.capacity {
		return
	}
	l.entries = append(l.entries, CharEntry{ClassID: classID, Cost: cost, OptTag: optTag})
	l.costOf[classID] = cost
	l.sorted = false
}

// Sort orders entries ascending by cost; ties keep insertion order (stable
// sort), giving a total order by cost per the invariant in §8.
func (l *CharAltList) Sort() {
	if l.sorted {
		return
	}
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Cost < l.entries[j].Cost
	})
	l.sorted = true
}

// AltCount returns the number of alternates held.
func (l *CharAltList) AltCount() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Alt returns the i'th alternate in current (possibly unsorted) order.
func (l *CharAltList) Alt(i int) CharEntry {
	return l.entries[i]
}

// Entries exposes the full backing slice in current order.
func (l *CharAltList) Entries() []CharEntry {
	return l.entries
}

// ClassCost is the O(1) direct-access cost lookup for a class id. Returns
// (0, false) when the class was never inserted.
func (l *CharAltList) ClassCost(classID int) (int, bool) {
	c, ok := l.costOf[classID]
	return c, ok
}
