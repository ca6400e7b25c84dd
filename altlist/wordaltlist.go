package altlist

import "sort"

// WordEntry is one ranked UTF-32 word alternate with its combined cost and
// an opaque handle back to the lattice node it was produced from, so
// callers can backtrack to retrieve per-character sub-images.
type WordEntry struct {
	Str32   []rune
	Cost    int
	NodeRef any
}

// WordAltList is a deduplicating, cost-sorted list of UTF-32 word
// alternates.
type WordAltList struct {
	entries  []WordEntry
	indexOf  map[string]int // string key -> index in entries, for dedup
	capacity int
	sorted   bool
}

// NewWordAltList creates an alt list capped at capacity entries (<=0 means
// unbounded).
func NewWordAltList(capacity int) *WordAltList {
	return &WordAltList{capacity: capacity, indexOf: make(map[string]int)}
}

// Insert adds a word alternate. If the string is already present, the
// lower cost wins (§3: "insertion is deduplicating").
func (l *WordAltList) Insert(str32 []rune, cost int, nodeRef any) {
	key := string(str32)
	if idx, ok := l.indexOf[key]; ok {
		if cost < l.entries[idx].Cost {
			l.entries[idx].Cost = cost
			l.entries[idx].NodeRef = nodeRef
		}
		return
	}
	if l.capacity > 0 && len(l.entries) >= l.capacity {
		return
	}
	l.indexOf[key] = len(l.entries)
	l.entries = append(l.entries, WordEntry{Str32: append([]rune(nil), str32...), Cost: cost, NodeRef: nodeRef})
	l.sorted = false
}

// Sort orders entries ascending by cost, stable on ties (insertion order).
func (l *WordAltList) Sort() {
	if l.sorted {
		return
	}
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Cost < l.entries[j].Cost
	})
	// indexOf goes stale after a reorder; entries are looked up by content
	// from here on, not by the (now-invalid) pre-sort index, so drop it.
	l.indexOf = nil
	l.sorted = true
}

// AltCount returns the number of alternates held.
func (l *WordAltList) AltCount() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Alt returns the i'th alternate in current order.
func (l *WordAltList) Alt(i int) WordEntry {
	return l.entries[i]
}

// Entries exposes the full backing slice in current order.
func (l *WordAltList) Entries() []WordEntry {
	return l.entries
}
