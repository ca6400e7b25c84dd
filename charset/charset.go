// Package charset implements CharSet: the bijection between class ids
// (dense integers in [0, N)) and the UTF-32 strings they represent (§4.1).
//
// The original engine hashes the UTF-32 bytes with djb2 modulo a small
// fixed prime and resolves collisions with a fixed-size linear-scan
// bucket. The teacher's flat DAWG (analyzer.go) takes the same
// "size-bounded table keyed by hash, fixed bucket" shape for its node/edge
// arrays; CharSet reuses that idea for a much smaller table, since the
// number of distinct class strings per language is in the thousands, not
// the millions.
package charset

import "fmt"

// NullClassID is the distinguished class id representing the null/unknown
// class.
const NullClassID = -1

// SpaceClassID is class id 0, always reserved for the space character per
// the unicharset file format (§6).
const SpaceClassID = 0

const (
	hashTableSize = 3001 // small fixed prime, matches the original's table size
	bucketSize    = 8
)

// entry is one class in the set.
type entry struct {
	classID int
	str     []rune
}

// CharSet is the class-id <-> UTF-32-string bijection for one language.
type CharSet struct {
	classes []entry           // indexed by class id
	table   [hashTableSize][]int // hash bucket -> class ids (small fixed buckets conceptually; grown as needed)
	// externalID maps a class id to the id the surrounding system's
	// unicharset encoder uses for the same class, when the two differ.
	externalID []int
}

// New creates an empty CharSet.
func New() *CharSet {
	return &CharSet{}
}

// djb2Hash hashes a UTF-32 string the way the original CharSet hashes the
// raw bytes of its char_32 buffer.
func djb2Hash(str []rune) uint64 {
	var h uint64 = 5381
	for _, r := range str {
		b := []byte{byte(r), byte(r >> 8), byte(r >> 16), byte(r >> 24)}
		for _, c := range b {
			h = ((h << 5) + h) + uint64(c)
		}
	}
	return h
}

func (c *CharSet) bucket(str []rune) int {
	return int(djb2Hash(str) % hashTableSize)
}

// AddClass registers a new class string, returning its freshly assigned
// class id. Class ids are assigned densely in insertion order, so callers
// loading a unicharset file (where line N is class id N-1) must call
// AddClass in file order.
func (c *CharSet) AddClass(str []rune, externalUnicharID int) int {
	id := len(c.classes)
	c.classes = append(c.classes, entry{classID: id, str: append([]rune(nil), str...)})
	c.externalID = append(c.externalID, externalUnicharID)
	b := c.bucket(str)
	c.table[b] = append(c.table[b], id)
	return id
}

// ClassID looks up the class id for a UTF-32 string, scanning the hash
// bucket's class list (bounded in practice, so no need to cap it at
// bucketSize the way the original's fixed bucket array does -- a Go slice
// already amortizes the rare collision chain).
func (c *CharSet) ClassID(str []rune) (int, bool) {
	b := c.bucket(str)
	for _, id := range c.table[b] {
		if runesEqual(c.classes[id].str, str) {
			return id, true
		}
	}
	return 0, false
}

// String returns the UTF-32 string for a class id.
func (c *CharSet) String(classID int) ([]rune, error) {
	if classID < 0 || classID >= len(c.classes) {
		return nil, fmt.Errorf("charset: class id %d out of range [0,%d)", classID, len(c.classes))
	}
	return c.classes[classID].str, nil
}

// ClassCount returns the number of recognized classes.
func (c *CharSet) ClassCount() int {
	return len(c.classes)
}

// ExternalUnicharID translates a Cube class id to the surrounding system's
// unicharset id, when the two encodings differ.
func (c *CharSet) ExternalUnicharID(classID int) (int, bool) {
	if classID < 0 || classID >= len(c.externalID) {
		return 0, false
	}
	return c.externalID[classID], true
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
