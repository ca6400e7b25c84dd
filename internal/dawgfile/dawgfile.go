// Package dawgfile implements the on-disk flat-trie container the language
// model's word dawgs are stored and memory-mapped with: a fixed-size binary
// Header pointing at flat node/edge arrays, generalizing the teacher's
// morph.dawg format (Header, FlatNode, FlatEdge, mmap zero-copy load) from a
// single morphological dictionary to an arbitrary word list.
package dawgfile

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"unsafe"

	"github.com/edsrzf/mmap-go"

	"github.com/cube-ocr/cube/cuberr"
)

// magic identifies a compiled dawg file; distinct from the teacher's "DAW7"
// so the two formats are never confused if paths get crossed.
var magic = [4]byte{'C', 'D', 'W', '1'}

// FlatNode is one trie node in its flat, pointer-free on-disk form: the
// outgoing edges for a node live in one contiguous run of the Edges array.
type FlatNode struct {
	EdgesIdx uint32
	EdgesLen uint32
	IsFinal  bool
	_        [3]byte // pad to a fixed, platform-independent size
}

// FlatEdge is one outgoing transition: the rune consumed and the node it
// leads to. Edges for a node are kept sorted by Char so lookup can binary
// search instead of scanning.
type FlatEdge struct {
	Char   rune
	NodeID uint32
}

// Header is the fixed-size file map read directly out of the mmap'd bytes,
// the same role the teacher's Header plays for morph.dawg.
type Header struct {
	Magic        [4]byte
	WordsOffset  int64
	WordsLength  int64
	NodesOffset  int64
	NodesCount   int64
	EdgesOffset  int64
	EdgesCount   int64
}

// complexData is the gob+gzip "everything that doesn't fit a flat array"
// block: here just the original sorted word list, kept for introspection
// and round-tripping rather than runtime traversal.
type complexData struct {
	Words []string
}

// Dawg is a loaded (possibly memory-mapped) flat trie over a word list.
// Built in memory via Build, or loaded zero-copy from disk via Load.
type Dawg struct {
	words []string
	nodes []FlatNode
	edges []FlatEdge

	mmapFile mmap.MMap
}

// Root returns the trie's root node index, always 0.
func (d *Dawg) Root() uint32 { return 0 }

// IsFinal reports whether node marks the end of a word.
func (d *Dawg) IsFinal(node uint32) bool {
	return d.nodes[node].IsFinal
}

// FindChild looks up the outgoing edge for ch from node, binary searching
// the node's sorted edge run the way the teacher's findChildGeneral does.
func (d *Dawg) FindChild(node uint32, ch rune) (uint32, bool) {
	n := d.nodes[node]
	if n.EdgesLen == 0 {
		return 0, false
	}
	edges := d.edges[n.EdgesIdx : n.EdgesIdx+n.EdgesLen]
	i := sort.Search(len(edges), func(i int) bool { return edges[i].Char >= ch })
	if i < len(edges) && edges[i].Char == ch {
		return edges[i].NodeID, true
	}
	return 0, false
}

// Children returns the sorted outgoing edges of node, for callers that fan
// out over every child rather than looking one up (e.g. root fan-out).
func (d *Dawg) Children(node uint32) []FlatEdge {
	n := d.nodes[node]
	if n.EdgesLen == 0 {
		return nil
	}
	return d.edges[n.EdgesIdx : n.EdgesIdx+n.EdgesLen]
}

// Words returns the original sorted word list the dawg was built from, when
// available (always true for Build; true for Load unless the words block
// was stripped to shrink the file).
func (d *Dawg) Words() []string { return d.words }

// Close releases a memory-mapped dawg's backing pages. A no-op for an
// in-memory dawg built via Build.
func (d *Dawg) Close() error {
	if d.mmapFile != nil {
		return d.mmapFile.Unmap()
	}
	return nil
}

// trieBuilderNode is the intermediate, pointer-based trie used while
// building, mirroring the teacher's in-memory Node before flattening.
type trieBuilderNode struct {
	children map[rune]*trieBuilderNode
	isFinal  bool
}

// Build constructs a flat trie over words (already-sorted or not; Build
// sorts its own copy) entirely in memory. Case is preserved; callers
// wanting case-insensitive matching normalize before calling Build.
func Build(words []string) *Dawg {
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)

	root := &trieBuilderNode{children: make(map[rune]*trieBuilderNode)}
	for _, w := range sorted {
		cur := root
		for _, r := range w {
			next, ok := cur.children[r]
			if !ok {
				next = &trieBuilderNode{children: make(map[rune]*trieBuilderNode)}
				cur.children[r] = next
			}
			cur = next
		}
		cur.isFinal = true
	}

	d := &Dawg{words: sorted}
	var flatten func(*trieBuilderNode) uint32
	flatten = func(n *trieBuilderNode) uint32 {
		idx := uint32(len(d.nodes))
		d.nodes = append(d.nodes, FlatNode{IsFinal: n.isFinal})

		chars := make([]rune, 0, len(n.children))
		for ch := range n.children {
			chars = append(chars, ch)
		}
		sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

		edgesIdx := uint32(len(d.edges))
		for _, ch := range chars {
			d.edges = append(d.edges, FlatEdge{Char: ch})
		}
		d.nodes[idx].EdgesIdx = edgesIdx
		d.nodes[idx].EdgesLen = uint32(len(chars))

		for i, ch := range chars {
			childID := flatten(n.children[ch])
			d.edges[edgesIdx+uint32(i)].NodeID = childID
		}
		return idx
	}
	flatten(root)
	return d
}

// Save writes d to path in the on-disk format Load expects.
func (d *Dawg) Save(path string) error {
	var wordsBuf bytes.Buffer
	gz := gzip.NewWriter(&wordsBuf)
	if err := gob.NewEncoder(gz).Encode(complexData{Words: d.words}); err != nil {
		return fmt.Errorf("dawgfile: encoding word pool: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("dawgfile: closing gzip writer: %w", err)
	}

	headerSize := int64(binary.Size(Header{}))
	header := Header{
		Magic:       magic,
		WordsOffset: headerSize,
		WordsLength: int64(wordsBuf.Len()),
	}
	header.NodesOffset = header.WordsOffset + header.WordsLength
	header.NodesCount = int64(len(d.nodes))
	nodesSize := header.NodesCount * int64(unsafe.Sizeof(FlatNode{}))
	header.EdgesOffset = header.NodesOffset + nodesSize
	header.EdgesCount = int64(len(d.edges))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dawgfile: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("dawgfile: writing header: %w", err)
	}
	if _, err := f.Write(wordsBuf.Bytes()); err != nil {
		return fmt.Errorf("dawgfile: writing word pool: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, d.nodes); err != nil {
		return fmt.Errorf("dawgfile: writing nodes: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, d.edges); err != nil {
		return fmt.Errorf("dawgfile: writing edges: %w", err)
	}
	return nil
}

// Load memory-maps path and reinterprets its flat node/edge arrays in place,
// the same zero-copy technique the teacher applies to morph.dawg.
func Load(path string) (*Dawg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, path)
	}
	defer f.Close()

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("dawgfile: mmap %s: %w", path, err)
	}

	var header Header
	headerSize := binary.Size(header)
	if len(mapped) < headerSize {
		_ = mapped.Unmap()
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": file too small for header")
	}
	if err := binary.Read(bytes.NewReader(mapped[:headerSize]), binary.LittleEndian, &header); err != nil {
		_ = mapped.Unmap()
		return nil, fmt.Errorf("dawgfile: reading header: %w", err)
	}
	if header.Magic != magic {
		_ = mapped.Unmap()
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, path+": bad magic")
	}

	gz, err := gzip.NewReader(bytes.NewReader(mapped[header.WordsOffset : header.WordsOffset+header.WordsLength]))
	if err != nil {
		_ = mapped.Unmap()
		return nil, fmt.Errorf("dawgfile: gzip reader: %w", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		_ = mapped.Unmap()
		return nil, fmt.Errorf("dawgfile: decompressing word pool: %w", err)
	}
	var words complexData
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&words); err != nil {
		_ = mapped.Unmap()
		return nil, fmt.Errorf("dawgfile: gob-decoding word pool: %w", err)
	}

	nodes := bytesToSlice[FlatNode](mapped[header.NodesOffset : header.NodesOffset+header.NodesCount*int64(unsafe.Sizeof(FlatNode{}))])
	edges := bytesToSlice[FlatEdge](mapped[header.EdgesOffset : header.EdgesOffset+header.EdgesCount*int64(unsafe.Sizeof(FlatEdge{}))])

	return &Dawg{
		words:    words.Words,
		nodes:    nodes,
		edges:    edges,
		mmapFile: mapped,
	}, nil
}

// bytesToSlice reinterprets a byte slice as a slice of T without copying,
// the same unsafe technique the teacher uses to avoid loading the whole
// dictionary off the mmap'd pages.
func bytesToSlice[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var t T
	size := int(unsafe.Sizeof(t))
	header := reflect.SliceHeader{Data: uintptr(unsafe.Pointer(&b[0])), Len: len(b) / size, Cap: len(b) / size}
	return *(*[]T)(unsafe.Pointer(&header))
}
