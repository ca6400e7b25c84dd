// Package langmodel implements LangModel and LangModEdge (§4.6): a
// pluggable, polymorphic generative trie over character classes combining
// word dawgs, a number-sequence state machine, punctuation wrappers, and an
// out-of-dictionary fallback.
//
// Edge is a tagged-sum type (per the spec's REDESIGN FLAGS recommendation)
// rather than a class hierarchy: one concrete struct carries the fields for
// every variant and a single dispatch switch in Edges/fanOut* picks the
// right behavior for the edge's kind. The word dawgs themselves are
// dawgfile.Dawg values -- the teacher's flat-node/flat-edge/mmap
// representation, generalized from one morphological dictionary to however
// many word lists a language configures.
package langmodel

import (
	"fmt"
	"os"
	"strings"

	"github.com/cube-ocr/cube/altlist"
	"github.com/cube-ocr/cube/charset"
	"github.com/cube-ocr/cube/cost"
	"github.com/cube-ocr/cube/cuberr"
	"github.com/cube-ocr/cube/internal/config"
	"github.com/cube-ocr/cube/internal/dawgfile"
	"github.com/dlclark/regexp2"
)

// Edge is the polymorphic language-model edge trait (§4.6).
type Edge interface {
	ClassID() int
	EdgeString() []rune
	IsRoot() bool
	IsEOW() bool
	IsOOD() bool
	IsTerminal() bool
	Hash() uint32
	Identity(other Edge) bool
	PathCost() int
}

// Model is the generative trie trait LangModel exposes (§4.6).
type Model interface {
	Root() (Edge, bool)
	Edges(parent Edge, alts *altlist.CharAltList) []Edge
	IsValidSequence(str32 []rune, requireEOW bool) bool
	IsLeadingPunc(r rune) bool
	IsTrailingPunc(r rune) bool
	IsDigit(r rune) bool
	SetOOD(enabled bool)
	SetNumeric(enabled bool)
	SetWordList(enabled bool)
	SetPunc(enabled bool)
	OOD() bool
	Numeric() bool
	WordList() bool
	Punc() bool
}

type edgeKind int

const (
	kindRoot edgeKind = iota
	kindTrie
	kindNumber
	kindOOD
	kindPunct
)

// edgeImpl is the single concrete representation for every Edge variant.
//
// pathCost is this edge's own one-time language-model cost contribution,
// not a running total -- zero for trie and punctuation edges, and
// OODWgt/NumWgt * cost.MinProbCost for OOD and number edges respectively.
// The lattice accumulates it into each node's BestCost the same way it
// already accumulates recognition cost, so it never needs to be threaded
// through the fan-out chain itself.
type edgeImpl struct {
	kind       edgeKind
	classID    int
	edgeString []rune
	pathCost   int
	root       bool
	eow        bool
	terminal   bool

	// kindTrie
	dawgIdx int
	node    uint32

	// kindNumber
	numState  int
	numRepeat int

	// kindPunct
	trailing bool
}

func (e *edgeImpl) ClassID() int        { return e.classID }
func (e *edgeImpl) EdgeString() []rune  { return e.edgeString }
func (e *edgeImpl) IsRoot() bool        { return e.root }
func (e *edgeImpl) IsEOW() bool         { return e.eow }
func (e *edgeImpl) IsOOD() bool         { return e.kind == kindOOD }
func (e *edgeImpl) IsTerminal() bool    { return e.terminal }
func (e *edgeImpl) PathCost() int       { return e.pathCost }

// Identity reports whether two edges, possibly reached via different
// parents, represent the same language-model state -- the basis for
// SearchColumn's path-merging (§4.8). OOD edges never merge at the lattice
// layer regardless of what Identity reports here.
func (e *edgeImpl) Identity(other Edge) bool {
	o, ok := other.(*edgeImpl)
	if !ok || o == nil {
		return false
	}
	if e.kind != o.kind {
		return false
	}
	switch e.kind {
	case kindTrie:
		return e.dawgIdx == o.dawgIdx && e.node == o.node
	case kindNumber:
		return e.numState == o.numState && e.numRepeat == o.numRepeat
	case kindOOD:
		return e.classID == o.classID
	case kindPunct:
		return e.trailing == o.trailing && e.classID == o.classID
	default:
		return true
	}
}

// Hash is a cheap FNV-1a-style mix over the edge's identity-relevant
// fields, used as a bucket key alongside Identity for column merging.
func (e *edgeImpl) Hash() uint32 {
	h := uint32(2166136261)
	mix := func(v uint32) {
		h ^= v
		h *= 16777619
	}
	mix(uint32(e.kind))
	switch e.kind {
	case kindTrie:
		mix(uint32(e.dawgIdx))
		mix(e.node)
	case kindNumber:
		mix(uint32(e.numState))
		mix(uint32(e.numRepeat))
	case kindOOD:
		mix(uint32(e.classID))
	case kindPunct:
		mix(uint32(e.classID))
		if e.trailing {
			mix(1)
		}
	}
	return h
}

// Number state machine (§4.6), grounded verbatim on
// tess_lang_model.cpp's num_state_machine_/num_max_repeat_ tables: 4 states,
// 5 literal classes in the fixed order {num-lead-punc, num-trail-punc,
// digit, operator, alpha}. numTerminal marks "no transition" (the original's
// NUM_TRM sentinel); states 2 and 3 accept.
const (
	numStateCount   = 4
	numLiteralCount = 5
	numTerminal     = -1

	litNumLeadPunc = 0
	litNumTrailPunc = 1
	litDigit        = 2
	litOperator     = 3
	litAlpha        = 4
)

var numTransition = [numStateCount][numLiteralCount]int{
	{0, 1, 1, numTerminal, numTerminal},
	{numTerminal, 1, 1, 3, 2},
	{numTerminal, numTerminal, 1, numTerminal, 2},
	{numTerminal, numTerminal, 3, numTerminal, 2},
}

var numMaxRepeat = [numStateCount]int{3, 32, 8, 3}

func numIsAccept(state int) bool { return state == 2 || state == 3 }

// Params holds the punctuation/digit/operator/alpha literal sets a
// <lang>.cube.lm file configures, in the "Key=Value" line format the
// original TessLangModel::LoadLangModelElements parses.
type Params struct {
	LeadPunc     string
	TrailPunc    string
	NumLeadPunc  string
	NumTrailPunc string
	Digits       string
	Operators    string
	Alphas       string
}

// ParseParams parses a <lang>.cube.lm file's textual contents.
func ParseParams(text string) (Params, error) {
	kvs, err := config.ParseKeyValueLines(text)
	if err != nil {
		return Params{}, err
	}
	var p Params
	for _, kv := range kvs {
		switch kv.Key {
		case "LeadPunc":
			p.LeadPunc = kv.Value
		case "TrailPunc":
			p.TrailPunc = kv.Value
		case "NumLeadPunc":
			p.NumLeadPunc = kv.Value
		case "NumTrailPunc":
			p.NumTrailPunc = kv.Value
		case "Digits":
			p.Digits = kv.Value
		case "Operators":
			p.Operators = kv.Value
		case "Alphas":
			p.Alphas = kv.Value
		default:
			return Params{}, fmt.Errorf("langmodel: line %d: unrecognized key %q", kv.Line, kv.Key)
		}
	}
	return p, nil
}

// TrieModel is the Tesseract-backed LangModel implementation: word dawgs,
// a number state machine, an out-of-dictionary fallback, and leading-
// /trailing-punctuation wrappers, combined behind one fan-out.
type TrieModel struct {
	dawgs   []*dawgfile.Dawg
	charset *charset.CharSet
	params  Params

	leadPunc     []rune
	trailPunc    []rune
	numLeadPunc  []rune
	numTrailPunc []rune
	digits       []rune
	operators    []rune
	alphas       []rune

	// leadPuncRe/trailPuncRe/digitsRe are leadPunc/trailPunc/digits
	// compiled once into anchored single-character-class patterns, so
	// IsLeadingPunc/IsTrailingPunc/IsDigit test membership by matching
	// instead of a hand-rolled linear scan over the rune slice. nil when
	// the corresponding class is empty.
	leadPuncRe  *regexp2.Regexp
	trailPuncRe *regexp2.Regexp
	digitsRe    *regexp2.Regexp

	wordList bool
	numeric  bool
	ood      bool
	punc     bool

	// oodWgt/numWgt weight OOD and number edges' PathCost, mirroring
	// tuning.Params' OODWgt/NumWgt. They default to 1.0 (tuning.Default's
	// own default for both) and are overridden by SetWeights once a
	// RecoContext's tuning parameters are loaded -- the language model
	// itself loads before tuning.Params does, so these can't be supplied
	// at construction time.
	oodWgt float64
	numWgt float64
}

// NewTrieModel builds a TrieModel over already-loaded word dawgs. All four
// sub-machines (word list, numeric, OOD, punctuation) start enabled.
func NewTrieModel(cs *charset.CharSet, params Params, dawgs ...*dawgfile.Dawg) *TrieModel {
	return &TrieModel{
		dawgs:        dawgs,
		charset:      cs,
		params:       params,
		leadPunc:     []rune(params.LeadPunc),
		trailPunc:    []rune(params.TrailPunc),
		numLeadPunc:  []rune(params.NumLeadPunc),
		numTrailPunc: []rune(params.NumTrailPunc),
		digits:       []rune(params.Digits),
		operators:    []rune(params.Operators),
		alphas:       []rune(params.Alphas),
		leadPuncRe:   compileCharClass(params.LeadPunc),
		trailPuncRe:  compileCharClass(params.TrailPunc),
		digitsRe:     compileCharClass(params.Digits),
		wordList:     true,
		numeric:      true,
		ood:          true,
		punc:         true,
		oodWgt:       1.0,
		numWgt:       1.0,
	}
}

// SetWeights updates the OOD/number edge PathCost weights from a loaded
// tuning.Params' OODWgt/NumWgt.
func (m *TrieModel) SetWeights(oodWgt, numWgt float64) {
	m.oodWgt = oodWgt
	m.numWgt = numWgt
}

// compileCharClass compiles runes into an anchored single-character-class
// pattern (e.g. `^[\.,;]$`), escaping everything a character class would
// otherwise treat specially. Returns nil for an empty class.
func compileCharClass(runes string) *regexp2.Regexp {
	if runes == "" {
		return nil
	}
	var b strings.Builder
	b.WriteString("^[")
	for _, r := range runes {
		switch r {
		case '\\', ']', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString("]$")
	return regexp2.MustCompile(b.String(), regexp2.None)
}

// Load reads a <lang>.cube.lm parameter file and a set of compiled word
// dawg files, and assembles a ready-to-use TrieModel.
func Load(lmPath string, cs *charset.CharSet, dawgPaths ...string) (*TrieModel, error) {
	data, err := os.ReadFile(lmPath)
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMissing, lmPath)
	}
	params, err := ParseParams(string(data))
	if err != nil {
		return nil, cuberr.Wrap(cuberr.ErrLoadMalformed, lmPath+": "+err.Error())
	}
	dawgs := make([]*dawgfile.Dawg, 0, len(dawgPaths))
	for _, p := range dawgPaths {
		d, err := dawgfile.Load(p)
		if err != nil {
			return nil, err
		}
		dawgs = append(dawgs, d)
	}
	return NewTrieModel(cs, params, dawgs...), nil
}

// Close releases every loaded dawg's memory-mapped pages.
func (m *TrieModel) Close() error {
	var firstErr error
	for _, d := range m.dawgs {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *TrieModel) SetOOD(enabled bool)      { m.ood = enabled }
func (m *TrieModel) SetNumeric(enabled bool)  { m.numeric = enabled }
func (m *TrieModel) SetWordList(enabled bool) { m.wordList = enabled }
func (m *TrieModel) SetPunc(enabled bool)     { m.punc = enabled }

func (m *TrieModel) OOD() bool      { return m.ood }
func (m *TrieModel) Numeric() bool  { return m.numeric }
func (m *TrieModel) WordList() bool { return m.wordList }
func (m *TrieModel) Punc() bool     { return m.punc }

func (m *TrieModel) charsetClass(r rune) int {
	if m.charset == nil {
		return charset.NullClassID
	}
	id, ok := m.charset.ClassID([]rune{r})
	if !ok {
		return charset.NullClassID
	}
	return id
}

// Root returns the sentinel root edge every fan-out starts from.
func (m *TrieModel) Root() (Edge, bool) {
	return &edgeImpl{kind: kindRoot, classID: charset.NullClassID, root: true}, true
}

// Edges enumerates every edge fanning out from parent, optionally
// restricted to classes present in alts (§4.6).
func (m *TrieModel) Edges(parent Edge, alts *altlist.CharAltList) []Edge {
	p, ok := parent.(*edgeImpl)
	if !ok || p == nil {
		return nil
	}

	var out []Edge
	switch p.kind {
	case kindRoot:
		out = m.fanOutRoot()
	case kindTrie:
		out = m.fanOutTrie(p)
	case kindNumber:
		out = m.fanOutNumber(p)
		if p.eow {
			out = append(out, m.fanOutEOW(p)...)
		}
	case kindOOD:
		out = m.fanOutOOD(p)
	case kindPunct:
		out = m.fanOutPunct(p)
	}
	return m.filterByAltList(out, alts)
}

// filterByAltList restricts a fan-out to classes present in alts with a
// cost below the sentinel worst-cost threshold.
func (m *TrieModel) filterByAltList(edges []Edge, alts *altlist.CharAltList) []Edge {
	if alts == nil {
		return edges
	}
	filtered := edges[:0]
	for _, e := range edges {
		ei := e.(*edgeImpl)
		if ei.classID == charset.NullClassID {
			continue
		}
		c, ok := alts.ClassCost(ei.classID)
		if !ok || c >= cost.WorstCost {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// fanOutRoot assembles root edges from the four sources §4.6 names: (a)
// every word dawg's first-character edges, (b) the number machine's start,
// (c) the OOD state's start, (d) leading-punctuation wrappers around (a-c).
func (m *TrieModel) fanOutRoot() []Edge {
	var out []Edge
	if m.wordList {
		for di, d := range m.dawgs {
			for _, fe := range d.Children(d.Root()) {
				out = append(out, m.makeTrieEdge(di, fe, true))
			}
		}
	}
	if m.numeric {
		out = append(out, m.fanOutNumber(&edgeImpl{kind: kindNumber, numState: 0, numRepeat: 0, root: true})...)
	}
	if m.ood {
		out = append(out, m.fanOutOOD(&edgeImpl{kind: kindOOD, root: true})...)
	}
	if m.punc {
		for _, ch := range m.leadPunc {
			out = append(out, &edgeImpl{
				kind: kindPunct, classID: m.charsetClass(ch), edgeString: []rune{ch},
				trailing: false, root: true,
			})
		}
	}
	return out
}

func (m *TrieModel) makeTrieEdge(dawgIdx int, fe dawgfile.FlatEdge, isRoot bool) *edgeImpl {
	final := m.dawgs[dawgIdx].IsFinal(fe.NodeID)
	return &edgeImpl{
		kind: kindTrie, classID: m.charsetClass(fe.Char), edgeString: []rune{fe.Char},
		root: isRoot, eow: final, terminal: final,
		dawgIdx: dawgIdx, node: fe.NodeID,
	}
}

// fanOutTrie advances one dawg edge and, at end-of-word, also asks
// fanOutEOW for trailing-punctuation and hyphen-restart continuations.
func (m *TrieModel) fanOutTrie(p *edgeImpl) []Edge {
	d := m.dawgs[p.dawgIdx]
	var out []Edge
	for _, fe := range d.Children(p.node) {
		out = append(out, m.makeTrieEdge(p.dawgIdx, fe, false))
	}
	if p.eow {
		out = append(out, m.fanOutEOW(p)...)
	}
	return out
}

// fanOutEOW is the shared end-of-word continuation: trailing punctuation
// wrappers, plus -- after a trie edge that completes a word -- a literal
// hyphen edge positioned at its dawg's root, whose own fan-out restarts
// the dawg, so "well-known" parses as two dawg words joined by a hyphen
// (§3 Supplemented Features).
func (m *TrieModel) fanOutEOW(p *edgeImpl) []Edge {
	var out []Edge
	if m.punc {
		for _, ch := range m.trailPunc {
			out = append(out, &edgeImpl{
				kind: kindPunct, classID: m.charsetClass(ch), edgeString: []rune{ch},
				trailing: true, eow: true, terminal: true,
			})
		}
	}
	if p.kind == kindTrie {
		d := m.dawgs[p.dawgIdx]
		out = append(out, &edgeImpl{
			kind: kindTrie, classID: m.charsetClass('-'), edgeString: []rune{'-'},
			dawgIdx: p.dawgIdx, node: d.Root(),
		})
	}
	return out
}

// fanOutNumber advances the number state machine from p's (state, repeat)
// over each of the five literal classes, skipping transitions the
// transition table marks terminal (numTerminal) or that would exceed the
// current state's repeat cap. Every produced edge carries the NumWgt-
// weighted path cost that penalizes the number path relative to a
// dictionary hit.
func (m *TrieModel) fanOutNumber(p *edgeImpl) []Edge {
	var out []Edge
	numCost := int(m.numWgt * float64(cost.MinProbCost))
	for lit := 0; lit < numLiteralCount; lit++ {
		newState := numTransition[p.numState][lit]
		if newState == numTerminal {
			continue
		}
		newRepeat := 1
		if newState == p.numState {
			newRepeat = p.numRepeat + 1
		}
		if newRepeat > numMaxRepeat[p.numState] {
			continue
		}
		for _, ch := range m.literalRunes(lit) {
			out = append(out, &edgeImpl{
				kind: kindNumber, classID: m.charsetClass(ch), edgeString: []rune{ch},
				pathCost: numCost, numState: newState, numRepeat: newRepeat,
				eow: numIsAccept(newState), terminal: numIsAccept(newState), root: p.root,
			})
		}
	}
	return out
}

func (m *TrieModel) literalRunes(lit int) []rune {
	switch lit {
	case litNumLeadPunc:
		return m.numLeadPunc
	case litNumTrailPunc:
		return m.numTrailPunc
	case litDigit:
		return m.digits
	case litOperator:
		return m.operators
	case litAlpha:
		return m.alphas
	default:
		return nil
	}
}

// fanOutOOD is the out-of-dictionary fallback: a stateless self-loop over
// every single-rune class known to the charset, each charged the
// OODWgt-weighted path cost and immediately terminal so OOD sequences of
// any length are valid (at an accumulating cost, since every character
// along an OOD run pays this same penalty again via the lattice node
// chain).
func (m *TrieModel) fanOutOOD(p *edgeImpl) []Edge {
	if m.charset == nil {
		return nil
	}
	oodCost := int(m.oodWgt * float64(cost.MinProbCost))
	var out []Edge
	for cid := 0; cid < m.charset.ClassCount(); cid++ {
		str, err := m.charset.String(cid)
		if err != nil || len(str) != 1 {
			continue
		}
		out = append(out, &edgeImpl{
			kind: kindOOD, classID: cid, edgeString: str,
			pathCost: oodCost, eow: true, terminal: true, root: p.root,
		})
	}
	return out
}

// fanOutPunct handles both punctuation wrapper directions: a leading
// wrapper may consume another leading-punctuation codepoint or hand off
// into the real word-start fan-out; a trailing wrapper may only consume
// further trailing-punctuation codepoints, each already terminal.
func (m *TrieModel) fanOutPunct(p *edgeImpl) []Edge {
	var out []Edge
	if p.trailing {
		for _, ch := range m.trailPunc {
			out = append(out, &edgeImpl{
				kind: kindPunct, classID: m.charsetClass(ch), edgeString: []rune{ch},
				trailing: true, eow: true, terminal: true,
			})
		}
		return out
	}

	for _, ch := range m.leadPunc {
		out = append(out, &edgeImpl{
			kind: kindPunct, classID: m.charsetClass(ch), edgeString: []rune{ch},
			trailing: false,
		})
	}
	if m.wordList {
		for di, d := range m.dawgs {
			for _, fe := range d.Children(d.Root()) {
				out = append(out, m.makeTrieEdge(di, fe, false))
			}
		}
	}
	if m.numeric {
		out = append(out, m.fanOutNumber(&edgeImpl{kind: kindNumber, numState: 0, numRepeat: 0})...)
	}
	if m.ood {
		out = append(out, m.fanOutOOD(&edgeImpl{kind: kindOOD})...)
	}
	return out
}

// IsValidSequence greedily walks str32 through the fan-out, matching each
// rune against the unique edge whose edge string equals it. Ambiguous
// multi-path sequences (the same rune reachable via more than one edge
// kind) pick the first fan-out match, which is sufficient for the
// single-character edges this model ever emits.
func (m *TrieModel) IsValidSequence(str32 []rune, requireEOW bool) bool {
	cur, _ := m.Root()
	for _, r := range str32 {
		var next Edge
		for _, e := range m.Edges(cur, nil) {
			if es := e.EdgeString(); len(es) == 1 && es[0] == r {
				next = e
				break
			}
		}
		if next == nil {
			return false
		}
		cur = next
	}
	if requireEOW {
		return cur.IsEOW()
	}
	return true
}

// matchClass reports whether re (a compiled single-character class pattern,
// or nil for an empty class) matches r. A match error -- backtracking
// timeout or similar -- is treated as a non-match rather than propagated,
// since these classes are tiny, anchored, and non-backtracking by
// construction.
func matchClass(re *regexp2.Regexp, r rune) bool {
	if re == nil {
		return false
	}
	ok, err := re.MatchString(string(r))
	return err == nil && ok
}

func (m *TrieModel) IsLeadingPunc(r rune) bool  { return matchClass(m.leadPuncRe, r) }
func (m *TrieModel) IsTrailingPunc(r rune) bool { return matchClass(m.trailPuncRe, r) }
func (m *TrieModel) IsDigit(r rune) bool        { return matchClass(m.digitsRe, r) }
