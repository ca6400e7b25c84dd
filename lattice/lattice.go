// Package lattice implements SearchNode and SearchColumn (§4.8): the
// per-segmentation-point beam of partial parses the search builds up one
// column at a time, each node a (language-model edge, parent, cost) triple,
// merged by language-model state and pruned to a bounded width by a
// histogram threshold rather than a full sort.
package lattice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cube-ocr/cube/langmodel"
)

// Node is one lattice node: the language-model edge it was reached by, the
// parent node in the previous column (nil for a root-column node), and the
// best recognition cost seen so far along any path ending here.
type Node struct {
	edge      langmodel.Edge
	parent    *Node
	colIdx    int
	bestCost  int
}

// NewNode creates a node reached via edge from parent (nil at a column's
// root), charging recoCost plus edge's own language-model path cost (zero
// for a dictionary or punctuation edge, OODWgt/NumWgt-weighted for an OOD
// or number edge) on top of parent's best cost.
func NewNode(parent *Node, recoCost int, edge langmodel.Edge, colIdx int) *Node {
	n := &Node{edge: edge, parent: parent, colIdx: colIdx}
	n.bestCost = recoCost + edgePathCost(edge)
	if parent != nil {
		n.bestCost += parent.BestCost()
	}
	return n
}

// edgePathCost is edge.PathCost(), or 0 for a nil edge (the search root).
func edgePathCost(edge langmodel.Edge) int {
	if edge == nil {
		return 0
	}
	return edge.PathCost()
}

// BestCost is the lowest total cost of any path from the search's start to
// this node.
func (n *Node) BestCost() int { return n.bestCost }

// LangModelEdge is the language-model edge this node was reached by.
func (n *Node) LangModelEdge() langmodel.Edge { return n.edge }

// ParentNode is the node in the previous column this one extends, or nil.
func (n *Node) ParentNode() *Node { return n.parent }

// ColIdx is the index of the search column this node lives in.
func (n *Node) ColIdx() int { return n.colIdx }

// UpdateParent replaces this node's parent/cost/edge if the new path is
// cheaper, matching SearchColumn's hash-merge semantics: nodes sharing
// language-model state keep only their lowest-cost incoming path. Returns
// whether the update was applied.
func (n *Node) UpdateParent(parent *Node, recoCost int, edge langmodel.Edge) bool {
	newCost := recoCost + edgePathCost(edge)
	if parent != nil {
		newCost += parent.BestCost()
	}
	if newCost >= n.bestCost {
		return false
	}
	n.parent = parent
	n.bestCost = newCost
	n.edge = edge
	return true
}

// PathString concatenates the edge strings from the root down to n.
func (n *Node) PathString() string {
	var runes []rune
	for cur := n; cur != nil; cur = cur.parent {
		if cur.edge == nil {
			continue
		}
		runes = append(cur.edge.EdgeString(), runes...)
	}
	return string(runes)
}

// NodeString is a short debug label: path so far plus the current cost.
func (n *Node) NodeString() string {
	return fmt.Sprintf("%s(%d)", n.PathString(), n.bestCost)
}

// scoreBins is the number of histogram buckets Prune spans [minCost,
// maxCost] with when deriving a pruning threshold -- a full sort is
// avoided in favor of one pass to bucket, one pass to find the cutoff.
const scoreBins = 1024

// nodeAllocChunk is unused directly (Go slices grow on their own) but kept
// as the documented column growth granularity the original allocates in.
const nodeAllocChunk = 1024

// mergeKey identifies a lattice node's language-model state for hash-based
// merging: nodes with the same parent reached via identical language-model
// state collapse into one, keeping only the cheapest path. OOD edges are
// deliberately excluded from this table (see AddNode) since their
// language-model state isn't unique per se.
type mergeKey struct {
	parent *Node
	hash   uint32
}

// Column is one segmentation-point's beam: the set of live nodes, plus a
// hash index for merging nodes that share language-model state.
type Column struct {
	nodes     []*Node
	byState   map[mergeKey][]*Node
	maxNodes  int
	minCost   int
	maxCost   int
}

// NewColumn creates an empty column capped at maxNodes live nodes after
// pruning.
func NewColumn(maxNodes int) *Column {
	return &Column{
		byState: make(map[mergeKey][]*Node),
		maxNodes: maxNodes,
	}
}

// NodeCount returns the number of live nodes in the column.
func (c *Column) NodeCount() int { return len(c.nodes) }

// Nodes exposes the column's live nodes in current order.
func (c *Column) Nodes() []*Node { return c.nodes }

// AddNode inserts a new node for edge reached from parent at recoCost,
// merging with an existing node of identical language-model state when one
// exists (keeping the cheaper path), or appending a fresh node otherwise.
// Returns the live node (new or merged-into).
func (c *Column) AddNode(parent *Node, recoCost int, edge langmodel.Edge, colIdx int) *Node {
	if edge != nil && !edge.IsOOD() {
		key := mergeKey{parent: parent, hash: edge.Hash()}
		for _, cand := range c.byState[key] {
			if cand.LangModelEdge() != nil && edge.Identity(cand.LangModelEdge()) {
				cand.UpdateParent(parent, recoCost, edge)
				return cand
			}
		}
		n := NewNode(parent, recoCost, edge, colIdx)
		c.nodes = append(c.nodes, n)
		c.byState[key] = append(c.byState[key], n)
		c.track(n)
		return n
	}

	n := NewNode(parent, recoCost, edge, colIdx)
	c.nodes = append(c.nodes, n)
	c.track(n)
	return n
}

func (c *Column) track(n *Node) {
	if len(c.nodes) == 1 {
		c.minCost, c.maxCost = n.bestCost, n.bestCost
		return
	}
	if n.bestCost < c.minCost {
		c.minCost = n.bestCost
	}
	if n.bestCost > c.maxCost {
		c.maxCost = n.bestCost
	}
}

// BestNode returns the column's lowest-cost node, or nil if empty.
func (c *Column) BestNode() *Node {
	if len(c.nodes) == 0 {
		return nil
	}
	best := c.nodes[0]
	for _, n := range c.nodes[1:] {
		if n.bestCost < best.bestCost {
			best = n
		}
	}
	return best
}

// Sort orders the column's nodes ascending by cost, stable on ties.
func (c *Column) Sort() {
	sort.SliceStable(c.nodes, func(i, j int) bool {
		return c.nodes[i].bestCost < c.nodes[j].bestCost
	})
}

// Prune discards every node whose cost exceeds a threshold chosen so that
// at most maxNodes survive: nodes bucket into scoreBins bins spanning
// [minCost, maxCost], and the threshold is the highest bin whose cumulative
// count from the cheapest bin still fits within maxNodes; nodes costing
// exactly the threshold are kept, in column order, only while fewer than
// maxNodes have survived. This trades exact
// top-K selection for one linear pass instead of a full sort, the same
// histogram-threshold approach the original uses to keep per-column pruning
// cheap at beam widths in the hundreds.
func (c *Column) Prune() {
	if c.maxNodes <= 0 || len(c.nodes) <= c.maxNodes {
		return
	}
	if c.maxCost <= c.minCost {
		return
	}

	span := c.maxCost - c.minCost
	binWidth := span/scoreBins + 1
	counts := make([]int, scoreBins)
	binOf := func(cost int) int {
		b := (cost - c.minCost) / binWidth
		if b < 0 {
			b = 0
		}
		if b >= scoreBins {
			b = scoreBins - 1
		}
		return b
	}
	for _, n := range c.nodes {
		counts[binOf(n.bestCost)]++
	}

	cum := 0
	threshold := c.maxCost
	for b := 0; b < scoreBins; b++ {
		if cum+counts[b] > c.maxNodes {
			threshold = c.minCost + b*binWidth
			break
		}
		cum += counts[b]
		threshold = c.minCost + (b+1)*binWidth
	}

	kept := make([]*Node, 0, c.maxNodes)
	for _, n := range c.nodes {
		if n.bestCost < threshold {
			kept = append(kept, n)
		}
	}
	for _, n := range c.nodes {
		if n.bestCost == threshold && len(kept) < c.maxNodes {
			kept = append(kept, n)
		}
	}
	c.nodes = kept
	c.rebuildIndex()
}

func (c *Column) rebuildIndex() {
	c.byState = make(map[mergeKey][]*Node)
	for _, n := range c.nodes {
		if n.edge == nil || n.edge.IsOOD() {
			continue
		}
		key := mergeKey{parent: n.parent, hash: n.edge.Hash()}
		c.byState[key] = append(c.byState[key], n)
	}
}

// String renders every live node's NodeString, one per line, for debugging.
func (c *Column) String() string {
	var b strings.Builder
	for _, n := range c.nodes {
		b.WriteString(n.NodeString())
		b.WriteByte('\n')
	}
	return b.String()
}
