package lattice

import (
	"testing"

	"github.com/cube-ocr/cube/langmodel"
)

// fakeEdge is a minimal langmodel.Edge for lattice tests.
type fakeEdge struct {
	classID  int
	str      []rune
	ood      bool
	eow      bool
	terminal bool
	hash     uint32
	pathCost int
}

func (e *fakeEdge) ClassID() int       { return e.classID }
func (e *fakeEdge) EdgeString() []rune { return e.str }
func (e *fakeEdge) IsRoot() bool       { return false }
func (e *fakeEdge) IsEOW() bool        { return e.eow }
func (e *fakeEdge) IsOOD() bool        { return e.ood }
func (e *fakeEdge) IsTerminal() bool   { return e.terminal }
func (e *fakeEdge) Hash() uint32       { return e.hash }
func (e *fakeEdge) Identity(other langmodel.Edge) bool {
	o, ok := other.(*fakeEdge)
	return ok && o.hash == e.hash
}
func (e *fakeEdge) PathCost() int { return e.pathCost }

func TestNewNodeAccumulatesCost(t *testing.T) {
	root := NewNode(nil, 0, nil, -1)
	child := NewNode(root, 50, &fakeEdge{classID: 1, str: []rune("a"), hash: 1}, 0)
	if child.BestCost() != 50 {
		t.Fatalf("BestCost() = %d, want 50", child.BestCost())
	}
	if child.ParentNode() != root {
		t.Fatal("ParentNode() mismatch")
	}
}

func TestNewNodeAccumulatesEdgePathCost(t *testing.T) {
	root := NewNode(nil, 0, nil, -1)
	child := NewNode(root, 50, &fakeEdge{classID: 1, str: []rune("a"), hash: 1, pathCost: 100000}, 0)
	if child.BestCost() != 50+100000 {
		t.Fatalf("BestCost() = %d, want %d (recoCost + edge.PathCost())", child.BestCost(), 50+100000)
	}
}

func TestUpdateParentAccumulatesEdgePathCost(t *testing.T) {
	col := NewColumn(10)
	root := NewNode(nil, 0, nil, -1)
	expensive := &fakeEdge{classID: 1, str: []rune("a"), hash: 9, pathCost: 100000}
	cheaper := &fakeEdge{classID: 1, str: []rune("a"), hash: 9, pathCost: 100000}

	n1 := col.AddNode(root, 10, expensive, 0)
	n2 := col.AddNode(root, 5, cheaper, 0)

	if n1 != n2 {
		t.Fatal("expected identical language-model state to merge into one node")
	}
	if n2.BestCost() != 5+100000 {
		t.Fatalf("BestCost() = %d, want %d", n2.BestCost(), 5+100000)
	}
}

func TestAddNodeMergesIdenticalState(t *testing.T) {
	col := NewColumn(10)
	root := NewNode(nil, 0, nil, -1)
	e1 := &fakeEdge{classID: 1, str: []rune("a"), hash: 42}
	e2 := &fakeEdge{classID: 1, str: []rune("a"), hash: 42}

	n1 := col.AddNode(root, 100, e1, 0)
	n2 := col.AddNode(root, 20, e2, 0)

	if n1 != n2 {
		t.Fatal("expected identical language-model state to merge into one node")
	}
	if col.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1 after merge", col.NodeCount())
	}
	if n2.BestCost() != 20 {
		t.Fatalf("BestCost() = %d, want 20 (cheaper path wins)", n2.BestCost())
	}
}

func TestAddNodeNeverMergesOODEdges(t *testing.T) {
	col := NewColumn(10)
	root := NewNode(nil, 0, nil, -1)
	e1 := &fakeEdge{classID: 1, str: []rune("a"), hash: 7, ood: true}
	e2 := &fakeEdge{classID: 1, str: []rune("a"), hash: 7, ood: true}

	col.AddNode(root, 10, e1, 0)
	col.AddNode(root, 10, e2, 0)

	if col.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2 (OOD edges must not merge)", col.NodeCount())
	}
}

func TestBestNodePicksLowestCost(t *testing.T) {
	col := NewColumn(10)
	root := NewNode(nil, 0, nil, -1)
	col.AddNode(root, 500, &fakeEdge{classID: 1, str: []rune("a"), hash: 1}, 0)
	cheap := col.AddNode(root, 5, &fakeEdge{classID: 2, str: []rune("b"), hash: 2}, 0)

	if col.BestNode() != cheap {
		t.Fatal("BestNode() did not return the cheapest node")
	}
}

func TestPruneKeepsWithinBeamWidth(t *testing.T) {
	col := NewColumn(3)
	root := NewNode(nil, 0, nil, -1)
	for i := 0; i < 10; i++ {
		col.AddNode(root, i*100, &fakeEdge{classID: i, str: []rune{rune('a' + i)}, hash: uint32(i)}, 0)
	}
	col.Prune()
	if col.NodeCount() > 3 {
		t.Fatalf("NodeCount() = %d after Prune, want <= 3", col.NodeCount())
	}
	// the cheapest node must always survive pruning.
	best := col.BestNode()
	if best == nil || best.BestCost() != 0 {
		t.Fatalf("expected the cheapest node to survive pruning, got %v", best)
	}
}

func TestSortOrdersAscendingByCost(t *testing.T) {
	col := NewColumn(10)
	root := NewNode(nil, 0, nil, -1)
	col.AddNode(root, 300, &fakeEdge{classID: 1, str: []rune("a"), hash: 1}, 0)
	col.AddNode(root, 10, &fakeEdge{classID: 2, str: []rune("b"), hash: 2}, 0)
	col.AddNode(root, 150, &fakeEdge{classID: 3, str: []rune("c"), hash: 3}, 0)
	col.Sort()

	nodes := col.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i].BestCost() < nodes[i-1].BestCost() {
			t.Fatalf("nodes not sorted ascending: %v", nodes)
		}
	}
}

func TestPathStringConcatenatesEdgeStrings(t *testing.T) {
	root := NewNode(nil, 0, nil, -1)
	n1 := NewNode(root, 0, &fakeEdge{str: []rune("c")}, 0)
	n2 := NewNode(n1, 0, &fakeEdge{str: []rune("a")}, 1)
	n3 := NewNode(n2, 0, &fakeEdge{str: []rune("t")}, 2)

	if got := n3.PathString(); got != "cat" {
		t.Fatalf("PathString() = %q, want %q", got, "cat")
	}
}
