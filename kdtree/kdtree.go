// Package kdtree implements the balanced, static 3D k-d tree used by the
// registration engine for nearest-neighbor correspondence search
// (spec.md §4.1). It is built once per target cloud and never mutated.
package kdtree

import (
	"container/heap"
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

const noChild = -1

// node is one element of the tree's flat node array. Left/Right are
// indices into Tree.nodes, or noChild for an absent child — this avoids a
// pointer-chasing allocation per node (spec.md §9 "owned tree vs. arena of
// nodes").
type node struct {
	pointIndex int
	axis       int
	left       int
	right      int
}

// Tree is a balanced static k-d tree over a borrowed view of points. The
// caller must not mutate or discard points for the tree's lifetime
// (spec.md §5, §9).
type Tree struct {
	points []r3.Vector
	nodes  []node
	root   int
}

// Build constructs a tree over points by median-splitting on axis = depth
// mod 3 at each level (spec.md §4.1). Building an empty tree is legal; it
// simply has no root, and Nearest/KNearest must not be called on it
// (precondition, per spec.md §4.1).
func Build(points []r3.Vector) *Tree {
	t := &Tree{
		points: points,
		nodes:  make([]node, 0, len(points)),
	}
	indices := make([]int, len(points))
	for i := range points {
		indices[i] = i
	}
	t.root = t.build(indices, 0)
	return t
}

func (t *Tree) build(indices []int, depth int) int {
	if len(indices) == 0 {
		return noChild
	}

	axis := depth % 3
	sort.SliceStable(indices, func(i, j int) bool {
		return coord(t.points[indices[i]], axis) < coord(t.points[indices[j]], axis)
	})

	mid := len(indices) / 2
	n := node{pointIndex: indices[mid], axis: axis, left: noChild, right: noChild}
	nodeIdx := len(t.nodes)
	t.nodes = append(t.nodes, n)

	left := t.build(indices[:mid], depth+1)
	right := t.build(indices[mid+1:], depth+1)
	t.nodes[nodeIdx].left = left
	t.nodes[nodeIdx].right = right

	return nodeIdx
}

func coord(p r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// Nearest returns the index, into the points the tree was built from, of
// the point closest to q under squared Euclidean distance. Calling Nearest
// on an empty tree is a precondition violation and its result is undefined
// (spec.md §4.1); this implementation returns -1 rather than panicking.
func (t *Tree) Nearest(q r3.Vector) int {
	if t.root == noChild {
		return -1
	}
	bestIdx := -1
	bestDist := math.MaxFloat64
	t.search(t.root, q, &bestIdx, &bestDist)
	return bestIdx
}

func (t *Tree) search(nodeIdx int, q r3.Vector, bestIdx *int, bestDist *float64) {
	if nodeIdx == noChild {
		return
	}
	n := &t.nodes[nodeIdx]
	p := t.points[n.pointIndex]
	d := squaredDist(p, q)
	if *bestIdx == -1 || d < *bestDist {
		*bestDist = d
		*bestIdx = n.pointIndex
	}

	diff := coord(q, n.axis) - coord(p, n.axis)
	first, second := n.left, n.right
	if diff >= 0 {
		first, second = n.right, n.left
	}

	t.search(first, q, bestIdx, bestDist)
	if diff*diff < *bestDist {
		t.search(second, q, bestIdx, bestDist)
	}
}

// KNearest returns the indices, into the points the tree was built from,
// of up to k points closest to q under squared Euclidean distance. Result
// order is unspecified (spec.md §4.1). If k >= the number of points in the
// tree, every index is returned exactly once.
func (t *Tree) KNearest(q r3.Vector, k int) []int {
	if k <= 0 || t.root == noChild {
		return nil
	}
	h := &maxHeap{}
	t.searchK(t.root, q, k, h)

	result := make([]int, h.Len())
	for i, c := range *h {
		result[i] = c.index
	}
	return result
}

func (t *Tree) searchK(nodeIdx int, q r3.Vector, k int, h *maxHeap) {
	if nodeIdx == noChild {
		return
	}
	n := &t.nodes[nodeIdx]
	p := t.points[n.pointIndex]
	d := squaredDist(p, q)

	if h.Len() < k {
		heap.Push(h, candidate{dist: d, index: n.pointIndex})
	} else if d < (*h)[0].dist {
		(*h)[0] = candidate{dist: d, index: n.pointIndex}
		heap.Fix(h, 0)
	}

	diff := coord(q, n.axis) - coord(p, n.axis)
	first, second := n.left, n.right
	if diff >= 0 {
		first, second = n.right, n.left
	}

	t.searchK(first, q, k, h)

	worst := math.MaxFloat64
	if h.Len() >= k {
		worst = (*h)[0].dist
	}
	if diff*diff < worst {
		t.searchK(second, q, k, h)
	}
}

func squaredDist(a, b r3.Vector) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// candidate is one entry of the k-NN max-heap: the farthest neighbor found
// so far sits at the root so it can be evicted in O(log k).
type candidate struct {
	dist  float64
	index int
}

type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }

func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
