package kdtree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func samplePoints() []r3.Vector {
	return []r3.Vector{
		{X: 0, Y: 0, Z: 0}, {X: 3, Y: 0, Z: 0}, {X: 0, Y: 2, Z: 0}, {X: 0, Y: 0, Z: 4},
		{X: 1, Y: 1, Z: 0}, {X: 2, Y: 0.5, Z: 1}, {X: 0.5, Y: 1.5, Z: 2}, {X: 1.5, Y: 2.5, Z: 3},
	}
}

func bruteNearest(points []r3.Vector, q r3.Vector) int {
	best := 0
	bestDist := squaredDist(points[0], q)
	for i, p := range points {
		d := squaredDist(p, q)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func TestNearestMatchesBruteForce(t *testing.T) {
	points := samplePoints()
	tree := Build(points)

	queries := []r3.Vector{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 3, Y: 0, Z: 0},
		{X: -5, Y: 10, Z: 2},
		{X: 1.4, Y: 1.4, Z: 1.4},
	}
	for _, q := range queries {
		got := tree.Nearest(q)
		want := bruteNearest(points, q)
		test.That(t, points[got], test.ShouldResemble, points[want])
	}
}

func TestNearestRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]r3.Vector, 200)
	for i := range points {
		points[i] = r3.Vector{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10}
	}
	tree := Build(points)

	for i := 0; i < 50; i++ {
		q := r3.Vector{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10}
		got := tree.Nearest(q)
		want := bruteNearest(points, q)
		gotDist := squaredDist(points[got], q)
		wantDist := squaredDist(points[want], q)
		test.That(t, gotDist, test.ShouldAlmostEqual, wantDist, 1e-9)
	}
}

func TestKNearestCountAndCorrectness(t *testing.T) {
	points := samplePoints()
	tree := Build(points)

	q := r3.Vector{X: 0, Y: 0, Z: 0}
	k := 3
	got := tree.KNearest(q, k)
	test.That(t, len(got), test.ShouldEqual, k)

	dists := make([]float64, len(points))
	order := make([]int, len(points))
	for i, p := range points {
		dists[i] = squaredDist(p, q)
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return dists[order[i]] < dists[order[j]] })
	wantSet := map[int]bool{}
	for _, idx := range order[:k] {
		wantSet[idx] = true
	}
	for _, idx := range got {
		test.That(t, wantSet[idx], test.ShouldBeTrue)
	}
}

func TestKNearestKExceedsSize(t *testing.T) {
	points := samplePoints()
	tree := Build(points)

	got := tree.KNearest(r3.Vector{}, len(points)+5)
	test.That(t, len(got), test.ShouldEqual, len(points))

	seen := map[int]bool{}
	for _, idx := range got {
		test.That(t, seen[idx], test.ShouldBeFalse)
		seen[idx] = true
	}
}

func TestEmptyTree(t *testing.T) {
	tree := Build(nil)
	test.That(t, tree.Nearest(r3.Vector{}), test.ShouldEqual, -1)
	test.That(t, tree.KNearest(r3.Vector{}, 5), test.ShouldBeNil)
}

func TestSinglePointTree(t *testing.T) {
	points := []r3.Vector{{X: 5, Y: 5, Z: 5}}
	tree := Build(points)
	test.That(t, tree.Nearest(r3.Vector{X: 0, Y: 0, Z: 0}), test.ShouldEqual, 0)
}
