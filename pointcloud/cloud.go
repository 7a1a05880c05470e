// Package pointcloud defines the ordered 3D point and normal slices that
// flow through the registration engine, plus their text-file I/O.
package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Cloud is an ordered sequence of points. Order is significant only insofar
// as a Cloud and its parallel Normals (or a Correspondence set) share
// indices — the zero value is an empty cloud, not a null one.
type Cloud []r3.Vector

// Normals is a parallel slice of unit 3-vectors, one per point of some
// Cloud. Sign is not canonicalized; PCA determines a normal's direction
// only up to reflection (see normals.Estimate).
type Normals []r3.Vector

// Clone returns an independent copy, so callers may freely mutate it without
// affecting the original (the registration driver relies on this to build
// its private working copy of the source).
func (c Cloud) Clone() Cloud {
	out := make(Cloud, len(c))
	copy(out, c)
	return out
}

// Centroid returns the mean of all points. Centroid of an empty cloud is
// the zero vector; callers must not rely on that as a meaningful centroid.
func (c Cloud) Centroid() r3.Vector {
	var sum r3.Vector
	for _, p := range c {
		sum = sum.Add(p)
	}
	if len(c) == 0 {
		return sum
	}
	return sum.Mul(1.0 / float64(len(c)))
}

// Select gathers the points of c named by indices, in order, for building
// the correspondence-picked target subset used by a solver.
func Select(c Cloud, indices []int) Cloud {
	out := make(Cloud, len(indices))
	for i, idx := range indices {
		out[i] = c[idx]
	}
	return out
}

// ApplySimilarity returns a new cloud with p ↦ s·R·p + t applied to every
// point, where R is given as three orthonormal row vectors.
func ApplySimilarity(c Cloud, rows [3]r3.Vector, t r3.Vector, s float64) Cloud {
	out := make(Cloud, len(c))
	for i, p := range c {
		out[i] = r3.Vector{X: rows[0].Dot(p), Y: rows[1].Dot(p), Z: rows[2].Dot(p)}.Mul(s).Add(t)
	}
	return out
}

// ApplySimilarityInPlace mutates w in place, the per-iteration hot path used
// by the registration driver so it need not reallocate its working buffer
// every step.
func ApplySimilarityInPlace(w Cloud, rows [3]r3.Vector, t r3.Vector, s float64) {
	for i, p := range w {
		w[i] = r3.Vector{X: rows[0].Dot(p), Y: rows[1].Dot(p), Z: rows[2].Dot(p)}.Mul(s).Add(t)
	}
}

// errEmptyCloud is returned by RequireNonEmpty for an empty cloud
// (spec.md §4.3, §6.1); the transform solvers themselves do not check for
// the empty case.
var errEmptyCloud = errors.New("pointcloud: cloud is empty")

// RequireNonEmpty is a small guard helper; icp.Register uses it to reject
// an empty source or target cloud.
func RequireNonEmpty(c Cloud) error {
	if len(c) == 0 {
		return errEmptyCloud
	}
	return nil
}
