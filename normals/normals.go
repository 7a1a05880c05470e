// Package normals estimates per-point surface normals from local
// neighborhood covariance (spec.md §4.2), the second of the two
// subsystems the registration engine depends on.
package normals

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/pcdreg/icp3d/kdtree"
)

// DefaultK is the default neighborhood size used when none is given.
const DefaultK = 10

// Estimate returns one unit normal per point of points, each computed from
// the covariance of its k nearest neighbors (including the point itself).
// If points has fewer than k elements, every point uses the full cloud as
// its neighborhood. Normal sign is not canonicalized — PCA determines
// direction only up to reflection (spec.md §4.2).
func Estimate(points []r3.Vector, k int) []r3.Vector {
	if k <= 0 {
		k = DefaultK
	}
	tree := kdtree.Build(points)
	normals := make([]r3.Vector, len(points))

	for i, p := range points {
		neighbors := tree.KNearest(p, k)
		normals[i] = estimateOne(points, neighbors)
	}
	return normals
}

func estimateOne(points []r3.Vector, neighbors []int) r3.Vector {
	var centroid r3.Vector
	for _, idx := range neighbors {
		centroid = centroid.Add(points[idx])
	}
	centroid = centroid.Mul(1.0 / float64(len(neighbors)))

	var cov mat.Dense
	cov.CloneFrom(mat.NewDense(3, 3, nil))
	for _, idx := range neighbors {
		d := points[idx].Sub(centroid)
		dv := []float64{d.X, d.Y, d.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov.Set(r, c, cov.At(r, c)+dv[r]*dv[c])
			}
		}
	}

	sym := mat.NewSymDense(3, nil)
	for r := 0; r < 3; r++ {
		for c := r; c < 3; c++ {
			sym.SetSym(r, c, cov.At(r, c))
		}
	}

	var eig mat.EigenSym
	// Degenerate (near-singular) covariance is not an error (spec.md §4.2,
	// §7): Factorize failing leaves eig zero-valued, and the fallback
	// below returns an arbitrary unit direction, which is exactly the
	// contract the spec calls for.
	ok := eig.Factorize(sym, true)
	if !ok {
		return r3.Vector{X: 1, Y: 0, Z: 0}
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	// EigenSym returns eigenvalues in ascending order; column 0 is the
	// eigenvector of the smallest eigenvalue, i.e. the normal direction.
	n := r3.Vector{X: vectors.At(0, 0), Y: vectors.At(1, 0), Z: vectors.At(2, 0)}
	if n.Norm() == 0 {
		return r3.Vector{X: 1, Y: 0, Z: 0}
	}
	return n.Normalize()
}
