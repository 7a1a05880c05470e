// Package transform implements the three closed-form / linearized
// least-squares solvers that turn a fixed correspondence set into an
// incremental (rotation, translation, scale) step (spec.md §4.3).
package transform

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Rotation is a proper 3×3 rotation matrix given as three orthonormal row
// vectors — the same row-vector shape pointcloud.ApplySimilarity consumes,
// so solvers never need to hand callers a gonum matrix.
type Rotation [3]r3.Vector

// Identity is the identity rotation.
var Identity = Rotation{
	{X: 1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1},
}

// Apply rotates v: Rotation * v.
func (r Rotation) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{X: r[0].Dot(v), Y: r[1].Dot(v), Z: r[2].Dot(v)}
}

// Mul composes rotations: (r ∘ other)(v) = r(other(v)), i.e. returns r*other.
func (r Rotation) Mul(other Rotation) Rotation {
	cols := [3]r3.Vector{
		{X: other[0].X, Y: other[1].X, Z: other[2].X},
		{X: other[0].Y, Y: other[1].Y, Z: other[2].Y},
		{X: other[0].Z, Y: other[1].Z, Z: other[2].Z},
	}
	return Rotation{
		{X: r[0].Dot(cols[0]), Y: r[0].Dot(cols[1]), Z: r[0].Dot(cols[2])},
		{X: r[1].Dot(cols[0]), Y: r[1].Dot(cols[1]), Z: r[1].Dot(cols[2])},
		{X: r[2].Dot(cols[0]), Y: r[2].Dot(cols[1]), Z: r[2].Dot(cols[2])},
	}
}

func rotationFromDense(m *mat.Dense) Rotation {
	return Rotation{
		{X: m.At(0, 0), Y: m.At(0, 1), Z: m.At(0, 2)},
		{X: m.At(1, 0), Y: m.At(1, 1), Z: m.At(1, 2)},
		{X: m.At(2, 0), Y: m.At(2, 1), Z: m.At(2, 2)},
	}
}

// orthogonalProcrustes returns R = V Uᵀ from the full SVD of H = U Σ Vᵀ,
// with the reflection correction of spec.md §4.3.1: if det R < 0, negate
// V's third column and recompute. This backs the point-to-point
// cross-covariance solve, matching how this corpus's rimage/transform
// package funnels SVD-based rotation recovery through one
// performSVD-style helper.
func orthogonalProcrustes(h *mat.Dense) Rotation {
	var svd mat.SVD
	ok := svd.Factorize(h, mat.SVDFull)
	if !ok {
		return Identity
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())

	if mat.Det(&r) < 0 {
		v.Set(0, 2, -v.At(0, 2))
		v.Set(1, 2, -v.At(1, 2))
		v.Set(2, 2, -v.At(2, 2))
		r.Mul(&v, u.T())
	}

	return rotationFromDense(&r)
}

// reorthogonalize projects an approximate (small-angle-linearized) rotation
// matrix back onto SO(3): R = U Vᵀ from its SVD, with the det-sign
// correction of spec.md §4.3.2 applied to U's third column. This is the
// mirror image of orthogonalProcrustes's V Uᵀ + V-column correction —
// the two solvers use opposite operand order, matching
// original_source/src/icp.cpp's compute_transform (V*Uᵀ) versus
// compute_transform_point_to_plane / _plane_to_plane (U*Vᵀ).
func reorthogonalize(approx *mat.Dense) Rotation {
	var svd mat.SVD
	ok := svd.Factorize(approx, mat.SVDFull)
	if !ok {
		return Identity
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())

	if mat.Det(&r) < 0 {
		u.Set(0, 2, -u.At(0, 2))
		u.Set(1, 2, -u.At(1, 2))
		u.Set(2, 2, -u.At(2, 2))
		r.Mul(&u, v.T())
	}

	return rotationFromDense(&r)
}

// solveNormalEquations solves (Σ aᵢaᵢᵀ) x = Σ aᵢbᵢ for the 6-variable
// linearized point-to-plane / plane-to-plane system (spec.md §4.3.2). ATA
// is symmetric positive semi-definite by construction; a Cholesky
// factorization (gonum's LDLT-equivalent for mat.SymDense) is tried
// first, and on the degenerate case the spec explicitly allows (singular
// normal equations, spec.md §7) this falls back to a minimum-norm
// solve via the SVD pseudo-inverse — the same SVD-based recovery this
// corpus already uses elsewhere for ill-conditioned systems, rather than
// introducing a second numerical method.
func solveNormalEquations(ata *mat.SymDense, atb *mat.VecDense) *mat.VecDense {
	var chol mat.Cholesky
	if ok := chol.Factorize(ata); ok {
		var x mat.VecDense
		if err := chol.SolveVecTo(&x, atb); err == nil {
			return &x
		}
	}
	return pseudoInverseSolve(ata, atb)
}

const singularValueEpsilon = 1e-10

func pseudoInverseSolve(ata *mat.SymDense, atb *mat.VecDense) *mat.VecDense {
	n, _ := ata.Dims()
	var svd mat.SVD
	dense := mat.DenseCopyOf(ata)
	if !svd.Factorize(dense, mat.SVDFull) {
		return mat.NewVecDense(n, nil)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	var utb mat.VecDense
	utb.MulVec(u.T(), atb)

	y := mat.NewVecDense(n, nil)
	for i, sigma := range values {
		if sigma > singularValueEpsilon {
			y.SetVec(i, utb.AtVec(i)/sigma)
		}
	}

	x := mat.NewVecDense(n, nil)
	x.MulVec(&v, y)
	return x
}
