package transform

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/pcdreg/icp3d/pointcloud"
)

// PointToPlane computes the linearized least-squares step minimizing
// Σᵢ ((R·sᵢ + t − tᵢ)·nᵢ)² under a small-angle approximation of R
// (spec.md §4.3.2). targetNormals has one entry per point of tgt;
// correspondences selects which target normal backs each source point.
// The rotation/translation/scaling settings gates are not honored here —
// this solver always estimates full 6-DOF (spec.md §9) — and scale is
// always 1.
func PointToPlane(src pointcloud.Cloud, tgt pointcloud.Cloud, correspondences []int, targetNormals pointcloud.Normals) (Rotation, r3.Vector) {
	picked := pointcloud.Select(tgt, correspondences)
	pickedNormals := pointcloud.Normals(pointcloud.Select(pointcloud.Cloud(targetNormals), correspondences))

	ata, atb := accumulateLinearSystem(src, picked, pickedNormals)
	return solveLinearizedRotation(ata, atb)
}

// accumulateLinearSystem builds the 6×6 normal equations Σ aᵢaᵢᵀ, Σ aᵢbᵢ
// for aᵢ = [sᵢ×nᵢ, nᵢ] and bᵢ = nᵢ·(tᵢ−sᵢ) (spec.md §4.3.2). It is shared
// between PointToPlane and PlaneToPlane, which differ only in how they
// compute the per-correspondence normal.
func accumulateLinearSystem(src, tgt pointcloud.Cloud, normals pointcloud.Normals) (*mat.SymDense, *mat.VecDense) {
	ata := mat.NewSymDense(6, nil)
	atb := mat.NewVecDense(6, nil)

	for i := range src {
		s := src[i]
		ti := tgt[i]
		n := normals[i]
		if n == (r3.Vector{}) {
			// Zero normal marks a correspondence dropped by the
			// plane-to-plane cancellation policy (spec.md §4.3.3); skip
			// its contribution to the accumulation entirely.
			continue
		}

		cross := s.Cross(n)
		a := [6]float64{cross.X, cross.Y, cross.Z, n.X, n.Y, n.Z}
		b := n.Dot(ti.Sub(s))

		for r := 0; r < 6; r++ {
			atb.SetVec(r, atb.AtVec(r)+a[r]*b)
			for c := r; c < 6; c++ {
				ata.SetSym(r, c, ata.At(r, c)+a[r]*a[c])
			}
		}
	}

	return ata, atb
}

// solveLinearizedRotation solves the 6-variable normal equations, forms
// the small-angle rotation matrix from the first three components, and
// re-orthogonalizes it onto SO(3) (spec.md §4.3.2).
func solveLinearizedRotation(ata *mat.SymDense, atb *mat.VecDense) (Rotation, r3.Vector) {
	x := solveNormalEquations(ata, atb)

	rx, ry, rz := x.AtVec(0), x.AtVec(1), x.AtVec(2)
	t := r3.Vector{X: x.AtVec(3), Y: x.AtVec(4), Z: x.AtVec(5)}

	approx := mat.NewDense(3, 3, []float64{
		1, -rz, ry,
		rz, 1, -rx,
		-ry, rx, 1,
	})

	return reorthogonalize(approx), t
}
