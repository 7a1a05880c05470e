package transform

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/pcdreg/icp3d/pointcloud"
)

// ProcrustesOptions gates which parts of the point-to-point solve run
// (spec.md §4.3.1). These flags are honored only by PointToPoint — the
// point-to-plane and plane-to-plane solvers always estimate full 6-DOF
// and silently ignore them (spec.md §9).
type ProcrustesOptions struct {
	Rotation    bool
	Translation bool
	Scaling     bool
}

// PointToPoint computes the closed-form Procrustes / Besl–McKay step for a
// fixed correspondence set (spec.md §4.3.1). src and the target points
// picked out by correspondences must have equal, non-empty length; that
// precondition is the caller's responsibility (icp.Register enforces it
// once per registration call rather than once per solver call).
func PointToPoint(src pointcloud.Cloud, tgt pointcloud.Cloud, correspondences []int, opts ProcrustesOptions) (Rotation, r3.Vector, float64) {
	picked := pointcloud.Select(tgt, correspondences)

	centroidSrc := src.Centroid()
	centroidTgt := picked.Centroid()

	r := Identity
	scale := 1.0

	if opts.Rotation {
		h := mat.NewDense(3, 3, nil)
		for i := range src {
			ds := src[i].Sub(centroidSrc)
			dt := picked[i].Sub(centroidTgt)
			for row := 0; row < 3; row++ {
				for col := 0; col < 3; col++ {
					h.Set(row, col, h.At(row, col)+component(ds, row)*component(dt, col))
				}
			}
		}
		r = orthogonalProcrustes(h)

		if opts.Scaling {
			var num, den float64
			for i := range src {
				ds := src[i].Sub(centroidSrc)
				dt := picked[i].Sub(centroidTgt)
				num += dt.Dot(r.Apply(ds))
				den += ds.Dot(ds)
			}
			if den > 0 {
				scale = num / den
			}
		}
	}

	var t r3.Vector
	if opts.Translation {
		t = centroidTgt.Sub(r.Apply(centroidSrc).Mul(scale))
	}

	return r, t, scale
}

func component(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
