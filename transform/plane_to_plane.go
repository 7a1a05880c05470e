package transform

import (
	"github.com/golang/geo/r3"

	"github.com/pcdreg/icp3d/pointcloud"
)

// cancellationEpsilon is the threshold below which a blended source/target
// normal is considered degenerate and its correspondence is dropped
// (spec.md §4.3.3, §9 "Open question — plane-to-plane normal
// cancellation"). Before blending, a source normal pointing against its
// target normal is flipped, so opposed unit normals do not cancel; after
// that flip only (near-)zero input normals fall below this threshold.
const cancellationEpsilon = 1e-8

// PlaneToPlane computes the symmetric ICP step: identical machinery to
// PointToPlane, but each correspondence's normal blends the source and
// target normals (spec.md §4.3.3). sourceNormals has one entry per point
// of src (icp.Register re-estimates them from the working source each
// iteration, using caller-supplied source normals on the first iteration
// only); targetNormals has one entry per point of tgt.
func PlaneToPlane(src pointcloud.Cloud, tgt pointcloud.Cloud, correspondences []int, sourceNormals, targetNormals pointcloud.Normals) (Rotation, r3.Vector) {
	picked := pointcloud.Select(tgt, correspondences)
	pickedTargetNormals := pointcloud.Normals(pointcloud.Select(pointcloud.Cloud(targetNormals), correspondences))

	combined := make(pointcloud.Normals, len(src))
	for i := range src {
		ns := sourceNormals[i]
		if ns.Dot(pickedTargetNormals[i]) < 0 {
			ns = ns.Mul(-1)
		}
		sum := ns.Add(pickedTargetNormals[i])
		if sum.Norm() < cancellationEpsilon {
			combined[i] = r3.Vector{} // dropped: see cancellationEpsilon doc
			continue
		}
		combined[i] = sum.Normalize()
	}

	ata, atb := accumulateLinearSystem(src, picked, combined)
	return solveLinearizedRotation(ata, atb)
}
