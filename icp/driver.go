package icp

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pcdreg/icp3d/kdtree"
	"github.com/pcdreg/icp3d/normals"
	"github.com/pcdreg/icp3d/pointcloud"
	"github.com/pcdreg/icp3d/transform"
)

// Register runs the ICP loop of spec.md §4.4: it estimates the rigid (or,
// with Scaling enabled, similarity) transform that best aligns source
// onto target under settings. sourceNormals and targetNormals are
// optional precomputed normals (spec.md §6.1); either may be nil.
//
// source and target must be non-empty — the only error Register returns
// is that precondition failing (spec.md §4.3 leaves the empty-cloud case
// undefined; this implementation chooses to fail fast instead). All other
// numerical degeneracies (singular normal equations, zero-variance
// covariance, anti-parallel normal pairs) are absorbed into a best-effort
// step rather than surfaced as an error (spec.md §7).
func Register(
	source, target pointcloud.Cloud,
	settings Settings,
	sourceNormals, targetNormals pointcloud.Normals,
	logger *zap.SugaredLogger,
) (Result, error) {
	if err := pointcloud.RequireNonEmpty(source); err != nil {
		return Result{}, errors.Wrap(err, "icp: source")
	}
	if err := pointcloud.RequireNonEmpty(target); err != nil {
		return Result{}, errors.Wrap(err, "icp: target")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	k := settings.NormalK
	if k <= 0 {
		k = normals.DefaultK
	}

	needsNormals := settings.Method == PointToPlane || settings.Method == PlaneToPlane
	if needsNormals && targetNormals == nil {
		targetNormals = pointcloud.Normals(normals.Estimate(target, k))
	}

	var tree *kdtree.Tree
	if settings.NNMethod == KDTree {
		tree = kdtree.Build(target)
	}

	working := source.Clone()
	result := Result{Rotation: transform.Identity, Scale: 1}

	prevError := math.Inf(1)
	currentSourceNormals := sourceNormals

	for iter := 0; iter < settings.MaxIterations; iter++ {
		correspondences := correspond(working, target, tree, settings.NNMethod)

		errorVal := meanSquaredResidual(working, target, correspondences)

		if math.Abs(prevError-errorVal) < settings.Tolerance {
			result.Error = errorVal
			result.Iterations = iter
			logger.Debugw("icp converged", "iterations", iter, "error", errorVal)
			return result, nil
		}
		prevError = errorVal

		var deltaR transform.Rotation
		var deltaT r3.Vector
		deltaS := 1.0

		switch settings.Method {
		case PointToPoint:
			deltaR, deltaT, deltaS = transform.PointToPoint(working, target, correspondences, transform.ProcrustesOptions{
				Rotation:    settings.Rotation,
				Translation: settings.Translation,
				Scaling:     settings.Scaling,
			})
		case PointToPlane:
			deltaR, deltaT = transform.PointToPlane(working, target, correspondences, targetNormals)
		case PlaneToPlane:
			if iter > 0 || currentSourceNormals == nil {
				currentSourceNormals = pointcloud.Normals(normals.Estimate(working, k))
			}
			deltaR, deltaT = transform.PlaneToPlane(working, target, correspondences, currentSourceNormals, targetNormals)
		default:
			logger.Warnw("icp: unknown method, treating as point-to-point", "method", int(settings.Method))
			deltaR, deltaT, deltaS = transform.PointToPoint(working, target, correspondences, transform.ProcrustesOptions{
				Rotation:    settings.Rotation,
				Translation: settings.Translation,
				Scaling:     settings.Scaling,
			})
		}

		result.Rotation = deltaR.Mul(result.Rotation)
		result.Translation = deltaR.Apply(result.Translation).Mul(deltaS).Add(deltaT)
		result.Scale *= deltaS

		rows := [3]r3.Vector(deltaR)
		pointcloud.ApplySimilarityInPlace(working, rows, deltaT, deltaS)

		result.Iterations = iter + 1
		result.Error = errorVal

		if settings.Observer != nil {
			settings.Observer(Observation{
				Iteration:       iter,
				Error:           errorVal,
				Source:          working.Clone(),
				Correspondences: append([]int(nil), correspondences...),
			})
		}
	}

	logger.Debugw("icp reached iteration cap", "iterations", result.Iterations, "error", result.Error)
	return result, nil
}

func correspond(working, target pointcloud.Cloud, tree *kdtree.Tree, method NNMethod) []int {
	indices := make([]int, len(working))
	if method == KDTree {
		for i, p := range working {
			indices[i] = tree.Nearest(p)
		}
		return indices
	}
	for i, p := range working {
		indices[i] = bruteNearest(target, p)
	}
	return indices
}

func bruteNearest(target pointcloud.Cloud, q r3.Vector) int {
	best := 0
	bestDist := math.MaxFloat64
	for j, p := range target {
		d := p.Sub(q)
		dist := d.Dot(d)
		if dist < bestDist {
			bestDist = dist
			best = j
		}
	}
	return best
}

func meanSquaredResidual(working, target pointcloud.Cloud, correspondences []int) float64 {
	var sum float64
	for i, p := range working {
		d := p.Sub(target[correspondences[i]])
		sum += d.Dot(d)
	}
	return sum / float64(len(working))
}
