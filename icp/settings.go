// Package icp implements the outer iterative-closest-point registration
// loop (spec.md §4.4): it transforms the working source, queries
// correspondences, invokes a transform solver, and composes the
// incremental step into an accumulated similarity transform until
// convergence or an iteration cap.
package icp

import "github.com/pcdreg/icp3d/pointcloud"

// Method selects which closed-form / linearized solver backs each
// iteration (spec.md §4.3).
type Method int

// The three registration variants spec.md §1 describes.
const (
	PointToPoint Method = iota
	PointToPlane
	PlaneToPlane
)

func (m Method) String() string {
	switch m {
	case PointToPoint:
		return "point-to-point"
	case PointToPlane:
		return "point-to-plane"
	case PlaneToPlane:
		return "plane-to-plane"
	default:
		return "unknown"
	}
}

// NNMethod selects the correspondence search strategy (spec.md §4.4).
type NNMethod int

// The two supported nearest-neighbor strategies.
const (
	KDTree NNMethod = iota
	BruteForce
)

// Observation is the per-iteration snapshot passed to an iteration
// callback (spec.md §6.1, §9). The snapshot is copied before the
// callback runs, so retaining it across iterations is safe.
type Observation struct {
	Iteration       int
	Error           float64
	Source          pointcloud.Cloud
	Correspondences []int
}

// Observer is the per-iteration observation hook (spec.md §9):
// "a single capability — accept an iteration snapshot". A nil Observer
// disables the hook entirely.
type Observer func(Observation)

// Settings recognizes the options of spec.md §6.1.
type Settings struct {
	Method        Method
	NNMethod      NNMethod
	Rotation      bool
	Translation   bool
	Scaling       bool
	MaxIterations int
	Tolerance     float64

	// NormalK is the neighborhood size normals.Estimate uses for target
	// (and, for plane-to-plane, per-iteration source) normal estimation.
	// Zero selects normals.DefaultK.
	NormalK int

	// Observer is invoked after each completed iteration (spec.md §4.4
	// step 4i). May be nil.
	Observer Observer
}

// DefaultSettings returns the defaults of spec.md §6.1: point-to-point,
// k-d tree correspondences, full rigid (no scaling) estimation, 50
// iterations, 1e-6 tolerance.
func DefaultSettings() Settings {
	return Settings{
		Method:        PointToPoint,
		NNMethod:      KDTree,
		Rotation:      true,
		Translation:   true,
		Scaling:       false,
		MaxIterations: 50,
		Tolerance:     1e-6,
	}
}
