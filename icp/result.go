package icp

import (
	"github.com/golang/geo/r3"

	"github.com/pcdreg/icp3d/transform"
)

// Result is the accumulated similarity transform spec.md §3 describes:
// Rotation is a proper rotation at every call boundary, Scale is 1 unless
// scaling was enabled, Iterations and Error reflect the terminating
// iteration (spec.md §4.4, §9 — early convergence records the iteration
// index at which it converged, not index+1).
type Result struct {
	Rotation    transform.Rotation
	Translation r3.Vector
	Scale       float64
	Iterations  int
	Error       float64
}
