// Package main runs the three registration methods against a synthetic
// hemisphere point cloud and prints the recovered transform for each.
package main

import (
	"flag"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/pcdreg/icp3d/icp"
	"github.com/pcdreg/icp3d/pointcloud"
	"github.com/pcdreg/icp3d/transform"
)

func makeHemisphere(r float64, n int) pointcloud.Cloud {
	var pts pointcloud.Cloud
	for i := 0; i <= n; i++ {
		phi := math.Pi / 2.0 * float64(i) / float64(n)
		nTheta := int(math.Max(1, float64(n)*math.Sin(phi)))
		for j := 0; j < nTheta; j++ {
			theta := 2.0 * math.Pi * float64(j) / float64(nTheta)
			pts = append(pts, r3.Vector{
				X: r * math.Sin(phi) * math.Cos(theta),
				Y: r * math.Sin(phi) * math.Sin(theta),
				Z: r * math.Cos(phi),
			})
		}
	}
	return pts
}

func printResult(name string, res icp.Result) {
	fmt.Printf("=== %s ===\n", name)
	fmt.Printf("  Iterations: %d\n", res.Iterations)
	fmt.Printf("  Error:      %.2e\n", res.Error)
	fmt.Printf("  Rotation:\n")
	rows := [3]r3.Vector(res.Rotation)
	for _, row := range rows {
		fmt.Printf("    [%8.5f %8.5f %8.5f]\n", row.X, row.Y, row.Z)
	}
	fmt.Printf("  Translation: [%.5f, %.5f, %.5f]\n\n", res.Translation.X, res.Translation.Y, res.Translation.Z)
}

func main() {
	radius := flag.Float64("radius", 2.0, "hemisphere radius")
	n := flag.Int("n", 10, "hemisphere latitude subdivisions")
	maxIter := flag.Int("max-iterations", 100, "maximum iterations per method")
	flag.Parse()

	target := makeHemisphere(*radius, *n)
	fmt.Printf("Generated %d points on a hemisphere\n\n", len(target))

	angle := math.Pi / 12.0
	c, s := math.Cos(angle), math.Sin(angle)
	rot := transform.Rotation{
		{X: c, Y: -s, Z: 0},
		{X: s, Y: c, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	t := r3.Vector{X: 0.3, Y: 0.2, Z: 0.1}

	source := make(pointcloud.Cloud, len(target))
	for i, p := range target {
		// source = Rᵀ * (target - t)
		d := p.Sub(t)
		source[i] = r3.Vector{
			X: rot[0].X*d.X + rot[1].X*d.Y + rot[2].X*d.Z,
			Y: rot[0].Y*d.X + rot[1].Y*d.Y + rot[2].Y*d.Z,
			Z: rot[0].Z*d.X + rot[1].Z*d.Y + rot[2].Z*d.Z,
		}
	}

	fmt.Printf("Ground truth:\n")
	fmt.Printf("  Rotation:    %.1f deg around Z\n", angle*180.0/math.Pi)
	fmt.Printf("  Translation: [%.3f, %.3f, %.3f]\n\n", t.X, t.Y, t.Z)

	for _, method := range []struct {
		name   string
		method icp.Method
	}{
		{"Point-to-Point", icp.PointToPoint},
		{"Point-to-Plane", icp.PointToPlane},
		{"Plane-to-Plane", icp.PlaneToPlane},
	} {
		settings := icp.DefaultSettings()
		settings.Method = method.method
		settings.MaxIterations = *maxIter

		res, err := icp.Register(source, target, settings, nil, nil, nil)
		if err != nil {
			panic(err)
		}
		printResult(method.name, res)
	}
}
