package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReadXYZFile opens path and parses it as the text point-cloud format
// (spec.md §6.2): one "x y z" triple per non-empty, non-comment line.
// Comment lines start with '#' before any whitespace stripping; blank
// lines are skipped. The only errors this returns are I/O failures to
// open or read the file — per-line parse failures are silently skipped, matching
// original_source/src/pointcloud_io.cpp.
func ReadXYZFile(path string) (Cloud, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrapf(err, "pointcloud: cannot open file %q", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadXYZ(f)
}

// ReadXYZ parses the text point-cloud format from r. See ReadXYZFile.
func ReadXYZ(r io.Reader) (Cloud, error) {
	var cloud Cloud
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		z, errZ := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil || errZ != nil {
			continue
		}
		cloud = append(cloud, r3.Vector{X: x, Y: y, Z: z})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "pointcloud: reading point cloud")
	}
	return cloud, nil
}

// WriteXYZFile writes cloud to path as the text point-cloud format: a
// leading "# x y z" comment line, then one fixed-point "x y z" triple per
// point. The only errors are I/O failures to create or write the file, matching
// original_source/src/pointcloud_io.cpp's save_pointcloud.
func WriteXYZFile(path string, cloud Cloud) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "pointcloud: cannot create file %q", path)
	}
	defer f.Close() //nolint:errcheck

	return WriteXYZ(f, cloud)
}

// WriteXYZ writes cloud to w in the text point-cloud format. Six decimal
// digits of fixed-point precision are used, enough to satisfy the
// round-trip fidelity the format promises (spec.md §8).
func WriteXYZ(w io.Writer, cloud Cloud) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# x y z\n"); err != nil {
		return errors.Wrap(err, "pointcloud: writing point cloud")
	}
	for _, p := range cloud {
		if _, err := fmt.Fprintf(bw, "%.6f %.6f %.6f\n", p.X, p.Y, p.Z); err != nil {
			return errors.Wrap(err, "pointcloud: writing point cloud")
		}
	}
	return bw.Flush()
}
