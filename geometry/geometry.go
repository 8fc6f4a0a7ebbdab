// Package geometry holds the planar primitives that electrode layouts are
// built from: field-point vectors, closed polygonal paths, and the small
// amount of shoelace arithmetic (area, centroid, orientation) the kernel
// and electrode layers need.
package geometry

import (
	"fmt"
	"math"
)

// Vec3 is a Cartesian field point. Index 2 is the height above the
// electrode plane.
type Vec3 [3]float64

// Vec2 is an in-plane point or vertex.
type Vec2 [2]float64

func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Path is an ordered closed polygon outline in the electrode plane. The
// closing edge from the last vertex back to the first is implicit.
type Path []Vec2

// Validate rejects paths the potential kernels cannot evaluate.
func (p Path) Validate() error {
	if len(p) < 3 {
		return fmt.Errorf("path has %d vertices, need at least 3", len(p))
	}
	for i := range p {
		j := (i + 1) % len(p)
		dx := p[j][0] - p[i][0]
		dy := p[j][1] - p[i][1]
		if dx == 0 && dy == 0 {
			return fmt.Errorf("zero-length edge %d (coincident vertices)", i)
		}
	}
	return nil
}

// Area returns the signed shoelace area. Positive for counter-clockwise
// vertex order.
func (p Path) Area() float64 {
	a := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i][0]*p[j][1] - p[j][0]*p[i][1]
	}
	return a / 2
}

// Centroid returns the signed area and the area centroid of the path.
func (p Path) Centroid() (area float64, c Vec2) {
	for i := range p {
		j := (i + 1) % len(p)
		w := p[i][0]*p[j][1] - p[j][0]*p[i][1]
		area += w
		c[0] += (p[i][0] + p[j][0]) * w
		c[1] += (p[i][1] + p[j][1]) * w
	}
	area /= 2
	if area != 0 {
		c[0] /= 6 * area
		c[1] /= 6 * area
	}
	return area, c
}

// Orientation returns +1 for counter-clockwise paths and -1 for clockwise
// ones, matching the voltage sign convention: a positive voltage on a
// positively oriented patch gives a positive potential for z > 0.
func (p Path) Orientation() float64 {
	if p.Area() < 0 {
		return -1
	}
	return 1
}
