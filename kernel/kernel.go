// Package kernel evaluates the closed-form electrostatic potential and its
// spatial derivatives for the source primitives of gapless surface
// electrodes: point-approximated pixels and uniformly biased polygonal
// patches, optionally corrected for a conducting cover plane by the method
// of images.
//
// Two interchangeable backends implement the same Engine contract: a
// reference backend that differentiates the order-0 closed forms with
// truncated Taylor arithmetic, and a fast backend built on precomputed
// derivative tables and the per-edge line-integral reduction. Both are
// exact differentiations of the same kernels and agree to rounding.
package kernel

import (
	"errors"
	"fmt"

	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/harmonic"
)

// ErrUnsupportedOrder mirrors harmonic.ErrUnsupportedOrder for callers that
// only import this package.
var ErrUnsupportedOrder = harmonic.ErrUnsupportedOrder

// ErrDegenerateGeometry reports geometry the closed forms cannot evaluate:
// a field point on a source point, vertex or edge, a zero-length edge, or a
// path with fewer than three vertices.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Tensor is one derivative order of the potential at one field point in
// compact harmonic form (see package harmonic for the component order).
type Tensor struct {
	Order int
	C     []float64
}

// NewTensor returns a zero tensor of the given order.
func NewTensor(order int) Tensor {
	return Tensor{Order: order, C: make([]float64, harmonic.NumComponents(order))}
}

// Expand produces the full 3^d Cartesian tensor.
func (t Tensor) Expand() ([]float64, error) {
	return harmonic.Expand(t.Order, t.C)
}

// AddScaled accumulates w times o into t. Orders must match.
func (t *Tensor) AddScaled(o Tensor, w float64) {
	for i := range t.C {
		t.C[i] += w * o.C[i]
	}
}

// Engine is a potential kernel backend. Both methods evaluate the bare
// (cover-free) kernel of one primitive at one field point for every
// requested derivative order, sharing intermediates across orders.
type Engine interface {
	Name() string
	Point(x geometry.Vec3, p Point, orders []int) ([]Tensor, error)
	Polygon(x geometry.Vec3, p Polygon, orders []int) ([]Tensor, error)
}

// Primitive is a source charge distribution that can evaluate itself on
// any Engine. The cover correction wraps primitives through this interface
// without knowing their concrete type.
type Primitive interface {
	Evaluate(e Engine, x geometry.Vec3, orders []int) ([]Tensor, error)
	Orientation() float64
}

// Point is a point-approximated pixel: a location in (or above) the
// electrode plane and the patch area it stands in for.
type Point struct {
	Loc  geometry.Vec3
	Area float64
}

// NewPoint places a point primitive in the electrode plane.
func NewPoint(x, y, area float64) Point {
	return Point{Loc: geometry.Vec3{x, y, 0}, Area: area}
}

func (p Point) Evaluate(e Engine, x geometry.Vec3, orders []int) ([]Tensor, error) {
	return e.Point(x, p, orders)
}

// Orientation of a point primitive is always +1.
func (p Point) Orientation() float64 { return 1 }

// Polygon is a uniformly biased flat patch bounded by a closed path in the
// electrode plane.
type Polygon struct {
	Path geometry.Path
}

// NewPolygon validates the path and wraps it as a primitive.
func NewPolygon(path geometry.Path) (Polygon, error) {
	if err := path.Validate(); err != nil {
		return Polygon{}, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	return Polygon{Path: path}, nil
}

func (p Polygon) Evaluate(e Engine, x geometry.Vec3, orders []int) ([]Tensor, error) {
	return e.Polygon(x, p, orders)
}

// Orientation is the sign of the enclosed area.
func (p Polygon) Orientation() float64 { return p.Path.Orientation() }

// checkOrders validates a requested order subset and returns the largest
// order in it.
func checkOrders(orders []int) (int, error) {
	if len(orders) == 0 {
		return 0, fmt.Errorf("no derivative orders requested")
	}
	max := 0
	for _, d := range orders {
		if err := harmonic.CheckOrder(d); err != nil {
			return 0, err
		}
		if d > max {
			max = d
		}
	}
	return max, nil
}

// newTensors allocates one zero tensor per requested order.
func newTensors(orders []int) []Tensor {
	ts := make([]Tensor, len(orders))
	for i, d := range orders {
		ts[i] = NewTensor(d)
	}
	return ts
}
