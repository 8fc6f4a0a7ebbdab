package kernel

import (
	"fmt"
	"math"

	"github.com/jordens/electrode/autodiff"
	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/harmonic"
)

// referenceEngine differentiates the order-0 closed forms directly with
// Taylor jets. It is the numerical ground truth the fast backend is tested
// against.
type referenceEngine struct {
	spaces [harmonic.MaxOrder + 1]*autodiff.Space
}

// Reference returns the jet-differentiation backend.
func Reference() Engine {
	e := &referenceEngine{}
	for d := 0; d <= harmonic.MaxOrder; d++ {
		e.spaces[d] = autodiff.NewSpace(d)
	}
	return e
}

func (e *referenceEngine) Name() string { return "reference" }

// extract reads the canonical harmonic components of every requested order
// out of a single jet evaluation.
func extract(f autodiff.Jet, orders []int) []Tensor {
	ts := newTensors(orders)
	for i, d := range orders {
		for c := range ts[i].C {
			ex := harmonic.Exponents(d, c)
			ts[i].C[c] = f.Partial(ex[0], ex[1], ex[2])
		}
	}
	return ts
}

func (e *referenceEngine) Point(x geometry.Vec3, p Point, orders []int) ([]Tensor, error) {
	max, err := checkOrders(orders)
	if err != nil {
		return nil, err
	}
	rel := x.Sub(p.Loc)
	if rel.Norm() == 0 {
		return nil, fmt.Errorf("%w: field point coincides with point primitive", ErrDegenerateGeometry)
	}
	s := e.spaces[max]
	X := s.Var(0, rel[0])
	Y := s.Var(1, rel[1])
	Z := s.Var(2, rel[2])

	r2 := X.Sq().Add(Y.Sq()).Add(Z.Sq())
	r, err := r2.Sqrt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	r3 := r.Mul(r).Mul(r)
	f, err := Z.Div(r3)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	return extract(f.Scale(p.Area/(2*math.Pi)), orders), nil
}

func (e *referenceEngine) Polygon(x geometry.Vec3, p Polygon, orders []int) ([]Tensor, error) {
	max, err := checkOrders(orders)
	if err != nil {
		return nil, err
	}
	if err := p.Path.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	if max >= 1 && x[2] == 0 {
		return nil, fmt.Errorf("%w: polygon derivatives on the electrode plane", ErrDegenerateGeometry)
	}
	s := e.spaces[max]
	X := s.Var(0, x[0])
	Y := s.Var(1, x[1])
	Z := s.Var(2, x[2])
	Zq := Z.Sq()
	// signed |z| keeps the denominator finite with the right branch as the
	// field point approaches the electrode plane
	Zabs := Z
	if x[2] < 0 {
		Zabs = Z.Neg()
	}

	phi := s.Const(0)
	path := p.Path
	for i := range path {
		v1 := path[i]
		v2 := path[(i+1)%len(path)]
		x1x := s.Const(v1[0]).Sub(X)
		x1y := s.Const(v1[1]).Sub(Y)
		x2x := s.Const(v2[0]).Sub(X)
		x2y := s.Const(v2[1]).Sub(Y)

		r1sq := x1x.Sq().Add(x1y.Sq()).Add(Zq)
		r2sq := x2x.Sq().Add(x2y.Sq()).Add(Zq)
		r1, err := r1sq.Sqrt()
		if err != nil {
			return nil, fmt.Errorf("%w: field point on vertex %d: %v", ErrDegenerateGeometry, i, err)
		}
		r2, err := r2sq.Sqrt()
		if err != nil {
			return nil, fmt.Errorf("%w: field point on vertex %d: %v", ErrDegenerateGeometry, (i+1)%len(path), err)
		}

		cross := x1x.Mul(x2y).Sub(x1y.Mul(x2x))
		dot := x1x.Mul(x2x).Add(x1y.Mul(x2y))
		num := Z.Mul(cross)
		den := Zabs.Mul(r1.Mul(r2).Add(dot).Add(Zq)).Add(Zq.Mul(r1.Add(r2)))
		phi = phi.Add(autodiff.Atan2(num, den))
	}
	return extract(phi.Scale(1/math.Pi), orders), nil
}
