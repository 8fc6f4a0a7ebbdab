package kernel

import (
	"fmt"
	"math"

	"github.com/jordens/electrode/autodiff"
	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/harmonic"
)

// fastEngine is the performance backend. The point kernel reads
// pre-generated derivative tables; the polygon kernel evaluates order 0 as
// a plain scalar sum and obtains orders >= 1 from the exact per-edge
// line-integral form of the gradient, so its Taylor arithmetic runs one
// degree lower and never meets an arctangent.
type fastEngine struct {
	tables *pointTables
	spaces [harmonic.MaxOrder]*autodiff.Space // gradient spaces, degree d-1
}

// Fast returns the table/line-integral backend. It is the default engine.
func Fast() Engine {
	e := &fastEngine{tables: buildPointTables()}
	for d := 0; d < harmonic.MaxOrder; d++ {
		e.spaces[d] = autodiff.NewSpace(d)
	}
	return e
}

func (e *fastEngine) Name() string { return "fast" }

func (e *fastEngine) Point(x geometry.Vec3, p Point, orders []int) ([]Tensor, error) {
	if _, err := checkOrders(orders); err != nil {
		return nil, err
	}
	rel := x.Sub(p.Loc)
	r2 := rel[0]*rel[0] + rel[1]*rel[1] + rel[2]*rel[2]
	if r2 == 0 {
		return nil, fmt.Errorf("%w: field point coincides with point primitive", ErrDegenerateGeometry)
	}
	var xp, yp, zp [maxExp + 1]float64
	var rp [maxRPow + 1]float64
	xp[0], yp[0], zp[0] = 1, 1, 1
	for i := 1; i <= maxExp; i++ {
		xp[i] = xp[i-1] * rel[0]
		yp[i] = yp[i-1] * rel[1]
		zp[i] = zp[i-1] * rel[2]
	}
	rinv := 1 / math.Sqrt(r2)
	rp[0] = 1
	for i := 1; i <= maxRPow; i++ {
		rp[i] = rp[i-1] * rinv
	}

	w := p.Area / (2 * math.Pi)
	ts := newTensors(orders)
	for i, d := range orders {
		for c := range ts[i].C {
			ts[i].C[c] = w * evalTerms(e.tables[d][c], &xp, &yp, &zp, &rp)
		}
	}
	return ts, nil
}

// polygonValue is the scalar order-0 closed form: a sum over edges of
// arctangent terms with the signed-|z| denominator that stays finite as
// the field point approaches the electrode plane.
func polygonValue(x geometry.Vec3, path geometry.Path) float64 {
	z := x[2]
	zq := z * z
	zabs := math.Abs(z)
	phi := 0.0
	for i := range path {
		v1 := path[i]
		v2 := path[(i+1)%len(path)]
		x1x, x1y := v1[0]-x[0], v1[1]-x[1]
		x2x, x2y := v2[0]-x[0], v2[1]-x[1]
		r1 := math.Sqrt(x1x*x1x + x1y*x1y + zq)
		r2 := math.Sqrt(x2x*x2x + x2y*x2y + zq)
		cross := x1x*x2y - x1y*x2x
		dot := x1x*x2x + x1y*x2y
		num := z * cross
		den := zabs*(r1*r2+dot+zq) + zq*(r1+r2)
		if num == 0 && den == 0 {
			continue
		}
		phi += math.Atan2(num, den)
	}
	return phi / math.Pi
}

func (e *fastEngine) Polygon(x geometry.Vec3, p Polygon, orders []int) ([]Tensor, error) {
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
	if x[2] == 0 {
		for i, v := range p.Path {
			if x[0] == v[0] && x[1] == v[1] {
				return nil, fmt.Errorf("%w: field point on vertex %d", ErrDegenerateGeometry, i)
			}
		}
	}
	ts := newTensors(orders)
	if max >= 1 {
		gx, gy, gz, err := e.polygonGradient(x, p.Path, max-1)
		if err != nil {
			return nil, err
		}
		for i, d := range orders {
			if d == 0 {
				continue
			}
			for c := range ts[i].C {
				ex := harmonic.Exponents(d, c)
				switch {
				case ex[0] > 0:
					ts[i].C[c] = gx.Partial(ex[0]-1, ex[1], ex[2])
				case ex[1] > 0:
					ts[i].C[c] = gy.Partial(ex[0], ex[1]-1, ex[2])
				default:
					ts[i].C[c] = gz.Partial(ex[0], ex[1], ex[2]-1)
				}
			}
		}
	}
	for i, d := range orders {
		if d == 0 {
			ts[i].C[0] = polygonValue(x, p.Path)
		}
	}
	return ts, nil
}

// polygonGradient evaluates the three gradient components as jets of the
// given degree. Stokes reduces every first derivative of the patch
// potential to the single per-edge integral I = int ds / rho^3:
//
//	dphi/dx = -z/(2 pi) sum_e n_x I_e
//	dphi/dy = -z/(2 pi) sum_e n_y I_e
//	dphi/dz = -1/(2 pi) sum_e (w . n) I_e
//
// with n the outward edge normal and w the in-plane vector from the field
// point to the edge start.
func (e *fastEngine) polygonGradient(x geometry.Vec3, path geometry.Path, degree int) (gx, gy, gz autodiff.Jet, err error) {
	s := e.spaces[degree]
	X := s.Var(0, x[0])
	Y := s.Var(1, x[1])
	Z := s.Var(2, x[2])
	Zq := Z.Sq()

	gx, gy, gz = s.Const(0), s.Const(0), s.Const(0)
	for i := range path {
		a := path[i]
		b := path[(i+1)%len(path)]
		ux, uy := b[0]-a[0], b[1]-a[1]
		l2 := ux*ux + uy*uy
		l := math.Sqrt(l2)
		nx, ny := uy/l, -ux/l // outward for counter-clockwise paths

		w1x := s.Const(a[0]).Sub(X)
		w1y := s.Const(a[1]).Sub(Y)
		w2x := s.Const(b[0]).Sub(X)
		w2y := s.Const(b[1]).Sub(Y)

		r1sq := w1x.Sq().Add(w1y.Sq()).Add(Zq)
		r2sq := w2x.Sq().Add(w2y.Sq()).Add(Zq)
		r1, serr := r1sq.Sqrt()
		if serr != nil {
			err = fmt.Errorf("%w: field point on vertex %d: %v", ErrDegenerateGeometry, i, serr)
			return
		}
		r2, serr := r2sq.Sqrt()
		if serr != nil {
			err = fmt.Errorf("%w: field point on vertex %d: %v", ErrDegenerateGeometry, (i+1)%len(path), serr)
			return
		}

		uw := w1x.Scale(ux).Add(w1y.Scale(uy))
		d := r1sq.Scale(l2).Sub(uw.Sq())
		if d.Value() == 0 {
			err = fmt.Errorf("%w: field point on edge %d", ErrDegenerateGeometry, i)
			return
		}
		t2, serr := uw.AddScaled(s.Const(1), l2).Div(r2)
		if serr != nil {
			err = fmt.Errorf("%w: %v", ErrDegenerateGeometry, serr)
			return
		}
		t1, serr := uw.Div(r1)
		if serr != nil {
			err = fmt.Errorf("%w: %v", ErrDegenerateGeometry, serr)
			return
		}
		integral, serr := t2.Sub(t1).Scale(l).Div(d)
		if serr != nil {
			err = fmt.Errorf("%w: %v", ErrDegenerateGeometry, serr)
			return
		}

		wn := w1x.Scale(nx).Add(w1y.Scale(ny))
		iz := integral.Mul(Z)
		gx = gx.AddScaled(iz, -nx/(2*math.Pi))
		gy = gy.AddScaled(iz, -ny/(2*math.Pi))
		gz = gz.AddScaled(integral.Mul(wn), -1/(2*math.Pi))
	}
	return gx, gy, gz, nil
}
