package electrode

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/kernel"
)

// Config carries the shared electrode parameters. A nil Engine selects the
// fast backend.
type Config struct {
	Name        string
	DC, RF      float64
	CoverHeight float64
	CoverNMax   int
	Engine      kernel.Engine
}

// PixelElectrode is an ordered collection of source primitives, each with
// a scalar pixel factor weighting its voltage contribution. Geometry is
// immutable after construction; the factors are only ever replaced
// wholesale, as the output of the voltage optimizer.
type PixelElectrode struct {
	name    string
	DC, RF  float64
	prims   []kernel.Primitive
	factors []float64
	cover   kernel.Cover
	engine  kernel.Engine
}

// New assembles an electrode from arbitrary primitives with unit factors.
func New(cfg Config, prims []kernel.Primitive) *PixelElectrode {
	e := &PixelElectrode{
		name:   cfg.Name,
		DC:     cfg.DC,
		RF:     cfg.RF,
		prims:  prims,
		cover:  kernel.Cover{Height: cfg.CoverHeight, NMax: cfg.CoverNMax},
		engine: cfg.Engine,
	}
	if e.engine == nil {
		e.engine = defaultEngine
	}
	e.factors = make([]float64, len(prims))
	for i := range e.factors {
		e.factors[i] = 1
	}
	return e
}

var defaultEngine = kernel.Fast()

// NewPoints builds a point-pixel electrode.
func NewPoints(cfg Config, pts []kernel.Point) *PixelElectrode {
	prims := make([]kernel.Primitive, len(pts))
	for i, p := range pts {
		prims[i] = p
	}
	return New(cfg, prims)
}

// NewPolygons builds a polygon-patch electrode from closed paths.
func NewPolygons(cfg Config, paths []geometry.Path) (*PixelElectrode, error) {
	prims := make([]kernel.Primitive, len(paths))
	for i, path := range paths {
		p, err := kernel.NewPolygon(path)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		prims[i] = p
	}
	return New(cfg, prims), nil
}

func (e *PixelElectrode) Name() string { return e.name }

// Len returns the number of primitives.
func (e *PixelElectrode) Len() int { return len(e.prims) }

// Primitives returns the primitive list. Callers must not mutate it.
func (e *PixelElectrode) Primitives() []kernel.Primitive { return e.prims }

// Cover returns the cover-plane correction parameters.
func (e *PixelElectrode) Cover() kernel.Cover { return e.cover }

// Engine returns the kernel backend in use.
func (e *PixelElectrode) Engine() kernel.Engine { return e.engine }

// Factors returns a copy of the pixel-factor vector.
func (e *PixelElectrode) Factors() []float64 {
	out := make([]float64, len(e.factors))
	copy(out, e.factors)
	return out
}

// SetFactors replaces the pixel-factor vector. This is the single mutation
// point of an electrode and must not race with in-flight evaluations.
func (e *PixelElectrode) SetFactors(f []float64) error {
	if len(f) != len(e.prims) {
		return fmt.Errorf("%w: %d factors for %d primitives", ErrUninitialized, len(f), len(e.prims))
	}
	c := make([]float64, len(f))
	copy(c, f)
	e.factors = c
	return nil
}

func (e *PixelElectrode) Orientations() []float64 {
	out := make([]float64, len(e.prims))
	for i, p := range e.prims {
		out[i] = p.Orientation()
	}
	return out
}

func (e *PixelElectrode) check() error {
	if len(e.prims) == 0 {
		return fmt.Errorf("%w: no primitives", ErrUninitialized)
	}
	if len(e.factors) != len(e.prims) {
		return fmt.Errorf("%w: %d factors for %d primitives", ErrUninitialized, len(e.factors), len(e.prims))
	}
	return nil
}

// tensors evaluates the factor-weighted, cover-corrected compact tensors
// for a subset of derivative orders in one coherent pass.
func (e *PixelElectrode) tensors(x geometry.Vec3, orders []int) ([]kernel.Tensor, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	out := make([]kernel.Tensor, len(orders))
	for i, d := range orders {
		out[i] = kernel.NewTensor(d)
	}
	for i, p := range e.prims {
		ts, err := e.cover.Evaluate(e.engine, p, x, orders)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		for j := range out {
			out[j].AddScaled(ts[j], e.factors[i])
		}
	}
	return out, nil
}

// Potential returns the requested derivative of the unit-voltage potential
// expanded to the full Cartesian tensor.
func (e *PixelElectrode) Potential(x geometry.Vec3, derivative int) ([]float64, error) {
	ts, err := e.tensors(x, []int{derivative})
	if err != nil {
		return nil, err
	}
	return ts[0].Expand()
}

// UnitPotentials returns the per-primitive compact tensor components at
// one point: a (2d+1) x n matrix whose column i is the cover-corrected
// kernel of primitive i, independent of the pixel factors. The voltage
// optimizer builds its constraint rows from these columns.
func (e *PixelElectrode) UnitPotentials(x geometry.Vec3, order int) (*mat.Dense, error) {
	if len(e.prims) == 0 {
		return nil, fmt.Errorf("%w: no primitives", ErrUninitialized)
	}
	m := mat.NewDense(2*order+1, len(e.prims), nil)
	for i, p := range e.prims {
		ts, err := e.cover.Evaluate(e.engine, p, x, []int{order})
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		for c, v := range ts[0].C {
			m.Set(c, i, v)
		}
	}
	return m, nil
}

// ToPoints approximates every polygon primitive by a point of the same
// area at its centroid, preserving name, voltages, cover parameters and
// pixel factors. Point primitives pass through unchanged.
func (e *PixelElectrode) ToPoints() (*PixelElectrode, error) {
	prims := make([]kernel.Primitive, len(e.prims))
	for i, p := range e.prims {
		switch q := p.(type) {
		case kernel.Point:
			prims[i] = q
		case kernel.Polygon:
			area, c := q.Path.Centroid()
			prims[i] = kernel.Point{Loc: geometry.Vec3{c[0], c[1], 0}, Area: area}
		default:
			return nil, fmt.Errorf("primitive %d: cannot collapse %T to a point", i, p)
		}
	}
	out := New(Config{
		Name: e.name, DC: e.DC, RF: e.RF,
		CoverHeight: e.cover.Height, CoverNMax: e.cover.NMax,
		Engine: e.engine,
	}, prims)
	if err := out.SetFactors(e.factors); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Electrode = (*PixelElectrode)(nil)
