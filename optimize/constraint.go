package optimize

import (
	"fmt"

	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/harmonic"
)

// DerivativeTarget pins one compact tensor component of the unit-voltage
// potential at a field point, contributing one objective row.
type DerivativeTarget struct {
	X         geometry.Vec3
	Order     int
	Component int // canonical harmonic component index
	Value     float64
}

func (c DerivativeTarget) Apply(p *Problem) error {
	if err := harmonic.CheckOrder(c.Order); err != nil {
		return err
	}
	if c.Component < 0 || c.Component >= harmonic.NumComponents(c.Order) {
		return fmt.Errorf("component %d out of range for order %d", c.Component, c.Order)
	}
	u, err := p.Electrode().UnitPotentials(c.X, c.Order)
	if err != nil {
		return err
	}
	row := make([]float64, p.N())
	for j := range row {
		row[j] = u.At(c.Component, j)
	}
	return p.AddObjective(row, c.Value)
}

// GradientTarget pins all three gradient components at a field point.
type GradientTarget struct {
	X     geometry.Vec3
	Value geometry.Vec3
}

func (c GradientTarget) Apply(p *Problem) error {
	for comp := 0; comp < 3; comp++ {
		t := DerivativeTarget{X: c.X, Order: 1, Component: comp, Value: c.Value[comp]}
		if err := t.Apply(p); err != nil {
			return err
		}
	}
	return nil
}

// FactorRange bounds every pixel factor to [Lo, Hi].
type FactorRange struct {
	Lo, Hi float64
}

func (c FactorRange) Apply(p *Problem) error {
	if c.Lo > c.Hi {
		return fmt.Errorf("empty factor range [%g, %g]", c.Lo, c.Hi)
	}
	n := p.N()
	for i := 0; i < n; i++ {
		up := make([]float64, n)
		up[i] = 1
		if err := p.AddLessEq(up, c.Hi); err != nil {
			return err
		}
		lo := make([]float64, n)
		lo[i] = -1
		if err := p.AddLessEq(lo, -c.Lo); err != nil {
			return err
		}
	}
	return nil
}

// Symmetry forces pairs of pixel factors to be equal.
type Symmetry struct {
	Pairs [][2]int
}

func (c Symmetry) Apply(p *Problem) error {
	n := p.N()
	for _, pair := range c.Pairs {
		i, j := pair[0], pair[1]
		if i < 0 || i >= n || j < 0 || j >= n || i == j {
			return fmt.Errorf("invalid symmetry pair (%d, %d) for %d pixels", i, j, n)
		}
		row := make([]float64, n)
		row[i] = 1
		row[j] = -1
		if err := p.AddEqual(row, 0); err != nil {
			return err
		}
	}
	return nil
}
