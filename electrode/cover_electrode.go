package electrode

import (
	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/harmonic"
)

// CoverElectrode is the degenerate electrode formed by a biased plane at a
// fixed height. Between the electrode layer and the plane its unit-voltage
// potential is the linear ramp z/h, so only orders 0 and 1 are nonzero.
type CoverElectrode struct {
	name   string
	DC     float64
	Height float64
}

// NewCover returns a cover-plane electrode at the given height.
func NewCover(name string, height, dc float64) *CoverElectrode {
	return &CoverElectrode{name: name, DC: dc, Height: height}
}

func (c *CoverElectrode) Name() string { return c.name }

// Orientations is empty: the cover has no patches.
func (c *CoverElectrode) Orientations() []float64 { return nil }

func (c *CoverElectrode) Potential(x geometry.Vec3, derivative int) ([]float64, error) {
	if err := harmonic.CheckOrder(derivative); err != nil {
		return nil, err
	}
	switch derivative {
	case 0:
		return []float64{x[2] / c.Height}, nil
	case 1:
		return []float64{0, 0, 1 / c.Height}, nil
	default:
		size := 1
		for i := 0; i < derivative; i++ {
			size *= 3
		}
		return make([]float64, size), nil
	}
}

// ElectricalPotential returns dc * z/h.
func (c *CoverElectrode) ElectricalPotential(x geometry.Vec3) float64 {
	return c.DC * x[2] / c.Height
}

var _ Electrode = (*CoverElectrode)(nil)
