package electrode

import (
	"gonum.org/v1/gonum/mat"

	"github.com/jordens/electrode/geometry"
)

// Voltage-scaled quantities. The DC family scales the unit-voltage
// derivatives linearly; the pseudopotential family is quadratic in the RF
// amplitude and in the field gradient, so each member is computed from one
// coherent multi-order evaluation at the field point.

// ElectricalPotential returns dc * phi(x), in volts.
func (e *PixelElectrode) ElectricalPotential(x geometry.Vec3) (float64, error) {
	ts, err := e.tensors(x, []int{0})
	if err != nil {
		return 0, err
	}
	return e.DC * ts[0].C[0], nil
}

// ElectricalGradient returns dc * grad phi(x).
func (e *PixelElectrode) ElectricalGradient(x geometry.Vec3) (geometry.Vec3, error) {
	ts, err := e.tensors(x, []int{1})
	if err != nil {
		return geometry.Vec3{}, err
	}
	g, err := ts[0].Expand()
	if err != nil {
		return geometry.Vec3{}, err
	}
	return geometry.Vec3{e.DC * g[0], e.DC * g[1], e.DC * g[2]}, nil
}

// ElectricalCurvature returns dc * hessian phi(x).
func (e *PixelElectrode) ElectricalCurvature(x geometry.Vec3) (*mat.SymDense, error) {
	ts, err := e.tensors(x, []int{2})
	if err != nil {
		return nil, err
	}
	h, err := ts[0].Expand()
	if err != nil {
		return nil, err
	}
	out := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			out.SetSym(i, j, e.DC*h[i*3+j])
		}
	}
	return out, nil
}

// PseudoPotential returns rf^2 * |grad phi|^2, the ponderomotive
// pseudopotential up to the trap drive prefactor.
func (e *PixelElectrode) PseudoPotential(x geometry.Vec3) (float64, error) {
	ts, err := e.tensors(x, []int{1})
	if err != nil {
		return 0, err
	}
	g, err := ts[0].Expand()
	if err != nil {
		return 0, err
	}
	return e.RF * e.RF * (g[0]*g[0] + g[1]*g[1] + g[2]*g[2]), nil
}

// PseudoGradient differentiates the squared gradient by the product rule,
// using gradient and curvature from the same evaluation.
func (e *PixelElectrode) PseudoGradient(x geometry.Vec3) (geometry.Vec3, error) {
	ts, err := e.tensors(x, []int{1, 2})
	if err != nil {
		return geometry.Vec3{}, err
	}
	g, err := ts[0].Expand()
	if err != nil {
		return geometry.Vec3{}, err
	}
	h, err := ts[1].Expand()
	if err != nil {
		return geometry.Vec3{}, err
	}
	var out geometry.Vec3
	w := 2 * e.RF * e.RF
	for j := 0; j < 3; j++ {
		s := 0.0
		for i := 0; i < 3; i++ {
			s += g[i] * h[i*3+j]
		}
		out[j] = w * s
	}
	return out, nil
}

// PseudoCurvature needs gradient, curvature and the third derivative
// simultaneously:
//
//	d_j d_k |g|^2 = 2 (H H)_jk + 2 sum_i g_i T3_ijk
func (e *PixelElectrode) PseudoCurvature(x geometry.Vec3) (*mat.SymDense, error) {
	ts, err := e.tensors(x, []int{1, 2, 3})
	if err != nil {
		return nil, err
	}
	g, err := ts[0].Expand()
	if err != nil {
		return nil, err
	}
	h, err := ts[1].Expand()
	if err != nil {
		return nil, err
	}
	t3, err := ts[2].Expand()
	if err != nil {
		return nil, err
	}
	out := mat.NewSymDense(3, nil)
	w := 2 * e.RF * e.RF
	for j := 0; j < 3; j++ {
		for k := j; k < 3; k++ {
			s := 0.0
			for i := 0; i < 3; i++ {
				s += h[i*3+j]*h[i*3+k] + g[i]*t3[(i*3+j)*3+k]
			}
			out.SetSym(j, k, w*s)
		}
	}
	return out, nil
}
