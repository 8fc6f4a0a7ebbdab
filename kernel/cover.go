package kernel

import (
	"fmt"

	"github.com/jordens/electrode/geometry"
)

// Cover adds the method-of-images correction for a grounded plane at
// Height above the electrode layer. The corrected field is the bare kernel
// at x plus the bare kernel at x displaced by (0, 0, 2nh) for every
// n in {-NMax..-1, 1..NMax}. NMax = 0 disables the correction.
type Cover struct {
	Height float64
	NMax   int
}

// Evaluate applies the correction identically to every requested order.
func (c Cover) Evaluate(e Engine, p Primitive, x geometry.Vec3, orders []int) ([]Tensor, error) {
	if c.NMax < 0 {
		return nil, fmt.Errorf("negative cover image count %d", c.NMax)
	}
	out, err := p.Evaluate(e, x, orders)
	if err != nil {
		return nil, err
	}
	for n := -c.NMax; n <= c.NMax; n++ {
		if n == 0 {
			continue
		}
		xx := x.Add(geometry.Vec3{0, 0, 2 * float64(n) * c.Height})
		img, err := p.Evaluate(e, xx, orders)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", n, err)
		}
		for i := range out {
			out[i].AddScaled(img[i], 1)
		}
	}
	return out, nil
}
