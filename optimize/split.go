package optimize

import (
	"fmt"
	"sort"

	"github.com/jordens/electrode/electrode"
	"github.com/jordens/electrode/kernel"
)

// Split partitions an electrode's primitives into disjoint sub-electrodes
// by pixel-factor threshold bands: band i holds the pixels whose factor
// falls between thresholds i-1 and i. Empty bands are skipped. This is a
// pure reshaping of electrode data; factors are carried over unchanged.
func Split(e *electrode.PixelElectrode, thresholds []float64) ([]*electrode.PixelElectrode, error) {
	th := append([]float64(nil), thresholds...)
	sort.Float64s(th)

	prims := e.Primitives()
	factors := e.Factors()
	cover := e.Cover()

	bandPrims := make([][]kernel.Primitive, len(th)+1)
	bandFactors := make([][]float64, len(th)+1)
	for i, p := range prims {
		b := sort.SearchFloat64s(th, factors[i])
		// place factors equal to a threshold in the band above it
		for b < len(th) && factors[i] == th[b] {
			b++
		}
		bandPrims[b] = append(bandPrims[b], p)
		bandFactors[b] = append(bandFactors[b], factors[i])
	}

	var out []*electrode.PixelElectrode
	for b := range bandPrims {
		if len(bandPrims[b]) == 0 {
			continue
		}
		sub := electrode.New(electrode.Config{
			Name:        fmt.Sprintf("%s-%d", e.Name(), b),
			DC:          e.DC,
			RF:          e.RF,
			CoverHeight: cover.Height,
			CoverNMax:   cover.NMax,
			Engine:      e.Engine(),
		}, bandPrims[b])
		if err := sub.SetFactors(bandFactors[b]); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
