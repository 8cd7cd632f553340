package raster

import (
	"math"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// Factor is one criterion of a weighted overlay.
type Factor struct {
	// Layer holds the raw criterion values.
	Layer *Raster

	// Weight is the relative importance of the layer. Weights are normalized
	// by their sum, so they need not add up to 1.
	Weight float64

	// Cost marks layers where smaller raw values are more suitable, such as
	// distances. Their rescale is inverted.
	Cost bool
}

// OverlayOptions configures WeightedOverlay.
type OverlayOptions struct {
	// Constraints optionally hard-excludes cells: wherever it is 0 or nodata
	// the composite is 0. It must share the factors' grid.
	Constraints *Raster

	// ScaleMax is the top of the common rescale range [0, ScaleMax].
	ScaleMax float64
}

// WeightedOverlay combines criterion layers into one composite suitability
// score.
//
// Parameters:
//   - factors: At least one layer with its weight and cost flag. All layers
//     must share the same grid.
//   - opts: Optional constraint raster and the rescale maximum (> 0).
//
// Returns:
//   - *Raster: The composite in [0, ScaleMax], nodata where any layer with a
//     non-zero weight is nodata and no constraint excludes the cell.
//   - error: ErrInvalidParameters, ErrGeometryMismatch or
//     ErrNonPositiveWeightSum.
//
// # Algorithm
//
//  1. Weights are divided by their sum.
//
//  2. Each layer is rescaled with its own observed minimum and maximum over
//     valid cells: (v-min)/(max-min)*ScaleMax, or (max-v)/(max-min)*ScaleMax
//     for cost layers. A layer without spread (min == max) rescales to 0, or
//     to ScaleMax when it is a cost layer.
//
//  3. Composite = sum of normalizedWeight * rescaled over cells valid in
//     every layer. Layers weighted 0 take no part, so their nodata cells do
//     not leak into the composite.
//
//  4. Cells where Constraints is 0 or nodata are set to 0.
//
// The output sentinel is always DefaultNoData, which cannot collide with a
// composite score. It is flagged when any layer has a sentinel or any cell
// ends up nodata.
func WeightedOverlay(factors []Factor, opts OverlayOptions) (*Raster, error) {
	if len(factors) == 0 {
		return nil, eris.Wrap(ErrInvalidParameters, "weighted overlay: no factors")
	}
	if !(opts.ScaleMax > 0) || math.IsInf(opts.ScaleMax, 0) {
		return nil, eris.Wrapf(ErrInvalidParameters, "weighted overlay: scale max must be positive, got %v", opts.ScaleMax)
	}

	layers := make([]*Raster, 0, len(factors)+1)
	var weightSum float64
	for i, f := range factors {
		if f.Layer == nil {
			return nil, eris.Wrapf(ErrInvalidParameters, "weighted overlay: factor %d has no layer", i)
		}
		if math.IsNaN(f.Weight) || math.IsInf(f.Weight, 0) {
			return nil, eris.Wrapf(ErrInvalidParameters, "weighted overlay: factor %d weight is %v", i, f.Weight)
		}
		layers = append(layers, f.Layer)
		weightSum += f.Weight
	}
	if opts.Constraints != nil {
		layers = append(layers, opts.Constraints)
	}
	if err := sameGeometry("weighted overlay", layers...); err != nil {
		return nil, err
	}
	if !(weightSum > 0) {
		return nil, eris.Wrapf(ErrNonPositiveWeightSum, "weighted overlay: weights sum to %v", weightSum)
	}

	weights := make([]float64, len(factors))
	scalers := make([]rescaler, len(factors))
	flagged := false
	for i, f := range factors {
		weights[i] = f.Weight / weightSum
		scalers[i] = newRescaler(Describe(f.Layer), f.Cost, opts.ScaleMax)
		flagged = flagged || f.Layer.hasNoData
	}

	g := factors[0].Layer.geom
	cons := opts.Constraints
	out := make([]float64, g.Cells())
	var missing atomic.Bool
	parallelRange(g.Height, func(lo, hi int) {
		missed := false
		for i := lo * g.Width; i < hi*g.Width; i++ {
			if cons != nil {
				if cv := cons.values[i]; cv == 0 || cons.IsNoData(cv) {
					out[i] = 0
					continue
				}
			}

			score, valid := 0.0, true
			for k, f := range factors {
				if weights[k] == 0 {
					continue
				}
				v := f.Layer.values[i]
				if f.Layer.IsNoData(v) || math.IsNaN(v) {
					valid = false
					break
				}
				score += weights[k] * scalers[k].scale(v)
			}
			if !valid {
				out[i] = DefaultNoData
				missed = true
				continue
			}
			out[i] = score
		}
		if missed {
			missing.Store(true)
		}
	})

	return newRaster(g, out, DefaultNoData, flagged || missing.Load()), nil
}

// rescaler maps a layer's observed range onto [0, top].
type rescaler struct {
	lo, hi, span, top float64
	cost              bool
}

func newRescaler(st Stats, cost bool, scaleMax float64) rescaler {
	return rescaler{lo: st.Min, hi: st.Max, span: st.Max - st.Min, top: scaleMax, cost: cost}
}

func (s rescaler) scale(v float64) float64 {
	if s.span == 0 {
		if s.cost {
			return s.top
		}
		return 0
	}
	if s.cost {
		return (s.hi - v) / s.span * s.top
	}
	return (v - s.lo) / s.span * s.top
}
