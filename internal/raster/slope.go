package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Horn's 3x3 gradient kernels. Rows run north to south, so hornY measures
// the south-minus-north difference.
var (
	hornX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	hornY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// Slope derives terrain steepness in degrees from an elevation raster.
//
// Parameters:
//   - src: Elevation in the same ground units as its cell size.
//
// Returns:
//   - *Raster: Slope in degrees, 0 on flat ground and approaching 90 on
//     cliffs. Same grid and nodata sentinel as src.
//   - error: ErrInvalidParameters for a nil source, ErrEmptySource for a
//     source without cells.
//
// # Algorithm
//
// Horn's method: the east-west and north-south elevation gradients are
// weighted 3x3 differences around each cell,
//
//	dz/dx = sum(hornX * z) / (8 * CellSize)
//	dz/dy = sum(hornY * z) / (8 * CellSize)
//	slope = atan(sqrt(dz/dx² + dz/dy²)) in degrees
//
// Border cells replicate their nearest edge value, which halves the gradient
// across the border compared with an interior cell.
//
// # NoData
//
// Nodata cells stay nodata. A nodata neighbor is replaced by the centre
// value, so it contributes no gradient.
func Slope(src *Raster) (*Raster, error) {
	if src == nil {
		return nil, eris.Wrap(ErrInvalidParameters, "slope: nil source")
	}
	g := src.geom
	if g.Cells() == 0 {
		return nil, eris.Wrap(ErrEmptySource, "slope")
	}

	w, h := g.Width, g.Height
	denom := 8 * g.CellSize
	out := make([]float64, len(src.values))

	parallelRange(h, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			for x := 0; x < w; x++ {
				centre := src.values[y*w+x]
				if src.IsNoData(centre) {
					out[y*w+x] = centre
					continue
				}

				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						py := clamp(y+ky, 0, h-1)
						px := clamp(x+kx, 0, w-1)
						z := src.values[py*w+px]
						if src.IsNoData(z) {
							z = centre
						}
						gx += z * hornX[ky+1][kx+1]
						gy += z * hornY[ky+1][kx+1]
					}
				}
				gx /= denom
				gy /= denom
				out[y*w+x] = math.Atan(math.Hypot(gx, gy)) * 180 / math.Pi
			}
		}
	})

	return newRaster(g, out, src.nodata, src.hasNoData), nil
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
