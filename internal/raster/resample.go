package raster

import (
	"math"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// ResampleOptions selects the output grid of Resample. Exactly one field must
// be set.
type ResampleOptions struct {
	// CellSize re-grids the source extent at a new cell size.
	CellSize float64

	// Reference copies the grid of another raster (the alignment grid).
	Reference *Raster
}

// extentTolerance absorbs floating point noise when deriving cell counts from
// an extent, so 10 cells of 0.1 re-gridded at 0.1 stay 10 cells.
const extentTolerance = 1e-9

// Resample re-grids src by nearest neighbor.
//
// Parameters:
//   - src: Raster to re-grid. Must have at least one cell.
//   - opts: Either CellSize (> 0) or Reference, never both.
//
// Returns:
//   - *Raster: The re-gridded raster.
//   - error: ErrInvalidParameters for a nil source or when neither or both
//     sizing options are set; ErrEmptySource for a source without cells.
//
// # Output Grid
//
// With Reference the output has exactly the reference's width, height, cell
// size and origin. With CellSize the output keeps the source origin and
// covers the full source extent:
//
//	width  = ceil(src.Width  * src.CellSize / CellSize)
//	height = ceil(src.Height * src.CellSize / CellSize)
//
// This is how the alignment ("mama") grid of a pipeline is made.
//
// # Algorithm
//
// For each output cell the ground coordinate of its centre is computed and the
// source cell containing it is found by floor division on the source origin
// and cell size. That value is copied verbatim; there is no interpolation or
// averaging. Cells whose centre falls outside the source extent get nodata.
//
// # NoData
//
// The output uses the source sentinel. A source without one yields
// DefaultNoData, flagged only if some output cell fell outside the source.
func Resample(src *Raster, opts ResampleOptions) (*Raster, error) {
	if src == nil {
		return nil, eris.Wrap(ErrInvalidParameters, "resample: nil source")
	}
	bySize := opts.CellSize != 0
	byRef := opts.Reference != nil
	if bySize == byRef {
		return nil, eris.Wrap(ErrInvalidParameters, "resample: exactly one of cell size or reference grid is required")
	}
	if src.geom.Cells() == 0 {
		return nil, eris.Wrap(ErrEmptySource, "resample")
	}

	var g Geometry
	if byRef {
		g = opts.Reference.geom
	} else {
		if !(opts.CellSize > 0) || math.IsInf(opts.CellSize, 0) {
			return nil, eris.Wrapf(ErrInvalidParameters, "resample: cell size must be positive, got %v", opts.CellSize)
		}
		g = Geometry{
			Width:    coverCells(src.geom.Width, src.geom.CellSize, opts.CellSize),
			Height:   coverCells(src.geom.Height, src.geom.CellSize, opts.CellSize),
			CellSize: opts.CellSize,
			Origin:   src.geom.Origin,
		}
	}

	nodata := src.nodata
	if !src.hasNoData {
		nodata = DefaultNoData
	}

	out := make([]float64, g.Cells())
	var outside atomic.Bool
	parallelRange(g.Height, func(lo, hi int) {
		missed := false
		for r := lo; r < hi; r++ {
			for c := 0; c < g.Width; c++ {
				i := r*g.Width + c
				sr, sc, ok := src.geom.CellAt(g.CellCenter(r, c))
				if !ok {
					out[i] = nodata
					missed = true
					continue
				}
				out[i] = src.values[sr*src.geom.Width+sc]
			}
		}
		if missed {
			outside.Store(true)
		}
	})

	return newRaster(g, out, nodata, src.hasNoData || outside.Load()), nil
}

// coverCells returns how many cells of size to are needed to cover n cells of
// size from. The result is at least 1.
func coverCells(n int, from, to float64) int {
	cells := int(math.Ceil(float64(n)*from/to - extentTolerance))
	if cells < 1 {
		cells = 1
	}
	return cells
}
