package raster

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Predicate decides whether a cell value belongs to a region.
type Predicate func(v float64) bool

// Equal matches cells equal to x.
func Equal(x float64) Predicate { return func(v float64) bool { return v == x } }

// NotEqual matches cells different from x.
func NotEqual(x float64) Predicate { return func(v float64) bool { return v != x } }

// GreaterThan matches cells above x.
func GreaterThan(x float64) Predicate { return func(v float64) bool { return v > x } }

// AtLeast matches cells at or above x.
func AtLeast(x float64) Predicate { return func(v float64) bool { return v >= x } }

// LessThan matches cells below x.
func LessThan(x float64) Predicate { return func(v float64) bool { return v < x } }

// AtMost matches cells at or below x.
func AtMost(x float64) Predicate { return func(v float64) bool { return v <= x } }

// InSet matches cells equal to any of xs.
func InSet(xs ...float64) Predicate {
	set := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		set[x] = struct{}{}
	}
	return func(v float64) bool {
		_, ok := set[v]
		return ok
	}
}

// ParsePredicate builds a predicate from a configuration operator.
// Supported operators are eq, ne, gt, ge, lt, le (one value each) and in
// (one or more values).
func ParsePredicate(op string, values []float64) (Predicate, error) {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "in" {
		if len(values) == 0 {
			return nil, eris.Wrap(ErrInvalidParameters, "predicate in: needs at least one value")
		}
		return InSet(values...), nil
	}

	if len(values) != 1 {
		return nil, eris.Wrapf(ErrInvalidParameters, "predicate %s: needs exactly one value, got %d", op, len(values))
	}
	x := values[0]
	switch op {
	case "eq":
		return Equal(x), nil
	case "ne":
		return NotEqual(x), nil
	case "gt":
		return GreaterThan(x), nil
	case "ge":
		return AtLeast(x), nil
	case "lt":
		return LessThan(x), nil
	case "le":
		return AtMost(x), nil
	default:
		return nil, eris.Wrapf(ErrInvalidParameters, "unknown predicate operator %q", op)
	}
}

// MaskOptions configures DeriveMask.
type MaskOptions struct {
	// OutsideAsNoData writes nodata (DefaultNoData) instead of 0 where the
	// predicate does not hold.
	OutsideAsNoData bool
}

// DeriveMask builds a binary region-of-interest raster: 1 where pred holds,
// 0 (or nodata, see MaskOptions) elsewhere. Nodata source cells are outside
// the region.
func DeriveMask(src *Raster, pred Predicate, opts MaskOptions) (*Raster, error) {
	if src == nil || pred == nil {
		return nil, eris.Wrap(ErrInvalidParameters, "derive mask: nil source or predicate")
	}

	outside := 0.0
	if opts.OutsideAsNoData {
		outside = DefaultNoData
	}

	out := make([]float64, len(src.values))
	parallelRange(src.geom.Height, func(lo, hi int) {
		w := src.geom.Width
		for i := lo * w; i < hi*w; i++ {
			v := src.values[i]
			if !src.IsNoData(v) && pred(v) {
				out[i] = 1
			} else {
				out[i] = outside
			}
		}
	})

	return newRaster(src.geom, out, DefaultNoData, opts.OutsideAsNoData), nil
}

// ApplyMask multiplies target by mask cell by cell. Cells where the mask is 0
// or nodata become 0, so land outside the region reads as "not suitable"
// rather than as a data gap. Target nodata inside the region is kept.
func ApplyMask(mask, target *Raster) (*Raster, error) {
	if mask == nil || target == nil {
		return nil, eris.Wrap(ErrInvalidParameters, "apply mask: nil raster")
	}
	if err := sameGeometry("apply mask", target, mask); err != nil {
		return nil, err
	}

	out := make([]float64, len(target.values))
	parallelRange(target.geom.Height, func(lo, hi int) {
		w := target.geom.Width
		for i := lo * w; i < hi*w; i++ {
			m := mask.values[i]
			switch v := target.values[i]; {
			case m == 0 || mask.IsNoData(m):
				out[i] = 0
			case target.IsNoData(v):
				out[i] = v
			default:
				out[i] = v * m
			}
		}
	})

	return newRaster(target.geom, out, target.nodata, target.hasNoData), nil
}
