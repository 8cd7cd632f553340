package raster

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReclassEntry maps one input category to a new value.
type ReclassEntry struct {
	New float64 `json:"new" yaml:"new"`
	Old float64 `json:"old" yaml:"old"`
}

// Reclassify maps categories of src to scores through table.
//
// Each valid cell takes the New value of the first entry whose Old equals the
// cell value exactly, or defaultValue when nothing matches. Unmapped
// categories are therefore scored, not excluded. Nodata cells stay nodata.
// An empty table is not an error: every valid cell becomes defaultValue.
func Reclassify(src *Raster, table []ReclassEntry, defaultValue float64) (*Raster, error) {
	if src == nil {
		return nil, eris.Wrap(ErrInvalidParameters, "reclassify: nil source")
	}

	// First entry wins, so later duplicates are dropped from the lookup.
	lookup := make(map[float64]float64, len(table))
	for _, e := range table {
		if _, seen := lookup[e.Old]; !seen {
			lookup[e.Old] = e.New
		}
	}

	out := make([]float64, len(src.values))
	parallelRange(src.geom.Height, func(lo, hi int) {
		w := src.geom.Width
		for i := lo * w; i < hi*w; i++ {
			v := src.values[i]
			if src.IsNoData(v) {
				out[i] = v
				continue
			}
			if nv, ok := lookup[v]; ok {
				out[i] = nv
			} else {
				out[i] = defaultValue
			}
		}
	})

	return newRaster(src.geom, out, src.nodata, src.hasNoData), nil
}

// ParseReclassValues parses an assign-mode reclass string of alternating
// new and old values, e.g. "0;1;10;2" maps 1 to 0 and 2 to 10.
// Semicolons or commas separate fields; surrounding whitespace is ignored.
func ParseReclassValues(s string) ([]ReclassEntry, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields)%2 != 0 {
		return nil, eris.Wrapf(ErrInvalidParameters, "reclass values need new;old pairs, got %d fields", len(fields))
	}

	table := make([]ReclassEntry, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		nv, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidParameters, "reclass field %d: %q is not a number", i, fields[i])
		}
		ov, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidParameters, "reclass field %d: %q is not a number", i+1, fields[i+1])
		}
		table = append(table, ReclassEntry{New: nv, Old: ov})
	}
	return table, nil
}
