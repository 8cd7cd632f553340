package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// edtInf stands in for "no feature seen yet" in the squared distance passes.
// It must exceed any squared cell distance a grid can produce.
const edtInf = 1e20

// EuclideanDistance computes, for every cell, the ground distance from its
// centre to the centre of the nearest feature cell.
//
// Parameters:
//   - src: Conceptually binary raster of feature and background cells.
//   - featureValue: Cells equal to this value (and not nodata) are features.
//
// Returns:
//   - *Raster: Distances in the units of src's cell size. Feature cells are 0.
//   - error: ErrInvalidParameters for a nil source, ErrEmptySource for a
//     source without cells, ErrNoFeatureCells when no cell equals
//     featureValue (distance to nothing is undefined).
//
// # Algorithm
//
// The transform is exact, not a chamfer approximation. It uses the separable
// squared distance transform of Felzenszwalb and Huttenlocher:
//
//  1. Column pass: for every column, the 1-D squared distance to the nearest
//     feature in that column, computed as the lower envelope of parabolas
//     rooted at each sample.
//
//  2. Row pass: the same 1-D transform along every row, applied to the
//     column-pass output, yields min over all features of dr² + dc².
//
//  3. Output: CellSize * sqrt(d²).
//
// Squared distances are sums of squared integers and therefore exact in
// float64, so a lone feature at (r0, c0) gives exactly
// CellSize*sqrt((r-r0)² + (c-c0)²). Both passes run in O(width*height) and
// are parallel over independent columns and rows.
//
// # NoData
//
// Nodata source cells are never features and are nodata in the output. The
// source sentinel is kept when it is negative or NaN; otherwise DefaultNoData
// is used so the sentinel cannot collide with a real distance.
func EuclideanDistance(src *Raster, featureValue float64) (*Raster, error) {
	if src == nil {
		return nil, eris.Wrap(ErrInvalidParameters, "euclidean distance: nil source")
	}
	g := src.geom
	if g.Cells() == 0 {
		return nil, eris.Wrap(ErrEmptySource, "euclidean distance")
	}

	d2 := make([]float64, g.Cells())
	features := 0
	for i, v := range src.values {
		if !src.IsNoData(v) && v == featureValue {
			features++
			continue
		}
		d2[i] = edtInf
	}
	if features == 0 {
		return nil, eris.Wrapf(ErrNoFeatureCells, "euclidean distance: no cell equals %v", featureValue)
	}

	w, h := g.Width, g.Height

	parallelRange(w, func(lo, hi int) {
		env := newEnvelope(h)
		col := make([]float64, h)
		for c := lo; c < hi; c++ {
			for r := 0; r < h; r++ {
				col[r] = d2[r*w+c]
			}
			env.transform(col)
			for r := 0; r < h; r++ {
				d2[r*w+c] = col[r]
			}
		}
	})

	parallelRange(h, func(lo, hi int) {
		env := newEnvelope(w)
		for r := lo; r < hi; r++ {
			env.transform(d2[r*w : (r+1)*w])
		}
	})

	nodata := src.nodata
	if !(nodata < 0 || math.IsNaN(nodata)) {
		nodata = DefaultNoData
	}

	out := d2
	parallelRange(h, func(lo, hi int) {
		for i := lo * w; i < hi*w; i++ {
			if src.IsNoData(src.values[i]) {
				out[i] = nodata
				continue
			}
			out[i] = g.CellSize * math.Sqrt(d2[i])
		}
	})

	return newRaster(g, out, nodata, src.hasNoData), nil
}

// envelope holds the scratch buffers of a 1-D squared distance transform so
// they can be reused across the rows or columns of one band.
type envelope struct {
	v []int     // sample index of each parabola in the lower envelope
	z []float64 // boundaries between consecutive envelope parabolas
	d []float64 // transform output
}

func newEnvelope(n int) *envelope {
	return &envelope{
		v: make([]int, n),
		z: make([]float64, n+1),
		d: make([]float64, n),
	}
}

// transform replaces f with its 1-D squared distance transform:
// f'(q) = min over p of (q-p)² + f(p).
func (e *envelope) transform(f []float64) {
	n := len(f)
	if n == 0 {
		return
	}

	k := 0
	e.v[0] = 0
	e.z[0] = math.Inf(-1)
	e.z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		s := intersect(f, q, e.v[k])
		for s <= e.z[k] {
			k--
			s = intersect(f, q, e.v[k])
		}
		k++
		e.v[k] = q
		e.z[k] = s
		e.z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for e.z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - e.v[k])
		e.d[q] = dq*dq + f[e.v[k]]
	}
	copy(f, e.d[:n])
}

// intersect returns the abscissa where the parabolas rooted at q and p meet.
func intersect(f []float64, q, p int) float64 {
	fq, fp := float64(q), float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}
