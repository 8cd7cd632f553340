package raster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustRaster builds a raster from rows with its lower-left corner at the origin.
func mustRaster(t *testing.T, rows [][]float64, cellSize float64, opts ...Option) *Raster {
	t.Helper()
	r, err := FromRows(rows, cellSize, orb.Point{0, 0}, opts...)
	require.NoError(t, err)
	return r
}

// filled builds a width x height raster with every cell set to v.
func filled(t *testing.T, width, height int, cellSize, v float64, opts ...Option) *Raster {
	t.Helper()
	values := make([]float64, width*height)
	for i := range values {
		values[i] = v
	}
	r, err := New(Geometry{Width: width, Height: height, CellSize: cellSize}, values, opts...)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	g := Geometry{Width: 3, Height: 2, CellSize: 10, Origin: orb.Point{100, 200}}
	values := []float64{1, 2, 3, 4, 5, 6}

	r, err := New(g, values)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, 10.0, r.CellSize())
	assert.Equal(t, orb.Point{100, 200}, r.Origin())
	assert.Equal(t, 6.0, r.At(1, 2))

	_, has := r.NoData()
	assert.False(t, has)

	// Input slice is copied.
	values[0] = 99
	assert.Equal(t, 1.0, r.At(0, 0))
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		g      Geometry
		values []float64
	}{
		{"zero cell size", Geometry{Width: 1, Height: 1, CellSize: 0}, []float64{1}},
		{"negative cell size", Geometry{Width: 1, Height: 1, CellSize: -1}, []float64{1}},
		{"NaN cell size", Geometry{Width: 1, Height: 1, CellSize: math.NaN()}, []float64{1}},
		{"negative width", Geometry{Width: -1, Height: 1, CellSize: 1}, nil},
		{"too few values", Geometry{Width: 2, Height: 2, CellSize: 1}, []float64{1, 2, 3}},
		{"too many values", Geometry{Width: 1, Height: 1, CellSize: 1}, []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.g, tt.values)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidParameters))
		})
	}
}

func TestFromRows_Ragged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}}, 1, orb.Point{0, 0})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidParameters))
}

func TestRaster_AccessorsReturnCopies(t *testing.T) {
	r := mustRaster(t, [][]float64{{1, 2}, {3, 4}}, 1)

	row := r.Row(0)
	row[0] = 42
	rows := r.Rows()
	rows[1][1] = 42
	values := r.Values()
	values[2] = 42

	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, r.Rows())
}

func TestRaster_IsNoData(t *testing.T) {
	r := mustRaster(t, [][]float64{{-9999, 1}}, 1, WithNoData(-9999))
	assert.True(t, r.IsNoDataAt(0, 0))
	assert.False(t, r.IsNoDataAt(0, 1))

	nan := mustRaster(t, [][]float64{{math.NaN(), 1}}, 1, WithNoData(math.NaN()))
	assert.True(t, nan.IsNoDataAt(0, 0))
	assert.False(t, nan.IsNoDataAt(0, 1))

	none := mustRaster(t, [][]float64{{-9999}}, 1)
	assert.False(t, none.IsNoDataAt(0, 0))
}

func TestGeometry_CellCenterAndCellAt(t *testing.T) {
	g := Geometry{Width: 4, Height: 3, CellSize: 2, Origin: orb.Point{10, 20}}

	// Row 0 is the top row.
	assert.Equal(t, orb.Point{11, 25}, g.CellCenter(0, 0))
	assert.Equal(t, orb.Point{17, 21}, g.CellCenter(2, 3))

	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			gr, gc, ok := g.CellAt(g.CellCenter(r, c))
			require.True(t, ok)
			assert.Equal(t, r, gr)
			assert.Equal(t, c, gc)
		}
	}

	outside := []orb.Point{{9.9, 21}, {18.1, 21}, {11, 19.9}, {11, 26.1}}
	for _, p := range outside {
		_, _, ok := g.CellAt(p)
		assert.False(t, ok, "point %v should be outside", p)
	}
}

func TestGeometry_Extent(t *testing.T) {
	g := Geometry{Width: 4, Height: 3, CellSize: 2, Origin: orb.Point{10, 20}}
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{18, 26}}, g.Extent())
}

func TestGeometry_Equal(t *testing.T) {
	g := Geometry{Width: 4, Height: 3, CellSize: 2, Origin: orb.Point{10, 20}}
	assert.True(t, g.Equal(g))

	moved := g
	moved.Origin = orb.Point{10, 20.5}
	assert.False(t, g.Equal(moved))

	finer := g
	finer.CellSize = 1
	assert.False(t, g.Equal(finer))
}

func TestSetWorkers(t *testing.T) {
	t.Cleanup(func() { SetWorkers(0) })

	SetWorkers(3)
	assert.Equal(t, 3, Workers())

	SetWorkers(-1)
	assert.Greater(t, Workers(), 0)
}

func TestParallelRange_CoversEveryIndexOnce(t *testing.T) {
	t.Cleanup(func() { SetWorkers(0) })

	for _, workers := range []int{1, 2, 3, 8, 64} {
		SetWorkers(workers)
		seen := make([]int, 37)
		parallelRange(len(seen), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				seen[i]++
			}
		})
		for i, n := range seen {
			assert.Equal(t, 1, n, "workers=%d index %d", workers, i)
		}
	}
}
