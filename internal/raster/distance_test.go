package raster

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteDistance checks every feature for every cell.
func bruteDistance(src *Raster, featureValue float64) []float64 {
	g := src.Geometry()
	out := make([]float64, g.Cells())
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			best := math.Inf(1)
			for fr := 0; fr < g.Height; fr++ {
				for fc := 0; fc < g.Width; fc++ {
					v := src.At(fr, fc)
					if src.IsNoData(v) || v != featureValue {
						continue
					}
					dr, dc := float64(r-fr), float64(c-fc)
					best = math.Min(best, dr*dr+dc*dc)
				}
			}
			out[r*g.Width+c] = g.CellSize * math.Sqrt(best)
		}
	}
	return out
}

func TestEuclideanDistance_SingleFeature(t *testing.T) {
	const cs = 30.0
	src := filled(t, 7, 5, cs, 0)
	values := src.Values()
	r0, c0 := 2, 3
	values[r0*7+c0] = 1
	src, err := New(src.Geometry(), values)
	require.NoError(t, err)

	out, err := EuclideanDistance(src, 1)
	require.NoError(t, err)

	for r := 0; r < 5; r++ {
		for c := 0; c < 7; c++ {
			dr, dc := float64(r-r0), float64(c-c0)
			assert.Equal(t, cs*math.Sqrt(dr*dr+dc*dc), out.At(r, c), "cell (%d,%d)", r, c)
		}
	}
	assert.Equal(t, 0.0, out.At(r0, c0))
}

func TestEuclideanDistance_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		w, h := 1+rng.Intn(17), 1+rng.Intn(13)
		values := make([]float64, w*h)
		for i := range values {
			if rng.Float64() < 0.08 {
				values[i] = 1
			}
		}
		values[rng.Intn(len(values))] = 1

		src, err := New(Geometry{Width: w, Height: h, CellSize: 2.5}, values)
		require.NoError(t, err)

		out, err := EuclideanDistance(src, 1)
		require.NoError(t, err)

		want := bruteDistance(src, 1)
		got := out.Values()
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-9, "trial %d (%dx%d) cell %d", trial, w, h, i)
		}
	}
}

func TestEuclideanDistance_FeatureCellsAreZero(t *testing.T) {
	src := mustRaster(t, [][]float64{
		{1, 0, 0, 1},
		{0, 0, 0, 0},
		{1, 0, 0, 0},
	}, 10)

	out, err := EuclideanDistance(src, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.0, out.At(0, 0))
	assert.Equal(t, 0.0, out.At(0, 3))
	assert.Equal(t, 0.0, out.At(2, 0))
	assert.Equal(t, 10.0, out.At(0, 1))
	assert.Equal(t, 10*math.Sqrt(2), out.At(1, 1))
	assert.Equal(t, 20.0, out.At(2, 2))
}

func TestEuclideanDistance_NoFeatures(t *testing.T) {
	src := filled(t, 3, 3, 1, 0)

	out, err := EuclideanDistance(src, 1)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, eris.Is(err, ErrNoFeatureCells))
}

func TestEuclideanDistance_NoDataNeverFeature(t *testing.T) {
	// The sentinel equals the feature value, so no cell qualifies.
	src := mustRaster(t, [][]float64{{1, 1}, {0, 0}}, 1, WithNoData(1))

	_, err := EuclideanDistance(src, 1)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoFeatureCells))
}

func TestEuclideanDistance_NoDataCells(t *testing.T) {
	src := mustRaster(t, [][]float64{
		{1, 0, -1},
		{0, -1, 0},
	}, 1, WithNoData(-1))

	out, err := EuclideanDistance(src, 1)
	require.NoError(t, err)

	nd, has := out.NoData()
	require.True(t, has)
	assert.Equal(t, -1.0, nd)
	assert.True(t, out.IsNoDataAt(0, 2))
	assert.True(t, out.IsNoDataAt(1, 1))
	// Distances run through nodata cells.
	assert.Equal(t, math.Sqrt(5), out.At(1, 2))
}

func TestEuclideanDistance_PositiveSentinelReplaced(t *testing.T) {
	src := mustRaster(t, [][]float64{{1, 0, 255}}, 1, WithNoData(255))

	out, err := EuclideanDistance(src, 1)
	require.NoError(t, err)

	nd, has := out.NoData()
	require.True(t, has)
	assert.Equal(t, DefaultNoData, nd)
	assert.True(t, out.IsNoDataAt(0, 2))
	assert.Equal(t, 1.0, out.At(0, 1))
}

func TestEuclideanDistance_Invalid(t *testing.T) {
	_, err := EuclideanDistance(nil, 1)
	assert.True(t, eris.Is(err, ErrInvalidParameters))

	empty, err := New(Geometry{CellSize: 1}, nil)
	require.NoError(t, err)
	_, err = EuclideanDistance(empty, 1)
	assert.True(t, eris.Is(err, ErrEmptySource))
}
