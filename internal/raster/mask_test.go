package raster

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		in   []float64
		want []bool
	}{
		{"eq", Equal(2), []float64{1, 2, 3}, []bool{false, true, false}},
		{"ne", NotEqual(2), []float64{1, 2, 3}, []bool{true, false, true}},
		{"gt", GreaterThan(2), []float64{1, 2, 3}, []bool{false, false, true}},
		{"ge", AtLeast(2), []float64{1, 2, 3}, []bool{false, true, true}},
		{"lt", LessThan(2), []float64{1, 2, 3}, []bool{true, false, false}},
		{"le", AtMost(2), []float64{1, 2, 3}, []bool{true, true, false}},
		{"in", InSet(1, 3), []float64{1, 2, 3}, []bool{true, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, v := range tt.in {
				assert.Equal(t, tt.want[i], tt.pred(v), "value %v", v)
			}
		})
	}
}

func TestParsePredicate(t *testing.T) {
	p, err := ParsePredicate(" GE ", []float64{5})
	require.NoError(t, err)
	assert.True(t, p(5))
	assert.False(t, p(4))

	p, err = ParsePredicate("in", []float64{1, 2})
	require.NoError(t, err)
	assert.True(t, p(2))

	for _, tc := range []struct {
		op     string
		values []float64
	}{
		{"in", nil},
		{"eq", nil},
		{"eq", []float64{1, 2}},
		{"between", []float64{1}},
	} {
		_, err := ParsePredicate(tc.op, tc.values)
		require.Error(t, err, "op %q", tc.op)
		assert.True(t, eris.Is(err, ErrInvalidParameters))
	}
}

func TestDeriveMask(t *testing.T) {
	// Land cover with class 0 meaning "no data collected".
	src := mustRaster(t, [][]float64{
		{0, 3, 3},
		{5, 255, 0},
	}, 1, WithNoData(255))

	mask, err := DeriveMask(src, NotEqual(0), MaskOptions{})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{
		{0, 1, 1},
		{1, 0, 0},
	}, mask.Rows())
	_, has := mask.NoData()
	assert.False(t, has)
	assert.True(t, mask.Geometry().Equal(src.Geometry()))
}

func TestDeriveMask_OutsideAsNoData(t *testing.T) {
	src := mustRaster(t, [][]float64{{1, 2, 3}}, 1)

	mask, err := DeriveMask(src, AtLeast(2), MaskOptions{OutsideAsNoData: true})
	require.NoError(t, err)

	nd, has := mask.NoData()
	require.True(t, has)
	assert.Equal(t, DefaultNoData, nd)
	assert.True(t, mask.IsNoDataAt(0, 0))
	assert.Equal(t, 1.0, mask.At(0, 1))
	assert.Equal(t, 1.0, mask.At(0, 2))
}

func TestApplyMask(t *testing.T) {
	mask := mustRaster(t, [][]float64{
		{1, 0, 1},
		{-1, 1, 1},
	}, 1, WithNoData(-1))
	target := mustRaster(t, [][]float64{
		{40, 50, 60},
		{70, -9, 80},
	}, 1, WithNoData(-9))

	out, err := ApplyMask(mask, target)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{
		{40, 0, 60},
		{0, -9, 80},
	}, out.Rows())
	assert.True(t, out.IsNoDataAt(1, 1))
	nd, has := out.NoData()
	assert.True(t, has)
	assert.Equal(t, -9.0, nd)
}

func TestApplyMask_OutsideIsZero(t *testing.T) {
	src := mustRaster(t, [][]float64{{0, 1}, {2, 0}}, 1)
	target := mustRaster(t, [][]float64{{11, 22}, {33, 44}}, 1)

	mask, err := DeriveMask(src, NotEqual(0), MaskOptions{})
	require.NoError(t, err)
	out, err := ApplyMask(mask, target)
	require.NoError(t, err)

	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if mask.At(r, c) == 0 {
				assert.Equal(t, 0.0, out.At(r, c))
			} else {
				assert.Equal(t, target.At(r, c), out.At(r, c))
			}
		}
	}
}

func TestApplyMask_Errors(t *testing.T) {
	a := mustRaster(t, [][]float64{{1, 1}}, 1)
	b := mustRaster(t, [][]float64{{1}, {1}}, 1)

	_, err := ApplyMask(a, b)
	assert.True(t, eris.Is(err, ErrGeometryMismatch))

	_, err = ApplyMask(nil, a)
	assert.True(t, eris.Is(err, ErrInvalidParameters))

	_, err = DeriveMask(nil, Equal(1), MaskOptions{})
	assert.True(t, eris.Is(err, ErrInvalidParameters))
}
