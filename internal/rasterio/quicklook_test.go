package rasterio

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

func TestQuicklook(t *testing.T) {
	r, err := raster.FromRows([][]float64{{0, 100}, {-1, 50}}, 1, orb.Point{0, 0}, raster.WithNoData(-1))
	require.NoError(t, err)

	img, err := Quicklook(r, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	low := img.At(0, 0)
	high := img.At(1, 0)
	gap := img.At(0, 1)

	lr, lg, _, la := low.RGBA()
	hr, hg, _, ha := high.RGBA()
	_, _, _, ga := gap.RGBA()

	assert.Greater(t, lr, lg, "low end of the ramp is red")
	assert.Greater(t, hg, hr, "high end of the ramp is green")
	assert.Equal(t, uint32(0xffff), la)
	assert.Equal(t, uint32(0xffff), ha)
	assert.Equal(t, uint32(0), ga, "nodata is transparent")
}

func TestQuicklook_Downsize(t *testing.T) {
	values := make([]float64, 100*50)
	for i := range values {
		values[i] = float64(i % 7)
	}
	r, err := raster.New(raster.Geometry{Width: 100, Height: 50, CellSize: 1}, values)
	require.NoError(t, err)

	img, err := Quicklook(r, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())
}

func TestQuicklook_EveryRowPainted(t *testing.T) {
	// Tall enough to be split across several row bands.
	const w, h = 3, 257
	values := make([]float64, w*h)
	for i := range values {
		values[i] = float64(i / w)
	}
	values[200*w+1] = -1
	r, err := raster.New(raster.Geometry{Width: w, Height: h, CellSize: 1}, values, raster.WithNoData(-1))
	require.NoError(t, err)

	img, err := Quicklook(r, 0)
	require.NoError(t, err)

	for row := 0; row < h; row++ {
		for c := 0; c < w; c++ {
			_, _, _, a := img.At(c, row).RGBA()
			if row == 200 && c == 1 {
				assert.Equal(t, uint32(0), a, "nodata at row %d col %d", row, c)
				continue
			}
			assert.Equal(t, uint32(0xffff), a, "row %d col %d", row, c)
		}
		if row != 200 {
			assert.Equal(t, img.At(0, row), img.At(w-1, row), "row %d is one value", row)
		}
	}
}

func TestQuicklook_FlatRaster(t *testing.T) {
	r, err := raster.FromRows([][]float64{{3, 3}}, 1, orb.Point{0, 0})
	require.NoError(t, err)

	img, err := Quicklook(r, 0)
	require.NoError(t, err)
	assert.Equal(t, img.At(0, 0), img.At(1, 0))
}

func TestQuicklook_Invalid(t *testing.T) {
	_, err := Quicklook(nil, 0)
	assert.True(t, eris.Is(err, raster.ErrInvalidParameters))

	empty, err := raster.New(raster.Geometry{CellSize: 1}, nil)
	require.NoError(t, err)
	_, err = Quicklook(empty, 0)
	assert.True(t, eris.Is(err, raster.ErrEmptySource))
}

func TestEncodeQuicklook(t *testing.T) {
	r, err := raster.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}}, 1, orb.Point{0, 0})
	require.NoError(t, err)

	res, err := EncodeQuicklook(r, 0)
	require.NoError(t, err)

	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, 3, res.Width)
	assert.Equal(t, 2, res.Height)
	assert.Equal(t, 1.0, res.Stats.Min)
	assert.Equal(t, 6.0, res.Stats.Max)

	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestSave_PNGQuicklook(t *testing.T) {
	r, err := raster.FromRows([][]float64{{1, 2}}, 1, orb.Point{0, 0})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "preview.png")
	require.NoError(t, Save(r, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}
