package rasterio

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// Ends of the quicklook ramp: low values red, high values green.
var (
	rampLow  = colorful.Color{R: 0.843, G: 0.098, B: 0.110}
	rampHigh = colorful.Color{R: 0.102, G: 0.588, B: 0.255}
)

// QuicklookResult contains an encoded quicklook.
type QuicklookResult struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	ImageBase64 string       `json:"image_base64"`
	MimeType    string       `json:"mime_type"`
	Stats       raster.Stats `json:"stats"`
}

// Quicklook renders r as an image, one pixel per cell. NaN cells are drawn
// like nodata.
//
// Parameters:
//   - r: The raster to render. It must have at least one cell.
//   - maxSize: Upper bound for the longer image edge. Larger rasters are
//     shrunk with nearest-neighbor sampling so categories stay crisp. Zero
//     or negative keeps full resolution.
//
// Returns:
//   - image.Image: An *image.NRGBA. Nodata cells are fully transparent.
//   - error: Non-nil for a nil or empty raster.
//
// # Colour Ramp
//
// Valid values are stretched over the raster's own minimum and maximum and
// blended from red (low) to green (high) in HCL space, which keeps perceived
// lightness steady along the ramp. A raster with a single distinct value is
// drawn in the middle of the ramp.
func Quicklook(r *raster.Raster, maxSize int) (image.Image, error) {
	if r == nil {
		return nil, eris.Wrap(raster.ErrInvalidParameters, "quicklook: nil raster")
	}
	w, h := r.Width(), r.Height()
	if w*h == 0 {
		return nil, eris.Wrap(raster.ErrEmptySource, "quicklook")
	}

	st := raster.Describe(r)
	span := st.Max - st.Min

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	values := r.Values()
	parallel.Line(h, func(start, end int) {
		for row := start; row < end; row++ {
			for c := 0; c < w; c++ {
				v := values[row*w+c]
				if r.IsNoData(v) || math.IsNaN(v) {
					continue
				}
				t := 0.5
				if span > 0 {
					t = (v - st.Min) / span
				}
				cr, cg, cb := rampLow.BlendHcl(rampHigh, t).Clamped().RGB255()
				img.SetNRGBA(c, row, color.NRGBA{R: cr, G: cg, B: cb, A: 255})
			}
		}
	})

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		return imaging.Fit(img, maxSize, maxSize, imaging.NearestNeighbor), nil
	}
	return img, nil
}

// EncodeQuicklook renders r and returns it as a base64 PNG, ready to embed
// in a tool response.
func EncodeQuicklook(r *raster.Raster, maxSize int) (*QuicklookResult, error) {
	img, err := Quicklook(r, maxSize)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, eris.Wrap(err, "failed to encode quicklook")
	}

	return &QuicklookResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Stats:       raster.Describe(r),
	}, nil
}

// WriteQuicklook renders r at full resolution and writes it as PNG.
func WriteQuicklook(w io.Writer, r *raster.Raster) error {
	img, err := Quicklook(r, 0)
	if err != nil {
		return err
	}
	return eris.Wrap(imaging.Encode(w, img, imaging.PNG), "failed to encode quicklook")
}
