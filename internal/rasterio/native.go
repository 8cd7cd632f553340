package rasterio

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// Increment when nativePayload changes shape.
const nativeSchemaVersion uint16 = 1

// nativePayload is the msgpack form of a raster.
type nativePayload struct {
	Schema    uint16    `msgpack:"schema"`
	Width     int       `msgpack:"width"`
	Height    int       `msgpack:"height"`
	CellSize  float64   `msgpack:"cell_size"`
	OriginX   float64   `msgpack:"origin_x"`
	OriginY   float64   `msgpack:"origin_y"`
	NoData    float64   `msgpack:"nodata"`
	HasNoData bool      `msgpack:"has_nodata"`
	Values    []float64 `msgpack:"values"`
}

// ReadNative decodes a raster snapshot written by WriteNative. Snapshots
// from another schema version are rejected rather than guessed at.
func ReadNative(rd io.Reader) (*raster.Raster, error) {
	var p nativePayload
	if err := msgpack.NewDecoder(rd).Decode(&p); err != nil {
		return nil, eris.Wrapf(ErrMalformedFile, "decode native raster: %v", err)
	}
	if p.Schema != nativeSchemaVersion {
		return nil, eris.Wrapf(ErrMalformedFile, "native raster schema %d, want %d", p.Schema, nativeSchemaVersion)
	}

	var opts []raster.Option
	if p.HasNoData {
		opts = append(opts, raster.WithNoData(p.NoData))
	}
	g := raster.Geometry{
		Width:    p.Width,
		Height:   p.Height,
		CellSize: p.CellSize,
		Origin:   orb.Point{p.OriginX, p.OriginY},
	}
	r, err := raster.New(g, p.Values, opts...)
	if err != nil {
		return nil, eris.Wrap(ErrMalformedFile, err.Error())
	}
	return r, nil
}

// WriteNative encodes r as a msgpack snapshot.
func WriteNative(w io.Writer, r *raster.Raster) error {
	if r == nil {
		return eris.Wrap(raster.ErrInvalidParameters, "write native raster: nil raster")
	}

	nd, has := r.NoData()
	origin := r.Origin()
	p := nativePayload{
		Schema:    nativeSchemaVersion,
		Width:     r.Width(),
		Height:    r.Height(),
		CellSize:  r.CellSize(),
		OriginX:   origin.X(),
		OriginY:   origin.Y(),
		NoData:    nd,
		HasNoData: has,
		Values:    r.Values(),
	}
	return eris.Wrap(msgpack.NewEncoder(w).Encode(&p), "encode native raster")
}
