package raster

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// DefaultNoData is the sentinel given to outputs that need a nodata value when
// none of their inputs provides a usable one.
const DefaultNoData = -32768.0

// Geometry places a grid on the ground.
//
// Two rasters share a grid only when every field is exactly equal; no
// tolerance is applied.
type Geometry struct {
	// Width is the number of columns.
	Width int `json:"width"`

	// Height is the number of rows.
	Height int `json:"height"`

	// CellSize is the side of one square cell in ground units.
	CellSize float64 `json:"cell_size"`

	// Origin is the lower-left corner of the grid.
	Origin orb.Point `json:"origin"`
}

// Cells returns the number of cells in the grid.
func (g Geometry) Cells() int {
	return g.Width * g.Height
}

// Equal reports whether g and o describe exactly the same grid.
func (g Geometry) Equal(o Geometry) bool {
	return g.Width == o.Width &&
		g.Height == o.Height &&
		g.CellSize == o.CellSize &&
		g.Origin.Equal(o.Origin)
}

// Extent returns the ground bounds covered by the grid.
func (g Geometry) Extent() orb.Bound {
	return orb.Bound{
		Min: g.Origin,
		Max: orb.Point{
			g.Origin.X() + float64(g.Width)*g.CellSize,
			g.Origin.Y() + float64(g.Height)*g.CellSize,
		},
	}
}

// CellCenter returns the ground coordinate of the centre of cell (r, c).
func (g Geometry) CellCenter(r, c int) orb.Point {
	return orb.Point{
		g.Origin.X() + (float64(c)+0.5)*g.CellSize,
		g.Origin.Y() + (float64(g.Height-r)-0.5)*g.CellSize,
	}
}

// CellAt locates the cell containing ground point p.
// ok is false when p lies outside the grid.
func (g Geometry) CellAt(p orb.Point) (r, c int, ok bool) {
	col := math.Floor((p.X() - g.Origin.X()) / g.CellSize)
	fromBottom := math.Floor((p.Y() - g.Origin.Y()) / g.CellSize)
	if col < 0 || col >= float64(g.Width) || fromBottom < 0 || fromBottom >= float64(g.Height) {
		return 0, 0, false
	}
	return g.Height - 1 - int(fromBottom), int(col), true
}

func (g Geometry) validate() error {
	if g.Width < 0 || g.Height < 0 {
		return eris.Wrapf(ErrInvalidParameters, "negative dimensions %dx%d", g.Width, g.Height)
	}
	if !(g.CellSize > 0) || math.IsInf(g.CellSize, 0) {
		return eris.Wrapf(ErrInvalidParameters, "cell size must be positive, got %v", g.CellSize)
	}
	return nil
}

// Raster is an immutable grid of float64 samples with placement and an
// optional nodata sentinel.
//
// Values are stored row-major: cell (r, c) lives at index r*Width+c.
type Raster struct {
	geom      Geometry
	values    []float64
	nodata    float64
	hasNoData bool
}

// Option configures a raster built by New or FromRows.
type Option func(*Raster)

// WithNoData marks v as the nodata sentinel.
func WithNoData(v float64) Option {
	return func(r *Raster) {
		r.nodata = v
		r.hasNoData = true
	}
}

// New builds a raster from row-major values. The slice is copied.
//
// Returns ErrInvalidParameters when the geometry is invalid or len(values)
// does not equal Width*Height.
func New(g Geometry, values []float64, opts ...Option) (*Raster, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if len(values) != g.Cells() {
		return nil, eris.Wrapf(ErrInvalidParameters, "got %d values for a %dx%d grid", len(values), g.Width, g.Height)
	}
	r := &Raster{geom: g, values: append([]float64(nil), values...)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FromRows builds a raster from a 2D slice indexed [row][col], row 0 being the
// northernmost row. All rows must have the same length.
func FromRows(rows [][]float64, cellSize float64, origin orb.Point, opts ...Option) (*Raster, error) {
	g := Geometry{Height: len(rows), CellSize: cellSize, Origin: origin}
	if len(rows) > 0 {
		g.Width = len(rows[0])
	}
	values := make([]float64, 0, g.Cells())
	for i, row := range rows {
		if len(row) != g.Width {
			return nil, eris.Wrapf(ErrInvalidParameters, "row %d has %d values, want %d", i, len(row), g.Width)
		}
		values = append(values, row...)
	}
	return New(g, values, opts...)
}

// newRaster wraps an already populated slice without copying it.
func newRaster(g Geometry, values []float64, nodata float64, hasNoData bool) *Raster {
	return &Raster{geom: g, values: values, nodata: nodata, hasNoData: hasNoData}
}

// Geometry returns the grid placement.
func (r *Raster) Geometry() Geometry { return r.geom }

// Width returns the number of columns.
func (r *Raster) Width() int { return r.geom.Width }

// Height returns the number of rows.
func (r *Raster) Height() int { return r.geom.Height }

// CellSize returns the side of one cell in ground units.
func (r *Raster) CellSize() float64 { return r.geom.CellSize }

// Origin returns the lower-left corner.
func (r *Raster) Origin() orb.Point { return r.geom.Origin }

// Extent returns the ground bounds of the raster.
func (r *Raster) Extent() orb.Bound { return r.geom.Extent() }

// NoData returns the sentinel and whether the raster has one.
func (r *Raster) NoData() (float64, bool) { return r.nodata, r.hasNoData }

// IsNoData reports whether v is this raster's nodata sentinel.
func (r *Raster) IsNoData(v float64) bool {
	if !r.hasNoData {
		return false
	}
	if math.IsNaN(r.nodata) {
		return math.IsNaN(v)
	}
	return v == r.nodata
}

// At returns the value of cell (r, c). It panics when out of range.
func (r *Raster) At(row, col int) float64 {
	return r.values[row*r.geom.Width+col]
}

// IsNoDataAt reports whether cell (r, c) holds the nodata sentinel.
func (r *Raster) IsNoDataAt(row, col int) bool {
	return r.IsNoData(r.At(row, col))
}

// Values returns a copy of the row-major cell values.
func (r *Raster) Values() []float64 {
	return append([]float64(nil), r.values...)
}

// Row returns a copy of one row.
func (r *Raster) Row(row int) []float64 {
	w := r.geom.Width
	return append([]float64(nil), r.values[row*w:(row+1)*w]...)
}

// Rows returns a copy of the values as [row][col].
func (r *Raster) Rows() [][]float64 {
	rows := make([][]float64, r.geom.Height)
	for i := range rows {
		rows[i] = r.Row(i)
	}
	return rows
}

// sameGeometry checks that every raster shares the grid of the first.
func sameGeometry(what string, rasters ...*Raster) error {
	for i := 1; i < len(rasters); i++ {
		if !rasters[i].geom.Equal(rasters[0].geom) {
			return eris.Wrapf(ErrGeometryMismatch, "%s: raster %d is %+v, want %+v", what, i, rasters[i].geom, rasters[0].geom)
		}
	}
	return nil
}
