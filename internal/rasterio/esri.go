package rasterio

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// maxLineBytes bounds one grid row; wide rasters have long lines.
const maxLineBytes = 64 << 20

// maxPrealloc caps the cells reserved from the header before any row is read.
const maxPrealloc = 1 << 20

// esriHeader collects the header lines of an Esri ASCII grid.
type esriHeader struct {
	ncols, nrows int
	x, y         float64
	xCenter      bool
	yCenter      bool
	cellSize     float64
	nodata       float64
	hasNoData    bool
	seen         map[string]bool
}

var mandatoryHeaders = [][]string{
	{"NCOLS"},
	{"NROWS"},
	{"XLLCORNER", "XLLCENTER"},
	{"YLLCORNER", "YLLCENTER"},
	{"CELLSIZE"},
}

// ReadEsriASCII parses an Esri ASCII grid.
//
// Header keywords are case-insensitive and may appear in any order before
// the first data line. NODATA_VALUE is optional; the rest are mandatory, with
// either the CORNER or the CENTER variant for each axis. Every data line must
// hold exactly NCOLS values and there must be exactly NROWS of them; blank
// lines are ignored.
func ReadEsriASCII(rd io.Reader) (*raster.Raster, error) {
	h := esriHeader{seen: make(map[string]bool)}
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var values []float64
	inHeader := true
	rows, lineNo := 0, 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if inHeader {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				if err := h.parseLine(fields); err != nil {
					return nil, eris.Wrapf(err, "line %d", lineNo)
				}
				continue
			}
			if err := h.validate(); err != nil {
				return nil, err
			}
			inHeader = false
			values = make([]float64, 0, min(h.ncols*h.nrows, maxPrealloc))
		}

		if rows == h.nrows {
			return nil, eris.Wrapf(ErrMalformedFile, "line %d: more than %d data rows", lineNo, h.nrows)
		}
		if len(fields) != h.ncols {
			return nil, eris.Wrapf(ErrMalformedFile, "line %d: row has %d values, want %d", lineNo, len(fields), h.ncols)
		}
		for _, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, eris.Wrapf(ErrMalformedFile, "line %d: %q is not a number", lineNo, s)
			}
			values = append(values, v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read esri ascii grid")
	}

	if inHeader {
		if err := h.validate(); err != nil {
			return nil, err
		}
	}
	if rows != h.nrows {
		return nil, eris.Wrapf(ErrMalformedFile, "found %d data rows, want %d", rows, h.nrows)
	}

	origin := orb.Point{h.x, h.y}
	if h.xCenter {
		origin[0] -= h.cellSize / 2
	}
	if h.yCenter {
		origin[1] -= h.cellSize / 2
	}

	var opts []raster.Option
	if h.hasNoData {
		opts = append(opts, raster.WithNoData(h.nodata))
	}
	g := raster.Geometry{Width: h.ncols, Height: h.nrows, CellSize: h.cellSize, Origin: origin}
	r, err := raster.New(g, values, opts...)
	if err != nil {
		return nil, eris.Wrap(ErrMalformedFile, err.Error())
	}
	return r, nil
}

func (h *esriHeader) parseLine(fields []string) error {
	if len(fields) != 2 {
		return eris.Wrapf(ErrMalformedFile, "header line must have exactly two fields, got %d", len(fields))
	}

	key := strings.ToUpper(fields[0])
	if h.seen[key] {
		return eris.Wrapf(ErrMalformedFile, "duplicate header %s", key)
	}
	h.seen[key] = true

	switch key {
	case "NCOLS", "NROWS":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return eris.Wrapf(ErrMalformedFile, "%s must be a non-negative integer, got %q", key, fields[1])
		}
		if key == "NCOLS" {
			h.ncols = n
		} else {
			h.nrows = n
		}
		return nil
	}

	f, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return eris.Wrapf(ErrMalformedFile, "%s must be a number, got %q", key, fields[1])
	}
	switch key {
	case "XLLCORNER", "XLLCENTER":
		h.x, h.xCenter = f, key == "XLLCENTER"
	case "YLLCORNER", "YLLCENTER":
		h.y, h.yCenter = f, key == "YLLCENTER"
	case "CELLSIZE":
		if !(f > 0) {
			return eris.Wrapf(ErrMalformedFile, "CELLSIZE must be greater than 0, got %v", f)
		}
		h.cellSize = f
	case "NODATA_VALUE":
		h.nodata, h.hasNoData = f, true
	default:
		return eris.Wrapf(ErrMalformedFile, "unknown header keyword %s", fields[0])
	}
	return nil
}

func (h *esriHeader) validate() error {
	for _, alternatives := range mandatoryHeaders {
		found := 0
		for _, k := range alternatives {
			if h.seen[k] {
				found++
			}
		}
		switch {
		case found == 0:
			return eris.Wrapf(ErrMalformedFile, "missing header %s", strings.Join(alternatives, " or "))
		case found > 1:
			return eris.Wrapf(ErrMalformedFile, "headers %s are exclusive", strings.Join(alternatives, " and "))
		}
	}
	if h.ncols != 0 && h.nrows > math.MaxInt/h.ncols {
		return eris.Wrapf(ErrMalformedFile, "grid of %d x %d cells is too large", h.ncols, h.nrows)
	}
	return nil
}

// WriteEsriASCII writes r as an Esri ASCII grid with corner-based headers.
// Values use the shortest representation that parses back to the same
// float64. NODATA_VALUE is written only when r has a sentinel.
func WriteEsriASCII(w io.Writer, r *raster.Raster) error {
	if r == nil {
		return eris.Wrap(raster.ErrInvalidParameters, "write esri ascii grid: nil raster")
	}

	bw := bufio.NewWriter(w)
	origin := r.Origin()
	header := [][2]string{
		{"NCOLS", strconv.Itoa(r.Width())},
		{"NROWS", strconv.Itoa(r.Height())},
		{"XLLCORNER", formatValue(origin.X())},
		{"YLLCORNER", formatValue(origin.Y())},
		{"CELLSIZE", formatValue(r.CellSize())},
	}
	if nd, ok := r.NoData(); ok {
		header = append(header, [2]string{"NODATA_VALUE", formatValue(nd)})
	}
	for _, kv := range header {
		bw.WriteString(kv[0])
		bw.WriteByte(' ')
		bw.WriteString(kv[1])
		bw.WriteByte('\n')
	}

	values := r.Values()
	width := r.Width()
	for row := 0; row < r.Height(); row++ {
		for c, v := range values[row*width : (row+1)*width] {
			if c > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatValue(v))
		}
		bw.WriteByte('\n')
	}

	return eris.Wrap(bw.Flush(), "write esri ascii grid")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
