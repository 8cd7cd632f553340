package rasterio

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrUnsupportedFormat is returned for paths whose extension maps to no
	// known raster format.
	ErrUnsupportedFormat = eris.New("unsupported raster format")

	// ErrWriteOnlyFormat is returned when loading a format that can only be
	// written, such as a PNG quicklook.
	ErrWriteOnlyFormat = eris.New("raster format is write-only")

	// ErrMalformedFile is returned when a file's content does not follow its
	// format.
	ErrMalformedFile = eris.New("malformed raster file")
)

// Format identifies an on-disk raster encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatEsriASCII
	FormatNative
	FormatPNG
)

var formatNames = []string{"unknown", "esri-ascii", "native", "png"}

// String returns the short name used in tool output ("esri-ascii", ...).
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}
	return formatNames[f]
}

var formatExtensions = map[string]Format{
	".asc": FormatEsriASCII,
	".txt": FormatEsriASCII,
	".mcr": FormatNative,
	".png": FormatPNG,
}

// DetectFormat maps a path to its format by extension, case-insensitively.
// A trailing ".gz" is accepted for Esri ASCII grids only.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	gz := strings.HasSuffix(name, ".gz")
	if gz {
		name = strings.TrimSuffix(name, ".gz")
	}

	f, ok := formatExtensions[filepath.Ext(name)]
	if !ok || (gz && f != FormatEsriASCII) {
		return FormatUnknown, eris.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	return f, nil
}

// IsSupported reports whether path has an extension Load or Save accepts.
func IsSupported(path string) bool {
	_, err := DetectFormat(path)
	return err == nil
}

func isGzip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gz")
}
