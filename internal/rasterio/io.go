package rasterio

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// Load reads the raster at path, picking the codec from the extension.
// Gzip-compressed Esri grids (".asc.gz") are decompressed on the fly.
func Load(path string) (*raster.Raster, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatPNG {
		return nil, eris.Wrapf(ErrWriteOnlyFormat, "load %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open raster %s", path)
	}
	defer f.Close()

	var rd io.Reader = f
	if isGzip(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformedFile, "%s: %v", path, err)
		}
		defer gz.Close()
		rd = gz
	}

	var r *raster.Raster
	switch format {
	case FormatEsriASCII:
		r, err = ReadEsriASCII(rd)
	case FormatNative:
		r, err = ReadNative(rd)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", path)
	}
	return r, nil
}

// Save writes r to path in the format its extension names, creating parent
// directories as needed. The file is written to a temporary sibling and
// renamed into place, so readers never observe a partial raster.
func Save(r *raster.Raster, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	var encode func(io.Writer, *raster.Raster) error
	switch format {
	case FormatEsriASCII:
		encode = WriteEsriASCII
	case FormatNative:
		encode = WriteNative
	case FormatPNG:
		encode = WriteQuicklook
	}

	gz := isGzip(path)
	return writeAtomic(path, func(w io.Writer) error {
		if !gz {
			return encode(w, r)
		}
		zw := gzip.NewWriter(w)
		if err := encode(zw, r); err != nil {
			return err
		}
		return zw.Close()
	})
}

// writeAtomic streams write into a temporary file next to path and renames
// it over path once everything has been flushed.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create directory for %s", path)
	}

	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return eris.Wrapf(err, "create temporary file for %s", path)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	if err = f.Close(); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	if err = os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	return nil
}
