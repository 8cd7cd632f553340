// Package rasterio reads and writes rasters for the suitability tools.
//
// Three on-disk formats are handled, chosen by file extension:
//
//   - Esri ASCII grid (".asc", ".txt", optionally gzip-compressed as
//     ".asc.gz"): the interchange format of desktop GIS packages.
//   - Native snapshot (".mcr"): a msgpack encoding of the in-memory raster,
//     lossless including NaN sentinels.
//   - PNG quicklook (".png"): a coloured preview. Write-only.
//
// # Grid Origin
//
// Esri headers may give either the lower-left corner (XLLCORNER/YLLCORNER) or
// the centre of the lower-left cell (XLLCENTER/YLLCENTER). Both load into
// the corner-based origin used by package raster; writers always emit
// corners, so a load, save, load cycle is lossless.
//
// # Thread Safety
//
// Load, Save and the format codecs are stateless. Cache is safe for
// concurrent use and is what the pipeline and the MCP server share.
//
// # Error Handling
//
// Failures are wrapped with eris and carry the offending path. Callers can
// test for ErrUnsupportedFormat, ErrWriteOnlyFormat and ErrMalformedFile
// with errors.Is.
package rasterio
