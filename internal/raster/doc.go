// Package raster provides the grid engine behind the suitability evaluation.
//
// This package implements the in-memory raster model and the operations a
// multi-criteria evaluation is built from: nearest-neighbor resampling onto a
// shared alignment grid, categorical reclassification, exact Euclidean
// distance transforms, weighted linear overlay with cost inversion and hard
// constraints, and region-of-interest masking. It never touches the file
// system; loading and saving live in package rasterio.
//
// # Grid Geometry
//
// A Raster is placed on the ground by its Geometry:
//   - Origin is the lower-left corner of the grid (Esri xllcorner/yllcorner)
//   - Row 0 is the northernmost row, rows increase southward
//   - Column 0 is the westernmost column, columns increase eastward
//   - Cells are square with side CellSize, in ground units
//
// The centre of cell (r, c) is therefore
//
//	(Origin.X + (c+0.5)*CellSize, Origin.Y + (Height-r-0.5)*CellSize)
//
// Two rasters can only be combined cell by cell when their geometries are
// exactly equal. Resample establishes that before any combination.
//
// # NoData
//
// A raster may carry a nodata sentinel. Nodata cells never contribute scores:
// they stay nodata through reclassification, are never distance features, and
// make the overlay composite nodata unless a constraint excludes the cell. NaN
// is accepted as a sentinel.
//
// # Immutability
//
// Rasters are immutable. Every operation returns a freshly allocated raster
// and either fills it completely or returns an error and no raster. Accessors
// that expose cell data return copies.
//
// # Concurrency
//
// Operations split their grid into row bands (columns for the first distance
// pass) and process them on a bounded set of goroutines. Each goroutine owns
// a disjoint part of the output, so no locking is needed; the band group is
// awaited before the output raster is returned. Use SetWorkers to bound the
// parallelism.
//
// # Error Handling
//
// Operations return the sentinel errors in errors.go wrapped with context.
// Test for them with errors.Is or eris.Is.
package raster
