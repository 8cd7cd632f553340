// Package server implements the MCP (Model Context Protocol) server for raster
// suitability tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the raster
// operations and the full evaluation pipeline through the MCP protocol, so an
// MCP client can inspect layers, build criteria step by step, or run a
// configured analysis end to end.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Inspection:
//   - raster_info: Grid geometry, nodata, statistics, top categories
//   - raster_quicklook: Base64 PNG rendering
//
// Alignment:
//   - raster_resample: Nearest-neighbor re-grid by cell size or reference grid
//
// Criterion scoring:
//   - raster_reclassify: Category to score lookup
//   - raster_distance: Euclidean distance to feature cells
//   - raster_slope: Terrain slope in degrees from elevation
//
// Combination:
//   - raster_overlay: Rescale, weight and sum criteria under constraints
//
// Region of interest:
//   - raster_derive_mask: 0/1 mask from a value predicate
//   - raster_apply_mask: Zero a raster outside a mask
//
// Pipeline:
//   - mce_run: Run a configuration file, return the run report
//
// Tools that produce a raster take an output path, save the result there and
// return its geometry and statistics rather than the cell values.
//
// # Raster Caching
//
// Loaded and written rasters are kept in a rasterio.Cache keyed by path, so
// chaining tools on the outputs of earlier calls does not re-read files. The
// cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC error responses with:
//   - code: -32602 for malformed or missing arguments, -32000 for any other
//     tool failure, -32601 for unknown methods
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg.Server)
//	if err := srv.Run(ctx); err != nil {
//	    zap.L().Fatal("server stopped", zap.Error(err))
//	}
package server
