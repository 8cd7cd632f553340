package raster

import "github.com/rotisserie/eris"

var (
	// ErrInvalidParameters reports malformed or contradictory arguments.
	ErrInvalidParameters = eris.New("invalid parameters")

	// ErrGeometryMismatch reports rasters whose grids are not exactly aligned.
	ErrGeometryMismatch = eris.New("raster geometry mismatch")

	// ErrEmptySource reports a source raster without cells.
	ErrEmptySource = eris.New("empty source raster")

	// ErrEmptyTable reports an empty lookup table. Reclassify does not return
	// it; an empty table maps every valid cell to the default value.
	ErrEmptyTable = eris.New("empty reclass table")

	// ErrNoFeatureCells reports a distance transform without any feature cell.
	ErrNoFeatureCells = eris.New("no feature cells")

	// ErrNonPositiveWeightSum reports overlay weights summing to zero or less.
	ErrNonPositiveWeightSum = eris.New("overlay weights must sum to a positive value")
)
