// Package pipeline runs a complete suitability evaluation from a
// configuration: align every input to a master grid, score each criterion,
// combine the scores with a weighted overlay and clip the result to a
// region of interest.
//
// # Stages
//
//  1. align: the base input is resampled to the configured cell size to
//     form the master ("mama") grid; every other input is snapped to it with
//     nearest-neighbor resampling. Inputs are loaded concurrently, but only
//     one is resampled at a time, so alignment never uses more than
//     raster.Workers() goroutines for cell work.
//  2. score: each criterion reclassifies, measures distance on, derives
//     slope from, or passes through its aligned input.
//  3. overlay: criteria are rescaled, weighted and summed; the constraint
//     layer zeroes excluded cells.
//  4. mask: an optional predicate on one input zeroes everything outside
//     the region of interest.
//  5. write: the composite, an optional PNG quicklook and the run report
//     are saved.
//
// The context is checked between stages; the raster operations themselves
// are not interruptible.
//
// # Memory
//
// Aligned inputs are dropped as soon as their last consumer has run and
// criterion scores right after the overlay. When the Store also implements
// Evict(path), raw inputs and intermediates are evicted from it as well.
package pipeline
