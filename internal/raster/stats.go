package raster

import (
	"math"
	"sort"
)

// Stats summarizes the valid (non-nodata) cells of a raster.
type Stats struct {
	// Min is the smallest valid value. Zero when ValidCells is 0.
	Min float64 `json:"min" yaml:"min"`

	// Max is the largest valid value. Zero when ValidCells is 0.
	Max float64 `json:"max" yaml:"max"`

	// Mean is the arithmetic mean of valid values. Zero when ValidCells is 0.
	Mean float64 `json:"mean" yaml:"mean"`

	// ValidCells counts cells that are not nodata.
	ValidCells int `json:"valid_cells" yaml:"valid_cells"`

	// NoDataCells counts nodata cells.
	NoDataCells int `json:"nodata_cells" yaml:"nodata_cells"`
}

// Describe computes min, max, mean and cell counts over valid cells. NaN is
// never a valid value and counts as nodata even without a NaN sentinel.
func Describe(r *Raster) Stats {
	var st Stats
	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range r.values {
		if r.IsNoData(v) || math.IsNaN(v) {
			st.NoDataCells++
			continue
		}
		st.ValidCells++
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if st.ValidCells > 0 {
		st.Min = lo
		st.Max = hi
		st.Mean = sum / float64(st.ValidCells)
	}
	return st
}

// CategoryCount is one entry of a category tally.
type CategoryCount struct {
	Value      float64 `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"` // share of valid cells, 0-100
}

// CountCategories tallies the distinct valid values of a raster, most common
// first (ties broken by ascending value). limit <= 0 returns every category.
//
// It is meant for categorical layers such as land cover, where it shows which
// classes a reclass table needs to cover.
func CountCategories(r *Raster, limit int) []CategoryCount {
	counts := make(map[float64]int)
	valid := 0
	for _, v := range r.values {
		if r.IsNoData(v) || math.IsNaN(v) {
			continue
		}
		counts[v]++
		valid++
	}

	result := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		result = append(result, CategoryCount{
			Value:      v,
			Count:      n,
			Percentage: math.Round(float64(n)/float64(valid)*1000) / 10,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Value < result[j].Value
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
