package rasterio

import (
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// Cache provides thread-safe caching of loaded rasters to avoid redundant
// disk reads and parsing.
//
// The cache stores rasters keyed by their cleaned file path. Once a raster
// is loaded, subsequent Load() calls for the same path return the cached
// value without disk I/O. Rasters are immutable, so sharing them between
// callers is safe.
//
// Cache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached rasters remain in memory until explicitly removed via Evict() or
// Clear(). A suitability run over large inputs should evict intermediate
// layers once they have been consumed.
//
// # Example Usage
//
//	cache := rasterio.NewCache()
//	dem, err := cache.Load("/data/dem.asc")
//	if err != nil {
//	    return err
//	}
//	// Use dem...
//	cache.Evict("/data/dem.asc") // Optional: free memory
type Cache struct {
	mu      sync.RWMutex
	rasters map[string]*raster.Raster
}

// NewCache creates an empty raster cache, ready for concurrent use.
func NewCache() *Cache {
	return &Cache{
		rasters: make(map[string]*raster.Raster),
	}
}

// Load retrieves a raster from the cache or reads it from disk if not cached.
//
// Parameters:
//   - path: File path of an Esri ASCII grid (".asc", ".txt", ".asc.gz") or
//     a native snapshot (".mcr").
//
// Returns:
//   - *raster.Raster: The raster, shared with other callers of the same path.
//   - error: Non-nil if the file cannot be opened, has an unsupported
//     extension, or does not parse.
//
// Two goroutines missing the cache for the same path at once may both read
// the file; the last one to finish wins the cache slot.
func (c *Cache) Load(path string) (*raster.Raster, error) {
	key := filepath.Clean(path)

	c.mu.RLock()
	if r, ok := c.rasters[key]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := Load(key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[key] = r
	c.mu.Unlock()

	zap.L().Debug("raster loaded",
		zap.String("path", key),
		zap.Int("width", r.Width()),
		zap.Int("height", r.Height()),
		zap.Float64("cell_size", r.CellSize()),
	)
	return r, nil
}

// Save writes r to path and caches it under that path, so a following Load
// is served from memory. PNG quicklooks are written but never cached, since
// they cannot be read back.
func (c *Cache) Save(r *raster.Raster, path string) error {
	key := filepath.Clean(path)
	if err := Save(r, key); err != nil {
		return err
	}

	if f, _ := DetectFormat(key); f != FormatPNG {
		c.mu.Lock()
		c.rasters[key] = r
		c.mu.Unlock()
	}

	zap.L().Debug("raster saved", zap.String("path", key))
	return nil
}

// Evict removes a raster from the cache by its path. Unknown paths are
// ignored. The next Load() for the path reads from disk.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.rasters, filepath.Clean(path))
	c.mu.Unlock()
}

// Clear removes all rasters from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[string]*raster.Raster)
	c.mu.Unlock()
}

// Len returns the number of cached rasters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rasters)
}

// Info contains metadata and summary statistics of a raster file.
type Info struct {
	// Path is the file the raster was read from.
	Path string `json:"path"`

	// Format is the encoding detected from the extension.
	Format string `json:"format"`

	// Width and Height are the grid dimensions in cells.
	Width  int `json:"width"`
	Height int `json:"height"`

	// CellSize is the side length of a cell in map units.
	CellSize float64 `json:"cell_size"`

	// Origin is the lower-left corner of the grid.
	Origin orb.Point `json:"origin"`

	// Extent is the bounding box covered by the grid.
	Extent orb.Bound `json:"extent"`

	// NoData is the sentinel value, or nil when the raster has none or its
	// sentinel is NaN (which JSON cannot carry).
	NoData *float64 `json:"nodata,omitempty"`

	// NoDataIsNaN is set when the sentinel is NaN.
	NoDataIsNaN bool `json:"nodata_is_nan,omitempty"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Stats summarizes the valid cells.
	Stats raster.Stats `json:"stats"`

	// Categories lists the most frequent values, useful for categorical
	// layers such as land cover or soils. Empty when categoryLimit is 0.
	Categories []raster.CategoryCount `json:"categories,omitempty"`
}

// LoadInfo loads a raster through cache and describes it.
//
// Parameters:
//   - cache: The cache to load through. Must not be nil.
//   - path: Path to the raster file.
//   - categoryLimit: How many of the most frequent values to list. Zero
//     skips the category count, which is costly on continuous layers.
//
// Returns:
//   - *Info: Metadata, statistics and top categories.
//   - error: Non-nil if the raster cannot be loaded or the file cannot be stat'd.
func LoadInfo(cache *Cache, path string, categoryLimit int) (*Info, error) {
	r, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to stat %s", path)
	}
	format, _ := DetectFormat(path)

	info := &Info{
		Path:          path,
		Format:        format.String(),
		Width:         r.Width(),
		Height:        r.Height(),
		CellSize:      r.CellSize(),
		Origin:        r.Origin(),
		Extent:        r.Extent(),
		FileSizeBytes: stat.Size(),
		Stats:         raster.Describe(r),
	}
	if nd, ok := r.NoData(); ok {
		if math.IsNaN(nd) {
			info.NoDataIsNaN = true
		} else {
			info.NoData = &nd
		}
	}
	if categoryLimit > 0 {
		info.Categories = raster.CountCategories(r, categoryLimit)
	}
	return info, nil
}
