package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// Report summarizes a pipeline run.
type Report struct {
	RunID     string        `yaml:"run_id" json:"run_id"`
	StartedAt time.Time     `yaml:"started_at" json:"started_at"`
	Duration  time.Duration `yaml:"duration" json:"duration"`

	// Grid is the master grid every layer was aligned to.
	Grid GridReport `yaml:"grid" json:"grid"`

	Stages   []StageReport `yaml:"stages" json:"stages"`
	Inputs   []InputReport `yaml:"inputs" json:"inputs"`
	Criteria []LayerReport `yaml:"criteria" json:"criteria"`

	// Composite describes the final surface after masking.
	Composite raster.Stats `yaml:"composite" json:"composite"`

	Output    string `yaml:"output" json:"output"`
	Quicklook string `yaml:"quicklook,omitempty" json:"quicklook,omitempty"`
}

// GridReport records the master grid geometry.
type GridReport struct {
	Width    int     `yaml:"width" json:"width"`
	Height   int     `yaml:"height" json:"height"`
	CellSize float64 `yaml:"cell_size" json:"cell_size"`
	OriginX  float64 `yaml:"origin_x" json:"origin_x"`
	OriginY  float64 `yaml:"origin_y" json:"origin_y"`
}

// StageReport records one stage's timing.
type StageReport struct {
	Name     string        `yaml:"name" json:"name"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	Skipped  bool          `yaml:"skipped,omitempty" json:"skipped,omitempty"`
}

// InputReport records one aligned input.
type InputReport struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
	// Resampled is false when the input already matched the master grid.
	Resampled bool         `yaml:"resampled" json:"resampled"`
	Stats     raster.Stats `yaml:"stats" json:"stats"`
}

// LayerReport records one scored criterion.
type LayerReport struct {
	Name  string `yaml:"name" json:"name"`
	Input string `yaml:"input" json:"input"`
	Kind  string `yaml:"kind" json:"kind"`
	// Weight is the normalized weight the overlay applied.
	Weight float64      `yaml:"weight" json:"weight"`
	Cost   bool         `yaml:"cost" json:"cost"`
	Stats  raster.Stats `yaml:"stats" json:"stats"`
}

// Stage returns the report of the named stage.
func (r *Report) Stage(name string) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// WriteYAML writes the report to path, creating parent directories.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create report directory for %s", path)
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "pipeline: write report %s", path)
}

// ReadReport loads a report written by WriteYAML.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read report %s", path)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse report %s", path)
	}
	return &r, nil
}
