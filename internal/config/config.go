// Package config loads the suitability tool configuration from a YAML file
// and RASTER_MCE_ environment variables, and sets up the global logger.
package config

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Criterion kinds.
const (
	KindReclass  = "reclass"
	KindDistance = "distance"
	KindSlope    = "slope"
	KindRaw      = "raw"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = eris.New("invalid configuration")

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Workers  int            `yaml:"workers" mapstructure:"workers"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the MCP tool responses.
type ServerConfig struct {
	QuicklookMaxSize int `yaml:"quicklook_max_size" mapstructure:"quicklook_max_size"`
	CategoryLimit    int `yaml:"category_limit" mapstructure:"category_limit"`
}

// PipelineConfig describes one suitability run.
type PipelineConfig struct {
	// Base names the input whose grid, resampled to CellSize, becomes the
	// master grid every other input is aligned to.
	Base BaseConfig `yaml:"base" mapstructure:"base"`

	// Inputs maps input names to raster paths. Viper lowercases map keys,
	// so names are case-insensitive.
	Inputs map[string]string `yaml:"inputs" mapstructure:"inputs"`

	Criteria []CriterionConfig `yaml:"criteria" mapstructure:"criteria"`

	// Constraints optionally names the input used as hard exclusion layer.
	Constraints string `yaml:"constraints" mapstructure:"constraints"`

	Mask MaskConfig `yaml:"mask" mapstructure:"mask"`

	Output            string  `yaml:"output" mapstructure:"output"`
	Quicklook         string  `yaml:"quicklook" mapstructure:"quicklook"`
	Report            string  `yaml:"report" mapstructure:"report"`
	SaveIntermediates bool    `yaml:"save_intermediates" mapstructure:"save_intermediates"`
	WorkDir           string  `yaml:"work_dir" mapstructure:"work_dir"`
	ScaleMax          float64 `yaml:"scale_max" mapstructure:"scale_max"`

	// Dir is the directory of the config file. Relative paths resolve
	// against it. Empty means the working directory.
	Dir string `yaml:"-" mapstructure:"-"`
}

// BaseConfig selects the master grid.
type BaseConfig struct {
	Input string `yaml:"input" mapstructure:"input"`
	// CellSize of the master grid; 0 keeps the base input's own grid.
	CellSize float64 `yaml:"cell_size" mapstructure:"cell_size"`
}

// CriterionConfig turns one aligned input into a scored layer.
type CriterionConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Input string `yaml:"input" mapstructure:"input"`

	// Kind is reclass, distance, slope or raw. Empty means reclass when a table is
	// given and raw otherwise.
	Kind string `yaml:"kind" mapstructure:"kind"`

	// Reclass is an assign-mode table of alternating new;old values.
	Reclass string  `yaml:"reclass" mapstructure:"reclass"`
	Default float64 `yaml:"default" mapstructure:"default"`

	FeatureValue float64 `yaml:"feature_value" mapstructure:"feature_value"`

	Weight float64 `yaml:"weight" mapstructure:"weight"`
	Cost   bool    `yaml:"cost" mapstructure:"cost"`
}

// MaskConfig derives a region of interest from an input.
type MaskConfig struct {
	// Input names the layer the mask is derived from. Empty disables masking.
	Input           string    `yaml:"input" mapstructure:"input"`
	Op              string    `yaml:"op" mapstructure:"op"`
	Values          []float64 `yaml:"values" mapstructure:"values"`
	OutsideAsNoData bool      `yaml:"outside_as_nodata" mapstructure:"outside_as_nodata"`
}

// EffectiveKind resolves an empty Kind.
func (c CriterionConfig) EffectiveKind() string {
	if c.Kind != "" {
		return strings.ToLower(c.Kind)
	}
	if c.Reclass != "" {
		return KindReclass
	}
	return KindRaw
}

// Resolve returns path made absolute against the config file directory.
// Absolute and empty paths are returned unchanged.
func (p PipelineConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.Dir == "" {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// Validate checks the run description for missing or dangling references.
// All problems are reported at once.
func (p PipelineConfig) Validate() error {
	var errs []string
	hasInput := func(name string) bool {
		_, ok := p.Inputs[strings.ToLower(name)]
		return ok
	}

	if p.Base.Input == "" {
		errs = append(errs, "pipeline.base.input is required")
	} else if !hasInput(p.Base.Input) {
		errs = append(errs, "pipeline.base.input "+p.Base.Input+" is not a declared input")
	}
	if p.Base.CellSize < 0 {
		errs = append(errs, "pipeline.base.cell_size must not be negative")
	}
	if p.Output == "" {
		errs = append(errs, "pipeline.output is required")
	}
	if !(p.ScaleMax > 0) {
		errs = append(errs, "pipeline.scale_max must be positive")
	}
	if len(p.Criteria) == 0 {
		errs = append(errs, "pipeline.criteria needs at least one entry")
	}

	names := make([]string, 0, len(p.Inputs))
	for name := range p.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !fileSafe(name) {
			errs = append(errs, "input name "+strconv.Quote(name)+" cannot be used in a file name")
		}
	}

	seen := make(map[string]bool, len(p.Criteria))
	for i, c := range p.Criteria {
		label := c.Name
		if label == "" {
			errs = append(errs, "pipeline.criteria entries need a name")
			label = "#" + strconv.Itoa(i+1)
		} else if !fileSafe(label) {
			errs = append(errs, "criterion name "+strconv.Quote(label)+" cannot be used in a file name")
		}
		if seen[label] {
			errs = append(errs, "criterion "+label+" is declared twice")
		}
		seen[label] = true

		if !hasInput(c.Input) {
			errs = append(errs, "criterion "+label+" uses undeclared input "+c.Input)
		}
		switch c.EffectiveKind() {
		case KindReclass, KindDistance, KindSlope, KindRaw:
		default:
			errs = append(errs, "criterion "+label+" has unknown kind "+c.Kind)
		}
	}

	if p.Constraints != "" && !hasInput(p.Constraints) {
		errs = append(errs, "pipeline.constraints uses undeclared input "+p.Constraints)
	}
	if p.Mask.Input != "" && !hasInput(p.Mask.Input) {
		errs = append(errs, "pipeline.mask.input uses undeclared input "+p.Mask.Input)
	}

	if len(errs) > 0 {
		return eris.Wrap(ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// fileSafe reports whether name can be embedded in a work_dir file name
// without leaving that directory.
func fileSafe(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\\x00")
}

// Load reads configuration from file and environment.
//
// With an empty path, mce.yaml is looked up in the working directory and is
// optional. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mce")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("RASTER_MCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("workers", 0)
	v.SetDefault("server.quicklook_max_size", 512)
	v.SetDefault("server.category_limit", 10)
	v.SetDefault("pipeline.base.cell_size", 0)
	v.SetDefault("pipeline.scale_max", 100)
	v.SetDefault("pipeline.work_dir", ".")
	v.SetDefault("pipeline.mask.op", "ne")

	// Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if used := v.ConfigFileUsed(); used != "" {
		if abs, err := filepath.Abs(used); err == nil {
			used = abs
		}
		cfg.Pipeline.Dir = filepath.Dir(used)
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. Both encodings write to
// stderr, leaving stdout to the MCP protocol.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
