package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/raster-mce-mcp/internal/config"
	"github.com/ironsheep/raster-mce-mcp/internal/raster"
)

// resample is the alignment re-grid step.
var resample = raster.Resample

// Store loads and saves rasters by path. rasterio.Cache satisfies it.
type Store interface {
	Load(path string) (*raster.Raster, error)
	Save(r *raster.Raster, path string) error
}

// evicter is implemented by stores that keep rasters in memory.
type evicter interface {
	Evict(path string)
}

// runner carries the state of one run between stages.
type runner struct {
	cfg   config.PipelineConfig
	store Store
	log   *zap.Logger
	rep   *Report

	mama    *raster.Raster
	aligned map[string]*raster.Raster
	uses    map[string]int
	scored  []raster.Factor

	composite *raster.Raster
}

// Run executes a suitability evaluation.
//
// Parameters:
//   - ctx: Checked between stages and between input alignments.
//   - cfg: The run description. It is validated first.
//   - store: Where inputs are read from and outputs written to.
//
// Returns:
//   - *Report: Timings, grid and per-layer statistics of the run. It is also
//     written as YAML to cfg.Report when set.
//   - error: The first failure, wrapped with the stage and layer it
//     happened in. Nothing after a failed stage runs.
func Run(ctx context.Context, cfg config.PipelineConfig, store Store) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: validate")
	}
	if store == nil {
		return nil, eris.Wrap(raster.ErrInvalidParameters, "pipeline: nil store")
	}

	r := &runner{
		cfg:     cfg,
		store:   store,
		aligned: make(map[string]*raster.Raster),
		uses:    make(map[string]int),
		rep: &Report{
			RunID:     uuid.NewString(),
			StartedAt: time.Now().UTC(),
		},
	}
	r.log = zap.L().With(zap.String("run_id", r.rep.RunID))
	r.log.Info("pipeline started",
		zap.String("base", cfg.Base.Input),
		zap.Int("criteria", len(cfg.Criteria)),
		zap.Int("workers", raster.Workers()),
	)

	stages := []struct {
		name string
		run  func(context.Context) (skipped bool, err error)
	}{
		{"align", r.align},
		{"score", r.score},
		{"overlay", r.overlay},
		{"mask", r.mask},
		{"write", r.write},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "pipeline: cancelled before %s", st.name)
		}

		start := time.Now()
		skipped, err := st.run(ctx)
		if err != nil {
			r.log.Error("stage failed", zap.String("stage", st.name), zap.Error(err))
			return nil, eris.Wrapf(err, "pipeline: %s", st.name)
		}
		d := time.Since(start)
		r.rep.Stages = append(r.rep.Stages, StageReport{Name: st.name, Duration: d, Skipped: skipped})
		r.log.Info("stage complete", zap.String("stage", st.name), zap.Duration("duration", d), zap.Bool("skipped", skipped))
	}
	r.rep.Duration = time.Since(r.rep.StartedAt)

	if cfg.Report != "" {
		if err := r.rep.WriteYAML(cfg.Resolve(cfg.Report)); err != nil {
			return nil, err
		}
	}

	r.log.Info("pipeline finished",
		zap.Duration("duration", r.rep.Duration),
		zap.String("output", r.rep.Output),
		zap.Float64("max_score", r.rep.Composite.Max),
	)
	return r.rep, nil
}

// inputPath resolves the file of a named input.
func (r *runner) inputPath(name string) string {
	return r.cfg.Resolve(r.cfg.Inputs[strings.ToLower(name)])
}

// workPath resolves a file inside the work directory.
func (r *runner) workPath(name string) string {
	return r.cfg.Resolve(filepath.Join(r.cfg.WorkDir, name))
}

func (r *runner) evict(path string) {
	if e, ok := r.store.(evicter); ok {
		e.Evict(path)
	}
}

// consume hands out an aligned input and drops it after its last use.
func (r *runner) consume(name string) *raster.Raster {
	key := strings.ToLower(name)
	layer := r.aligned[key]
	r.uses[key]--
	if r.uses[key] <= 0 {
		delete(r.aligned, key)
		r.log.Debug("aligned input released", zap.String("input", key))
	}
	return layer
}

// save writes an intermediate when the run keeps them.
func (r *runner) save(layer *raster.Raster, file string) error {
	if !r.cfg.SaveIntermediates {
		return nil
	}
	path := r.workPath(file)
	if err := r.store.Save(layer, path); err != nil {
		return err
	}
	r.evict(path)
	return nil
}

func (r *runner) align(ctx context.Context) (bool, error) {
	// Count consumers so each aligned input can be released after its last.
	for _, c := range r.cfg.Criteria {
		r.uses[strings.ToLower(c.Input)]++
	}
	if r.cfg.Constraints != "" {
		r.uses[strings.ToLower(r.cfg.Constraints)]++
	}
	if r.cfg.Mask.Input != "" {
		r.uses[strings.ToLower(r.cfg.Mask.Input)]++
	}

	baseName := strings.ToLower(r.cfg.Base.Input)
	basePath := r.inputPath(baseName)
	base, err := r.store.Load(basePath)
	if err != nil {
		return false, eris.Wrapf(err, "input %s", baseName)
	}
	r.evict(basePath)

	r.mama = base
	if r.cfg.Base.CellSize > 0 {
		r.mama, err = raster.Resample(base, raster.ResampleOptions{CellSize: r.cfg.Base.CellSize})
		if err != nil {
			return false, eris.Wrapf(err, "input %s", baseName)
		}
	}
	g := r.mama.Geometry()
	r.rep.Grid = GridReport{
		Width:    g.Width,
		Height:   g.Height,
		CellSize: g.CellSize,
		OriginX:  g.Origin.X(),
		OriginY:  g.Origin.Y(),
	}
	r.log.Info("master grid ready",
		zap.String("input", baseName),
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.Float64("cell_size", g.CellSize),
	)

	names := make([]string, 0, len(r.uses))
	for name := range r.uses {
		names = append(names, name)
	}
	sort.Strings(names)

	// Loads overlap; resampling runs one input at a time because Resample
	// already fans out over raster.Workers() row bands.
	var mu, resampling sync.Mutex
	reports := make(map[string]InputReport, len(names))
	record := func(name string, layer *raster.Raster, resampled bool) {
		mu.Lock()
		r.aligned[name] = layer
		reports[name] = InputReport{
			Name:      name,
			Path:      r.inputPath(name),
			Resampled: resampled,
			Stats:     raster.Describe(layer),
		}
		mu.Unlock()
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(raster.Workers())
	for _, name := range names {
		if name == baseName {
			record(name, r.mama, r.cfg.Base.CellSize > 0)
			continue
		}
		name := name // per-iteration copy (go1.21 loop semantics)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := r.inputPath(name)
			src, err := r.store.Load(path)
			if err != nil {
				return eris.Wrapf(err, "input %s", name)
			}
			r.evict(path)

			if src.Geometry().Equal(g) {
				record(name, src, false)
				return nil
			}
			resampling.Lock()
			layer, err := resample(src, raster.ResampleOptions{Reference: r.mama})
			resampling.Unlock()
			if err != nil {
				return eris.Wrapf(err, "input %s", name)
			}
			record(name, layer, true)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return false, err
	}

	for _, name := range names {
		r.rep.Inputs = append(r.rep.Inputs, reports[name])
		if err := r.save(r.aligned[name], "aligned_"+name+".asc"); err != nil {
			return false, eris.Wrapf(err, "input %s", name)
		}
	}
	return false, nil
}

func (r *runner) score(_ context.Context) (bool, error) {
	for _, c := range r.cfg.Criteria {
		in := r.consume(c.Input)
		kind := c.EffectiveKind()

		var (
			layer *raster.Raster
			err   error
		)
		switch kind {
		case config.KindReclass:
			var table []raster.ReclassEntry
			table, err = raster.ParseReclassValues(c.Reclass)
			if err == nil {
				layer, err = raster.Reclassify(in, table, c.Default)
			}
		case config.KindDistance:
			layer, err = raster.EuclideanDistance(in, c.FeatureValue)
		case config.KindSlope:
			layer, err = raster.Slope(in)
		default:
			layer = in
		}
		if err != nil {
			return false, eris.Wrapf(err, "criterion %s", c.Name)
		}

		r.scored = append(r.scored, raster.Factor{Layer: layer, Weight: c.Weight, Cost: c.Cost})
		r.rep.Criteria = append(r.rep.Criteria, LayerReport{
			Name:   c.Name,
			Input:  strings.ToLower(c.Input),
			Kind:   kind,
			Weight: c.Weight,
			Cost:   c.Cost,
			Stats:  raster.Describe(layer),
		})
		r.log.Debug("criterion scored", zap.String("criterion", c.Name), zap.String("kind", kind))

		if err := r.save(layer, "score_"+c.Name+".asc"); err != nil {
			return false, eris.Wrapf(err, "criterion %s", c.Name)
		}
	}
	return false, nil
}

func (r *runner) overlay(_ context.Context) (bool, error) {
	opts := raster.OverlayOptions{ScaleMax: r.cfg.ScaleMax}
	if r.cfg.Constraints != "" {
		opts.Constraints = r.consume(r.cfg.Constraints)
	}

	composite, err := raster.WeightedOverlay(r.scored, opts)
	if err != nil {
		return false, err
	}

	var sum float64
	for _, f := range r.scored {
		sum += f.Weight
	}
	for i := range r.rep.Criteria {
		r.rep.Criteria[i].Weight /= sum
	}

	r.scored = nil
	r.composite = composite
	return false, nil
}

func (r *runner) mask(_ context.Context) (bool, error) {
	m := r.cfg.Mask
	if m.Input == "" {
		return true, nil
	}

	pred, err := raster.ParsePredicate(m.Op, m.Values)
	if err != nil {
		return false, err
	}
	roi, err := raster.DeriveMask(r.consume(m.Input), pred, raster.MaskOptions{OutsideAsNoData: m.OutsideAsNoData})
	if err != nil {
		return false, eris.Wrapf(err, "mask input %s", m.Input)
	}
	if r.composite, err = raster.ApplyMask(roi, r.composite); err != nil {
		return false, err
	}
	return false, nil
}

func (r *runner) write(_ context.Context) (bool, error) {
	r.rep.Composite = raster.Describe(r.composite)

	out := r.cfg.Resolve(r.cfg.Output)
	if err := r.store.Save(r.composite, out); err != nil {
		return false, err
	}
	r.rep.Output = out

	if r.cfg.Quicklook != "" {
		ql := r.cfg.Resolve(r.cfg.Quicklook)
		if err := r.store.Save(r.composite, ql); err != nil {
			return false, err
		}
		r.rep.Quicklook = ql
	}
	return false, nil
}
