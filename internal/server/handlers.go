package server

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ironsheep/raster-mce-mcp/internal/config"
	"github.com/ironsheep/raster-mce-mcp/internal/pipeline"
	"github.com/ironsheep/raster-mce-mcp/internal/raster"
	"github.com/ironsheep/raster-mce-mcp/internal/rasterio"
)

var (
	// errInvalidArguments marks tool arguments that do not decode or miss a
	// required field. It maps to JSON-RPC -32602.
	errInvalidArguments = eris.New("invalid tool arguments")

	errUnknownTool = eris.New("unknown tool")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "raster_info", "mce_run").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602; any other tool failure returns -32000
// with the error string as data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	log := zap.L().Named("server").With(zap.String("tool", params.Name))
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.Warn("tool failed", zap.Error(err))
		if eris.Is(err, errInvalidArguments) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	log.Debug("tool succeeded")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Decodes and checks its arguments
//  2. Loads input rasters through the cache
//  3. Calls the raster operation
//  4. Saves the result to the requested output and describes it
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Inspection
	case "raster_info":
		return s.handleRasterInfo(args)
	case "raster_quicklook":
		return s.handleRasterQuicklook(args)

	// Alignment
	case "raster_resample":
		return s.handleRasterResample(args)

	// Criterion scoring
	case "raster_reclassify":
		return s.handleRasterReclassify(args)
	case "raster_distance":
		return s.handleRasterDistance(args)
	case "raster_slope":
		return s.handleRasterSlope(args)

	// Combination
	case "raster_overlay":
		return s.handleRasterOverlay(args)

	// Region of interest
	case "raster_derive_mask":
		return s.handleRasterDeriveMask(args)
	case "raster_apply_mask":
		return s.handleRasterApplyMask(args)

	// Pipeline
	case "mce_run":
		return s.handleMCERun(ctx, args)

	default:
		return nil, eris.Wrapf(errUnknownTool, "%s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return eris.Wrap(errInvalidArguments, err.Error())
	}
	return nil
}

// requireArgs checks string arguments given as name, value pairs are set.
func requireArgs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return eris.Wrapf(errInvalidArguments, "%s is required", pairs[i])
		}
	}
	return nil
}

// RasterResult describes a raster a tool wrote.
type RasterResult struct {
	Output   string       `json:"output"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	CellSize float64      `json:"cell_size"`
	Stats    raster.Stats `json:"stats"`
}

// saveResult writes r through the cache and describes it.
func (s *Server) saveResult(r *raster.Raster, output string) (*RasterResult, error) {
	if err := s.cache.Save(r, output); err != nil {
		return nil, err
	}
	return &RasterResult{
		Output:   output,
		Width:    r.Width(),
		Height:   r.Height(),
		CellSize: r.CellSize(),
		Stats:    raster.Describe(r),
	}, nil
}

// === Inspection Handlers ===

type rasterInfoArgs struct {
	Path          string `json:"path"`
	CategoryLimit *int   `json:"category_limit"`
}

func (s *Server) handleRasterInfo(args json.RawMessage) (interface{}, error) {
	var a rasterInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path); err != nil {
		return nil, err
	}
	limit := s.cfg.CategoryLimit
	if a.CategoryLimit != nil {
		limit = *a.CategoryLimit
	}
	return rasterio.LoadInfo(s.cache, a.Path, limit)
}

type rasterQuicklookArgs struct {
	Path    string `json:"path"`
	MaxSize *int   `json:"max_size"`
}

func (s *Server) handleRasterQuicklook(args json.RawMessage) (interface{}, error) {
	var a rasterQuicklookArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path); err != nil {
		return nil, err
	}
	maxSize := s.cfg.QuicklookMaxSize
	if a.MaxSize != nil {
		maxSize = *a.MaxSize
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return rasterio.EncodeQuicklook(r, maxSize)
}

// === Alignment Handlers ===

type rasterResampleArgs struct {
	Path      string  `json:"path"`
	Output    string  `json:"output"`
	CellSize  float64 `json:"cell_size"`
	Reference string  `json:"reference"`
}

func (s *Server) handleRasterResample(args json.RawMessage) (interface{}, error) {
	var a rasterResampleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path, "output", a.Output); err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := raster.ResampleOptions{CellSize: a.CellSize}
	if a.Reference != "" {
		if opts.Reference, err = s.cache.Load(a.Reference); err != nil {
			return nil, err
		}
	}
	out, err := raster.Resample(src, opts)
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

// === Criterion Scoring Handlers ===

type rasterReclassifyArgs struct {
	Path        string  `json:"path"`
	Output      string  `json:"output"`
	ReclassVals string  `json:"reclass_vals"`
	Default     float64 `json:"default"`
}

func (s *Server) handleRasterReclassify(args json.RawMessage) (interface{}, error) {
	var a rasterReclassifyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path, "output", a.Output); err != nil {
		return nil, err
	}
	table, err := raster.ParseReclassValues(a.ReclassVals)
	if err != nil {
		return nil, eris.Wrap(errInvalidArguments, err.Error())
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := raster.Reclassify(src, table, a.Default)
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

type rasterDistanceArgs struct {
	Path         string  `json:"path"`
	Output       string  `json:"output"`
	FeatureValue float64 `json:"feature_value"`
}

func (s *Server) handleRasterDistance(args json.RawMessage) (interface{}, error) {
	var a rasterDistanceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path, "output", a.Output); err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := raster.EuclideanDistance(src, a.FeatureValue)
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

type rasterSlopeArgs struct {
	Path   string `json:"path"`
	Output string `json:"output"`
}

func (s *Server) handleRasterSlope(args json.RawMessage) (interface{}, error) {
	var a rasterSlopeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path, "output", a.Output); err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := raster.Slope(src)
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

// === Combination Handlers ===

type overlayFactorArgs struct {
	Path   string  `json:"path"`
	Weight float64 `json:"weight"`
	Cost   bool    `json:"cost"`
}

type rasterOverlayArgs struct {
	Factors     []overlayFactorArgs `json:"factors"`
	Constraints string              `json:"constraints"`
	ScaleMax    float64             `json:"scale_max"`
	Output      string              `json:"output"`
}

func (s *Server) handleRasterOverlay(args json.RawMessage) (interface{}, error) {
	var a rasterOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("output", a.Output); err != nil {
		return nil, err
	}
	if len(a.Factors) == 0 {
		return nil, eris.Wrap(errInvalidArguments, "factors must not be empty")
	}
	if a.ScaleMax == 0 {
		a.ScaleMax = 100
	}

	factors := make([]raster.Factor, 0, len(a.Factors))
	for i, f := range a.Factors {
		if f.Path == "" {
			return nil, eris.Wrapf(errInvalidArguments, "factors[%d].path is required", i)
		}
		layer, err := s.cache.Load(f.Path)
		if err != nil {
			return nil, err
		}
		factors = append(factors, raster.Factor{Layer: layer, Weight: f.Weight, Cost: f.Cost})
	}

	opts := raster.OverlayOptions{ScaleMax: a.ScaleMax}
	if a.Constraints != "" {
		cons, err := s.cache.Load(a.Constraints)
		if err != nil {
			return nil, err
		}
		opts.Constraints = cons
	}

	out, err := raster.WeightedOverlay(factors, opts)
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

// === Region of Interest Handlers ===

type rasterDeriveMaskArgs struct {
	Path            string    `json:"path"`
	Output          string    `json:"output"`
	Op              string    `json:"op"`
	Values          []float64 `json:"values"`
	OutsideAsNoData bool      `json:"outside_as_nodata"`
}

func (s *Server) handleRasterDeriveMask(args json.RawMessage) (interface{}, error) {
	var a rasterDeriveMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("path", a.Path, "output", a.Output, "op", a.Op); err != nil {
		return nil, err
	}
	pred, err := raster.ParsePredicate(a.Op, a.Values)
	if err != nil {
		return nil, eris.Wrap(errInvalidArguments, err.Error())
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := raster.DeriveMask(src, pred, raster.MaskOptions{OutsideAsNoData: a.OutsideAsNoData})
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

type rasterApplyMaskArgs struct {
	Mask   string `json:"mask"`
	Target string `json:"target"`
	Output string `json:"output"`
}

func (s *Server) handleRasterApplyMask(args json.RawMessage) (interface{}, error) {
	var a rasterApplyMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("mask", a.Mask, "target", a.Target, "output", a.Output); err != nil {
		return nil, err
	}
	mask, err := s.cache.Load(a.Mask)
	if err != nil {
		return nil, err
	}
	target, err := s.cache.Load(a.Target)
	if err != nil {
		return nil, err
	}
	out, err := raster.ApplyMask(mask, target)
	if err != nil {
		return nil, err
	}
	return s.saveResult(out, a.Output)
}

// === Pipeline Handlers ===

type mceRunArgs struct {
	Config string `json:"config"`
}

func (s *Server) handleMCERun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a mceRunArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireArgs("config", a.Config); err != nil {
		return nil, err
	}
	cfg, err := config.Load(a.Config)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, cfg.Pipeline, s.cache)
}
