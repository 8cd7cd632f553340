package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Inspection
		{
			Name:        "raster_info",
			Description: "Load a raster (Esri ASCII grid, optionally gzipped, or native .mcr snapshot) and return its grid geometry, nodata value, statistics and most frequent categories.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the raster file"),
					"category_limit": map[string]interface{}{
						"type":        "integer",
						"description": "How many top categories to return. Defaults to the server setting; 0 skips the count.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_quicklook",
			Description: "Render a raster as a base64-encoded PNG on a red (low) to green (high) ramp. Nodata cells are transparent.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the raster file"),
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest image edge in pixels. Defaults to the server setting; 0 keeps one pixel per cell.",
					},
				},
				"required": []string{"path"},
			},
		},

		// Alignment
		{
			Name:        "raster_resample",
			Description: "Re-grid a raster by nearest neighbor, either to a new cell size over its own extent or onto the grid of a reference raster. Give exactly one of cell_size and reference.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      stringProp("Absolute path to the source raster"),
					"output":    stringProp("Path to write the result (.asc, .asc.gz, .mcr or .png)"),
					"cell_size": numberProp("New cell size in ground units"),
					"reference": stringProp("Path of a raster whose grid the output copies"),
				},
				"required": []string{"path", "output"},
			},
		},

		// Criterion scoring
		{
			Name:        "raster_reclassify",
			Description: "Map categories to scores. reclass_vals alternates new and old values, e.g. \"0;1;10;2\" maps 1 to 0 and 2 to 10. Unmatched valid cells take the default.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         stringProp("Absolute path to the categorical raster"),
					"output":       stringProp("Path to write the scores"),
					"reclass_vals": stringProp("Semicolon separated new;old pairs"),
					"default":      numberProp("Score for categories not in the table. Default 0"),
				},
				"required": []string{"path", "output", "reclass_vals"},
			},
		},
		{
			Name:        "raster_distance",
			Description: "Euclidean distance in ground units from every cell to the nearest cell equal to feature_value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          stringProp("Absolute path to the source raster"),
					"output":        stringProp("Path to write the distances"),
					"feature_value": numberProp("Cell value marking features"),
				},
				"required": []string{"path", "output", "feature_value"},
			},
		},
		{
			Name:        "raster_slope",
			Description: "Derive terrain slope in degrees from an elevation raster using Horn's 3x3 gradient. Elevation and cell size must share units.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   stringProp("Absolute path to the elevation raster"),
					"output": stringProp("Path to write the slope"),
				},
				"required": []string{"path", "output"},
			},
		},

		// Combination
		{
			Name:        "raster_overlay",
			Description: "Weighted linear combination of criterion layers. Each layer is rescaled to [0, scale_max] over its own range (inverted for cost layers), weights are normalized, and cells where the constraint layer is 0 or nodata become 0. All layers must share one grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"factors": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"path":   map[string]interface{}{"type": "string"},
								"weight": map[string]interface{}{"type": "number"},
								"cost":   map[string]interface{}{"type": "boolean"},
							},
							"required": []string{"path", "weight"},
						},
						"description": "Criterion layers with weights; cost marks layers where lower is better",
					},
					"constraints": stringProp("Optional path of a 0/1 exclusion raster"),
					"scale_max":   numberProp("Top of the rescale range. Default 100"),
					"output":      stringProp("Path to write the composite"),
				},
				"required": []string{"factors", "output"},
			},
		},

		// Region of interest
		{
			Name:        "raster_derive_mask",
			Description: "Build a 0/1 region-of-interest mask from a predicate on cell values. op is one of eq, ne, gt, ge, lt, le or in.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   stringProp("Absolute path to the source raster"),
					"output": stringProp("Path to write the mask"),
					"op": map[string]interface{}{
						"type": "string",
						"enum": []string{"eq", "ne", "gt", "ge", "lt", "le", "in"},
					},
					"values": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Operand(s); exactly one except for in",
					},
					"outside_as_nodata": map[string]interface{}{
						"type":        "boolean",
						"description": "Write nodata instead of 0 outside the region",
					},
				},
				"required": []string{"path", "output", "op", "values"},
			},
		},
		{
			Name:        "raster_apply_mask",
			Description: "Keep target values where the mask is 1 and set them to 0 elsewhere. Both rasters must share one grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask":   stringProp("Absolute path to the 0/1 mask"),
					"target": stringProp("Absolute path to the raster to clip"),
					"output": stringProp("Path to write the clipped raster"),
				},
				"required": []string{"mask", "target", "output"},
			},
		},

		// Pipeline
		{
			Name:        "mce_run",
			Description: "Run a complete suitability evaluation from a YAML configuration: align inputs, score criteria, overlay, mask and write outputs. Returns the run report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"config": stringProp("Absolute path to the pipeline configuration file"),
				},
				"required": []string{"config"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
