package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ironsheep/raster-mce-mcp/internal/rasterio"
)

var infoCategories int

var infoCmd = &cobra.Command{
	Use:   "info <raster>",
	Short: "Print grid metadata and statistics of a raster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := cfg.Server.CategoryLimit
		if cmd.Flags().Changed("categories") {
			limit = infoCategories
		}

		info, err := rasterio.LoadInfo(rasterio.NewCache(), args[0], limit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(info), "encode info")
	},
}

func init() {
	infoCmd.Flags().IntVar(&infoCategories, "categories", 0, "number of top categories to list (default from config)")
}
