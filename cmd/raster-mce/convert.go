package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/raster-mce-mcp/internal/rasterio"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a raster between formats",
	Long: "Reads an Esri ASCII grid (.asc, .txt, .asc.gz) or native snapshot (.mcr) and writes it " +
		"in the format named by the output extension. A .png output renders a quicklook.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := rasterio.Load(args[0])
		if err != nil {
			return err
		}
		if err := rasterio.Save(r, args[1]); err != nil {
			return err
		}

		zap.L().Info("raster converted", zap.String("from", args[0]), zap.String("to", args[1]))
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d x %d)\n", args[0], args[1], r.Width(), r.Height())
		return nil
	},
}
