package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ironsheep/raster-mce-mcp/internal/pipeline"
	"github.com/ironsheep/raster-mce-mcp/internal/rasterio"
)

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the suitability pipeline described by --config",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := pipeline.Run(cmd.Context(), cfg.Pipeline, rasterio.NewCache())
		if err != nil {
			return err
		}

		if runJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(rep), "encode report")
		}
		printSummary(cmd.OutOrStdout(), rep)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full run report as JSON")
}

// printSummary writes a short human-readable account of a run.
func printSummary(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(w, "run %s finished in %s\n", rep.RunID, rep.Duration)
	fmt.Fprintf(w, "grid: %d x %d cells of %g at (%g, %g)\n",
		rep.Grid.Width, rep.Grid.Height, rep.Grid.CellSize, rep.Grid.OriginX, rep.Grid.OriginY)

	fmt.Fprintln(w, "criteria:")
	for _, c := range rep.Criteria {
		dir := "benefit"
		if c.Cost {
			dir = "cost"
		}
		fmt.Fprintf(w, "  %-16s %-8s %-7s weight %.3f  range [%g, %g]\n",
			c.Name, c.Kind, dir, c.Weight, c.Stats.Min, c.Stats.Max)
	}

	st := rep.Composite
	fmt.Fprintf(w, "composite: min %.2f  max %.2f  mean %.2f  (%d valid, %d nodata)\n",
		st.Min, st.Max, st.Mean, st.ValidCells, st.NoDataCells)
	fmt.Fprintf(w, "output: %s\n", rep.Output)
	if rep.Quicklook != "" {
		fmt.Fprintf(w, "quicklook: %s\n", rep.Quicklook)
	}
}
