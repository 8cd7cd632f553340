package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/raster-mce-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: "Serves the raster tools over the Model Context Protocol. Requests are read from stdin " +
		"and responses written to stdout, one JSON-RPC message per line; logs go to stderr.",
	RunE: func(cmd *cobra.Command, args []string) error {
		server.Version = Version
		zap.L().Info("starting mcp server",
			zap.String("version", Version),
			zap.String("build_time", BuildTime),
			zap.String("commit", GitCommit),
		)

		srv := server.New(cfg.Server)
		err := srv.Run(cmd.Context())
		if cmd.Context().Err() != nil {
			zap.L().Info("mcp server stopped")
			return nil
		}
		return eris.Wrap(err, "serve")
	},
}
