package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/carbontally/internal/pipeline"
	"github.com/ppiankov/carbontally/internal/server"
	"github.com/ppiankov/carbontally/internal/worker"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page and JSON API",
	Long: `Serve starts the HTTP interface. Each browser gets an anonymous user id
kept in a cookie, and each user may log one note per second by default.

Example:
  carbontally serve --addr 127.0.0.1:5000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	srv := server.New(p, limiter, cfg.Ledger)

	fmt.Fprintf(os.Stderr, "carbontally listening on http://%s\n", cfg.Server.Addr)
	return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
}
