package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis HTTP API",
	Long: `Serve the JSON API the chat front-end calls.

Routes:
  POST /api/v1/analyze          {"code": "...", "language": "python"}
  GET  /api/v1/languages
  GET  /api/v1/history          ?q=&source=&language=&severity=&limit=&offset=
  GET  /api/v1/history/stats
  GET  /api/v1/history/{id}
  GET  /api/v1/metrics          ?format=prometheus
  GET  /api/v1/health

Examples:
  # Listen on the configured address
  aidebug serve

  # Mimic the chat UI's typing delay
  aidebug serve --addr :9000 --latency 1500ms`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr)")
	serveCmd.Flags().Duration("latency", 0, "Simulated delay before each analyze response")
	serveCmd.Flags().Bool("no-cache", false, "Disable caching")

	addProfileFlags(serveCmd)
}

// runServe runs the HTTP API until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	noCache, _ := cmd.Flags().GetBool("no-cache")

	stopProfiler, err := startProfiler(cmd)
	if err != nil {
		return err
	}
	defer stopProfiler()

	a, err := newApp(cfg, appOptions{noCache: noCache})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hist server.HistoryStore
	if a.history != nil {
		hist = a.history
	}

	srv := server.New(a.runner, hist, nil, server.Config{
		Addr:             cfg.Server.Addr,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		SimulatedLatency: cfg.Server.SimulatedLatency,
		MaxBodyBytes:     int64(cfg.Server.MaxBodyKB) * 1024,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
	})
	return srv.ListenAndServe(ctx)
}
