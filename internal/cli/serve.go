package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temic137/formforge/internal/api"
	"github.com/temic137/formforge/internal/stats"
)

var (
	servePort  int
	serveHost  string
	corsOrigin string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the formforge REST API server",
	Long: `Start the REST API server.

Endpoints:
  POST /api/v1/forms/generate  - Generate a form schema from content
  GET  /api/v1/models          - List configured model descriptors
  GET  /api/v1/routes          - List purpose routes
  GET  /api/v1/stats/models    - Per-model attempt statistics
  GET  /health                 - Health check`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "", "Host to bind to (overrides config)")
	serveCmd.Flags().StringVarP(&corsOrigin, "cors-origin", "c", "*", "CORS origin to allow")
}

func runServe(cmd *cobra.Command, args []string) error {
	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	// Background latency refresh only makes sense with a real recorder
	if _, noop := recorder.(stats.Noop); !noop && cfg.Stats.RefreshCron != "" {
		refresher := stats.NewRefresher(recorder, modelRouter, cfg.Stats.RefreshCron)
		if err := refresher.Start(); err != nil {
			return fmt.Errorf("failed to start stats refresher: %w", err)
		}
		defer refresher.Stop()
	}

	server := api.NewServer(pipe, modelRouter, recorder, generateOptions(), corsOrigin)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		recorder.Close()
		os.Exit(0)
	}()

	fmt.Printf("Formforge API listening on http://%s\n", addr)
	return server.Run(addr)
}
