package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/SpecView/pkg/logging"
	"github.com/ChrisMcGann/SpecView/pkg/server"
)

var (
	// Flags for serve command
	port      int
	storePath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve interactive spectrum views over HTTP",
	Long: `Start the HTTP API. Clients create views, send wheel and resize events and
fetch the panels as SVG or PNG. Linked panels are updated server-side.

Examples:
  specview serve --port 8080
  specview serve --config specview.yaml --store spectra.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (config default if 0)")
	serveCmd.Flags().StringVar(&storePath, "store", "", "SQLite spectrum store (config default if empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if port > 0 {
		cfg.Server.Port = port
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	client, cleanup, err := newFetcher(nil, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(cfg, client)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Infof("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	// Wait for interrupt signal or a listen failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logging.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warnf("Server forced to shutdown: %v", err)
	}

	logging.Info("Server stopped")
	return nil
}
