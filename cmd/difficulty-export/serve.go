package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/difficulty-export/internal/handlers"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin HTTP API",
		Long: `Serves the export engine over HTTP:

  GET  /health              liveness
  GET  /api/v1/scales       read-only pass, scales and switch narrative
  POST /api/v1/exports      full export run (409 while another run is active)
  GET  /api/v1/runs         recent runs from the audit database
  GET  /api/v1/runs/:run_id one audited run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			logger := utils.NewLogger(cmd.ErrOrStderr(), opts.verbose)
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from PORT)")
	return cmd
}

func newRouter(a *app) *gin.Engine {
	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(a.logger))

	handlers.NewHandlerManager(a.service, a.runs, a.logger).SetupRoutes(router)
	return router
}

func serve(ctx context.Context, a *app) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Admin API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down admin API")
	return srv.Shutdown(shutdownCtx)
}
