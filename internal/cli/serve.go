package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"leaveportal/internal/config"
)

const shutdownGrace = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var initFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, initFirst)
		},
	}

	cmd.Flags().BoolVar(&initFirst, "init", false, "create missing store files or tables and the upload dir before serving")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, initFirst bool) error {
	cfg, logger := opts.cfg, opts.log
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.SessionSecret == config.Defaults().SessionSecret {
			logger.Warn("running in production with the default session secret")
		}
	}

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if initFirst {
		if err := a.initialize(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      a.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Info("starting server", "addr", srv.Addr, "store", cfg.StoreBackend, "upload_dir", cfg.UploadDir)
	return serveUntilDone(ctx, srv, logger)
}

// serveUntilDone runs srv until ctx is cancelled, then gives in-flight
// requests shutdownGrace to finish.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
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

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
		return err
	}
	logger.Info("server exited")
	return nil
}
