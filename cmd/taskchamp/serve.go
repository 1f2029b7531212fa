package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/taskchamp/internal/config"
	"github.com/dukerupert/taskchamp/internal/database"
	"github.com/dukerupert/taskchamp/internal/logging"
	"github.com/dukerupert/taskchamp/internal/server"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("port", "", "HTTP listen port")
	if err := v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(db, cfg, logger)

	go srv.Registry().Run(ctx, time.Minute)
	go srv.RateLimiter().Run(ctx, time.Minute)
	go purgeSessions(ctx, srv, logger.With("component", "sessions"))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("taskchamp running", "addr", cfg.BaseURL, "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func purgeSessions(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.Gateway().PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Error("purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired sessions", "count", n)
			}
		}
	}
}
