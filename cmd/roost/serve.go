package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benaskins/roost/internal/api"
	"github.com/benaskins/roost/internal/bridge"
	"github.com/benaskins/roost/internal/config"
	"github.com/benaskins/roost/internal/update"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vault service",
	Long:  "Runs the login bridge and the local HTTP API until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		v, cfg, err := openVault("serve")
		if err != nil {
			return err
		}

		if orphans, err := v.Orphans(); err != nil {
			logger.Warn("store consistency sweep failed", "error", err)
		} else if len(orphans) > 0 {
			logger.Warn("store entries without a registered account", "keys", orphans)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b := bridge.New(v)
		go b.Run(ctx)

		srv := api.NewServer(v, b)
		serveErr := make(chan error, 1)
		go func() {
			if cfg.APISocket != "" {
				serveErr <- srv.ListenUnix(cfg.APISocket)
			} else {
				serveErr <- srv.ListenTCP(cfg.APIAddr)
			}
		}()

		go func() {
			if err := config.Watch(ctx, configPath, func() {
				logger.Info("config changed, restart to apply", "path", configPath)
			}); err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()

		if cfg.UpdateFeed != "" {
			every := cfg.UpdateCheckEvery()
			checker := update.NewChecker(cfg.UpdateFeed, version, every)
			go checker.Poll(ctx, every, func(rel update.Release) {
				logger.Info("update available", "version", rel.Version, "url", rel.URL)
			})
		}

		logger.Info("roost running", "version", version)

		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
