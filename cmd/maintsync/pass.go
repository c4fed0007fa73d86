package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/maintsync/pkg/client"
	"github.com/cuemby/maintsync/pkg/config"
	"github.com/cuemby/maintsync/pkg/log"
	"github.com/cuemby/maintsync/pkg/metrics"
	"github.com/cuemby/maintsync/pkg/reconciler"
	"github.com/cuemby/maintsync/pkg/storage"
	"github.com/spf13/cobra"
)

func loadConfig(cfgFile string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags lets explicitly set flags override file values
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("lock-file") {
		cfg.LockFile, _ = flags.GetString("lock-file")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("metrics-textfile") {
		cfg.MetricsTextfile, _ = flags.GetString("metrics-textfile")
	}
}

// runPass performs one locked reconciliation pass
func runPass(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	logger := log.WithComponent("main")
	logger.Debug().Str("config", cfg.Path).Msg("configuration loaded")

	store, err := storage.NewBoltStore(cfg.LockFile, cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	api, err := client.NewClient(client.Config{
		URL:                cfg.URL,
		Username:           cfg.Username,
		Password:           cfg.Password,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.RequestTimeout,
		RequestsPerSecond:  cfg.RequestsPerSecond,
	})
	if err != nil {
		return err
	}

	if err := api.Login(ctx); err != nil {
		return err
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := api.Logout(logoutCtx); err != nil {
			logger.Debug().Err(err).Msg("logout failed")
		}
	}()

	summary, runErr := reconciler.NewReconciler(api).Run(ctx)

	if err := store.RecordPass(summary); err != nil {
		logger.Warn().Err(err).Msg("failed to record pass")
	}
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics")
		}
	}

	return runErr
}
