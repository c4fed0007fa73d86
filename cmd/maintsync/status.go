package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/maintsync/pkg/config"
	"github.com/cuemby/maintsync/pkg/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recently recorded passes",
	Long: `Show the most recent reconciliation passes recorded in the journal.

Examples:
  # Last pass
  maintsync status

  # Last ten passes
  maintsync status --limit 10`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Int("limit", 1, "Number of passes to show (0 for all)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	path, timeout := lockFileFor(cmd)
	store, err := storage.OpenReadOnly(path, timeout)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "No passes recorded yet.")
		return nil
	}
	if err != nil {
		return err
	}
	defer store.Close()

	passes, err := store.ListPasses(limit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(passes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No passes recorded yet.")
		return nil
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(passes)
}

// lockFileFor resolves the journal path from the flag, then the config
// file, then the default. status works without credentials.
func lockFileFor(cmd *cobra.Command) (string, time.Duration) {
	timeout := 5 * time.Second
	if cmd.Flags().Changed("lock-file") {
		path, _ := cmd.Flags().GetString("lock-file")
		return path, timeout
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfg, err := config.Load(cfgFile); err == nil {
		return cfg.LockFile, cfg.LockTimeout
	}
	return config.DefaultLockFile, timeout
}
