package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maintsync",
	Short: "Sync Zabbix maintenance windows with host tags",
	Long: `maintsync creates, extends and removes Zabbix maintenance windows
according to host tags, so maintenance can be managed by editing tags alone.

Tag a host with "maintenance" = "12h" to start a 12 hour window. Add
"maintenance-nodata" to stop data collection during it, add
"maintenance-extend" to restart it from now, remove "maintenance" to end it.

Each invocation runs one pass and exits. Run it every minute from cron or a
systemd timer:

  * * * * * root /usr/local/bin/maintsync --log-json`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"maintsync version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Config file (default: search maintenance-config.json)")
	rootCmd.PersistentFlags().String("lock-file", "", "Run lock and journal database (overrides lock_file)")
	rootCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
	rootCmd.Flags().Bool("log-json", false, "Log as JSON (overrides log_json)")
	rootCmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this file (overrides metrics_textfile)")

	rootCmd.AddCommand(statusCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	return runPass(cmd.Context(), cfg)
}
