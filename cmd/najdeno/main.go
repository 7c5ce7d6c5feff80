// Command najdeno runs the campus lost-and-found service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/najdeno/internal/config"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// v collects flags, environment and the config file.
	v = config.New()

	// cfg is the resolved configuration, loaded before any command runs.
	cfg *config.Config

	closeLog = func() {}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "najdeno",
	Short: "Campus lost-and-found service",
	Long: `najdeno lets students post lost and found items, report finding
someone else's item and claim ownership, with every post and claim
reviewed by an administrator.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./najdeno.yaml if present)")
	flags.StringP(config.KeyDB, "d", "", "SQLite database path (default: najdeno.sqlite3)")
	flags.StringP(config.KeyLog, "l", "", "log file path (default: no file, stdout/stderr only)")
	flags.String(config.KeyEnv, "", "environment name; production requires --log (default: development)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(rotateSecretCmd)
}

// flagKeys maps flag names to config keys. Only flags the running command
// defines are bound.
var flagKeys = map[string]string{
	"db":               config.KeyDB,
	"log":              config.KeyLog,
	"env":              config.KeyEnv,
	"addr":             config.KeyAddr,
	"admin-email":      config.KeyAdminEmail,
	"admin-name":       config.KeyAdminName,
	"max-upload-bytes": config.KeyMaxUploadBytes,
	"max-images":       config.KeyMaxImages,
}

// loadConfig resolves configuration and sets up logging for every command.
func loadConfig(cmd *cobra.Command, args []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(v, configFile)
	if err != nil {
		return err
	}

	cleanup, err := setupLogger(cfg.LogPath, cfg.IsProduction())
	if err != nil {
		return err
	}
	closeLog = cleanup
	return nil
}
