package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/config"
	"github.com/projectledger/finance-engine/pkg/utils"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Project and invoicing financial engine",
	Long: `ledger serves the multi-tenant project ledger: GST-aware invoices,
cumulative stage billing, resource budgets and the financial health dashboard.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile == "" {
			return nil
		}
		// a missing default .env is fine; an explicit one must exist
		if err := gotenv.Load(envFile); err != nil && (cmd.Flags().Changed("env-file") || !os.IsNotExist(err)) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file (defaults and environment only when empty)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before the configuration")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadRuntime reads the configuration and builds the logger for a subcommand.
func loadRuntime(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := utils.NewLogger(cfg.ToLoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
