// Package main provides the CLI entry point for chick.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick"
	"github.com/chobyoungjae/chick/pkg/chick/config"
	"github.com/chobyoungjae/chick/pkg/chick/logging"
	"github.com/chobyoungjae/chick/pkg/chick/output"
)

var (
	// Global flags
	configPath   string
	workbookPath string
	sheetName    string
	verbose      bool
	pretty       bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chick",
	Short: "Merge order rows and reconcile shipments in an order workbook",
	Long: `chick works on the daily order sheet of an .xlsx workbook.

It merges duplicate order rows, marks ledger rows as shipped when the
matching quantity cell is highlighted, and can keep doing so on a timer
and whenever the workbook changes on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if workbookPath != "" {
			cfg.Workbook = workbookPath
		}
		if sheetName != "" {
			cfg.Sheet = sheetName
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "chick.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&workbookPath, "workbook", "w", "", "Workbook path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&sheetName, "sheet", "s", "", "Sheet name (default: first sheet)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(
		mergeCmd,
		mergeAdjacentCmd,
		concatCmd,
		reconcileCmd,
		checkRowCmd,
		highlightRowCmd,
		clearRowCmd,
		clearHighlightsCmd,
		editCmd,
		watchCmd,
		configCmd,
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openWorkbook opens the configured workbook.
func openWorkbook() (*chick.Workbook, error) {
	if cfg.Workbook == "" {
		return nil, fmt.Errorf("no workbook given: use --workbook or set CHICK_WORKBOOK")
	}
	opts := chick.OptionsFromConfig(cfg)
	opts.Logger = logger
	return chick.Open(cfg.Workbook, opts)
}

func printReport(v interface{}) error {
	if err := output.Write(os.Stdout, v, pretty); err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return nil
}
