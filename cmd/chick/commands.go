package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick"
	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/chobyoungjae/chick/pkg/chick/sheet"
	"github.com/chobyoungjae/chick/pkg/chick/trigger"
)

var dryRun bool

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Sum duplicate order rows into the first row and delete the rest",
	Long: `Rows with the same orderer name are merged: every quantity column
between the first value column and the column before the end-marker header
is summed into the first row, and the other rows are deleted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkbook(cmd.Context(), func(ctx context.Context, wb *chick.Workbook) (interface{}, error) {
			return wb.MergeDuplicates(ctx, dryRun)
		})
	},
}

var mergeAdjacentCmd = &cobra.Command{
	Use:   "merge-adjacent",
	Short: "Merge runs of identical neighbouring cells for display",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkbook(cmd.Context(), func(ctx context.Context, wb *chick.Workbook) (interface{}, error) {
			return wb.MergeAdjacent(ctx)
		})
	},
}

var concatCmd = &cobra.Command{
	Use:   "concat",
	Short: "Sort rows by the first column and join rows with the same key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkbook(cmd.Context(), func(ctx context.Context, wb *chick.Workbook) (interface{}, error) {
			return wb.Concatenate(ctx)
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Mark ledger rows of every highlighted quantity as shipped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkbook(cmd.Context(), func(ctx context.Context, wb *chick.Workbook) (interface{}, error) {
			return wb.CheckAll(ctx)
		})
	},
}

var checkRowCmd = &cobra.Command{
	Use:   "check-row <row>",
	Short: "Mark ledger rows of the highlighted quantities in one row as shipped",
	Args:  cobra.ExactArgs(1),
	RunE: rowCommand(func(ctx context.Context, wb *chick.Workbook, row int) (interface{}, error) {
		return wb.CheckRow(ctx, row)
	}),
}

var highlightRowCmd = &cobra.Command{
	Use:   "highlight-row <row>",
	Short: "Highlight the positive quantities of a row and check it",
	Args:  cobra.ExactArgs(1),
	RunE: rowCommand(func(ctx context.Context, wb *chick.Workbook, row int) (interface{}, error) {
		return wb.HighlightRow(ctx, row)
	}),
}

var clearRowCmd = &cobra.Command{
	Use:   "clear-row <row>",
	Short: "Remove a row's highlights and the shipped marks they produced",
	Args:  cobra.ExactArgs(1),
	RunE: rowCommand(func(ctx context.Context, wb *chick.Workbook, row int) (interface{}, error) {
		return wb.ClearRow(ctx, row)
	}),
}

var clearHighlightsCmd = &cobra.Command{
	Use:   "clear-highlights",
	Short: "Remove every highlight from the quantity grid",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkbook(cmd.Context(), func(ctx context.Context, wb *chick.Workbook) (interface{}, error) {
			return wb.ClearHighlights(ctx)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <row> <column> [value]",
	Short: "Edit a cell and deliver the edit to the sheet triggers",
	Long: `Writes value into one cell (blanking it when value is omitted) and then
delivers the edit to the sheet triggers. The column is a letter (C) or a
number (3). Editing the checkbox column with TRUE highlights the row and with
FALSE clears it; editing the memo column checks the row.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := parseRow(args[0])
		if err != nil {
			return err
		}
		col, err := sheet.ColumnNumber(args[1])
		if err != nil {
			return err
		}
		value := models.Empty
		if len(args) == 3 {
			value = models.String(args[2])
		}

		wb, err := openWorkbook()
		if err != nil {
			return err
		}
		defer wb.Close()

		if err := wb.SetCell(cmd.Context(), row, col, value); err != nil {
			return err
		}
		bus := trigger.NewBus(logger)
		chick.NewApp(wb, logger).Register(bus)
		return bus.Dispatch(cmd.Context(), trigger.Event{Kind: trigger.Edit, Row: row, Col: col, Value: value})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile on a timer and whenever the workbook changes",
	Long: `Runs until interrupted. Every check interval, and whenever the workbook
file is saved by someone else, all highlighted quantities are reconciled
against the ledger.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := openWorkbook()
		if err != nil {
			return err
		}
		defer wb.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := chick.NewApp(wb, logger)
		bus := trigger.NewBus(logger)
		app.Register(bus)

		logger.Info("Watching",
			zap.String("workbook", wb.Path()),
			zap.String("sheet", wb.Sheet()),
			zap.Duration("interval", cfg.CheckInterval()),
			zap.Bool("watch_file", cfg.Watch.WatchFile))

		if _, err := wb.CheckAll(ctx); err != nil {
			logger.Warn("Initial check failed", zap.Error(err))
		}
		return trigger.Run(ctx, bus, app.Sources(cfg.CheckInterval(), cfg.Debounce(), cfg.Watch.WatchFile)...)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", configPath)
		return nil
	},
}

func init() {
	mergeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	configCmd.AddCommand(configInitCmd)
}

// withWorkbook opens the workbook, runs fn and prints its report.
func withWorkbook(ctx context.Context, fn func(context.Context, *chick.Workbook) (interface{}, error)) error {
	wb, err := openWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	report, err := fn(ctx, wb)
	if err != nil {
		return err
	}
	return printReport(report)
}

func rowCommand(fn func(context.Context, *chick.Workbook, int) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		row, err := parseRow(args[0])
		if err != nil {
			return err
		}
		return withWorkbook(cmd.Context(), func(ctx context.Context, wb *chick.Workbook) (interface{}, error) {
			return fn(ctx, wb, row)
		})
	}
}

func parseRow(s string) (int, error) {
	row, err := strconv.Atoi(s)
	if err != nil || row < 1 {
		return 0, fmt.Errorf("invalid row %q", s)
	}
	return row, nil
}
