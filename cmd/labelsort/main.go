package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsk-labs/label-sorter/internal/export"
	"github.com/jsk-labs/label-sorter/internal/history"
	"github.com/jsk-labs/label-sorter/internal/label"
	"github.com/jsk-labs/label-sorter/internal/sorter"
)

var (
	outDir      string
	workers     int
	rulesFile   string
	reportPath  string
	historyDSN  string
	verboseMode bool
)

var rootCmd = &cobra.Command{
	Use:   "labelsort <input.pdf>",
	Short: "Sort bulk shipping labels by courier and SKU",
	Long: `Splits a bulk Shiprocket label PDF into one file per
(invoice date, courier, SKU) group, named YYYY-MM-DD_Courier_SKU.pdf.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		inputPath := args[0]
		if outDir == "" {
			outDir = filepath.Join(filepath.Dir(inputPath), "sorted_labels")
		}

		source, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return sortAndReport(cmd.Context(), logger, source)
	},
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verboseMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// sortAndReport runs the sort over source bytes and handles the shared
// output concerns: XLSX report, run history, and the console summary.
func sortAndReport(ctx context.Context, logger *slog.Logger, source []byte) error {
	var customRules []label.CourierRule
	var err error
	if rulesFile != "" {
		if customRules, err = label.LoadRules(rulesFile); err != nil {
			return err
		}
		logger.Info("rules.loaded", "file", rulesFile, "count", len(customRules))
	}

	s := sorter.New(sorter.Config{Workers: workers}, label.NewParser(customRules), logger)
	res, err := s.Sort(ctx, source, outDir)
	if err != nil {
		return err
	}

	if reportPath != "" {
		report, err := export.NewService(logger).SummaryXLSX(res)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		if err := os.WriteFile(reportPath, report, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if historyDSN != "" {
		store, err := history.Open(historyDSN, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.SaveRun(ctx, res); err != nil {
			return err
		}
	}

	fmt.Printf("Sorted %d labels into %d files under %s\n", res.GroupedPages(), len(res.Files), res.OutputDir)
	for _, f := range res.Files {
		fmt.Printf("  %s (%d labels)\n", f.Name, f.PageCount)
	}
	if len(res.Unparsed) > 0 {
		fmt.Printf("Unparsed pages: %d\n", len(res.Unparsed))
		for _, u := range res.Unparsed {
			fmt.Printf("  page %d: %s\n", u.PageIndex+1, u.Reason)
		}
	}
	if len(res.Flags) > 0 {
		fmt.Printf("Flagged pages: %d (see report for details)\n", len(res.Flags))
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory (default: ./sorted_labels next to input)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 1, "parallel page parsers")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "path to custom courier rules JSON")
	rootCmd.PersistentFlags().StringVar(&reportPath, "report", "", "write an XLSX summary report to this path")
	rootCmd.PersistentFlags().StringVar(&historyDSN, "history", "", "SQLite path for run history (disabled when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
