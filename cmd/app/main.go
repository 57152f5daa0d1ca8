package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tickstore/internal/app"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "tickstore",
		Short:         "Consolidated tick-price history loader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "config file path")

	root.AddCommand(symbolsCmd(), describeCmd(), summaryCmd(), loadCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func initApp() (*app.Bootstrap, error) {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(configPath); err != nil {
		return nil, fmt.Errorf("bootstrapping failed: %w", err)
	}
	return bootstrap, nil
}

func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func symbolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List every symbol with data files",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := initApp()
			if err != nil {
				return err
			}

			symbols, err := b.Catalog.ListSymbols()
			if err != nil {
				return err
			}
			for _, sym := range symbols {
				fmt.Println(sym)
			}
			return nil
		},
	}
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <symbol>",
		Short: "Summarize one symbol's dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := initApp()
			if err != nil {
				return err
			}

			ctx, stop := runContext()
			defer stop()

			report := b.Catalog.Describe(ctx, args[0])
			return printJSON(report)
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize every symbol's dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := initApp()
			if err != nil {
				return err
			}

			ctx, stop := runContext()
			defer stop()

			reports, err := b.Catalog.DescribeAll(ctx)
			if err != nil {
				return err
			}
			return printJSON(reports)
		},
	}
}

func loadCmd() *cobra.Command {
	var (
		startFlag string
		endFlag   string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "load <symbol>",
		Short: "Load and consolidate a symbol's tick history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := initApp()
			if err != nil {
				return err
			}

			start, err := parseTimeFlag(startFlag)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := parseTimeFlag(endFlag)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			ctx, stop := runContext()
			defer stop()

			series, report, err := b.Loader.Load(ctx, args[0], start, end, !noCache)
			if err != nil {
				return err
			}

			fmt.Printf("symbol:     %s\n", series.Symbol)
			fmt.Printf("ticks:      %d\n", series.Len())
			if !series.IsEmpty() {
				fmt.Printf("range:      %s .. %s\n",
					series.Start().Format(time.RFC3339),
					series.End().Format(time.RFC3339))
			}
			fmt.Printf("files:      %d resolved, %d decoded, %d skipped\n",
				report.Files, report.Decoded, len(report.Skipped))
			fmt.Printf("from_cache: %v\n", report.FromCache)
			fmt.Printf("elapsed:    %s\n", report.Elapsed)

			for _, skip := range report.Skipped {
				fmt.Printf("skipped:    %s (%s)\n", skip.Path, skip.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "inclusive start bound (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "inclusive end bound (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the in-memory cache")
	return cmd
}

// parseTimeFlag accepts the formats operators actually type
func parseTimeFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unable to parse time: %s", value)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
