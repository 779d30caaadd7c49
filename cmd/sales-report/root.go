package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"carsales/internal/config"
	"carsales/internal/dataset"
	"carsales/internal/infrastructure"
	"carsales/internal/services"
)

// flags shared by every subcommand
type rootFlags struct {
	dataPath   string
	configFile string
	noColor    bool
	verbose    bool
}

// session is the state a subcommand runs against once the dataset is loaded.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	table     *dataset.Table
	stats     dataset.LoadStats
	dashboard *services.DashboardService
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "sales-report",
		Short:         "Used-car sales reports in the terminal",
		Long:          `sales-report loads and cleans the car sales dataset, then prints the dashboard rankings, the state counts, the price relationships and the regression report as tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.dataPath, "data", "", "sales file to load (CSV or XLSX, overrides the configured path)")
	pf.StringVar(&flags.configFile, "config", "", "YAML configuration file")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newSummaryCmd(flags),
		newViewCmd(flags, services.ViewCategories, "Rank body types, colors or interiors by sales"),
		newViewCmd(flags, services.ViewModels, "Rank the models of one make"),
		newViewCmd(flags, services.ViewStates, "Count sales per state for a make and model"),
		newViewCmd(flags, services.ViewScatter, "Selling price against odometer or condition"),
		newViewCmd(flags, services.ViewTrend, "Yearly sales counts or mean prices"),
		newRegressionCmd(flags),
		newExportCmd(flags),
	)
	return root
}

// open loads the configuration and the dataset.
func (f *rootFlags) open(cmd *cobra.Command) (*session, error) {
	if f.configFile != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG_FILE", f.configFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.dataPath != "" {
		cfg.Dataset.Path = f.dataPath
	}

	logCfg := cfg.Logging
	logCfg.Level = "warn"
	if f.verbose {
		logCfg.Level = "debug"
	}
	logger := infrastructure.WithComponent(infrastructure.NewLogger(logCfg, cmd.ErrOrStderr()), "sales_report")

	ctx := infrastructure.EnsureTraceID(cmd.Context())
	cmd.SetContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	table, stats, err := dataset.Load(ctx, cfg.DatasetPath(), dataset.Options{
		DateLayouts:  cfg.Dataset.DateLayouts,
		MaxFileBytes: cfg.Dataset.MaxFileBytes,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Dataset loaded",
		slog.String("source", stats.Source),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("rows_dropped", stats.RowsDropped()))

	return &session{
		cfg:       cfg,
		logger:    logger,
		table:     table,
		stats:     stats,
		dashboard: services.NewDashboardService(table, cfg.Regression, nil, logger),
	}, nil
}
