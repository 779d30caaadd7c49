package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"carsales/internal/regression"
	"carsales/internal/services"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	noteColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
)

func newSummaryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Describe the loaded dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			sum := s.dashboard.Summary(cmd.Context())
			out := cmd.OutOrStdout()

			titleColor.Fprintln(out, "Dataset summary")
			rows := [][]string{
				{"Source", sum.Source},
				{"Rows read", strconv.Itoa(sum.RowsRead)},
				{"Rows kept", strconv.Itoa(sum.Rows)},
				{"Makes", strconv.Itoa(sum.Makes)},
				{"Models", strconv.Itoa(sum.Models)},
				{"States", strconv.Itoa(sum.States)},
				{"Mean price", strconv.FormatFloat(sum.MeanPrice, 'f', 2, 64)},
			}
			if sum.FirstSale != nil && sum.LastSale != nil {
				rows = append(rows, []string{"Sales period",
					sum.FirstSale.Format("2006-01-02") + " to " + sum.LastSale.Format("2006-01-02")})
			}
			renderTable(out, []string{"Field", "Value"}, rows)

			if len(sum.Dropped) > 0 {
				reasons := make([]string, 0, len(sum.Dropped))
				for reason := range sum.Dropped {
					reasons = append(reasons, reason)
				}
				sort.Strings(reasons)

				dropped := make([][]string, 0, len(reasons))
				for _, reason := range reasons {
					dropped = append(dropped, []string{reason, strconv.Itoa(sum.Dropped[reason])})
				}
				noteColor.Fprintln(out, "Dropped rows")
				renderTable(out, []string{"Reason", "Rows"}, dropped)
			}
			return nil
		},
	}
}

// newViewCmd builds the command printing one dashboard view. Only the flags
// the view reads are registered.
func newViewCmd(flags *rootFlags, view services.ViewName, short string) *cobra.Command {
	var (
		p     services.Params
		limit int
	)

	cmd := &cobra.Command{
		Use:   string(view),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}
			v, err := s.dashboard.Render(cmd.Context(), view, p.Trimmed())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			titleColor.Fprintln(out, v.Title)

			rows := v.Data.Values()
			total := len(rows)
			if limit > 0 && total > limit {
				rows = rows[:limit]
			}
			renderTable(out, v.Data.Columns(), rows)
			if len(rows) < total {
				noteColor.Fprintf(out, "%d of %d rows shown\n", len(rows), total)
			}
			return nil
		},
	}

	f := cmd.Flags()
	switch view {
	case services.ViewCategories:
		f.StringVar(&p.Column, "column", "", "column to rank: make, year, body, transmission, state, color or interior")
		f.StringVar(&p.Direction, "direction", "", "top or bottom")
	case services.ViewModels:
		f.StringVar(&p.Make, "make", "", "make whose models are ranked")
		f.StringVar(&p.Metric, "metric", "", "count, avg_price, avg_mmr or price_mmr_ratio")
	case services.ViewStates:
		f.StringVar(&p.Make, "make", "", "make filter, or all")
		f.StringVar(&p.Model, "model", "", "model filter, or all")
	case services.ViewScatter:
		f.StringVar(&p.Variable, "variable", "", "odometer or condition")
		limit = 20
	case services.ViewTrend:
		f.StringVar(&p.Metric, "metric", "", "count or avg_price")
	}
	f.IntVar(&limit, "limit", limit, "maximum rows printed (0 prints all)")
	return cmd
}

func newRegressionCmd(flags *rootFlags) *cobra.Command {
	var (
		live bool
		opts regression.FitOptions
	)

	cmd := &cobra.Command{
		Use:   "regression",
		Short: "Print the regression report",
		Long:  `Prints the two published regression models. With --live both models are refitted on the loaded dataset and reported with their fit diagnostics.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}

			report := s.dashboard.RegressionReport(cmd.Context())
			if live {
				s.cfg.Regression.EnableLive = true
				s.dashboard = services.NewDashboardService(s.table, s.cfg.Regression, nil, s.logger)

				o := s.dashboard.DefaultFitOptions()
				if cmd.Flags().Changed("test-ratio") {
					o.TestRatio = opts.TestRatio
				}
				if cmd.Flags().Changed("seed") {
					o.Seed = opts.Seed
				}
				if report, err = s.dashboard.FitRegression(cmd.Context(), &o); err != nil {
					return err
				}
			}

			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&live, "live", false, "refit the models on the loaded dataset")
	f.Float64Var(&opts.TestRatio, "test-ratio", 0, "held-out share of rows for --live (default from config)")
	f.Uint64Var(&opts.Seed, "seed", 0, "split seed for --live (default from config)")
	return cmd
}

func printReport(out io.Writer, report *regression.Report) {
	titleColor.Fprintln(out, report.Title)
	fmt.Fprintln(out, report.Intro)

	for _, m := range report.Models {
		fmt.Fprintln(out)
		titleColor.Fprintln(out, m.Name)
		fmt.Fprintln(out, m.Equation)

		rows := make([][]string, 0, len(m.Coefficients))
		for _, c := range m.Coefficients {
			rows = append(rows, []string{
				c.Term,
				strconv.FormatFloat(c.Estimate, 'g', 6, 64),
				strconv.FormatFloat(c.PValue, 'g', 3, 64),
				fmt.Sprintf("[%.4g ; %.4g]", c.CILow, c.CIHigh),
			})
		}
		renderTable(out, []string{"Term", "Estimate", "p-value", "95% CI"}, rows)

		if d := m.Diagnostics; d != nil {
			fmt.Fprintf(out, "train rows %d, test rows %d, R² train %.4f, R² test %.4f, RMSE test %.2f\n",
				d.TrainRows, d.TestRows, d.R2Train, d.R2Test, d.RMSETest)
		}
		for _, note := range m.Notes {
			noteColor.Fprintln(out, "• "+note)
		}
		if m.Interpretation != "" {
			fmt.Fprintln(out, m.Interpretation)
		}
	}
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every view as CSV and chart page, plus the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("--out is required")
			}
			s, err := flags.open(cmd)
			if err != nil {
				return err
			}

			res, err := s.dashboard.ExportDir(cmd.Context(), dir)
			if err != nil {
				return err
			}

			files := append([]string(nil), res.Files...)
			sort.Strings(files)

			out := cmd.OutOrStdout()
			okColor.Fprintf(out, "✓ %d files written to %s\n", len(files), res.Dir)
			for _, file := range files {
				fmt.Fprintln(out, "  "+file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "out", "o", "", "output directory")
	return cmd
}

func renderTable(out io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
