package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paveg/scmframe"
	"github.com/paveg/scmframe/internal/monitoring"
)

const benchmarkIterations = 5

func newBenchmarkCmd(root *rootOptions) *cobra.Command {
	var (
		rows   int
		report bool
	)
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Time filtering, interpolation, grouping and summary statistics",
		Long: `Time the core ensemble operations over a generated ensemble.

Examples:
  scmframe-cli benchmark
  scmframe-cli benchmark --rows 10000 --report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < len(demoScenarios) {
				return fmt.Errorf("--rows must be at least %d, got %d", len(demoScenarios), rows)
			}
			suite, err := benchmarkSuite(rows/len(demoScenarios), root.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			suite.Run()
			if report {
				_, err := io.WriteString(cmd.OutOrStdout(), suite.GenerateReport())
				return err
			}
			suite.RenderTable(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 1000, "number of timeseries in the ensemble")
	cmd.Flags().BoolVar(&report, "report", false, "print a markdown report instead of a table")
	return cmd
}

// benchmarkSuite registers one scenario per core operation over an
// ensemble of members timeseries per demo scenario
func benchmarkSuite(members int, logger *slog.Logger) (*monitoring.BenchmarkSuite, error) {
	r, err := scmframe.FromRecords(ensembleRecords(members), ensembleYears(), scmframe.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	n := r.Len()
	annual := make([]int, 101)
	for i := range annual {
		annual[i] = 2000 + i
	}

	suite := monitoring.NewBenchmarkSuite()
	suite.AddQuickScenario("filter", "glob filter on scenario", n, func() error {
		_, err := r.Filter(scmframe.Filter{Meta: map[string]any{"scenario": "ssp*5"}})
		return err
	})
	suite.AddQuickScenario("filter-time", "year range filter", n, func() error {
		_, err := r.Filter(scmframe.Filter{Year: []int{2020, 2030, 2040, 2050}})
		return err
	})
	suite.AddQuickScenario("unique-meta", "unique scenario labels", n, func() error {
		_, err := r.UniqueMeta("scenario")
		return err
	})
	suite.AddScenario(monitoring.BenchmarkScenario{
		Name:        "interpolate",
		Description: "linear interpolation onto annual steps",
		Timeseries:  n,
		Iterations:  benchmarkIterations,
		Operation: func() error {
			_, err := r.Interpolate(scmframe.Years(annual...), scmframe.Linear, scmframe.ExtrapolateNone)
			return err
		},
	})
	suite.AddQuickScenario("groupby-mean", "mean over ensemble members", n, func() error {
		_, err := r.ProcessOver([]string{"ensemble_member"}, scmframe.Mean)
		return err
	})
	suite.AddQuickScenario("append", "append the ensemble to a relabelled copy", 2*n, func() error {
		other := r.Copy()
		if err := other.SetMeta("climate_model", "other_model"); err != nil {
			return err
		}
		_, err := scmframe.Append(r, other)
		return err
	})
	suite.AddScenario(monitoring.BenchmarkScenario{
		Name:        "summary",
		Description: "exceedance, peak and categorisation summary",
		Timeseries:  n,
		Iterations:  benchmarkIterations,
		Operation: func() error {
			_, err := scmframe.CalculateSummaryStats(r, []string{"climate_model", "model", "scenario", "region"},
				scmframe.DefaultSummaryOptions())
			return err
		},
	})
	return suite, nil
}
