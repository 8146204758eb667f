package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/paveg/scmframe"
)

const temperatureVariable = "Surface Air Temperature Change"

var demoScenarios = []string{"ssp119", "ssp126", "ssp245", "ssp370", "ssp585"}

// ensembleRecords builds members runs of each demo scenario from 2000 to
// 2100 every ten years. Warming rises towards a scenario-dependent level,
// the low scenarios overshoot and decline.
func ensembleRecords(members int) []scmframe.Record {
	records := make([]scmframe.Record, 0, members*len(demoScenarios))
	for k, scenario := range demoScenarios {
		target := 1.2 + 0.8*float64(k)
		for m := 0; m < members; m++ {
			spread := 0.9 + 0.2*float64(m)/math.Max(1, float64(members-1))
			values := make([]float64, 11)
			for t := range values {
				x := float64(t) / 10
				v := target * spread * x
				if k < 2 {
					v = target * spread * math.Sin(x*math.Pi*0.75) / math.Sin(math.Pi*0.75*0.8)
				}
				values[t] = 0.9 + v
			}
			records = append(records, scmframe.Record{
				Meta: map[string]any{
					"climate_model":   "demo_model",
					"model":           "demo_iam",
					"region":          "World",
					"scenario":        scenario,
					"ensemble_member": m,
					"variable":        temperatureVariable,
					"unit":            "K",
				},
				Values: values,
			})
		}
	}
	return records
}

func ensembleYears() scmframe.TimeInput {
	years := make([]int, 11)
	for i := range years {
		years[i] = 2000 + 10*i
	}
	return scmframe.Years(years...)
}

func newDemoCmd(root *rootOptions) *cobra.Command {
	var members int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build, filter, resample and summarise a demo ensemble",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if members < 1 {
				return fmt.Errorf("--members must be positive, got %d", members)
			}
			out := cmd.OutOrStdout()
			logger := root.logger(cmd.ErrOrStderr())

			r, err := scmframe.FromRecords(ensembleRecords(members), ensembleYears(), scmframe.WithLogger(logger))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Ensemble:", r)

			low, err := r.Filter(scmframe.Filter{Meta: map[string]any{"scenario": "ssp1*"}})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Low scenarios:", low)

			annual, err := low.Resample("AS")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Annual:", annual)

			crossing, err := scmframe.CalculateCrossingTimes(annual, 1.5, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nFirst year above 1.5K:")
			crossing.WriteTable(out)

			fmt.Fprintln(out, "\nSummary statistics:")
			opts := scmframe.DefaultSummaryOptions()
			opts.PeakQuantiles = []float64{0.05, 0.5, 0.95}
			opts.Progress = func(done, total int, name string) {
				logger.Debug("summary statistic", "done", done, "total", total, "name", name)
			}
			summary, err := scmframe.CalculateSummaryStats(r, []string{"climate_model", "model", "scenario", "region"}, opts)
			if err != nil {
				return err
			}
			scmframe.WriteSummary(out, summary)

			return scmframe.WithMemoryManager(nil, func(m *scmframe.MemoryManager) error {
				rec := m.MetaRecord(r)
				fmt.Fprintf(out, "\nMetadata record: %d rows, %d columns\n", rec.NumRows(), rec.NumCols())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&members, "members", 5, "ensemble members per scenario")
	return cmd
}
