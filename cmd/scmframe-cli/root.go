// Command scmframe-cli demonstrates and benchmarks the scmframe library and
// exposes its calendar range generator and metadata pattern matcher.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/paveg/scmframe"
	"github.com/paveg/scmframe/internal/config"
	"github.com/paveg/scmframe/internal/monitoring"
)

type rootOptions struct {
	configPath string
	verbose    bool
	metrics    bool
}

// newRootCmd builds the command tree. Running with no subcommand prints help.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "scmframe-cli",
		Short: "scmframe-cli - simple climate model ensemble toolkit",
		Long: `scmframe-cli exercises the scmframe ensemble library.

Configuration comes from --config, otherwise from SCMFRAME_* environment
variables (SCMFRAME_HIERARCHY_SEPARATOR, SCMFRAME_PARALLEL_THRESHOLD, ...).

Quick start:
  scmframe-cli demo                          # build, filter and summarise an ensemble
  scmframe-cli benchmark --rows 5000         # time the core ensemble operations
  scmframe-cli range 2000-01-01 2000-12-01 MS --calendar 360_day
  scmframe-cli match "Emissions|*" Emissions "Emissions|CO2" --level 1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.apply(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.report(cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML or JSON configuration file")
	pf.BoolVar(&opts.verbose, "verbose", false, "log ensemble operations to stderr")
	pf.BoolVar(&opts.metrics, "metrics", false, "print per-operation timings afterwards")

	root.AddCommand(
		newDemoCmd(opts),
		newBenchmarkCmd(opts),
		newRangeCmd(),
		newMatchCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) apply(stderr io.Writer) error {
	cfg := config.LoadFromEnv()
	if o.configPath != "" {
		loaded, err := scmframe.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.verbose {
		cfg.VerboseLogging = true
	}
	if o.metrics {
		cfg.MetricsCollection = true
	}

	validated, warnings, err := config.NewConfigValidator().Validate(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := o.logger(stderr)
	for _, w := range warnings {
		logger.Debug("configuration", "note", w)
	}
	scmframe.SetConfig(validated)

	if validated.MetricsCollection {
		monitoring.EnableGlobalMonitoring()
	} else {
		monitoring.SetGlobalCollector(nil)
	}
	return nil
}

// report prints the global metrics summary when collection is on
func (o *rootOptions) report(w io.Writer) {
	if !scmframe.GetConfig().MetricsCollection {
		return
	}
	summary := monitoring.GetGlobalSummary()
	if summary.TotalOperations == 0 {
		return
	}
	ops := make([]string, 0, len(summary.OperationCounts))
	for op := range summary.OperationCounts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	rows := make([][]string, len(ops))
	for i, op := range ops {
		rows[i] = []string{op, strconv.Itoa(summary.OperationCounts[op])}
	}
	fmt.Fprintf(w, "\n%d operations in %s\n", summary.TotalOperations, summary.TotalDuration)
	renderTable(w, []string{"operation", "count"}, rows)
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// renderTable writes rows under header as a bordered, left-aligned table.
func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
