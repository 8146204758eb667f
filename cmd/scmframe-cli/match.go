package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paveg/scmframe"
)

func newMatchCmd() *cobra.Command {
	var (
		level  string
		regexp bool
	)
	cmd := &cobra.Command{
		Use:   "match PATTERN LABEL...",
		Short: "Show which metadata labels a filter pattern selects",
		Long: `Match labels against a filter pattern the way metadata filters do.

Patterns are globs where * matches anything, including the hierarchy
separator; --regexp takes them as regular expressions instead. --level
restricts matches by depth below the pattern's parent: N, N- (at most N)
or N+ (at least N).

Examples:
  scmframe-cli match "Emissions|*" Emissions "Emissions|CO2" "Emissions|CO2|Fossil" --level 1
  scmframe-cli match "^ssp[12]" ssp119 ssp245 ssp585 --regexp`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := args[1:]
			mask, err := scmframe.MatchPatterns(labels, args[:1], level, regexp)
			if err != nil {
				return err
			}

			matched := 0
			rows := make([][]string, len(labels))
			for i, label := range labels {
				rows[i] = []string{label, strconv.FormatBool(mask[i])}
				if mask[i] {
					matched++
				}
			}
			renderTable(cmd.OutOrStdout(), []string{"label", "match"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d labels match %q\n", matched, len(labels), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "depth restriction: N, N- or N+")
	cmd.Flags().BoolVar(&regexp, "regexp", false, "treat the pattern as a regular expression")
	return cmd
}
