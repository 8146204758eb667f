package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paveg/scmframe"
)

func newRangeCmd() *cobra.Command {
	var calendarName string
	cmd := &cobra.Command{
		Use:   "range START END FREQ",
		Short: "Print the timestamps of a calendar-aware range",
		Long: `Print every timestamp aligned to FREQ between START and END inclusive.

START and END are "YYYY", "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS". FREQ is an
offset alias such as AS, A, QS, Q, MS, M, D, H, T or S with an optional
multiple ("2MS", "6H").

Examples:
  scmframe-cli range 2000 2010 AS
  scmframe-cli range 2000-01-01 2000-03-01 D --calendar 360_day`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := scmframe.ParseCalendar(calendarName)
			if err != nil {
				return err
			}
			start, err := parseDateTime(cal, args[0])
			if err != nil {
				return err
			}
			end, err := parseDateTime(cal, args[1])
			if err != nil {
				return err
			}
			offset, err := scmframe.ParseOffset(args[2])
			if err != nil {
				return err
			}
			dts, err := scmframe.GenerateRange(start, end, offset)
			if err != nil {
				return err
			}

			rows := make([][]string, len(dts))
			for i, dt := range dts {
				rows[i] = []string{strconv.Itoa(i), dt.String(), strconv.FormatFloat(dt.YearFraction(), 'f', 4, 64)}
			}
			renderTable(cmd.OutOrStdout(), []string{"#", "timestamp", "year fraction"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d timestamps, offset %s, calendar %s\n", len(dts), offset, cal)
			return nil
		},
	}
	cmd.Flags().StringVar(&calendarName, "calendar", "standard",
		"calendar: standard, gregorian, proleptic_gregorian, noleap, 365_day, all_leap, 366_day, 360_day, julian")
	return cmd
}

// parseDateTime reads "YYYY", "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS". Dates
// are read field by field so calendar-only days such as 02-30 pass.
func parseDateTime(cal scmframe.Calendar, s string) (scmframe.DateTime, error) {
	fields := []int{0, 1, 1, 0, 0, 0}
	date, clock, hasClock := strings.Cut(strings.TrimSpace(strings.Replace(s, "T", " ", 1)), " ")

	parts := strings.Split(date, "-")
	if hasClock {
		parts = append(parts, strings.Split(clock, ":")...)
	}
	if len(parts) != 1 && len(parts) != 3 && len(parts) != 6 {
		return scmframe.DateTime{}, fmt.Errorf("cannot parse %q as a date", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return scmframe.DateTime{}, fmt.Errorf("cannot parse %q as a date: %w", s, err)
		}
		fields[i] = n
	}
	return scmframe.NewDateTime(cal, fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])
}
