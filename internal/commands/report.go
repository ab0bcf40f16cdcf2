package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
)

func newKPIsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Show the headline KPIs for the latest quarter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			kpis, err := svc.KPIs(cmd.Context())
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), []string{"KPI", "Quarter", "Value", "Delta"})
			table.AppendBulk(kpiRows(kpis))
			table.Render()
			return nil
		},
	}
}

func newSeriesCommand(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:       "series <group>",
		Short:     "Print the quarterly history of a chart group",
		Long:      "Print the quarterly history of a chart group. Groups: " + strings.Join(groupIDs(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: groupIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			cs, err := svc.Series(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), heading(cs.Group.Title))
			header, rows := seriesRows(cs)
			table := newTable(cmd.OutOrStdout(), header)
			table.AppendBulk(rows)
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first quarter, e.g. 2020Q1")
	cmd.Flags().StringVar(&to, "to", "", "last quarter, e.g. 2024Q4")

	return cmd
}

func newSummaryCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show descriptive statistics for every metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			summaries, err := svc.Summary(cmd.Context())
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), []string{"Metric", "Count", "Mean", "StdDev", "Min", "Median", "Max"})
			table.AppendBulk(summaryRows(summaries))
			table.Render()
			return nil
		},
	}
}

func newInfoCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the loaded dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			info, err := svc.Info(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s\n", heading("Source:"), info.Source)
			fmt.Fprintf(w, "%s  %s\n", heading("Format:"), info.Format)
			fmt.Fprintf(w, "%s  %s\n", heading("Rows:"), humanize.Comma(int64(info.Rows)))
			fmt.Fprintf(w, "%s  %s .. %s\n", heading("Range:"), info.FirstQuarter, info.LastQuarter)
			if info.DroppedRows > 0 {
				fmt.Fprintf(w, "%s  %d rows without a valid quarter label\n", heading("Dropped:"), info.DroppedRows)
			}
			if len(info.DuplicateQuarters) > 0 {
				fmt.Fprintf(w, "%s  %s\n", negative("Duplicates:"), strings.Join(info.DuplicateQuarters, ", "))
			}
			fmt.Fprintf(w, "%s  %s\n", heading("Fingerprint:"), info.Fingerprint)
			return nil
		},
	}
}

func groupIDs() []string {
	groups := dataprocessing.ChartGroups()
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids
}
