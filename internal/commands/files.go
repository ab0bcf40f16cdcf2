package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/exporter"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/files"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the cleaned table as CSV, XLSX or SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				out = "credit-trends." + f.Extension()
			}

			svc, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			if err := svc.ExportFile(cmd.Context(), out, f); err != nil {
				return err
			}
			return reportWritten(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatCSV), "csv, xlsx or sqlite")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default credit-trends.<ext>)")

	return cmd
}

func newChartCommand(opts *globalOptions) *cobra.Command {
	var (
		format, out   string
		from, to      string
		width, height int
	)

	cmd := &cobra.Command{
		Use:       "chart <group>",
		Short:     "Render a chart group to an SVG or PNG file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: groupIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := args[0]

			f, err := charts.ParseFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				out = group + "." + string(f)
			}

			svc, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			chartOpts := svc.DefaultChartOptions()
			if width > 0 {
				chartOpts.Width = width
			}
			if height > 0 {
				chartOpts.Height = height
			}

			if out == "-" {
				return svc.Chart(cmd.Context(), cmd.OutOrStdout(), group, from, to, f, chartOpts)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := svc.Chart(cmd.Context(), file, group, from, to, f, chartOpts); err != nil {
				file.Close()
				os.Remove(out)
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			return reportWritten(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(charts.FormatSVG), "svg or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default <group>.<format>)")
	cmd.Flags().StringVar(&from, "from", "", "first quarter, e.g. 2020Q1")
	cmd.Flags().StringVar(&to, "to", "", "last quarter, e.g. 2024Q4")
	cmd.Flags().IntVar(&width, "width", 0, "image width in pixels (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "image height in pixels (default from config)")

	return cmd
}

func reportWritten(cmd *cobra.Command, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n",
		color.New(color.FgGreen).Sprint("Wrote"), path, humanize.Bytes(uint64(st.Size())))
	return nil
}

func newDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets [directory]",
		Short: "List the quarterly releases found in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "data"
			if len(args) > 0 {
				dir = args[0]
			}

			found, err := files.NewDiscovery("").FindDatasets(dir)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return fmt.Errorf("%w in %s", files.ErrNoDatasets, dir)
			}

			table := newTable(cmd.OutOrStdout(), []string{"File", "Release", "Format", "Size", "Modified"})
			for _, f := range found {
				table.Append([]string{
					f.Name,
					f.Release,
					f.Format,
					humanize.Bytes(uint64(f.Size)),
					humanize.Time(f.ModTime),
				})
			}
			table.Render()
			return nil
		},
	}
}
