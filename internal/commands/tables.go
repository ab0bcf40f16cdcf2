package commands

import (
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

var (
	positive = color.New(color.FgGreen).SprintFunc()
	negative = color.New(color.FgRed).SprintFunc()
	heading  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func kpiRows(kpis []domain.KPI) [][]string {
	rows := make([][]string, 0, len(kpis))
	for _, k := range kpis {
		delta := ""
		if k.Delta != nil {
			switch {
			case *k.Delta > 0:
				delta = positive(k.DeltaDisplay)
			case *k.Delta < 0:
				delta = negative(k.DeltaDisplay)
			default:
				delta = k.DeltaDisplay
			}
		}
		rows = append(rows, []string{k.Label, k.Quarter, k.Display, delta})
	}
	return rows
}

// seriesRows lays a chart group out with one row per quarter and one column
// per metric. Every series of a group shares the table's quarters.
func seriesRows(cs domain.ChartSeries) (header []string, rows [][]string) {
	header = []string{"Quarter"}
	for _, s := range cs.Series {
		header = append(header, s.Label)
	}
	if len(cs.Series) == 0 {
		return header, nil
	}

	for i, p := range cs.Series[0].Points {
		row := []string{p.Quarter}
		for _, s := range cs.Series {
			row = append(row, formatCell(s.Points[i].Value))
		}
		rows = append(rows, row)
	}
	return header, rows
}

func summaryRows(summaries []domain.MetricSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Label,
			strconv.Itoa(s.Count),
			formatCell(s.Mean),
			formatCell(s.StdDev),
			formatCell(s.Min),
			formatCell(s.Median),
			formatCell(s.Max),
		})
	}
	return rows
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
