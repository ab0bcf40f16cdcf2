package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Sheet names of the XLSX export
const (
	SheetData    = "Credit Trends"
	SheetMetrics = "Metrics"
	SheetSummary = "Summary"
)

// WriteXLSX writes a workbook with the data, metric catalog and summary sheets
func WriteXLSX(w io.Writer, table *domain.CreditTable, summaries []domain.MetricSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		return fmt.Errorf("rename data sheet: %w", err)
	}
	for _, name := range []string{SheetMetrics, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeDataSheet(f, table, headerStyle); err != nil {
		return err
	}
	if err := writeMetricsSheet(f, headerStyle); err != nil {
		return err
	}
	if err := writeSummarySheet(f, summaries, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDataSheet(f *excelize.File, table *domain.CreditTable, headerStyle int) error {
	header := Header()
	if err := writeHeader(f, SheetData, header, headerStyle); err != nil {
		return err
	}

	if table != nil {
		metrics := domain.Metrics()
		for i, r := range table.Records {
			row := make([]interface{}, 0, len(header))
			row = append(row, r.Quarter, r.Period.Format(periodLayout))
			for _, m := range metrics {
				row = append(row, r.Value(m.ID))
			}
			if err := setRow(f, SheetData, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetData, "A", "B", 12); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetPanes(SheetData, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeMetricsSheet(f *excelize.File, headerStyle int) error {
	if err := writeHeader(f, SheetMetrics, []string{"id", "column", "label", "unit"}, headerStyle); err != nil {
		return err
	}
	for i, m := range domain.Metrics() {
		if err := setRow(f, SheetMetrics, i+2, []interface{}{string(m.ID), m.Column, m.Label, string(m.Unit)}); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetMetrics, "B", "B", 60)
}

func writeSummarySheet(f *excelize.File, summaries []domain.MetricSummary, headerStyle int) error {
	header := []string{"metric", "label", "count", "mean", "std_dev", "min", "q1", "median", "q3", "max"}
	if err := writeHeader(f, SheetSummary, header, headerStyle); err != nil {
		return err
	}
	for i, s := range summaries {
		row := []interface{}{string(s.Metric), s.Label, s.Count, s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max}
		if err := setRow(f, SheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := setRow(f, sheet, 1, row); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return fmt.Errorf("style header of %s: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}
