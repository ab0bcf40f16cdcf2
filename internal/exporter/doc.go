// Package exporter writes the cleaned credit table to CSV, XLSX and SQLite.
//
// Every format carries the same columns: the quarter label, the first day of
// the quarter as YYYY-MM-DD, then one column per catalog metric named by its
// metric ID. XLSX and SQLite additionally carry the metric catalog and the
// descriptive summary.
//
// Example usage:
//
//	exp := exporter.New(logger)
//	err := exp.Export(ctx, w, table, dataprocessing.Summarize(table), exporter.FormatXLSX)
package exporter
