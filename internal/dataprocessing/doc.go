// Package dataprocessing turns the quarterly credit card dataset into a
// cleaned, chronologically sorted table and projects it into KPIs, chart
// series and summary statistics.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads CSV or XLSX sources into a RawTable
// 2. Normalizer and period parser: strip "$", "%" and "," decorators, map YYYYQ# labels to dates
// 3. Builder: filters, normalizes and sorts rows into a domain.CreditTable
// 4. Analytics: KPI, chart series and summary projections over a built table
//
// # Usage
//
//	src := dataprocessing.Source{Path: "data/24Q4-CreditCardBalances.csv"}
//	raw, fingerprint, err := dataprocessing.ReadSource(src)
//	if err != nil {
//	    return err
//	}
//	table, stats, err := dataprocessing.NewBuilder("YRQTR").Build(raw)
//
// # Data Flow
//
//	File → Parser → RawTable → Builder → CreditTable → KPIs / ChartSeries / Summaries
//
// # Error Handling
//
// Two error kinds leave this package. A *LoadError means the source could not
// be read or its header does not carry the expected columns. A
// *ValueFormatError means a metric cell is not numeric once its decorators are
// stripped. Rows whose period label is invalid are dropped and counted in
// BuildStats; they never produce an error.
//
// # Caching
//
// TableCache holds built tables keyed by source identity. Entries live until
// they are invalidated explicitly.
package dataprocessing
