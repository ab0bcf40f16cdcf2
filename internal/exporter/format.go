package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Format is an export file format
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// ParseFormat accepts csv, xlsx, sqlite or its file extension db
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension without the dot
func (f Format) Extension() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Header returns the export column names
func Header() []string {
	header := []string{"quarter", "period"}
	for _, m := range domain.Metrics() {
		header = append(header, string(m.ID))
	}
	return header
}

// periodLayout renders a quarter timestamp as a date
const periodLayout = "2006-01-02"

// formatFloat uses the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// recordCells renders one record in Header order
func recordCells(r domain.Record) []string {
	cells := []string{r.Quarter, r.Period.Format(periodLayout)}
	for _, m := range domain.Metrics() {
		cells = append(cells, formatFloat(r.Value(m.ID)))
	}
	return cells
}
