package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// QuarterFixture is one row of a generated dataset. Values holds raw cell text
// per metric; metrics left out default to a value derived from the row index.
type QuarterFixture struct {
	Label  string
	Values map[domain.MetricID]string
}

// DatasetHeader returns YRQTR followed by every catalog column
func DatasetHeader() []string {
	header := []string{domain.DefaultPeriodColumn}
	for _, m := range domain.Metrics() {
		header = append(header, m.Column)
	}
	return header
}

// Quarters builds fixtures for consecutive labels with default values
func Quarters(labels ...string) []QuarterFixture {
	out := make([]QuarterFixture, len(labels))
	for i, l := range labels {
		out[i] = QuarterFixture{Label: l}
	}
	return out
}

// DatasetRows renders fixtures as raw CSV rows without the header
func DatasetRows(fixtures []QuarterFixture) [][]string {
	rows := make([][]string, 0, len(fixtures))
	for i, f := range fixtures {
		row := []string{f.Label}
		for j, m := range domain.Metrics() {
			v, ok := f.Values[m.ID]
			if !ok {
				v = strconv.Itoa((i+1)*10 + j)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteDatasetCSV writes a dataset file into a fresh temp directory and
// returns its path
func WriteDatasetCSV(t *testing.T, fixtures []QuarterFixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credit.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(DatasetHeader()); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(DatasetRows(fixtures)); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}
