package dataprocessing

import (
	"strings"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// testHeader returns YRQTR followed by every catalog column
func testHeader() []string {
	header := []string{domain.DefaultPeriodColumn}
	for _, m := range domain.Metrics() {
		header = append(header, m.Column)
	}
	return header
}

// testRow builds a raw row with every metric set to "1" unless overridden
func testRow(label string, overrides map[domain.MetricID]string) []string {
	row := []string{label}
	for _, m := range domain.Metrics() {
		v, ok := overrides[m.ID]
		if !ok {
			v = "1"
		}
		row = append(row, v)
	}
	return row
}

func testRaw(rows ...[]string) RawTable {
	return RawTable{Source: "test.csv", Header: testHeader(), Rows: rows}
}

// testCSV renders rows as CSV text, quoting every cell
func testCSV(rows ...[]string) string {
	var b strings.Builder
	for _, r := range append([][]string{testHeader()}, rows...) {
		quoted := make([]string, len(r))
		for i, c := range r {
			quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		b.WriteString(strings.Join(quoted, ","))
		b.WriteString("\n")
	}
	return b.String()
}
