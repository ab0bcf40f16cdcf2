package dataprocessing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// BuildStats describes what the builder did with the raw rows
type BuildStats struct {
	InputRows         int
	Rows              int
	DroppedRows       int
	DuplicateQuarters []string
}

// Builder turns raw tables into cleaned credit tables
type Builder struct {
	periodColumn string
	metrics      []domain.Metric
}

// NewBuilder creates a builder for the full metric catalog.
// An empty periodColumn selects YRQTR.
func NewBuilder(periodColumn string) *Builder {
	if periodColumn == "" {
		periodColumn = domain.DefaultPeriodColumn
	}
	return &Builder{
		periodColumn: periodColumn,
		metrics:      domain.Metrics(),
	}
}

// Build validates the header, drops rows with an invalid period label,
// normalizes every metric cell and sorts the result by quarter.
// Rows sharing a quarter are all kept in source order.
func (b *Builder) Build(raw RawTable) (*domain.CreditTable, BuildStats, error) {
	stats := BuildStats{InputRows: len(raw.Rows)}

	columns, err := b.indexHeader(raw)
	if err != nil {
		return nil, stats, err
	}
	periodIdx := columns[b.periodColumn]

	records := make([]domain.Record, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		lineNo := i + 2 // header is line 1

		label := cell(row, periodIdx)
		period, ok := ParseQuarter(label)
		if !ok {
			stats.DroppedRows++
			continue
		}

		values := make(map[domain.MetricID]float64, len(b.metrics))
		for _, m := range b.metrics {
			v, err := NormalizeValue(cell(row, columns[m.Column]))
			if err != nil {
				var ve *ValueFormatError
				if errors.As(err, &ve) {
					ve.Row = lineNo
					ve.Column = m.Column
					return nil, stats, ve
				}
				return nil, stats, err
			}
			values[m.ID] = v
		}

		records = append(records, domain.Record{
			Period:    period,
			Quarter:   label,
			Values:    values,
			SourceRow: lineNo,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Period.Before(records[j].Period)
	})

	for i := 1; i < len(records); i++ {
		if records[i].Period.Equal(records[i-1].Period) {
			q := records[i].Quarter
			if n := len(stats.DuplicateQuarters); n == 0 || stats.DuplicateQuarters[n-1] != q {
				stats.DuplicateQuarters = append(stats.DuplicateQuarters, q)
			}
		}
	}

	stats.Rows = len(records)

	return &domain.CreditTable{
		Source:  raw.Source,
		Metrics: b.metrics,
		Records: records,
	}, stats, nil
}

func (b *Builder) indexHeader(raw RawTable) (map[string]int, error) {
	columns := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}

	var missing []string
	if _, ok := columns[b.periodColumn]; !ok {
		missing = append(missing, b.periodColumn)
	}
	for _, m := range b.metrics {
		if _, ok := columns[m.Column]; !ok {
			missing = append(missing, m.Column)
		}
	}

	if len(missing) > 0 {
		return nil, &LoadError{
			Source: raw.Source,
			Kind:   LoadHeaderMismatch,
			Detail: fmt.Sprintf("missing columns: %s", strings.Join(missing, "; ")),
		}
	}
	return columns, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
