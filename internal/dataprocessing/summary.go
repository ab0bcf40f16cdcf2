package dataprocessing

import (
	"github.com/go-gota/gota/series"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Summarize computes descriptive statistics for every metric of the table
func Summarize(table *domain.CreditTable) []domain.MetricSummary {
	metrics := domain.Metrics()
	out := make([]domain.MetricSummary, 0, len(metrics))

	for _, m := range metrics {
		summary := domain.MetricSummary{Metric: m.ID, Label: m.Label, Count: table.Len()}
		if table.Len() == 0 {
			out = append(out, summary)
			continue
		}

		s := series.New(table.Column(m.ID), series.Float, string(m.ID))
		summary.Mean = s.Mean()
		summary.Min = s.Min()
		summary.Max = s.Max()
		summary.Q1 = s.Quantile(0.25)
		summary.Median = s.Quantile(0.5)
		summary.Q3 = s.Quantile(0.75)
		if table.Len() > 1 {
			summary.StdDev = s.StdDev()
		}

		out = append(out, summary)
	}

	return out
}
