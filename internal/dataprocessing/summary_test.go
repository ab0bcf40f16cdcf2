package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	table := buildTable(t,
		testRow("2024Q1", map[domain.MetricID]string{domain.MetricCreditScoreP50: "1"}),
		testRow("2024Q2", map[domain.MetricID]string{domain.MetricCreditScoreP50: "2"}),
		testRow("2024Q3", map[domain.MetricID]string{domain.MetricCreditScoreP50: "3"}),
		testRow("2024Q4", map[domain.MetricID]string{domain.MetricCreditScoreP50: "4"}),
		testRow("2025Q1", map[domain.MetricID]string{domain.MetricCreditScoreP50: "5"}),
	)

	summaries := Summarize(table)
	require.Len(t, summaries, len(domain.Metrics()))

	var score domain.MetricSummary
	for _, s := range summaries {
		if s.Metric == domain.MetricCreditScoreP50 {
			score = s
		}
	}

	assert.Equal(t, 5, score.Count)
	assert.InDelta(t, 3.0, score.Mean, 1e-9)
	assert.InDelta(t, 1.0, score.Min, 1e-9)
	assert.InDelta(t, 5.0, score.Max, 1e-9)
	assert.InDelta(t, 3.0, score.Median, 1e-9)
	assert.InDelta(t, 1.5811, score.StdDev, 1e-4)
	assert.LessOrEqual(t, score.Q1, score.Median)
	assert.GreaterOrEqual(t, score.Q3, score.Median)
}

func TestSummarizeEmptyTable(t *testing.T) {
	summaries := Summarize(buildTable(t))
	require.NotEmpty(t, summaries)
	for _, s := range summaries {
		assert.Equal(t, 0, s.Count)
		assert.Zero(t, s.Mean)
	}
}
