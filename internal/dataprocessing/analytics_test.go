package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

func buildTable(t *testing.T, rows ...[]string) *domain.CreditTable {
	t.Helper()
	table, _, err := NewBuilder("").Build(testRaw(rows...))
	require.NoError(t, err)
	return table
}

func TestProjectKPIDelta(t *testing.T) {
	table := buildTable(t,
		testRow("2024Q3", map[domain.MetricID]string{domain.MetricUtilizationP90: "10.00%"}),
		testRow("2024Q4", map[domain.MetricID]string{domain.MetricUtilizationP90: "11.50%"}),
	)

	kpi, err := ProjectKPI(table, KPISpec{
		ID:        "headline_utilization",
		Label:     "Utilization P90",
		Metric:    domain.MetricUtilizationP90,
		Format:    ValueFormatPercent,
		Precision: 2,
		ShowDelta: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "2024Q4", kpi.Quarter)
	assert.InDelta(t, 11.50, kpi.Value, 1e-9)
	assert.Equal(t, "11.50%", kpi.Display)
	require.NotNil(t, kpi.Delta)
	assert.InDelta(t, 1.50, *kpi.Delta, 1e-9)
	assert.Equal(t, "+1.50%", kpi.DeltaDisplay)
}

func TestProjectKPINegativeDeltaIsRounded(t *testing.T) {
	table := buildTable(t,
		testRow("2024Q1", map[domain.MetricID]string{domain.MetricPastDue30: "3.34"}),
		testRow("2024Q2", map[domain.MetricID]string{domain.MetricPastDue30: "3.30"}),
	)

	kpi, err := ProjectKPI(table, KPISpec{ID: "dq", Metric: domain.MetricPastDue30, Format: ValueFormatNumber, Precision: 2, ShowDelta: true})
	require.NoError(t, err)
	require.NotNil(t, kpi.Delta)
	assert.Equal(t, -0.04, *kpi.Delta)
	assert.Equal(t, "-0.04", kpi.DeltaDisplay)
}

func TestProjectKPIWithoutPrevious(t *testing.T) {
	table := buildTable(t, testRow("2024Q1", map[domain.MetricID]string{domain.MetricTotalBalances: "$1,234.50"}))

	kpi, err := ProjectKPI(table, KPISpec{ID: "balances", Metric: domain.MetricTotalBalances, Format: ValueFormatCurrencyBillions, ShowDelta: true})
	require.NoError(t, err)
	assert.Nil(t, kpi.Delta)
	assert.Empty(t, kpi.DeltaDisplay)
	assert.Equal(t, "$1,235 B", kpi.Display)
}

func TestProjectKPIErrors(t *testing.T) {
	_, err := ProjectKPI(buildTable(t), KPISpec{ID: "x", Metric: domain.MetricTotalBalances})
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = ProjectKPI(buildTable(t, testRow("2024Q1", nil)), KPISpec{ID: "x", Metric: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestProjectKPIs(t *testing.T) {
	table := buildTable(t, testRow("2024Q1", map[domain.MetricID]string{domain.MetricCreditScoreP50: "745"}))

	kpis, err := ProjectKPIs(table, []KPISpec{
		{ID: "score", Metric: domain.MetricCreditScoreP50, Format: ValueFormatNumber},
		{ID: "balances", Metric: domain.MetricTotalBalances, Format: ValueFormatCurrencyBillions},
	})
	require.NoError(t, err)
	require.Len(t, kpis, 2)
	assert.Equal(t, "745", kpis[0].Display)
	assert.Equal(t, "balances", kpis[1].ID)
}

func TestProjectSeries(t *testing.T) {
	table := buildTable(t,
		testRow("2024Q2", map[domain.MetricID]string{domain.MetricPastDue30: "3.2%", domain.MetricPastDue90: "1.1%"}),
		testRow("2024Q1", map[domain.MetricID]string{domain.MetricPastDue30: "3.0%", domain.MetricPastDue90: "1.0%"}),
	)

	group, ok := LookupChartGroup(GroupDelinquency)
	require.True(t, ok)

	cs := ProjectSeries(table, group)
	assert.Equal(t, "Delinquency Rate (%)", cs.Group.YLabel)
	assert.Equal(t, "Days Late", cs.Group.Legend)
	require.Len(t, cs.Series, 3)

	first := cs.Series[0]
	assert.Equal(t, domain.MetricPastDue30, first.Metric)
	assert.Equal(t, "30+ Days", first.Label)
	require.Len(t, first.Points, 2)
	assert.Equal(t, "2024Q1", first.Points[0].Quarter)
	assert.InDelta(t, 3.0, first.Points[0].Value, 1e-9)
	assert.InDelta(t, 3.2, first.Points[1].Value, 1e-9)

	assert.InDelta(t, 1.1, cs.Series[2].Points[1].Value, 1e-9)
}

func TestChartGroups(t *testing.T) {
	groups := ProjectAllSeries(buildTable(t, testRow("2024Q1", nil)))
	require.Len(t, groups, 5)

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.Group.ID)
		for _, m := range g.Group.Metrics {
			_, ok := domain.LookupMetric(m)
			assert.True(t, ok, "group %s metric %s", g.Group.ID, m)
		}
	}
	assert.Equal(t, []string{GroupBalances, GroupUtilization, GroupCreditScore, GroupDelinquency, GroupPayments}, ids)

	_, ok := LookupChartGroup("nope")
	assert.False(t, ok)

	payments, _ := LookupChartGroup(GroupPayments)
	assert.Equal(t, "Trends in Credit Card Repayment", payments.Title)
}
