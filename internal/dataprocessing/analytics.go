package dataprocessing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// KPISpec maps one catalog metric onto a KPI callout
type KPISpec struct {
	ID        string
	Label     string
	Metric    domain.MetricID
	Format    string
	Precision int
	ShowDelta bool
}

// ProjectKPI computes the latest value of a metric and, when ShowDelta is set
// and a previous quarter exists, the latest minus previous delta rounded to
// the KPI precision.
func ProjectKPI(table *domain.CreditTable, spec KPISpec) (domain.KPI, error) {
	if _, ok := domain.LookupMetric(spec.Metric); !ok {
		return domain.KPI{}, fmt.Errorf("kpi %s: %w: %s", spec.ID, ErrUnknownMetric, spec.Metric)
	}

	latest, ok := table.Latest()
	if !ok {
		return domain.KPI{}, fmt.Errorf("kpi %s: %w", spec.ID, ErrEmptyTable)
	}

	value := latest.Value(spec.Metric)
	kpi := domain.KPI{
		ID:      spec.ID,
		Label:   spec.Label,
		Metric:  spec.Metric,
		Quarter: latest.Quarter,
		Value:   value,
		Display: FormatValue(value, spec.Format, spec.Precision),
	}

	if !spec.ShowDelta {
		return kpi, nil
	}

	previous, ok := table.Previous()
	if !ok {
		return kpi, nil
	}

	delta := decimal.NewFromFloat(value).
		Sub(decimal.NewFromFloat(previous.Value(spec.Metric))).
		Round(int32(spec.Precision))
	f, _ := delta.Float64()
	kpi.Delta = &f
	kpi.DeltaDisplay = FormatDelta(delta, spec.Format, spec.Precision)

	return kpi, nil
}

// ProjectKPIs projects every spec in order
func ProjectKPIs(table *domain.CreditTable, specs []KPISpec) ([]domain.KPI, error) {
	kpis := make([]domain.KPI, 0, len(specs))
	for _, spec := range specs {
		kpi, err := ProjectKPI(table, spec)
		if err != nil {
			return nil, err
		}
		kpis = append(kpis, kpi)
	}
	return kpis, nil
}

// Chart group identifiers
const (
	GroupBalances    = "balances"
	GroupUtilization = "utilization"
	GroupCreditScore = "credit_score"
	GroupDelinquency = "delinquency"
	GroupPayments    = "payments"
)

// ChartGroups returns the dashboard chart groups in display order
func ChartGroups() []domain.ChartGroup {
	return []domain.ChartGroup{
		{
			ID:      GroupBalances,
			Title:   "Total Credit Card Balances Over Time",
			YLabel:  "Total Balances ($Billions)",
			Metrics: []domain.MetricID{domain.MetricTotalBalances},
		},
		{
			ID:     GroupUtilization,
			Title:  "Credit Utilization Rates (P50, P75, P90)",
			YLabel: "Utilization (%)",
			Legend: "Percentile",
			Metrics: []domain.MetricID{
				domain.MetricUtilizationP50,
				domain.MetricUtilizationP75,
				domain.MetricUtilizationP90,
			},
		},
		{
			ID:      GroupCreditScore,
			Title:   "Median Credit Score Over Time",
			YLabel:  "Credit Score",
			Metrics: []domain.MetricID{domain.MetricCreditScoreP50},
		},
		{
			ID:     GroupDelinquency,
			Title:  "Delinquency Rates (30+, 60+, 90+ Days)",
			YLabel: "Delinquency Rate (%)",
			Legend: "Days Late",
			Metrics: []domain.MetricID{
				domain.MetricPastDue30,
				domain.MetricPastDue60,
				domain.MetricPastDue90,
			},
		},
		{
			ID:     GroupPayments,
			Title:  "Trends in Credit Card Repayment",
			YLabel: "Share of Accounts (%)",
			Legend: "Payment Behavior",
			Metrics: []domain.MetricID{
				domain.MetricPaymentMinimum,
				domain.MetricPaymentPartial,
				domain.MetricPaymentFull,
			},
		},
	}
}

// LookupChartGroup finds a chart group by ID
func LookupChartGroup(id string) (domain.ChartGroup, bool) {
	for _, g := range ChartGroups() {
		if g.ID == id {
			return g, true
		}
	}
	return domain.ChartGroup{}, false
}

// ProjectSeries extracts one ordered series per metric of the group
func ProjectSeries(table *domain.CreditTable, group domain.ChartGroup) domain.ChartSeries {
	out := domain.ChartSeries{Group: group, Series: make([]domain.Series, 0, len(group.Metrics))}

	for _, id := range group.Metrics {
		label := string(id)
		if m, ok := domain.LookupMetric(id); ok {
			label = m.Label
		}

		points := make([]domain.SeriesPoint, 0, table.Len())
		for _, r := range table.Records {
			points = append(points, domain.SeriesPoint{
				Period:  r.Period,
				Quarter: r.Quarter,
				Value:   r.Value(id),
			})
		}

		out.Series = append(out.Series, domain.Series{Metric: id, Label: label, Points: points})
	}

	return out
}

// ProjectAllSeries projects every chart group
func ProjectAllSeries(table *domain.CreditTable) []domain.ChartSeries {
	groups := ChartGroups()
	out := make([]domain.ChartSeries, 0, len(groups))
	for _, g := range groups {
		out = append(out, ProjectSeries(table, g))
	}
	return out
}
