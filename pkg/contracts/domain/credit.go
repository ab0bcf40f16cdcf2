package domain

import (
	"time"
)

// MetricID identifies a numeric metric column of the quarterly dataset
type MetricID string

const (
	MetricTotalBalances  MetricID = "total_balances"
	MetricUtilizationP50 MetricID = "utilization_p50"
	MetricUtilizationP75 MetricID = "utilization_p75"
	MetricUtilizationP90 MetricID = "utilization_p90"
	MetricCreditScoreP50 MetricID = "credit_score_p50"
	MetricPastDue30      MetricID = "past_due_30"
	MetricPastDue60      MetricID = "past_due_60"
	MetricPastDue90      MetricID = "past_due_90"
	MetricPaymentMinimum MetricID = "payment_minimum"
	MetricPaymentPartial MetricID = "payment_partial"
	MetricPaymentFull    MetricID = "payment_full"
)

// DefaultPeriodColumn is the header of the quarter label column
const DefaultPeriodColumn = "YRQTR"

// Unit describes how a metric value is expressed
type Unit string

const (
	UnitBillionsUSD Unit = "usd_billions"
	UnitPercent     Unit = "percent"
	UnitScore       Unit = "score"
)

// Metric binds a metric identifier to its source column
type Metric struct {
	ID     MetricID `json:"id"`
	Column string   `json:"column"`
	Label  string   `json:"label"`
	Unit   Unit     `json:"unit"`
}

// Metrics returns the fixed metric catalog in dataset column order.
// A fresh slice is returned on every call.
func Metrics() []Metric {
	return []Metric{
		{MetricTotalBalances, "Total Balances ($Billions)", "Total Balances", UnitBillionsUSD},
		{MetricUtilizationP50, "Utilization (Active Accounts Only) (50th percentile)", "Utilization P50", UnitPercent},
		{MetricUtilizationP75, "Utilization (Active Accounts Only) (75th percentile)", "Utilization P75", UnitPercent},
		{MetricUtilizationP90, "Utilization (Active Accounts Only) (90th percentile)", "Utilization P90", UnitPercent},
		{MetricCreditScoreP50, "Current Credit Score (50th percentile)", "Median Credit Score", UnitScore},
		{MetricPastDue30, "30+ Days Past Due Rates: Accounts Based", "30+ Days", UnitPercent},
		{MetricPastDue60, "60+ Days Past Due Rates: Accounts Based", "60+ Days", UnitPercent},
		{MetricPastDue90, "90+ Days Past Due Rates: Accounts Based", "90+ Days", UnitPercent},
		{MetricPaymentMinimum, "Share of Accounts Making the Minimum Payment", "Minimum Payment", UnitPercent},
		{MetricPaymentPartial, "Share of Accounts Making Greater Than the Minimum Payment but Less Than the Full Balance", "Partial Payment", UnitPercent},
		{MetricPaymentFull, "Share of Accounts Making Full Balance Payment", "Full Balance Payment", UnitPercent},
	}
}

// LookupMetric finds a metric in the catalog
func LookupMetric(id MetricID) (Metric, bool) {
	for _, m := range Metrics() {
		if m.ID == id {
			return m, true
		}
	}
	return Metric{}, false
}

// Record is one cleaned quarter of the dataset
type Record struct {
	Period    time.Time            `json:"period"`
	Quarter   string               `json:"quarter"`
	Values    map[MetricID]float64 `json:"values"`
	SourceRow int                  `json:"source_row"`
}

// Value returns the value of a metric, zero if absent
func (r Record) Value(id MetricID) float64 {
	return r.Values[id]
}

// CreditTable is the cleaned, chronologically sorted quarterly table.
// It is built once per load and must not be mutated afterwards.
type CreditTable struct {
	Source  string   `json:"source"`
	Metrics []Metric `json:"metrics"`
	Records []Record `json:"records"`
}

// Len returns the number of records
func (t *CreditTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Latest returns the most recent record
func (t *CreditTable) Latest() (Record, bool) {
	if t.Len() == 0 {
		return Record{}, false
	}
	return t.Records[len(t.Records)-1], true
}

// Previous returns the record immediately before the latest one
func (t *CreditTable) Previous() (Record, bool) {
	if t.Len() < 2 {
		return Record{}, false
	}
	return t.Records[len(t.Records)-2], true
}

// Column returns the values of a metric in table order
func (t *CreditTable) Column(id MetricID) []float64 {
	values := make([]float64, 0, t.Len())
	for _, r := range t.Records {
		values = append(values, r.Value(id))
	}
	return values
}

// Between returns a view of the records whose period lies in [from, to].
// A zero bound is open.
func (t *CreditTable) Between(from, to time.Time) *CreditTable {
	view := &CreditTable{Source: t.Source, Metrics: t.Metrics}
	for _, r := range t.Records {
		if !from.IsZero() && r.Period.Before(from) {
			continue
		}
		if !to.IsZero() && r.Period.After(to) {
			continue
		}
		view.Records = append(view.Records, r)
	}
	return view
}

// DatasetInfo describes the currently loaded dataset
type DatasetInfo struct {
	Source            string    `json:"source"`
	Format            string    `json:"format"`
	Fingerprint       string    `json:"fingerprint"`
	Rows              int       `json:"rows"`
	DroppedRows       int       `json:"dropped_rows"`
	DuplicateQuarters []string  `json:"duplicate_quarters,omitempty"`
	FirstQuarter      string    `json:"first_quarter,omitempty"`
	LastQuarter       string    `json:"last_quarter,omitempty"`
	LoadedAt          time.Time `json:"loaded_at"`
}
