package domain

import (
	"time"
)

// KPI is a headline scalar with an optional period-over-period delta
type KPI struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Metric       MetricID `json:"metric"`
	Quarter      string   `json:"quarter"`
	Value        float64  `json:"value"`
	Display      string   `json:"display"`
	Delta        *float64 `json:"delta,omitempty"`
	DeltaDisplay string   `json:"delta_display,omitempty"`
}

// ChartGroup is a set of metrics drawn on the same chart
type ChartGroup struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	YLabel  string     `json:"y_label"`
	Legend  string     `json:"legend,omitempty"`
	Metrics []MetricID `json:"metrics"`
}

// SeriesPoint is a single (timestamp, value) pair
type SeriesPoint struct {
	Period  time.Time `json:"period"`
	Quarter string    `json:"quarter"`
	Value   float64   `json:"value"`
}

// Series is the ordered history of one metric
type Series struct {
	Metric MetricID      `json:"metric"`
	Label  string        `json:"label"`
	Points []SeriesPoint `json:"points"`
}

// ChartSeries is the projection of a chart group over a table
type ChartSeries struct {
	Group  ChartGroup `json:"group"`
	Series []Series   `json:"series"`
}

// MetricSummary holds descriptive statistics for one metric column
type MetricSummary struct {
	Metric MetricID `json:"metric"`
	Label  string   `json:"label"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	StdDev float64  `json:"stddev"`
	Min    float64  `json:"min"`
	Q1     float64  `json:"q1"`
	Median float64  `json:"median"`
	Q3     float64  `json:"q3"`
	Max    float64  `json:"max"`
}

// Dashboard is everything a page render needs
type Dashboard struct {
	Title   string        `json:"title"`
	Source  string        `json:"source"`
	Dataset DatasetInfo   `json:"dataset"`
	KPIs    []KPI         `json:"kpis"`
	Charts  []ChartSeries `json:"charts"`
}
