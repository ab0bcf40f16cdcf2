// Package services holds the business logic between the HTTP handlers and
// the dataset pipeline.
//
// DashboardService owns the dataset lifecycle: it loads the configured file
// through a TableCache, projects KPIs, chart series and summaries from the
// cached table, renders charts, exports the table and invalidates the cache
// on request. HealthService reports liveness and readiness, the latter
// depending on a successful dataset load.
//
// Services return plain errors; handlers map them onto problem responses.
package services
