package http

import (
	"context"
	"io"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/exporter"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/services"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// DashboardService is what the handlers need from the dashboard service
type DashboardService interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	KPIs(ctx context.Context) ([]domain.KPI, error)
	Series(ctx context.Context, group, from, to string) (domain.ChartSeries, error)
	Chart(ctx context.Context, w io.Writer, group, from, to string, format charts.Format, opts charts.Options) error
	Charts(ctx context.Context, dash *domain.Dashboard, format charts.Format, opts charts.Options) ([]services.RenderedChart, error)
	DefaultChartOptions() charts.Options
	Info(ctx context.Context) (domain.DatasetInfo, error)
	Table(ctx context.Context) (*domain.CreditTable, error)
	Summary(ctx context.Context) ([]domain.MetricSummary, error)
	Export(ctx context.Context, w io.Writer, format exporter.Format) error
	Invalidate(ctx context.Context) services.RefreshNotice
	CacheStats() dataprocessing.CacheStats
}

var _ DashboardService = (*services.DashboardService)(nil)
