package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/config"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/exporter"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/infrastructure"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Broadcaster notifies live clients that the dataset changed
type Broadcaster interface {
	BroadcastRefresh(ctx context.Context, data interface{})
}

// RefreshNotice is the payload broadcast after a cache invalidation
type RefreshNotice struct {
	Source      string `json:"source"`
	Invalidated int    `json:"invalidated"`
}

// DashboardService loads the configured dataset through the table cache and
// serves every projection of it.
type DashboardService struct {
	cfg         *config.Config
	loader      *dataprocessing.Loader
	cache       *dataprocessing.TableCache
	kpis        []dataprocessing.KPISpec
	exporter    *exporter.Exporter
	metrics     *infrastructure.DashboardMetrics
	broadcaster Broadcaster
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewDashboardService creates the service. cache, metrics and broadcaster
// may be nil.
func NewDashboardService(cfg *config.Config, cache *dataprocessing.TableCache, metrics *infrastructure.DashboardMetrics, broadcaster Broadcaster, logger *slog.Logger) *DashboardService {
	if cache == nil {
		cache = dataprocessing.NewTableCache()
	}
	logger = logger.With(slog.String("service", "dashboard"))

	src := dataprocessing.Source{
		Path:      cfg.Dataset.Path,
		Format:    cfg.Dataset.Format,
		Delimiter: []rune(cfg.Dataset.Delimiter)[0],
		Sheet:     cfg.Dataset.Sheet,
	}

	kpis := make([]dataprocessing.KPISpec, 0, len(cfg.Dashboard.KPIs))
	for _, k := range cfg.Dashboard.KPIs {
		kpis = append(kpis, dataprocessing.KPISpec{
			ID:        k.ID,
			Label:     k.Label,
			Metric:    cfg.ResolveMetric(k.Metric),
			Format:    k.Format,
			Precision: k.Precision,
			ShowDelta: k.ShowDelta,
		})
	}

	logger.Info("DashboardService initialized",
		slog.String("dataset", src.Path),
		slog.String("format", src.ResolvedFormat()),
		slog.String("headline_utilization", cfg.Dashboard.HeadlineUtilization),
		slog.Int("kpis", len(kpis)))

	return &DashboardService{
		cfg:         cfg,
		loader:      dataprocessing.NewLoader(src, cfg.Dataset.PeriodColumn),
		cache:       cache,
		kpis:        kpis,
		exporter:    exporter.New(logger),
		metrics:     metrics,
		broadcaster: broadcaster,
		tracer:      otel.Tracer(infrastructure.InstrumentationName),
		logger:      logger,
	}
}

// Snapshot returns the cached dataset, loading it on a miss
func (s *DashboardService) Snapshot(ctx context.Context) (*dataprocessing.Snapshot, error) {
	snap, hit, err := s.cache.GetOrLoad(ctx, s.loader.Key(), s.load)
	s.metrics.RecordCacheLookup(ctx, hit)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", s.loader.Source().Path, err)
	}
	return snap, nil
}

// load reads and builds the dataset on a cache miss
func (s *DashboardService) load(ctx context.Context) (*dataprocessing.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("dataset.path", s.loader.Source().Path)))
	defer span.End()

	logger := infrastructure.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	snap, err := s.loader.Load(ctx)
	duration := time.Since(start)

	dropped := 0
	if snap != nil {
		dropped = snap.Stats.DroppedRows
	}
	s.metrics.RecordDatasetLoad(ctx, duration, dropped, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.Error("Dataset load failed",
			slog.String("path", s.loader.Source().Path),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, err
	}

	info := snap.Info
	span.SetAttributes(
		attribute.Int("dataset.rows", info.Rows),
		attribute.Int("dataset.dropped_rows", info.DroppedRows))

	logger.Info("Dataset loaded",
		slog.String("path", info.Source),
		slog.String("fingerprint", info.Fingerprint),
		slog.Int("rows", info.Rows),
		slog.Int("dropped_rows", info.DroppedRows),
		slog.String("first_quarter", info.FirstQuarter),
		slog.String("last_quarter", info.LastQuarter),
		slog.Duration("duration", duration))

	if len(info.DuplicateQuarters) > 0 {
		logger.Warn("Dataset contains duplicate quarters",
			slog.Any("quarters", info.DuplicateQuarters))
	}

	return snap, nil
}

// Dashboard assembles the KPIs and every chart series for a page
func (s *DashboardService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	kpis, err := dataprocessing.ProjectKPIs(snap.Table, s.kpis)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Title:   s.cfg.Dashboard.Title,
		Source:  s.cfg.Dashboard.Source,
		Dataset: snap.Info,
		KPIs:    kpis,
		Charts:  dataprocessing.ProjectAllSeries(snap.Table),
	}, nil
}

// KPIs projects the configured KPI callouts
func (s *DashboardService) KPIs(ctx context.Context) ([]domain.KPI, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return dataprocessing.ProjectKPIs(snap.Table, s.kpis)
}

// Series projects one chart group, optionally restricted to the inclusive
// quarter range [from, to]. Empty bounds are open.
func (s *DashboardService) Series(ctx context.Context, group, from, to string) (domain.ChartSeries, error) {
	g, ok := dataprocessing.LookupChartGroup(group)
	if !ok {
		return domain.ChartSeries{}, fmt.Errorf("%w: %s", ErrUnknownChartGroup, group)
	}

	fromT, err := parseBound(from)
	if err != nil {
		return domain.ChartSeries{}, err
	}
	toT, err := parseBound(to)
	if err != nil {
		return domain.ChartSeries{}, err
	}
	if !fromT.IsZero() && !toT.IsZero() && toT.Before(fromT) {
		return domain.ChartSeries{}, fmt.Errorf("%w: %s..%s", ErrInvalidRange, from, to)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.ChartSeries{}, err
	}

	table := snap.Table
	if !fromT.IsZero() || !toT.IsZero() {
		table = table.Between(fromT, toT)
	}
	return dataprocessing.ProjectSeries(table, g), nil
}

func parseBound(label string) (time.Time, error) {
	if label == "" {
		return time.Time{}, nil
	}
	t, ok := dataprocessing.ParseQuarter(label)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidQuarter, label)
	}
	return t, nil
}

// Table returns the cleaned table
func (s *DashboardService) Table(ctx context.Context) (*domain.CreditTable, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Table, nil
}

// Summary returns descriptive statistics for every metric
func (s *DashboardService) Summary(ctx context.Context) ([]domain.MetricSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return dataprocessing.Summarize(snap.Table), nil
}

// Info describes the loaded dataset
func (s *DashboardService) Info(ctx context.Context) (domain.DatasetInfo, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return snap.Info, nil
}

// Chart renders one chart group over the inclusive quarter range [from, to].
// Empty bounds are open; a range holding no quarter gives charts.ErrNoData.
func (s *DashboardService) Chart(ctx context.Context, w io.Writer, group, from, to string, format charts.Format, opts charts.Options) error {
	cs, err := s.Series(ctx, group, from, to)
	if err != nil {
		return err
	}

	if err := charts.Render(w, cs, format, opts); err != nil {
		return fmt.Errorf("render chart %s: %w", group, err)
	}
	s.metrics.RecordChartRender(ctx, group, string(format))
	return nil
}

// RenderedChart is one chart group drawn for a page
type RenderedChart struct {
	Group domain.ChartGroup
	Image []byte
}

// Charts renders every chart group of the dashboard in parallel
func (s *DashboardService) Charts(ctx context.Context, dash *domain.Dashboard, format charts.Format, opts charts.Options) ([]RenderedChart, error) {
	images, err := charts.RenderAll(ctx, dash.Charts, format, opts)
	if err != nil {
		return nil, err
	}

	out := make([]RenderedChart, len(images))
	for i, img := range images {
		out[i] = RenderedChart{Group: dash.Charts[i].Group, Image: img}
		s.metrics.RecordChartRender(ctx, dash.Charts[i].Group.ID, string(format))
	}
	return out, nil
}

// DefaultChartOptions returns the configured chart dimensions
func (s *DashboardService) DefaultChartOptions() charts.Options {
	return charts.Options{Width: s.cfg.Charts.Width, Height: s.cfg.Charts.Height}
}

// Export writes the table and its summary in format to w
func (s *DashboardService) Export(ctx context.Context, w io.Writer, format exporter.Format) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	return s.exporter.Export(ctx, w, snap.Table, dataprocessing.Summarize(snap.Table), format)
}

// ExportFile writes the export to path
func (s *DashboardService) ExportFile(ctx context.Context, path string, format exporter.Format) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	return s.exporter.ExportFile(ctx, path, snap.Table, dataprocessing.Summarize(snap.Table), format)
}

// Invalidate drops the cached dataset so the next request reloads the file,
// and tells live clients to refresh.
func (s *DashboardService) Invalidate(ctx context.Context) RefreshNotice {
	n := s.cache.InvalidateAll()
	s.metrics.RecordCacheInvalidation(ctx, n)

	notice := RefreshNotice{Source: s.loader.Source().Path, Invalidated: n}
	infrastructure.LoggerFromContext(ctx, s.logger).Info("Dataset cache invalidated",
		slog.Int("entries", n))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRefresh(ctx, notice)
	}
	return notice
}

// CacheStats reports table cache usage
func (s *DashboardService) CacheStats() dataprocessing.CacheStats {
	return s.cache.GetStats()
}

// Preload loads the dataset ahead of the first request. A failure is
// returned but leaves the service usable; the next request retries.
func (s *DashboardService) Preload(ctx context.Context) error {
	_, err := s.Snapshot(ctx)
	return err
}
