package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/config"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/exporter"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/shared/testutil"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (b *recordingBroadcaster) BroadcastRefresh(_ context.Context, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, data)
}

func newTestService(t *testing.T, path string, broadcaster Broadcaster) (*DashboardService, *testutil.BufferedSlogHandler) {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset.Path = path
	logger, handler := testutil.NewTestLogger(t)
	return NewDashboardService(cfg, nil, nil, broadcaster, logger), handler
}

func TestDashboardServiceKPIs(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q2", "2024Q3", "2024Q4"))
	svc, _ := newTestService(t, path, nil)

	kpis, err := svc.KPIs(context.Background())
	require.NoError(t, err)
	require.Len(t, kpis, 3)

	// Row 3 holds 30 + column index; row 2 holds 20 + column index
	assert.Equal(t, "total_balances", kpis[0].ID)
	assert.InDelta(t, 30, kpis[0].Value, 1e-9)
	assert.Nil(t, kpis[0].Delta)

	util := kpis[1]
	assert.Equal(t, domain.MetricUtilizationP90, util.Metric)
	assert.Equal(t, "2024Q4", util.Quarter)
	assert.InDelta(t, 33, util.Value, 1e-9)
	require.NotNil(t, util.Delta)
	assert.InDelta(t, 10, *util.Delta, 1e-9)
	assert.Equal(t, "+10.00%", util.DeltaDisplay)

	assert.Equal(t, domain.MetricCreditScoreP50, kpis[2].Metric)
}

func TestDashboardServiceHeadlineUtilization(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q3", "2024Q4"))

	cfg := config.Default()
	cfg.Dataset.Path = path
	cfg.Dashboard.HeadlineUtilization = string(domain.MetricUtilizationP50)
	logger, _ := testutil.NewTestLogger(t)
	svc := NewDashboardService(cfg, nil, nil, nil, logger)

	kpis, err := svc.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.MetricUtilizationP50, kpis[1].Metric)
	assert.InDelta(t, 21, kpis[1].Value, 1e-9)
}

func TestDashboardServiceCachesSnapshot(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q3", "2024Q4"))
	svc, _ := newTestService(t, path, nil)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	second, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	stats := svc.CacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.HitCount)
}

func TestDashboardServiceInvalidateReloadsAndBroadcasts(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q3", "2024Q4"))
	b := &recordingBroadcaster{}
	svc, _ := newTestService(t, path, b)
	ctx := context.Background()

	info, err := svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rows)

	// Rewrite the file; the cached table must survive until invalidation
	newer := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q2", "2024Q3", "2024Q4"))
	data, err := os.ReadFile(newer)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	info, err = svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rows)

	notice := svc.Invalidate(ctx)
	assert.Equal(t, 1, notice.Invalidated)
	assert.Equal(t, path, notice.Source)
	require.Len(t, b.payloads, 1)
	assert.Equal(t, notice, b.payloads[0])

	info, err = svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, "2024Q2", info.FirstQuarter)
}

func TestDashboardServiceSeries(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q1", "2024Q2", "2024Q3", "2024Q4"))
	svc, _ := newTestService(t, path, nil)
	ctx := context.Background()

	cs, err := svc.Series(ctx, dataprocessing.GroupDelinquency, "", "")
	require.NoError(t, err)
	require.Len(t, cs.Series, 3)
	assert.Len(t, cs.Series[0].Points, 4)
	assert.Equal(t, "Days Late", cs.Group.Legend)

	cs, err = svc.Series(ctx, dataprocessing.GroupBalances, "2024Q2", "2024Q3")
	require.NoError(t, err)
	points := cs.Series[0].Points
	require.Len(t, points, 2)
	assert.Equal(t, "2024Q2", points[0].Quarter)
	assert.Equal(t, "2024Q3", points[1].Quarter)

	tests := []struct {
		name     string
		group    string
		from, to string
		want     error
	}{
		{"unknown group", "mortgages", "", "", ErrUnknownChartGroup},
		{"bad label", dataprocessing.GroupBalances, "2024Q5", "", ErrInvalidQuarter},
		{"reversed range", dataprocessing.GroupBalances, "2024Q4", "2024Q1", ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Series(ctx, tt.group, tt.from, tt.to)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDashboardServiceWarnsOnDuplicateQuarters(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q3", "2024Q4", "2024Q4"))
	svc, handler := newTestService(t, path, nil)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024Q4"}, info.DuplicateQuarters)
	assert.Equal(t, 3, info.Rows)

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Dataset contains duplicate quarters")
}

func TestDashboardServiceLoadErrorsAreNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credit.csv")
	svc, handler := newTestService(t, path, nil)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx)
	var le *dataprocessing.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, dataprocessing.LoadNotFound, le.Kind)
	testutil.AssertLogContains(t, handler, slog.LevelError, "Dataset load failed")

	src := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q4"))
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "US Credit Trends Dashboard", dash.Title)
	assert.Equal(t, "Federal Reserve Bank of Philadelphia", dash.Source)
	assert.Len(t, dash.Charts, 5)
}

func TestDashboardServiceValueFormatError(t *testing.T) {
	fixtures := testutil.Quarters("2024Q3", "2024Q4")
	fixtures[1].Values = map[domain.MetricID]string{domain.MetricPastDue30: "n/a"}
	svc, _ := newTestService(t, testutil.WriteDatasetCSV(t, fixtures), nil)

	_, err := svc.KPIs(context.Background())
	var vfe *dataprocessing.ValueFormatError
	require.ErrorAs(t, err, &vfe)
	assert.Equal(t, "n/a", vfe.Value)
}

func TestDashboardServiceRendering(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q1", "2024Q2", "2024Q3", "2024Q4"))
	svc, _ := newTestService(t, path, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.Chart(ctx, &buf, dataprocessing.GroupUtilization, "", "", charts.FormatSVG, svc.DefaultChartOptions()))
	assert.Contains(t, buf.String(), "<svg")

	buf.Reset()
	require.NoError(t, svc.Chart(ctx, &buf, dataprocessing.GroupBalances, "2024Q2", "2024Q3", charts.FormatSVG, svc.DefaultChartOptions()))
	assert.Contains(t, buf.String(), "<svg")

	err := svc.Chart(ctx, &buf, "unknown", "", "", charts.FormatSVG, svc.DefaultChartOptions())
	assert.ErrorIs(t, err, ErrUnknownChartGroup)

	err = svc.Chart(ctx, io.Discard, dataprocessing.GroupBalances, "2030Q1", "", charts.FormatSVG, svc.DefaultChartOptions())
	assert.ErrorIs(t, err, charts.ErrNoData)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	rendered, err := svc.Charts(ctx, dash, charts.FormatSVG, charts.Options{Width: 400, Height: 300})
	require.NoError(t, err)
	require.Len(t, rendered, 5)
	assert.Equal(t, dataprocessing.GroupBalances, rendered[0].Group.ID)
	assert.Equal(t, dataprocessing.GroupPayments, rendered[4].Group.ID)
}

func TestDashboardServiceExport(t *testing.T) {
	path := testutil.WriteDatasetCSV(t, testutil.Quarters("2024Q3", "2024Q4"))
	svc, _ := newTestService(t, path, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf, exporter.FormatCSV))
	assert.Contains(t, buf.String(), "quarter,period,total_balances")
	assert.Contains(t, buf.String(), "2024Q4")

	out := filepath.Join(t.TempDir(), "out", "credit.xlsx")
	require.NoError(t, svc.ExportFile(context.Background(), out, exporter.FormatXLSX))
	assert.FileExists(t, out)
}

func TestDashboardServiceReloadsLatestRelease(t *testing.T) {
	dir := t.TempDir()
	release := func(name string, labels ...string) {
		data, err := os.ReadFile(testutil.WriteDatasetCSV(t, testutil.Quarters(labels...)))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	release("24Q3-CreditCardBalances.csv", "2024Q2", "2024Q3")
	svc, _ := newTestService(t, dir, nil)
	ctx := context.Background()

	info, err := svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024Q3", info.LastQuarter)

	release("24Q4-CreditCardBalances.csv", "2024Q2", "2024Q3", "2024Q4")

	// Cached until invalidated
	info, err = svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024Q3", info.LastQuarter)

	svc.Invalidate(ctx)

	info, err = svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024Q4", info.LastQuarter)
	assert.Equal(t, filepath.Join(dir, "24Q4-CreditCardBalances.csv"), info.Source)
}
