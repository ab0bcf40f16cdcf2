package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/middleware"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// DashboardHandler serves KPIs, chart series and chart images
type DashboardHandler struct {
	service      DashboardService
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// DashboardResponse is the dashboard without its chart data
type DashboardResponse struct {
	Title   string              `json:"title"`
	Source  string              `json:"source"`
	Dataset domain.DatasetInfo  `json:"dataset"`
	KPIs    []domain.KPI        `json:"kpis"`
	Groups  []domain.ChartGroup `json:"chart_groups"`
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetDashboard)
	r.Get("/kpis", h.GetKPIs)
	r.Get("/series/{group}", h.GetSeries)
	r.Get("/charts/{group}.{format}", h.GetChart)

	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(r, err))
		return
	}

	groups := make([]domain.ChartGroup, 0, len(dash.Charts))
	for _, cs := range dash.Charts {
		groups = append(groups, cs.Group)
	}

	render.JSON(w, r, DashboardResponse{
		Title:   dash.Title,
		Source:  dash.Source,
		Dataset: dash.Dataset,
		KPIs:    dash.KPIs,
		Groups:  groups,
	})
}

// GetKPIs handles GET /api/dashboard/kpis
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.service.KPIs(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(r, err))
		return
	}
	render.JSON(w, r, map[string]interface{}{"kpis": kpis})
}

// GetSeries handles GET /api/dashboard/series/{group}?from=&to=
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.validator.SeriesQuery(w, r)
	if !ok {
		return
	}

	cs, err := h.service.Series(r.Context(), chi.URLParam(r, "group"), q.From, q.To)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(r, err))
		return
	}
	render.JSON(w, r, cs)
}

// GetChart handles GET /api/dashboard/charts/{group}.{svg|png}?from=&to=&width=&height=
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	format, err := charts.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: svg, png"))
		return
	}

	defaults := h.service.DefaultChartOptions()
	q, ok := h.validator.ChartQuery(w, r, defaults.Width, defaults.Height)
	if !ok {
		return
	}

	info, err := h.service.Info(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(r, err))
		return
	}

	group := chi.URLParam(r, "group")
	etag := fmt.Sprintf(`"%s-%s-%s..%s-%dx%d.%s"`, shortFingerprint(info.Fingerprint), group, q.From, q.To, q.Width, q.Height, format)
	if notModified(w, r, etag) {
		return
	}

	// Render into memory so a failure can still produce a problem response
	var buf bytes.Buffer
	opts := charts.Options{Width: q.Width, Height: q.Height}
	if err := h.service.Chart(r.Context(), &buf, group, q.From, q.To, format, opts); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(r, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write chart",
			slog.String("group", group),
			slog.String("error", err.Error()))
	}
}

// notModified sets the ETag and answers 304 when the client already has it
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func shortFingerprint(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}
