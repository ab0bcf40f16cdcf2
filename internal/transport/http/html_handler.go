package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler renders the server-side dashboard page
type PageHandler struct {
	service      DashboardService
	templates    *template.Template
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

type chartView struct {
	Group domain.ChartGroup
	SVG   template.HTML
}

type pageData struct {
	Title       string
	Source      string
	Dataset     domain.DatasetInfo
	KPIs        []domain.KPI
	Charts      []chartView
	GeneratedAt time.Time
}

type errorPageData struct {
	Status int
	Title  string
	Detail string
	Type   string
}

// NewPageHandler parses the embedded templates
func NewPageHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*PageHandler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"deltaClass": deltaClass,
		"quarter":    func(t time.Time) string { return t.UTC().Format("2006-01-02") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	return &PageHandler{
		service:      service,
		templates:    tmpl,
		logger:       logger.With(slog.String("handler", "page")),
		errorHandler: errorHandler,
	}, nil
}

// ServeDashboard handles GET /
func (h *PageHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dash, err := h.service.Dashboard(ctx)
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	rendered, err := h.service.Charts(ctx, dash, charts.FormatSVG, h.service.DefaultChartOptions())
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	data := pageData{
		Title:       dash.Title,
		Source:      dash.Source,
		Dataset:     dash.Dataset,
		KPIs:        dash.KPIs,
		Charts:      make([]chartView, 0, len(rendered)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, c := range rendered {
		// go-chart output is generated markup, not user input
		data.Charts = append(data.Charts, chartView{Group: c.Group, SVG: template.HTML(c.Image)})
	}

	h.execute(w, r, http.StatusOK, "dashboard.html", data)
}

// serveError renders the loader failure as an HTML page with the problem status
func (h *PageHandler) serveError(w http.ResponseWriter, r *http.Request, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)

	h.logger.ErrorContext(r.Context(), "dashboard page failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status))

	h.execute(w, r, problem.Status, "error.html", errorPageData{
		Status: problem.Status,
		Title:  problem.Title,
		Detail: problem.Detail,
		Type:   problem.Type,
	})
}

func (h *PageHandler) execute(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "template execution failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func deltaClass(delta *float64) string {
	switch {
	case delta == nil:
		return ""
	case *delta > 0:
		return "delta-up"
	case *delta < 0:
		return "delta-down"
	default:
		return "delta-flat"
	}
}
