package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/exporter"
)

// exportBaseName names downloaded exports
const exportBaseName = "credit-trends"

// DatasetHandler serves the cleaned dataset, its summary and exports
type DatasetHandler struct {
	service      DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "dataset")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetInfo)
	r.Get("/records", h.GetRecords)
	r.Get("/summary", h.GetSummary)
	r.Get("/export.{format}", h.Export)
	r.Post("/cache/invalidate", h.InvalidateCache)

	return r
}

// GetInfo handles GET /api/dataset
func (h *DatasetHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"dataset": info,
		"cache":   h.service.CacheStats(),
	})
}

// GetRecords handles GET /api/dataset/records
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if notModified(w, r, fmt.Sprintf(`"%s-records"`, shortFingerprint(info.Fingerprint))) {
		return
	}

	table, err := h.service.Table(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, table)
}

// GetSummary handles GET /api/dataset/summary
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"metrics": summary})
}

// Export handles GET /api/dataset/export.{csv|xlsx|db}
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: csv, xlsx, db"))
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, format); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := exportBaseName + "." + format.Extension()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "dataset exported",
		slog.String("format", string(format)),
		slog.String("filename", filename))
}

// InvalidateCache handles POST /api/dataset/cache/invalidate
func (h *DatasetHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	notice := h.service.Invalidate(r.Context())
	render.JSON(w, r, notice)
}
