package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/charts"
	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/services"
)

// mapServiceError converts service sentinels to API errors. Dataset load and
// value errors pass through; the error handler classifies them.
func mapServiceError(r *http.Request, err error) error {
	switch {
	case errors.Is(err, services.ErrUnknownChartGroup):
		return apierrors.NotFoundError("chart group")
	case errors.Is(err, services.ErrInvalidQuarter):
		return apierrors.ErrValidation("from", err.Error())
	case errors.Is(err, services.ErrInvalidRange):
		return apierrors.ErrValidation("to", err.Error())
	case errors.Is(err, charts.ErrNoData):
		return apierrors.ErrChartNoData(chi.URLParam(r, "group"))
	}
	return err
}
