package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/config"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
)

// Chart dimension bounds accepted from query parameters
const (
	MinChartWidth  = config.MinChartWidth
	MaxChartWidth  = config.MaxChartWidth
	MinChartHeight = config.MinChartHeight
	MaxChartHeight = config.MaxChartHeight
)

// SeriesQuery restricts a series to an inclusive quarter range
type SeriesQuery struct {
	From string `json:"from" validate:"omitempty,quarter"`
	To   string `json:"to" validate:"omitempty,quarter"`
}

// ChartQuery restricts a chart to a quarter range and overrides the
// configured dimensions
type ChartQuery struct {
	From   string `json:"from" validate:"omitempty,quarter"`
	To     string `json:"to" validate:"omitempty,quarter"`
	Width  int `json:"width" validate:"min=200,max=4000"`
	Height int `json:"height" validate:"min=150,max=3000"`
}

// ValidationMiddleware validates request parameters using struct tags
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("quarter", isQuarter)
	v.RegisterStructValidation(quarterRangeValidation, SeriesQuery{}, ChartQuery{})

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}
}

// ValidateStruct validates a struct and returns validation errors
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate %T: %w", v, err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: m.formatValidationError(fe),
		})
	}

	return apierrors.NewValidationErrors(validationErrors)
}

// SeriesQuery reads and validates the from/to parameters. On failure the
// problem response has been written and ok is false.
func (m *ValidationMiddleware) SeriesQuery(w http.ResponseWriter, r *http.Request) (SeriesQuery, bool) {
	q := SeriesQuery{
		From: strings.TrimSpace(r.URL.Query().Get("from")),
		To:   strings.TrimSpace(r.URL.Query().Get("to")),
	}

	if err := m.ValidateStruct(q); err != nil {
		m.logger.DebugContext(r.Context(), "invalid series query",
			slog.String("from", q.From),
			slog.String("to", q.To),
		)
		m.errorHandler.HandleError(w, r, err)
		return SeriesQuery{}, false
	}
	return q, true
}

// ChartQuery reads and validates from/to and width/height. Missing
// dimensions fall back to the defaults.
func (m *ValidationMiddleware) ChartQuery(w http.ResponseWriter, r *http.Request, defaultWidth, defaultHeight int) (ChartQuery, bool) {
	q := ChartQuery{
		From:   strings.TrimSpace(r.URL.Query().Get("from")),
		To:     strings.TrimSpace(r.URL.Query().Get("to")),
		Width:  defaultWidth,
		Height: defaultHeight,
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"width", &q.Width},
		{"height", &q.Height},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			m.errorHandler.HandleError(w, r, apierrors.ErrValidation(p.name, fmt.Sprintf("%s must be a valid integer", p.name)))
			return ChartQuery{}, false
		}
		*p.dst = n
	}

	if err := m.ValidateStruct(q); err != nil {
		m.errorHandler.HandleError(w, r, err)
		return ChartQuery{}, false
	}
	return q, true
}

// formatValidationError formats validation error messages
func (m *ValidationMiddleware) formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "quarter":
		return fmt.Sprintf("%s must be a quarter label like 2023Q1", field)
	case "quarter_range":
		return fmt.Sprintf("%s must not precede from", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isQuarter validates a YYYYQ# period label
func isQuarter(fl validator.FieldLevel) bool {
	return dataprocessing.IsQuarterLabel(fl.Field().String())
}

// quarterRangeValidation rejects a range whose end precedes its start.
// Quarter labels are fixed width, so string order is chronological.
func quarterRangeValidation(sl validator.StructLevel) {
	var from, to string
	switch q := sl.Current().Interface().(type) {
	case SeriesQuery:
		from, to = q.From, q.To
	case ChartQuery:
		from, to = q.From, q.To
	default:
		return
	}

	if from == "" || to == "" {
		return
	}
	if !dataprocessing.IsQuarterLabel(from) || !dataprocessing.IsQuarterLabel(to) {
		return
	}
	if to < from {
		sl.ReportError(to, "to", "To", "quarter_range", "")
	}
}

// QueryParamValidator validates single query parameters
type QueryParamValidator struct {
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{errorHandler: errorHandler}
}

// ValidateEnum validates an enum query parameter
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	for _, a := range allowed {
		if value == a {
			return value, true
		}
	}

	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
