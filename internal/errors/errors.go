package errors

import (
	"fmt"
	"net/http"
)

// Code is the machine-readable error_code extension of a problem response
type Code string

const (
	CodeValidation  Code = "VALIDATION_FAILED"
	CodeNotFound    Code = "NOT_FOUND"
	CodeNoChartData Code = "CHART_NO_DATA"
	CodeRateLimit   Code = "RATE_LIMIT_EXCEEDED"
)

// APIError is a request-level failure that maps onto one problem type.
// Dataset failures are not APIErrors; the handler classifies them itself.
type APIError struct {
	StatusCode  int
	ErrorCode   Code
	ProblemType string
	Message     string
	Details     interface{}
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ValidationError names one rejected request parameter
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a validation failure
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrRateLimitExceeded is returned once the request budget is spent
var ErrRateLimitExceeded = &APIError{
	StatusCode:  http.StatusTooManyRequests,
	ErrorCode:   CodeRateLimit,
	ProblemType: TypeRateLimit,
	Message:     "Rate limit exceeded",
}

// ErrValidation rejects a single parameter
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors rejects one or more parameters at once
func NewValidationErrors(errs []ValidationError) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		ErrorCode:   CodeValidation,
		ProblemType: TypeValidation,
		Message:     "Request validation failed",
		Details:     ValidationErrors{Errors: errs},
	}
}

// NotFoundError reports an unknown resource, e.g. a chart group
func NotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode:  http.StatusNotFound,
		ErrorCode:   CodeNotFound,
		ProblemType: TypeNotFound,
		Message:     fmt.Sprintf("%s not found", resource),
		Details:     resource,
	}
}

// ErrChartNoData reports a chart group whose range selects no quarter
func ErrChartNoData(group string) *APIError {
	return &APIError{
		StatusCode:  http.StatusNotFound,
		ErrorCode:   CodeNoChartData,
		ProblemType: TypeChartNoData,
		Message:     fmt.Sprintf("chart %s has no data points", group),
		Details:     group,
	}
}
