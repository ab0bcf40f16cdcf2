package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/shared/testutil"
)

func newValidation(t *testing.T) *ValidationMiddleware {
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestSeriesQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      SeriesQuery
		wantOK    bool
		wantField string
	}{
		{name: "empty", query: "", want: SeriesQuery{}, wantOK: true},
		{name: "from only", query: "from=2020Q1", want: SeriesQuery{From: "2020Q1"}, wantOK: true},
		{name: "full range", query: "from=2020Q1&to=2023Q4", want: SeriesQuery{From: "2020Q1", To: "2023Q4"}, wantOK: true},
		{name: "single quarter", query: "from=2021Q2&to=2021Q2", want: SeriesQuery{From: "2021Q2", To: "2021Q2"}, wantOK: true},
		{name: "invalid quarter", query: "from=2020Q5", wantField: "from"},
		{name: "lowercase q", query: "to=2020q1", wantField: "to"},
		{name: "reversed range", query: "from=2023Q1&to=2022Q4", wantField: "to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidation(t)
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard/series/balances?"+tt.query, nil)
			rec := httptest.NewRecorder()

			got, ok := v.SeriesQuery(rec, req)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, apierrors.TypeValidation, body["type"])
			details, _ := body["details"].(map[string]interface{})
			errs, _ := details["errors"].([]interface{})
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantField, errs[0].(map[string]interface{})["field"])
		})
	}
}

func TestChartQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   ChartQuery
		wantOK bool
	}{
		{name: "defaults", query: "", want: ChartQuery{Width: 960, Height: 420}, wantOK: true},
		{name: "override", query: "width=1200&height=600", want: ChartQuery{Width: 1200, Height: 600}, wantOK: true},
		{name: "width too small", query: "width=10"},
		{name: "height too large", query: "height=9000"},
		{name: "not a number", query: "width=wide"},
		{
			name:   "quarter range",
			query:  "from=2023Q1&to=2023Q4&width=800",
			want:   ChartQuery{From: "2023Q1", To: "2023Q4", Width: 800, Height: 420},
			wantOK: true,
		},
		{name: "bad from", query: "from=2023Q5"},
		{name: "reversed range", query: "from=2024Q1&to=2023Q4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidation(t)
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/balances.svg?"+tt.query, nil)
			rec := httptest.NewRecorder()

			got, ok := v.ChartQuery(rec, req, 960, 420)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryParamValidator(apierrors.NewErrorHandler(logger, false))
	allowed := []string{"csv", "xlsx", "db"}

	rec := httptest.NewRecorder()
	got, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?format=xlsx", nil), "format", allowed, "csv")
	assert.True(t, ok)
	assert.Equal(t, "xlsx", got)

	got, ok = v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/", nil), "format", allowed, "csv")
	assert.True(t, ok)
	assert.Equal(t, "csv", got)

	rec = httptest.NewRecorder()
	_, ok = v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?format=pdf", nil), "format", allowed, "csv")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
