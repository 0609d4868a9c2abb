package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/validation"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(zap.New(core))(err, c)
	return rec, logs
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	rec, logs := renderError(t, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "connection refused")
}

func TestErrorHandlerValidation(t *testing.T) {
	rec, logs := renderError(t, &ValidationError{Fields: []validation.FieldError{
		{Path: "rating", Message: "Rating must be at most 5", Code: validation.CodeTooBig},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Validation failed","errors":[{"path":"rating","message":"Rating must be at most 5","code":"too_big"}]}`, rec.Body.String())
	assert.Zero(t, logs.Len())
}

func TestErrorHandlerHTTPError(t *testing.T) {
	rec, _ := renderError(t, echo.NewHTTPError(http.StatusForbidden, "Admin access required"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Admin access required"}`, rec.Body.String())

	rec, _ = renderError(t, echo.ErrMethodNotAllowed)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"message":"Method Not Allowed"}`, rec.Body.String())
}

func TestBindValidRejectsMalformedJSON(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"storeId":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var body validation.SubmitRating
	err := bindValid(c, &body)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, validation.CodeInvalidType, ve.Fields[0].Code)
}

func TestBindValidTypeMismatchNamesField(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"storeId":-1,"rating":3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var body validation.SubmitRating
	var ve *ValidationError
	require.ErrorAs(t, bindValid(c, &body), &ve)
	assert.Equal(t, "storeId", ve.Fields[0].Path)
}

func TestPathID(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	for in, ok := range map[string]bool{"7": true, "0": false, "-3": false, "abc": false, "": false} {
		c.SetParamValues(in)
		_, got := pathID(c, "id")
		assert.Equal(t, ok, got, in)
	}
}

func TestSummarizeAveragesPerStoreAverages(t *testing.T) {
	stores := []model.StoreSummary{
		{AverageRating: 5, ExactAverage: 5, TotalRatings: 1},
		{AverageRating: 0, ExactAverage: 0, TotalRatings: 0},
		{AverageRating: 2, ExactAverage: 2, TotalRatings: 3},
	}
	assert.Equal(t, OwnerSummary{TotalStores: 3, TotalRatings: 4, OverallAverage: 2.3}, summarize(stores))
	assert.Equal(t, OwnerSummary{}, summarize(nil))
}

// Rounding happens once, on the final mean.  Averaging the displayed
// values (2.3 and 2.2) would give 2.3.
func TestSummarizeRoundsOnce(t *testing.T) {
	stores := []model.StoreSummary{
		{AverageRating: 2.3, ExactAverage: 2.26, TotalRatings: 50},
		{AverageRating: 2.2, ExactAverage: 2.16, TotalRatings: 25},
	}
	assert.Equal(t, 2.2, summarize(stores).OverallAverage)
}
