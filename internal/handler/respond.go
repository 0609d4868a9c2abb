package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/validation"
)

// dbTimeout bounds every database round trip made by a handler.
const dbTimeout = 5 * time.Second

const (
	msgValidationFailed = "Validation failed"
	msgInternal         = "Internal server error"
)

// ErrorBody is the envelope of every failed response.
type ErrorBody struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// ValidationError carries field errors up to the HTTP error handler.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}

// normalizer is implemented by every request schema.
type normalizer interface {
	Normalize()
}

// bindValid decodes the JSON body into req, normalizes it and runs the
// schema rules.  Failures come back as *ValidationError.
func bindValid(c echo.Context, req normalizer) error {
	if err := c.Bind(req); err != nil {
		return &ValidationError{Fields: []validation.FieldError{decodeError(err)}}
	}
	req.Normalize()
	if errs := validation.Struct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// decodeError describes a body that is not the JSON the schema expects.
func decodeError(err error) validation.FieldError {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return validation.FieldError{
			Path:    ute.Field,
			Message: fmt.Sprintf("Expected %s, received %s", ute.Type.Kind(), ute.Value),
			Code:    validation.CodeInvalidType,
		}
	}
	return validation.FieldError{Message: "Request body must be a JSON object", Code: validation.CodeInvalidType}
}

// dbCtx derives the per-request database deadline.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// callerID returns the numeric id of the authenticated caller.  Guarded
// routes always have valid claims; anything else is a wiring bug.
func callerID(c echo.Context) (uint64, error) {
	cl := middleware.CurrentClaims(c)
	if cl == nil {
		return 0, errors.New("handler: route is not guarded")
	}
	return cl.UserID()
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func message(msg string) echo.Map { return echo.Map{"message": msg} }

// ErrorHandler renders every error as ErrorBody.  Unexpected errors are
// logged with the request id and reported as a bare 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := http.StatusInternalServerError, ErrorBody{Message: msgInternal}

		var ve *ValidationError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ve):
			status, body = http.StatusBadRequest, ErrorBody{Message: msgValidationFailed, Errors: ve.Fields}
		case errors.As(err, &he):
			status = he.Code
			if status >= http.StatusInternalServerError {
				log.Error("request failed", requestFields(c, he.Internal)...)
				break
			}
			if m, ok := he.Message.(string); ok {
				body.Message = m
			} else {
				body.Message = http.StatusText(status)
			}
		default:
			log.Error("request failed", requestFields(c, err)...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func requestFields(c echo.Context, err error) []zap.Field {
	return []zap.Field{
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.Error(err),
	}
}
