package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
)

const genericMessage = "Something went wrong"

// errorBody is the JSON envelope of every failed request.
type errorBody struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
}

// NewErrorHandler renders errors as {status, statusCode, message}.
// Operational errors (*apperror.Error and echo's own HTTP errors) keep their
// message.  Anything else is masked in production.  Outside production the
// error chain is added as "stack".
func NewErrorHandler(log *zap.Logger, production bool) echo.HTTPErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		body, retryAfter := envelope(err, production)
		if retryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
		if body.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", body.StatusCode),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(body.StatusCode)
		} else {
			werr = c.JSON(body.StatusCode, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func envelope(err error, production bool) (errorBody, int) {
	body := errorBody{Status: "error"}
	if !production {
		body.Stack = err.Error()
	}

	if e, ok := apperror.From(err); ok {
		body.StatusCode = e.Status
		body.Message = e.Message
		return body, e.RetryAfter
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		body.StatusCode = he.Code
		body.Message = http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			body.Message = s
		}
		return body, 0
	}

	body.StatusCode = http.StatusInternalServerError
	body.Message = genericMessage
	if !production {
		body.Message = err.Error()
	}
	return body, 0
}
