// Package handlers provides the HTTP handlers of the companion API.
//
// This file defines the shared response helpers. Every error leaves through
// fail() as an ErrorResponse with a stable code; service errors are mapped
// from their services.Kind by failErr().
//
//	HTTP/1.1 402 Payment Required
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "insufficient_funds",
//	  "message": "insufficient coins"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-companion-backend/internal/http/middleware"
	"github.com/tbourn/go-companion-backend/internal/services"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"character not found"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error to its HTTP status and code. Internal errors
// never echo their message to the client.
func failErr(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case services.KindInsufficientFunds:
		fail(c, http.StatusPaymentRequired, ErrCodeInsufficientFunds, err.Error())
	case services.KindInvalidArgument:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case services.KindUnauthorized:
		fail(c, http.StatusForbidden, ErrCodeUnauthorized, err.Error())
	case services.KindForbidden:
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case services.KindConflict:
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
