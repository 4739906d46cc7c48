// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the error envelope and the small response helpers every
// handler uses. fail() logs 5xx responses with the request-scoped logger.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/docset-relay/internal/http/middleware"
	"github.com/tbourn/docset-relay/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"no_pending_response"`
	// Human-readable message
	Error string `json:"error" example:"No pending service response found for this session"`
}

// fail aborts the request with a structured error. Server errors (>=500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get(middleware.RequestIDHeader),
		Code:      code,
		Error:     msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failService maps a service error onto the envelope.
func failService(c *gin.Context, err error) {
	var (
		upErr    *services.UpstreamError
		batchErr *services.BatchError
	)
	switch {
	case errors.Is(err, services.ErrNoPendingResponse):
		fail(c, http.StatusBadRequest, ErrCodeNoPendingResponse, msgNoPendingResponse)
	case errors.Is(err, services.ErrFileNotFound):
		fail(c, http.StatusBadRequest, ErrCodeFileNotFound, capitalize(err.Error()))
	case errors.Is(err, services.ErrNoDocuments):
		fail(c, http.StatusBadRequest, ErrCodeNoDocuments, "No documents matched the pattern")
	case errors.Is(err, services.ErrInvalidPattern), errors.Is(err, services.ErrUnsafePath):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, capitalize(err.Error()))
	case errors.As(err, &batchErr):
		fail(c, http.StatusInternalServerError, ErrCodeBatchFailed, fmt.Sprintf("Error processing documents: %v", err))
	case errors.As(err, &upErr):
		fail(c, http.StatusInternalServerError, ErrCodeUpstream, fmt.Sprintf("Document service error during %s: %v", upErr.Op, upErr.Err))
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

func missingField(c *gin.Context, name string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing required field: "+name)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
