package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/docset-relay/internal/services"
)

// ProcessDocumentsRequest optionally overrides the configured document glob.
type ProcessDocumentsRequest struct {
	Pattern string `json:"pattern" example:"documents/*.pdf"`
}

// ProcessDocumentsResponse summarizes a batch ingestion run.
type ProcessDocumentsResponse struct {
	Status    string                `json:"status"    example:"success"`
	Message   string                `json:"message"   example:"Processed 3 documents"`
	Processed int                   `json:"processed" example:"3"`
	Uploaded  int                   `json:"uploaded"  example:"2"`
	Skipped   int                   `json:"skipped"   example:"1"`
	Failed    int                   `json:"failed"    example:"0"`
	Results   []services.FileResult `json:"results"`
}

// ProcessDocuments godoc
// @ID          processDocuments
// @Summary     Ingest all matching server-side documents
// @Description Ensures a docset and a city row per city and uploads documents into empty docsets.
// @Description The pattern must be relative and must not leave the working directory.
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ProcessDocumentsRequest  false  "Optional glob override"
// @Success     200   {object}  handlers.ProcessDocumentsResponse
// @Failure     400   {object}  handlers.ErrorResponse  "No files matched or bad pattern"
// @Failure     404   {object}  handlers.ErrorResponse  "Endpoint disabled"
// @Failure     500   {object}  handlers.ErrorResponse  "Batch aborted"
// @Router      /process-documents [post]
func (h *Handlers) ProcessDocuments(c *gin.Context) {
	if !h.opts.IngestEnabled {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Not found")
		return
	}

	var req ProcessDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}

	pattern := strings.TrimSpace(req.Pattern)
	if pattern == "" {
		pattern = h.opts.DefaultGlob
	} else if !services.SafeRelPath(pattern) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Pattern must be a relative path inside the working directory")
		return
	}

	report, err := h.ingestSvc.IngestAll(c.Request.Context(), pattern)
	if err != nil {
		failService(c, err)
		return
	}

	results := report.Results
	if results == nil {
		results = []services.FileResult{}
	}
	ok(c, http.StatusOK, ProcessDocumentsResponse{
		Status:    "success",
		Message:   fmt.Sprintf("Processed %d documents", report.Processed),
		Processed: report.Processed,
		Uploaded:  report.Uploaded,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
		Results:   results,
	})
}
