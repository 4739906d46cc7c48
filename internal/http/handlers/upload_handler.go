package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/docset-relay/internal/http/middleware"
	"github.com/tbourn/docset-relay/internal/services"
)

// UploadRequest is the JSON payload of POST /api/upload.
type UploadRequest struct {
	FilePath string `json:"file_path" example:"documents/Anaheim_capital_plan.pdf"`
	DocSetID string `json:"docset_id" example:"aryn:ds-9x1k2"`
}

// UploadResponse reports the submitted task.
type UploadResponse struct {
	Status   string `json:"status"    example:"success"`
	TaskID   string `json:"task_id"   example:"aryn:t-4k2m9"`
	FilePath string `json:"file_path" example:"documents/Anaheim_capital_plan.pdf"`
}

// Upload godoc
// @ID          upload
// @Summary     Submit one server-side file to a docset
// @Description Submits the file for asynchronous processing and returns the task id.
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.UploadRequest   true  "Upload payload"
// @Success     200   {object}  handlers.UploadResponse
// @Failure     400   {object}  handlers.ErrorResponse   "Missing field or file not found"
// @Failure     500   {object}  handlers.ErrorResponse   "Upstream failure"
// @Router      /upload [post]
func (h *Handlers) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		missingField(c, "file_path")
		return
	}
	if !services.SafeRelPath(req.FilePath) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "File path must be a relative path inside the working directory")
		return
	}
	if strings.TrimSpace(req.DocSetID) == "" {
		missingField(c, "docset_id")
		return
	}

	taskID, err := h.ingestSvc.Upload(c.Request.Context(), req.FilePath, req.DocSetID)
	if err != nil {
		failService(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().Str("task_id", taskID).Str("file_path", req.FilePath).Msg("upload submitted")
	ok(c, http.StatusOK, UploadResponse{Status: "success", TaskID: taskID, FilePath: req.FilePath})
}
