package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/docset-relay/internal/http/middleware"
	"github.com/tbourn/docset-relay/internal/services"
)

// SearchRequest is the JSON payload of POST /api/search.
type SearchRequest struct {
	DocSetID  string `json:"docset_id"  example:"aryn:ds-9x1k2"`
	Query     string `json:"query"      example:"What infrastructure projects are planned?"`
	SessionID string `json:"session_id" example:"5f0c2d1e-7a34-4f9b-9a51-8c2d1e7a344f"`
}

// SearchResponse carries the query id and answer.
type SearchResponse struct {
	QueryID string `json:"query_id" example:"45imecgk35du9dnrf4wkqfp"`
	Result  string `json:"result"   example:"Anaheim has an ambitious lineup of infrastructure projects..."`
}

// Search godoc
// @ID          search
// @Summary     Query a docset and record the answer in a session
// @Description Runs the query against the docset (or returns the canned answer in test mode),
// @Description completes the session's pending service response and appends a service message.
// @Tags        Search
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SearchRequest   true  "Search payload"
// @Success     200   {object}  handlers.SearchResponse
// @Failure     400   {object}  handlers.ErrorResponse   "Missing field or no pending response"
// @Failure     500   {object}  handlers.ErrorResponse   "Upstream or store failure"
// @Router      /search [post]
func (h *Handlers) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	for _, f := range []struct{ name, val string }{
		{"docset_id", req.DocSetID},
		{"query", req.Query},
		{"session_id", req.SessionID},
	} {
		if strings.TrimSpace(f.val) == "" {
			missingField(c, f.name)
			return
		}
	}

	lg := middleware.LoggerFrom(c)
	lg.Info().Str("docset_id", req.DocSetID).Str("session_id", req.SessionID).Msg("search request")

	res, err := h.searchSvc.Search(c.Request.Context(), services.SearchRequest{
		DocSetID:  req.DocSetID,
		Query:     req.Query,
		SessionID: req.SessionID,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, SearchResponse{QueryID: res.QueryID, Result: res.Result})
}
