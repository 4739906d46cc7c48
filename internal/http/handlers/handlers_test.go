package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/docset-relay/internal/aryn"
	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/services"
)

// ---------- stubs ----------

type stubSearch struct {
	got services.SearchRequest
	res aryn.QueryResult
	err error
}

func (s *stubSearch) Search(ctx context.Context, req services.SearchRequest) (aryn.QueryResult, error) {
	s.got = req
	return s.res, s.err
}

type stubIngest struct {
	pattern string
	report  services.IngestReport
	ingErr  error
	taskID  string
	upErr   error
	uploads []string
}

func (s *stubIngest) IngestAll(ctx context.Context, pattern string) (services.IngestReport, error) {
	s.pattern = pattern
	return s.report, s.ingErr
}

func (s *stubIngest) Upload(ctx context.Context, filePath, docsetID string) (string, error) {
	s.uploads = append(s.uploads, filePath)
	return s.taskID, s.upErr
}

type stubSession struct {
	page, size int
	items      []domain.Message
	total      int64
	err        error
}

func (s *stubSession) ListMessages(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	s.page, s.size = page, pageSize
	return s.items, s.total, s.err
}

// ---------- plumbing ----------

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/search", h.Search)
	r.POST("/api/upload", h.Upload)
	r.POST("/api/process-documents", h.ProcessDocuments)
	r.GET("/api/sessions/:id/messages", h.ListSessionMessages)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	return w, m
}

// ---------- search ----------

func TestSearch_OK(t *testing.T) {
	ss := &stubSearch{res: aryn.QueryResult{QueryID: "q1", Result: "answer"}}
	r := newRouter(New(ss, nil, nil, Options{}))

	w, m := do(t, r, http.MethodPost, "/api/search", `{"docset_id":"d1","query":"q","session_id":"s1"}`)
	if w.Code != http.StatusOK || m["query_id"] != "q1" || m["result"] != "answer" {
		t.Fatalf("unexpected: %d %v", w.Code, m)
	}
	if ss.got != (services.SearchRequest{DocSetID: "d1", Query: "q", SessionID: "s1"}) {
		t.Fatalf("service got %+v", ss.got)
	}
}

func TestSearch_MissingFields(t *testing.T) {
	r := newRouter(New(&stubSearch{}, nil, nil, Options{}))
	cases := map[string]string{
		`{"query":"q","session_id":"s1"}`:                   "Missing required field: docset_id",
		`{"docset_id":"d1","session_id":"s1"}`:              "Missing required field: query",
		`{"docset_id":"d1","query":"q","session_id":"   "}`: "Missing required field: session_id",
	}
	for body, want := range cases {
		w, m := do(t, r, http.MethodPost, "/api/search", body)
		if w.Code != http.StatusBadRequest || m["error"] != want || m["code"] != ErrCodeBadRequest {
			t.Fatalf("%s: %d %v", body, w.Code, m)
		}
	}

	w, m := do(t, r, http.MethodPost, "/api/search", `not json`)
	if w.Code != http.StatusBadRequest || m["error"] != msgInvalidJSON {
		t.Fatalf("invalid json: %d %v", w.Code, m)
	}
}

func TestSearch_NoPending(t *testing.T) {
	r := newRouter(New(&stubSearch{err: services.ErrNoPendingResponse}, nil, nil, Options{}))
	w, m := do(t, r, http.MethodPost, "/api/search", `{"docset_id":"d1","query":"q","session_id":"s1"}`)
	if w.Code != http.StatusBadRequest || m["error"] != "No pending service response found for this session" {
		t.Fatalf("unexpected: %d %v", w.Code, m)
	}
}

func TestSearch_Upstream(t *testing.T) {
	r := newRouter(New(&stubSearch{err: &services.UpstreamError{Op: "query", Err: errors.New("boom")}}, nil, nil, Options{}))
	w, m := do(t, r, http.MethodPost, "/api/search", `{"docset_id":"d1","query":"q","session_id":"s1"}`)
	if w.Code != http.StatusInternalServerError || m["code"] != ErrCodeUpstream {
		t.Fatalf("unexpected: %d %v", w.Code, m)
	}
}

// ---------- upload ----------

func TestUpload(t *testing.T) {
	si := &stubIngest{taskID: "t-1"}
	r := newRouter(New(nil, si, nil, Options{}))

	w, m := do(t, r, http.MethodPost, "/api/upload", `{"file_path":"documents/a.pdf","docset_id":"d1"}`)
	if w.Code != http.StatusOK || m["status"] != "success" || m["task_id"] != "t-1" || m["file_path"] != "documents/a.pdf" {
		t.Fatalf("unexpected: %d %v", w.Code, m)
	}

	w, m = do(t, r, http.MethodPost, "/api/upload", `{"docset_id":"d1"}`)
	if w.Code != http.StatusBadRequest || m["error"] != "Missing required field: file_path" {
		t.Fatalf("missing file_path: %d %v", w.Code, m)
	}
	w, m = do(t, r, http.MethodPost, "/api/upload", `{"file_path":"a.pdf"}`)
	if w.Code != http.StatusBadRequest || m["error"] != "Missing required field: docset_id" {
		t.Fatalf("missing docset_id: %d %v", w.Code, m)
	}

	si.upErr = services.ErrFileNotFound
	w, m = do(t, r, http.MethodPost, "/api/upload", `{"file_path":"gone.pdf","docset_id":"d1"}`)
	if w.Code != http.StatusBadRequest || m["code"] != ErrCodeFileNotFound {
		t.Fatalf("file not found: %d %v", w.Code, m)
	}
}

func TestUpload_RejectsPathsOutsideWorkingDir(t *testing.T) {
	si := &stubIngest{taskID: "t-1"}
	r := newRouter(New(nil, si, nil, Options{}))

	for _, p := range []string{"/etc/hostname", "../../etc/passwd", "documents/../../x.pdf", `\\host\share`} {
		body := fmt.Sprintf(`{"file_path":%q,"docset_id":"d1"}`, p)
		w, m := do(t, r, http.MethodPost, "/api/upload", body)
		if w.Code != http.StatusBadRequest || m["code"] != ErrCodeBadRequest {
			t.Fatalf("%q: %d %v", p, w.Code, m)
		}
	}
	if len(si.uploads) != 0 {
		t.Fatalf("service must not be called, got %v", si.uploads)
	}
}

// ---------- process-documents ----------

func TestProcessDocuments_DefaultPatternAndReport(t *testing.T) {
	si := &stubIngest{report: services.IngestReport{
		Processed: 2, Uploaded: 1, Skipped: 1,
		Results: []services.FileResult{{File: "a", Status: "uploaded"}, {File: "b", Status: "skipped"}},
	}}
	r := newRouter(New(nil, si, nil, Options{DefaultGlob: "documents/*.pdf", IngestEnabled: true}))

	w, m := do(t, r, http.MethodPost, "/api/process-documents", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, m)
	}
	if si.pattern != "documents/*.pdf" {
		t.Fatalf("pattern = %q", si.pattern)
	}
	if m["status"] != "success" || m["processed"] != float64(2) || m["uploaded"] != float64(1) || m["message"] != "Processed 2 documents" {
		t.Fatalf("unexpected body: %v", m)
	}
	if res, _ := m["results"].([]any); len(res) != 2 {
		t.Fatalf("results = %v", m["results"])
	}
}

func TestProcessDocuments_PatternOverrideAndGuards(t *testing.T) {
	si := &stubIngest{}
	r := newRouter(New(nil, si, nil, Options{DefaultGlob: "documents/*.pdf", IngestEnabled: true}))

	w, m := do(t, r, http.MethodPost, "/api/process-documents", `{"pattern":"archive/*.pdf"}`)
	if w.Code != http.StatusOK || si.pattern != "archive/*.pdf" {
		t.Fatalf("override: %d %v pattern=%q", w.Code, m, si.pattern)
	}
	if res, ok := m["results"].([]any); !ok || len(res) != 0 {
		t.Fatalf("results should be an empty array: %v", m["results"])
	}

	for _, bad := range []string{`{"pattern":"/etc/*"}`, `{"pattern":"../secrets/*"}`, `{"pattern":"docs/../../x"}`} {
		w, _ := do(t, r, http.MethodPost, "/api/process-documents", bad)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", bad, w.Code)
		}
	}
}

func TestProcessDocuments_Errors(t *testing.T) {
	si := &stubIngest{ingErr: services.ErrNoDocuments}
	r := newRouter(New(nil, si, nil, Options{DefaultGlob: "x/*.pdf", IngestEnabled: true}))

	w, m := do(t, r, http.MethodPost, "/api/process-documents", "")
	if w.Code != http.StatusBadRequest || m["code"] != ErrCodeNoDocuments {
		t.Fatalf("no docs: %d %v", w.Code, m)
	}

	si.ingErr = &services.BatchError{File: "x/a.pdf", Err: errors.New("boom")}
	w, m = do(t, r, http.MethodPost, "/api/process-documents", "")
	if w.Code != http.StatusInternalServerError || m["code"] != ErrCodeBatchFailed {
		t.Fatalf("batch: %d %v", w.Code, m)
	}
}

func TestProcessDocuments_Disabled(t *testing.T) {
	si := &stubIngest{}
	r := newRouter(New(nil, si, nil, Options{IngestEnabled: false}))
	w, _ := do(t, r, http.MethodPost, "/api/process-documents", "")
	if w.Code != http.StatusNotFound || si.pattern != "" {
		t.Fatalf("disabled endpoint: %d pattern=%q", w.Code, si.pattern)
	}
}

// ---------- sessions ----------

func TestListSessionMessages(t *testing.T) {
	ss := &stubSession{items: []domain.Message{{ID: 1, SessionID: "s1", Content: "a"}}, total: 45}
	r := newRouter(New(nil, nil, ss, Options{}))

	w, m := do(t, r, http.MethodGet, "/api/sessions/s1/messages?page=2&page_size=500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ss.page != 2 || ss.size != services.MaxPageSize {
		t.Fatalf("clamped paging = %d/%d", ss.page, ss.size)
	}
	p, _ := m["pagination"].(map[string]any)
	if p["total"] != float64(45) || p["total_pages"] != float64(1) || p["has_next"] != false {
		t.Fatalf("pagination = %v", p)
	}

	w, _ = do(t, r, http.MethodGet, "/api/sessions/s1/messages?page=x", "")
	if w.Code != http.StatusOK || ss.page != 1 || ss.size != services.DefaultPageSize {
		t.Fatalf("defaults: %d %d/%d", w.Code, ss.page, ss.size)
	}

	ss.err = errors.New("store down")
	w, m = do(t, r, http.MethodGet, "/api/sessions/s1/messages", "")
	if w.Code != http.StatusInternalServerError || m["code"] != ErrCodeInternal {
		t.Fatalf("store error: %d %v", w.Code, m)
	}
}
