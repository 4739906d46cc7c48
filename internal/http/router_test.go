package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/docset-relay/internal/aryn"
	"github.com/tbourn/docset-relay/internal/config"
	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/repo"
	"github.com/tbourn/docset-relay/internal/services"
)

// --- fake upstream: only Query is expected to be unreachable in test mode ---
type fakeDocs struct{ queries int }

func (f *fakeDocs) Query(context.Context, string, string) (aryn.QueryResult, error) {
	f.queries++
	return aryn.QueryResult{}, errors.New("upstream must not be called in test mode")
}
func (f *fakeDocs) FindDocSetByName(context.Context, string) (aryn.DocSet, bool, error) {
	return aryn.DocSet{}, false, nil
}
func (f *fakeDocs) CreateDocSet(_ context.Context, name string) (aryn.DocSet, error) {
	return aryn.DocSet{ID: "ds-new", Name: name}, nil
}
func (f *fakeDocs) ListDocs(context.Context, string) ([]aryn.DocMeta, error) { return nil, nil }
func (f *fakeDocs) AddDocAsync(context.Context, string, string) (string, error) {
	return "task-1", nil
}

func newTestStore(t *testing.T) *repo.Store {
	t.Helper()
	db, err := repo.Open(config.StoreConfig{
		Backend: config.BackendSQLite,
		DBPath:  filepath.Join(t.TempDir(), "router.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s := repo.NewStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func baseConfig() config.Config {
	return config.Config{
		TestMode: true,
		OTEL:     config.OTELConfig{ServiceName: "test-svc"},
		Ingest:   config.IngestConfig{Glob: "documents/*.pdf", EndpointEnabled: true},
	}
}

func newEngine(t *testing.T, cfg config.Config) (*gin.Engine, *repo.Store, *fakeDocs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := newTestStore(t)
	docs := &fakeDocs{}
	RegisterRoutes(r, store, docs, cfg)
	return r, store, docs
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Liveness_Metrics_Fallbacks(t *testing.T) {
	r, _, _ := newEngine(t, baseConfig())

	for _, m := range []string{http.MethodGet, http.MethodHead} {
		w := serve(r, httptest.NewRequest(m, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s / = %d", m, w.Code)
		}
		if m == http.MethodGet && w.Body.String() != "OK" {
			t.Fatalf("GET / body = %q", w.Body.String())
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatalf("expected X-Request-ID header")
		}
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("GET /nope = %d %s", w.Code, w.Body.String())
	}

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE / expected 405, got %d", w.Code)
	}

	// swagger is off by default
	w = serve(r, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_SearchFlow_TestMode(t *testing.T) {
	r, store, docs := newEngine(t, baseConfig())
	ctx := context.Background()

	if err := repo.CreateServiceResponse(ctx, store.DB, &domain.ServiceResponse{
		ID: "sr-1", SessionID: "sess-1", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := `{"docset_id":"ds-1","query":"Who is the mayor?","session_id":"sess-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d %s", w.Code, w.Body.String())
	}
	var res map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res["query_id"] != services.CannedQueryID || res["result"] != services.CannedResult {
		t.Fatalf("unexpected canned result: %v", res)
	}
	if docs.queries != 0 {
		t.Fatalf("upstream called %d times in test mode", docs.queries)
	}

	// the placeholder is consumed: a second search has nothing to complete
	req = httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "No pending service response found for this session") {
		t.Fatalf("second search = %d %s", w.Code, w.Body.String())
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/sessions/sess-1/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list messages = %d", w.Code)
	}
	var page struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].ServiceResponseID != "sr-1" || page.Messages[0].Content != services.CannedResult {
		t.Fatalf("unexpected messages: %+v", page.Messages)
	}
}

func TestRegisterRoutes_IngestEndpointDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.Ingest.EndpointEnabled = false
	r, _, _ := newEngine(t, cfg)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/api/process-documents", bytes.NewReader(nil)))
	if w.Code != http.StatusNotFound {
		t.Fatalf("disabled ingest = %d", w.Code)
	}
}

func TestRegisterRoutes_CORS(t *testing.T) {
	r, _, _ := newEngine(t, baseConfig())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all expected '*', got %q", got)
	}

	cfg := baseConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://app.example.org"}}
	r, _, _ = newEngine(t, cfg)

	// httptest requests carry Host example.com, so the allowlisted origin
	// must differ from it to be treated as cross-origin.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.org")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.org" {
		t.Fatalf("allowlisted origin not echoed: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected ACAO for foreign origin: %q", got)
	}
}

func TestRegisterRoutes_GzipAndSwagger(t *testing.T) {
	cfg := baseConfig()
	cfg.GzipEnabled = true
	cfg.SwaggerEnabled = true
	r, _, _ := newEngine(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/none/messages", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	if got := serve(r, req).Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", got)
	}

	// /metrics is compressed once, by promhttp itself.
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := serve(r, req)
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("/metrics Content-Encoding = %q", got)
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Contains(plain, []byte("http_requests_total")) {
		t.Fatalf("/metrics body is not plain exposition text after one decompression: %.64q", plain)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/search") {
		t.Fatalf("swagger doc = %d", w.Code)
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(8))
	r.POST("/echo", func(c *gin.Context) {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, buf.String())
	})

	if w := serve(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small"))); w.Code != http.StatusOK {
		t.Fatalf("small body = %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("this is way too long"))); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body = %d", w.Code)
	}
}
