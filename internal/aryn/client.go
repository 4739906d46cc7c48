// Package aryn is a focused REST client for the Aryn document-intelligence
// service: docset queries, docset lookup and creation, document listing and
// asynchronous document submission.
package aryn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/docset-relay/internal/observability"
)

// DefaultBaseURL is the public Aryn endpoint.
const DefaultBaseURL = "https://api.aryn.cloud"

// QueryResult is a completed, non-streamed docset query.
type QueryResult struct {
	QueryID string `json:"query_id"`
	Result  string `json:"result"`
}

// DocSet is a named document collection.
type DocSet struct {
	ID   string `json:"docset_id"`
	Name string `json:"name"`
}

// DocMeta describes one document stored in a docset.
type DocMeta struct {
	ID   string `json:"doc_id"`
	Name string `json:"name,omitempty"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("aryn: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// HTTPStatusCode returns the upstream status.
func (e *HTTPStatusError) HTTPStatusCode() int { return e.StatusCode }

// Client calls the Aryn REST API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if s := strings.TrimRight(strings.TrimSpace(baseURL), "/"); s != "" {
			c.baseURL = s
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client. Queries over large
// docsets are slow, so callers usually pass minutes here.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient builds a Client authenticated with token.
func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("aryn: API token must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		tracer:     observability.Tracer("aryn"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type queryRequest struct {
	DocSetID        string `json:"docset_id"`
	Query           string `json:"query"`
	SummarizeResult bool   `json:"summarize_result"`
	Stream          bool   `json:"stream"`
}

// Query runs a synchronous, non-streaming, unsummarized query over docsetID.
func (c *Client) Query(ctx context.Context, docsetID, query string) (QueryResult, error) {
	ctx, span := c.start(ctx, "aryn.query", attribute.String("aryn.docset_id", docsetID))
	defer span.End()

	var out QueryResult
	err := c.doJSON(ctx, span, http.MethodPost, "/v1/query", queryRequest{
		DocSetID: docsetID,
		Query:    query,
	}, &out)
	if err != nil {
		return QueryResult{}, fmt.Errorf("aryn: query: %w", err)
	}
	span.SetAttributes(attribute.String("aryn.query_id", out.QueryID))
	return out, nil
}

type docSetPage struct {
	Items []DocSet `json:"items"`
}

// FindDocSetByName returns the docset whose name equals name exactly. The
// boolean is false when there is none.
func (c *Client) FindDocSetByName(ctx context.Context, name string) (DocSet, bool, error) {
	ctx, span := c.start(ctx, "aryn.find_docset", attribute.String("aryn.docset_name", name))
	defer span.End()

	var page docSetPage
	path := "/v1/storage/docsets?" + url.Values{"name_eq": {name}}.Encode()
	if err := c.doJSON(ctx, span, http.MethodGet, path, nil, &page); err != nil {
		return DocSet{}, false, fmt.Errorf("aryn: list docsets: %w", err)
	}
	// The server filter is a convenience; only an exact match counts.
	for _, ds := range page.Items {
		if ds.Name == name {
			return ds, true, nil
		}
	}
	return DocSet{}, false, nil
}

// CreateDocSet creates an empty docset called name.
func (c *Client) CreateDocSet(ctx context.Context, name string) (DocSet, error) {
	ctx, span := c.start(ctx, "aryn.create_docset", attribute.String("aryn.docset_name", name))
	defer span.End()

	var out DocSet
	if err := c.doJSON(ctx, span, http.MethodPost, "/v1/storage/docsets", map[string]string{"name": name}, &out); err != nil {
		return DocSet{}, fmt.Errorf("aryn: create docset: %w", err)
	}
	if out.ID == "" {
		return DocSet{}, errors.New("aryn: create docset: response has no docset_id")
	}
	return out, nil
}

type docPage struct {
	Items []DocMeta `json:"items"`
}

// ListDocs returns the documents currently stored in docsetID.
func (c *Client) ListDocs(ctx context.Context, docsetID string) ([]DocMeta, error) {
	ctx, span := c.start(ctx, "aryn.list_docs", attribute.String("aryn.docset_id", docsetID))
	defer span.End()

	var page docPage
	path := "/v1/storage/docsets/" + url.PathEscape(docsetID) + "/docs"
	if err := c.doJSON(ctx, span, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("aryn: list docs: %w", err)
	}
	return page.Items, nil
}

type asyncTask struct {
	TaskID string `json:"task_id"`
}

// AddDocAsync submits the file at filePath for asynchronous partitioning
// into docsetID and returns the task id.
func (c *Client) AddDocAsync(ctx context.Context, docsetID, filePath string) (string, error) {
	ctx, span := c.start(ctx, "aryn.add_doc_async",
		attribute.String("aryn.docset_id", docsetID),
		attribute.String("aryn.file", filepath.Base(filePath)),
	)
	defer span.End()

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("aryn: open %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filePath))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	path := "/v1/async/submit/storage/docsets/" + url.PathEscape(docsetID) + "/docs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		_ = pr.Close()
		return "", fmt.Errorf("aryn: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out asyncTask
	if err := c.do(span, req, &out); err != nil {
		_ = pr.Close()
		return "", fmt.Errorf("aryn: submit doc: %w", err)
	}
	if out.TaskID == "" {
		return "", errors.New("aryn: submit doc: response has no task_id")
	}
	span.SetAttributes(attribute.String("aryn.task_id", out.TaskID))
	return out.TaskID, nil
}

func (c *Client) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func (c *Client) doJSON(ctx context.Context, span trace.Span, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(span, req, out)
}

func (c *Client) do(span trace.Span, req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		herr := &HTTPStatusError{StatusCode: res.StatusCode, URL: req.URL.String(), Body: string(buf)}
		span.RecordError(herr)
		span.SetStatus(codes.Error, "unexpected status")
		return herr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 8<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
