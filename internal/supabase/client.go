// Package supabase is a small PostgREST client for the three tables the relay
// reads and writes in the front end's Supabase project. It satisfies the same
// store contract as the GORM repository so either backend can be injected
// into the services.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/observability"
)

const (
	tableResponses = "service_responses"
	tableMessages  = "messages"
	tableCities    = "cities"
)

// HTTPStatusError captures non-2xx PostgREST responses.
type HTTPStatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("supabase: unexpected status %d from %s %s: %s", e.StatusCode, e.Method, e.URL, e.Body)
}

// HTTPStatusCode returns the upstream status.
func (e *HTTPStatusError) HTTPStatusCode() int { return e.StatusCode }

// Client talks to {baseURL}/rest/v1 with the project's API key.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient builds a Client for the project at baseURL.
func NewClient(baseURL, key string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase: base URL must not be empty")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("supabase: key must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tracer:     observability.Tracer("supabase"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FindPendingResponse returns the oldest pending response of sessionID, or
// domain.ErrNotFound.
func (c *Client) FindPendingResponse(ctx context.Context, sessionID string) (*domain.ServiceResponse, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("session_id", "eq."+sessionID)
	q.Set("status", "eq."+domain.StatusPending)
	q.Set("order", "created_at.asc,id.asc")
	q.Set("limit", "1")

	var rows []responseRow
	if _, err := c.do(ctx, http.MethodGet, tableResponses, q, nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// CompleteResponse flips response id to success. The PATCH is filtered on
// status=pending; an empty representation means nothing was pending and is
// reported as domain.ErrNotFound.
func (c *Client) CompleteResponse(ctx context.Context, id, content string, metadata map[string]any) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("status", "eq."+domain.StatusPending)

	body := map[string]any{
		"content":  content,
		"status":   domain.StatusSuccess,
		"metadata": metadata,
	}
	hdr := http.Header{"Prefer": []string{"return=representation"}}

	var rows []json.RawMessage
	if _, err := c.do(ctx, http.MethodPatch, tableResponses, q, hdr, body, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateMessage inserts m without an id so the store assigns one.
func (c *Client) CreateMessage(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	row := map[string]any{
		"session_id":          m.SessionID,
		"content":             m.Content,
		"message_type":        m.MessageType,
		"created_at":          m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"service_response_id": m.ServiceResponseID,
	}
	hdr := http.Header{"Prefer": []string{"return=minimal"}}
	_, err := c.do(ctx, http.MethodPost, tableMessages, nil, hdr, row, nil)
	return err
}

// CountSessionMessages reads the exact count from the Content-Range header.
func (c *Client) CountSessionMessages(ctx context.Context, sessionID string) (int64, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("session_id", "eq."+sessionID)
	hdr := http.Header{"Prefer": []string{"count=exact"}}

	res, err := c.do(ctx, http.MethodHead, tableMessages, q, hdr, nil, nil)
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(res.Get("Content-Range"))
}

// ListSessionMessages returns one page ordered (created_at ASC, id ASC).
func (c *Client) ListSessionMessages(ctx context.Context, sessionID string, offset, limit int) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("session_id", "eq."+sessionID)
	q.Set("order", "created_at.asc,id.asc")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var rows []messageRow
	if _, err := c.do(ctx, http.MethodGet, tableMessages, q, nil, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// GetCity looks a city up by name, or returns domain.ErrNotFound.
func (c *Client) GetCity(ctx context.Context, name string) (*domain.City, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("name", "eq."+name)
	q.Set("limit", "1")

	var rows []cityRow
	if _, err := c.do(ctx, http.MethodGet, tableCities, q, nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	city := rows[0].toDomain()
	return &city, nil
}

// CreateCity inserts {name, docset_id}.
func (c *Client) CreateCity(ctx context.Context, city *domain.City) error {
	row := map[string]any{"name": city.Name, "docset_id": city.DocSetID}
	hdr := http.Header{"Prefer": []string{"return=minimal"}}
	_, err := c.do(ctx, http.MethodPost, tableCities, nil, hdr, row, nil)
	return err
}

// UpdateCityDocSet repoints the named city, or returns domain.ErrNotFound.
func (c *Client) UpdateCityDocSet(ctx context.Context, name, docsetID string) error {
	q := url.Values{}
	q.Set("name", "eq."+name)
	hdr := http.Header{"Prefer": []string{"return=representation"}}

	var rows []json.RawMessage
	if _, err := c.do(ctx, http.MethodPatch, tableCities, q, hdr, map[string]any{"docset_id": docsetID}, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close is a no-op; it lets the client stand in wherever a closable store is expected.
func (c *Client) Close() error { return nil }

// do issues one PostgREST call. A non-nil out receives the decoded body.
func (c *Client) do(ctx context.Context, method, table string, q url.Values, hdr http.Header, in, out any) (http.Header, error) {
	ctx, span := c.tracer.Start(ctx, "supabase."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgrest"),
			attribute.String("db.sql.table", table),
		),
	)
	defer span.End()

	u := c.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("supabase: marshal %s body: %w", table, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: create request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("supabase: %s %s: %w", method, table, err)
	}
	defer func() { _ = res.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		herr := &HTTPStatusError{StatusCode: res.StatusCode, Method: method, URL: u, Body: string(buf)}
		span.RecordError(herr)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, herr
	}

	if out != nil {
		if err := json.NewDecoder(io.LimitReader(res.Body, 8<<20)).Decode(out); err != nil {
			return nil, fmt.Errorf("supabase: decode %s response: %w", table, err)
		}
	}
	return res.Header, nil
}

// parseContentRangeTotal extracts N from "0-24/N" or "*/N".
func parseContentRangeTotal(v string) (int64, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 || i == len(v)-1 {
		return 0, fmt.Errorf("supabase: malformed Content-Range %q", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("supabase: Content-Range %q has no exact count", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("supabase: malformed Content-Range %q: %w", v, err)
	}
	return n, nil
}
