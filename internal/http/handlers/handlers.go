// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they decode and validate input, call one
// service, and map the outcome to JSON. The service dependencies are
// expressed as small interfaces so tests can stub them.
package handlers

import (
	"context"

	"github.com/tbourn/docset-relay/internal/aryn"
	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/services"
)

// SearchService answers a query and persists the result into a session.
type SearchService interface {
	Search(ctx context.Context, req services.SearchRequest) (aryn.QueryResult, error)
}

// IngestService uploads documents.
type IngestService interface {
	IngestAll(ctx context.Context, pattern string) (services.IngestReport, error)
	Upload(ctx context.Context, filePath, docsetID string) (string, error)
}

// SessionService lists a session's messages.
type SessionService interface {
	ListMessages(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Message, int64, error)
}

// Options carries handler-level settings.
type Options struct {
	// DefaultGlob is used by ProcessDocuments when the body has no pattern.
	DefaultGlob string
	// IngestEnabled exposes POST /api/process-documents.
	IngestEnabled bool
}

// Handlers groups the API handlers and their dependencies.
type Handlers struct {
	searchSvc  SearchService
	ingestSvc  IngestService
	sessionSvc SessionService
	opts       Options
}

// New constructs a Handlers bound to the given services.
func New(search SearchService, ingest IngestService, session SessionService, opts Options) *Handlers {
	return &Handlers{searchSvc: search, ingestSvc: ingest, sessionSvc: session, opts: opts}
}
