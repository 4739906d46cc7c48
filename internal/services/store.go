package services

import (
	"context"

	"github.com/tbourn/docset-relay/internal/aryn"
	"github.com/tbourn/docset-relay/internal/domain"
)

// Store contracts. Not-found conditions are reported as domain.ErrNotFound.
// Both repo.Store (GORM) and supabase.Client (PostgREST) implement Store.

// ResponseStore reads and completes service responses and appends messages.
type ResponseStore interface {
	FindPendingResponse(ctx context.Context, sessionID string) (*domain.ServiceResponse, error)
	// CompleteResponse must only update a row whose status is still pending.
	CompleteResponse(ctx context.Context, id, content string, metadata map[string]any) error
	CreateMessage(ctx context.Context, m *domain.Message) error
}

// MessageStore pages through a session's messages.
type MessageStore interface {
	CountSessionMessages(ctx context.Context, sessionID string) (int64, error)
	ListSessionMessages(ctx context.Context, sessionID string, offset, limit int) ([]domain.Message, error)
}

// CityStore persists the city to docset mapping.
type CityStore interface {
	GetCity(ctx context.Context, name string) (*domain.City, error)
	CreateCity(ctx context.Context, c *domain.City) error
	UpdateCityDocSet(ctx context.Context, name, docsetID string) error
}

// Store is the full persistence surface wired at start-up.
type Store interface {
	ResponseStore
	MessageStore
	CityStore
	Close() error
}

// QueryClient runs docset queries.
type QueryClient interface {
	Query(ctx context.Context, docsetID, query string) (aryn.QueryResult, error)
}

// DocSetClient manages docsets and their documents.
type DocSetClient interface {
	FindDocSetByName(ctx context.Context, name string) (aryn.DocSet, bool, error)
	CreateDocSet(ctx context.Context, name string) (aryn.DocSet, error)
	ListDocs(ctx context.Context, docsetID string) ([]aryn.DocMeta, error)
	AddDocAsync(ctx context.Context, docsetID, filePath string) (string, error)
}
