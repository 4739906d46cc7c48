package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/docset-relay/internal/aryn"
)

// SearchRequest is one search call from the front end.
type SearchRequest struct {
	DocSetID  string
	Query     string
	SessionID string
}

// SearchService answers a query and writes the result into the session.
type SearchService struct {
	Dispatcher *QueryDispatcher
	Reconciler *Reconciler
	Now        func() time.Time
}

// Search dispatches req and reconciles the result, stamped with the current
// UTC time. The query result is only returned once it has been persisted.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (aryn.QueryResult, error) {
	ctx, span := otel.Tracer("services/SearchService").Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("docset.id", req.DocSetID),
			attribute.String("session.id", req.SessionID),
		),
	)
	defer span.End()

	res, err := s.Dispatcher.Dispatch(ctx, req.DocSetID, req.Query)
	if err != nil {
		return aryn.QueryResult{}, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if _, err := s.Reconciler.Reconcile(ctx, req.SessionID, req.Query, res.Result, res.QueryID, now().UTC()); err != nil {
		return aryn.QueryResult{}, err
	}
	return res, nil
}
