package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/utils"
)

// Page size bounds for ListMessages.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SessionService exposes a session's message history.
type SessionService struct {
	Store MessageStore
}

// ListMessages returns one page of sessionID's messages, oldest first, and
// the total count. page < 1 becomes 1; pageSize is clamped to [1, MaxPageSize]
// with DefaultPageSize for non-positive values.
func (s *SessionService) ListMessages(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "ListMessages",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = ClampPage(page, pageSize)

	total, err := s.Store.CountSessionMessages(ctx, sessionID)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	offset := utils.Offset(page, pageSize)
	if int64(offset) >= total {
		return []domain.Message{}, total, nil
	}

	items, err := s.Store.ListSessionMessages(ctx, sessionID, offset, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return items, total, nil
}

// ClampPage normalizes pagination input.
func ClampPage(page, pageSize int) (int, int) {
	return utils.ClampPage(page, pageSize, DefaultPageSize, MaxPageSize)
}
