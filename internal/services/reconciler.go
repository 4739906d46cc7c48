// Package services – Reconciler
//
// Reconciler matches a completed query result to the pending service response
// an upstream step created for the session, marks it successful and appends
// the answer to the session's chat as a service message.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/docset-relay/internal/domain"
)

// metadataQueryID is the metadata key that links a response to its query.
const metadataQueryID = "query_id"

// Reconciler writes query results back to the store.
type Reconciler struct {
	Store ResponseStore
}

// Reconcile completes the oldest pending response of sessionID with
// resultText and records a service message stamped at ts. It returns the
// completed response id.
//
// The status flip is a compare-and-set on status=pending, so two concurrent
// calls for one placeholder cannot both succeed; the loser gets
// ErrNoPendingResponse. If the message insert fails after the flip the
// response stays completed and the error is returned.
func (r *Reconciler) Reconcile(ctx context.Context, sessionID, queryText, resultText, externalQueryID string, ts time.Time) (string, error) {
	ctx, span := otel.Tracer("services/Reconciler").Start(ctx, "Reconcile",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("query.id", externalQueryID),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx).With().Str("session_id", sessionID).Logger()

	pending, err := r.Store.FindPendingResponse(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		reconcileTotal.WithLabelValues("no_pending").Inc()
		lg.Warn().Msg("no pending service response")
		return "", ErrNoPendingResponse
	}
	if err != nil {
		reconcileTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "find pending")
		return "", fmt.Errorf("find pending response: %w", err)
	}
	span.SetAttributes(attribute.String("service_response.id", pending.ID))

	metadata := make(map[string]any, len(pending.Metadata)+1)
	for k, v := range pending.Metadata {
		metadata[k] = v
	}
	metadata[metadataQueryID] = externalQueryID

	err = r.Store.CompleteResponse(ctx, pending.ID, resultText, metadata)
	if errors.Is(err, domain.ErrNotFound) {
		reconcileTotal.WithLabelValues("conflict").Inc()
		lg.Warn().Str("service_response_id", pending.ID).Msg("pending response completed concurrently")
		return "", ErrNoPendingResponse
	}
	if err != nil {
		reconcileTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete response")
		return "", fmt.Errorf("complete response %s: %w", pending.ID, err)
	}

	msg := &domain.Message{
		SessionID:         sessionID,
		Content:           resultText,
		MessageType:       domain.MessageTypeService,
		CreatedAt:         ts.UTC(),
		ServiceResponseID: pending.ID,
	}
	if err := r.Store.CreateMessage(ctx, msg); err != nil {
		reconcileTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert message")
		lg.Error().Err(err).Str("service_response_id", pending.ID).
			Msg("service response completed but message insert failed")
		return "", fmt.Errorf("insert message for response %s: %w", pending.ID, err)
	}

	reconcileTotal.WithLabelValues("success").Inc()
	lg.Info().
		Str("service_response_id", pending.ID).
		Int("query_len", len(queryText)).
		Msg("service response reconciled")
	return pending.ID, nil
}
