// Package repo implements the SQL-backed persistence layer for domain
// entities using GORM. This file provides repository functions for the
// ServiceResponse model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they work
// inside transactions as well as on the root connection. They follow the
// "thin repository" approach: query composition only, no business rules.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound (gorm.ErrRecordNotFound).
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/docset-relay/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateServiceResponse inserts a response row. The relay itself never
// creates placeholders; this exists for the upstream step and local seeding.
func CreateServiceResponse(ctx context.Context, db *gorm.DB, r *domain.ServiceResponse) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	return db.WithContext(ctx).Create(r).Error
}

// FindPendingResponse returns the oldest pending response for sessionID, or
// ErrNotFound when the session has none.
func FindPendingResponse(ctx context.Context, db *gorm.DB, sessionID string) (*domain.ServiceResponse, error) {
	var r domain.ServiceResponse
	err := db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, domain.StatusPending).
		Order("created_at ASC, id ASC").
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CompletePendingResponse stores content and metadata on response id and
// marks it successful. The update only matches a row that is still pending;
// if none matches (missing, or completed by a concurrent request) it returns
// ErrNotFound.
func CompletePendingResponse(ctx context.Context, db *gorm.DB, id, content string, metadata map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.ServiceResponse{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"content":  content,
			"status":   domain.StatusSuccess,
			"metadata": datatypes.JSONMap(metadata),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetServiceResponse fetches a response by id.
func GetServiceResponse(ctx context.Context, db *gorm.DB, id string) (*domain.ServiceResponse, error) {
	var r domain.ServiceResponse
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}
