// Package repo implements the SQL-backed persistence layer for domain
// entities using GORM. This file provides repository functions for the
// Message model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/docset-relay/internal/domain"
)

// CreateMessage inserts a message row. A zero CreatedAt is set to now (UTC).
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(m).Error
}

// CountSessionMessages uses a raw COUNT so a missing table surfaces as an error.
func CountSessionMessages(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID).
		Scan(&total).Error
	return total, err
}

// ListSessionMessagesPage returns a page ordered (created_at ASC, id ASC).
func ListSessionMessagesPage(ctx context.Context, db *gorm.DB, sessionID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
