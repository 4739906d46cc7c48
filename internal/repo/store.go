// Package repo implements the SQL-backed persistence layer for domain
// entities using GORM. This file adapts the free repository functions to the
// store contract consumed by the services package.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/docset-relay/internal/domain"
)

// Store binds the repository functions to one *gorm.DB handle and maps
// gorm.ErrRecordNotFound to domain.ErrNotFound.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// FindPendingResponse proxies FindPendingResponse.
func (s *Store) FindPendingResponse(ctx context.Context, sessionID string) (*domain.ServiceResponse, error) {
	r, err := FindPendingResponse(ctx, s.DB, sessionID)
	return r, translate(err)
}

// CompleteResponse proxies CompletePendingResponse.
func (s *Store) CompleteResponse(ctx context.Context, id, content string, metadata map[string]any) error {
	return translate(CompletePendingResponse(ctx, s.DB, id, content, metadata))
}

// CreateMessage proxies CreateMessage.
func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	return CreateMessage(ctx, s.DB, m)
}

// CountSessionMessages proxies CountSessionMessages.
func (s *Store) CountSessionMessages(ctx context.Context, sessionID string) (int64, error) {
	return CountSessionMessages(ctx, s.DB, sessionID)
}

// ListSessionMessages proxies ListSessionMessagesPage.
func (s *Store) ListSessionMessages(ctx context.Context, sessionID string, offset, limit int) ([]domain.Message, error) {
	return ListSessionMessagesPage(ctx, s.DB, sessionID, offset, limit)
}

// GetCity proxies GetCityByName.
func (s *Store) GetCity(ctx context.Context, name string) (*domain.City, error) {
	c, err := GetCityByName(ctx, s.DB, name)
	return c, translate(err)
}

// CreateCity proxies CreateCity.
func (s *Store) CreateCity(ctx context.Context, c *domain.City) error {
	return CreateCity(ctx, s.DB, c)
}

// UpdateCityDocSet proxies UpdateCityDocSet.
func (s *Store) UpdateCityDocSet(ctx context.Context, name, docsetID string) error {
	return translate(UpdateCityDocSet(ctx, s.DB, name, docsetID))
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
