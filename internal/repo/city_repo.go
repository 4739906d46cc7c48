// Package repo implements the SQL-backed persistence layer for domain
// entities using GORM. This file provides repository functions for the City
// model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/docset-relay/internal/domain"
)

// GetCityByName fetches a city by its (already lowercased) name.
func GetCityByName(ctx context.Context, db *gorm.DB, name string) (*domain.City, error) {
	var c domain.City
	if err := db.WithContext(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCity inserts a city row and fills in its generated ID.
func CreateCity(ctx context.Context, db *gorm.DB, c *domain.City) error {
	return db.WithContext(ctx).Create(c).Error
}

// UpdateCityDocSet points an existing city at a different docset. It
// returns ErrNotFound if no city has that name.
func UpdateCityDocSet(ctx context.Context, db *gorm.DB, name, docsetID string) error {
	res := db.WithContext(ctx).
		Model(&domain.City{}).
		Where("name = ?", name).
		Update("docset_id", docsetID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
