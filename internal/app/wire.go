// Package app builds the long-lived dependencies shared by the binaries:
// the store selected by STORE_BACKEND and the Aryn client.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/docset-relay/internal/aryn"
	"github.com/tbourn/docset-relay/internal/config"
	"github.com/tbourn/docset-relay/internal/repo"
	"github.com/tbourn/docset-relay/internal/services"
	"github.com/tbourn/docset-relay/internal/supabase"
)

// OpenStore returns the store for cfg.Backend. The supabase backend talks
// PostgREST; postgres and sqlite go through GORM.
func OpenStore(cfg config.StoreConfig) (services.Store, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		c, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, supabase.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, fmt.Errorf("supabase client: %w", err)
		}
		log.Info().Str("backend", cfg.Backend).Str("url", cfg.SupabaseURL).Msg("store ready")
		return c, nil
	case config.BackendPostgres, config.BackendSQLite:
		db, err := repo.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
		log.Info().Str("backend", cfg.Backend).Msg("store ready")
		return repo.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewDocClient builds the Aryn client from cfg.
func NewDocClient(cfg config.ArynConfig) (*aryn.Client, error) {
	c, err := aryn.NewClient(cfg.APIToken, aryn.WithBaseURL(cfg.BaseURL), aryn.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("aryn client: %w", err)
	}
	return c, nil
}
