package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
)

// Open returns the run store selected by cfg.Driver, or nil for "none".
// The schema is not migrated here; call Migrate.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: store.database_url is required for postgres")
		}
		s, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
