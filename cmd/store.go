package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/homescout/listings-cli/internal/store"
)

// openStore builds the configured store backend. The caller owns Close.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		s, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "cmd: open sqlite store")
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, eris.Wrap(err, "cmd: migrate sqlite store")
		}
		return s, nil
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "cmd: open postgres store")
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, eris.Wrap(err, "cmd: migrate postgres store")
		}
		return s, nil
	default:
		return nil, eris.Errorf("cmd: unknown store driver %q", cfg.Store.Driver)
	}
}
