package kv

import (
	"context"
	"fmt"

	"github.com/hpungsan/macrolog/internal/config"
	"github.com/hpungsan/macrolog/internal/db"
)

// Open builds the Store selected by cfg.Backend. baseDir holds the SQLite file.
func Open(ctx context.Context, cfg *config.Config, baseDir string) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, err
		}
		db.ConfigurePool(database, cfg)
		return NewSQLite(database), nil
	case config.BackendRedis:
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
