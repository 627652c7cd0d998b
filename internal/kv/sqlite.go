package kv

import (
	"context"
	"database/sql"

	"github.com/hpungsan/macrolog/internal/db"
)

// SQLite stores values in the kv table created by db.Init.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an initialized database. Close closes it.
func NewSQLite(database *sql.DB) *SQLite {
	return &SQLite{db: database}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return db.GetValue(ctx, s.db, key)
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	return db.PutValue(ctx, s.db, key, value)
}

func (s *SQLite) SetMany(ctx context.Context, batch Batch) error {
	return db.PutValues(ctx, s.db, batch)
}

func (s *SQLite) Delete(ctx context.Context, key string) (bool, error) {
	return db.DeleteValue(ctx, s.db, key)
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	return db.ListKeys(ctx, s.db, prefix)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
