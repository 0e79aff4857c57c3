package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"storewatch/internal/catalog"
	logx "storewatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsSQL string

// sqliteStore keeps the snapshot as a single JSON document in row id=1.
type sqliteStore struct {
	db   *sql.DB
	log  logx.Logger
	path string
	keys catalog.Keys
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer is all the cycle ever needs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = FULL")

	if _, err := db.ExecContext(context.Background(), migrationsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log, path: path, keys: cfg.Keys}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (catalog.Collection, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT items FROM snapshot WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ReadError{Path: s.path, Err: err}
	}
	items, err := catalog.DecodeCollection([]byte(doc), s.keys)
	if err != nil {
		return nil, false, &ReadError{Path: s.path, Err: err}
	}
	return items, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, items catalog.Collection) error {
	if items == nil {
		items = catalog.Collection{}
	}
	doc, err := json.Marshal(items)
	if err != nil {
		return &WriteError{Path: s.path, Err: fmt.Errorf("marshal: %w", err)}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot(id, items, item_count, saved_at) VALUES(1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET items=excluded.items, item_count=excluded.item_count, saved_at=excluded.saved_at`,
		string(doc), len(items), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		_ = tx.Rollback()
		return &WriteError{Path: s.path, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	s.log.Debug("snapshot saved", logx.String("path", s.path), logx.Int("items", len(items)))
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
