package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"packlist/internal/model"

	_ "modernc.org/sqlite"
)

const (
	metaCategories = "categories"
	metaTripTypes  = "trip_types"
	metaShareToken = "share_token"
)

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI, the CLI and the share server read while one of them writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			ord INTEGER NOT NULL,
			checked INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category, ord);`,
		`CREATE TABLE IF NOT EXISTS shares (
			token TEXT PRIMARY KEY,
			workspace TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			expires_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Load reads items, settings and the share token in one transaction.
// A fresh store yields the default settings.
func (s Store) Load(ctx context.Context) (State, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return State{}, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return State{}, err
	}
	defer func() { _ = tx.Rollback() }()

	items, err := readJSONRows[model.Item](ctx, tx, `SELECT json FROM items ORDER BY category, ord, id`)
	if err != nil {
		return State{}, fmt.Errorf("load items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	settings, err := readSettings(ctx, tx)
	if err != nil {
		return State{}, err
	}
	token, _, err := readMeta(ctx, tx, metaShareToken)
	if err != nil {
		return State{}, err
	}
	return State{Items: items, Settings: settings, ShareToken: token}, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func readSettings(ctx context.Context, q queryer) (model.Settings, error) {
	out := model.DefaultSettings()
	if v, ok, err := readMeta(ctx, q, metaCategories); err != nil {
		return model.Settings{}, err
	} else if ok {
		if err := json.Unmarshal([]byte(v), &out.Categories); err != nil {
			return model.Settings{}, fmt.Errorf("parse categories: %w", err)
		}
	}
	if v, ok, err := readMeta(ctx, q, metaTripTypes); err != nil {
		return model.Settings{}, err
	} else if ok {
		if err := json.Unmarshal([]byte(v), &out.TripTypes); err != nil {
			return model.Settings{}, fmt.Errorf("parse trip types: %w", err)
		}
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.TripTypes == nil {
		out.TripTypes = []string{}
	}
	return out, nil
}

func readMeta(ctx context.Context, q queryer, k string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, k).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func writeMeta(ctx context.Context, e execer, k, v string) error {
	_, err := e.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, k, v)
	return err
}

func writeJSONMeta(ctx context.Context, e execer, k string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeMeta(ctx, e, k, string(raw))
}

func readJSONRows[T any](ctx context.Context, q queryer, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
