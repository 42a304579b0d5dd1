package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"packlist/internal/model"
)

// CreateShareToken returns the list's share token, minting one if needed.
func (s Store) CreateShareToken(ctx context.Context) (string, error) {
	var token string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, ok, err := readMeta(ctx, tx, metaShareToken)
		if err != nil {
			return err
		}
		if ok && cur != "" {
			token = cur
			return nil
		}
		token = uuid.NewString()
		return writeMeta(ctx, tx, metaShareToken, token)
	})
	return token, err
}

// RevokeShareToken clears the token and returns the one that was active.
func (s Store) RevokeShareToken(ctx context.Context) (string, error) {
	var token string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, _, err := readMeta(ctx, tx, metaShareToken)
		if err != nil {
			return err
		}
		token = cur
		if _, err := tx.ExecContext(ctx, `DELETE FROM state_meta WHERE k = ?`, metaShareToken); err != nil {
			return err
		}
		if cur == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM shares WHERE token = ?`, cur)
		return err
	})
	return token, err
}

func (s Store) PutShare(ctx context.Context, sh model.Share) error {
	if sh.Token == "" {
		return errors.New("share token is empty")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO shares(token, workspace, created_at_unixms, expires_at_unixms) VALUES(?, ?, ?, ?)`,
			sh.Token, sh.Workspace, sh.CreatedAt.UTC().UnixMilli(), unixMilliOrZero(sh.ExpiresAt))
		return err
	})
}

// LookupShare returns ErrNotFound for unknown and expired tokens.
func (s Store) LookupShare(ctx context.Context, token string) (model.Share, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Share{}, err
	}
	defer db.Close()

	var sh model.Share
	var created, expires int64
	err = db.QueryRowContext(ctx, `SELECT token, workspace, created_at_unixms, expires_at_unixms FROM shares WHERE token = ?`, token).
		Scan(&sh.Token, &sh.Workspace, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Share{}, fmt.Errorf("share %s: %w", token, ErrNotFound)
	}
	if err != nil {
		return model.Share{}, err
	}
	sh.CreatedAt = time.UnixMilli(created).UTC()
	if expires > 0 {
		sh.ExpiresAt = time.UnixMilli(expires).UTC()
	}
	if sh.Expired(time.Now()) {
		return model.Share{}, fmt.Errorf("share %s: %w", token, ErrNotFound)
	}
	return sh, nil
}

func (s Store) DeleteShare(ctx context.Context, token string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM shares WHERE token = ?`, token)
		return err
	})
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}
