package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"packlist/internal/model"
)

// NewItem is the input to CreateItem.
type NewItem struct {
	Name      string
	Category  string
	TripTypes []string
}

// ItemUpdate changes the fields that are set.
type ItemUpdate struct {
	Name      *string
	Category  *string
	TripTypes *[]string
}

func (s Store) CreateItem(ctx context.Context, in NewItem) (model.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Item{}, errors.New("item name is empty")
	}
	id, err := newRandomID("item")
	if err != nil {
		return model.Item{}, err
	}
	var out model.Item
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		next, err := nextOrder(ctx, tx, in.Category)
		if err != nil {
			return err
		}
		out = model.Item{
			ID:        id,
			Name:      name,
			Category:  strings.TrimSpace(in.Category),
			Order:     next,
			TripTypes: model.CloneStrings(in.TripTypes),
			CreatedAt: time.Now().UTC(),
		}
		return putItem(ctx, tx, out)
	})
	if err != nil {
		return model.Item{}, err
	}
	return out, nil
}

// nextOrder is one past the highest order in category, 0 when empty.
func nextOrder(ctx context.Context, tx *sql.Tx, category string) (int, error) {
	var hi sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(ord) FROM items WHERE category = ?`, strings.TrimSpace(category)).Scan(&hi); err != nil {
		return 0, err
	}
	if !hi.Valid {
		return 0, nil
	}
	return int(hi.Int64) + 1, nil
}

func (s Store) UpdateItem(ctx context.Context, id string, up ItemUpdate) (model.Item, error) {
	var out model.Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		it, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if up.Name != nil {
			name := strings.TrimSpace(*up.Name)
			if name == "" {
				return errors.New("item name is empty")
			}
			it.Name = name
		}
		if up.Category != nil {
			cat := strings.TrimSpace(*up.Category)
			if cat != it.Category {
				next, err := nextOrder(ctx, tx, cat)
				if err != nil {
					return err
				}
				it.Category = cat
				it.Order = next
			}
		}
		if up.TripTypes != nil {
			it.TripTypes = model.CloneStrings(*up.TripTypes)
		}
		out = it
		return putItem(ctx, tx, it)
	})
	return out, err
}

func (s Store) SetChecked(ctx context.Context, id string, checked bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		it, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		it.Checked = checked
		return putItem(ctx, tx, it)
	})
}

func (s Store) DeleteItem(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ResetChecks unchecks every item in one transaction and returns how many changed.
func (s Store) ResetChecks(ctx context.Context) (int, error) {
	n := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		items, err := readJSONRows[model.Item](ctx, tx, `SELECT json FROM items WHERE checked = 1`)
		if err != nil {
			return err
		}
		for _, it := range items {
			it.Checked = false
			if err := putItem(ctx, tx, it); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s Store) GetItem(ctx context.Context, id string) (model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Item{}, err
	}
	defer db.Close()
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q queryer, id string) (model.Item, error) {
	items, err := readJSONRows[model.Item](ctx, q, `SELECT json FROM items WHERE id = ?`, id)
	if err != nil {
		return model.Item{}, err
	}
	if len(items) == 0 {
		return model.Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return items[0], nil
}

func putItem(ctx context.Context, e execer, it model.Item) error {
	raw, err := jsonString(it)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, `INSERT OR REPLACE INTO items(id, category, ord, checked, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		it.ID, it.Category, it.Order, boolToInt(it.Checked), raw, time.Now().UTC().UnixMilli())
	return err
}

// withTx runs fn in one transaction and commits only if fn succeeds.
func (s Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
