package store

import (
	"context"
	"database/sql"

	"packlist/internal/model"
)

func (s Store) LoadSettings(ctx context.Context) (model.Settings, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	defer db.Close()
	return readSettings(ctx, db)
}

func (s Store) SaveSettings(ctx context.Context, st model.Settings) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveSettings(ctx, tx, st)
	})
}

// UpdateSettings reads, changes and writes settings in one transaction.
func (s Store) UpdateSettings(ctx context.Context, fn func(*model.Settings) error) (model.Settings, error) {
	var out model.Settings
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		st, err := readSettings(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(&st); err != nil {
			return err
		}
		out = st
		return saveSettings(ctx, tx, st)
	})
	return out, err
}

// RenameCategory renames from to to in the category order and moves its items
// in the same transaction. It returns how many items moved.
func (s Store) RenameCategory(ctx context.Context, from, to string) (int, error) {
	n := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		st, err := readSettings(ctx, tx)
		if err != nil {
			return err
		}
		for i, c := range st.Categories {
			if c == from {
				st.Categories[i] = to
			}
		}
		if err := saveSettings(ctx, tx, st); err != nil {
			return err
		}
		items, err := readJSONRows[model.Item](ctx, tx, `SELECT json FROM items WHERE category = ?`, from)
		if err != nil {
			return err
		}
		for _, it := range items {
			it.Category = to
			if err := putItem(ctx, tx, it); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func saveSettings(ctx context.Context, e execer, st model.Settings) error {
	if st.Categories == nil {
		st.Categories = []string{}
	}
	if st.TripTypes == nil {
		st.TripTypes = []string{}
	}
	if err := writeJSONMeta(ctx, e, metaCategories, st.Categories); err != nil {
		return err
	}
	return writeJSONMeta(ctx, e, metaTripTypes, st.TripTypes)
}
