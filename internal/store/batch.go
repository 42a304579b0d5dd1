package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"packlist/internal/model"
)

// ApplyBatch writes every patch and the optional category order in one
// transaction. A patch for a missing item fails the whole batch.
func (s Store) ApplyBatch(ctx context.Context, b model.Batch) error {
	if b.Empty() {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range b.Items {
			it, err := getItem(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			it.Category = p.Category
			it.Order = p.Order
			if err := putItem(ctx, tx, it); err != nil {
				return fmt.Errorf("patch item %s: %w", p.ID, err)
			}
		}
		if b.CategoryOrder != nil {
			if err := writeJSONMeta(ctx, tx, metaCategories, b.CategoryOrder); err != nil {
				return fmt.Errorf("write category order: %w", err)
			}
		}
		return nil
	})
}

func jsonString(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
