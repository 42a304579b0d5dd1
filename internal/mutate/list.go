// Package mutate holds the list edits that act on Committed State directly,
// outside of a drag gesture.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"packlist/internal/classify"
	"packlist/internal/dnd"
	"packlist/internal/model"
	"packlist/internal/store"
)

// Gate reports whether no gesture is pending or active. *dnd.Engine implements it.
type Gate interface {
	Idle() bool
}

type List struct {
	Store      store.Store
	Classifier classify.Classifier
	// Gate is optional; without it edits are never refused.
	Gate Gate
}

func (l List) guard() error {
	if l.Gate != nil && !l.Gate.Idle() {
		return ErrGestureActive
	}
	return nil
}

func normalizeCategory(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.EqualFold(name, model.Uncategorized) {
		return "", ErrReservedCategory
	}
	return name, nil
}

func hasCategory(order []string, name string) bool {
	for _, c := range order {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// AddCategory appends a category to the order.
func (l List) AddCategory(ctx context.Context, name string) (model.Settings, error) {
	if err := l.guard(); err != nil {
		return model.Settings{}, err
	}
	name, err := normalizeCategory(name)
	if err != nil {
		return model.Settings{}, err
	}
	return l.Store.UpdateSettings(ctx, func(st *model.Settings) error {
		if hasCategory(st.Categories, name) {
			return fmt.Errorf("%q: %w", name, ErrDuplicateCategory)
		}
		st.Categories = append(st.Categories, name)
		return nil
	})
}

// RenameCategory renames a category and moves its items with it.
func (l List) RenameCategory(ctx context.Context, from, to string) (int, error) {
	if err := l.guard(); err != nil {
		return 0, err
	}
	from = strings.TrimSpace(from)
	to, err := normalizeCategory(to)
	if err != nil {
		return 0, err
	}
	st, err := l.Store.LoadSettings(ctx)
	if err != nil {
		return 0, err
	}
	if !containsExact(st.Categories, from) {
		return 0, NotFoundError{Kind: "category", ID: from}
	}
	if from == to {
		return 0, nil
	}
	if !strings.EqualFold(from, to) && hasCategory(st.Categories, to) {
		return 0, fmt.Errorf("%q: %w", to, ErrDuplicateCategory)
	}
	return l.Store.RenameCategory(ctx, from, to)
}

// DeleteCategory drops a category from the order. Its items keep their stale
// category and render under Uncategorized.
func (l List) DeleteCategory(ctx context.Context, name string) (model.Settings, error) {
	if err := l.guard(); err != nil {
		return model.Settings{}, err
	}
	name = strings.TrimSpace(name)
	return l.Store.UpdateSettings(ctx, func(st *model.Settings) error {
		out := st.Categories[:0:0]
		for _, c := range st.Categories {
			if c != name {
				out = append(out, c)
			}
		}
		if len(out) == len(st.Categories) {
			return NotFoundError{Kind: "category", ID: name}
		}
		st.Categories = out
		return nil
	})
}

// MoveCategory places a category at index (clamped) and writes the full order.
func (l List) MoveCategory(ctx context.Context, name string, index int) ([]string, error) {
	if err := l.guard(); err != nil {
		return nil, err
	}
	st, err := l.Store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !containsExact(st.Categories, name) {
		return nil, NotFoundError{Kind: "category", ID: name}
	}
	next, ok := dnd.MoveCategory(st.Categories, name, index)
	if !ok {
		return st.Categories, nil
	}
	if err := l.Store.ApplyBatch(ctx, model.Batch{CategoryOrder: next}); err != nil {
		return nil, err
	}
	return next, nil
}

func (l List) AddTripType(ctx context.Context, name string) (model.Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Settings{}, ErrEmptyName
	}
	return l.Store.UpdateSettings(ctx, func(st *model.Settings) error {
		if hasCategory(st.TripTypes, name) {
			return fmt.Errorf("trip type %q already exists", name)
		}
		st.TripTypes = append(st.TripTypes, name)
		return nil
	})
}

func (l List) RemoveTripType(ctx context.Context, name string) (model.Settings, error) {
	name = strings.TrimSpace(name)
	return l.Store.UpdateSettings(ctx, func(st *model.Settings) error {
		out := st.TripTypes[:0:0]
		for _, t := range st.TripTypes {
			if t != name {
				out = append(out, t)
			}
		}
		if len(out) == len(st.TripTypes) {
			return NotFoundError{Kind: "trip type", ID: name}
		}
		st.TripTypes = out
		return nil
	})
}

// AddItem creates an item at the end of category. An empty category picks the
// first one in the order.
func (l List) AddItem(ctx context.Context, name, category string, tripTypes []string) (model.Item, error) {
	if strings.TrimSpace(name) == "" {
		return model.Item{}, ErrEmptyName
	}
	st, err := l.Store.LoadSettings(ctx)
	if err != nil {
		return model.Item{}, err
	}
	category = strings.TrimSpace(category)
	if category == "" && len(st.Categories) > 0 {
		category = st.Categories[0]
	}
	if category != "" && !containsExact(st.Categories, category) {
		return model.Item{}, NotFoundError{Kind: "category", ID: category}
	}
	return l.Store.CreateItem(ctx, store.NewItem{Name: name, Category: category, TripTypes: tripTypes})
}

// QuickAdd classifies free text. A new category is appended to the order
// before the item is created in it.
func (l List) QuickAdd(ctx context.Context, text string, tripTypes []string) (model.Item, classify.Result, error) {
	if l.Classifier == nil {
		return model.Item{}, classify.Result{}, errors.New("no classifier configured")
	}
	st, err := l.Store.LoadSettings(ctx)
	if err != nil {
		return model.Item{}, classify.Result{}, err
	}
	res := l.Classifier.Classify(text, st.Categories)
	if strings.TrimSpace(res.Name) == "" {
		return model.Item{}, res, ErrEmptyName
	}
	if res.IsNew {
		if _, err := l.AddCategory(ctx, res.Category); err != nil && !errors.Is(err, ErrDuplicateCategory) {
			return model.Item{}, res, err
		}
	}
	it, err := l.Store.CreateItem(ctx, store.NewItem{Name: res.Name, Category: res.Category, TripTypes: tripTypes})
	return it, res, err
}

func (l List) ToggleItem(ctx context.Context, id string) (model.Item, error) {
	it, err := l.Store.GetItem(ctx, id)
	if err != nil {
		return model.Item{}, l.notFound(err, id)
	}
	it.Checked = !it.Checked
	if err := l.Store.SetChecked(ctx, id, it.Checked); err != nil {
		return model.Item{}, l.notFound(err, id)
	}
	return it, nil
}

func (l List) UpdateItem(ctx context.Context, id string, up store.ItemUpdate) (model.Item, error) {
	if up.Category != nil {
		st, err := l.Store.LoadSettings(ctx)
		if err != nil {
			return model.Item{}, err
		}
		if !containsExact(st.Categories, strings.TrimSpace(*up.Category)) {
			return model.Item{}, NotFoundError{Kind: "category", ID: *up.Category}
		}
	}
	it, err := l.Store.UpdateItem(ctx, id, up)
	return it, l.notFound(err, id)
}

func (l List) DeleteItem(ctx context.Context, id string) error {
	return l.notFound(l.Store.DeleteItem(ctx, id), id)
}

func (l List) ResetChecks(ctx context.Context) (int, error) {
	return l.Store.ResetChecks(ctx)
}

// MoveItem places an item at index within category using the same
// arithmetic as a drag, then writes one batch per touched group.
func (l List) MoveItem(ctx context.Context, id, category string, index int) ([]model.Batch, error) {
	if err := l.guard(); err != nil {
		return nil, err
	}
	st, err := l.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	order := st.Settings.Categories
	items := dnd.DisplayOrder(st.Items, order)
	var dragged *model.Item
	for i := range items {
		if items[i].ID == id {
			dragged = &items[i]
			break
		}
	}
	if dragged == nil {
		return nil, NotFoundError{Kind: "item", ID: id}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = model.GroupKey(dragged.Category, order)
	}
	if category != model.Uncategorized && !containsExact(order, category) {
		return nil, NotFoundError{Kind: "category", ID: category}
	}
	origin := model.GroupKey(dragged.Category, order)

	// The row now at index is the one the moved item displaces.
	var rows []model.Item
	for _, it := range items {
		if model.GroupKey(it.Category, order) == category {
			rows = append(rows, it)
		}
	}
	target := dnd.Target{Kind: dnd.TargetCategoryBody, Category: category}
	if index >= 0 && index < len(rows) {
		if rows[index].ID == id {
			return nil, nil
		}
		target = dnd.Target{Kind: dnd.TargetItem, ItemID: rows[index].ID, Category: category}
	}
	next, ok := dnd.MoveItem(items, order, id, target)
	if !ok {
		return nil, nil
	}
	batches, _ := dnd.ItemBatches(st.Items, next, order, origin, category)
	for _, b := range batches {
		if err := l.Store.ApplyBatch(ctx, b); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

func (l List) notFound(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundError{Kind: "item", ID: id}
	}
	return err
}

func containsExact(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
