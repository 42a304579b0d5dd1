package model

import (
	"sort"
	"strings"
	"time"
)

// Uncategorized is the reserved group for items whose category is not in the
// category order. It is never orderable and always rendered last.
const Uncategorized = "Uncategorized"

type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Checked   bool      `json:"checked"`
	Order     int       `json:"order"`
	TripTypes []string  `json:"tripTypes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Settings struct {
	Categories []string `json:"categories"`
	TripTypes  []string `json:"tripTypes"`
}

func DefaultSettings() Settings {
	return Settings{
		Categories: []string{"Clothes", "Toiletries", "Electronics", "Documents", "Misc"},
		TripTypes:  []string{"Leisure", "Business"},
	}
}

// ItemPatch is the field update a reorder writes for one item.
type ItemPatch struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Order    int    `json:"order"`
}

// Batch is applied all-or-nothing by the store.
// A nil CategoryOrder leaves the category order untouched.
type Batch struct {
	Items         []ItemPatch `json:"items,omitempty"`
	CategoryOrder []string    `json:"categoryOrder,omitempty"`
}

func (b Batch) Empty() bool {
	return len(b.Items) == 0 && b.CategoryOrder == nil
}

// GroupKey returns the group an item renders under given the current category order.
func GroupKey(category string, order []string) string {
	for _, c := range order {
		if c == category {
			return category
		}
	}
	return Uncategorized
}

// Group is one rendered category with its items in display order.
type Group struct {
	Name  string
	Items []Item
}

// GroupItems groups items by category in the given order. Items with a stale
// category land in Uncategorized, which is appended only when non-empty.
func GroupItems(items []Item, order []string) []Group {
	idx := make(map[string]int, len(order))
	groups := make([]Group, 0, len(order)+1)
	for _, c := range order {
		if _, dup := idx[c]; dup {
			continue
		}
		idx[c] = len(groups)
		groups = append(groups, Group{Name: c})
	}
	var rest []Item
	for _, it := range items {
		if i, ok := idx[it.Category]; ok && it.Category != Uncategorized {
			groups[i].Items = append(groups[i].Items, it)
			continue
		}
		rest = append(rest, it)
	}
	for i := range groups {
		SortItemsByOrder(groups[i].Items)
	}
	if len(rest) > 0 {
		SortItemsByOrder(rest)
		groups = append(groups, Group{Name: Uncategorized, Items: rest})
	}
	return groups
}

// SortItemsByOrder sorts by order, then CreatedAt, then ID.
func SortItemsByOrder(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// VisibleOnTrip reports whether an item shows for the trip filter.
// Items with no trip types show on every trip.
func VisibleOnTrip(it Item, trip string) bool {
	trip = strings.TrimSpace(trip)
	if trip == "" || len(it.TripTypes) == 0 {
		return true
	}
	for _, t := range it.TripTypes {
		if strings.EqualFold(t, trip) {
			return true
		}
	}
	return false
}

// Progress returns checked and total counts.
func Progress(items []Item) (checked, total int) {
	for _, it := range items {
		if it.Checked {
			checked++
		}
	}
	return checked, len(items)
}

func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		if it.TripTypes != nil {
			it.TripTypes = append([]string(nil), it.TripTypes...)
		}
		out[i] = it
	}
	return out
}

func CloneStrings(xs []string) []string {
	if xs == nil {
		return nil
	}
	return append([]string(nil), xs...)
}

// Share grants read-only access to a workspace's list. A zero ExpiresAt never expires.
type Share struct {
	Token     string    `json:"token"`
	Workspace string    `json:"workspace"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (s Share) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
