package tui

import (
	"packlist/internal/model"
	"packlist/internal/store"
)

// committedMsg carries a fresh Committed State from the store.
type committedMsg struct {
	state store.State
}

// mutationDoneMsg reports a list edit. state is the reloaded store when the edit succeeded.
type mutationDoneMsg struct {
	status string
	err    error
	state  *store.State
	// follow is the row key to select once state is applied.
	follow string
}

type rowKind int

const (
	rowHeader rowKind = iota
	rowItem
)

type row struct {
	kind      rowKind
	category  string
	item      model.Item
	checked   int
	total     int
	collapsed bool
}

func (r row) key() string {
	if r.kind == rowHeader {
		return "cat:" + r.category
	}
	return "item:" + r.item.ID
}
