package dnd

import (
	"time"

	"packlist/internal/model"
)

// CollapseState is the host's per-category collapse flags. The engine only
// snapshots, overrides and restores them.
type CollapseState interface {
	CollapseSnapshot() map[string]bool
	SetCollapsed(map[string]bool)
}

// categorySession reorders categories. Two guards stop a swap from
// retriggering itself once both headers have traded places: a debounce since
// the last swap and a lock on the last swap target.
type categorySession struct {
	dragged string
	order   []string

	lastSwapTarget string
	lastSwapAt     time.Time

	collapse map[string]bool
}

func newCategorySession(dragged string, order []string) (*categorySession, bool) {
	if dragged == model.Uncategorized || indexOfString(order, dragged) < 0 {
		return nil, false
	}
	return &categorySession{dragged: dragged, order: model.CloneStrings(order)}, true
}

func (s *categorySession) move(t Target, now time.Time, debounce time.Duration) bool {
	if t.Kind != TargetCategoryBody || t.Category == model.Uncategorized {
		return false
	}
	if t.Category != s.lastSwapTarget {
		s.lastSwapTarget = ""
	}
	if t.Category == s.dragged {
		return false
	}
	if !s.lastSwapAt.IsZero() && now.Sub(s.lastSwapAt) < debounce {
		return false
	}
	if t.Category == s.lastSwapTarget {
		return false
	}
	idx := indexOfString(s.order, t.Category)
	if idx < 0 {
		return false
	}
	next, ok := MoveCategory(s.order, s.dragged, idx)
	if !ok {
		return false
	}
	s.order = next
	s.lastSwapTarget = t.Category
	s.lastSwapAt = now
	return true
}

// MoveCategory removes name and reinserts it at index (clamped). ok is false
// when name is missing or already there.
func MoveCategory(order []string, name string, index int) ([]string, bool) {
	from := indexOfString(order, name)
	if from < 0 {
		return nil, false
	}
	rest := make([]string, 0, len(order))
	rest = append(rest, order[:from]...)
	rest = append(rest, order[from+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(rest) {
		index = len(rest)
	}
	if index == from {
		return nil, false
	}
	out := make([]string, 0, len(order))
	out = append(out, rest[:index]...)
	out = append(out, name)
	out = append(out, rest[index:]...)
	return out, true
}

// reconcileOrder keeps the provisional arrangement of categories that still
// exist and appends ones created elsewhere during the drag.
func reconcileOrder(provisional, committed []string) []string {
	out := make([]string, 0, len(committed))
	for _, c := range provisional {
		if indexOfString(committed, c) >= 0 {
			out = append(out, c)
		}
	}
	for _, c := range committed {
		if indexOfString(out, c) < 0 {
			out = append(out, c)
		}
	}
	return out
}

func indexOfString(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}
