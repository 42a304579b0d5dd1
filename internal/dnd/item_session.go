package dnd

import "packlist/internal/model"

// itemSession holds the provisional placement of one dragged item.
type itemSession struct {
	draggedID   string
	originGroup string
	order       []string
	items       []model.Item
}

func newItemSession(draggedID string, committed []model.Item, order []string) (*itemSession, bool) {
	items := DisplayOrder(committed, order)
	i := indexOfItem(items, draggedID)
	if i < 0 {
		return nil, false
	}
	return &itemSession{
		draggedID:   draggedID,
		originGroup: model.GroupKey(items[i].Category, order),
		order:       model.CloneStrings(order),
		items:       items,
	}, true
}

// move applies a hit target and reports whether the preview changed.
func (s *itemSession) move(t Target) bool {
	next, ok := MoveItem(s.items, s.order, s.draggedID, t)
	if !ok {
		return false
	}
	s.items = next
	return true
}

func (s *itemSession) finalGroup() string {
	i := indexOfItem(s.items, s.draggedID)
	if i < 0 {
		return s.originGroup
	}
	return model.GroupKey(s.items[i].Category, s.order)
}

// DisplayOrder returns a copy of items flattened in render order: groups in
// category order, Uncategorized last, each group sorted by order.
func DisplayOrder(items []model.Item, order []string) []model.Item {
	groups := model.GroupItems(model.CloneItems(items), order)
	out := make([]model.Item, 0, len(items))
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

// MoveItem places draggedID at the hit target and returns a new slice. items
// must be in display order. ok is false for misses, self-hits and no-op moves.
//
// The target index is the hovered row's position before removal; the splice
// runs against the list after removal, so dragging down past a neighbour lands
// after it and dragging up lands before it.
func MoveItem(items []model.Item, order []string, draggedID string, t Target) ([]model.Item, bool) {
	di := indexOfItem(items, draggedID)
	if di < 0 {
		return nil, false
	}
	curGroup := model.GroupKey(items[di].Category, order)
	curIdx := positionInGroup(items, order, curGroup, draggedID)

	var tgtGroup string
	var tgtIdx int
	switch t.Kind {
	case TargetItem:
		if t.ItemID == draggedID {
			return nil, false
		}
		ti := indexOfItem(items, t.ItemID)
		if ti < 0 {
			return nil, false
		}
		tgtGroup = model.GroupKey(items[ti].Category, order)
		tgtIdx = positionInGroup(items, order, tgtGroup, t.ItemID)
	case TargetCategoryBody:
		tgtGroup = model.GroupKey(t.Category, order)
		tgtIdx = 0
		for _, it := range items {
			if it.ID != draggedID && model.GroupKey(it.Category, order) == tgtGroup {
				tgtIdx++
			}
		}
	default:
		return nil, false
	}
	if tgtGroup == curGroup && tgtIdx == curIdx {
		return nil, false
	}

	dragged := items[di]
	if tgtGroup != curGroup {
		dragged.Category = tgtGroup
	}
	rest := make([]model.Item, 0, len(items))
	rest = append(rest, items[:di]...)
	rest = append(rest, items[di+1:]...)

	var members []int
	for i, it := range rest {
		if model.GroupKey(it.Category, order) == tgtGroup {
			members = append(members, i)
		}
	}
	at := len(rest)
	switch {
	case len(members) == 0:
	case tgtIdx < len(members):
		at = members[tgtIdx]
	default:
		at = members[len(members)-1] + 1
	}

	out := make([]model.Item, 0, len(items))
	out = append(out, rest[:at]...)
	out = append(out, dragged)
	out = append(out, rest[at:]...)
	renumber(out, order, curGroup, tgtGroup)
	return out, true
}

// renumber sets dense orders on the named groups following slice position,
// so a renderer that sorts by order sees the provisional arrangement.
func renumber(items []model.Item, order []string, groups ...string) {
	for _, g := range groups {
		n := 0
		for i := range items {
			if model.GroupKey(items[i].Category, order) == g {
				items[i].Order = n
				n++
			}
		}
	}
}

// ItemBatches renumbers each named group of after to 0..n-1 and returns one
// batch per group whose persisted category or order differs from before,
// together with the renumbered items.
func ItemBatches(before, after []model.Item, order []string, groups ...string) ([]model.Batch, []model.Item) {
	prev := make(map[string]model.Item, len(before))
	for _, it := range before {
		prev[it.ID] = it
	}
	next := model.CloneItems(after)

	seen := map[string]bool{}
	var out []model.Batch
	for _, g := range groups {
		if seen[g] {
			continue
		}
		seen[g] = true

		var patches []model.ItemPatch
		dirty := false
		n := 0
		for i := range next {
			if model.GroupKey(next[i].Category, order) != g {
				continue
			}
			next[i].Order = n
			p := model.ItemPatch{ID: next[i].ID, Category: next[i].Category, Order: n}
			patches = append(patches, p)
			if old, ok := prev[p.ID]; !ok || old.Category != p.Category || old.Order != p.Order {
				dirty = true
			}
			n++
		}
		if dirty {
			out = append(out, model.Batch{Items: patches})
		}
	}
	return out, next
}

// reconcileItems drops provisional items that vanished from committed and
// appends committed items the session never saw at the end of their group.
// Kept items take their latest committed fields except for the category.
func reconcileItems(provisional, committed []model.Item, order []string) []model.Item {
	live := make(map[string]model.Item, len(committed))
	for _, it := range committed {
		live[it.ID] = it
	}
	have := make(map[string]bool, len(provisional))
	out := make([]model.Item, 0, len(committed))
	for _, it := range provisional {
		cur, ok := live[it.ID]
		if !ok {
			continue
		}
		have[it.ID] = true
		cur.Category = it.Category
		out = append(out, cur)
	}
	for _, it := range DisplayOrder(committed, order) {
		if have[it.ID] {
			continue
		}
		g := model.GroupKey(it.Category, order)
		at := len(out)
		for i := len(out) - 1; i >= 0; i-- {
			if model.GroupKey(out[i].Category, order) == g {
				at = i + 1
				break
			}
		}
		out = append(out, model.Item{})
		copy(out[at+1:], out[at:])
		out[at] = it
	}
	return out
}

func indexOfItem(items []model.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func positionInGroup(items []model.Item, order []string, group, id string) int {
	n := 0
	for _, it := range items {
		if model.GroupKey(it.Category, order) != group {
			continue
		}
		if it.ID == id {
			return n
		}
		n++
	}
	return -1
}
