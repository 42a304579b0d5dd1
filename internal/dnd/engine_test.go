package dnd

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packlist/internal/model"
)

const rowH = 10

type fakeCollapse struct {
	flags map[string]bool
	sets  int
}

func (f *fakeCollapse) CollapseSnapshot() map[string]bool {
	out := make(map[string]bool, len(f.flags))
	for k, v := range f.flags {
		out[k] = v
	}
	return out
}

func (f *fakeCollapse) SetCollapsed(m map[string]bool) {
	f.sets++
	f.flags = make(map[string]bool, len(m))
	for k, v := range m {
		f.flags[k] = v
	}
}

type fakeScroller struct {
	offset float64
	calls  int
}

func (f *fakeScroller) ScrollBy(dy float64) {
	f.calls++
	f.offset += dy
}

type harness struct {
	t        *testing.T
	clock    *ManualClock
	eng      *Engine
	collapse *fakeCollapse
	scroll   *fakeScroller
	writes   []model.Batch
	previews int
	viewport Rect
	// fixed replaces the computed layout when set.
	fixed *Layout
}

func newHarness(t *testing.T, cfg Config, items []model.Item, order []string) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)),
		collapse: &fakeCollapse{flags: map[string]bool{}},
		scroll:   &fakeScroller{},
		viewport: Rect{X: 0, Y: 0, W: 100, H: 1000},
	}
	eng, err := New(Options{
		Config:    cfg,
		Clock:     h.clock,
		Layout:    h.layout,
		Scroller:  h.scroll,
		Collapse:  h.collapse,
		Committer: CommitterFunc(func(b model.Batch) { h.writes = append(h.writes, b) }),
		OnPreview: func(State) { h.previews++ },
	})
	require.NoError(t, err)
	eng.SetCommitted(items, order)
	h.eng = eng
	return h
}

// layout renders one header row per category followed by its rows unless
// collapsed, shifted by the scroll offset.
func (h *harness) layout() Layout {
	if h.fixed != nil {
		return *h.fixed
	}
	st := h.eng.State()
	l := Layout{Viewport: h.viewport}
	y := h.viewport.Y - h.scroll.offset
	for _, g := range model.GroupItems(st.Items, st.CategoryOrder) {
		top := y
		y += rowH
		region := CategoryRegion{Name: g.Name}
		if !h.collapse.flags[g.Name] {
			for _, it := range g.Items {
				region.Items = append(region.Items, ItemRow{ID: it.ID, Rect: Rect{X: 0, Y: y, W: 100, H: rowH}})
				y += rowH
			}
		}
		region.Rect = Rect{X: 0, Y: top, W: 100, H: y - top}
		l.Categories = append(l.Categories, region)
	}
	return l
}

// rowCenter finds the point over an item row or, for a category name, its header.
func (h *harness) rowCenter(key string) Point {
	h.t.Helper()
	for _, c := range h.layout().Categories {
		if c.Name == key {
			return Point{X: 50, Y: c.Rect.Y + rowH/2}
		}
		for _, r := range c.Items {
			if r.ID == key {
				return Point{X: 50, Y: r.Rect.Y + rowH/2}
			}
		}
	}
	h.t.Fatalf("no row for %q", key)
	return Point{}
}

// drag presses over key and holds until the session starts.
func (h *harness) drag(key string, k PointerKind) Point {
	h.t.Helper()
	p := h.rowCenter(key)
	require.True(h.t, h.eng.PressStart(p, k))
	h.clock.Advance(DefaultConfig().holdFor(k))
	require.Equal(h.t, PhaseActive, h.eng.Phase())
	return p
}

func item(id, category string, order int) model.Item {
	return model.Item{ID: id, Name: id, Category: category, Order: order}
}

func byID(items []model.Item) map[string]model.Item {
	out := make(map[string]model.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}

func TestEngine_ScenarioA_CategorySwap(t *testing.T) {
	items := []model.Item{item("shirt", "Clothes", 0), item("passport", "Docs", 0)}
	h := newHarness(t, DefaultConfig(), items, []string{"Clothes", "Docs"})
	h.collapse.flags = map[string]bool{"Clothes": false, "Docs": true}
	before := h.collapse.CollapseSnapshot()

	h.drag("Docs", PointerMouse)
	assert.True(t, h.collapse.flags["Clothes"], "categories collapse during the drag")

	h.eng.Move(h.rowCenter("Clothes"))
	require.Equal(t, []string{"Docs", "Clothes"}, h.eng.State().CategoryOrder)
	assert.True(t, h.eng.State().Provisional)

	res := h.eng.Release(h.rowCenter("Docs"))
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	require.Len(t, h.writes, 1)
	assert.Equal(t, []string{"Docs", "Clothes"}, h.writes[0].CategoryOrder)
	assert.Empty(t, h.writes[0].Items)
	assert.Equal(t, before, h.collapse.flags)
	assert.Equal(t, []string{"Docs", "Clothes"}, h.eng.State().CategoryOrder)
	assert.False(t, h.eng.State().Provisional)
	assert.Zero(t, h.clock.Pending())
}

func TestEngine_ScenarioB_ReorderWithinCategory(t *testing.T) {
	items := []model.Item{
		{ID: "toothbrush", Name: "Toothbrush", Category: "Toiletries", Order: 0, Checked: true},
		{ID: "razor", Name: "Razor", Category: "Toiletries", Order: 1},
	}
	h := newHarness(t, DefaultConfig(), items, []string{"Toiletries"})

	h.drag("razor", PointerMouse)
	h.eng.Move(h.rowCenter("toothbrush"))
	h.eng.Release(h.rowCenter("razor"))

	want := []model.Batch{{Items: []model.ItemPatch{
		{ID: "razor", Category: "Toiletries", Order: 0},
		{ID: "toothbrush", Category: "Toiletries", Order: 1},
	}}}
	if diff := cmp.Diff(want, h.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
	got := byID(h.eng.State().Items)
	assert.True(t, got["toothbrush"].Checked)
	assert.Equal(t, 0, got["razor"].Order)
	assert.Equal(t, 1, got["toothbrush"].Order)
}

func TestEngine_ScenarioC_DropOnCategoryBodyAppends(t *testing.T) {
	items := []model.Item{
		item("phone", "Electronics", 0),
		item("passport", "Documents", 0),
		item("visa", "Documents", 1),
	}
	h := newHarness(t, DefaultConfig(), items, []string{"Electronics", "Documents"})

	h.drag("phone", PointerTouch)
	h.eng.Move(h.rowCenter("Documents"))
	h.eng.Release(h.rowCenter("phone"))

	require.Len(t, h.writes, 1, "empty origin group needs no write")
	patches := map[string]model.ItemPatch{}
	for _, p := range h.writes[0].Items {
		patches[p.ID] = p
	}
	assert.Equal(t, model.ItemPatch{ID: "phone", Category: "Documents", Order: 2}, patches["phone"])
	assert.Equal(t, 0, patches["passport"].Order)
	assert.Equal(t, 1, patches["visa"].Order)
}

func TestEngine_ScenarioD_InterruptLeavesCommittedUntouched(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0), item("b", "Misc", 1), item("c", "Clothes", 0)}
	order := []string{"Clothes", "Misc"}
	h := newHarness(t, DefaultConfig(), items, order)
	before := h.eng.State()

	h.drag("b", PointerMouse)
	h.eng.Move(h.rowCenter("c"))
	require.True(t, h.eng.State().Provisional)

	h.eng.Interrupt("blur")
	h.eng.Interrupt("blur")

	assert.Empty(t, h.writes)
	assert.Equal(t, PhaseIdle, h.eng.Phase())
	after := h.eng.State()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("committed state changed (-before +after):\n%s", diff)
	}
	assert.Zero(t, h.clock.Pending())
}

func TestEngine_CategoryCancelRestoresCollapse(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil, []string{"A", "B"})
	h.collapse.flags = map[string]bool{"A": true}

	h.drag("B", PointerMouse)
	h.eng.Move(h.rowCenter("A"))
	h.eng.LeaveScreen()

	assert.Empty(t, h.writes)
	assert.Equal(t, map[string]bool{"A": true}, h.collapse.flags)
	assert.Equal(t, []string{"A", "B"}, h.eng.State().CategoryOrder)
}

func TestEngine_CategoryDragKeepsHeaderUnderPointer(t *testing.T) {
	items := []model.Item{item("a", "Clothes", 0), item("b", "Clothes", 1), item("c", "Clothes", 2)}
	order := []string{"Clothes", "Toiletries", "Electronics"}
	h := newHarness(t, DefaultConfig(), items, order)

	p := h.drag("Toiletries", PointerMouse)
	require.True(t, h.collapse.flags["Clothes"])
	assert.Equal(t, 40.0, h.rowCenter("Toiletries").Y-rowH/2, "header stays where it was pressed")

	h.eng.Move(Point{X: p.X + 10, Y: p.Y})
	assert.Equal(t, order, h.eng.State().CategoryOrder)

	h.eng.Release(Point{X: p.X + 10, Y: p.Y})
	require.Len(t, h.writes, 1)
	assert.Equal(t, order, h.writes[0].CategoryOrder)
	assert.False(t, h.collapse.flags["Clothes"])
	assert.Zero(t, h.scroll.offset, "expanding again undoes the anchor")
}

func TestEngine_CategoryUnderPointerAfterCollapseIsLocked(t *testing.T) {
	clock := NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	collapse := &fakeCollapse{flags: map[string]bool{}}
	var eng *Engine
	// No scroller: the groups collapse under a pointer that cannot be re-anchored.
	layout := func() Layout {
		l := Layout{Viewport: Rect{W: 100, H: 1000}}
		y := 0.0
		for _, name := range eng.State().CategoryOrder {
			h := rowH
			if name == "A" && !collapse.flags["A"] {
				h = 4 * rowH
			}
			l.Categories = append(l.Categories, CategoryRegion{Name: name, Rect: Rect{Y: y, W: 100, H: float64(h)}})
			y += float64(h)
		}
		return l
	}
	eng, err := New(Options{Config: DefaultConfig(), Clock: clock, Layout: layout, Collapse: collapse})
	require.NoError(t, err)
	order := []string{"A", "B", "C", "D", "E"}
	eng.SetCommitted(nil, order)

	require.True(t, eng.PressStart(Point{X: 50, Y: 45}, PointerMouse))
	clock.Advance(DefaultConfig().HoldMouse)
	require.Equal(t, PhaseActive, eng.Phase())

	eng.Move(Point{X: 52, Y: 45})
	assert.Equal(t, order, eng.State().CategoryOrder, "E slid under the pointer, it was not reached")

	eng.Move(Point{X: 50, Y: 15})
	eng.Move(Point{X: 50, Y: 25})
	assert.Equal(t, []string{"A", "C", "B", "D", "E"}, eng.State().CategoryOrder)
}

func TestEngine_HoldTiming(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	require.True(t, h.eng.PressStart(h.rowCenter("a"), PointerTouch))
	h.clock.Advance(200 * time.Millisecond)
	assert.Equal(t, PhasePending, h.eng.Phase(), "touch waits longer than mouse")
	h.clock.Advance(150 * time.Millisecond)
	assert.Equal(t, PhaseActive, h.eng.Phase())
	assert.True(t, h.eng.Capturing())
	h.eng.Interrupt("test")

	require.True(t, h.eng.PressStart(h.rowCenter("a"), PointerMouse))
	h.clock.Advance(149 * time.Millisecond)
	assert.Equal(t, PhasePending, h.eng.Phase())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, PhaseActive, h.eng.Phase())
}

func TestEngine_MoveBeyondCancelDistanceIsScroll(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0), item("b", "Misc", 1)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	p := h.rowCenter("a")
	require.True(t, h.eng.PressStart(p, PointerTouch))
	h.eng.Move(Point{X: p.X, Y: p.Y + 5})
	assert.Equal(t, PhasePending, h.eng.Phase(), "jitter keeps the press pending")
	h.eng.Move(Point{X: p.X, Y: p.Y + 20})
	assert.Equal(t, PhaseIdle, h.eng.Phase())
	assert.Zero(t, h.clock.Pending(), "hold timer cleared")

	h.clock.Advance(time.Second)
	assert.Equal(t, PhaseIdle, h.eng.Phase())
	assert.Empty(t, h.writes)
}

func TestEngine_ReleaseWhilePendingIsTap(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	p := h.rowCenter("a")
	require.True(t, h.eng.PressStart(p, PointerMouse))
	h.clock.Advance(50 * time.Millisecond)
	res := h.eng.Release(p)

	assert.Equal(t, OutcomeTap, res.Outcome)
	assert.Equal(t, Target{Kind: TargetItem, ItemID: "a", Category: "Misc"}, res.Target)
	assert.Zero(t, h.clock.Pending())
	assert.Empty(t, h.writes)
	assert.Equal(t, OutcomeNone, h.eng.Release(p).Outcome)
}

func TestEngine_UncategorizedHeaderOnlyTaps(t *testing.T) {
	items := []model.Item{item("old", "Gone", 0)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	p := h.rowCenter(model.Uncategorized)
	require.True(t, h.eng.PressStart(p, PointerMouse))
	h.clock.Advance(time.Second)
	assert.Equal(t, PhasePending, h.eng.Phase())
	res := h.eng.Release(p)
	assert.Equal(t, OutcomeTap, res.Outcome)
	assert.Equal(t, model.Uncategorized, res.Target.Category)
}

func TestEngine_SecondPressIgnored(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0), item("b", "Misc", 1)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	require.True(t, h.eng.PressStart(h.rowCenter("a"), PointerMouse))
	assert.False(t, h.eng.PressStart(h.rowCenter("b"), PointerTouch))
	h.clock.Advance(150 * time.Millisecond)
	d, ok := h.eng.Drag()
	require.True(t, ok)
	assert.Equal(t, "a", d.Subject)
	assert.Equal(t, PointerMouse, d.Pointer)
	assert.False(t, h.eng.PressStart(h.rowCenter("b"), PointerMouse))
}

func TestEngine_ReleaseRetargetsAtReleasePoint(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0), item("b", "Misc", 1), item("c", "Misc", 2)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	h.drag("c", PointerMouse)
	h.eng.Release(h.rowCenter("a"))

	require.Len(t, h.writes, 1)
	got := map[string]int{}
	for _, p := range h.writes[0].Items {
		got[p.ID] = p.Order
	}
	assert.Equal(t, map[string]int{"c": 0, "a": 1, "b": 2}, got)
}

func TestEngine_PressOnEmptySpaceIgnored(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil, []string{"Misc"})
	assert.False(t, h.eng.PressStart(Point{X: 50, Y: 900}, PointerMouse))
	assert.True(t, h.eng.Idle())
}

func TestEngine_MissKeepsProvisional(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0), item("b", "Misc", 1)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	h.drag("b", PointerMouse)
	h.eng.Move(h.rowCenter("a"))
	want := h.eng.State().Items
	h.eng.Move(Point{X: 50, Y: 900})
	assert.Equal(t, want, h.eng.State().Items)
}

func TestEngine_CategoryOscillationLock(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil, []string{"A", "B", "C"})
	// Geometry stays put across swaps, as when a tall region keeps the
	// pointer over the category it just traded places with.
	h.fixed = &Layout{
		Viewport: Rect{W: 100, H: 1000},
		Categories: []CategoryRegion{
			{Name: "A", Rect: Rect{Y: 0, W: 100, H: 10}},
			{Name: "B", Rect: Rect{Y: 10, W: 100, H: 10}},
			{Name: "C", Rect: Rect{Y: 20, W: 100, H: 10}},
		},
	}
	overA, overB := Point{X: 5, Y: 5}, Point{X: 5, Y: 15}

	require.True(t, h.eng.PressStart(overB, PointerMouse))
	h.clock.Advance(150 * time.Millisecond)

	h.eng.Move(overA)
	require.Equal(t, []string{"B", "A", "C"}, h.eng.State().CategoryOrder)

	h.clock.Advance(time.Second)
	h.eng.Move(overA)
	h.eng.Move(overA)
	assert.Equal(t, []string{"B", "A", "C"}, h.eng.State().CategoryOrder, "no repeat swap with A")

	h.eng.Move(overB)
	h.eng.Move(overA)
	assert.Equal(t, []string{"A", "B", "C"}, h.eng.State().CategoryOrder, "lock cleared after leaving A")
}

func TestEngine_CategorySwapDebounce(t *testing.T) {
	h := newHarness(t, DefaultConfig(), nil, []string{"A", "B", "C"})
	h.fixed = &Layout{
		Viewport: Rect{W: 100, H: 1000},
		Categories: []CategoryRegion{
			{Name: "A", Rect: Rect{Y: 0, W: 100, H: 10}},
			{Name: "B", Rect: Rect{Y: 10, W: 100, H: 10}},
			{Name: "C", Rect: Rect{Y: 20, W: 100, H: 10}},
		},
	}
	require.True(t, h.eng.PressStart(Point{X: 5, Y: 15}, PointerMouse))
	h.clock.Advance(150 * time.Millisecond)

	h.eng.Move(Point{X: 5, Y: 5})
	require.Equal(t, []string{"B", "A", "C"}, h.eng.State().CategoryOrder)

	h.clock.Advance(50 * time.Millisecond)
	h.eng.Move(Point{X: 5, Y: 25})
	assert.Equal(t, []string{"B", "A", "C"}, h.eng.State().CategoryOrder, "inside debounce window")

	h.clock.Advance(150 * time.Millisecond)
	h.eng.Move(Point{X: 5, Y: 25})
	assert.Equal(t, []string{"A", "C", "B"}, h.eng.State().CategoryOrder)
}

func TestEngine_UncategorizedNeverATarget(t *testing.T) {
	items := []model.Item{item("stale", "Gone", 0)}
	h := newHarness(t, DefaultConfig(), items, []string{"A", "B"})

	h.drag("B", PointerMouse)
	h.eng.Move(h.rowCenter(model.Uncategorized))
	h.eng.Release(h.rowCenter("B"))

	require.Len(t, h.writes, 1)
	assert.Equal(t, []string{"A", "B"}, h.writes[0].CategoryOrder, "full order written even when unchanged")
}

func TestEngine_ReconcilesConcurrentChanges(t *testing.T) {
	items := []model.Item{item("a", "Misc", 0), item("b", "Misc", 1), item("c", "Misc", 2)}
	h := newHarness(t, DefaultConfig(), items, []string{"Misc"})

	h.drag("c", PointerMouse)
	h.eng.Move(h.rowCenter("a"))

	// Another device deletes b and adds d while the drag is live.
	h.eng.SetCommitted([]model.Item{item("a", "Misc", 0), item("c", "Misc", 2), item("d", "Misc", 3)}, []string{"Misc"})
	h.eng.Release(h.rowCenter("c"))

	require.Len(t, h.writes, 1)
	var ids []string
	for _, p := range h.writes[0].Items {
		ids = append(ids, p.ID)
		assert.Equal(t, len(ids)-1, p.Order)
	}
	assert.Equal(t, []string{"c", "a", "d"}, ids)
}

func TestEngine_AutoScroll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EdgeBand = 20
	var items []model.Item
	for i := 0; i < 30; i++ {
		items = append(items, item(string(rune('a'+i)), "Misc", i))
	}
	h := newHarness(t, cfg, items, []string{"Misc"})
	h.viewport = Rect{X: 0, Y: 0, W: 100, H: 100}

	h.drag("b", PointerMouse)
	h.eng.Move(Point{X: 50, Y: 95})
	require.Equal(t, 1, h.clock.Pending(), "one frame timer")
	start := indexOfItem(h.eng.State().Items, "b")

	h.clock.Advance(4 * cfg.FrameInterval)
	assert.Equal(t, 4, h.scroll.calls)
	assert.Greater(t, h.scroll.offset, 0.0)
	assert.Equal(t, 1, h.clock.Pending())
	d, _ := h.eng.Drag()
	assert.Equal(t, "b", d.Subject)
	assert.Greater(t, indexOfItem(h.eng.State().Items, "b"), start, "scrolling re-targets under a stationary pointer")

	h.eng.Move(Point{X: 50, Y: 50})
	assert.Zero(t, h.clock.Pending(), "leaving the band stops the loop")
	calls := h.scroll.calls
	h.clock.Advance(time.Second)
	assert.Equal(t, calls, h.scroll.calls)

	h.eng.Move(Point{X: 50, Y: 2})
	require.Equal(t, 1, h.clock.Pending())
	h.eng.Release(Point{X: 50, Y: 2})
	assert.Zero(t, h.clock.Pending(), "ending the session stops the loop")
}

func TestEngine_RandomDragsKeepIdentityAndDenseOrders(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	order := []string{"Clothes", "Toiletries", "Electronics"}
	var items []model.Item
	for i := 0; i < 12; i++ {
		it := item(string(rune('a'+i)), order[i%3], i/3)
		it.Checked = i%2 == 0
		items = append(items, it)
	}
	h := newHarness(t, DefaultConfig(), items, order)
	orig := byID(items)

	for round := 0; round < 25; round++ {
		st := h.eng.State()
		subject := st.Items[rng.Intn(len(st.Items))].ID
		h.drag(subject, PointerMouse)
		bottom := h.layout().Categories[len(order)-1].Rect
		for i := 0; i < 6; i++ {
			h.eng.Move(Point{X: 50, Y: float64(rng.Intn(int(bottom.Y + bottom.H)))})
		}
		h.eng.Release(Point{})

		got := h.eng.State().Items
		require.Len(t, got, len(items))
		for _, it := range got {
			o := orig[it.ID]
			assert.Equal(t, o.Name, it.Name)
			assert.Equal(t, o.Checked, it.Checked)
		}
		for _, g := range model.GroupItems(got, order) {
			for i, it := range g.Items {
				assert.Equal(t, i, it.Order, "round %d group %s", round, g.Name)
			}
		}
	}
	for _, b := range h.writes {
		assert.Nil(t, b.CategoryOrder)
		assert.NotEmpty(t, b.Items)
	}
}

func TestNew_Validates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EdgeBand = cfg.CancelDistance
	_, err := New(Options{Config: cfg, Clock: NewManualClock(time.Time{}), Layout: func() Layout { return Layout{} }})
	require.Error(t, err)

	_, err = New(Options{Config: DefaultConfig(), Layout: func() Layout { return Layout{} }})
	require.Error(t, err)
}
