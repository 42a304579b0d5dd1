// Package dnd is the drag-and-reorder engine: it classifies pointer input,
// keeps a provisional ordering while a drag is live and turns the final
// ordering into atomic store batches.
//
// The engine is not safe for concurrent use. Every method and every Clock
// callback must run on the host's event loop.
package dnd

import (
	"errors"

	"go.uber.org/zap"

	"packlist/internal/model"
)

type SessionKind int

const (
	SessionItem SessionKind = iota + 1
	SessionCategory
)

func (k SessionKind) String() string {
	switch k {
	case SessionItem:
		return "item"
	case SessionCategory:
		return "category"
	default:
		return "none"
	}
}

// DragInfo describes the live session.
type DragInfo struct {
	Kind    SessionKind
	Subject string
	Pointer PointerKind
	Origin  Point
	Current Point
}

// State is what the renderer draws. Items and CategoryOrder are never
// mutated after publication; each update replaces them.
type State struct {
	Items         []model.Item
	CategoryOrder []string
	Provisional   bool
	Drag          *DragInfo
}

// Release is the result of a pointer release.
type Release struct {
	Outcome Outcome
	// Target is the pressed subject for taps.
	Target Target
}

type Options struct {
	Config Config
	Clock  Clock
	// Layout returns the geometry of the most recent render.
	Layout func() Layout
	// Scroller is optional; without it there is no auto-scroll.
	Scroller  Scroller
	Collapse  CollapseState
	Committer Committer
	Logger    *zap.Logger

	OnDragStart func(DragInfo)
	// OnPreview receives every published state change.
	OnPreview func(State)
}

type Engine struct {
	cfg       Config
	clock     Clock
	layout    func() Layout
	collapse  CollapseState
	host      Scroller
	coord     coordinator
	log       *zap.Logger
	onStart   func(DragInfo)
	onPreview func(State)

	cls      *classifier
	scroller *autoScroller

	items []model.Item
	order []string

	itemSess *itemSession
	catSess  *categorySession
}

func New(opts Options) (*Engine, error) {
	if opts.Clock == nil {
		return nil, errors.New("dnd: missing clock")
	}
	if opts.Layout == nil {
		return nil, errors.New("dnd: missing layout source")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		cfg:       opts.Config,
		clock:     opts.Clock,
		layout:    opts.Layout,
		collapse:  opts.Collapse,
		host:      opts.Scroller,
		coord:     coordinator{committer: opts.Committer, log: log},
		log:       log,
		onStart:   opts.OnDragStart,
		onPreview: opts.OnPreview,
	}
	e.cls = newClassifier(opts.Config, opts.Clock)
	if opts.Scroller != nil {
		e.scroller = newAutoScroller(opts.Config, opts.Clock, opts.Scroller, e.afterScroll)
	}
	return e, nil
}

// SetCommitted replaces Committed State, typically from a store subscription.
// A live session keeps its provisional state and reconciles on finalize.
func (e *Engine) SetCommitted(items []model.Item, order []string) {
	e.items = model.CloneItems(items)
	e.order = model.CloneStrings(order)
	if e.itemSess == nil && e.catSess == nil {
		e.publish()
	}
}

func (e *Engine) State() State {
	st := State{Items: e.items, CategoryOrder: e.order}
	if e.itemSess != nil {
		st.Items = e.itemSess.items
		st.Provisional = true
	}
	if e.catSess != nil {
		st.CategoryOrder = e.catSess.order
		st.Provisional = true
	}
	if d, ok := e.Drag(); ok {
		st.Drag = &d
	}
	return st
}

func (e *Engine) Phase() Phase { return e.cls.phase }

// Idle reports whether no gesture is pending or active. Committed-State-only
// operations such as renaming a category require it.
func (e *Engine) Idle() bool { return e.cls.phase == PhaseIdle }

// Capturing reports whether the host must suppress native scroll and selection.
func (e *Engine) Capturing() bool { return e.cls.phase == PhaseActive }

func (e *Engine) Drag() (DragInfo, bool) {
	if e.cls.phase != PhaseActive {
		return DragInfo{}, false
	}
	d := DragInfo{Pointer: e.cls.pointer, Origin: e.cls.origin, Current: e.cls.current}
	switch {
	case e.itemSess != nil:
		d.Kind, d.Subject = SessionItem, e.itemSess.draggedID
	case e.catSess != nil:
		d.Kind, d.Subject = SessionCategory, e.catSess.dragged
	default:
		return DragInfo{}, false
	}
	return d, true
}

// PressStart begins a pending gesture on whatever lies under p. A press while
// another gesture is pending or active is ignored.
func (e *Engine) PressStart(p Point, k PointerKind) bool {
	if e.cls.phase != PhaseIdle {
		return false
	}
	t := ResolveTarget(e.layout(), p)
	if t.IsNone() {
		return false
	}
	draggable := true
	if t.Kind == TargetCategoryBody && (t.Category == model.Uncategorized || indexOfString(e.order, t.Category) < 0) {
		draggable = false
	}
	return e.cls.press(p, k, t, draggable, e.startSession)
}

func (e *Engine) Move(p Point) {
	if !e.cls.move(p) {
		return
	}
	e.track(p)
	if e.scroller != nil {
		l := e.layout()
		e.scroller.evaluate(p.Y-l.Viewport.Y, l.Viewport.H)
	}
}

// Release ends the gesture: an active drag commits, a pending press is a tap.
func (e *Engine) Release(p Point) Release {
	switch e.cls.phase {
	case PhaseActive:
		e.cls.current = p
		e.track(p)
		e.finish(true, "release")
		return Release{Outcome: OutcomeCommitted}
	case PhasePending:
		t := e.cls.subject
		e.cls.reset()
		return Release{Outcome: OutcomeTap, Target: t}
	default:
		return Release{}
	}
}

// LeaveScreen is a release that never commits.
func (e *Engine) LeaveScreen() {
	e.Interrupt("pointer left")
}

// Interrupt cancels any gesture. It is idempotent and issues no writes.
func (e *Engine) Interrupt(reason string) {
	switch e.cls.phase {
	case PhaseActive:
		e.finish(false, reason)
	case PhasePending:
		e.cls.reset()
	}
}

func (e *Engine) startSession() {
	t := e.cls.subject
	switch t.Kind {
	case TargetItem:
		s, ok := newItemSession(t.ItemID, e.items, e.order)
		if !ok {
			e.cls.reset()
			return
		}
		e.itemSess = s
	case TargetCategoryBody:
		s, ok := newCategorySession(t.Category, e.order)
		if !ok {
			e.cls.reset()
			return
		}
		e.catSess = s
		if e.collapse != nil {
			s.collapse = e.collapse.CollapseSnapshot()
			all := make(map[string]bool, len(e.order)+1)
			for _, c := range e.order {
				all[c] = true
			}
			all[model.Uncategorized] = true
			e.setCollapsed(all, s.dragged)
			// A host that could not keep the header under the pointer leaves
			// some other category there; it only becomes a target once the
			// pointer has left it.
			if u := ResolveTarget(e.layout(), e.cls.current); u.Kind == TargetCategoryBody && u.Category != s.dragged {
				s.lastSwapTarget = u.Category
			}
		}
	default:
		e.cls.reset()
		return
	}
	d, _ := e.Drag()
	e.log.Debug("drag started",
		zap.Stringer("kind", d.Kind),
		zap.String("subject", d.Subject),
		zap.Stringer("pointer", d.Pointer))
	if e.onStart != nil {
		e.onStart(d)
	}
	e.publish()
}

// setCollapsed applies flags, then scrolls so the header of anchor keeps the
// screen position it had before.
func (e *Engine) setCollapsed(flags map[string]bool, anchor string) {
	before, ok := e.headerY(anchor)
	e.collapse.SetCollapsed(flags)
	if !ok || e.host == nil {
		return
	}
	after, ok := e.headerY(anchor)
	if !ok || after == before {
		return
	}
	if a, ok := e.host.(Anchorer); ok {
		a.AnchorBy(after - before)
		return
	}
	e.host.ScrollBy(after - before)
}

func (e *Engine) headerY(name string) (float64, bool) {
	for _, c := range e.layout().Categories {
		if c.Name == name {
			return c.Rect.Y, true
		}
	}
	return 0, false
}

func (e *Engine) track(p Point) {
	t := ResolveTarget(e.layout(), p)
	if t.IsNone() {
		return
	}
	changed := false
	switch {
	case e.itemSess != nil:
		changed = e.itemSess.move(t)
	case e.catSess != nil:
		changed = e.catSess.move(t, e.clock.Now(), e.cfg.SwapDebounce)
	}
	if changed {
		e.publish()
	}
}

func (e *Engine) afterScroll() {
	if e.cls.phase != PhaseActive {
		return
	}
	e.track(e.cls.current)
	e.publish()
}

// finish runs the single terminal action of the live session.
func (e *Engine) finish(commit bool, reason string) {
	is, cs := e.itemSess, e.catSess
	e.itemSess, e.catSess = nil, nil
	e.scroller.stop()
	e.cls.reset()

	switch {
	case is != nil && commit:
		final := reconcileItems(is.items, e.items, e.order)
		is.items = final
		batches, next := ItemBatches(e.items, final, e.order, is.originGroup, is.finalGroup())
		e.items = next
		e.coord.submit(SessionItem, batches)
	case cs != nil && commit:
		final := reconcileOrder(cs.order, e.order)
		e.order = final
		e.coord.submit(SessionCategory, []model.Batch{{CategoryOrder: model.CloneStrings(final)}})
	case is != nil || cs != nil:
		e.log.Debug("drag cancelled", zap.String("reason", reason))
	}
	if cs != nil && cs.collapse != nil && e.collapse != nil {
		e.setCollapsed(cs.collapse, cs.dragged)
	}
	e.publish()
}

func (e *Engine) publish() {
	if e.onPreview != nil {
		e.onPreview(e.State())
	}
}
