package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"go.uber.org/zap"

	"packlist/internal/dnd"
	"packlist/internal/model"
	"packlist/internal/mutate"
	"packlist/internal/store"
)

type Options struct {
	Store store.Store
	List  mutate.List
	// Committer receives drag batches. Run wires a store.AsyncWriter.
	Committer dnd.Committer
	Config    dnd.Config
	Logger    *zap.Logger
	Trip      string
	// ColorProfile is auto, ascii, ansi, ansi256 or truecolor.
	ColorProfile string
}

// listTop is the screen row of the first list line; row 0 is the title bar.
const listTop = 1

type appModel struct {
	store  store.Store
	list   mutate.List
	log    *zap.Logger
	clock  dnd.Clock
	engine *dnd.Engine
	keys   keyMap

	settings model.Settings
	loaded   bool

	width  int
	height int
	scroll float64
	// lead is blank rows above the list, only ever set by AnchorBy while a
	// category drag holds every group collapsed.
	lead float64

	collapsed map[string]bool
	cursor    int
	follow    string
	trip      string

	adding bool
	input  textinput.Model

	status    string
	statusErr bool
}

func newAppModel(opts Options, clock dnd.Clock) (*appModel, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	in := textinput.New()
	in.Placeholder = "e.g. phone charger, or Camping: tent"
	in.Prompt = "add: "
	in.CharLimit = 200

	m := &appModel{
		store:     opts.Store,
		list:      opts.List,
		log:       log,
		clock:     clock,
		keys:      defaultKeyMap(),
		collapsed: map[string]bool{},
		trip:      strings.TrimSpace(opts.Trip),
		input:     in,
	}
	eng, err := dnd.New(dnd.Options{
		Config:    opts.Config,
		Clock:     clock,
		Layout:    m.layout,
		Scroller:  m,
		Collapse:  m,
		Committer: opts.Committer,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	m.engine = eng
	return m, nil
}

func (m *appModel) CollapseSnapshot() map[string]bool {
	out := make(map[string]bool, len(m.collapsed))
	for k, v := range m.collapsed {
		out[k] = v
	}
	return out
}

func (m *appModel) SetCollapsed(flags map[string]bool) {
	m.collapsed = make(map[string]bool, len(flags))
	for k, v := range flags {
		m.collapsed[k] = v
	}
	m.lead = 0
	m.clampScroll(len(m.rows()))
}

// ScrollBy moves the list viewport, clamped to the content. Any lead is used
// up before the list itself scrolls.
func (m *appModel) ScrollBy(dy float64) {
	if m.lead > 0 {
		if dy < 0 {
			return
		}
		take := math.Min(dy, m.lead)
		m.lead -= take
		dy -= take
	}
	m.scroll += dy
	m.clampScroll(len(m.rows()))
}

// AnchorBy scrolls like ScrollBy, except that scrolling above the first row
// pads the list with blank lead rows.
func (m *appModel) AnchorBy(dy float64) {
	v := m.scroll - m.lead + dy
	m.scroll, m.lead = v, 0
	if v < 0 {
		m.scroll = 0
		m.lead = math.Min(-v, float64(m.listHeight()-1))
	}
	m.clampScroll(len(m.rows()))
}

func (m *appModel) clampScroll(nrows int) {
	hi := float64(nrows - m.listHeight())
	if hi < 0 {
		hi = 0
	}
	if m.scroll > hi {
		m.scroll = hi
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *appModel) scrollOffset(nrows int) int {
	off := int(m.scroll)
	if hi := nrows - m.listHeight(); off > hi {
		off = hi
	}
	if off < 0 {
		off = 0
	}
	return off
}

func (m *appModel) listHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// rows flattens what the engine currently shows: the provisional list during
// a drag, else the committed one.
func (m *appModel) rows() []row {
	st := m.engine.State()
	visible := make([]model.Item, 0, len(st.Items))
	for _, it := range st.Items {
		if model.VisibleOnTrip(it, m.trip) {
			visible = append(visible, it)
		}
	}
	var out []row
	for _, g := range model.GroupItems(visible, st.CategoryOrder) {
		c, n := model.Progress(g.Items)
		col := m.collapsed[g.Name]
		out = append(out, row{kind: rowHeader, category: g.Name, checked: c, total: n, collapsed: col})
		if col {
			continue
		}
		for _, it := range g.Items {
			out = append(out, row{kind: rowItem, category: g.Name, item: it})
		}
	}
	return out
}

// layout is recomputed from the engine's state and the scroll offset on every
// call, so hit tests always see the geometry the next frame will draw.
func (m *appModel) layout() dnd.Layout {
	rows := m.rows()
	off := m.scrollOffset(len(rows))
	w := float64(m.width)
	l := dnd.Layout{Viewport: dnd.Rect{X: 0, Y: listTop, W: w, H: float64(m.listHeight())}}
	for i, r := range rows {
		rect := dnd.Rect{X: 0, Y: float64(listTop + int(m.lead) + i - off), W: w, H: 1}
		if r.kind == rowHeader {
			l.Categories = append(l.Categories, dnd.CategoryRegion{Name: r.category, Rect: rect})
			continue
		}
		c := &l.Categories[len(l.Categories)-1]
		c.Rect.H++
		c.Items = append(c.Items, dnd.ItemRow{ID: r.item.ID, Rect: rect})
	}
	return l
}

func (m *appModel) clampCursor(rows []row) {
	if m.follow != "" {
		for i, r := range rows {
			if r.key() == m.follow {
				m.cursor = i
				break
			}
		}
		m.follow = ""
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ensureCursorVisible scrolls just enough to keep the cursor row on screen.
func (m *appModel) ensureCursorVisible(nrows int) {
	off := m.scrollOffset(nrows)
	h := m.listHeight()
	switch {
	case m.cursor < off:
		m.scroll = float64(m.cursor)
	case m.cursor >= off+h:
		m.scroll = float64(m.cursor - h + 1)
	}
	m.clampScroll(nrows)
}

func (m *appModel) applyState(st store.State) {
	m.settings = st.Settings
	m.loaded = true
	m.engine.SetCommitted(st.Items, st.Settings.Categories)
	rows := m.rows()
	m.clampCursor(rows)
	m.clampScroll(len(rows))
}
