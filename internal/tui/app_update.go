package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"packlist/internal/dnd"
	"packlist/internal/model"
	"packlist/internal/mutate"
)

const (
	wheelStep       = 3
	mutationTimeout = 5 * time.Second
)

func (m *appModel) Init() tea.Cmd {
	return nil
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		resized := m.width != 0 && (m.width != msg.Width || m.height != msg.Height)
		m.width, m.height = msg.Width, msg.Height
		if resized {
			m.engine.Interrupt("resize")
		}
		m.clampScroll(len(m.rows()))
		return m, nil

	case tea.BlurMsg:
		m.engine.Interrupt("focus lost")
		return m, nil

	case timerFiredMsg:
		if lc, ok := m.clock.(*loopClock); ok {
			lc.fire(msg.id)
		}
		return m, nil

	case committedMsg:
		m.applyState(msg.state)
		return m, nil

	case mutationDoneMsg:
		m.status, m.statusErr = msg.status, msg.err != nil
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		if msg.state != nil {
			if msg.follow != "" {
				m.follow = msg.follow
			}
			m.applyState(*msg.state)
			m.ensureCursorVisible(len(m.rows()))
		}
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// cellPoint maps a mouse cell to its center.
func cellPoint(msg tea.MouseMsg) dnd.Point {
	return dnd.Point{X: float64(msg.X) + 0.5, Y: float64(msg.Y) + 0.5}
}

func (m *appModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.adding {
		return nil
	}
	p := cellPoint(msg)
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		if m.engine.Capturing() {
			return nil
		}
		dy := float64(wheelStep)
		if msg.Button == tea.MouseButtonWheelUp {
			dy = -dy
		}
		m.ScrollBy(dy)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.engine.PressStart(p, dnd.PointerMouse)
	case msg.Action == tea.MouseActionMotion:
		if msg.Y < 0 || msg.Y >= m.height || msg.X < 0 || msg.X >= m.width {
			m.engine.LeaveScreen()
			return nil
		}
		m.engine.Move(p)
	case msg.Action == tea.MouseActionRelease:
		r := m.engine.Release(p)
		if r.Outcome == dnd.OutcomeTap {
			return m.tap(r.Target)
		}
	}
	return nil
}

// tap toggles an item or folds a category.
func (m *appModel) tap(t dnd.Target) tea.Cmd {
	switch t.Kind {
	case dnd.TargetItem:
		m.selectKey("item:" + t.ItemID)
		return m.toggleCmd(t.ItemID)
	case dnd.TargetCategoryBody:
		m.collapsed[t.Category] = !m.collapsed[t.Category]
		m.selectKey("cat:" + t.Category)
	}
	return nil
}

func (m *appModel) selectKey(k string) {
	for i, r := range m.rows() {
		if r.key() == k {
			m.cursor = i
			return
		}
	}
}

func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding {
		switch msg.Type {
		case tea.KeyEnter:
			// A new category would change the order a pressed header drags.
			if !m.engine.Idle() {
				return m, nil
			}
			text := m.input.Value()
			m.adding = false
			m.input.Reset()
			m.input.Blur()
			return m, m.quickAddCmd(text)
		case tea.KeyEsc:
			m.adding = false
			m.input.Reset()
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Cancel) {
		m.engine.Interrupt("escape")
		return m, nil
	}
	if key.Matches(msg, m.keys.Quit) {
		m.engine.Interrupt("quit")
		return m, tea.Quit
	}
	if !m.engine.Idle() {
		return m, nil
	}

	rows := m.rows()
	m.clampCursor(rows)
	var cur *row
	if m.cursor < len(rows) {
		cur = &rows[m.cursor]
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible(len(rows))
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
		m.ensureCursorVisible(len(rows))
	case key.Matches(msg, m.keys.Toggle):
		if cur == nil {
			return m, nil
		}
		if cur.kind == rowItem {
			return m, m.toggleCmd(cur.item.ID)
		}
		m.collapsed[cur.category] = !m.collapsed[cur.category]
	case key.Matches(msg, m.keys.Collapse):
		if cur != nil {
			m.collapsed[cur.category] = !m.collapsed[cur.category]
			m.selectKey("cat:" + cur.category)
		}
	case key.Matches(msg, m.keys.MoveUp):
		return m, m.moveCmd(rows, cur, -1)
	case key.Matches(msg, m.keys.MoveDown):
		return m, m.moveCmd(rows, cur, +1)
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.status = ""
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Trip):
		m.trip = nextTrip(m.settings.TripTypes, m.trip)
		rows := m.rows()
		m.clampCursor(rows)
		m.clampScroll(len(rows))
	case key.Matches(msg, m.keys.Reset):
		return m, m.mutation("", func(ctx context.Context) (string, error) {
			n, err := m.list.ResetChecks(ctx)
			return fmt.Sprintf("unpacked %d item(s)", n), err
		})
	}
	return m, nil
}

// nextTrip cycles all trips, then each trip type in order.
func nextTrip(types []string, cur string) string {
	if cur == "" {
		if len(types) == 0 {
			return ""
		}
		return types[0]
	}
	for i, t := range types {
		if t == cur && i+1 < len(types) {
			return types[i+1]
		}
	}
	return ""
}

// moveCmd shifts the row under the cursor one step within its group or the
// category order.
func (m *appModel) moveCmd(rows []row, cur *row, dir int) tea.Cmd {
	if cur == nil {
		return nil
	}
	if cur.kind == rowHeader {
		idx := -1
		for i, c := range m.settings.Categories {
			if c == cur.category {
				idx = i
			}
		}
		to := idx + dir
		if idx < 0 || to < 0 || to >= len(m.settings.Categories) {
			return nil
		}
		name := cur.category
		list := m.gatedList()
		return m.mutation("cat:"+name, func(ctx context.Context) (string, error) {
			_, err := list.MoveCategory(ctx, name, to)
			return "moved " + name, err
		})
	}

	var group []string
	for _, r := range rows {
		if r.kind == rowItem && r.category == cur.category {
			group = append(group, r.item.ID)
		}
	}
	idx := -1
	for i, id := range group {
		if id == cur.item.ID {
			idx = i
		}
	}
	to := idx + dir
	if idx < 0 || to < 0 || to >= len(group) {
		return nil
	}
	id, category := cur.item.ID, cur.category
	// With a trip filter some rows are hidden, so target the neighbour's
	// position among all items in the group.
	neighbour := group[to]
	list := m.gatedList()
	return m.mutation("item:"+id, func(ctx context.Context) (string, error) {
		st, err := m.store.Load(ctx)
		if err != nil {
			return "", err
		}
		pos := 0
		for _, it := range dnd.DisplayOrder(st.Items, st.Settings.Categories) {
			if model.GroupKey(it.Category, st.Settings.Categories) != category {
				continue
			}
			if it.ID == neighbour {
				break
			}
			pos++
		}
		_, err = list.MoveItem(ctx, id, category, pos)
		return "", err
	})
}

func (m *appModel) toggleCmd(id string) tea.Cmd {
	return m.mutation("item:"+id, func(ctx context.Context) (string, error) {
		it, err := m.list.ToggleItem(ctx, id)
		if err != nil {
			return "", err
		}
		if it.Checked {
			return "packed " + it.Name, nil
		}
		return "unpacked " + it.Name, nil
	})
}

func (m *appModel) quickAddCmd(text string) tea.Cmd {
	trips := []string(nil)
	if m.trip != "" {
		trips = []string{m.trip}
	}
	list := m.gatedList()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		it, res, err := list.QuickAdd(ctx, text, trips)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		status := fmt.Sprintf("added %s to %s", it.Name, it.Category)
		if res.IsNew {
			status += " (new category)"
		}
		return m.reload("item:"+it.ID, status)
	}
}

// mutation runs fn off the UI loop and reloads the store afterwards so the
// list reflects the edit without waiting for the watcher. fn must not touch the
// engine; handleKey checks it is idle before any edit is issued.
func (m *appModel) mutation(follow string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		status, err := fn(ctx)
		if err != nil {
			log.Warn("list edit failed", zap.Error(err))
			return mutationDoneMsg{err: err}
		}
		return m.reload(follow, status)
	}
}

// loopIdle is the engine's idle flag as read on the UI loop.
type loopIdle bool

func (g loopIdle) Idle() bool { return bool(g) }

// gatedList returns the list for an edit that runs off the loop. Its gate is
// the engine state when the edit was issued, never the live engine.
func (m *appModel) gatedList() mutate.List {
	l := m.list
	l.Gate = loopIdle(m.engine.Idle())
	return l
}

func (m *appModel) reload(follow, status string) tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
	defer cancel()
	st, err := m.store.Load(ctx)
	if err != nil {
		return mutationDoneMsg{err: err}
	}
	return mutationDoneMsg{status: status, state: &st, follow: follow}
}
