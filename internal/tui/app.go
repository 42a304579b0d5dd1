package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"packlist/internal/model"
)

func (m *appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	rows := m.rows()
	off := m.scrollOffset(len(rows))
	h := m.listHeight()

	drag, dragging := m.engine.Drag()
	lead := int(m.lead)
	lines := make([]string, 0, h)
	for i := 0; i < lead; i++ {
		lines = append(lines, "")
	}
	for i := off; i < len(rows) && i < off+h-lead; i++ {
		r := rows[i]
		dragged := dragging && ((r.kind == rowItem && r.item.ID == drag.Subject) ||
			(r.kind == rowHeader && r.category == drag.Subject))
		lines = append(lines, m.renderRow(r, i == m.cursor && !dragging, dragged))
	}
	if len(rows) == 0 && m.loaded {
		lines = append(lines, styleMuted().Render("  Nothing to pack yet. Press a to add an item."))
	}
	body := normalizePane(strings.Join(lines, "\n"), m.width, h)
	return m.titleView(rows) + "\n" + body + "\n" + m.footerView()
}

func (m *appModel) titleView(rows []row) string {
	checked, total := 0, 0
	for _, r := range rows {
		if r.kind == rowHeader {
			checked += r.checked
			total += r.total
		}
	}
	parts := []string{"Packing list", fmt.Sprintf("%d/%d packed", checked, total)}
	if m.trip != "" {
		parts = append(parts, "trip: "+m.trip)
	}
	if st := m.engine.State(); st.Provisional {
		parts = append(parts, "moving…")
	}
	title := strings.Join(parts, "  "+glyphBullet()+"  ")
	return normalizePane(styleTitle().Render(title), m.width, 1)
}

func (m *appModel) footerView() string {
	if m.adding {
		return renderInputLine(m.width, m.input.View())
	}
	if m.status != "" {
		st := styleMuted()
		if m.statusErr {
			st = styleError()
		}
		return normalizePane(st.Render(m.status), m.width, 1)
	}
	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return normalizePane(styleMuted().Render(strings.Join(help, " · ")), m.width, 1)
}

func (m *appModel) renderRow(r row, selected, dragged bool) string {
	var text string
	var st lipgloss.Style
	switch r.kind {
	case rowHeader:
		twisty := glyphTwistyExpanded()
		if r.collapsed {
			twisty = glyphTwistyCollapsed()
		}
		text = fmt.Sprintf("%s %s (%d/%d)", twisty, r.category, r.checked, r.total)
		st = styleHeader()
	default:
		box := "[ ]"
		if r.item.Checked {
			box = "[x]"
		}
		text = "  " + box + " " + r.item.Name
		if len(r.item.TripTypes) > 0 {
			text += "  " + strings.Join(r.item.TripTypes, ", ")
		}
		st = lipgloss.NewStyle()
		if r.item.Checked {
			st = styleMuted()
		}
	}
	if r.kind == rowHeader && r.category == model.Uncategorized {
		st = st.Italic(true)
	}
	text = runewidth.Truncate(text, m.width, "…")
	switch {
	case dragged:
		st = styleDragged()
	case selected:
		st = styleSelected()
	}
	return st.Width(m.width).Render(text)
}
