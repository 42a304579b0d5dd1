package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"packlist/internal/model"
)

type RenderOptions struct {
	// Title heads the document. Empty means "Packing list".
	Title string
	// Trip hides items tagged only with other trip types.
	Trip string
	// SortByName orders items alphabetically inside each group, the way the
	// shared view shows them.
	SortByName bool
	// HideEmpty skips categories with no visible items.
	HideEmpty bool
}

// RenderListMarkdown renders items grouped in category order with a progress
// line per group and for the whole list.
func RenderListMarkdown(items []model.Item, order []string, opt RenderOptions) string {
	visible := make([]model.Item, 0, len(items))
	for _, it := range items {
		if model.VisibleOnTrip(it, opt.Trip) {
			visible = append(visible, it)
		}
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(opt.Title)
	if title == "" {
		title = "Packing list"
	}
	writeLn("# " + title)
	writeLn("")

	checked, total := model.Progress(visible)
	summary := fmt.Sprintf("%d of %d packed", checked, total)
	if trip := strings.TrimSpace(opt.Trip); trip != "" {
		summary += " for " + trip
	}
	writeLn("_" + summary + "_")

	for _, g := range model.GroupItems(visible, order) {
		if len(g.Items) == 0 && opt.HideEmpty {
			continue
		}
		if opt.SortByName {
			sortByName(g.Items)
		}
		c, n := model.Progress(g.Items)
		writeLn("")
		writeLn(fmt.Sprintf("## %s (%d/%d)", escapeMarkdown(g.Name), c, n))
		writeLn("")
		if len(g.Items) == 0 {
			writeLn("_No items._")
			continue
		}
		for _, it := range g.Items {
			box := "[ ]"
			if it.Checked {
				box = "[x]"
			}
			line := "- " + box + " " + escapeMarkdown(it.Name)
			if len(it.TripTypes) > 0 {
				line += " _(" + strings.Join(it.TripTypes, ", ") + ")_"
			}
			writeLn(line)
		}
	}
	return buf.String()
}

func sortByName(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
	`#`, `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.TrimSpace(s))
}
