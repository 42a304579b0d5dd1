package publish

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

var (
	rendererMu sync.Mutex
	// Renderers are cached by style and width. glamour.WithAutoStyle can block
	// on terminal background queries, so the style is always fixed.
	renderers = map[string]*glamour.TermRenderer{}
)

// RenderTerminal renders Markdown for a terminal of the given width. style is
// light or dark; empty picks from PACKLIST_TUI_THEME. Rendering errors fall
// back to the plain Markdown.
func RenderTerminal(md string, width int, style string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	style = terminalStyle(style)
	key := style + ":" + strconv.Itoa(width)

	rendererMu.Lock()
	r := renderers[key]
	rendererMu.Unlock()

	if r == nil {
		cfg := styleConfig(style)
		zero := uint(0)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(cfg),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		rendererMu.Lock()
		if existing := renderers[key]; existing != nil {
			r = existing
		} else {
			renderers[key] = rr
			r = rr
		}
		rendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func styleConfig(style string) ansi.StyleConfig {
	if style == "light" {
		return styles.LightStyleConfig
	}
	return styles.DarkStyleConfig
}

func terminalStyle(style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("PACKLIST_TUI_THEME")), "light") {
		return "light"
	}
	return "dark"
}
