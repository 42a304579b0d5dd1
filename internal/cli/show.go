package cli

import (
	"io"
	"os"
	"strings"

	"packlist/internal/publish"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newShowCmd(app *App) *cobra.Command {
	var trip string
	var byName bool
	var hideEmpty bool
	var raw bool
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the list as Markdown (styled when stdout is a terminal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := loadState(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			opt := publish.RenderOptions{
				Trip:       strings.TrimSpace(trip),
				SortByName: byName,
				HideEmpty:  hideEmpty,
			}
			if strings.TrimSpace(to) != "" {
				res, err := publish.WriteList(st, to, publish.WriteOptions{Render: opt, Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}
			md := publish.RenderListMarkdown(st.Items, st.Settings.Categories, opt)
			return writeMarkdown(cmd.OutOrStdout(), md, raw)
		},
	}

	cmd.Flags().StringVar(&trip, "trip", "", "Only items packed for this trip type")
	cmd.Flags().BoolVar(&byName, "by-name", false, "Sort items by name inside each category")
	cmd.Flags().BoolVar(&hideEmpty, "hide-empty", false, "Skip categories with no items")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print plain Markdown even on a terminal")
	cmd.Flags().StringVar(&to, "to", "", "Write the Markdown to this file instead of stdout")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing --to file")
	return cmd
}

// writeMarkdown styles md with glamour when w is a terminal.
func writeMarkdown(w io.Writer, md string, raw bool) error {
	if f, ok := w.(*os.File); ok && !raw && term.IsTerminal(int(f.Fd())) {
		width := 80
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = cols
		}
		_, err := io.WriteString(w, publish.RenderTerminal(md, width, ""))
		return err
	}
	_, err := io.WriteString(w, md)
	return err
}
