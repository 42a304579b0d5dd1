package cli

import (
	"strings"

	"packlist/internal/model"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Category commands",
	}

	cmd.AddCommand(newCategoriesListCmd(app))
	cmd.AddCommand(newCategoriesAddCmd(app))
	cmd.AddCommand(newCategoriesRenameCmd(app))
	cmd.AddCommand(newCategoriesDeleteCmd(app))
	cmd.AddCommand(newCategoriesMoveCmd(app))

	return cmd
}

type categorySummary struct {
	Name    string `json:"name"`
	Checked int    `json:"checked"`
	Total   int    `json:"total"`
	// Implicit marks the Uncategorized fallback group, which is not in the order.
	Implicit bool `json:"implicit,omitempty"`
}

func newCategoriesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories in order with packing progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := loadState(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := []categorySummary{}
			for _, g := range model.GroupItems(st.Items, st.Settings.Categories) {
				c, n := model.Progress(g.Items)
				out = append(out, categorySummary{
					Name:     g.Name,
					Checked:  c,
					Total:    n,
					Implicit: g.Name == model.Uncategorized,
				})
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func newCategoriesAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Append a category to the order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := newList(app, s).AddCategory(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st.Categories})
		},
	}
}

func newCategoriesRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <from> <to>",
		Short: "Rename a category; its items follow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := newList(app, s).RenameCategory(cmd.Context(), args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"from": strings.TrimSpace(args[0]), "to": strings.TrimSpace(args[1]), "items": n},
			})
		},
	}
}

func newCategoriesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a category; its items fall to " + model.Uncategorized,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := newList(app, s).DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st.Categories})
		},
	}
}

func newCategoriesMoveCmd(app *App) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "move <name>",
		Short: "Move a category to a position (0-based) in the order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("index") {
				return writeErr(cmd, errNoSelection)
			}
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			order, err := newList(app, s).MoveCategory(cmd.Context(), strings.TrimSpace(args[0]), index)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": order})
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "Destination position; clamped to the order")
	return cmd
}
