package cli

import (
	"context"
	"fmt"
	"strings"

	"packlist/internal/dnd"
	"packlist/internal/model"
	"packlist/internal/store"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Item commands",
	}

	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsQuickCmd(app))
	cmd.AddCommand(newItemsEditCmd(app))
	cmd.AddCommand(newItemsSetCheckedCmd(app, "check", true))
	cmd.AddCommand(newItemsSetCheckedCmd(app, "uncheck", false))
	cmd.AddCommand(newItemsToggleCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsResetCmd(app))

	return cmd
}

type progressMeta struct {
	Checked int    `json:"checked"`
	Total   int    `json:"total"`
	Trip    string `json:"trip,omitempty"`
}

func newItemsListCmd(app *App) *cobra.Command {
	var trip string
	var category string
	var unchecked bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in display order (category order, then item order)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := s.Load(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			trip = strings.TrimSpace(trip)
			category = strings.TrimSpace(category)

			out := make([]model.Item, 0, len(st.Items))
			for _, it := range dnd.DisplayOrder(st.Items, st.Settings.Categories) {
				if !model.VisibleOnTrip(it, trip) {
					continue
				}
				if category != "" && model.GroupKey(it.Category, st.Settings.Categories) != category {
					continue
				}
				if unchecked && it.Checked {
					continue
				}
				out = append(out, it)
			}
			checked, total := 0, 0
			for _, it := range st.Items {
				if model.VisibleOnTrip(it, trip) {
					total++
					if it.Checked {
						checked++
					}
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": progressMeta{Checked: checked, Total: total, Trip: trip},
			})
		},
	}

	cmd.Flags().StringVar(&trip, "trip", "", "Only items packed for this trip type (items without trip types always show)")
	cmd.Flags().StringVar(&category, "category", "", "Only items in this category")
	cmd.Flags().BoolVar(&unchecked, "unchecked", false, "Only items not yet packed")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			it, err := s.GetItem(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, itemErr(err, id))
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
}

func newItemsAddCmd(app *App) *cobra.Command {
	var category string
	var trips []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item to a category (default: the first category)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := newList(app, s).AddItem(cmd.Context(), strings.Join(args, " "), category, trips)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   it,
				"_hints": []string{"packlist items show " + it.ID},
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category name")
	cmd.Flags().StringSliceVar(&trips, "trip", nil, "Trip type (repeatable)")
	return cmd
}

func newItemsQuickCmd(app *App) *cobra.Command {
	var trips []string

	cmd := &cobra.Command{
		Use:   "quick <text>",
		Short: "Add an item and let the classifier pick its category (\"Camping: tent\" names one)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, res, err := newList(app, s).QuickAdd(cmd.Context(), strings.Join(args, " "), trips)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": it,
				"meta": map[string]any{"category": res.Category, "newCategory": res.IsNew},
			})
		},
	}

	cmd.Flags().StringSliceVar(&trips, "trip", nil, "Trip type (repeatable)")
	return cmd
}

func newItemsEditCmd(app *App) *cobra.Command {
	var name string
	var category string
	var trips []string
	var clearTrips bool

	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Rename an item, move it to another category, or set its trip types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var up store.ItemUpdate
			if cmd.Flags().Changed("name") {
				up.Name = &name
			}
			if cmd.Flags().Changed("category") {
				up.Category = &category
			}
			switch {
			case clearTrips:
				empty := []string{}
				up.TripTypes = &empty
			case cmd.Flags().Changed("trip"):
				up.TripTypes = &trips
			}
			if up.Name == nil && up.Category == nil && up.TripTypes == nil {
				return writeErr(cmd, errNoSelection)
			}

			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := newList(app, s).UpdateItem(cmd.Context(), strings.TrimSpace(args[0]), up)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&category, "category", "", "New category (appended at the end)")
	cmd.Flags().StringSliceVar(&trips, "trip", nil, "Trip types (replaces the current set; repeatable)")
	cmd.Flags().BoolVar(&clearTrips, "clear-trips", false, "Remove all trip types (item shows on every trip)")
	return cmd
}

func newItemsSetCheckedCmd(app *App, use string, checked bool) *cobra.Command {
	short := "Mark an item packed"
	if !checked {
		short = "Mark an item not packed"
	}
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if err := s.SetChecked(cmd.Context(), id, checked); err != nil {
				return writeErr(cmd, itemErr(err, id))
			}
			it, err := s.GetItem(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, itemErr(err, id))
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
}

func newItemsToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Flip an item between packed and not packed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := newList(app, s).ToggleItem(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
}

func newItemsMoveCmd(app *App) *cobra.Command {
	var category string
	var index int

	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Move an item to a position (0-based) within a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("index") && !cmd.Flags().Changed("category") {
				return writeErr(cmd, errNoSelection)
			}
			if !cmd.Flags().Changed("index") {
				index = -1
			}
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			batches, err := newList(app, s).MoveItem(cmd.Context(), id, category, index)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := s.GetItem(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, itemErr(err, id))
			}
			writes := 0
			for _, b := range batches {
				writes += len(b.Items)
			}
			return writeOut(cmd, app, map[string]any{
				"data": it,
				"meta": map[string]any{"writes": writes},
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Destination category (default: the item's own)")
	cmd.Flags().IntVar(&index, "index", 0, "Destination position; past the end appends")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <item-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if err := newList(app, s).DeleteItem(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
		},
	}
}

func newItemsResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Mark every item not packed",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := newList(app, s).ResetChecks(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"reset": n}})
		},
	}
}

// loadState is the common read for commands that render the whole list.
func loadState(ctx context.Context, app *App) (store.Store, store.State, error) {
	s, err := loadStore(app)
	if err != nil {
		return s, store.State{}, err
	}
	st, err := s.Load(ctx)
	if err != nil {
		return s, store.State{}, fmt.Errorf("load list: %w", err)
	}
	return s, st, nil
}
