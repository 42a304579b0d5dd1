package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newTripTypesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trip-types",
		Aliases: []string{"trips"},
		Short:   "Trip type commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List trip types",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := s.LoadSettings(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st.TripTypes})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a trip type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := newList(app, s).AddTripType(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st.TripTypes})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a trip type (items keep their tags)",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := newList(app, s).RemoveTripType(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": st.TripTypes})
		},
	})

	return cmd
}
