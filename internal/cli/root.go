package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"packlist/internal/classify"
	"packlist/internal/dnd"
	"packlist/internal/format"
	"packlist/internal/logging"
	"packlist/internal/mutate"
	"packlist/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Dir        string
	Workspace  string
	PrettyJSON bool
	Format     string
	RedisURL   string
	LogLevel   string
	Verbose    bool

	cfg *store.GlobalConfig
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "packlist",
		Short:        "Packing list manager (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  packlist

  # Scriptable commands
  packlist items list --trip Business
  packlist items quick "phone charger"

  # Direct item lookup (shortcut for: packlist items show <item-id>)
  packlist item-3f9a1c2e
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app, tuiOptions{})
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if app.RedisURL == "" {
			app.RedisURL = cfg.Share.RedisURL
		}
		level := app.LogLevel
		if level == "" {
			level = cfg.LogLevel
		}
		log, err := logging.New(logging.Options{Level: level, Verbose: app.Verbose})
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log = log
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.log != nil {
			_ = app.log.Sync()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("PACKLIST_DIR", ""), "Path to store dir (overrides workspace resolution; mainly for fixtures/tests)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("PACKLIST_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PACKLIST_FORMAT", "json"), "Output format (json)")
	cmd.PersistentFlags().StringVar(&app.RedisURL, "redis-url", envOr("PACKLIST_REDIS_URL", ""), "Redis URL for the share registry (default: workspace database)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newTripTypesCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newShareCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))

	return cmd
}

// loadStore resolves the store dir:
// 1) --dir
// 2) --workspace
// 3) currentWorkspace from config.yaml
// 4) the implicit "default" workspace
func loadStore(app *App) (store.Store, error) {
	dir := app.Dir
	if dir == "" {
		name := app.Workspace
		if name == "" && app.cfg != nil {
			name = app.cfg.CurrentWorkspace
		}
		if name == "" {
			name = "default"
		}
		d, err := store.WorkspaceDir(name)
		if err != nil {
			return store.Store{}, err
		}
		app.Workspace = name
		dir = d
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return store.Store{}, err
	}
	app.Dir = abs

	s := store.Store{Dir: abs}
	if err := s.Ensure(); err != nil {
		return s, fmt.Errorf("create store dir: %w", err)
	}
	return s, nil
}

func newList(app *App, s store.Store) mutate.List {
	var keywords map[string][]string
	if app.cfg != nil {
		keywords = app.cfg.Classifier.Keywords
	}
	return mutate.List{Store: s, Classifier: classify.NewKeyword(keywords)}
}

// engineConfig overlays the configured tuning on the terminal defaults.
func engineConfig(app *App) (dnd.Config, error) {
	c := dnd.TerminalConfig()
	if app.cfg == nil {
		return c, nil
	}
	e := app.cfg.Engine
	if e.HoldMouse > 0 {
		c.HoldMouse = e.HoldMouse
	}
	if e.HoldTouch > 0 {
		c.HoldTouch = e.HoldTouch
	}
	if e.CancelDistance > 0 {
		c.CancelDistance = e.CancelDistance
	}
	if e.EdgeBand > 0 {
		c.EdgeBand = e.EdgeBand
	}
	if e.MaxScrollPerFrame > 0 {
		c.MaxScrollPerFrame = e.MaxScrollPerFrame
	}
	if e.FrameInterval > 0 {
		c.FrameInterval = e.FrameInterval
	}
	if e.SwapDebounce > 0 {
		c.SwapDebounce = e.SwapDebounce
	}
	if err := c.Validate(); err != nil {
		return dnd.Config{}, fmt.Errorf("engine config: %w", err)
	}
	return c, nil
}

func logger(app *App) *zap.Logger {
	if app.log == nil {
		return zap.NewNop()
	}
	return app.log
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

var errNoSelection = errors.New("nothing to change; pass at least one flag")
