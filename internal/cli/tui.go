package cli

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"packlist/internal/logging"
	"packlist/internal/model"
	"packlist/internal/store"
	"packlist/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type tuiOptions struct {
	Trip string
}

func newTUICmd(app *App) *cobra.Command {
	var opts tuiOptions

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive list with drag-and-drop reordering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Trip, "trip", "", "Start filtered to this trip type")
	return cmd
}

var errNoTerminal = errors.New("the TUI needs an interactive terminal; use `packlist show` or `packlist items list`")

func runTUI(cmd *cobra.Command, app *App, opts tuiOptions) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return writeErr(cmd, errNoTerminal)
	}
	s, err := loadStore(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	engineCfg, err := engineConfig(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	log, err := tuiLogger(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = log.Sync() }()

	writer := store.NewAsyncWriter(s, store.AsyncWriterOpts{
		Logger: log,
		OnApplied: func(b model.Batch, err error) {
			if err == nil {
				log.Debug("reorder saved", zap.Int("items", len(b.Items)), zap.Bool("categories", b.CategoryOrder != nil))
			}
		},
	})
	defer writer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	colorProfile := ""
	if app.cfg != nil {
		colorProfile = app.cfg.TUI.ColorProfile
	}
	err = tui.Run(ctx, tui.Options{
		Store:        s,
		List:         newList(app, s),
		Committer:    writer,
		Config:       engineCfg,
		Logger:       log,
		Trip:         opts.Trip,
		ColorProfile: colorProfile,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// tuiLogger writes to a file because the TUI owns the terminal.
func tuiLogger(app *App) (*zap.Logger, error) {
	file := ""
	level := app.LogLevel
	if app.cfg != nil {
		file = strings.TrimSpace(app.cfg.LogFile)
		if level == "" {
			level = app.cfg.LogLevel
		}
	}
	if file == "" {
		dir, err := store.ConfigDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		file = filepath.Join(dir, "packlist.log")
	}
	return logging.New(logging.Options{Level: level, File: file, Verbose: app.Verbose})
}
