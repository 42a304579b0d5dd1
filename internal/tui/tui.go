// Package tui hosts the drag engine in a terminal: it renders the list,
// feeds mouse events to the engine and delivers its timers on the UI loop.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"packlist/internal/store"
)

// Run shows the list until the user quits or ctx ends. Store changes from any
// process are picked up by a watcher and handed to the engine.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyGlyphPreference()
	applyColorProfilePreference(opts.ColorProfile)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clock := newLoopClock(nil)
	m, err := newAppModel(opts, clock)
	if err != nil {
		return err
	}
	initial, err := opts.Store.Load(ctx)
	if err != nil {
		return err
	}
	m.applyState(initial)

	g, gctx := errgroup.WithContext(ctx)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(gctx),
	)
	clock.send = p.Send

	g.Go(func() error {
		err := opts.Store.Watch(gctx, log, 0, func(st store.State) {
			p.Send(committedMsg{state: st})
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}
