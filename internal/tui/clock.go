package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"packlist/internal/dnd"
)

type timerFiredMsg struct {
	id uint64
}

// loopClock delivers timer callbacks as messages so they run inside Update,
// on the same goroutine as pointer events. Its methods other than the
// time.AfterFunc goroutines must only be called from the UI loop.
type loopClock struct {
	send    func(tea.Msg)
	next    uint64
	pending map[uint64]func()
}

func newLoopClock(send func(tea.Msg)) *loopClock {
	return &loopClock{send: send, pending: map[uint64]func(){}}
}

func (c *loopClock) Now() time.Time { return time.Now() }

func (c *loopClock) AfterFunc(d time.Duration, f func()) dnd.Timer {
	c.next++
	id := c.next
	c.pending[id] = f
	send := c.send
	t := time.AfterFunc(d, func() { send(timerFiredMsg{id: id}) })
	return &loopTimer{clock: c, id: id, t: t}
}

// fire runs the callback for id unless it was stopped.
func (c *loopClock) fire(id uint64) {
	f, ok := c.pending[id]
	if !ok {
		return
	}
	delete(c.pending, id)
	f()
}

type loopTimer struct {
	clock *loopClock
	id    uint64
	t     *time.Timer
}

func (t *loopTimer) Stop() bool {
	t.t.Stop()
	if _, ok := t.clock.pending[t.id]; !ok {
		return false
	}
	delete(t.clock.pending, t.id)
	return true
}
