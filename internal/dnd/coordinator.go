package dnd

import (
	"go.uber.org/zap"

	"packlist/internal/model"
)

// Committer accepts batches without blocking the caller. Each batch must be
// applied atomically; failures are the committer's to report.
type Committer interface {
	Submit(b model.Batch)
}

// CommitterFunc adapts a function to Committer.
type CommitterFunc func(b model.Batch)

func (f CommitterFunc) Submit(b model.Batch) { f(b) }

// Outcome is the terminal action a gesture resolved to.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeTap is a press released before the hold fired.
	OutcomeTap
	OutcomeCommitted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTap:
		return "tap"
	case OutcomeCommitted:
		return "committed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// coordinator issues the writes of a committed session.
type coordinator struct {
	committer Committer
	log       *zap.Logger
}

func (c coordinator) submit(kind SessionKind, batches []model.Batch) {
	n := 0
	for _, b := range batches {
		if b.Empty() {
			continue
		}
		if c.committer != nil {
			c.committer.Submit(b)
		}
		n++
	}
	c.log.Debug("drag committed", zap.Stringer("kind", kind), zap.Int("writes", n))
}
