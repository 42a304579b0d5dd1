package dnd

type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	default:
		return "idle"
	}
}

// classifier turns raw pointer samples into idle/pending/active for one gesture.
// It owns the hold timer; every path back to idle stops it.
type classifier struct {
	cfg   Config
	clock Clock

	phase     Phase
	pointer   PointerKind
	origin    Point
	current   Point
	subject   Target
	draggable bool

	hold Timer
	// gen invalidates a hold callback that was already queued when the timer stopped.
	gen uint64
}

func newClassifier(cfg Config, clock Clock) *classifier {
	return &classifier{cfg: cfg, clock: clock}
}

// press starts a pending gesture. Non-draggable subjects can still resolve to a tap.
func (c *classifier) press(p Point, k PointerKind, subject Target, draggable bool, onHold func()) bool {
	if c.phase != PhaseIdle {
		return false
	}
	c.gen++
	c.phase = PhasePending
	c.pointer = k
	c.origin = p
	c.current = p
	c.subject = subject
	c.draggable = draggable
	if draggable {
		gen := c.gen
		c.hold = c.clock.AfterFunc(c.cfg.holdFor(k), func() {
			if c.gen != gen || c.phase != PhasePending {
				return
			}
			c.hold = nil
			c.phase = PhaseActive
			onHold()
		})
	}
	return true
}

// move records the sample. It reports whether the move belongs to an active
// drag. A pending press that travels past the cancel distance is dropped.
func (c *classifier) move(p Point) bool {
	switch c.phase {
	case PhasePending:
		c.current = p
		if p.Dist(c.origin) > c.cfg.CancelDistance {
			c.reset()
		}
		return false
	case PhaseActive:
		c.current = p
		return true
	default:
		return false
	}
}

func (c *classifier) reset() {
	if c.hold != nil {
		c.hold.Stop()
		c.hold = nil
	}
	c.gen++
	c.phase = PhaseIdle
	c.subject = Target{}
	c.draggable = false
}
