package dnd

// Scroller moves the host viewport. Positive dy scrolls toward the bottom.
type Scroller interface {
	ScrollBy(dy float64)
}

// Anchorer is an optional Scroller extension. AnchorBy shifts the content like
// ScrollBy but may leave blank space above the first row, so a held header can
// keep its screen position when the groups around it collapse.
type Anchorer interface {
	AnchorBy(dy float64)
}

// autoScroller scrolls on a frame cadence while the pointer sits in an edge
// band. At most one frame timer is live; stop cancels it.
type autoScroller struct {
	cfg      Config
	clock    Clock
	scroller Scroller
	onStep   func()

	velocity float64
	frame    Timer
	gen      uint64
}

func newAutoScroller(cfg Config, clock Clock, s Scroller, onStep func()) *autoScroller {
	return &autoScroller{cfg: cfg, clock: clock, scroller: s, onStep: onStep}
}

// Velocity maps a pointer position to a signed scroll speed: negative inside
// the top band, positive inside the bottom band, proportional to how close the
// pointer is to the edge and capped at the configured maximum.
func Velocity(cfg Config, pointerY, viewportHeight float64) float64 {
	band := cfg.EdgeBand
	if band <= 0 || viewportHeight <= 0 {
		return 0
	}
	if band*2 > viewportHeight {
		band = viewportHeight / 2
	}
	speed := func(dist float64) float64 {
		if dist < 0 {
			dist = 0
		}
		v := cfg.MaxScrollPerFrame * (1 - dist/band)
		if v > cfg.MaxScrollPerFrame {
			v = cfg.MaxScrollPerFrame
		}
		return v
	}
	switch {
	case pointerY < band:
		return -speed(pointerY)
	case pointerY >= viewportHeight-band:
		return speed(viewportHeight - pointerY - 1)
	default:
		return 0
	}
}

func (a *autoScroller) evaluate(pointerY, viewportHeight float64) {
	if a == nil || a.scroller == nil {
		return
	}
	a.velocity = Velocity(a.cfg, pointerY, viewportHeight)
	if a.velocity == 0 {
		a.stop()
		return
	}
	if a.frame == nil {
		a.schedule()
	}
}

func (a *autoScroller) schedule() {
	gen := a.gen
	a.frame = a.clock.AfterFunc(a.cfg.FrameInterval, func() {
		if gen != a.gen {
			return
		}
		a.frame = nil
		if a.velocity == 0 {
			return
		}
		a.scroller.ScrollBy(a.velocity)
		if a.onStep != nil {
			a.onStep()
		}
		if a.velocity != 0 && a.frame == nil && gen == a.gen {
			a.schedule()
		}
	})
}

func (a *autoScroller) stop() {
	if a == nil {
		return
	}
	a.velocity = 0
	a.gen++
	if a.frame != nil {
		a.frame.Stop()
		a.frame = nil
	}
}

func (a *autoScroller) running() bool {
	return a != nil && a.frame != nil
}
