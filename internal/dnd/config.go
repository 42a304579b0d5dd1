package dnd

import (
	"errors"
	"fmt"
	"time"
)

// PointerKind selects the timing profile of a gesture.
type PointerKind int

const (
	PointerMouse PointerKind = iota + 1
	PointerTouch
)

func (k PointerKind) String() string {
	switch k {
	case PointerMouse:
		return "mouse"
	case PointerTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// Config holds gesture thresholds. Distances share the unit of the host's
// coordinates (pixels on the web, cells in a terminal).
type Config struct {
	HoldMouse time.Duration
	// HoldTouch is longer so a touch press does not hijack page scrolling.
	HoldTouch time.Duration

	// CancelDistance is the displacement that turns a pending press into a scroll or tap.
	CancelDistance float64

	EdgeBand          float64
	MaxScrollPerFrame float64
	FrameInterval     time.Duration

	SwapDebounce time.Duration
}

func DefaultConfig() Config {
	return Config{
		HoldMouse:         150 * time.Millisecond,
		HoldTouch:         350 * time.Millisecond,
		CancelDistance:    12,
		EdgeBand:          80,
		MaxScrollPerFrame: 24,
		FrameInterval:     16 * time.Millisecond,
		SwapDebounce:      150 * time.Millisecond,
	}
}

// TerminalConfig is tuned for cell coordinates, where one unit is a whole row.
func TerminalConfig() Config {
	return Config{
		HoldMouse:         150 * time.Millisecond,
		HoldTouch:         350 * time.Millisecond,
		CancelDistance:    1.5,
		EdgeBand:          3,
		MaxScrollPerFrame: 1,
		FrameInterval:     60 * time.Millisecond,
		SwapDebounce:      150 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.HoldMouse <= 0 || c.HoldTouch <= 0 {
		return errors.New("hold durations must be positive")
	}
	if c.CancelDistance <= 0 {
		return errors.New("cancel distance must be positive")
	}
	if c.EdgeBand <= c.CancelDistance {
		return fmt.Errorf("edge band (%v) must exceed cancel distance (%v)", c.EdgeBand, c.CancelDistance)
	}
	if c.MaxScrollPerFrame <= 0 || c.FrameInterval <= 0 {
		return errors.New("auto-scroll speed and frame interval must be positive")
	}
	if c.SwapDebounce < 0 {
		return errors.New("swap debounce must not be negative")
	}
	return nil
}

func (c Config) holdFor(k PointerKind) time.Duration {
	if k == PointerTouch {
		return c.HoldTouch
	}
	return c.HoldMouse
}
