package dnd

import "math"

type Point struct {
	X, Y float64
}

func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is half-open: it contains [X, X+W) x [Y, Y+H).
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

type ItemRow struct {
	ID   string
	Rect Rect
}

// CategoryRegion covers a category header and its rows. Items are in display order.
type CategoryRegion struct {
	Name  string
	Rect  Rect
	Items []ItemRow
}

// Layout is the rendered geometry the hit tester consults. Viewport bounds the
// scrollable list; points outside it never hit.
type Layout struct {
	Viewport   Rect
	Categories []CategoryRegion
}

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetItem
	TargetCategoryBody
)

// Target is what lies under a point. Category is the containing region for both kinds.
type Target struct {
	Kind     TargetKind
	ItemID   string
	Category string
}

func (t Target) IsNone() bool { return t.Kind == TargetNone }

// ResolveTarget returns the deepest region under p: an item row wins over its
// category body. A miss returns the zero Target.
func ResolveTarget(l Layout, p Point) Target {
	if !l.Viewport.Empty() && !l.Viewport.Contains(p) {
		return Target{}
	}
	for _, c := range l.Categories {
		if !c.Rect.Contains(p) {
			continue
		}
		for _, row := range c.Items {
			if row.Rect.Contains(p) {
				return Target{Kind: TargetItem, ItemID: row.ID, Category: c.Name}
			}
		}
		return Target{Kind: TargetCategoryBody, Category: c.Name}
	}
	return Target{}
}
