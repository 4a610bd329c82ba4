package layout

import (
	"slices"

	"github.com/matzehuels/rulemaker/pkg/geometry"
)

// Placement is the computed geometry of every step. It is a value: nothing
// changes it after [Place] returns, and [Placement.Translate] returns a
// shifted copy.
type Placement struct {
	ids      []string
	rects    map[string]geometry.Rect
	sides    map[string]geometry.Side
	mainFlow []string
}

// Rect returns the box of a step.
func (p Placement) Rect(id string) (geometry.Rect, bool) {
	r, ok := p.rects[id]
	return r, ok
}

// Side returns where a step sits relative to the main-flow line.
// Unknown ids report OnFlow.
func (p Placement) Side(id string) geometry.Side { return p.sides[id] }

// IDs returns the placed step ids in step order.
func (p Placement) IDs() []string { return slices.Clone(p.ids) }

// MainFlow returns the main-flow path the placement was built from.
func (p Placement) MainFlow() []string { return slices.Clone(p.mainFlow) }

// Len returns the number of placed steps.
func (p Placement) Len() int { return len(p.ids) }

// Bounds returns the bounding box of all step boxes.
func (p Placement) Bounds() geometry.Bounds {
	var b geometry.Bounds
	for _, id := range p.ids {
		b.AddRect(p.rects[id])
	}
	return b
}

// Translate returns a copy of p with every box moved by d.
func (p Placement) Translate(d geometry.Point) Placement {
	out := Placement{
		ids:      slices.Clone(p.ids),
		rects:    make(map[string]geometry.Rect, len(p.rects)),
		sides:    make(map[string]geometry.Side, len(p.sides)),
		mainFlow: slices.Clone(p.mainFlow),
	}
	for id, r := range p.rects {
		out.rects[id] = r.Translate(d)
	}
	for id, s := range p.sides {
		out.sides[id] = s
	}
	return out
}

// Normalize returns the translation that makes every step box and every
// edge waypoint non-negative. On each axis with a negative minimum the shift
// is |min| + margin; other axes are left alone.
func Normalize(p Placement, waypoints [][]geometry.Point, margin float64) geometry.Point {
	b := p.Bounds()
	for _, pts := range waypoints {
		for _, pt := range pts {
			b.AddPoint(pt)
		}
	}
	if b.Empty() {
		return geometry.Point{}
	}
	var d geometry.Point
	if b.MinX < 0 {
		d.X = -b.MinX + margin
	}
	if b.MinY < 0 {
		d.Y = -b.MinY + margin
	}
	return d
}
