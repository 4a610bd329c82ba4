// Package layout positions the steps of a rule on a two-dimensional canvas.
//
// Main steps sit on one horizontal line in main-flow order. Sub-steps hang
// off the step that references them: a sub-step that points back at its
// parent goes directly below it, other sub-steps go to the right of the
// parent and alternate above and below the parent's row. A final pass pulls
// near-vertical connections into exact vertical alignment.
//
// [Place] always starts from scratch; the same rule and options give the
// same placement.
package layout

import (
	"math"

	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/rule"
	"github.com/matzehuels/rulemaker/pkg/topology"
)

// Place computes the placement of every step of r.
//
// mainFlow is the main-flow path (see [topology.MainFlowPath]) and pairs
// the bidirectional pairs of r. The result is not yet normalised: it may
// contain negative coordinates until [Normalize] has been applied.
func Place(r *rule.Rule, mainFlow []string, pairs []topology.Pair, opts Options) Placement {
	p := Placement{
		rects:    make(map[string]geometry.Rect, len(r.Steps)),
		sides:    make(map[string]geometry.Side, len(r.Steps)),
		mainFlow: append([]string(nil), mainFlow...),
	}

	// Phase 1: size every step, then lay the main flow out on one line.
	placed := make(map[string]bool, len(r.Steps))
	for _, s := range r.Steps {
		if _, dup := p.rects[s.ID]; dup {
			continue
		}
		p.ids = append(p.ids, s.ID)
		p.rects[s.ID] = geometry.Rect{Width: opts.Widths.Width(Label(s.ID)), Height: opts.NodeHeight}
	}
	onFlow := make(map[string]bool, len(mainFlow))
	for i, id := range mainFlow {
		rect, ok := p.rects[id]
		if !ok {
			continue
		}
		rect.X = float64(i)*opts.XSpacing + opts.XOrigin
		rect.Y = opts.MainFlowY
		p.rects[id] = rect
		placed[id] = true
		onFlow[id] = true
	}

	// Phase 2: sub-steps relative to their parents.
	placeSubSteps(r, pairs, opts, p.rects, placed)
	parkUnplaced(p, opts, placed)

	// Phase 3: straighten near-vertical connections.
	alignVertical(r, opts, p.rects)

	for id, pt := range opts.Overrides {
		if rect, ok := p.rects[id]; ok {
			rect.X, rect.Y = pt.X, pt.Y
			p.rects[id] = rect
		}
	}

	for _, id := range p.ids {
		switch {
		case onFlow[id]:
			p.sides[id] = geometry.OnFlow
		case p.rects[id].Y < opts.MainFlowY:
			p.sides[id] = geometry.Above
		default:
			p.sides[id] = geometry.Below
		}
	}
	return p
}

type subGroup struct {
	parent string
	subs   []string
}

// placeSubSteps positions sub-steps next to their parents. Parents are
// visited in step order; a sub-step keeps the position of the first parent
// that places it. A parent that has not been positioned yet (a sub-step
// whose own parent comes later) is revisited once it has been.
func placeSubSteps(r *rule.Rule, pairs []topology.Pair, opts Options, rects map[string]geometry.Rect, placed map[string]bool) {
	var pending []subGroup
	seen := make(map[string]bool)
	for _, s := range r.Steps {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if subs := topology.SubSteps(r, s.ID); len(subs) > 0 {
			pending = append(pending, subGroup{parent: s.ID, subs: subs})
		}
	}

	for len(pending) > 0 {
		var deferred []subGroup
		for _, g := range pending {
			if !placed[g.parent] {
				deferred = append(deferred, g)
				continue
			}
			placeGroup(g, pairs, opts, rects, placed)
		}
		if len(deferred) == len(pending) {
			return
		}
		pending = deferred
	}
}

func placeGroup(g subGroup, pairs []topology.Pair, opts Options, rects map[string]geometry.Rect, placed map[string]bool) {
	parent := rects[g.parent]

	var normal []string
	for _, id := range g.subs {
		if !topology.InPair(pairs, g.parent, id) {
			normal = append(normal, id)
			continue
		}
		if placed[id] {
			continue
		}
		rect := rects[id]
		rect.X = parent.X
		rect.Y = parent.Y + opts.SpacingBelow
		rects[id] = rect
		placed[id] = true
	}

	for i, id := range normal {
		if placed[id] {
			continue
		}
		rect := rects[id]
		rect.X = parent.Right() + opts.SubGap
		slot := float64(i/2 + 1)
		switch {
		case len(normal) == 1:
			rect.Y = parent.Y - opts.SpacingAbove
		case i%2 == 0:
			rect.Y = parent.Y - slot*opts.SpacingAbove
		default:
			rect.Y = parent.Y + slot*opts.SpacingBelow
		}
		rects[id] = rect
		placed[id] = true
	}
}

// parkUnplaced lines up steps no rule above could position (sub-steps
// without a placed parent) on a row below everything else, left to right.
func parkUnplaced(p Placement, opts Options, placed map[string]bool) {
	var orphans []string
	for _, id := range p.ids {
		if !placed[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return
	}

	y := opts.MainFlowY + opts.SpacingBelow
	for id := range placed {
		y = math.Max(y, p.rects[id].Bottom()+opts.SpacingBelow)
	}
	x := opts.XOrigin
	for _, id := range orphans {
		rect := p.rects[id]
		rect.X, rect.Y = x, y
		p.rects[id] = rect
		placed[id] = true
		x += rect.Width + opts.SubGap
	}
}

// alignVertical centres a successor under or over its source when the
// connection is mostly vertical: far apart in y, close in x, yet not
// centred. Steps and references are visited in order, so later
// corrections see earlier ones.
func alignVertical(r *rule.Rule, opts Options, rects map[string]geometry.Rect) {
	for _, s := range r.Steps {
		src, ok := rects[s.ID]
		if !ok {
			continue
		}
		for _, nextID := range s.NextStepIDs {
			tgt, ok := rects[nextID]
			if !ok || nextID == s.ID {
				continue
			}
			dy := math.Abs(src.Y - tgt.Y)
			dx := math.Abs(src.X - tgt.X)
			if dy <= opts.AlignMinDY || dx >= opts.AlignMaxDX {
				continue
			}
			if math.Abs(src.CenterX()-tgt.CenterX()) > opts.AlignTolerance {
				tgt.X = src.CenterX() - tgt.Width/2
				rects[nextID] = tgt
			}
		}
	}
}
