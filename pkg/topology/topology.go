// Package topology answers structural questions about a rule graph: where
// the flow starts and ends, which steps form the main horizontal spine, and
// which steps reference each other in both directions.
//
// Every function is pure and total. Dangling references, cycles and
// disconnected components never cause an error; they simply shape the
// result.
package topology

import (
	"slices"

	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// StartNodes returns the ids of steps no step references, in step order.
// A fully cyclic rule has no start nodes.
func StartNodes(r *rule.Rule) []string {
	referenced := make(map[string]bool)
	for _, s := range r.Steps {
		for _, next := range s.NextStepIDs {
			referenced[next] = true
		}
	}
	var ids []string
	for _, s := range r.Steps {
		if !referenced[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// EndNodes returns the ids of steps without successors, in step order.
func EndNodes(r *rule.Rule) []string {
	var ids []string
	for _, s := range r.Steps {
		if !s.HasChildren() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// IsStart reports whether no step references id.
func IsStart(r *rule.Rule, id string) bool {
	for _, s := range r.Steps {
		if slices.Contains(s.NextStepIDs, id) {
			return false
		}
	}
	return true
}

// Pair is an unordered pair of steps that reference each other. A is always
// the lexicographically smaller id.
type Pair struct {
	A, B string
}

// Has reports whether id is one of the pair.
func (p Pair) Has(id string) bool { return p.A == id || p.B == id }

// Other returns the partner of id, or "" if id is not in the pair.
func (p Pair) Other(id string) string {
	switch id {
	case p.A:
		return p.B
	case p.B:
		return p.A
	}
	return ""
}

// BidirectionalPairs returns every pair A→B, B→A exactly once, in the order
// the first of the two references is met. Self-loops are not pairs.
func BidirectionalPairs(r *rule.Rule) []Pair {
	var pairs []Pair
	for _, a := range r.Steps {
		for _, bID := range a.NextStepIDs {
			if bID == a.ID {
				continue
			}
			b := r.FindStep(bID)
			if b == nil || !slices.Contains(b.NextStepIDs, a.ID) {
				continue
			}
			p := Pair{A: a.ID, B: bID}
			if p.B < p.A {
				p.A, p.B = p.B, p.A
			}
			if !slices.Contains(pairs, p) {
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}

// InPair reports whether a and b form a bidirectional pair.
func InPair(pairs []Pair, a, b string) bool {
	for _, p := range pairs {
		if p.Has(a) && p.Other(a) == b {
			return true
		}
	}
	return false
}

// MainFlowPath returns the main steps in the order they appear along the
// flow. It starts at the first start node that is a main step and walks
// breadth-first over references to main steps. Main steps the walk never
// reaches are appended in step order, so every main step id appears exactly
// once. Without a main start node the main steps are returned in step order.
func MainFlowPath(r *rule.Rule) []string {
	var main []string
	seen := make(map[string]bool)
	for _, s := range r.Steps {
		if !s.IsSubStep && !seen[s.ID] {
			seen[s.ID] = true
			main = append(main, s.ID)
		}
	}

	start := ""
	for _, id := range StartNodes(r) {
		if s := r.FindStep(id); s != nil && !s.IsSubStep {
			start = id
			break
		}
	}
	if start == "" {
		return main
	}

	visited := map[string]bool{start: true}
	path := []string{start}
	queue := []string{start}
	for len(queue) > 0 {
		current := r.FindStep(queue[0])
		queue = queue[1:]
		if current == nil {
			continue
		}
		for _, nextID := range current.NextStepIDs {
			next := r.FindStep(nextID)
			if next == nil || next.IsSubStep || visited[nextID] {
				continue
			}
			visited[nextID] = true
			path = append(path, nextID)
			queue = append(queue, nextID)
		}
	}

	for _, id := range main {
		if !visited[id] {
			path = append(path, id)
		}
	}
	return path
}

// SubSteps returns the ids of sub-steps id references, in reference order.
func SubSteps(r *rule.Rule, id string) []string {
	s := r.FindStep(id)
	if s == nil {
		return nil
	}
	var subs []string
	for _, nextID := range s.NextStepIDs {
		if next := r.FindStep(nextID); next != nil && next.IsSubStep && !slices.Contains(subs, nextID) {
			subs = append(subs, nextID)
		}
	}
	return subs
}

// Parents returns the ids of steps referencing id, in step order.
func Parents(r *rule.Rule, id string) []string { return r.Parents(id) }

// Geometry is the computed placement obstacle detection works on.
type Geometry interface {
	Rect(id string) (geometry.Rect, bool)
	Side(id string) geometry.Side
}

// minObstacleSpan is the horizontal centre distance below which two steps
// are treated as stacked and nothing can lie between them.
const minObstacleSpan = 30

// NodesOnPath returns sub-steps lying between source and target on the
// source's side of the main flow. Only sub-steps are ever obstacles.
//
// When a sub-step connects back to a main step, the target's own sub-steps
// on the same side and not right of the target are checked first; if any
// exist they are the obstacles. Otherwise every sub-step whose left edge
// lies strictly between the two left edges and on the source's side is
// returned, in step order.
func NodesOnPath(r *rule.Rule, geo Geometry, sourceID, targetID string, sourceIsSub bool) []string {
	src, ok := geo.Rect(sourceID)
	if !ok {
		return nil
	}
	tgt, ok := geo.Rect(targetID)
	if !ok {
		return nil
	}
	if abs(src.CenterX()-tgt.CenterX()) < minObstacleSpan {
		return nil
	}
	side := geo.Side(sourceID)

	target := r.FindStep(targetID)
	if sourceIsSub && target != nil && !target.IsSubStep {
		var siblings []string
		for _, s := range r.Steps {
			// A source is never its own obstacle.
			if !s.IsSubStep || s.ID == sourceID || !slices.Contains(target.NextStepIDs, s.ID) {
				continue
			}
			sub, ok := geo.Rect(s.ID)
			if ok && geo.Side(s.ID) == side && sub.X <= tgt.X {
				siblings = append(siblings, s.ID)
			}
		}
		if len(siblings) > 0 {
			return siblings
		}
	}

	minX, maxX := min(src.X, tgt.X), max(src.X, tgt.X)
	var between []string
	for _, s := range r.Steps {
		if s.ID == sourceID || s.ID == targetID || !s.IsSubStep {
			continue
		}
		cell, ok := geo.Rect(s.ID)
		if !ok || cell.X <= minX || cell.X >= maxX {
			continue
		}
		if geo.Side(s.ID) == side && !slices.Contains(between, s.ID) {
			between = append(between, s.ID)
		}
	}
	return between
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
