// Package diagram turns a rule into a complete, immutable drawing: every
// step's box and role, and every connector's route.
//
// [Compute] is the single entry point. It runs topology analysis, layout,
// routing and normalisation in that order and returns plain values; it
// never touches a canvas and never mutates the rule. Callers that show the
// drawing keep the last [Diagram] and throw it away when the rule changes.
package diagram

import (
	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/layout"
	"github.com/matzehuels/rulemaker/pkg/route"
	"github.com/matzehuels/rulemaker/pkg/rule"
	"github.com/matzehuels/rulemaker/pkg/topology"
)

// Role decides how a step is painted. When several apply, the first in
// declaration order wins.
type Role string

const (
	RoleStart Role = "start"
	RoleEnd   Role = "end"
	RoleSub   Role = "sub"
	RoleMain  Role = "main"
)

// Node is one placed step.
type Node struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Rect      geometry.Rect `json:"rect"`
	Role      Role          `json:"role"`
	Side      string        `json:"side"`
	IsSubStep bool          `json:"isSubStep"`
}

// Diagram is the computed drawing of one rule.
type Diagram struct {
	RuleID   string           `json:"ruleId"`
	Nodes    []Node           `json:"nodes"`
	Edges    route.Edges      `json:"edges"`
	MainFlow []string         `json:"mainFlow"`
	Starts   []string         `json:"starts"`
	Ends     []string         `json:"ends"`
	Pairs    []topology.Pair  `json:"pairs"`
	Offset   geometry.Point   `json:"offset"` // Translation applied during normalisation
	Bounds   geometry.Rect    `json:"bounds"` // Box around all nodes and waypoints
	Warnings []string         `json:"warnings,omitempty"`
	index    map[string]int
}

// Config bundles the layout and routing constants.
type Config struct {
	Layout layout.Options `toml:"layout" json:"layout"`
	Route  route.Options  `toml:"route" json:"route"`
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{Layout: layout.DefaultOptions(), Route: route.DefaultOptions()}
}

// Compute lays out and routes r.
func Compute(r *rule.Rule, cfg Config) Diagram {
	mainFlow := topology.MainFlowPath(r)
	pairs := topology.BidirectionalPairs(r)

	placement := layout.Place(r, mainFlow, pairs, cfg.Layout)
	edges := route.Route(r, placement, cfg.Route)

	offset := layout.Normalize(placement, edges.Waypoints(), cfg.Layout.Margin)
	placement = placement.Translate(offset)
	edges = edges.Translate(offset)

	d := Diagram{
		RuleID:   r.ID,
		Edges:    edges,
		MainFlow: nonNil(mainFlow),
		Starts:   nonNil(topology.StartNodes(r)),
		Ends:     nonNil(topology.EndNodes(r)),
		Pairs:    pairs,
		Offset:   offset,
		Nodes:    make([]Node, 0, placement.Len()),
	}
	if d.Pairs == nil {
		d.Pairs = []topology.Pair{}
	}
	if d.Edges == nil {
		d.Edges = route.Edges{}
	}

	starts := toSet(d.Starts)
	var bounds geometry.Bounds
	seen := make(map[string]bool, len(r.Steps))
	for _, s := range r.Steps {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		rect, _ := placement.Rect(s.ID)
		bounds.AddRect(rect)
		d.Nodes = append(d.Nodes, Node{
			ID:        s.ID,
			Label:     layout.Label(s.ID),
			Rect:      rect,
			Role:      roleOf(s, starts[s.ID]),
			Side:      placement.Side(s.ID).String(),
			IsSubStep: s.IsSubStep,
		})
	}
	for _, e := range edges {
		for _, p := range e.Waypoints {
			bounds.AddPoint(p)
		}
		if !e.Styled {
			d.Warnings = append(d.Warnings, "no geometry for connector "+e.ID)
		}
	}
	d.Bounds = bounds.Rect()
	d.Warnings = append(d.Warnings, r.Validate()...)
	d.reindex()
	return d
}

func roleOf(s *rule.Step, start bool) Role {
	switch {
	case start:
		return RoleStart
	case !s.HasChildren():
		return RoleEnd
	case s.IsSubStep:
		return RoleSub
	default:
		return RoleMain
	}
}

func (d *Diagram) reindex() {
	d.index = make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		d.index[n.ID] = i
	}
}

// Node returns the node with the given id.
func (d Diagram) Node(id string) (Node, bool) {
	if d.index == nil {
		for _, n := range d.Nodes {
			if n.ID == id {
				return n, true
			}
		}
		return Node{}, false
	}
	i, ok := d.index[id]
	if !ok {
		return Node{}, false
	}
	return d.Nodes[i], true
}

// Rect returns the box of a step, so a Diagram can serve as geometry for
// obstacle queries after the fact.
func (d Diagram) Rect(id string) (geometry.Rect, bool) {
	n, ok := d.Node(id)
	return n.Rect, ok
}

// Edge returns the connector with the given id.
func (d Diagram) Edge(id string) (route.Edge, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return route.Edge{}, false
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
