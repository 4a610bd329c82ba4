// Package route computes the control points of every connector in a laid
// out rule.
//
// Connectors are classified by the kinds of their endpoints. Main-to-main
// and sub-to-sub connectors are left to the canvas's orthogonal router.
// Main-to-sub connectors get an elbow when the sub-step sits far above or
// below. Sub-to-main connectors, which run back towards the main flow, bend
// around the first sub-step found in their way.
//
// Waypoints are control points, not a full polyline: the canvas joins
// them to the step borders. [geometry.Connect] expands them when a full
// path is needed.
//
// Only one obstacle is ever avoided. With several sub-steps stacked in the
// way a connector can still cross one of them; this is a known limitation
// of the layout, not a guarantee.
package route

import (
	"fmt"
	"math"

	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/rule"
	"github.com/matzehuels/rulemaker/pkg/topology"
)

// Class is the kind of a connector, by its endpoints.
type Class int

const (
	MainToMain Class = iota
	MainToSub
	SubToMain
	SubToSub
)

func (c Class) String() string {
	switch c {
	case MainToSub:
		return "main-to-sub"
	case SubToMain:
		return "sub-to-main"
	case SubToSub:
		return "sub-to-sub"
	default:
		return "main-to-main"
	}
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText decodes a class name.
func (c *Class) UnmarshalText(b []byte) error {
	for _, k := range []Class{MainToMain, MainToSub, SubToMain, SubToSub} {
		if k.String() == string(b) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown edge class %q", b)
}

func classOf(src, tgt *rule.Step) Class {
	switch {
	case !src.IsSubStep && tgt.IsSubStep:
		return MainToSub
	case src.IsSubStep && !tgt.IsSubStep:
		return SubToMain
	case src.IsSubStep && tgt.IsSubStep:
		return SubToSub
	default:
		return MainToMain
	}
}

// Edge is one routed connector.
type Edge struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	Target    string           `json:"target"`
	Class     Class            `json:"class"`
	Waypoints []geometry.Point `json:"waypoints"`
	Style     Style            `json:"style"`

	// Styled is false when an endpoint had no geometry; such an edge keeps
	// no waypoints and the canvas draws it with defaults.
	Styled bool `json:"styled"`
	// Detour names the obstacle a sub-to-main connector bends around.
	Detour string `json:"detour,omitempty"`
}

// Edges is a list of routed connectors.
type Edges []Edge

// Translate returns a copy of es with every waypoint moved by d.
func (es Edges) Translate(d geometry.Point) Edges {
	out := make(Edges, len(es))
	for i, e := range es {
		e.Waypoints = translatePoints(e.Waypoints, d)
		out[i] = e
	}
	return out
}

// Waypoints returns the waypoint lists of all edges.
func (es Edges) Waypoints() [][]geometry.Point {
	out := make([][]geometry.Point, len(es))
	for i, e := range es {
		out[i] = e.Waypoints
	}
	return out
}

func translatePoints(pts []geometry.Point, d geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Add(d)
	}
	return out
}

// EdgeID returns the id of the connector from src to dst.
func EdgeID(src, dst string) string { return "edge_" + src + "_to_" + dst }

// Options holds the routing constants.
type Options struct {
	Color string `toml:"edge_color" json:"edgeColor"` // Overridden by the rule's edgeColor when set

	VerticalThreshold float64 `toml:"vertical_threshold" json:"verticalThreshold"` // Centre offset below which a connector is left straight
	ElbowMinDY        float64 `toml:"elbow_min_dy" json:"elbowMinDy"`               // Min vertical offset for a main-to-sub elbow
	LeftOffset        float64 `toml:"left_offset" json:"leftOffset"`                // Jog for a main-to-sub connector to a sub-step on the left
	DetourOut         float64 `toml:"detour_out" json:"detourOut"`                  // Horizontal exit before a detour
	ObstacleClearX    float64 `toml:"obstacle_clear_x" json:"obstacleClearX"`       // Clearance right of an obstacle
	ObstacleClearY    float64 `toml:"obstacle_clear_y" json:"obstacleClearY"`       // Clearance above or below an obstacle
	TargetInset       float64 `toml:"target_inset" json:"targetInset"`              // Offset from the target centre where a detour lands
	TargetClearance   float64 `toml:"target_clearance" json:"targetClearance"`      // Gap kept above or below the target
	DirectOut         float64 `toml:"direct_out" json:"directOut"`                  // Horizontal exit of an unobstructed sub-to-main connector
}

// DefaultOptions returns the standard routing constants.
func DefaultOptions() Options {
	return Options{
		Color:             DefaultColor,
		VerticalThreshold: 20,
		ElbowMinDY:        30,
		LeftOffset:        30,
		DetourOut:         20,
		ObstacleClearX:    40,
		ObstacleClearY:    30,
		TargetInset:       30,
		TargetClearance:   10,
		DirectOut:         40,
	}
}

// Route returns one edge per reference of r whose target exists, in step
// order and reference order.
func Route(r *rule.Rule, geo topology.Geometry, opts Options) Edges {
	color := opts.Color
	if r.EdgeColor != nil && *r.EdgeColor != "" {
		color = *r.EdgeColor
	}
	style := DefaultStyle(color)

	var edges Edges
	ids := make(map[string]int)
	for _, s := range r.Steps {
		for _, nextID := range s.NextStepIDs {
			tgt := r.FindStep(nextID)
			if tgt == nil {
				continue
			}
			id := EdgeID(s.ID, nextID)
			if n := ids[id]; n > 0 {
				ids[id] = n + 1
				id = fmt.Sprintf("%s_%d", id, n+1)
			} else {
				ids[id] = 1
			}

			e := Edge{
				ID:        id,
				Source:    s.ID,
				Target:    nextID,
				Class:     classOf(s, tgt),
				Style:     style,
				Waypoints: []geometry.Point{},
			}
			srcRect, okSrc := geo.Rect(s.ID)
			tgtRect, okTgt := geo.Rect(nextID)
			if okSrc && okTgt {
				e.Styled = true
				switch e.Class {
				case MainToSub:
					e.Waypoints = mainToSub(srcRect, tgtRect, opts)
				case SubToMain:
					e.Waypoints, e.Detour = subToMain(r, geo, s.ID, nextID, srcRect, tgtRect, opts)
				}
			}
			edges = append(edges, e)
		}
	}
	return edges
}

func mainToSub(src, tgt geometry.Rect, opts Options) []geometry.Point {
	if math.Abs(src.CenterX()-tgt.CenterX()) < opts.VerticalThreshold {
		return []geometry.Point{}
	}
	y1, y3 := src.CenterY(), tgt.CenterY()
	if tgt.X > src.Right() {
		if math.Abs(y1-y3) < opts.ElbowMinDY {
			return []geometry.Point{}
		}
		midX := (src.Right() + tgt.X) / 2
		return []geometry.Point{{X: midX, Y: y1}, {X: midX, Y: y3}}
	}
	x := src.Right() + opts.LeftOffset
	return []geometry.Point{{X: x, Y: y1}, {X: x, Y: y3}}
}

func subToMain(r *rule.Rule, geo topology.Geometry, srcID, tgtID string, src, tgt geometry.Rect, opts Options) ([]geometry.Point, string) {
	if math.Abs(src.CenterX()-tgt.CenterX()) < opts.VerticalThreshold {
		return []geometry.Point{}, ""
	}

	if obstacles := topology.NodesOnPath(r, geo, srcID, tgtID, true); len(obstacles) > 0 {
		obstacleID := obstacles[0]
		obstacle, _ := geo.Rect(obstacleID)
		below := src.Y > tgt.Y
		outX := src.Right() + opts.DetourOut
		clearX := obstacle.Right() + opts.ObstacleClearX
		yObstacle, yTarget := obstacle.Y-opts.ObstacleClearY, tgt.Bottom()
		if below {
			yObstacle, yTarget = obstacle.Bottom()+opts.ObstacleClearY, tgt.Y
		}
		return []geometry.Point{
			{X: outX, Y: src.CenterY()},
			{X: outX, Y: yObstacle},
			{X: clearX, Y: yObstacle},
			{X: clearX, Y: yTarget},
			{X: tgt.CenterX() + opts.TargetInset, Y: yTarget},
		}, obstacleID
	}

	above := src.Bottom() < tgt.Y
	below := src.Y > tgt.Bottom()
	outX := math.Max(src.Right()+opts.DirectOut, tgt.CenterX())
	pts := []geometry.Point{{X: outX, Y: src.CenterY()}}
	switch {
	case above:
		y := tgt.Y - opts.TargetClearance
		pts = append(pts, geometry.Point{X: outX, Y: y}, geometry.Point{X: tgt.CenterX(), Y: y})
	case below:
		y := tgt.Bottom() + opts.TargetClearance
		pts = append(pts, geometry.Point{X: outX, Y: y}, geometry.Point{X: tgt.CenterX(), Y: y})
	default:
		pts = append(pts, geometry.Point{X: tgt.CenterX(), Y: src.CenterY()})
	}
	return pts, ""
}
