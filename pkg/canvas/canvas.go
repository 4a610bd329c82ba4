// Package canvas defines the drawing surface a diagram is painted on and
// provides three implementations.
//
// [Canvas] is the contract the editor core talks to: create boxes and
// connectors, query and move them, attach click callbacks, fit the view.
// [Memory] is the reference implementation and keeps everything in plain
// slices; [SVG] renders a Memory canvas as a standalone SVG document;
// [Graphviz] hands the same content to Graphviz with every node pinned to
// its computed position.
//
// [Draw] paints a [diagram.Diagram] onto any Canvas.
package canvas

import (
	"github.com/matzehuels/rulemaker/pkg/diagram"
	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/route"
)

// Handle identifies a node or edge on a canvas. The zero Handle is invalid.
type Handle int

// Valid reports whether h refers to something.
func (h Handle) Valid() bool { return h > 0 }

// Canvas is a drawing surface for boxes and orthogonal connectors.
type Canvas interface {
	CreateNode(id, label string, r geometry.Rect, s NodeStyle) Handle
	CreateEdge(id string, src, dst Handle, waypoints []geometry.Point, s EdgeStyle) Handle
	ClearAll()
	Geometry(h Handle) (geometry.Rect, bool)
	SetGeometry(h Handle, r geometry.Rect)
	OnPrimaryClick(h Handle, fn func())
	OnSecondaryClick(h Handle, fn func())
	FitAndCenter()
}

// NodeStyle is the paint of a box.
type NodeStyle struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	FontSize    float64 `json:"fontSize"`
	FontColor   string  `json:"fontColor"`
	ArcSize     float64 `json:"arcSize"` // Corner radius as a percentage of the shorter side
	Shadow      bool    `json:"shadow"`
}

// EdgeStyle is the paint of a connector.
type EdgeStyle = route.Style

func nodeStyle(fill, stroke string, font, width float64) NodeStyle {
	return NodeStyle{
		Fill:        fill,
		Stroke:      stroke,
		StrokeWidth: width,
		FontSize:    font,
		FontColor:   "#000000",
		ArcSize:     20,
		Shadow:      true,
	}
}

// Predefined node styles.
var (
	MainStyle   = nodeStyle("#D4E7FF", "#7EA6E0", 12, 1.5)
	SubStyle    = nodeStyle("#F0F0F0", "#B0B0B0", 11, 1.5)
	StartStyle  = nodeStyle("#A5D6A7", "#2E7D32", 12, 2)
	EndStyle    = nodeStyle("#FFD2D2", "#FF9999", 12, 1.5)
	ActiveStyle = nodeStyle("#FFE2B8", "#FFA940", 12, 2)
)

// StyleFor returns the node style for a role.
func StyleFor(role diagram.Role) NodeStyle {
	switch role {
	case diagram.RoleStart:
		return StartStyle
	case diagram.RoleEnd:
		return EndStyle
	case diagram.RoleSub:
		return SubStyle
	default:
		return MainStyle
	}
}

// Draw clears c and paints d onto it: nodes in diagram order, then edges,
// then the view is fitted. It returns the handle of every node and edge
// keyed by id. Edges whose endpoints have no node are skipped.
func Draw(c Canvas, d diagram.Diagram) map[string]Handle {
	return DrawSelected(c, d, "")
}

// DrawSelected is Draw with one step highlighted.
func DrawSelected(c Canvas, d diagram.Diagram, selected string) map[string]Handle {
	c.ClearAll()
	handles := make(map[string]Handle, len(d.Nodes)+len(d.Edges))
	for _, n := range d.Nodes {
		style := StyleFor(n.Role)
		if n.ID == selected {
			style = ActiveStyle
		}
		handles[n.ID] = c.CreateNode(n.ID, n.Label, n.Rect, style)
	}
	for _, e := range d.Edges {
		src, dst := handles[e.Source], handles[e.Target]
		if !src.Valid() || !dst.Valid() {
			continue
		}
		handles[e.ID] = c.CreateEdge(e.ID, src, dst, e.Waypoints, e.Style)
	}
	c.FitAndCenter()
	return handles
}
