package canvas

import (
	"math"
	"slices"

	"github.com/matzehuels/rulemaker/pkg/geometry"
)

// Node is a box stored on a Memory canvas.
type Node struct {
	Handle Handle
	ID     string
	Label  string
	Rect   geometry.Rect
	Style  NodeStyle
}

// Edge is a connector stored on a Memory canvas.
type Edge struct {
	Handle    Handle
	ID        string
	Source    Handle
	Target    Handle
	Waypoints []geometry.Point
	Style     EdgeStyle
}

// View maps diagram coordinates to viewport coordinates:
// screen = diagram*Scale + (TX, TY).
type View struct {
	Scale  float64
	TX, TY float64
}

// Apply converts a diagram point to viewport coordinates.
func (v View) Apply(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*v.Scale + v.TX, Y: p.Y*v.Scale + v.TY}
}

// Memory is an in-memory canvas. It is not safe for concurrent use.
type Memory struct {
	width, height float64
	maxScale      float64

	next      Handle
	nodes     []Node
	edges     []Edge
	primary   map[Handle]func()
	secondary map[Handle]func()
	view      View
}

// NewMemory returns an empty canvas with a viewport of the given size.
// A zero size disables fitting: FitAndCenter then keeps scale 1 and only
// moves the content so it starts at the origin.
func NewMemory(width, height float64) *Memory {
	m := &Memory{width: width, height: height, maxScale: 1}
	m.ClearAll()
	return m
}

func (m *Memory) CreateNode(id, label string, r geometry.Rect, s NodeStyle) Handle {
	m.next++
	m.nodes = append(m.nodes, Node{Handle: m.next, ID: id, Label: label, Rect: r, Style: s})
	return m.next
}

func (m *Memory) CreateEdge(id string, src, dst Handle, waypoints []geometry.Point, s EdgeStyle) Handle {
	m.next++
	m.edges = append(m.edges, Edge{
		Handle:    m.next,
		ID:        id,
		Source:    src,
		Target:    dst,
		Waypoints: slices.Clone(waypoints),
		Style:     s,
	})
	return m.next
}

func (m *Memory) ClearAll() {
	m.nodes = nil
	m.edges = nil
	m.primary = make(map[Handle]func())
	m.secondary = make(map[Handle]func())
	m.view = View{Scale: 1}
}

func (m *Memory) Geometry(h Handle) (geometry.Rect, bool) {
	if n := m.node(h); n != nil {
		return n.Rect, true
	}
	return geometry.Rect{}, false
}

func (m *Memory) SetGeometry(h Handle, r geometry.Rect) {
	if n := m.node(h); n != nil {
		n.Rect = r
	}
}

func (m *Memory) OnPrimaryClick(h Handle, fn func())   { m.primary[h] = fn }
func (m *Memory) OnSecondaryClick(h Handle, fn func()) { m.secondary[h] = fn }

// FitAndCenter scales the content to fit the viewport, never enlarging it,
// and centres it.
func (m *Memory) FitAndCenter() {
	b := m.Bounds()
	if b.Empty() {
		m.view = View{Scale: 1}
		return
	}
	content := b.Rect()
	if m.width <= 0 || m.height <= 0 {
		m.view = View{Scale: 1, TX: -content.X, TY: -content.Y}
		return
	}

	scale := m.maxScale
	if content.Width > 0 {
		scale = math.Min(scale, m.width/content.Width)
	}
	if content.Height > 0 {
		scale = math.Min(scale, m.height/content.Height)
	}
	m.view = View{
		Scale: scale,
		TX:    (m.width-content.Width*scale)/2 - content.X*scale,
		TY:    (m.height-content.Height*scale)/2 - content.Y*scale,
	}
}

// View returns the transform computed by the last FitAndCenter.
func (m *Memory) View() View { return m.view }

// Bounds returns the box around all nodes and edge waypoints.
func (m *Memory) Bounds() geometry.Bounds {
	var b geometry.Bounds
	for _, n := range m.nodes {
		b.AddRect(n.Rect)
	}
	for _, e := range m.edges {
		for _, p := range e.Waypoints {
			b.AddPoint(p)
		}
	}
	return b
}

// Nodes returns the stored nodes in creation order.
func (m *Memory) Nodes() []Node { return slices.Clone(m.nodes) }

// Edges returns the stored edges in creation order.
func (m *Memory) Edges() []Edge { return slices.Clone(m.edges) }

// Lookup returns the handle of the node or edge with the given id.
func (m *Memory) Lookup(id string) (Handle, bool) {
	for _, n := range m.nodes {
		if n.ID == id {
			return n.Handle, true
		}
	}
	for _, e := range m.edges {
		if e.ID == id {
			return e.Handle, true
		}
	}
	return 0, false
}

// Click runs the primary callback of h and reports whether there was one.
func (m *Memory) Click(h Handle) bool { return fire(m.primary, h) }

// RightClick runs the secondary callback of h and reports whether there
// was one.
func (m *Memory) RightClick(h Handle) bool { return fire(m.secondary, h) }

// HitTest returns the topmost node containing the diagram point (x, y).
func (m *Memory) HitTest(x, y float64) (Handle, bool) {
	p := geometry.Point{X: x, Y: y}
	for i := len(m.nodes) - 1; i >= 0; i-- {
		if m.nodes[i].Rect.Contains(p) {
			return m.nodes[i].Handle, true
		}
	}
	return 0, false
}

func (m *Memory) node(h Handle) *Node {
	for i := range m.nodes {
		if m.nodes[i].Handle == h {
			return &m.nodes[i]
		}
	}
	return nil
}

func (m *Memory) edgePath(e Edge) ([]geometry.Point, bool) {
	src, ok := m.Geometry(e.Source)
	if !ok {
		return nil, false
	}
	dst, ok := m.Geometry(e.Target)
	if !ok {
		return nil, false
	}
	if e.Source == e.Target {
		return selfLoop(src), true
	}
	return geometry.Connect(src, dst, e.Waypoints), true
}

// selfLoop draws a connector leaving the top of r and re-entering its
// right side.
func selfLoop(r geometry.Rect) []geometry.Point {
	const reach = 25
	x := r.X + r.Width*0.75
	return []geometry.Point{
		{X: x, Y: r.Y},
		{X: x, Y: r.Y - reach},
		{X: r.Right() + reach, Y: r.Y - reach},
		{X: r.Right() + reach, Y: r.CenterY()},
		{X: r.Right(), Y: r.CenterY()},
	}
}

func fire(callbacks map[Handle]func(), h Handle) bool {
	fn, ok := callbacks[h]
	if !ok || fn == nil {
		return false
	}
	fn()
	return true
}
