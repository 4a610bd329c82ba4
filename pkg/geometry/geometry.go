// Package geometry provides the value types shared by the layout engine,
// the edge router and the canvas adapters.
//
// All coordinates are absolute diagram coordinates: x grows to the right,
// y grows downward, and a [Rect] is anchored at its top-left corner.
package geometry

import "math"

// Point is a position in diagram space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the horizontal centre.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical centre.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Center returns the centre point.
func (r Rect) Center() Point { return Point{X: r.CenterX(), Y: r.CenterY()} }

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Side places a step relative to the main-flow line. It is computed once
// by the layout engine and consumed by obstacle detection.
type Side int

const (
	OnFlow Side = iota
	Above
	Below
)

func (s Side) String() string {
	switch s {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return "on-flow"
	}
}

// Bounds accumulates a bounding box over rects and points.
// The zero value is empty.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
	set                    bool
}

// AddRect grows b to include r.
func (b *Bounds) AddRect(r Rect) {
	b.AddPoint(Point{X: r.X, Y: r.Y})
	b.AddPoint(Point{X: r.Right(), Y: r.Bottom()})
}

// AddPoint grows b to include p.
func (b *Bounds) AddPoint(p Point) {
	if !b.set {
		b.MinX, b.MaxX, b.MinY, b.MaxY = p.X, p.X, p.Y, p.Y
		b.set = true
		return
	}
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
}

// Empty reports whether nothing was added.
func (b Bounds) Empty() bool { return !b.set }

// Rect returns the bounding box as a Rect. An empty Bounds yields the zero Rect.
func (b Bounds) Rect() Rect {
	if !b.set {
		return Rect{}
	}
	return Rect{X: b.MinX, Y: b.MinY, Width: b.MaxX - b.MinX, Height: b.MaxY - b.MinY}
}
