package canvas

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/matzehuels/rulemaker/pkg/geometry"
)

const (
	svgPadding = 20
	fontFamily = "Helvetica, Arial, sans-serif"
	cornerR    = 8
)

// SVG is a Memory canvas that can write itself as a standalone SVG
// document. Connectors are drawn as rounded orthogonal polylines through
// their waypoints.
type SVG struct {
	*Memory
}

// NewSVG returns an empty SVG canvas.
func NewSVG() *SVG { return &SVG{Memory: NewMemory(0, 0)} }

// Bytes renders the canvas.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = s.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes the SVG document to w.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	content := s.Bounds().Rect()
	width := content.Right() + svgPadding
	height := content.Bottom() + svgPadding
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)

	s.writeDefs(&buf)

	for _, e := range s.edges {
		s.writeEdge(&buf, e)
	}
	for _, n := range s.nodes {
		writeNode(&buf, n)
	}

	buf.WriteString("</svg>\n")
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (s *SVG) writeDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <filter id="shadow" x="-10%" y="-10%" width="130%" height="140%">` +
		`<feDropShadow dx="2" dy="2" stdDeviation="1.5" flood-opacity="0.25"/></filter>` + "\n")
	seen := make(map[string]bool)
	for _, e := range s.edges {
		c := e.Style.Color
		if seen[c] {
			continue
		}
		seen[c] = true
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="%.0f" markerHeight="%.0f" markerUnits="userSpaceOnUse" orient="auto">`+
			`<path d="M0,0 L10,5 L0,10 z" fill="%s"/></marker>`+"\n",
			markerID(c), e.Style.EndSize, e.Style.EndSize, EscapeXML(c))
	}
	buf.WriteString("  </defs>\n")
}

func writeNode(buf *bytes.Buffer, n Node) {
	r := n.Rect
	rx := math.Min(r.Width, r.Height) * n.Style.ArcSize / 200
	filter := ""
	if n.Style.Shadow {
		filter = ` filter="url(#shadow)"`
	}
	fmt.Fprintf(buf, `  <rect id="node-%s" class="step" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" fill="%s" stroke="%s" stroke-width="%.1f"%s/>`+"\n",
		EscapeXML(n.ID), r.X, r.Y, r.Width, r.Height, rx,
		EscapeXML(n.Style.Fill), EscapeXML(n.Style.Stroke), n.Style.StrokeWidth, filter)
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%.0f" fill="%s">%s</text>`+"\n",
		r.CenterX(), r.CenterY(), fontFamily, n.Style.FontSize, EscapeXML(n.Style.FontColor), EscapeXML(n.Label))
}

func (s *SVG) writeEdge(buf *bytes.Buffer, e Edge) {
	pts, ok := s.edgePath(e)
	if !ok || len(pts) < 2 {
		return
	}
	radius := 0.0
	if e.Style.Rounded {
		radius = cornerR
	}
	fmt.Fprintf(buf, `  <path id="%s" class="edge" d="%s" fill="none" stroke="%s" stroke-width="%.1f" marker-end="url(#%s)"/>`+"\n",
		EscapeXML(e.ID), roundedPath(pts, radius), EscapeXML(e.Style.Color), e.Style.StrokeWidth, markerID(e.Style.Color))
}

// roundedPath returns SVG path data for pts with every corner replaced by
// a quadratic curve of at most the given radius.
func roundedPath(pts []geometry.Point, radius float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "M%.2f,%.2f", pts[0].X, pts[0].Y)
	for i := 1; i < len(pts)-1; i++ {
		prev, cur, next := pts[i-1], pts[i], pts[i+1]
		r := math.Min(radius, math.Min(dist(prev, cur), dist(cur, next))/2)
		if r <= 0 {
			fmt.Fprintf(&b, " L%.2f,%.2f", cur.X, cur.Y)
			continue
		}
		in := towards(cur, prev, r)
		out := towards(cur, next, r)
		fmt.Fprintf(&b, " L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f", in.X, in.Y, cur.X, cur.Y, out.X, out.Y)
	}
	last := pts[len(pts)-1]
	fmt.Fprintf(&b, " L%.2f,%.2f", last.X, last.Y)
	return b.String()
}

func dist(a, b geometry.Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// towards returns the point d away from from in the direction of to.
func towards(from, to geometry.Point, d float64) geometry.Point {
	l := dist(from, to)
	if l == 0 {
		return from
	}
	return geometry.Point{X: from.X + (to.X-from.X)*d/l, Y: from.Y + (to.Y-from.Y)*d/l}
}

func markerID(color string) string {
	var b strings.Builder
	b.WriteString("arrow-")
	for _, r := range color {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeXML escapes s for use in XML text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
