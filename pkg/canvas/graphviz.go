package canvas

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// pointsPerInch converts diagram units (treated as points) to the inch
// sizes Graphviz expects for node width and height.
const pointsPerInch = 72

// Graphviz is a Memory canvas that can be rendered by Graphviz. Nodes keep
// their computed positions; Graphviz only draws the orthogonal
// connectors, so its routes may differ from the SVG canvas's.
type Graphviz struct {
	*Memory
	Name string
}

// NewGraphviz returns an empty Graphviz canvas for a graph with the given name.
func NewGraphviz(name string) *Graphviz {
	return &Graphviz{Memory: NewMemory(0, 0), Name: name}
}

// DOT returns the canvas as Graphviz DOT source with every node pinned.
func (g *Graphviz) DOT() string {
	var buf bytes.Buffer
	name := g.Name
	if name == "" {
		name = "rule"
	}
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	buf.WriteString("  graph [splines=ortho, bgcolor=\"transparent\", pad=\"0.3\", outputorder=edgesfirst];\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [arrowsize=0.8];\n")
	buf.WriteString("\n")

	maxY := g.Bounds().Rect().Bottom()
	labels := make(map[Handle]string, len(g.nodes))
	for _, n := range g.nodes {
		labels[n.Handle] = n.ID
		r := n.Rect
		attrs := []string{
			fmt.Sprintf("label=%q", n.Label),
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", r.CenterX(), maxY-r.CenterY()),
			fmt.Sprintf("width=%.3f", r.Width/pointsPerInch),
			fmt.Sprintf("height=%.3f", r.Height/pointsPerInch),
			fmt.Sprintf("fillcolor=%q", n.Style.Fill),
			fmt.Sprintf("color=%q", n.Style.Stroke),
			fmt.Sprintf("penwidth=%g", n.Style.StrokeWidth),
			fmt.Sprintf("fontsize=%g", n.Style.FontSize),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.edges {
		src, okSrc := labels[e.Source]
		dst, okDst := labels[e.Target]
		if !okSrc || !okDst {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [id=%q, color=%q, penwidth=%g];\n",
			src, dst, e.ID, e.Style.Color, e.Style.StrokeWidth)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// Format is an output format Graphviz can produce.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Render lays the canvas out with neato, honouring the pinned positions,
// and returns the output in the given format.
func (g *Graphviz) Render(ctx context.Context, format Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("unsupported graphviz format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	graph, err := graphviz.ParseBytes([]byte(g.DOT()))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
