package route

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultColor is the stroke colour used when a rule does not set one.
const DefaultColor = "#b1b1b1"

// Style describes how a connector is drawn. Every routed edge is
// orthogonal and rounded; only the colour varies per rule.
type Style struct {
	Orthogonal  bool    `json:"orthogonal"`
	Rounded     bool    `json:"rounded"`
	StrokeWidth float64 `json:"strokeWidth"`
	Color       string  `json:"color"`
	ArcSize     float64 `json:"arcSize"`
	EndSize     float64 `json:"endSize"`
}

// DefaultStyle returns the connector style for the given colour. An empty
// colour falls back to [DefaultColor].
func DefaultStyle(color string) Style {
	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}
	return Style{
		Orthogonal:  true,
		Rounded:     true,
		StrokeWidth: 2,
		Color:       color,
		ArcSize:     15,
		EndSize:     12,
	}
}

// String renders the style as a key=value list understood by mxGraph-based
// editors, so a diagram can be pasted into one unchanged.
func (s Style) String() string {
	var b strings.Builder
	if s.Orthogonal {
		b.WriteString("edgeStyle=orthogonalEdgeStyle;")
	}
	fmt.Fprintf(&b, "rounded=%d;orthogonalLoop=1;jettySize=auto;html=1;", boolInt(s.Rounded))
	b.WriteString("strokeWidth=" + strconv.FormatFloat(s.StrokeWidth, 'f', -1, 64) + ";")
	b.WriteString("strokeColor=" + s.Color + ";")
	return b.String()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
