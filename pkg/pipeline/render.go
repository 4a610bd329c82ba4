package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/rulemaker/pkg/canvas"
	"github.com/matzehuels/rulemaker/pkg/diagram"
)

// Render paints d in every requested format.
func Render(ctx context.Context, d diagram.Diagram, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := RenderFormat(ctx, d, format, opts.Selected)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderFormat paints d in one format. selected names a step to highlight
// and may be empty.
func RenderFormat(ctx context.Context, d diagram.Diagram, format, selected string) ([]byte, error) {
	switch format {
	case FormatSVG:
		c := canvas.NewSVG()
		canvas.DrawSelected(c, d, selected)
		return c.Bytes(), nil
	case FormatDOT:
		c := canvas.NewGraphviz(d.RuleID)
		canvas.DrawSelected(c, d, selected)
		return []byte(c.DOT()), nil
	case FormatPNG:
		c := canvas.NewGraphviz(d.RuleID)
		canvas.DrawSelected(c, d, selected)
		return c.Render(ctx, canvas.FormatPNG)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	default:
		return nil, ValidateFormat(format)
	}
}
