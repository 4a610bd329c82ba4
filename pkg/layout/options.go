package layout

import "github.com/matzehuels/rulemaker/pkg/geometry"

// Options holds the layout constants. The zero value is not useful; start
// from [DefaultOptions] and override what you need.
type Options struct {
	XSpacing  float64 `toml:"x_spacing" json:"xSpacing"`   // Horizontal distance between main-flow steps
	XOrigin   float64 `toml:"x_origin" json:"xOrigin"`     // X of the first main-flow step
	MainFlowY float64 `toml:"main_flow_y" json:"mainFlowY"` // Y of the main-flow line

	SubGap       float64 `toml:"sub_gap" json:"subGap"`             // Gap between a parent's right edge and its sub-steps
	SpacingAbove float64 `toml:"spacing_above" json:"spacingAbove"` // Vertical slot size above a parent
	SpacingBelow float64 `toml:"spacing_below" json:"spacingBelow"` // Vertical slot size below a parent

	NodeHeight float64 `toml:"node_height" json:"nodeHeight"`
	Widths     Widths  `toml:"widths" json:"widths"`

	AlignMinDY     float64 `toml:"align_min_dy" json:"alignMinDy"`         // Min vertical gap for a connection to count as vertical
	AlignMaxDX     float64 `toml:"align_max_dx" json:"alignMaxDx"`         // Max horizontal offset for a connection to count as vertical
	AlignTolerance float64 `toml:"align_tolerance" json:"alignTolerance"` // Centre offset below which no correction is made

	Margin float64 `toml:"margin" json:"margin"` // Clearance added when normalising negative coordinates

	// Overrides pins steps to user-chosen positions. They are applied after
	// the alignment pass, so dragged steps stay where they were dropped.
	Overrides map[string]geometry.Point `toml:"-" json:"overrides,omitempty"`
}

// Widths maps label length to node width in three tiers.
type Widths struct {
	Narrow       float64 `toml:"narrow" json:"narrow"`
	Medium       float64 `toml:"medium" json:"medium"`
	Wide         float64 `toml:"wide" json:"wide"`
	NarrowMaxLen int     `toml:"narrow_max_len" json:"narrowMaxLen"` // Labels shorter than this are narrow
	MediumMaxLen int     `toml:"medium_max_len" json:"mediumMaxLen"` // Labels shorter than this are medium
}

// DefaultOptions returns the standard layout constants.
func DefaultOptions() Options {
	return Options{
		XSpacing:       550,
		XOrigin:        100,
		MainFlowY:      200,
		SubGap:         120,
		SpacingAbove:   100,
		SpacingBelow:   100,
		NodeHeight:     45,
		Widths:         Widths{Narrow: 140, Medium: 170, Wide: 220, NarrowMaxLen: 12, MediumMaxLen: 18},
		AlignMinDY:     70,
		AlignMaxDX:     100,
		AlignTolerance: 2,
		Margin:         50,
	}
}

// WithOverrides returns a copy of o using the given user positions.
func (o Options) WithOverrides(overrides map[string]geometry.Point) Options {
	o.Overrides = overrides
	return o
}
