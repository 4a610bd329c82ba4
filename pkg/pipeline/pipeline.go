// Package pipeline provides the load → layout → render pipeline shared by
// the CLI, the terminal editor and the HTTP service.
//
// # Stages
//
//  1. Load: read a rule from a JSON file (skipped when the caller already
//     holds a rule)
//  2. Layout: compute the [diagram.Diagram], cached by rule content and
//     layout configuration
//  3. Render: paint the diagram in each requested format, cached by
//     layout content and format
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "checkout.json",
//	    Formats: []string{"svg", "dot"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/diagram"
	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/route"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Extension returns the file extension written for a format.
func Extension(format string) string {
	if format == FormatJSON {
		return ".layout.json"
	}
	return "." + format
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "application/json"
	}
}

// Options configures a pipeline run.
type Options struct {
	// Source is the rule file to load. Ignored when Rule is set.
	Source string `json:"source,omitempty"`

	// Rule is an already loaded rule. It is never mutated.
	Rule *rule.Rule `json:"-"`

	// Config holds the layout and routing constants. The zero value means
	// diagram.DefaultConfig.
	Config diagram.Config `json:"config"`

	// Overrides pins steps to user-chosen positions.
	Overrides map[string]geometry.Point `json:"overrides,omitempty"`

	Formats  []string `json:"formats,omitempty"`
	Selected string   `json:"selected,omitempty"` // Step drawn with the active style

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Rule      *rule.Rule
	RuleHash  string
	Diagram   diagram.Diagram
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	StepCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Config.Layout.NodeHeight == 0 && o.Config.Route == (route.Options{}) {
		o.Config = diagram.DefaultConfig()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults were applied.
func (o *Options) Validate() error {
	if o.Rule == nil && o.Source == "" {
		return errs.New(errs.ErrCodeInvalidInput, "a rule or a source file is required")
	}
	return ValidateFormats(o.Formats)
}

// diagramConfig returns the configuration with the overrides applied.
func (o *Options) diagramConfig() diagram.Config {
	cfg := o.Config
	if len(o.Overrides) > 0 {
		cfg.Layout = cfg.Layout.WithOverrides(o.Overrides)
	}
	return cfg
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() (cache.LayoutKeyOpts, error) {
	cfg := o.Config
	cfg.Layout.Overrides = nil
	h, err := cache.HashJSON(cfg)
	if err != nil {
		return cache.LayoutKeyOpts{}, fmt.Errorf("hash config: %w", err)
	}
	return cache.LayoutKeyOpts{ConfigHash: h, Overrides: o.Overrides}, nil
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Selected: o.Selected}
}
