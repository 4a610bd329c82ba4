package cache

import "github.com/matzehuels/rulemaker/pkg/geometry"

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key of a computed diagram.
	LayoutKey(ruleHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key of a rendered output.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the rule that change a layout.
type LayoutKeyOpts struct {
	ConfigHash string                    `json:"config_hash"`
	Overrides  map[string]geometry.Point `json:"overrides,omitempty"`
}

// ArtifactKeyOpts are the inputs besides the layout that change an output.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Selected string `json:"selected,omitempty"`
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(ruleHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", ruleHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
