package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/diagram"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// ComputeLayout lays out r without caching.
func ComputeLayout(r *rule.Rule, opts Options) diagram.Diagram {
	return diagram.Compute(r, opts.diagramConfig())
}

// RuleHash returns the content hash of r's JSON form.
func RuleHash(r *rule.Rule) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("serialize rule: %w", err)
	}
	return cache.Hash(data), nil
}

func marshalDiagram(d diagram.Diagram) ([]byte, error) {
	return json.Marshal(d)
}

func unmarshalDiagram(data []byte) (diagram.Diagram, error) {
	var d diagram.Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return diagram.Diagram{}, err
	}
	return d, nil
}
