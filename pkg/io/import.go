package io

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// multiKey is the top-level property of the multi-rule file shape.
const multiKey = "stepRules"

// ReadRules decodes every rule from r. The input is either one rule object
// or an object whose "stepRules" array holds rule objects. ReadRules does
// not close r.
func ReadRules(r io.Reader) ([]*rule.Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read rules")
	}
	return decodeRules(data)
}

// ReadRule decodes the first rule from r.
func ReadRule(r io.Reader) (*rule.Rule, error) {
	rules, err := ReadRules(r)
	if err != nil {
		return nil, err
	}
	return first(rules)
}

// ImportFile reads every rule from the file at path.
func ImportFile(path string) ([]*rule.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "File not found: %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read %s", path)
	}
	rules, err := decodeRules(data)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ImportRule reads the first rule from the file at path.
func ImportRule(path string) (*rule.Rule, error) {
	rules, err := ImportFile(path)
	if err != nil {
		return nil, err
	}
	return first(rules)
}

func decodeRules(data []byte) ([]*rule.Rule, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return nil, errs.Wrap(errs.ErrCodeInvalidJSON, err, "Invalid JSON at offset %d", syntax.Offset)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "Rule file must contain a JSON object")
	}
	if top == nil {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "Rule file must contain a JSON object")
	}

	raw, multi := top[multiKey]
	if !multi {
		var r rule.Rule
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidJSON, err, "Invalid rule")
		}
		return []*rule.Rule{&r}, nil
	}

	var rules []*rule.Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidJSON, err, "Invalid %s array", multiKey)
	}
	out := rules[:0]
	for _, r := range rules {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func first(rules []*rule.Rule) (*rule.Rule, error) {
	if len(rules) == 0 {
		return nil, errs.New(errs.ErrCodeNoRules, "No rules found in file")
	}
	return rules[0], nil
}
