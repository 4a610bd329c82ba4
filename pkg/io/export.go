package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// Extension is appended to export names that lack it.
const Extension = ".json"

type multiFile struct {
	StepRules []*rule.Rule `json:"stepRules"`
}

// WriteRule encodes r as a single-rule file and writes it to w.
func WriteRule(r *rule.Rule, w io.Writer) error {
	if r == nil {
		return errs.New(errs.ErrCodeNoRuleLoaded, "No rule to export")
	}
	return encode(w, r)
}

// WriteRules encodes rules as a multi-rule file and writes it to w.
func WriteRules(rules []*rule.Rule, w io.Writer) error {
	if rules == nil {
		rules = []*rule.Rule{}
	}
	return encode(w, multiFile{StepRules: rules})
}

// ExportFile writes r to path in the single-rule shape.
func ExportFile(r *rule.Rule, path string) error {
	var buf bytes.Buffer
	if err := WriteRule(r, &buf); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ExportFileMulti writes rules to path in the multi-rule shape.
func ExportFileMulti(rules []*rule.Rule, path string) error {
	var buf bytes.Buffer
	if err := WriteRules(rules, &buf); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ExportPath joins dir and name and appends [Extension] when name does not
// already end with it. The name must be a plain file name.
func ExportPath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := errs.ValidateExportName(name); err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(name), Extension) {
		name += Extension
	}
	return filepath.Join(dir, name), nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode rule")
	}
	return nil
}

// writeFile encodes into memory first so a failed encode never truncates
// an existing file.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "Error exporting rule: %s", path)
	}
	return nil
}
