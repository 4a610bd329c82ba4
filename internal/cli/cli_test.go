package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/rulemaker/pkg/diagram"
	"github.com/matzehuels/rulemaker/pkg/editor"
	errs "github.com/matzehuels/rulemaker/pkg/errors"
	rio "github.com/matzehuels/rulemaker/pkg/io"
)

const chainJSON = `{
  "id": "checkout",
  "steps": [
    {"id": "S1", "screenId": "a", "nextStepIds": ["S2"]},
    {"id": "S2", "screenId": "a", "nextStepIds": ["S3", "Sub1"]},
    {"id": "S3", "screenId": "a"},
    {"id": "Sub1", "screenId": "a", "isSubStep": true}
  ]
}`

type env struct {
	dir    string
	config string
	cache  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	e := env{dir: dir, config: filepath.Join(dir, "config.toml"), cache: filepath.Join(dir, "cache")}
	cfg := "[cache]\nbackend = \"file\"\ndir = " + quote(e.cache) + "\n"
	if err := os.WriteFile(e.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (e env) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with args and returns what it printed.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prevOut, prevSpin := output, spinnerOutput
	output, spinnerOutput = &out, io.Discard
	t.Cleanup(func() { output, spinnerOutput = prevOut, prevSpin })

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLayoutCommand(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)

	out, err := e.run(t, "layout", input)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.Contains(out, "Layout complete") || !strings.Contains(out, "fresh") {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(filepath.Join(e.dir, "checkout.layout.json"))
	if err != nil {
		t.Fatal(err)
	}
	var d diagram.Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatal(err)
	}
	if strings.Join(d.MainFlow, ",") != "S1,S2,S3" || len(d.Nodes) != 4 {
		t.Errorf("mainFlow = %v nodes = %d", d.MainFlow, len(d.Nodes))
	}

	out, err = e.run(t, "layout", input)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("second run not served from cache: %q", out)
	}
}

func TestRenderCommand(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)

	if _, err := e.run(t, "render", input, "-f", "svg,dot", "--selected", "S2"); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(filepath.Join(e.dir, "checkout.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("#FFE2B8")) {
		t.Error("svg lacks root element or selection highlight")
	}
	dot, err := os.ReadFile(filepath.Join(e.dir, "checkout.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(dot, []byte("digraph")) {
		t.Errorf("dot output = %q", dot)
	}
}

func TestRenderCommandSingleOutput(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)
	target := filepath.Join(e.dir, "out", "custom.svg")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := e.run(t, "render", input, "-o", target, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)
	_, err := e.run(t, "render", input, "-f", "gif")
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestValidateCommand(t *testing.T) {
	e := newEnv(t)
	good := e.write(t, "good.json", chainJSON)
	out, err := e.run(t, "validate", good)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "1 rules valid") {
		t.Errorf("output = %q", out)
	}

	bad := e.write(t, "bad.json", `{"stepRules": [
	  {"id": "ok", "steps": [{"id": "A", "screenId": "x", "nextStepIds": ["B"]}, {"id": "B", "screenId": "x"}]},
	  {"id": "broken", "steps": [{"id": "A", "screenId": "x", "nextStepIds": ["ghost"]}]}
	]}`)
	out, err = e.run(t, "validate", bad)
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(out, "references non-existent step ghost") {
		t.Errorf("output lacks problem: %q", out)
	}
}

func TestValidateStrict(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "lonely.json", `{"id": "r", "steps": [{"id": "A", "screenId": "x"}]}`)
	if _, err := e.run(t, "validate", input); err != nil {
		t.Errorf("isolated step failed without --strict: %v", err)
	}
	if _, err := e.run(t, "validate", input, "--strict"); err == nil {
		t.Error("isolated step passed with --strict")
	}
}

func TestStepCommands(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)

	if _, err := e.run(t, "step", "add", input, "--after", "S1", "--id", "Inserted"); err != nil {
		t.Fatalf("step add: %v", err)
	}
	r, err := rio.ImportRule(input)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.FindStep("S1").NextStepIDs; len(got) != 1 || got[0] != "Inserted" {
		t.Errorf("S1.next = %v", got)
	}

	_, err = e.run(t, "step", "remove", input, "S2")
	if !errs.Is(err, errs.ErrCodeStepHasChildren) {
		t.Errorf("remove S2: err = %v", err)
	}

	if _, err := e.run(t, "step", "add-sub", input, "S3", "--id", "Hint"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "step", "rename", input, "Hint", "Tip"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "step", "remove", input, "Tip"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "step", "swap", input, "S1", "S3"); err != nil {
		t.Fatal(err)
	}

	r, err = rio.ImportRule(input)
	if err != nil {
		t.Fatal(err)
	}
	if r.HasStep("Hint") || r.HasStep("Tip") {
		t.Error("removed sub-step still present")
	}
	if got := r.FindStep("S3").NextStepIDs; len(got) != 1 || got[0] != "Inserted" {
		t.Errorf("after swap S3.next = %v", got)
	}
}

func TestStepOutputLeavesInputUntouched(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)
	out := filepath.Join(e.dir, "renamed.json")

	if _, err := e.run(t, "step", "rename", input, "S3", "Done", "-o", out); err != nil {
		t.Fatal(err)
	}
	orig, _ := rio.ImportRule(input)
	if !orig.HasStep("S3") {
		t.Error("input modified")
	}
	renamed, err := rio.ImportRule(out)
	if err != nil || !renamed.HasStep("Done") {
		t.Errorf("output lacks renamed step: %v", err)
	}
}

func TestStepKeepsOtherRules(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "rules.json", `{"stepRules": [
	  {"id": "first", "steps": [{"id": "A", "screenId": "x"}]},
	  {"id": "second", "steps": [{"id": "B", "screenId": "x"}]}
	]}`)

	if _, err := e.run(t, "step", "rename", input, "B", "B2", "--rule", "second"); err != nil {
		t.Fatal(err)
	}
	rules, err := rio.ImportFile(input)
	if err != nil || len(rules) != 2 {
		t.Fatalf("rules = %d, %v", len(rules), err)
	}
	if !rules[0].HasStep("A") || !rules[1].HasStep("B2") {
		t.Error("multi-rule file not preserved")
	}
}

func TestStepMoveSavesState(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)
	stateDir := filepath.Join(e.dir, "state")

	if _, err := e.run(t, "step", "move", input, "S3", "900", "40", "--state-dir", stateDir); err != nil {
		t.Fatal(err)
	}
	store, err := editor.NewStateStore(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Get(context.Background(), editor.StateKey(input, "checkout"))
	if err != nil || st == nil {
		t.Fatalf("state = %v, %v", st, err)
	}
	if p := st.Overrides["S3"]; p.X != 900 || p.Y != 40 {
		t.Errorf("override = %v", p)
	}

	if _, err := e.run(t, "step", "move", input, "--reset", "--state-dir", stateDir); err != nil {
		t.Fatal(err)
	}
	st, _ = store.Get(context.Background(), editor.StateKey(input, "checkout"))
	if st == nil || len(st.Overrides) != 0 {
		t.Errorf("overrides after reset = %v", st)
	}
}

func TestCacheCommands(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "checkout.json", chainJSON)

	out, err := e.run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != e.cache {
		t.Errorf("cache path = %q, want %q", out, e.cache)
	}

	if _, err := e.run(t, "layout", input); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(e.cache)
	if len(entries) == 0 {
		t.Fatal("layout left the cache empty")
	}
	if _, err := e.run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ = os.ReadDir(e.cache)
	if len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[layout]", "[cache]", e.cache} {
		if !strings.Contains(out, want) {
			t.Errorf("config show lacks %q", want)
		}
	}
	out, err = e.run(t, "config", "path")
	if err != nil || strings.TrimSpace(out) != e.config {
		t.Errorf("config path = %q, %v", out, err)
	}
}

func TestMissingConfig(t *testing.T) {
	e := newEnv(t)
	e.config = filepath.Join(e.dir, "nope.toml")
	_, err := e.run(t, "config", "show")
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCompletion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "rulemaker") {
		t.Error("completion script does not mention rulemaker")
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		outputDir string
		formats   []string
		want      map[string]string
	}{
		{"next to input", "", "", []string{"svg", "json"},
			map[string]string{"svg": "rules/checkout.svg", "json": "rules/checkout.layout.json"}},
		{"single explicit", "out.png", "", []string{"png"},
			map[string]string{"png": "out.png"}},
		{"base with extension", "out/flow.svg", "", []string{"svg", "dot"},
			map[string]string{"svg": "out/flow.svg", "dot": "out/flow.dot"}},
		{"layout json base", "flow.layout.json", "", []string{"json", "svg"},
			map[string]string{"json": "flow.layout.json", "svg": "flow.svg"}},
		{"output dir", "", "build", []string{"svg"},
			map[string]string{"svg": "build/checkout.svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, "rules/checkout.json", tt.outputDir, tt.formats)
			for f, want := range tt.want {
				if got[f] != filepath.FromSlash(want) {
					t.Errorf("%s -> %q, want %q", f, got[f], want)
				}
			}
		})
	}
}
