package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/io"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new_%d", n)
	}
}

// chain builds S1 -> S2 -> S3 with a sub-step Sub1 under S2.
func chain() *rule.Rule {
	r := rule.NewRule("r1")
	s1 := rule.NewStep("S1", "screen")
	s2 := rule.NewStep("S2", "screen")
	s3 := rule.NewStep("S3", "screen")
	sub := rule.NewStep("Sub1", "screen")
	sub.IsSubStep = true
	s1.NextStepIDs = []string{"S2"}
	s2.NextStepIDs = []string{"S3", "Sub1"}
	r.Steps = []*rule.Step{s1, s2, s3, sub}
	return r
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s := New(WithIDGenerator(sequence()))
	if err := s.Load(chain()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func wantCode(t *testing.T, err error, code errs.Code) {
	t.Helper()
	if !errs.Is(err, code) {
		t.Fatalf("err = %v, want %s", err, code)
	}
}

func TestNoRuleLoaded(t *testing.T) {
	s := New()
	_, err := s.AddStep("")
	wantCode(t, err, errs.ErrCodeNoRuleLoaded)
	wantCode(t, s.Export(filepath.Join(t.TempDir(), "x.json")), errs.ErrCodeNoRuleLoaded)
	wantCode(t, s.RemoveStep("S1"), errs.ErrCodeNoRuleLoaded)
	if msg := errs.UserMessage(s.RenameStep("a", "b")); msg != "No rule is currently loaded" {
		t.Errorf("message = %q", msg)
	}
	if d := s.Layout(); len(d.Nodes) != 0 {
		t.Errorf("Layout() without rule has %d nodes", len(d.Nodes))
	}
}

func TestAddStepSplices(t *testing.T) {
	s := newSession(t)
	step, err := s.AddStep("S1")
	if err != nil {
		t.Fatalf("AddStep: %v", err)
	}
	if step.ID != "new_1" || step.ScreenID != DefaultScreenID || step.GuideContent != DefaultGuideContent {
		t.Errorf("new step = %+v", step)
	}
	r := s.Rule()
	if got := r.FindStep("S1").NextStepIDs; !reflect.DeepEqual(got, []string{"new_1"}) {
		t.Errorf("S1.next = %v", got)
	}
	if got := r.FindStep("new_1").NextStepIDs; !reflect.DeepEqual(got, []string{"S2"}) {
		t.Errorf("new_1.next = %v", got)
	}
	if s.Selected() != "new_1" || !s.Dirty() {
		t.Errorf("selected = %q dirty = %v", s.Selected(), s.Dirty())
	}
}

func TestAddStepUnconnected(t *testing.T) {
	s := newSession(t)
	if _, err := s.AddStep(""); err != nil {
		t.Fatal(err)
	}
	if got := s.Rule().Parents("new_1"); len(got) != 0 {
		t.Errorf("parents = %v, want none", got)
	}
	_, err := s.AddStep("missing")
	wantCode(t, err, errs.ErrCodeStepNotFound)
}

func TestAddSubStep(t *testing.T) {
	s := newSession(t)
	step, err := s.AddSubStep("S3")
	if err != nil {
		t.Fatal(err)
	}
	if !step.IsSubStep {
		t.Error("IsSubStep = false")
	}
	if got := s.Rule().FindStep("S3").NextStepIDs; !reflect.DeepEqual(got, []string{"new_1"}) {
		t.Errorf("S3.next = %v", got)
	}
}

func TestRemoveStep(t *testing.T) {
	s := newSession(t)
	err := s.RemoveStep("S2")
	wantCode(t, err, errs.ErrCodeStepHasChildren)
	want := "Cannot remove step 'S2' because it has next steps. Remove the connections first."
	if got := errs.UserMessage(err); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	wantCode(t, s.RemoveStep("nope"), errs.ErrCodeStepNotFound)

	if err := s.MoveStep("S3", 10, 20); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("S3"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveStep("S3"); err != nil {
		t.Fatalf("RemoveStep: %v", err)
	}
	if s.Rule().HasStep("S3") {
		t.Error("S3 still present")
	}
	if got := s.Rule().FindStep("S2").NextStepIDs; !reflect.DeepEqual(got, []string{"Sub1"}) {
		t.Errorf("S2.next = %v", got)
	}
	if _, ok := s.Overrides()["S3"]; ok {
		t.Error("override for removed step kept")
	}
	if s.Selected() != "" {
		t.Errorf("selected = %q, want cleared", s.Selected())
	}
}

func TestSwapStepsMovesOverrides(t *testing.T) {
	s := newSession(t)
	if err := s.MoveStep("S1", 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.SwapSteps("S1", "S3"); err != nil {
		t.Fatal(err)
	}
	ov := s.Overrides()
	if _, ok := ov["S1"]; ok {
		t.Errorf("S1 kept its override: %v", ov)
	}
	if ov["S3"] != (geometry.Point{X: 1, Y: 2}) {
		t.Errorf("S3 override = %v", ov["S3"])
	}
	if got := s.Rule().FindStep("S3").NextStepIDs; !reflect.DeepEqual(got, []string{"S2"}) {
		t.Errorf("S3.next = %v", got)
	}
	wantCode(t, s.SwapSteps("S1", "zz"), errs.ErrCodeStepNotFound)
}

func TestRenameStep(t *testing.T) {
	s := newSession(t)
	if err := s.MoveStep("S2", 5, 5); err != nil {
		t.Fatal(err)
	}
	_ = s.Select("S2")

	err := s.RenameStep("S2", "S3")
	wantCode(t, err, errs.ErrCodeDuplicateStep)
	if got := errs.UserMessage(err); got != "Could not update step ID. A step with ID 'S3' might already exist." {
		t.Errorf("message = %q", got)
	}
	wantCode(t, s.RenameStep("S2", " padded"), errs.ErrCodeInvalidStepID)

	if err := s.RenameStep("S2", "Middle"); err != nil {
		t.Fatal(err)
	}
	if got := s.Rule().FindStep("S1").NextStepIDs; !reflect.DeepEqual(got, []string{"Middle"}) {
		t.Errorf("S1.next = %v", got)
	}
	if s.Selected() != "Middle" {
		t.Errorf("selected = %q", s.Selected())
	}
	if _, ok := s.Overrides()["Middle"]; !ok {
		t.Error("override not moved to new id")
	}
}

func TestRenameToSameIDIsNoop(t *testing.T) {
	s := newSession(t)
	if err := s.RenameStep("S1", "S1"); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("no-op rename marked the session dirty")
	}
}

func TestUpdateStepIsAtomic(t *testing.T) {
	s := newSession(t)
	before := s.Rule().FindStep("S2").Clone()

	taken, screen := "S1", "other"
	err := s.UpdateStep("S2", StepUpdate{ID: &taken, ScreenID: &screen})
	wantCode(t, err, errs.ErrCodeDuplicateStep)
	if got := s.Rule().FindStep("S2"); !reflect.DeepEqual(got, before) {
		t.Errorf("step changed on refused update: %+v", got)
	}

	id, guide, none := "S2b", "Tap next", ""
	cond := "always"
	s.Rule().FindStep("S2").ScreenMatcher = &cond
	err = s.UpdateStep("S2", StepUpdate{
		ID:                  &id,
		GuideContent:        &guide,
		NextStepIDs:         []string{"S3", "S3"},
		ScreenMatcher:       &none,
		TransitionCondition: &cond,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Rule().FindStep("S2b")
	if got == nil {
		t.Fatal("renamed step missing")
	}
	if got.GuideContent != guide || got.ScreenMatcher != nil || *got.TransitionCondition != "always" {
		t.Errorf("updated step = %+v", got)
	}
	if !reflect.DeepEqual(got.NextStepIDs, []string{"S3"}) {
		t.Errorf("next = %v", got.NextStepIDs)
	}
}

func TestLayoutCachedUntilMutation(t *testing.T) {
	s := newSession(t)
	d1 := s.Layout()
	if len(d1.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(d1.Nodes))
	}
	if s.diagram == nil {
		t.Fatal("diagram not cached")
	}
	if _, err := s.AddStep("S3"); err != nil {
		t.Fatal(err)
	}
	if s.diagram != nil {
		t.Fatal("mutation kept the cached diagram")
	}
	if d2 := s.Layout(); len(d2.Nodes) != 5 {
		t.Errorf("nodes after add = %d, want 5", len(d2.Nodes))
	}
}

func TestMoveStepAndRearrange(t *testing.T) {
	s := newSession(t)
	if err := s.MoveStep("S3", 2000, 900); err != nil {
		t.Fatal(err)
	}
	rect, ok := s.Layout().Rect("S3")
	if !ok {
		t.Fatal("S3 missing")
	}
	moved := rect
	s.Rearrange()
	rect, _ = s.Layout().Rect("S3")
	if rect == moved {
		t.Errorf("Rearrange kept position %v", rect)
	}
	if len(s.Overrides()) != 0 {
		t.Error("overrides not cleared")
	}
	wantCode(t, s.MoveStep("zz", 0, 0), errs.ErrCodeStepNotFound)
}

func TestNavigation(t *testing.T) {
	s := newSession(t)
	if s.Back() {
		t.Error("Back() on empty history = true")
	}
	_ = s.Select("S2")
	if got := s.Previous(); !reflect.DeepEqual(got, []string{"S1"}) {
		t.Errorf("Previous() = %v", got)
	}
	if got := s.Next(); !reflect.DeepEqual(got, []string{"S3", "Sub1"}) {
		t.Errorf("Next() = %v", got)
	}
	_ = s.Select("S3")
	_ = s.Select("Sub1")
	if !s.Back() || s.Selected() != "S3" {
		t.Errorf("Back() -> %q, want S3", s.Selected())
	}
	if !s.Back() || s.Selected() != "S2" {
		t.Errorf("Back() -> %q, want S2", s.Selected())
	}
	wantCode(t, s.Select("zz"), errs.ErrCodeStepNotFound)
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rules.json")
	other := rule.NewRule("r2")
	if err := io.ExportFileMulti([]*rule.Rule{chain(), other}, src); err != nil {
		t.Fatal(err)
	}

	s := New(WithIDGenerator(sequence()))
	if err := s.Import(src); err != nil {
		t.Fatal(err)
	}
	if s.Rule().ID != "r1" || len(s.Rules()) != 2 || s.Path() != src {
		t.Fatalf("rule = %s rules = %d path = %q", s.Rule().ID, len(s.Rules()), s.Path())
	}
	if _, err := s.AddStep("S3"); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.json")
	if err := s.Export(out); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() || s.Path() != out {
		t.Errorf("dirty = %v path = %q", s.Dirty(), s.Path())
	}
	back, err := io.ImportRule(out)
	if err != nil {
		t.Fatal(err)
	}
	if !back.HasStep("new_1") {
		t.Error("exported rule lacks the added step")
	}

	if err := s.Switch("r2"); err != nil {
		t.Fatal(err)
	}
	if s.Rule().ID != "r2" {
		t.Errorf("Switch -> %s", s.Rule().ID)
	}
	wantCode(t, s.Switch("r9"), errs.ErrCodeNoRules)

	all := filepath.Join(dir, "all.json")
	if err := s.ExportAll(all, nil); err != nil {
		t.Fatal(err)
	}
	rules, err := io.ImportFile(all)
	if err != nil || len(rules) != 2 {
		t.Fatalf("ImportFile(all) = %d, %v", len(rules), err)
	}
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	s := New()
	wantCode(t, s.Import(filepath.Join(dir, "missing.json")), errs.ErrCodeFileNotFound)

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"stepRules": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	wantCode(t, s.Import(empty), errs.ErrCodeNoRules)
	if s.Rule() != nil {
		t.Error("failed import opened a rule")
	}
}

func TestNewRule(t *testing.T) {
	s := New()
	wantCode(t, s.NewRule("  "), errs.ErrCodeInvalidInput)
	if err := s.NewRule("fresh"); err != nil {
		t.Fatal(err)
	}
	if s.Rule().ID != "fresh" || len(s.Rule().Steps) != 0 || !s.Dirty() {
		t.Errorf("rule = %+v dirty = %v", s.Rule(), s.Dirty())
	}
}

func TestValidate(t *testing.T) {
	s := newSession(t)
	s.Rule().FindStep("S3").NextStepIDs = []string{"ghost"}
	problems, err := s.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) == 0 {
		t.Error("Validate() found no problems for a dangling reference")
	}
}

func TestDefaultIDGenerator(t *testing.T) {
	a, b := defaultID(), defaultID()
	if a == b {
		t.Errorf("ids collide: %s", a)
	}
	if err := errs.ValidateStepID(a); err != nil {
		t.Errorf("generated id %q is invalid: %v", a, err)
	}
	if len(a) != len(newStepPrefix)+12 {
		t.Errorf("id %q has unexpected length", a)
	}
}

func TestStateStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewStateStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "rule.json")
	if err := io.ExportFile(chain(), path); err != nil {
		t.Fatal(err)
	}

	s := New()
	if err := s.Import(path); err != nil {
		t.Fatal(err)
	}
	_ = s.MoveStep("S3", 42, 7)
	_ = s.Select("S2")
	if err := s.SaveState(ctx, store); err != nil {
		t.Fatal(err)
	}

	fresh := New()
	if err := fresh.Import(path); err != nil {
		t.Fatal(err)
	}
	fresh.Rule().FindStep("S2").NextStepIDs = []string{"S3"}
	ok, err := fresh.RestoreState(ctx, store)
	if err != nil || !ok {
		t.Fatalf("RestoreState = %v, %v", ok, err)
	}
	if fresh.Overrides()["S3"] != (geometry.Point{X: 42, Y: 7}) || fresh.Selected() != "S2" {
		t.Errorf("restored overrides = %v selected = %q", fresh.Overrides(), fresh.Selected())
	}

	if n, err := store.Cleanup(ctx, time.Hour); err != nil || n != 0 {
		t.Errorf("Cleanup(fresh) = %d, %v", n, err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if n, err := store.Cleanup(ctx, time.Hour); err != nil || n != 1 {
		t.Errorf("Cleanup(orphan) = %d, %v", n, err)
	}
	if st, err := store.Get(ctx, StateKey(path, "r1")); err != nil || st != nil {
		t.Errorf("Get after cleanup = %v, %v", st, err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestSaveStateWithoutPath(t *testing.T) {
	store, err := NewStateStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t)
	if err := s.SaveState(context.Background(), store); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(store.Path())
	if len(entries) != 0 {
		t.Errorf("state written for unsaved rule: %d entries", len(entries))
	}
}
