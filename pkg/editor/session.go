// Package editor holds the editing session behind every front end: the
// rule currently open, the user's manual positions, the selection, and the
// last computed diagram.
//
// Every operation either succeeds completely or returns a coded error and
// leaves the rule as it was. The error's [errors.UserMessage] is the text
// to show the user. Any successful mutation discards the cached diagram;
// [Session.Layout] recomputes it on demand.
//
// A Session is owned by one goroutine (the terminal editor's update loop or
// a single command) and is not safe for concurrent use.
//
// [errors.UserMessage]: github.com/matzehuels/rulemaker/pkg/errors.UserMessage
package editor

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/rulemaker/pkg/diagram"
	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/io"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// Defaults for steps created by AddStep and AddSubStep.
const (
	DefaultScreenID     = "com.example.activity"
	DefaultGuideContent = "New step"
	newStepPrefix       = "step_"
)

// Session is an editing session over a single rule.
type Session struct {
	rule  *rule.Rule
	rules []*rule.Rule // everything the last import returned; rule is one of them
	path  string

	cfg       diagram.Config
	overrides map[string]geometry.Point
	selected  string
	history   []string
	diagram   *diagram.Diagram
	dirty     bool

	newID  func() string
	logger *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the layout and routing constants.
func WithConfig(cfg diagram.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithIDGenerator replaces the generator of new step ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		cfg:       diagram.DefaultConfig(),
		overrides: make(map[string]geometry.Point),
		newID:     defaultID,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultID() string {
	return newStepPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Rule returns the open rule, or nil.
func (s *Session) Rule() *rule.Rule { return s.rule }

// Rules returns every rule of the last import, with the open rule in place.
func (s *Session) Rules() []*rule.Rule { return slices.Clone(s.rules) }

// Path returns the file the rule was last imported from or exported to.
func (s *Session) Path() string { return s.path }

// Dirty reports whether the rule changed since it was loaded or exported.
func (s *Session) Dirty() bool { return s.dirty }

// Overrides returns a copy of the manual positions.
func (s *Session) Overrides() map[string]geometry.Point { return maps.Clone(s.overrides) }

// Import opens the first rule of the file at path.
func (s *Session) Import(path string) error {
	rules, err := io.ImportFile(path)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return errs.New(errs.ErrCodeNoRules, "No rules found in file")
	}
	s.open(rules[0])
	s.rules = rules
	s.path = path
	s.logger.Debug("imported rules", "path", path, "rules", len(rules), "open", rules[0].ID)
	return nil
}

// Load opens r. The session edits r in place.
func (s *Session) Load(r *rule.Rule) error {
	if r == nil {
		return errs.New(errs.ErrCodeNoRuleLoaded, "No rule is currently loaded")
	}
	s.open(r)
	s.rules = []*rule.Rule{r}
	s.path = ""
	return nil
}

// Switch opens the rule with the given id from the last import.
func (s *Session) Switch(id string) error {
	for _, r := range s.rules {
		if r.ID == id {
			path, rules := s.path, s.rules
			s.open(r)
			s.path, s.rules = path, rules
			return nil
		}
	}
	return errs.New(errs.ErrCodeNoRules, "Rule '%s' not found", id)
}

// NewRule opens a new empty rule.
func (s *Session) NewRule(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.New(errs.ErrCodeInvalidInput, "Rule ID cannot be empty")
	}
	r := rule.NewRule(id)
	s.open(r)
	s.rules = []*rule.Rule{r}
	s.path = ""
	s.dirty = true
	return nil
}

func (s *Session) open(r *rule.Rule) {
	s.rule = r
	s.overrides = make(map[string]geometry.Point)
	s.selected = ""
	s.history = nil
	s.dirty = false
	s.invalidate()
}

// Export writes the open rule to path.
func (s *Session) Export(path string) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	if err := io.ExportFile(r, path); err != nil {
		return err
	}
	s.path = path
	s.dirty = false
	s.logger.Debug("exported rule", "path", path, "rule", r.ID)
	return nil
}

// ExportAll writes rules to path in the multi-rule shape. A nil slice
// means every rule of the last import.
func (s *Session) ExportAll(path string, rules []*rule.Rule) error {
	if rules == nil {
		rules = s.rules
	}
	if len(rules) == 0 {
		return errs.New(errs.ErrCodeNoRuleLoaded, "No rule is currently loaded")
	}
	if err := io.ExportFileMulti(rules, path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// AddStep creates a main step. With an empty parentID the step is added
// unconnected; otherwise it is spliced in after the parent. The new step
// becomes the selection.
func (s *Session) AddStep(parentID string) (*rule.Step, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	step := s.newStep(false)
	if parentID == "" {
		err = r.AddStep(step)
	} else {
		err = rule.InsertAfter(r, parentID, step)
	}
	if err != nil {
		return nil, err
	}
	s.changed()
	s.selectID(step.ID)
	return step, nil
}

// AddSubStep creates a sub-step of parentID and selects it.
func (s *Session) AddSubStep(parentID string) (*rule.Step, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	step := s.newStep(true)
	if err := rule.AddSubStep(r, parentID, step); err != nil {
		return nil, err
	}
	s.changed()
	s.selectID(step.ID)
	return step, nil
}

func (s *Session) newStep(sub bool) *rule.Step {
	step := rule.NewStep(s.newID(), DefaultScreenID)
	step.GuideContent = DefaultGuideContent
	step.IsSubStep = sub
	return step
}

// RemoveStep deletes a step that has no outgoing connections.
func (s *Session) RemoveStep(id string) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	step := r.FindStep(id)
	if step == nil {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", id)
	}
	if step.HasChildren() {
		return errs.New(errs.ErrCodeStepHasChildren,
			"Cannot remove step '%s' because it has next steps. Remove the connections first.", id)
	}
	if !r.RemoveStep(id) {
		return errs.New(errs.ErrCodeInternal, "Could not remove step '%s'", id)
	}
	delete(s.overrides, id)
	if s.selected == id {
		s.selected = ""
	}
	s.history = slices.DeleteFunc(s.history, func(h string) bool { return h == id })
	s.changed()
	return nil
}

// SwapSteps exchanges the roles of two steps. Manual positions move with
// the roles, so each step lands where the other one was pinned.
func (s *Session) SwapSteps(a, b string) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	if err := rule.SwapSteps(r, a, b); err != nil {
		return err
	}
	pa, okA := s.overrides[a]
	pb, okB := s.overrides[b]
	delete(s.overrides, a)
	delete(s.overrides, b)
	if okA {
		s.overrides[b] = pa
	}
	if okB {
		s.overrides[a] = pb
	}
	s.changed()
	return nil
}

// RenameStep changes a step's id and every reference to it.
func (s *Session) RenameStep(oldID, newID string) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	if err := s.checkRename(r, oldID, newID); err != nil {
		return err
	}
	if oldID == newID {
		return nil
	}
	if !r.UpdateStepID(oldID, newID) {
		return errs.New(errs.ErrCodeInternal, "Could not update step ID '%s'", oldID)
	}
	s.renamed(oldID, newID)
	s.changed()
	return nil
}

func (s *Session) checkRename(r *rule.Rule, oldID, newID string) error {
	if !r.HasStep(oldID) {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", oldID)
	}
	if err := errs.ValidateStepID(newID); err != nil {
		return err
	}
	if oldID != newID && r.HasStep(newID) {
		return errs.New(errs.ErrCodeDuplicateStep,
			"Could not update step ID. A step with ID '%s' might already exist.", newID)
	}
	return nil
}

func (s *Session) renamed(oldID, newID string) {
	if p, ok := s.overrides[oldID]; ok {
		delete(s.overrides, oldID)
		s.overrides[newID] = p
	}
	if s.selected == oldID {
		s.selected = newID
	}
	for i, h := range s.history {
		if h == oldID {
			s.history[i] = newID
		}
	}
}

// MoveStep pins a step at (x, y). The position survives recomputation
// until Rearrange, or until the step is removed.
func (s *Session) MoveStep(id string, x, y float64) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	if !r.HasStep(id) {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", id)
	}
	s.overrides[id] = geometry.Point{X: x, Y: y}
	s.invalidate()
	return nil
}

// Rearrange drops every manual position.
func (s *Session) Rearrange() {
	s.overrides = make(map[string]geometry.Point)
	s.invalidate()
}

// Refresh discards the cached diagram and recomputes it.
func (s *Session) Refresh() diagram.Diagram {
	s.invalidate()
	return s.Layout()
}

// Layout returns the diagram of the open rule, computing it if needed. An
// empty diagram is returned when no rule is open.
func (s *Session) Layout() diagram.Diagram {
	if s.rule == nil {
		return diagram.Diagram{}
	}
	if s.diagram == nil {
		cfg := s.cfg
		cfg.Layout = cfg.Layout.WithOverrides(maps.Clone(s.overrides))
		d := diagram.Compute(s.rule, cfg)
		s.diagram = &d
		s.logger.Debug("computed layout", "rule", s.rule.ID, "steps", len(d.Nodes), "edges", len(d.Edges))
	}
	return *s.diagram
}

// Validate returns the structural problems of the open rule.
func (s *Session) Validate() ([]string, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	return r.Validate(), nil
}

func (s *Session) current() (*rule.Rule, error) {
	if s.rule == nil {
		return nil, errs.New(errs.ErrCodeNoRuleLoaded, "No rule is currently loaded")
	}
	return s.rule, nil
}

func (s *Session) changed() {
	s.dirty = true
	s.invalidate()
}

func (s *Session) invalidate() { s.diagram = nil }
