package rule

import (
	"encoding/json"
	"slices"
)

// LayoutMatcher is a UI-element matching rule attached to a step. It has no
// relation to diagram layout.
type LayoutMatcher struct {
	MatchTarget         string  `json:"matchTarget"`
	MatchOperand        string  `json:"matchOperand"`
	MatchCriteria       *string `json:"matchCriteria,omitempty"`
	HighlightType       *string `json:"highlightType,omitempty"`
	TransitionCondition *string `json:"transitionCondition,omitempty"`
}

// TargetApp identifies an application package a rule applies to.
type TargetApp struct {
	PackageName   string `json:"packageName"`
	MinAppVersion int64  `json:"minAppVersion"`
}

// Step is a node of the rule graph.
type Step struct {
	ID                  string          `json:"id"`
	ScreenID            string          `json:"screenId"`
	GuideContent        string          `json:"guideContent"`
	LayoutMatchers      []LayoutMatcher `json:"layoutMatchers"`
	NextStepIDs         []string        `json:"nextStepIds"`
	ScreenMatcher       *string         `json:"screenMatcher,omitempty"`
	TransitionCondition *string         `json:"transitionCondition,omitempty"`
	IsSubStep           bool            `json:"isSubStep"`
}

// NewStep returns a main step with the given id and screen.
func NewStep(id, screenID string) *Step {
	return &Step{
		ID:             id,
		ScreenID:       screenID,
		LayoutMatchers: []LayoutMatcher{},
		NextStepIDs:    []string{},
	}
}

// UnmarshalJSON decodes a step and normalises missing arrays to empty ones.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Step(p)
	s.normalize()
	return nil
}

func (s *Step) normalize() {
	if s.LayoutMatchers == nil {
		s.LayoutMatchers = []LayoutMatcher{}
	}
	if s.NextStepIDs == nil {
		s.NextStepIDs = []string{}
	}
}

// HasChildren reports whether the step references at least one successor.
func (s *Step) HasChildren() bool { return len(s.NextStepIDs) > 0 }

// AddNextStep appends id to the successors unless it is already present.
func (s *Step) AddNextStep(id string) {
	if !slices.Contains(s.NextStepIDs, id) {
		s.NextStepIDs = append(s.NextStepIDs, id)
	}
}

// RemoveNextStep drops every reference to id.
func (s *Step) RemoveNextStep(id string) {
	s.NextStepIDs = slices.DeleteFunc(s.NextStepIDs, func(n string) bool { return n == id })
}

// SetNextSteps replaces the successors, keeping the first occurrence of each id.
func (s *Step) SetNextSteps(ids []string) {
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.NextStepIDs = next
}

// Clone returns a deep copy of the step.
func (s *Step) Clone() *Step {
	c := *s
	c.NextStepIDs = slices.Clone(s.NextStepIDs)
	c.LayoutMatchers = make([]LayoutMatcher, len(s.LayoutMatchers))
	for i, m := range s.LayoutMatchers {
		c.LayoutMatchers[i] = LayoutMatcher{
			MatchTarget:         m.MatchTarget,
			MatchOperand:        m.MatchOperand,
			MatchCriteria:       clonePtr(m.MatchCriteria),
			HighlightType:       clonePtr(m.HighlightType),
			TransitionCondition: clonePtr(m.TransitionCondition),
		}
	}
	c.ScreenMatcher = clonePtr(s.ScreenMatcher)
	c.TransitionCondition = clonePtr(s.TransitionCondition)
	c.normalize()
	return &c
}

// Rule is a named directed graph of steps.
type Rule struct {
	ID                string      `json:"id"`
	RuleSpecVersion   int         `json:"ruleSpecVersion"`
	RuleVersion       int         `json:"ruleVersion"`
	TargetAppPackages []TargetApp `json:"targetAppPackages"`
	LandingURI        *string     `json:"landingUri,omitempty"`
	Utterances        []string    `json:"utterances"`
	PreConditions     []string    `json:"preConditions"`
	Steps             []*Step     `json:"steps"`
	EdgeColor         *string     `json:"edgeColor,omitempty"`
}

// NewRule returns an empty rule with the given id.
func NewRule(id string) *Rule {
	r := &Rule{ID: id, RuleSpecVersion: 1, RuleVersion: 1}
	r.normalize()
	return r
}

// UnmarshalJSON decodes a rule and normalises missing arrays to empty ones.
// Null entries in the steps array are dropped.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rule(p)
	r.Steps = slices.DeleteFunc(r.Steps, func(s *Step) bool { return s == nil })
	r.normalize()
	return nil
}

func (r *Rule) normalize() {
	if r.TargetAppPackages == nil {
		r.TargetAppPackages = []TargetApp{}
	}
	if r.Utterances == nil {
		r.Utterances = []string{}
	}
	if r.PreConditions == nil {
		r.PreConditions = []string{}
	}
	if r.Steps == nil {
		r.Steps = []*Step{}
	}
	for _, s := range r.Steps {
		s.normalize()
	}
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() *Rule {
	c := *r
	c.TargetAppPackages = slices.Clone(r.TargetAppPackages)
	c.Utterances = slices.Clone(r.Utterances)
	c.PreConditions = slices.Clone(r.PreConditions)
	c.LandingURI = clonePtr(r.LandingURI)
	c.EdgeColor = clonePtr(r.EdgeColor)
	c.Steps = make([]*Step, len(r.Steps))
	for i, s := range r.Steps {
		c.Steps[i] = s.Clone()
	}
	c.normalize()
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
