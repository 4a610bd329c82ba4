package editor

import (
	"slices"

	"github.com/matzehuels/rulemaker/pkg/rule"
)

// StepUpdate carries the fields edited in the step form. Nil fields are
// left unchanged. A pointer to an empty string clears ScreenMatcher or
// TransitionCondition.
type StepUpdate struct {
	ID                  *string
	ScreenID            *string
	GuideContent        *string
	NextStepIDs         []string
	LayoutMatchers      []rule.LayoutMatcher
	ScreenMatcher       *string
	TransitionCondition *string
	IsSubStep           *bool
}

// UpdateStep applies u to the step with the given id. Either every field
// is applied or, when the rename is refused, none is.
func (s *Session) UpdateStep(id string, u StepUpdate) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	newID := id
	if u.ID != nil {
		newID = *u.ID
	}
	if err := s.checkRename(r, id, newID); err != nil {
		return err
	}

	step := r.FindStep(id)
	if u.ScreenID != nil {
		step.ScreenID = *u.ScreenID
	}
	if u.GuideContent != nil {
		step.GuideContent = *u.GuideContent
	}
	if u.NextStepIDs != nil {
		step.SetNextSteps(u.NextStepIDs)
	}
	if u.LayoutMatchers != nil {
		step.LayoutMatchers = slices.Clone(u.LayoutMatchers)
	}
	if u.ScreenMatcher != nil {
		step.ScreenMatcher = optional(*u.ScreenMatcher)
	}
	if u.TransitionCondition != nil {
		step.TransitionCondition = optional(*u.TransitionCondition)
	}
	if u.IsSubStep != nil {
		step.IsSubStep = *u.IsSubStep
	}
	if newID != id {
		r.UpdateStepID(id, newID)
		s.renamed(id, newID)
	}
	s.changed()
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
