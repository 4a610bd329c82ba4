package editor

import (
	errs "github.com/matzehuels/rulemaker/pkg/errors"
)

// Select makes id the selected step and records the previous selection for
// Back. An empty id clears the selection.
func (s *Session) Select(id string) error {
	if id == "" {
		s.selected = ""
		return nil
	}
	r, err := s.current()
	if err != nil {
		return err
	}
	if !r.HasStep(id) {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", id)
	}
	s.selectID(id)
	return nil
}

func (s *Session) selectID(id string) {
	if s.selected != "" && s.selected != id {
		s.history = append(s.history, s.selected)
	}
	s.selected = id
}

// Selected returns the selected step id, or "".
func (s *Session) Selected() string { return s.selected }

// Previous returns the steps that lead to the selection.
func (s *Session) Previous() []string {
	if s.rule == nil || s.selected == "" {
		return nil
	}
	return s.rule.Parents(s.selected)
}

// Next returns the successors of the selection.
func (s *Session) Next() []string {
	if s.rule == nil || s.selected == "" {
		return nil
	}
	step := s.rule.FindStep(s.selected)
	if step == nil {
		return nil
	}
	return append([]string(nil), step.NextStepIDs...)
}

// Back returns to the previously selected step. It reports false when the
// history is empty.
func (s *Session) Back() bool {
	for len(s.history) > 0 {
		id := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		if s.rule != nil && s.rule.HasStep(id) {
			s.selected = id
			return true
		}
	}
	return false
}
