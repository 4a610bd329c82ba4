package rule

import (
	"fmt"
	"slices"
	"strings"

	errs "github.com/matzehuels/rulemaker/pkg/errors"
)

// FindStep returns the first step with the given id, or nil.
func (r *Rule) FindStep(id string) *Step {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// HasStep reports whether a step with the given id exists.
func (r *Rule) HasStep(id string) bool { return r.FindStep(id) != nil }

// StepIDs returns the step ids in step order.
func (r *Rule) StepIDs() []string {
	ids := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		ids[i] = s.ID
	}
	return ids
}

// AddStep appends s to the rule. It refuses an invalid or already used id
// and leaves the rule unchanged in that case.
func (r *Rule) AddStep(s *Step) error {
	if s == nil {
		return errs.New(errs.ErrCodeInvalidInput, "step must not be nil")
	}
	if err := errs.ValidateStepID(s.ID); err != nil {
		return err
	}
	if r.HasStep(s.ID) {
		return errs.New(errs.ErrCodeDuplicateStep, "Step ID '%s' already exists", s.ID)
	}
	s.normalize()
	r.Steps = append(r.Steps, s)
	return nil
}

// RemoveStep deletes the first step with the given id and strips every
// reference to it. A step that still has outgoing references is not
// removed; in that case, and when the id is unknown, RemoveStep returns
// false and the rule is unchanged.
//
// When the id is duplicated only the step FindStep returns is deleted, and
// references stay in place while another step still carries the id.
func (r *Rule) RemoveStep(id string) bool {
	s := r.FindStep(id)
	if s == nil || s.HasChildren() {
		return false
	}
	r.Steps = slices.DeleteFunc(r.Steps, func(other *Step) bool { return other == s })
	if r.HasStep(id) {
		return true
	}
	for _, other := range r.Steps {
		other.RemoveNextStep(id)
	}
	return true
}

// UpdateStepID renames a step and rewrites every reference to it. It
// returns false without changing anything when oldID is unknown or newID
// belongs to another step. Renaming a step to its own id is a no-op.
func (r *Rule) UpdateStepID(oldID, newID string) bool {
	s := r.FindStep(oldID)
	if s == nil {
		return false
	}
	if oldID == newID {
		return true
	}
	if r.HasStep(newID) {
		return false
	}
	for _, other := range r.Steps {
		for i, n := range other.NextStepIDs {
			if n == oldID {
				other.NextStepIDs[i] = newID
			}
		}
	}
	s.ID = newID
	return true
}

// EdgeCount returns the total number of successor references.
func (r *Rule) EdgeCount() int {
	n := 0
	for _, s := range r.Steps {
		n += len(s.NextStepIDs)
	}
	return n
}

// ValidateNextStepReferences lists every reference to a step that does not
// exist, in step order.
func (r *Rule) ValidateNextStepReferences() []string {
	known := make(map[string]bool, len(r.Steps))
	for _, s := range r.Steps {
		known[s.ID] = true
	}
	var problems []string
	for _, s := range r.Steps {
		for _, next := range s.NextStepIDs {
			if !known[next] {
				problems = append(problems, fmt.Sprintf("Step %s references non-existent step %s", s.ID, next))
			}
		}
	}
	return problems
}

// FindIsolatedSteps returns steps with no incoming and no outgoing references.
func (r *Rule) FindIsolatedSteps() []*Step {
	referenced := r.referenced()
	var isolated []*Step
	for _, s := range r.Steps {
		if !referenced[s.ID] && !s.HasChildren() {
			isolated = append(isolated, s)
		}
	}
	return isolated
}

// FindDuplicateStepIDs returns each id that occurs more than once, reported
// once per extra occurrence, in step order.
func (r *Rule) FindDuplicateStepIDs() []string {
	seen := make(map[string]bool, len(r.Steps))
	var dups []string
	for _, s := range r.Steps {
		if seen[s.ID] {
			dups = append(dups, s.ID)
			continue
		}
		seen[s.ID] = true
	}
	return dups
}

// Validate combines the dangling-reference and duplicate-id checks.
// An empty result means the rule is structurally sound.
func (r *Rule) Validate() []string {
	problems := r.ValidateNextStepReferences()
	if dups := r.FindDuplicateStepIDs(); len(dups) > 0 {
		problems = append(problems, "Duplicate step IDs found: "+strings.Join(dups, ", "))
	}
	return problems
}

// Parents returns the ids of steps referencing id, in step order.
func (r *Rule) Parents(id string) []string {
	var parents []string
	for _, s := range r.Steps {
		if slices.Contains(s.NextStepIDs, id) {
			parents = append(parents, s.ID)
		}
	}
	return parents
}

func (r *Rule) referenced() map[string]bool {
	referenced := make(map[string]bool)
	for _, s := range r.Steps {
		for _, next := range s.NextStepIDs {
			referenced[next] = true
		}
	}
	return referenced
}
