package rule

import (
	"slices"

	errs "github.com/matzehuels/rulemaker/pkg/errors"
)

// SwapSteps exchanges the roles of two steps in one transaction. Afterwards
// the step formerly known as a has b's sub-step flag and successors and
// vice versa, and every other step that referenced a now references b and
// vice versa. Ids, screens and content stay with their steps.
//
// The edge count is preserved. If either id is unknown the rule is left
// untouched and a STEP_NOT_FOUND error is returned.
func SwapSteps(r *Rule, a, b string) error {
	sa := r.FindStep(a)
	if sa == nil {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", a)
	}
	sb := r.FindStep(b)
	if sb == nil {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", b)
	}
	if a == b {
		return nil
	}

	swapRef := func(ids []string) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			switch id {
			case a:
				out[i] = b
			case b:
				out[i] = a
			default:
				out[i] = id
			}
		}
		return out
	}

	// Successor lists are computed before anything is assigned so a
	// self-loop or a mutual pair keeps pointing at the same structural slot.
	nextA, nextB := swapRef(sb.NextStepIDs), swapRef(sa.NextStepIDs)
	others := make(map[*Step][]string)
	for _, s := range r.Steps {
		if s != sa && s != sb {
			others[s] = swapRef(s.NextStepIDs)
		}
	}

	sa.NextStepIDs, sb.NextStepIDs = nextA, nextB
	sa.IsSubStep, sb.IsSubStep = sb.IsSubStep, sa.IsSubStep
	for s, next := range others {
		s.NextStepIDs = next
	}
	return nil
}

// InsertAfter adds step as a successor of parent. When parent already leads
// to a main step, the new step is spliced in between: parent→next becomes
// parent→step→next. Otherwise step is simply appended to parent's
// successors. The rule is unchanged when parent is unknown or step's id is
// invalid or taken.
func InsertAfter(r *Rule, parentID string, step *Step) error {
	parent := r.FindStep(parentID)
	if parent == nil {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", parentID)
	}
	if err := r.AddStep(step); err != nil {
		return err
	}

	idx := slices.IndexFunc(parent.NextStepIDs, func(id string) bool {
		next := r.FindStep(id)
		return next != nil && !next.IsSubStep && next != step
	})
	if idx < 0 {
		parent.AddNextStep(step.ID)
		return nil
	}
	next := parent.NextStepIDs[idx]
	parent.NextStepIDs[idx] = step.ID
	step.AddNextStep(next)
	return nil
}

// AddSubStep adds step as a sub-step of parent.
func AddSubStep(r *Rule, parentID string, step *Step) error {
	parent := r.FindStep(parentID)
	if parent == nil {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", parentID)
	}
	step.IsSubStep = true
	if err := r.AddStep(step); err != nil {
		return err
	}
	parent.AddNextStep(step.ID)
	return nil
}
