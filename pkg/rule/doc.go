// Package rule defines the rule graph model: a named, directed graph of
// steps describing a UI-automation flow.
//
// A [Rule] owns an ordered list of [Step] values. Each step names its
// successors through NextStepIDs; those references are the edges of the
// graph. Steps flagged with IsSubStep are auxiliary and are laid out off
// the main horizontal spine.
//
// # Invariants
//
// Containers are never nil. Decoding a rule from JSON normalises absent or
// null arrays to empty slices, and [NewRule] and [NewStep] do the same, so
// callers never branch on nil.
//
// Step ids are unique within a rule. [Rule.AddStep] and [Rule.UpdateStepID]
// refuse to create a collision instead of failing later.
//
// # Mutation
//
// All structural edits are checked before anything is changed: a refused
// operation leaves the rule exactly as it was. [Rule.RemoveStep] refuses a
// step that still has outgoing references, and [SwapSteps] exchanges two
// steps' roles and connections in a single transaction.
//
// # Validation
//
// [Rule.Validate] reports dangling references and duplicate ids as
// human-readable strings; [Rule.FindIsolatedSteps] lists steps that are
// neither referenced nor reference anything.
package rule
