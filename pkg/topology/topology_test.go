package topology

import (
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

func build(t *testing.T, steps ...*rule.Step) *rule.Rule {
	t.Helper()
	r := rule.NewRule("test")
	for _, s := range steps {
		if err := r.AddStep(s); err != nil {
			t.Fatalf("AddStep(%s): %v", s.ID, err)
		}
	}
	return r
}

func mainStep(id string, next ...string) *rule.Step {
	return &rule.Step{ID: id, NextStepIDs: next}
}

func subStep(id string, next ...string) *rule.Step {
	return &rule.Step{ID: id, NextStepIDs: next, IsSubStep: true}
}

func TestStartAndEndNodes(t *testing.T) {
	r := build(t, mainStep("S1", "S2"), mainStep("S2", "S3", "Sub1"), mainStep("S3"), subStep("Sub1"))

	if got := StartNodes(r); !reflect.DeepEqual(got, []string{"S1"}) {
		t.Errorf("StartNodes() = %v, want [S1]", got)
	}
	if got := EndNodes(r); !reflect.DeepEqual(got, []string{"S3", "Sub1"}) {
		t.Errorf("EndNodes() = %v, want [S3 Sub1]", got)
	}
	if !IsStart(r, "S1") || IsStart(r, "S2") {
		t.Error("IsStart mismatch")
	}
}

func TestStartNodesCyclic(t *testing.T) {
	r := build(t, mainStep("A", "B"), mainStep("B", "C"), mainStep("C", "A"))
	if got := StartNodes(r); len(got) != 0 {
		t.Errorf("StartNodes() = %v, want none", got)
	}
}

func TestBidirectionalPairs(t *testing.T) {
	tests := []struct {
		name  string
		steps []*rule.Step
		want  []Pair
	}{
		{
			name:  "forward order",
			steps: []*rule.Step{mainStep("A", "B"), mainStep("B", "A")},
			want:  []Pair{{A: "A", B: "B"}},
		},
		{
			name:  "reverse order",
			steps: []*rule.Step{mainStep("B", "A"), mainStep("A", "B")},
			want:  []Pair{{A: "A", B: "B"}},
		},
		{
			name:  "self loop ignored",
			steps: []*rule.Step{mainStep("A", "A", "B"), mainStep("B")},
			want:  nil,
		},
		{
			name:  "two pairs",
			steps: []*rule.Step{mainStep("M", "X", "Help"), subStep("Help", "M"), mainStep("X", "M")},
			want:  []Pair{{A: "M", B: "X"}, {A: "Help", B: "M"}},
		},
		{
			name:  "dangling",
			steps: []*rule.Step{mainStep("A", "Ghost")},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BidirectionalPairs(build(t, tt.steps...))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BidirectionalPairs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPair(t *testing.T) {
	p := Pair{A: "A", B: "B"}
	if !p.Has("A") || !p.Has("B") || p.Has("C") {
		t.Error("Has mismatch")
	}
	if p.Other("A") != "B" || p.Other("B") != "A" || p.Other("C") != "" {
		t.Error("Other mismatch")
	}
	if !InPair([]Pair{p}, "B", "A") || InPair([]Pair{p}, "A", "C") {
		t.Error("InPair mismatch")
	}
}

func TestMainFlowPath(t *testing.T) {
	tests := []struct {
		name  string
		steps []*rule.Step
		want  []string
	}{
		{
			name:  "chain with sub",
			steps: []*rule.Step{mainStep("S1", "S2"), mainStep("S2", "S3", "Sub1"), mainStep("S3"), subStep("Sub1")},
			want:  []string{"S1", "S2", "S3"},
		},
		{
			name:  "breadth first",
			steps: []*rule.Step{mainStep("A", "B", "C"), mainStep("B", "D"), mainStep("C"), mainStep("D")},
			want:  []string{"A", "B", "C", "D"},
		},
		{
			name:  "cycle has no start",
			steps: []*rule.Step{mainStep("A", "B"), mainStep("B", "C"), mainStep("C", "A")},
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "disconnected components",
			steps: []*rule.Step{mainStep("A", "B"), mainStep("B"), mainStep("X", "Y"), mainStep("Y")},
			want:  []string{"A", "B", "X", "Y"},
		},
		{
			name:  "sub-step start is skipped",
			steps: []*rule.Step{subStep("Intro", "B"), mainStep("A", "B"), mainStep("B")},
			want:  []string{"A", "B"},
		},
		{
			name:  "walk does not pass through sub-steps",
			steps: []*rule.Step{mainStep("A", "Help"), subStep("Help", "B"), mainStep("B")},
			want:  []string{"A", "B"},
		},
		{
			name:  "only sub-steps",
			steps: []*rule.Step{subStep("X"), subStep("Y")},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MainFlowPath(build(t, tt.steps...))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MainFlowPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMainFlowCoverage(t *testing.T) {
	r := build(t,
		mainStep("A", "B", "Sub"), mainStep("B", "A"), subStep("Sub", "C"),
		mainStep("C", "D"), mainStep("D", "C"), mainStep("E"), subStep("Lone"),
	)
	path := MainFlowPath(r)

	var mains []string
	for _, s := range r.Steps {
		if !s.IsSubStep {
			mains = append(mains, s.ID)
		}
	}
	if len(path) != len(mains) {
		t.Fatalf("MainFlowPath() = %v, want each of %v once", path, mains)
	}
	for _, id := range mains {
		if !slices.Contains(path, id) {
			t.Errorf("main step %s missing from %v", id, path)
		}
	}
}

func TestSubStepsAndParents(t *testing.T) {
	r := build(t, mainStep("S1", "S2", "B", "A"), mainStep("S2", "A"), subStep("A"), subStep("B"))
	if got := SubSteps(r, "S1"); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("SubSteps() = %v, want [B A]", got)
	}
	if got := Parents(r, "A"); !reflect.DeepEqual(got, []string{"S1", "S2"}) {
		t.Errorf("Parents() = %v, want [S1 S2]", got)
	}
	if got := SubSteps(r, "Ghost"); got != nil {
		t.Errorf("SubSteps(unknown) = %v, want nil", got)
	}
}

type fakeGeometry struct {
	rects map[string]geometry.Rect
	sides map[string]geometry.Side
}

func (g fakeGeometry) Rect(id string) (geometry.Rect, bool) {
	r, ok := g.rects[id]
	return r, ok
}

func (g fakeGeometry) Side(id string) geometry.Side { return g.sides[id] }

func box(x, y float64) geometry.Rect { return geometry.Rect{X: x, Y: y, Width: 140, Height: 45} }

func TestNodesOnPath(t *testing.T) {
	// M1 ── M2 on the flow; Help hangs off M1 to the right, Detail sits
	// between Help and M2 on the same side, Tip is below.
	r := build(t,
		mainStep("M1", "M2", "Help", "Tip"), mainStep("M2", "Back"),
		subStep("Help", "M2"), subStep("Detail"), subStep("Tip", "M1"), subStep("Back", "M2"),
	)
	geo := fakeGeometry{
		rects: map[string]geometry.Rect{
			"M1":     box(100, 200),
			"M2":     box(650, 200),
			"Help":   box(360, 100),
			"Detail": box(500, 100),
			"Tip":    box(360, 300),
			"Back":   box(630, 100),
		},
		sides: map[string]geometry.Side{
			"M1": geometry.OnFlow, "M2": geometry.OnFlow,
			"Help": geometry.Above, "Detail": geometry.Above, "Back": geometry.Above,
			"Tip": geometry.Below,
		},
	}

	tests := []struct {
		name        string
		src, tgt    string
		sourceIsSub bool
		want        []string
	}{
		{"target sub-steps on the same side", "Help", "M2", true, []string{"Back"}},
		{"scan between, same side only", "Tip", "M2", true, nil},
		{"vertically stacked", "Back", "M2", true, nil},
		{"missing geometry", "Ghost", "M2", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NodesOnPath(r, geo, tt.src, tt.tgt, tt.sourceIsSub)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NodesOnPath(%s, %s) = %v, want %v", tt.src, tt.tgt, got, tt.want)
			}
		})
	}

	// A source that is also one of the target's sub-steps is not listed.
	r.FindStep("M2").AddNextStep("Help")
	if got := NodesOnPath(r, geo, "Help", "M2", true); !reflect.DeepEqual(got, []string{"Back"}) {
		t.Errorf("NodesOnPath(Help, M2) with M2 -> Help = %v, want [Back]", got)
	}
	r.FindStep("M2").RemoveNextStep("Help")

	// Without sibling sub-steps of the target, the scan picks up Detail.
	r.FindStep("M2").RemoveNextStep("Back")
	if got := NodesOnPath(r, geo, "Help", "M2", true); !reflect.DeepEqual(got, []string{"Detail", "Back"}) {
		t.Errorf("NodesOnPath(Help, M2) = %v, want [Detail Back]", got)
	}
}
