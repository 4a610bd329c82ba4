package route

import (
	"reflect"
	"testing"

	"github.com/matzehuels/rulemaker/pkg/geometry"
	"github.com/matzehuels/rulemaker/pkg/layout"
	"github.com/matzehuels/rulemaker/pkg/rule"
	"github.com/matzehuels/rulemaker/pkg/topology"
)

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

func find(t *testing.T, es Edges, id string) Edge {
	t.Helper()
	for _, e := range es {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("edge %s not routed", id)
	return Edge{}
}

func TestRouteChainWithSubStep(t *testing.T) {
	r := build(t,
		&rule.Step{ID: "S1", NextStepIDs: []string{"S2"}},
		&rule.Step{ID: "S2", NextStepIDs: []string{"S3", "Sub1"}},
		&rule.Step{ID: "S3"},
		&rule.Step{ID: "Sub1", IsSubStep: true},
	)
	p := layout.Place(r, topology.MainFlowPath(r), topology.BidirectionalPairs(r), layout.DefaultOptions())
	es := Route(r, p, DefaultOptions())

	if len(es) != 3 {
		t.Fatalf("routed %d edges, want 3", len(es))
	}
	for _, id := range []string{"edge_S1_to_S2", "edge_S2_to_S3"} {
		e := find(t, es, id)
		if e.Class != MainToMain || len(e.Waypoints) != 0 || !e.Styled {
			t.Errorf("%s = %+v, want styled main-to-main without waypoints", id, e)
		}
	}

	sub := find(t, es, "edge_S2_to_Sub1")
	if sub.Class != MainToSub || sub.Detour != "" {
		t.Errorf("class = %v detour = %q, want main-to-sub without detour", sub.Class, sub.Detour)
	}
	want := []geometry.Point{{X: 850, Y: 222.5}, {X: 850, Y: 122.5}}
	if !reflect.DeepEqual(sub.Waypoints, want) {
		t.Errorf("waypoints = %v, want %v", sub.Waypoints, want)
	}
	if sub.Style.Color != DefaultColor || sub.Style.StrokeWidth != 2 || !sub.Style.Rounded {
		t.Errorf("style = %+v", sub.Style)
	}
}

func TestRouteMainToSub(t *testing.T) {
	tests := []struct {
		name string
		sub  geometry.Rect
		want []geometry.Point
	}{
		{"stacked", box(655, 300), []geometry.Point{}},
		{"right, same row", box(900, 210), []geometry.Point{}},
		{"right, elbow", box(910, 100), []geometry.Point{{X: 850, Y: 222.5}, {X: 850, Y: 122.5}}},
		{"left", box(500, 300), []geometry.Point{{X: 820, Y: 222.5}, {X: 820, Y: 322.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := build(t, &rule.Step{ID: "M", NextStepIDs: []string{"S"}}, &rule.Step{ID: "S", IsSubStep: true})
			geo := fakeGeometry{rects: map[string]geometry.Rect{"M": box(650, 200), "S": tt.sub}}
			e := find(t, Route(r, geo, DefaultOptions()), "edge_M_to_S")
			if !reflect.DeepEqual(e.Waypoints, tt.want) {
				t.Errorf("waypoints = %v, want %v", e.Waypoints, tt.want)
			}
		})
	}
}

func TestRouteSubToMainDirect(t *testing.T) {
	tests := []struct {
		name string
		sub  geometry.Rect
		want []geometry.Point
	}{
		{"stacked", box(660, 100), []geometry.Point{}},
		{"above", box(700, 100), []geometry.Point{{X: 880, Y: 122.5}, {X: 880, Y: 190}, {X: 720, Y: 190}}},
		{"below", box(700, 300), []geometry.Point{{X: 880, Y: 322.5}, {X: 880, Y: 255}, {X: 720, Y: 255}}},
		{"beside", box(900, 210), []geometry.Point{{X: 1080, Y: 232.5}, {X: 720, Y: 232.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := build(t, &rule.Step{ID: "S", IsSubStep: true, NextStepIDs: []string{"M"}}, &rule.Step{ID: "M"})
			side := geometry.Above
			if tt.sub.Y >= 200 {
				side = geometry.Below
			}
			geo := fakeGeometry{
				rects: map[string]geometry.Rect{"M": box(650, 200), "S": tt.sub},
				sides: map[string]geometry.Side{"M": geometry.OnFlow, "S": side},
			}
			e := find(t, Route(r, geo, DefaultOptions()), "edge_S_to_M")
			if e.Class != SubToMain || e.Detour != "" {
				t.Errorf("class = %v detour = %q", e.Class, e.Detour)
			}
			if !reflect.DeepEqual(e.Waypoints, tt.want) {
				t.Errorf("waypoints = %v, want %v", e.Waypoints, tt.want)
			}
		})
	}
}

func TestRouteSubToMainDetour(t *testing.T) {
	r := build(t,
		&rule.Step{ID: "M1", NextStepIDs: []string{"M2", "Help"}},
		&rule.Step{ID: "M2", NextStepIDs: []string{"Back"}},
		&rule.Step{ID: "Help", IsSubStep: true, NextStepIDs: []string{"M2"}},
		&rule.Step{ID: "Back", IsSubStep: true},
	)
	geo := fakeGeometry{
		rects: map[string]geometry.Rect{
			"M1": box(100, 200), "M2": box(650, 200),
			"Help": box(360, 100), "Back": box(630, 100),
		},
		sides: map[string]geometry.Side{
			"M1": geometry.OnFlow, "M2": geometry.OnFlow,
			"Help": geometry.Above, "Back": geometry.Above,
		},
	}

	e := find(t, Route(r, geo, DefaultOptions()), "edge_Help_to_M2")
	if e.Detour != "Back" {
		t.Fatalf("Detour = %q, want Back", e.Detour)
	}
	want := []geometry.Point{
		{X: 520, Y: 122.5},
		{X: 520, Y: 70},
		{X: 810, Y: 70},
		{X: 810, Y: 245},
		{X: 750, Y: 245},
	}
	if !reflect.DeepEqual(e.Waypoints, want) {
		t.Errorf("waypoints = %v, want %v", e.Waypoints, want)
	}
}

func TestRouteSubToMainDetourFromBelow(t *testing.T) {
	r := build(t,
		&rule.Step{ID: "M2", NextStepIDs: []string{"Back"}},
		&rule.Step{ID: "Tip", IsSubStep: true, NextStepIDs: []string{"M2"}},
		&rule.Step{ID: "Back", IsSubStep: true},
	)
	geo := fakeGeometry{
		rects: map[string]geometry.Rect{"M2": box(650, 200), "Tip": box(360, 300), "Back": box(600, 300)},
		sides: map[string]geometry.Side{"M2": geometry.OnFlow, "Tip": geometry.Below, "Back": geometry.Below},
	}

	e := find(t, Route(r, geo, DefaultOptions()), "edge_Tip_to_M2")
	want := []geometry.Point{
		{X: 520, Y: 322.5},
		{X: 520, Y: 375},
		{X: 780, Y: 375},
		{X: 780, Y: 200},
		{X: 750, Y: 200},
	}
	if e.Detour != "Back" || !reflect.DeepEqual(e.Waypoints, want) {
		t.Errorf("detour = %q waypoints = %v, want Back %v", e.Detour, e.Waypoints, want)
	}
}

func TestRouteMissingGeometry(t *testing.T) {
	r := build(t, &rule.Step{ID: "A", NextStepIDs: []string{"B"}}, &rule.Step{ID: "B", IsSubStep: true})
	geo := fakeGeometry{rects: map[string]geometry.Rect{"A": box(0, 0)}}

	es := Route(r, geo, DefaultOptions())
	if len(es) != 1 {
		t.Fatalf("routed %d edges, want 1", len(es))
	}
	if es[0].Styled || len(es[0].Waypoints) != 0 {
		t.Errorf("edge = %+v, want unstyled without waypoints", es[0])
	}
}

func TestRouteSkipsDanglingAndNumbersRepeats(t *testing.T) {
	color := "#ff0000"
	r := build(t,
		&rule.Step{ID: "A", NextStepIDs: []string{"B", "Ghost"}},
		&rule.Step{ID: "B"},
	)
	r.FindStep("A").NextStepIDs = append(r.FindStep("A").NextStepIDs, "B")
	r.EdgeColor = &color

	geo := fakeGeometry{rects: map[string]geometry.Rect{"A": box(0, 0), "B": box(550, 0)}}
	es := Route(r, geo, DefaultOptions())

	var ids []string
	for _, e := range es {
		ids = append(ids, e.ID)
		if e.Style.Color != "#ff0000" {
			t.Errorf("%s colour = %s, want rule colour", e.ID, e.Style.Color)
		}
	}
	if !reflect.DeepEqual(ids, []string{"edge_A_to_B", "edge_A_to_B_2"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestEdgesTranslate(t *testing.T) {
	es := Edges{{ID: "e", Waypoints: []geometry.Point{{X: 1, Y: 2}}}}
	moved := es.Translate(geometry.Point{X: 10, Y: 20})
	if moved[0].Waypoints[0] != (geometry.Point{X: 11, Y: 22}) {
		t.Errorf("Translate() = %v", moved[0].Waypoints)
	}
	if es[0].Waypoints[0] != (geometry.Point{X: 1, Y: 2}) {
		t.Error("Translate mutated the original")
	}
	if got := moved.Waypoints(); len(got) != 1 || len(got[0]) != 1 {
		t.Errorf("Waypoints() = %v", got)
	}
}

func TestStyleString(t *testing.T) {
	got := DefaultStyle("").String()
	want := "edgeStyle=orthogonalEdgeStyle;rounded=1;orthogonalLoop=1;jettySize=auto;html=1;strokeWidth=2;strokeColor=#b1b1b1;"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestClassText(t *testing.T) {
	for _, c := range []Class{MainToMain, MainToSub, SubToMain, SubToSub} {
		b, _ := c.MarshalText()
		var back Class
		if err := back.UnmarshalText(b); err != nil || back != c {
			t.Errorf("round trip of %v gave %v, %v", c, back, err)
		}
	}
	var c Class
	if err := c.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("UnmarshalText(sideways) succeeded")
	}
}
