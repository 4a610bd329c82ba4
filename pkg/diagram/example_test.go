package diagram_test

import (
	"fmt"

	"github.com/matzehuels/rulemaker/pkg/diagram"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

func ExampleCompute() {
	r := rule.NewRule("checkout")
	_ = r.AddStep(&rule.Step{ID: "S1", NextStepIDs: []string{"S2"}})
	_ = r.AddStep(&rule.Step{ID: "S2", NextStepIDs: []string{"S3", "Sub1"}})
	_ = r.AddStep(&rule.Step{ID: "S3"})
	_ = r.AddStep(&rule.Step{ID: "Sub1", IsSubStep: true})

	d := diagram.Compute(r, diagram.DefaultConfig())

	fmt.Println("starts:", d.Starts)
	fmt.Println("ends:", d.Ends)
	fmt.Println("main flow:", d.MainFlow)
	for _, n := range d.Nodes {
		fmt.Printf("%-4s %-5s (%v, %v) %s\n", n.ID, n.Role, n.Rect.X, n.Rect.Y, n.Side)
	}
	for _, e := range d.Edges {
		fmt.Println(e.ID, e.Class, e.Waypoints)
	}
	// Output:
	// starts: [S1]
	// ends: [S3 Sub1]
	// main flow: [S1 S2 S3]
	// S1   start (100, 200) on-flow
	// S2   main  (650, 200) on-flow
	// S3   end   (1200, 200) on-flow
	// Sub1 end   (910, 100) above
	// edge_S1_to_S2 main-to-main []
	// edge_S2_to_S3 main-to-main []
	// edge_S2_to_Sub1 main-to-sub [{850 222.5} {850 122.5}]
}
