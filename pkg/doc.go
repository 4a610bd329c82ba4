// Package pkg provides the core libraries for rulemaker.
//
// # Overview
//
// Rulemaker edits step rules: directed graphs of guided UI steps in which
// each step names the steps that follow it. It lays a rule out along a
// horizontal main flow, hangs sub-steps above and below it, routes
// orthogonal connectors around the boxes in the way, and paints the result
// or hands it to an editor.
//
// # Architecture
//
// The data flow through rulemaker:
//
//	rule JSON file
//	      ↓
//	  [io] (decode, never-nil containers)
//	      ↓
//	  [topology] (start / end nodes, main flow, bidirectional pairs)
//	      ↓
//	  [layout] (boxes, sides, user overrides)
//	      ↓
//	  [route] (connector waypoints)
//	      ↓
//	  [diagram] (normalised, immutable result)
//	      ↓
//	  [canvas] (memory, SVG, Graphviz DOT / PNG)
//
// # Quick Start
//
//	r, err := io.ImportRule("checkout.json")
//	if err != nil {
//	    return err
//	}
//	d := diagram.Compute(r, diagram.DefaultConfig())
//
//	svg := canvas.NewSVG()
//	canvas.Draw(svg, d)
//	svg.WriteTo(os.Stdout)
//
// # Main Packages
//
// ## Rule model
//
// [rule] - Steps, rules, validation and the checked mutations (add, remove,
// rename, swap, splice).
//
// [topology] - Pure graph queries over a rule, including obstacle
// detection between two placed steps.
//
// ## Drawing
//
// [geometry] - Points, rects, sides and orthogonal connector expansion.
//
// [layout] - Four-phase placement of every step.
//
// [route] - Connector classes, detours and styles.
//
// [diagram] - [diagram.Compute], the single entry point from rule to
// drawing.
//
// [canvas] - The canvas contract and its implementations.
//
// ## Editing
//
// [editor] - The editing session: current rule, user operations,
// selection, layout cache and persisted per-file view state.
//
// [io] - Reading and writing the single-rule and multi-rule JSON shapes.
//
// ## Infrastructure
//
// [pipeline] - Load → layout → render runner used by the CLI and the HTTP
// service.
//
// [cache] - Layout and artifact cache with file, redis and null backends.
//
// [config] - TOML configuration.
//
// [observability] - Pipeline, cache and server hooks.
//
// [errors] - Coded errors whose message is what the user sees.
//
// [buildinfo] - Version information.
package pkg
