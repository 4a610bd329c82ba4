package layout

import "unicode/utf8"

// Width returns the node width for a label.
func (w Widths) Width(label string) float64 {
	n := utf8.RuneCountInString(label)
	switch {
	case n < w.NarrowMaxLen:
		return w.Narrow
	case n < w.MediumMaxLen:
		return w.Medium
	default:
		return w.Wide
	}
}

// Label returns the text shown for a step. It is the step id.
func Label(id string) string { return id }
