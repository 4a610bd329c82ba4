package geometry

// Connect expands an edge's control points into a full orthogonal polyline
// running from the border of src to the border of dst.
//
// Without waypoints the connector leaves through the side facing dst and
// bends once at the horizontal midpoint; boxes that overlap horizontally are
// joined by a vertical segment. With waypoints, every segment is kept
// axis-aligned by inserting an elbow where two consecutive points differ in
// both coordinates.
func Connect(src, dst Rect, waypoints []Point) []Point {
	if len(waypoints) == 0 {
		return dedupe(direct(src, dst))
	}

	pts := exit(src, waypoints[0])
	prev := pts[len(pts)-1]
	for _, w := range waypoints {
		pts = appendOrthogonal(pts, prev, w)
		prev = w
	}
	for _, p := range enter(dst, prev) {
		pts = appendOrthogonal(pts, prev, p)
		prev = p
	}
	return dedupe(pts)
}

func direct(src, dst Rect) []Point {
	switch {
	case dst.X >= src.Right():
		start := Point{X: src.Right(), Y: src.CenterY()}
		end := Point{X: dst.X, Y: dst.CenterY()}
		return elbowX(start, end)
	case dst.Right() <= src.X:
		start := Point{X: src.X, Y: src.CenterY()}
		end := Point{X: dst.Right(), Y: dst.CenterY()}
		return elbowX(start, end)
	}

	lo, hi := max(src.X, dst.X), min(src.Right(), dst.Right())
	x := (lo + hi) / 2
	if dst.Y >= src.Bottom() {
		return []Point{{X: x, Y: src.Bottom()}, {X: x, Y: dst.Y}}
	}
	if dst.Bottom() <= src.Y {
		return []Point{{X: x, Y: src.Y}, {X: x, Y: dst.Bottom()}}
	}
	// Overlapping boxes: centre to centre.
	return []Point{src.Center(), dst.Center()}
}

func elbowX(start, end Point) []Point {
	if start.Y == end.Y {
		return []Point{start, end}
	}
	mid := (start.X + end.X) / 2
	return []Point{start, {X: mid, Y: start.Y}, {X: mid, Y: end.Y}, end}
}

// exit returns the border point of r from which a segment towards w leaves.
func exit(r Rect, w Point) []Point {
	switch {
	case w.Y >= r.Y && w.Y <= r.Bottom():
		if w.X >= r.CenterX() {
			return []Point{{X: r.Right(), Y: w.Y}}
		}
		return []Point{{X: r.X, Y: w.Y}}
	case w.X >= r.X && w.X <= r.Right():
		if w.Y >= r.CenterY() {
			return []Point{{X: w.X, Y: r.Bottom()}}
		}
		return []Point{{X: w.X, Y: r.Y}}
	case w.X >= r.CenterX():
		return []Point{{X: r.Right(), Y: r.CenterY()}}
	default:
		return []Point{{X: r.X, Y: r.CenterY()}}
	}
}

// enter returns the points that bring a segment from w onto the border of r.
func enter(r Rect, w Point) []Point {
	switch {
	case w.X >= r.X && w.X <= r.Right():
		if w.Y <= r.CenterY() {
			return []Point{{X: w.X, Y: r.Y}}
		}
		return []Point{{X: w.X, Y: r.Bottom()}}
	case w.Y >= r.Y && w.Y <= r.Bottom():
		if w.X <= r.CenterX() {
			return []Point{{X: r.X, Y: w.Y}}
		}
		return []Point{{X: r.Right(), Y: w.Y}}
	default:
		// Drop vertically to the centre line, then run into the facing side.
		side := r.X
		if w.X > r.CenterX() {
			side = r.Right()
		}
		return []Point{{X: w.X, Y: r.CenterY()}, {X: side, Y: r.CenterY()}}
	}
}

func appendOrthogonal(pts []Point, from, to Point) []Point {
	if from.X != to.X && from.Y != to.Y {
		pts = append(pts, Point{X: to.X, Y: from.Y})
	}
	return append(pts, to)
}

func dedupe(pts []Point) []Point {
	out := pts[:0]
	for i, p := range pts {
		if i > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
