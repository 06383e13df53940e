package main

// Wall is an axis-aligned blocking rectangle in map coordinates
type Wall struct {
	X, Y float64
	W, H float64
}

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// CircleIntersectsRect reports whether the circle overlaps the wall, using the
// closest point of the rectangle to the circle centre.
func CircleIntersectsRect(cx, cy, radius float64, w Wall) bool {
	closestX := Clamp(cx, w.X, w.X+w.W)
	closestY := Clamp(cy, w.Y, w.Y+w.H)
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy < radius*radius
}

// SegmentIntersectsRect clips the segment (x1,y1)-(x2,y2) against the wall
// (Liang-Barsky) and reports whether any part of it lies inside.
func SegmentIntersectsRect(x1, y1, x2, y2 float64, w Wall) bool {
	dx := x2 - x1
	dy := y2 - y1
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{x1 - w.X, w.X + w.W - x1, y1 - w.Y, w.Y + w.H - y1}

	t0, t1 := 0.0, 1.0
	for i := range 4 {
		if p[i] == 0 {
			// parallel to this edge: inside iff on the inner side
			if q[i] < 0 {
				return false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	// a touching segment (t0 == t1) is blocked
	return t0 <= t1
}

// Collider exposes the map queries at their two call sites: movement uses the
// player radius, detection uses bare sight lines.
type Collider struct {
	Map    *GameMap
	Radius float64
}

// CanOccupy reports whether a player centred at (x,y) is clear of every wall
func (c Collider) CanOccupy(x, y float64) bool {
	return !c.Map.IsBlocked(x, y, c.Radius)
}

// CanSee reports whether the straight path between two points is unobstructed
func (c Collider) CanSee(x1, y1, x2, y2 float64) bool {
	return c.Map.HasLineOfSight(x1, y1, x2, y2)
}
