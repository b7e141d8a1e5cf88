package cluster

import "github.com/olitheolix/azrael-sub000/cmn/geom"

// AABB is the per-body cached axis-aligned bounding box (§3). Present iff
// the owning Body is present — Leonard's commit writes and removes both on
// the same tick.
type AABB struct {
	ObjectID ObjectID  `json:"objectID"`
	Min      geom.Vec3 `json:"min"`
	Max      geom.Vec3 `json:"max"`
}

// Overlaps reports whether a and b intersect on all three axes, using
// closed intervals — touching on a face counts as overlapping (§4.3 edge
// case).
func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// ComputeAABB derives a Body's world-space AABB from its collision shapes,
// pose and scale (§4.4 step 3). A body with no bounded fragments (only
// planes/empty shapes) gets a degenerate point AABB at its own position so
// it still participates in broad-phase as a singleton island.
func ComputeAABB(b Body) AABB {
	var (
		haveAny     bool
		worldMin    geom.Vec3
		worldMax    geom.Vec3
	)

	for _, frag := range b.CollisionShapes {
		lmin, lmax, ok := frag.Shape.LocalAABB()
		if !ok {
			continue
		}
		// Scale, then enumerate the box's 8 corners in fragment-local
		// space, rotate each by the fragment's then the body's
		// orientation, and fold into a world-space min/max. This is
		// conservative (axis-aligned box of a rotated box) which is the
		// standard broad-phase trade-off: a slightly looser AABB, never a
		// tighter one.
		corners := [8]geom.Vec3{
			{X: lmin.X, Y: lmin.Y, Z: lmin.Z}, {X: lmax.X, Y: lmin.Y, Z: lmin.Z},
			{X: lmin.X, Y: lmax.Y, Z: lmin.Z}, {X: lmax.X, Y: lmax.Y, Z: lmin.Z},
			{X: lmin.X, Y: lmin.Y, Z: lmax.Z}, {X: lmax.X, Y: lmin.Y, Z: lmax.Z},
			{X: lmin.X, Y: lmax.Y, Z: lmax.Z}, {X: lmax.X, Y: lmax.Y, Z: lmax.Z},
		}
		for _, c := range corners {
			c = c.Scale(b.Scale)
			c = frag.Orientation.RotateVec3(c).Add(frag.Position)
			c = b.Orientation.RotateVec3(c).Add(b.Position)
			if !haveAny {
				worldMin, worldMax = c, c
				haveAny = true
				continue
			}
			worldMin = geom.NewVec3(minf(worldMin.X, c.X), minf(worldMin.Y, c.Y), minf(worldMin.Z, c.Z))
			worldMax = geom.NewVec3(maxf(worldMax.X, c.X), maxf(worldMax.Y, c.Y), maxf(worldMax.Z, c.Z))
		}
	}

	if !haveAny {
		worldMin, worldMax = b.Position, b.Position
	}

	return AABB{ObjectID: b.ObjectID, Min: worldMin, Max: worldMax}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
