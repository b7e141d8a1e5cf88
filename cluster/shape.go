package cluster

import "github.com/olitheolix/azrael-sub000/cmn/geom"

// ShapeKind tags the CollisionShape variant (§9 "dynamic dispatch on
// collision-shape variants": a tagged sum, downstream code switches on tag).
type ShapeKind string

const (
	ShapeEmpty  ShapeKind = "empty"
	ShapeSphere ShapeKind = "sphere"
	ShapeBox    ShapeKind = "box"
	ShapePlane  ShapeKind = "plane"
)

// CollisionShape is the tagged-union shape record from §3. Only the fields
// for Kind are meaningful; the rest are zero.
type CollisionShape struct {
	Kind ShapeKind `json:"kind"`

	Radius float64 `json:"radius,omitempty"` // sphere

	HalfExtents geom.Vec3 `json:"halfExtents,omitempty"` // box

	Normal geom.Vec3 `json:"normal,omitempty"` // plane
	Offset float64   `json:"offset,omitempty"` // plane
}

func EmptyShape() CollisionShape { return CollisionShape{Kind: ShapeEmpty} }

func SphereShape(radius float64) CollisionShape {
	return CollisionShape{Kind: ShapeSphere, Radius: radius}
}

func BoxShape(hx, hy, hz float64) CollisionShape {
	return CollisionShape{Kind: ShapeBox, HalfExtents: geom.NewVec3(hx, hy, hz)}
}

func PlaneShape(normal geom.Vec3, offset float64) CollisionShape {
	return CollisionShape{Kind: ShapePlane, Normal: normal.Normalize(), Offset: offset}
}

// Valid reports whether the shape's Kind is recognised and its parameters
// are well formed — the Broker rejects addTemplates/setBodyState payloads
// that fail this (§4.1: "Rejects if any referenced collision-shape variant
// is malformed").
func (s CollisionShape) Valid() bool {
	switch s.Kind {
	case ShapeEmpty:
		return true
	case ShapeSphere:
		return s.Radius > 0
	case ShapeBox:
		return s.HalfExtents.X > 0 && s.HalfExtents.Y > 0 && s.HalfExtents.Z > 0
	case ShapePlane:
		return !s.Normal.IsZero()
	default:
		return false
	}
}

// LocalAABB returns the shape's axis-aligned bounds in its own local frame
// (before the fragment's and body's pose/scale are applied). Planes are
// treated as unbounded on their face and are excluded from AABB computation
// by the caller (aabb.go) — an infinite plane never usefully bounds a tight
// box.
func (s CollisionShape) LocalAABB() (min, max geom.Vec3, ok bool) {
	switch s.Kind {
	case ShapeEmpty:
		return geom.Vec3{}, geom.Vec3{}, false
	case ShapeSphere:
		r := geom.NewVec3(s.Radius, s.Radius, s.Radius)
		return r.Scale(-1), r, true
	case ShapeBox:
		return s.HalfExtents.Scale(-1), s.HalfExtents, true
	case ShapePlane:
		return geom.Vec3{}, geom.Vec3{}, false
	default:
		return geom.Vec3{}, geom.Vec3{}, false
	}
}
