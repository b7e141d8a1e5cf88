// Package cluster holds Azrael's core domain model — the in-memory shape of
// everything Leonard mirrors between ticks: bodies, AABBs, templates,
// boosters and factories (§3). It is the azrael-sub000 analogue of aistore's
// cluster package (which plays the same role for LOM/Bck): types here are
// passed by value between store, partition, worker and leonard, never
// mutated through a shared pointer across goroutines.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cluster

import (
	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

// ObjectID is the monotonic, never-reused identity assigned by store's
// objectID counter (§9 "Counter allocation").
type ObjectID uint64

// Body is the authoritative per-object physical state (§3). Leonard is the
// only component permitted to mutate it; everyone else gets a copy.
type Body struct {
	ObjectID ObjectID `json:"objectID"`

	Position    geom.Vec3 `json:"position"`
	Orientation geom.Quat `json:"orientation"`

	VelocityLinear   geom.Vec3 `json:"velocityLinear"`
	VelocityRotation geom.Vec3 `json:"velocityRotation"`

	InverseMass          float64   `json:"inverseMass"`
	PrincipalInertia     geom.Vec3 `json:"principalInertia"`
	CentreOfMassOffset   geom.Vec3 `json:"centreOfMassOffset"`
	PrincipalAxisRotation geom.Quat `json:"principalAxisRotation"`

	Scale float64 `json:"scale"`

	// CollisionShapes maps a fragment name to that fragment's shape and
	// body-local pose (§3, §GLOSSARY "Fragment").
	CollisionShapes map[string]Fragment `json:"collisionShapes"`

	// Boosters is this instance's own copy of the template's booster
	// descriptors (§3) — CurrentForce is per-object state, so it cannot
	// live on the shared, immutable Template.
	Boosters map[string]Booster `json:"boosters"`

	Restitution float64 `json:"restitution"`
	Friction    float64 `json:"friction"`

	LinearFactor   geom.Vec3 `json:"linearFactor"`
	RotationFactor geom.Vec3 `json:"rotationFactor"`

	TemplateID string `json:"templateID"`
	Version    uint64 `json:"version"`
}

// Fragment is a named sub-part of a body's geometry/collision description —
// opaque except for its body-local pose and collision shape (§GLOSSARY).
type Fragment struct {
	Position    geom.Vec3      `json:"position"`
	Orientation geom.Quat      `json:"orientation"`
	Shape       CollisionShape `json:"shape"`
}

// DefaultBody returns a Body with the identity pose and unmasked freedom —
// the baseline Spawn overrides are applied onto.
func DefaultBody(templateID string) Body {
	return Body{
		Orientation:           geom.IdentityQuat(),
		PrincipalAxisRotation: geom.IdentityQuat(),
		Scale:                 1,
		CollisionShapes:       map[string]Fragment{},
		Boosters:              map[string]Booster{},
		LinearFactor:          geom.NewVec3(1, 1, 1),
		RotationFactor:        geom.NewVec3(1, 1, 1),
		TemplateID:            templateID,
		Version:               1,
	}
}

// IsKinematic reports whether the body is immovable (zero inverse mass, §3).
func (b Body) IsKinematic() bool { return b.InverseMass == 0 }
