// Command queue entries (§3, §4.1) — what the Broker enqueues and Leonard
// drains, in the fixed order of §4.4 step 1.
package cluster

import (
	"encoding/json"

	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

type QueueKind string

const (
	QueueAddTemplate  QueueKind = "addTemplate"
	QueueSpawn        QueueKind = "spawn"
	QueueModify       QueueKind = "modify"
	QueueDirectForce  QueueKind = "directForce"
	QueueBoosterForce QueueKind = "boosterForce"
	QueueRemove       QueueKind = "remove"
)

// AllQueues is Leonard's fixed drain order (§4.4 step 1).
var AllQueues = []QueueKind{
	QueueAddTemplate, QueueSpawn, QueueModify, QueueDirectForce, QueueBoosterForce, QueueRemove,
}

// CmdEntry is one append-only command-queue entry (§3). Seq orders entries
// within a queue so ties on identical (ObjectID, Queue) resolve to the most
// recently enqueued value (§4.4 step 1).
type CmdEntry struct {
	Seq      uint64          `json:"seq"`
	ObjectID ObjectID        `json:"objectID"`
	Payload  json.RawMessage `json:"payload"`
}

// SpawnPayload is the payload of a QueueSpawn entry.
type SpawnPayload struct {
	TemplateID string          `json:"templateID"`
	Overrides  BodyStatePartial `json:"overrides"`
}

// BodyStatePartial models "every field optional, absent means keep current
// value" (§9 "Override semantics") as a record of pointer fields, never a
// sentinel value inside a concrete field.
type BodyStatePartial struct {
	Position         *geom.Vec3 `json:"position,omitempty"`
	Orientation      *geom.Quat `json:"orientation,omitempty"`
	VelocityLinear   *geom.Vec3 `json:"velocityLinear,omitempty"`
	VelocityRotation *geom.Vec3 `json:"velocityRotation,omitempty"`

	InverseMass        *float64   `json:"inverseMass,omitempty"`
	PrincipalInertia   *geom.Vec3 `json:"principalInertia,omitempty"`
	CentreOfMassOffset *geom.Vec3 `json:"centreOfMassOffset,omitempty"`

	Scale *float64 `json:"scale,omitempty"`

	CollisionShapes map[string]Fragment `json:"collisionShapes,omitempty"`

	Restitution *float64 `json:"restitution,omitempty"`
	Friction    *float64 `json:"friction,omitempty"`

	LinearFactor   *geom.Vec3 `json:"linearFactor,omitempty"`
	RotationFactor *geom.Vec3 `json:"rotationFactor,omitempty"`
}

// Validate enforces the §4.1 setBodyState constraints: unit-quaternion,
// strictly positive scale, non-negative inverse mass, well-formed shapes.
func (p BodyStatePartial) Validate() bool {
	const eps = 1e-6
	if p.Orientation != nil && !p.Orientation.IsUnit(eps) {
		return false
	}
	if p.Scale != nil && *p.Scale <= 0 {
		return false
	}
	if p.InverseMass != nil && *p.InverseMass < 0 {
		return false
	}
	for _, f := range p.CollisionShapes {
		if !f.Shape.Valid() {
			return false
		}
	}
	return true
}

// Apply merges the partial onto b, bumping Version iff the partial carries
// CollisionShapes (§3 "version, incremented on any structural change").
func (p BodyStatePartial) Apply(b Body) Body {
	if p.Position != nil {
		b.Position = *p.Position
	}
	if p.Orientation != nil {
		b.Orientation = *p.Orientation
	}
	if p.VelocityLinear != nil {
		b.VelocityLinear = *p.VelocityLinear
	}
	if p.VelocityRotation != nil {
		b.VelocityRotation = *p.VelocityRotation
	}
	if p.InverseMass != nil {
		b.InverseMass = *p.InverseMass
	}
	if p.PrincipalInertia != nil {
		b.PrincipalInertia = *p.PrincipalInertia
	}
	if p.CentreOfMassOffset != nil {
		b.CentreOfMassOffset = *p.CentreOfMassOffset
	}
	if p.Scale != nil {
		b.Scale = *p.Scale
	}
	if p.Restitution != nil {
		b.Restitution = *p.Restitution
	}
	if p.Friction != nil {
		b.Friction = *p.Friction
	}
	if p.LinearFactor != nil {
		b.LinearFactor = *p.LinearFactor
	}
	if p.RotationFactor != nil {
		b.RotationFactor = *p.RotationFactor
	}
	if p.CollisionShapes != nil {
		if b.CollisionShapes == nil {
			b.CollisionShapes = map[string]Fragment{}
		}
		for name, frag := range p.CollisionShapes {
			b.CollisionShapes[name] = frag
		}
		b.Version++
	}
	return b
}

// DirectForcePayload / BoosterForcePayload are the persistent target
// force/torque values set by setDirectForceAndTorque / setBoosterForce
// (§4.1) — they persist across ticks until explicitly changed (§4.4
// "Direct-force persistence").
type DirectForcePayload struct {
	Force  geom.Vec3 `json:"force"`
	Torque geom.Vec3 `json:"torque"`
}

// BoosterForcePayload is one QueueBoosterForce entry. It carries either a
// per-booster clamp command from controlParts (BoosterID set, Force is the
// scalar currentForce target clamped into [minForce,maxForce]) or a
// persistent whole-body target from setBoosterForce (BoosterID empty,
// TargetForce/TargetTorque are added on top of the per-tick sum over active
// boosters, §4.4 step 2).
type BoosterForcePayload struct {
	BoosterID string  `json:"boosterID,omitempty"`
	Force     float64 `json:"force,omitempty"`

	TargetForce  geom.Vec3 `json:"targetForce,omitempty"`
	TargetTorque geom.Vec3 `json:"targetTorque,omitempty"`
}

// IsTarget reports whether this entry is a setBoosterForce override rather
// than a per-booster clamp command.
func (p BoosterForcePayload) IsTarget() bool { return p.BoosterID == "" }

// Forces is Leonard's in-memory per-body force accumulator state (§4.4:
// "forces: id -> {directForce, directTorque, boosterForce, boosterTorque}").
type Forces struct {
	DirectForce   geom.Vec3 `json:"directForce"`
	DirectTorque  geom.Vec3 `json:"directTorque"`
	BoosterForce  geom.Vec3 `json:"boosterForce"`
	BoosterTorque geom.Vec3 `json:"boosterTorque"`
}
