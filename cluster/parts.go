// Parts — boosters and factories — are body-local force generators and
// spawn points (§3). Grounded on the original Python's azrael/parts.py
// (Booster/Factory namedtuples); the Go types add the JSON tags the wire
// protocol and buntdb documents need.
package cluster

import "github.com/olitheolix/azrael-sub000/cmn/geom"

// Booster is a body-local force generator (§3).
type Booster struct {
	ID          string    `json:"id"`
	Position    geom.Vec3 `json:"position"`
	Direction   geom.Vec3 `json:"direction"` // unit, body-local
	MinForce    float64   `json:"minForce"`
	MaxForce    float64   `json:"maxForce"`
	CurrentForce float64  `json:"currentForce"`
}

func (b Booster) Valid() bool {
	return b.ID != "" && !b.Direction.IsZero() && b.MinForce <= b.MaxForce
}

// Clamp returns b with CurrentForce clamped into [MinForce, MaxForce]
// (§4.1 "Booster commands clamp currentForce").
func (b Booster) Clamp(force float64) Booster {
	if force < b.MinForce {
		force = b.MinForce
	}
	if force > b.MaxForce {
		force = b.MaxForce
	}
	b.CurrentForce = force
	return b
}

// ForceTorque returns this booster's body-local force and the torque it
// induces about the body's origin (§4.4 step 2: torque = position × force).
func (b Booster) ForceTorque() (force, torque geom.Vec3) {
	dir := b.Direction.Normalize()
	force = dir.Scale(b.CurrentForce)
	torque = b.Position.Cross(force)
	return force, torque
}

// ExitSpeedRange is a closed interval [Min, Max] of possible exit speeds.
type ExitSpeedRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Factory is a body-local spawn point (§3).
type Factory struct {
	ID             string         `json:"id"`
	Position       geom.Vec3      `json:"position"`
	Direction      geom.Vec3      `json:"direction"` // unit, body-local
	TemplateID     string         `json:"templateID"`
	ExitSpeedRange ExitSpeedRange `json:"exitSpeedRange"`
}

func (f Factory) Valid() bool {
	return f.ID != "" && !f.Direction.IsZero() && f.TemplateID != "" && f.ExitSpeedRange.Min <= f.ExitSpeedRange.Max
}

// ExitVelocityWorld returns the product's initial world-space velocity: the
// factory direction scaled by a sampled exit speed, rotated into the
// parent's frame and added to the parent's linear velocity (§4.1).
func (f Factory) ExitVelocityWorld(parentOrientation geom.Quat, parentVelocity geom.Vec3, sampledSpeed float64) geom.Vec3 {
	local := f.Direction.Normalize().Scale(sampledSpeed)
	world := parentOrientation.RotateVec3(local)
	return world.Add(parentVelocity)
}
