package integrator

import (
	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

type pending struct {
	force, torque geom.Vec3
}

// euler is a velocity-Verlet integrator: velocity is updated from force
// first, then position from the average of the old and new velocity (exact
// for constant force/torque over a step, unlike plain symplectic Euler's
// new-velocity-only position update). It has none of a production engine's
// contact resolution — no SPEC_FULL component requires collision
// *response*, only collision *detection* (the broad phase) — so bodies
// here only ever move under explicit force, which is exactly what §8's
// "free flight under direct force" scenario exercises.
type euler struct {
	bodies  map[cluster.ObjectID]cluster.Body
	applied map[cluster.ObjectID]pending
}

func newEuler() *euler {
	return &euler{
		bodies:  map[cluster.ObjectID]cluster.Body{},
		applied: map[cluster.ObjectID]pending{},
	}
}

func (e *euler) AddBody(body cluster.Body) error {
	e.bodies[body.ObjectID] = body
	return nil
}

func (e *euler) ApplyForce(id cluster.ObjectID, f, tau geom.Vec3) error {
	if _, ok := e.bodies[id]; !ok {
		return errNoSuchBody(id)
	}
	p := e.applied[id]
	p.force = p.force.Add(f)
	p.torque = p.torque.Add(tau)
	e.applied[id] = p
	return nil
}

// Step advances every body by dt, split into up to maxSubsteps equal
// internal substeps (§6). maxSubsteps <= 0 is treated as 1.
func (e *euler) Step(dt float64, maxSubsteps int) error {
	if maxSubsteps <= 0 {
		maxSubsteps = 1
	}
	h := dt / float64(maxSubsteps)
	for sub := 0; sub < maxSubsteps; sub++ {
		for id, b := range e.bodies {
			if b.IsKinematic() {
				continue
			}
			p := e.applied[id]

			linAccel := p.force.Scale(b.InverseMass).Mul(b.LinearFactor)
			newVelLinear := b.VelocityLinear.Add(linAccel.Scale(h))
			avgVelLinear := b.VelocityLinear.Add(newVelLinear).Scale(0.5)
			b.Position = b.Position.Add(avgVelLinear.Scale(h))
			b.VelocityLinear = newVelLinear

			angAccel := angularAccel(p.torque, b.PrincipalInertia).Mul(b.RotationFactor)
			newVelRotation := b.VelocityRotation.Add(angAccel.Scale(h))
			avgVelRotation := b.VelocityRotation.Add(newVelRotation).Scale(0.5)
			b.Orientation = integrateOrientation(b.Orientation, avgVelRotation, h)
			b.VelocityRotation = newVelRotation

			e.bodies[id] = b
		}
	}
	return nil
}

// angularAccel applies the diagonal inverse-inertia tensor implied by
// PrincipalInertia; a zero principal-inertia component behaves like
// infinite inertia on that axis (no angular response), mirroring
// InverseMass==0's linear treatment.
func angularAccel(torque, principalInertia geom.Vec3) geom.Vec3 {
	inv := func(i float64) float64 {
		if i == 0 {
			return 0
		}
		return 1 / i
	}
	return geom.NewVec3(
		torque.X*inv(principalInertia.X),
		torque.Y*inv(principalInertia.Y),
		torque.Z*inv(principalInertia.Z),
	)
}

// integrateOrientation advances q by the angular velocity omega over dt
// using the standard quaternion derivative q' = 0.5 * omega_quat * q,
// renormalized afterward to counter first-order drift.
func integrateOrientation(q geom.Quat, omega geom.Vec3, dt float64) geom.Quat {
	omegaQuat := geom.NewQuat(omega.X, omega.Y, omega.Z, 0)
	delta := omegaQuat.Mul(q)
	next := geom.NewQuat(
		q.X+0.5*dt*delta.X,
		q.Y+0.5*dt*delta.Y,
		q.Z+0.5*dt*delta.Z,
		q.W+0.5*dt*delta.W,
	)
	return next.Normalize()
}

func (e *euler) GetBody(id cluster.ObjectID) (cluster.Body, bool) {
	b, ok := e.bodies[id]
	return b, ok
}

func (e *euler) RemoveBody(id cluster.ObjectID) error {
	delete(e.bodies, id)
	delete(e.applied, id)
	return nil
}

func errNoSuchBody(id cluster.ObjectID) error {
	return noSuchBodyErr{id}
}

type noSuchBodyErr struct{ id cluster.ObjectID }

func (e noSuchBodyErr) Error() string { return "integrator: no such body" }
