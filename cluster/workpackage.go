// WorkPackage is the unit Leonard dispatches to the worker pool (§3,
// §GLOSSARY) — one collision island plus the forces and timing for this
// tick. WorkResult is what a worker echoes back.
package cluster

import (
	"time"

	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

// BodyForce pairs a Body with the net force/torque Leonard computed for it
// this tick (§3).
type BodyForce struct {
	ObjectID  ObjectID  `json:"objectID"`
	Body      Body      `json:"body"`
	NetForce  geom.Vec3 `json:"netForce"`
	NetTorque geom.Vec3 `json:"netTorque"`
}

// WorkPackage is dispatched once per island per tick (§4.4 step 6).
type WorkPackage struct {
	WPID        string        `json:"wpid"`
	Token       uint64        `json:"token"`
	Bodies      []BodyForce   `json:"bodies"`
	Dt          time.Duration `json:"dt"`
	MaxSubsteps int           `json:"maxSubsteps"`
}

// WorkResult is what a worker returns after integrating a package (§4.5
// step 4). Err is set (and UpdatedBodies left empty/stale) on integrator
// failure — Leonard then treats the package as "no progress" (§4.5).
type WorkResult struct {
	WPID          string   `json:"wpid"`
	Token         uint64   `json:"token"`
	UpdatedBodies []Body   `json:"updatedBodies"`
	Err           string   `json:"err,omitempty"`
}

// ContactPair is one entry of the tick-complete event payload (§6):
// [idA, idB, [contactPositions...]].
type ContactPair struct {
	A                 ObjectID    `json:"a"`
	B                 ObjectID    `json:"b"`
	ContactPositions  []geom.Vec3 `json:"contactPositions"`
}
