// Package worker implements the Worker Pool (C5, §4.5): stateless
// goroutines standing in for separate worker processes. Dispatch hands each
// work package to exactly one new goroutine, so no two workers ever receive
// the same package. Grounded on aistore's
// xs/tcobjs.go workCh pattern (a bounded work channel drained by renewable
// xaction goroutines) and bounded with golang.org/x/sync/semaphore the way
// aistore bounds concurrent xactions.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
	"github.com/olitheolix/azrael-sub000/integrator"
)

// Pool dispatches WorkPackages to at most Size concurrently-running
// workers. Workers carry no state between packages (§4.5): each gets a
// fresh Integrator instance per package.
type Pool struct {
	size    int64
	sem     *semaphore.Weighted
	newIntg func() integrator.Integrator

	wg sync.WaitGroup
}

// NewPool builds a pool that runs at most size packages concurrently. When
// newIntg is nil, integrator.New is used.
func NewPool(size int, newIntg func() integrator.Integrator) *Pool {
	if size <= 0 {
		size = 1
	}
	if newIntg == nil {
		newIntg = integrator.New
	}
	return &Pool{size: int64(size), sem: semaphore.NewWeighted(int64(size)), newIntg: newIntg}
}

// Dispatch submits pkg for integration and invokes onResult with the
// outcome once done. Dispatch blocks only long enough to acquire a pool
// slot — the caller (leonard) is expected to call Dispatch for every
// island of a tick without waiting for prior islands to finish, then await
// results via onResult / the deadline in its own select.
func (p *Pool) Dispatch(ctx context.Context, pkg cluster.WorkPackage, onResult func(cluster.WorkResult)) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		// Cancelled before a slot freed up — report "no progress" for
		// this package rather than dropping it silently (§7 WorkerTimeout:
		// internal to Leonard, never surfaced to clients).
		werr := cmn.NewError(cmn.KindWorkerTimeout, "worker.Dispatch", ctx.Err())
		onResult(cluster.WorkResult{WPID: pkg.WPID, Token: pkg.Token, Err: werr.Error()})
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		onResult(p.process(pkg))
	}()
}

// process hands pkg's bodies to a fresh integrator, applies net
// force/torque, steps forward, and returns the updated state (§4.5 steps
// 1-4). On integrator error the package's bodies are returned unchanged
// with Err set — Leonard then treats it as "no progress" (§4.5 step 4).
func (p *Pool) process(pkg cluster.WorkPackage) cluster.WorkResult {
	intg := p.newIntg()

	for _, bf := range pkg.Bodies {
		if err := intg.AddBody(bf.Body); err != nil {
			return failResult(pkg, bf, err)
		}
		if err := intg.ApplyForce(bf.ObjectID, bf.NetForce, bf.NetTorque); err != nil {
			return failResult(pkg, bf, err)
		}
	}

	dtSeconds := pkg.Dt.Seconds()
	if err := intg.Step(dtSeconds, pkg.MaxSubsteps); err != nil {
		werr := cmn.NewError(cmn.KindIntegratorFailure, "worker.process", err)
		cos.Errorf("worker: wpid=%s step failed: %v", pkg.WPID, werr)
		unchanged := make([]cluster.Body, len(pkg.Bodies))
		for i, bf := range pkg.Bodies {
			unchanged[i] = bf.Body
		}
		return cluster.WorkResult{WPID: pkg.WPID, Token: pkg.Token, UpdatedBodies: unchanged, Err: werr.Error()}
	}

	updated := make([]cluster.Body, 0, len(pkg.Bodies))
	for _, bf := range pkg.Bodies {
		if b, ok := intg.GetBody(bf.ObjectID); ok {
			updated = append(updated, b)
		} else {
			updated = append(updated, bf.Body)
		}
	}
	return cluster.WorkResult{WPID: pkg.WPID, Token: pkg.Token, UpdatedBodies: updated}
}

func failResult(pkg cluster.WorkPackage, bf cluster.BodyForce, err error) cluster.WorkResult {
	unchanged := make([]cluster.Body, len(pkg.Bodies))
	for i, other := range pkg.Bodies {
		unchanged[i] = other.Body
	}
	werr := cmn.NewError(cmn.KindIntegratorFailure, "worker.process", err)
	cos.Errorf("worker: wpid=%s body=%d integrator error: %v", pkg.WPID, bf.ObjectID, werr)
	return cluster.WorkResult{WPID: pkg.WPID, Token: pkg.Token, UpdatedBodies: unchanged, Err: werr.Error()}
}

// Wait blocks until every dispatched package currently in flight has
// finished. Leonard never calls it: it paces ticks by a deadline, not by
// waiting for every worker.
func (p *Pool) Wait() { p.wg.Wait() }
