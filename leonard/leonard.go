// Package leonard implements Leonard (C4, §4.4): the single-writer
// controller that owns the authoritative in-memory mirror of the
// simulation between ticks and drives the fixed ten-step tick procedure.
// Grounded on aistore's rebalance manager (reb/reb.go): a single long-lived
// goroutine that owns a generation-scoped piece of cluster state, drains
// inputs in a fixed order, and commits outcomes atomically — Leonard plays
// the same role for bodies instead of rebalanced objects.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package leonard

import (
	"context"
	"sort"
	"time"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
	"github.com/olitheolix/azrael-sub000/cmn/config"
	"github.com/olitheolix/azrael-sub000/cmn/geom"
	"github.com/olitheolix/azrael-sub000/eventbus"
	"github.com/olitheolix/azrael-sub000/forcegrid"
	"github.com/olitheolix/azrael-sub000/metrics"
	"github.com/olitheolix/azrael-sub000/partition"
	"github.com/olitheolix/azrael-sub000/store"
	"github.com/olitheolix/azrael-sub000/worker"
)

// forceTorque is an ephemeral per-tick force/torque contribution — never
// written back to l.forces, which holds only the persisted setDirectForce/
// setBoosterForce targets (§4.4 "Direct-force persistence").
type forceTorque struct {
	Force  geom.Vec3
	Torque geom.Vec3
}

// Leonard is the C4 tick loop. It implements cos.Runner; cmd/azraeld starts
// it with Run and stops it with Stop.
type Leonard struct {
	st   *store.Store
	pool *worker.Pool
	bus  *eventbus.Bus
	grid forcegrid.Grid
	cfg  *config.Config
	met  *metrics.Metrics

	bodies map[cluster.ObjectID]cluster.Body
	aabbs  map[cluster.ObjectID]cluster.AABB
	forces map[cluster.ObjectID]cluster.Forces

	removed []cluster.ObjectID
	tick    uint64
	tokenSeq uint64

	lastSweep time.Time

	stopCh *cos.StopCh
}

// New builds Leonard against st. met may be nil (tests need no Prometheus
// registry).
func New(st *store.Store, pool *worker.Pool, bus *eventbus.Bus, grid forcegrid.Grid, cfg *config.Config, met *metrics.Metrics) *Leonard {
	return &Leonard{
		st:     st,
		pool:   pool,
		bus:    bus,
		grid:   grid,
		cfg:    cfg,
		met:    met,
		bodies: map[cluster.ObjectID]cluster.Body{},
		aabbs:  map[cluster.ObjectID]cluster.AABB{},
		forces: map[cluster.ObjectID]cluster.Forces{},
		stopCh: cos.NewStopCh(),
	}
}

// Run loads the mirror from store and drives ticks at cfg.TickInterval
// until Stop is called (§4.4 step 10 "pace the loop").
func (l *Leonard) Run() error {
	if err := l.loadMirror(); err != nil {
		return err
	}
	l.lastSweep = time.Now()
	for {
		select {
		case <-l.stopCh.Listen():
			return nil
		default:
		}

		start := time.Now()
		l.runTick()
		elapsed := time.Since(start)
		if l.met != nil {
			l.met.TickDuration.Observe(elapsed.Seconds())
			l.met.BodyCount.Set(float64(len(l.bodies)))
		}

		if l.cfg.ResetInterval > 0 && time.Since(l.lastSweep) >= l.cfg.ResetInterval {
			l.consistencySweep()
			l.lastSweep = time.Now()
		}

		remaining := l.cfg.TickInterval - elapsed
		if remaining <= 0 {
			// Tick ran over budget: no catch-up substepping, proceed
			// immediately (§4.4 step 10).
			continue
		}
		select {
		case <-time.After(remaining):
		case <-l.stopCh.Listen():
			return nil
		}
	}
}

func (l *Leonard) Stop(err error) {
	if err != nil {
		cos.Errorf("leonard: stopping: %v", err)
	}
	l.stopCh.Close()
}

// Tick drives exactly one tick synchronously, bypassing Run's pacing. For
// deterministic single-stepping by tools and tests against the real drain/
// resolve/partition/dispatch/commit procedure (§4.4), not for production use.
func (l *Leonard) Tick() { l.runTick() }

// LoadMirror seeds bodies/aabbs from whatever the store already holds. Run
// calls this once on startup; exported so tools can restore Leonard's
// mirror without going through Run (e.g. single-stepping against a store
// another process already populated).
func (l *Leonard) LoadMirror() error { return l.loadMirror() }

// loadMirror seeds bodies/aabbs from whatever the store already holds —
// the restart path after a clean or StoreError-triggered process exit (§7).
func (l *Leonard) loadMirror() error {
	raw, err := l.st.GetAll(store.Bodies, nil)
	if err != nil {
		return err
	}
	for aid, doc := range raw {
		var b cluster.Body
		if err := cos.Unmarshal(doc, &b); err != nil {
			cos.Warnf("leonard: loadMirror: skipping corrupt body %s: %v", aid, err)
			continue
		}
		l.bodies[b.ObjectID] = b
		l.aabbs[b.ObjectID] = cluster.ComputeAABB(b)
	}
	return nil
}

// runTick executes the ten-step procedure of §4.4.
func (l *Leonard) runTick() {
	deadline := time.Now().Add(l.cfg.TickDeadline)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	l.drainQueues()                       // step 1
	boosterNet := l.resolveBoosterForces() // step 2
	l.recomputeAABBs()                     // step 3
	gridForce := l.sampleGrid()            // step 4

	islands := partition.Partition(l.currentAABBs()) // step 5
	if l.met != nil {
		l.met.IslandCount.Set(float64(len(islands)))
	}

	pairs := l.dispatchAndCollect(ctx, islands, boosterNet, gridForce) // steps 6-7

	l.commit()                  // step 8
	l.bus.Publish(eventbus.TopicTickComplete, eventbus.TickCompleteEvent{Tick: l.tick, Pairs: pairs}) // step 9
	l.tick++
}

// dispatchAndCollect builds one WorkPackage per island, dispatches them to
// the worker pool, and applies results as they arrive (§4.4 steps 6-7).
// Results whose token is unknown (already applied or invalidated) or that
// arrive after ctx's deadline are discarded; their bodies keep pre-tick
// state.
func (l *Leonard) dispatchAndCollect(ctx context.Context, islands [][]cluster.ObjectID, boosterNet map[cluster.ObjectID]forceTorque, gridForce map[cluster.ObjectID]geom.Vec3) []cluster.ContactPair {
	if len(islands) == 0 {
		return nil
	}

	outstanding := make(map[uint64]struct{}, len(islands))
	resultsCh := make(chan cluster.WorkResult, len(islands))

	for _, island := range islands {
		l.tokenSeq++
		token := l.tokenSeq
		outstanding[token] = struct{}{}

		bodies := make([]cluster.BodyForce, 0, len(island))
		for _, id := range island {
			b := l.bodies[id]
			f := l.forces[id]
			net := boosterNet[id]
			force := f.DirectForce.Add(f.BoosterForce).Add(net.Force).Add(gridForce[id])
			torque := f.DirectTorque.Add(f.BoosterTorque).Add(net.Torque)
			bodies = append(bodies, cluster.BodyForce{ObjectID: id, Body: b, NetForce: force, NetTorque: torque})
		}

		pkg := cluster.WorkPackage{
			WPID:        cos.GenShortID(),
			Token:       token,
			Bodies:      bodies,
			Dt:          l.cfg.TickInterval,
			MaxSubsteps: l.cfg.MaxSubsteps,
		}
		l.pool.Dispatch(ctx, pkg, func(res cluster.WorkResult) {
			// Non-blocking: the channel is sized to len(islands), so a
			// late result (after the collection loop below gave up)
			// never blocks this goroutine.
			select {
			case resultsCh <- res:
			default:
			}
		})
	}

	for len(outstanding) > 0 {
		select {
		case res := <-resultsCh:
			if _, ok := outstanding[res.Token]; !ok {
				continue // stale or already-timed-out token
			}
			delete(outstanding, res.Token)
			if res.Err != "" {
				cos.Warnf("leonard: tick %d wpid=%s: %v", l.tick, res.WPID, res.Err)
				continue // no progress for this island's bodies (§4.5 step 4)
			}
			for _, updated := range res.UpdatedBodies {
				if _, live := l.bodies[updated.ObjectID]; !live {
					continue // removed mid-tick; discard (§4.4 "Remove semantics")
				}
				l.bodies[updated.ObjectID] = updated
			}
		case <-ctx.Done():
			if l.met != nil {
				l.met.WorkerTimeout.Add(float64(len(outstanding)))
			}
			for token := range outstanding {
				cos.Warnf("leonard: tick %d token=%d timed out, bodies keep pre-tick state", l.tick, token)
			}
			outstanding = nil
		}
	}

	l.recomputeAABBs()
	return l.contactPairs(islands)
}

// recomputeAABBs refreshes l.aabbs from the current body poses (§4.4 step
// 3, and again after integration so the committed AABBs match the
// post-tick poses).
func (l *Leonard) recomputeAABBs() {
	for id, b := range l.bodies {
		l.aabbs[id] = cluster.ComputeAABB(b)
	}
}

// resolveBoosterForces computes, per body, the world-frame net force/torque
// summed over active boosters (§4.4 step 2). This is purely ephemeral: it
// is never persisted, unlike the setBoosterForce target in l.forces.
func (l *Leonard) resolveBoosterForces() map[cluster.ObjectID]forceTorque {
	out := make(map[cluster.ObjectID]forceTorque, len(l.bodies))
	for id, b := range l.bodies {
		if len(b.Boosters) == 0 {
			continue
		}
		var force, torque geom.Vec3
		for _, bst := range b.Boosters {
			f, t := bst.ForceTorque()
			force = force.Add(f)
			torque = torque.Add(t)
		}
		out[id] = forceTorque{Force: b.Orientation.RotateVec3(force), Torque: b.Orientation.RotateVec3(torque)}
	}
	return out
}

// sampleGrid samples the external force grid at each body's centre (§4.4
// step 4). Bodies outside every set region sample to zero (forcegrid.Grid
// contract).
func (l *Leonard) sampleGrid() map[cluster.ObjectID]geom.Vec3 {
	out := make(map[cluster.ObjectID]geom.Vec3, len(l.bodies))
	for id, b := range l.bodies {
		out[id] = l.grid.SampleAt(b.Position)
	}
	return out
}

func (l *Leonard) currentAABBs() []cluster.AABB {
	boxes := make([]cluster.AABB, 0, len(l.aabbs))
	for _, a := range l.aabbs {
		boxes = append(boxes, a)
	}
	return boxes
}

// contactPairs derives the tick-complete event's collision pairs (§6) from
// islands with more than one member: every pairwise AABB overlap within an
// island is reported, with the midpoint between the two boxes' centres
// standing in for the contact position (the integrator, not Leonard, owns
// precise manifold generation — out of scope, §1).
func (l *Leonard) contactPairs(islands [][]cluster.ObjectID) []cluster.ContactPair {
	var pairs []cluster.ContactPair
	for _, island := range islands {
		for i := 0; i < len(island); i++ {
			for j := i + 1; j < len(island); j++ {
				a, okA := l.aabbs[island[i]]
				b, okB := l.aabbs[island[j]]
				if !okA || !okB || !a.Overlaps(b) {
					continue
				}
				ca := a.Min.Add(a.Max).Scale(0.5)
				cb := b.Min.Add(b.Max).Scale(0.5)
				mid := ca.Add(cb).Scale(0.5)
				pairs = append(pairs, cluster.ContactPair{
					A: island[i], B: island[j], ContactPositions: []geom.Vec3{mid},
				})
			}
		}
	}
	return pairs
}

// consistencySweep re-derives every AABB from its body's current pose and
// recommits the full AABBs collection (--reset-interval). It runs on
// Leonard's own goroutine between ticks, never concurrently with runTick,
// so it needs no locking of its own; it exists to correct any AABB drift
// left behind by a prior process restart that skipped loadMirror's AABB
// recompute (e.g. a store file edited out-of-band).
func (l *Leonard) consistencySweep() {
	l.recomputeAABBs()
	docs := make(map[string][]byte, len(l.aabbs))
	for id, a := range l.aabbs {
		doc, err := cos.Marshal(a)
		if err != nil {
			cos.Errorf("leonard: consistencySweep: marshal aabb %d: %v", id, err)
			continue
		}
		docs[cos.Uitoa(uint64(id))] = doc
	}
	if len(docs) == 0 {
		return
	}
	if err := l.st.ReplaceMulti(store.AABBs, docs); err != nil {
		cos.Errorf("leonard: consistencySweep: %v", err)
		return
	}
	cos.Infof("leonard: consistency sweep recomputed %d AABBs", len(docs))
}

// withRetry runs op up to cfg.StoreRetries+1 times with cfg.StoreBackoff
// between attempts, matching §7 KindStoreError: "the tick loop retries its
// write batch with backoff and, after N failed attempts, logs and drops
// that tick's results (the mirror is re-read from the store on next
// start)." The mirror itself is left as-is on final failure — the next
// commit's ReplaceMulti carries the same documents forward, and a restart
// rebuilds the mirror from whatever the store last held via loadMirror.
func (l *Leonard) withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt <= l.cfg.StoreRetries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt < l.cfg.StoreRetries {
			time.Sleep(l.cfg.StoreBackoff)
		}
	}
	return cmn.NewError(cmn.KindStoreError, "leonard.commit", err)
}

// commit writes the in-memory mirror to the datastore in one write batch
// per collection, and removes whatever Remove drained this tick (§4.4 step
// 8).
func (l *Leonard) commit() {
	bodyDocs := make(map[string][]byte, len(l.bodies))
	aabbDocs := make(map[string][]byte, len(l.aabbs))
	for id, b := range l.bodies {
		doc, err := cos.Marshal(b)
		if err != nil {
			cos.Errorf("leonard: commit: marshal body %d: %v", id, err)
			continue
		}
		bodyDocs[cos.Uitoa(uint64(id))] = doc
	}
	for id, a := range l.aabbs {
		doc, err := cos.Marshal(a)
		if err != nil {
			cos.Errorf("leonard: commit: marshal aabb %d: %v", id, err)
			continue
		}
		aabbDocs[cos.Uitoa(uint64(id))] = doc
	}
	if len(bodyDocs) > 0 {
		if err := l.withRetry(func() error { return l.st.ReplaceMulti(store.Bodies, bodyDocs) }); err != nil {
			cos.Errorf("leonard: commit: dropping this tick's body writes: %v", err)
		}
	}
	if len(aabbDocs) > 0 {
		if err := l.withRetry(func() error { return l.st.ReplaceMulti(store.AABBs, aabbDocs) }); err != nil {
			cos.Errorf("leonard: commit: dropping this tick's aabb writes: %v", err)
		}
	}
	if len(l.removed) > 0 {
		ids := make([]string, len(l.removed))
		for i, id := range l.removed {
			ids[i] = cos.Uitoa(uint64(id))
		}
		sort.Strings(ids)
		if err := l.withRetry(func() error { return l.st.Remove(store.Bodies, ids) }); err != nil {
			cos.Errorf("leonard: commit: dropping this tick's body removals: %v", err)
		}
		if err := l.withRetry(func() error { return l.st.Remove(store.AABBs, ids) }); err != nil {
			cos.Errorf("leonard: commit: dropping this tick's aabb removals: %v", err)
		}
		l.removed = nil
	}
}
