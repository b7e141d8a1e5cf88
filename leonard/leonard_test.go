package leonard

import (
	"testing"
	"time"

	"github.com/olitheolix/azrael-sub000/broker"
	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/config"
	"github.com/olitheolix/azrael-sub000/cmn/geom"
	"github.com/olitheolix/azrael-sub000/eventbus"
	"github.com/olitheolix/azrael-sub000/forcegrid"
	"github.com/olitheolix/azrael-sub000/store"
	"github.com/olitheolix/azrael-sub000/worker"
)

func newTestLeonard(t *testing.T) (*Leonard, *broker.Broker) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.TickInterval = 20 * time.Millisecond
	cfg.TickDeadline = 50 * time.Millisecond

	l := New(st, worker.NewPool(2, nil), eventbus.New(), forcegrid.New(), cfg, nil)
	if err := l.loadMirror(); err != nil {
		t.Fatalf("loadMirror: %v", err)
	}
	return l, broker.New(st)
}

func movableTemplate(id string) cluster.Template {
	tmpl := cluster.Template{TemplateID: id, RefBody: cluster.DefaultBody(id)}
	tmpl.RefBody.InverseMass = 1
	tmpl.RefBody.PrincipalInertia = geom.NewVec3(1, 1, 1)
	return tmpl
}

// spawnAndCommit adds a template, ticks it into existence, then spawns and
// ticks the spawn into existence — mirroring the two tick boundaries a real
// client would cross (§4.4 "A spawned object is first observable... after
// the tick on which its Spawn command was drained").
func spawnAndCommit(t *testing.T, l *Leonard, b *broker.Broker, tmpl cluster.Template) cluster.ObjectID {
	t.Helper()
	if _, err := b.AddTemplates([]cluster.Template{tmpl}); err != nil {
		t.Fatalf("AddTemplates: %v", err)
	}
	l.runTick()

	ids, err := b.Spawn([]broker.SpawnRequest{{TemplateID: tmpl.TemplateID}})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	l.runTick()
	return ids[0]
}

func TestSpawnBecomesLiveAfterDrainTick(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	if _, ok := l.bodies[id]; !ok {
		t.Fatalf("expected body %d live in Leonard's mirror", id)
	}
	states, err := b.GetBodyStates([]cluster.ObjectID{id})
	if err != nil {
		t.Fatalf("GetBodyStates: %v", err)
	}
	if _, ok := states[id]; !ok {
		t.Fatalf("expected body %d committed to the store", id)
	}
}

func TestDirectForceMovesBodyUnderIntegration(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	before := l.bodies[id].Position
	if err := b.SetDirectForceAndTorque(id, geom.NewVec3(10, 0, 0), geom.Vec3{}); err != nil {
		t.Fatalf("SetDirectForceAndTorque: %v", err)
	}
	l.runTick()

	after := l.bodies[id].Position
	if after.X <= before.X {
		t.Fatalf("expected body to move in +X under direct force, before=%+v after=%+v", before, after)
	}
}

func TestDirectForcePersistsAcrossTicks(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	if err := b.SetDirectForceAndTorque(id, geom.NewVec3(1, 0, 0), geom.Vec3{}); err != nil {
		t.Fatalf("SetDirectForceAndTorque: %v", err)
	}
	l.runTick()
	firstVel := l.bodies[id].VelocityLinear.X

	l.runTick() // no new command: force must still be applied
	secondVel := l.bodies[id].VelocityLinear.X

	if secondVel <= firstVel {
		t.Fatalf("expected velocity to keep increasing across ticks (persisted force), got %v then %v", firstVel, secondVel)
	}
}

func TestRemoveObjectDropsBodyAtNextTick(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	if err := b.RemoveObjects([]cluster.ObjectID{id}); err != nil {
		t.Fatalf("RemoveObjects: %v", err)
	}
	l.runTick()

	if _, ok := l.bodies[id]; ok {
		t.Fatalf("expected body %d removed from mirror", id)
	}
	states, err := b.GetBodyStates([]cluster.ObjectID{id})
	if err != nil {
		t.Fatalf("GetBodyStates: %v", err)
	}
	if _, ok := states[id]; ok {
		t.Fatalf("expected body %d absent from store after removal", id)
	}
}

func TestKinematicBodyDoesNotMoveUnderForce(t *testing.T) {
	l, b := newTestLeonard(t)
	tmpl := cluster.Template{TemplateID: "wall", RefBody: cluster.DefaultBody("wall")} // InverseMass 0 => kinematic
	id := spawnAndCommit(t, l, b, tmpl)

	before := l.bodies[id].Position
	if err := b.SetDirectForceAndTorque(id, geom.NewVec3(100, 0, 0), geom.Vec3{}); err != nil {
		t.Fatalf("SetDirectForceAndTorque: %v", err)
	}
	l.runTick()
	after := l.bodies[id].Position

	if after != before {
		t.Fatalf("expected kinematic body to stay put, before=%+v after=%+v", before, after)
	}
}

func TestObjectIDsAreStrictlyMonotoneAndNeverReused(t *testing.T) {
	l, b := newTestLeonard(t)
	tmpl := movableTemplate("ship")
	idA := spawnAndCommit(t, l, b, tmpl)

	if err := b.RemoveObjects([]cluster.ObjectID{idA}); err != nil {
		t.Fatalf("RemoveObjects: %v", err)
	}
	l.runTick()

	ids, err := b.Spawn([]broker.SpawnRequest{{TemplateID: tmpl.TemplateID}, {TemplateID: tmpl.TemplateID}})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	l.runTick()

	if ids[0] <= idA {
		t.Fatalf("expected re-spawn to allocate an id greater than the removed one, got %d after %d", ids[0], idA)
	}
	if ids[1] <= ids[0] {
		t.Fatalf("expected ids within one Spawn batch to be strictly increasing, got %d then %d", ids[0], ids[1])
	}
}

func TestModifyAppliedTwiceMatchesAppliedOnce(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	pos := geom.NewVec3(1, 2, 3)
	if err := b.SetBodyState(id, cluster.BodyStatePartial{Position: &pos}); err != nil {
		t.Fatalf("SetBodyState: %v", err)
	}
	l.runTick()
	once := l.bodies[id]

	if err := b.SetBodyState(id, cluster.BodyStatePartial{Position: &pos}); err != nil {
		t.Fatalf("SetBodyState: %v", err)
	}
	if err := b.SetBodyState(id, cluster.BodyStatePartial{Position: &pos}); err != nil {
		t.Fatalf("SetBodyState: %v", err)
	}
	l.runTick()
	twice := l.bodies[id]

	if once.Position != twice.Position {
		t.Fatalf("expected applying the same Modify twice to match applying it once, got %+v then %+v", once.Position, twice.Position)
	}
}

func TestBodyOrientationStaysUnitAfterTick(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	if err := b.SetDirectForceAndTorque(id, geom.NewVec3(1, 0, 0), geom.NewVec3(0, 0, 5)); err != nil {
		t.Fatalf("SetDirectForceAndTorque: %v", err)
	}
	for i := 0; i < 3; i++ {
		l.runTick()
	}

	n := l.bodies[id].Orientation.Norm()
	const eps = 1e-6
	if n < 1-eps || n > 1+eps {
		t.Fatalf("expected orientation quaternion norm within [1-eps, 1+eps], got %v", n)
	}
}

func TestSetBoosterForceIsDistinctFromPerBoosterClamp(t *testing.T) {
	l, b := newTestLeonard(t)
	id := spawnAndCommit(t, l, b, movableTemplate("ship"))

	if err := b.SetBoosterForce(id, geom.NewVec3(5, 0, 0), geom.Vec3{}); err != nil {
		t.Fatalf("SetBoosterForce: %v", err)
	}
	l.runTick()

	f := l.forces[id]
	if f.BoosterForce.X != 5 {
		t.Fatalf("expected persisted boosterForce target to be set, got %+v", f.BoosterForce)
	}
}
