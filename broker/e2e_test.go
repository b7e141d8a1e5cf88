package broker_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/olitheolix/azrael-sub000/broker"
	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/config"
	"github.com/olitheolix/azrael-sub000/cmn/geom"
	"github.com/olitheolix/azrael-sub000/eventbus"
	"github.com/olitheolix/azrael-sub000/forcegrid"
	"github.com/olitheolix/azrael-sub000/leonard"
	"github.com/olitheolix/azrael-sub000/store"
	"github.com/olitheolix/azrael-sub000/worker"
)

// harness wires one Broker and one Leonard against a shared in-memory
// store, single-stepped via Tick rather than Run's wall-clock pacing — the
// same shape as ais_suite_test.go's mockProxyRunner, adapted to azrael's
// components instead of aistore's proxyrunner.
type harness struct {
	b *broker.Broker
	l *leonard.Leonard
}

func newHarness(tickInterval time.Duration) *harness {
	st, err := store.Open(":memory:")
	Expect(err).To(BeNil())

	cfg := config.Default()
	cfg.TickInterval = tickInterval
	cfg.TickDeadline = time.Second

	l := leonard.New(st, worker.NewPool(2, nil), eventbus.New(), forcegrid.New(), cfg, nil)
	Expect(l.LoadMirror()).To(BeNil())
	return &harness{b: broker.New(st), l: l}
}

func movableTemplate(id string, shape cluster.CollisionShape) cluster.Template {
	tmpl := cluster.Template{
		TemplateID: id,
		RefBody:    cluster.DefaultBody(id),
		Fragments:  map[string]cluster.Fragment{"hull": {Shape: shape}},
	}
	tmpl.RefBody.InverseMass = 1
	tmpl.RefBody.PrincipalInertia = geom.NewVec3(1, 1, 1)
	return tmpl
}

func (h *harness) spawnAt(tmpl cluster.Template, pos geom.Vec3) cluster.ObjectID {
	_, err := h.b.AddTemplates([]cluster.Template{tmpl})
	Expect(err).To(BeNil())
	h.l.Tick()

	ids, err := h.b.Spawn([]broker.SpawnRequest{{
		TemplateID: tmpl.TemplateID,
		Overrides:  cluster.BodyStatePartial{Position: &pos},
	}})
	Expect(err).To(BeNil())
	h.l.Tick()
	return ids[0]
}

var _ = Describe("End-to-end scenarios (§8)", func() {
	It("spawn and read back", func() {
		h := newHarness(20 * time.Millisecond)
		tmpl := movableTemplate("T1", cluster.SphereShape(1))
		id := h.spawnAt(tmpl, geom.Vec3{})

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		body, ok := states[id]
		Expect(ok).To(BeTrue())
		Expect(body.Position).To(Equal(geom.Vec3{}))
		Expect(body.VelocityLinear).To(Equal(geom.Vec3{}))
	})

	It("free flight under direct force", func() {
		h := newHarness(1 * time.Second) // Dt = 1s per tick
		id := h.spawnAt(movableTemplate("T2", cluster.SphereShape(1)), geom.Vec3{})

		Expect(h.b.SetDirectForceAndTorque(id, geom.NewVec3(1, 0, 0), geom.Vec3{})).To(BeNil())
		h.l.Tick()

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		body := states[id]
		Expect(body.Position.X).To(BeNumerically("~", 0.5, 1e-2))
		Expect(body.VelocityLinear.X).To(BeNumerically("~", 1, 1e-2))
	})

	It("two non-overlapping bodies form one island each", func() {
		h := newHarness(20 * time.Millisecond)
		tmpl := movableTemplate("T3", cluster.SphereShape(1))
		idA := h.spawnAt(tmpl, geom.NewVec3(0, 0, 0))
		idB := h.spawnAt(tmpl, geom.NewVec3(10, 0, 0))
		h.l.Tick()

		ids, err := h.b.GetAllObjectIDs()
		Expect(err).To(BeNil())
		Expect(ids).To(HaveLen(2))

		aabbs, err := h.b.GetAABB([]cluster.ObjectID{idA, idB})
		Expect(err).To(BeNil())
		Expect(aabbs).To(HaveLen(2))
		Expect(aabbs[idA].Overlaps(aabbs[idB])).To(BeFalse())
	})

	It("touching spheres form one island", func() {
		h := newHarness(20 * time.Millisecond)
		tmpl := movableTemplate("T4", cluster.SphereShape(1))
		idA := h.spawnAt(tmpl, geom.NewVec3(0, 0, 0))
		idB := h.spawnAt(tmpl, geom.NewVec3(1.99, 0, 0))
		h.l.Tick()

		states, err := h.b.GetBodyStates([]cluster.ObjectID{idA, idB})
		Expect(err).To(BeNil())

		aabbA, err := h.b.GetAABB([]cluster.ObjectID{idA})
		Expect(err).To(BeNil())
		aabbB, err := h.b.GetAABB([]cluster.ObjectID{idB})
		Expect(err).To(BeNil())
		Expect(aabbA[idA].Overlaps(aabbB[idB])).To(BeTrue())
		Expect(states).To(HaveLen(2))
	})

	It("remove is authoritative and re-spawn yields a new id", func() {
		h := newHarness(20 * time.Millisecond)
		tmpl := movableTemplate("T5", cluster.SphereShape(1))
		id := h.spawnAt(tmpl, geom.Vec3{})

		Expect(h.b.RemoveObjects([]cluster.ObjectID{id})).To(BeNil())
		h.l.Tick()

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		Expect(states).To(BeEmpty())

		newID := h.spawnAt(tmpl, geom.Vec3{})
		Expect(newID).NotTo(Equal(id))
	})

	It("booster on a rotated body pushes in the world-rotated direction", func() {
		h := newHarness(1 * time.Microsecond) // ~zero duration: isolates force direction from integration drift
		tmpl := movableTemplate("T6", cluster.SphereShape(1))
		// Template pose is ignored on spawn, so the rotation is a spawn override.
		orientation := geom.FromAxisAngle(geom.NewVec3(1, 0, 0), 3.14159265358979)
		tmpl.Boosters = map[string]cluster.Booster{
			"b1": {ID: "b1", Direction: geom.NewVec3(0, 0, 1), MinForce: 0, MaxForce: 10},
		}

		_, err := h.b.AddTemplates([]cluster.Template{tmpl})
		Expect(err).To(BeNil())
		h.l.Tick()
		ids, err := h.b.Spawn([]broker.SpawnRequest{{
			TemplateID: tmpl.TemplateID,
			Overrides:  cluster.BodyStatePartial{Orientation: &orientation},
		}})
		Expect(err).To(BeNil())
		h.l.Tick()
		id := ids[0]

		_, err = h.b.ControlParts(broker.ControlPartsRequest{
			ObjectID: id,
			Boosters: []cluster.BoosterForcePayload{{BoosterID: "b1", Force: 1}},
		}, nil)
		Expect(err).To(BeNil())
		h.l.Tick()

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		body := states[id]
		Expect(body.VelocityLinear.Z).To(BeNumerically("<", 0))
		Expect(body.VelocityLinear.X).To(BeNumerically("~", 0, 1e-9))
		Expect(body.VelocityLinear.Y).To(BeNumerically("~", 0, 1e-9))
	})
})

var _ = Describe("Round-trip / idempotence (§8)", func() {
	It("addTemplate then getTemplate returns the same template", func() {
		h := newHarness(20 * time.Millisecond)
		tmpl := movableTemplate("T6b", cluster.SphereShape(3))

		_, err := h.b.AddTemplates([]cluster.Template{tmpl})
		Expect(err).To(BeNil())
		h.l.Tick()

		got, err := h.b.GetTemplates([]string{tmpl.TemplateID})
		Expect(err).To(BeNil())
		Expect(got[tmpl.TemplateID]).To(Equal(tmpl))
	})

	It("two entries in the same addTemplates batch sharing an id: only the first wins", func() {
		h := newHarness(20 * time.Millisecond)
		tmpl := movableTemplate("T6c", cluster.SphereShape(1))

		results, err := h.b.AddTemplates([]cluster.Template{tmpl, tmpl})
		Expect(err).To(BeNil())
		Expect(results[0].OK).To(BeTrue())
		Expect(results[1].OK).To(BeFalse())
	})

	It("addTemplate then spawn yields a live body matching defaults", func() {
		h := newHarness(20 * time.Millisecond)
		id := h.spawnAt(movableTemplate("T7", cluster.SphereShape(2)), geom.NewVec3(3, 4, 5))

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		Expect(states[id].Position).To(Equal(geom.NewVec3(3, 4, 5)))
		Expect(states[id].CollisionShapes["hull"].Shape.Radius).To(Equal(2.0))
	})

	It("setBodyState then zero ticks leaves the state unchanged", func() {
		h := newHarness(20 * time.Millisecond)
		id := h.spawnAt(movableTemplate("T8", cluster.SphereShape(1)), geom.Vec3{})

		pos := geom.NewVec3(7, 8, 9)
		Expect(h.b.SetBodyState(id, cluster.BodyStatePartial{Position: &pos})).To(BeNil())
		h.l.Tick()

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		Expect(states[id].Position).To(Equal(pos))
	})

	It("a kinematic body does not move under direct force", func() {
		h := newHarness(1 * time.Second)
		tmpl := cluster.Template{TemplateID: "wall", RefBody: cluster.DefaultBody("wall")} // InverseMass 0
		id := h.spawnAt(tmpl, geom.Vec3{})

		Expect(h.b.SetDirectForceAndTorque(id, geom.NewVec3(100, 0, 0), geom.Vec3{})).To(BeNil())
		h.l.Tick()

		states, err := h.b.GetBodyStates([]cluster.ObjectID{id})
		Expect(err).To(BeNil())
		Expect(states[id].Position).To(Equal(geom.Vec3{}))
	})
})
