package leonard

import (
	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
	"github.com/olitheolix/azrael-sub000/store"
)

// drainQueues applies every command queue in the fixed order of §4.4 step
// 1: AddTemplate, Spawn, Modify, DirectForce, BoosterForce, Remove. Entries
// within a queue are already Seq-ordered by store.Drain, so applying them
// in sequence naturally gives "ties on identical (aid, queue) take the most
// recent value".
func (l *Leonard) drainQueues() {
	for _, kind := range cluster.AllQueues {
		entries, err := l.st.Drain(kind)
		if err != nil {
			cos.Errorf("leonard: tick %d: drain %s: %v", l.tick, kind, err)
			continue
		}
		if l.met != nil {
			l.met.QueueDepth.WithLabelValues(string(kind)).Set(float64(len(entries)))
		}
		for _, e := range entries {
			l.applyEntry(kind, e)
		}
	}
}

func (l *Leonard) applyEntry(kind cluster.QueueKind, e cluster.CmdEntry) {
	switch kind {
	case cluster.QueueAddTemplate:
		l.applyAddTemplate(e)
	case cluster.QueueSpawn:
		l.applySpawn(e)
	case cluster.QueueModify:
		l.applyModify(e)
	case cluster.QueueDirectForce:
		l.applyDirectForce(e)
	case cluster.QueueBoosterForce:
		l.applyBoosterForce(e)
	case cluster.QueueRemove:
		l.applyRemove(e)
	}
}

// applyAddTemplate persists a validated template write-once (§4.1): the
// Broker's precheck is optimistic, so the authoritative duplicate check —
// store.Put's insert-if-absent — happens here.
func (l *Leonard) applyAddTemplate(e cluster.CmdEntry) {
	var t cluster.Template
	if err := cos.Unmarshal(e.Payload, &t); err != nil {
		cos.Errorf("leonard: tick %d: corrupt addTemplate entry: %v", l.tick, err)
		return
	}
	doc, err := cos.Marshal(t)
	if err != nil {
		cos.Errorf("leonard: tick %d: marshal template %q: %v", l.tick, t.TemplateID, err)
		return
	}
	if err := l.st.Put(store.Templates, t.TemplateID, doc); err != nil {
		if cmn.KindOf(err) != cmn.KindConflict {
			cos.Errorf("leonard: tick %d: persist template %q: %v", l.tick, t.TemplateID, err)
		}
	}
}

// applySpawn instantiates a new Body from its template and the client's
// overrides (§4.1, §4.4 step 1). An unknown template is skipped silently,
// matching "unknown ids are skipped silently" extended to unknown template
// references — the objectID the Broker reserved is simply never used.
func (l *Leonard) applySpawn(e cluster.CmdEntry) {
	var payload cluster.SpawnPayload
	if err := cos.Unmarshal(e.Payload, &payload); err != nil {
		cos.Errorf("leonard: tick %d: corrupt spawn entry: %v", l.tick, err)
		return
	}
	raw, err := l.st.GetOne(store.Templates, payload.TemplateID, nil)
	if err != nil {
		cos.Warnf("leonard: tick %d: spawn %d: unknown template %q", l.tick, e.ObjectID, payload.TemplateID)
		return
	}
	var tmpl cluster.Template
	if err := cos.Unmarshal(raw, &tmpl); err != nil {
		cos.Errorf("leonard: tick %d: corrupt template %q: %v", l.tick, payload.TemplateID, err)
		return
	}

	body := cluster.DefaultBody(payload.TemplateID)
	body.ObjectID = e.ObjectID
	ref := tmpl.RefBody
	body.InverseMass = ref.InverseMass
	body.PrincipalInertia = ref.PrincipalInertia
	body.CentreOfMassOffset = ref.CentreOfMassOffset
	body.PrincipalAxisRotation = ref.PrincipalAxisRotation
	body.Scale = ref.Scale
	body.Restitution = ref.Restitution
	body.Friction = ref.Friction
	body.LinearFactor = ref.LinearFactor
	body.RotationFactor = ref.RotationFactor
	for name, frag := range tmpl.Fragments {
		body.CollisionShapes[name] = frag
	}
	for id, bst := range tmpl.Boosters {
		body.Boosters[id] = bst
	}
	body = payload.Overrides.Apply(body)

	l.bodies[e.ObjectID] = body
	l.aabbs[e.ObjectID] = cluster.ComputeAABB(body)
}

// applyModify merges a setBodyState partial onto the live body (§4.1, §9).
// Unknown ids are skipped silently.
func (l *Leonard) applyModify(e cluster.CmdEntry) {
	b, ok := l.bodies[e.ObjectID]
	if !ok {
		return
	}
	var partial cluster.BodyStatePartial
	if err := cos.Unmarshal(e.Payload, &partial); err != nil {
		cos.Errorf("leonard: tick %d: corrupt modify entry for %d: %v", l.tick, e.ObjectID, err)
		return
	}
	l.bodies[e.ObjectID] = partial.Apply(b)
}

// applyDirectForce replaces the persisted direct force/torque target
// (§4.4 "Direct-force persistence"). Unknown ids are skipped silently.
func (l *Leonard) applyDirectForce(e cluster.CmdEntry) {
	if _, ok := l.bodies[e.ObjectID]; !ok {
		return
	}
	var payload cluster.DirectForcePayload
	if err := cos.Unmarshal(e.Payload, &payload); err != nil {
		cos.Errorf("leonard: tick %d: corrupt directForce entry for %d: %v", l.tick, e.ObjectID, err)
		return
	}
	f := l.forces[e.ObjectID]
	f.DirectForce = payload.Force
	f.DirectTorque = payload.Torque
	l.forces[e.ObjectID] = f
}

// applyBoosterForce applies either a setBoosterForce target (replaces the
// persisted booster force/torque channel) or a controlParts per-booster
// clamp command (updates that booster's currentForce on the body). See
// cluster.BoosterForcePayload.IsTarget.
func (l *Leonard) applyBoosterForce(e cluster.CmdEntry) {
	b, ok := l.bodies[e.ObjectID]
	if !ok {
		return
	}
	var payload cluster.BoosterForcePayload
	if err := cos.Unmarshal(e.Payload, &payload); err != nil {
		cos.Errorf("leonard: tick %d: corrupt boosterForce entry for %d: %v", l.tick, e.ObjectID, err)
		return
	}
	if payload.IsTarget() {
		f := l.forces[e.ObjectID]
		f.BoosterForce = payload.TargetForce
		f.BoosterTorque = payload.TargetTorque
		l.forces[e.ObjectID] = f
		return
	}
	bst, ok := b.Boosters[payload.BoosterID]
	if !ok {
		cos.Warnf("leonard: tick %d: unknown booster %q on body %d", l.tick, payload.BoosterID, e.ObjectID)
		return
	}
	b.Boosters[payload.BoosterID] = bst.Clamp(payload.Force)
	l.bodies[e.ObjectID] = b
}

// applyRemove deletes a body from the mirror at the tick boundary (§4.4
// "Remove semantics"); unknown ids are tolerated silently.
func (l *Leonard) applyRemove(e cluster.CmdEntry) {
	if _, ok := l.bodies[e.ObjectID]; !ok {
		return
	}
	delete(l.bodies, e.ObjectID)
	delete(l.aabbs, e.ObjectID)
	delete(l.forces, e.ObjectID)
	l.removed = append(l.removed, e.ObjectID)
}
