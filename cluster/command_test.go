package cluster

import (
	"testing"

	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

func TestBodyStatePartialApplyBumpsVersionOnShapeChange(t *testing.T) {
	b := DefaultBody("tmpl")
	b.Version = 1

	shapes := map[string]Fragment{"hull": {Shape: SphereShape(1)}}
	partial := BodyStatePartial{CollisionShapes: shapes}
	got := partial.Apply(b)

	if got.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", got.Version)
	}
	if _, ok := got.CollisionShapes["hull"]; !ok {
		t.Fatalf("expected hull fragment to be present")
	}
}

func TestBodyStatePartialApplyLeavesVersionOnPoseChange(t *testing.T) {
	b := DefaultBody("tmpl")
	b.Version = 5
	pos := geom.NewVec3(1, 2, 3)
	partial := BodyStatePartial{Position: &pos}
	got := partial.Apply(b)

	if got.Version != 5 {
		t.Fatalf("expected version unchanged, got %d", got.Version)
	}
	if got.Position != pos {
		t.Fatalf("expected position applied, got %+v", got.Position)
	}
}

func TestBodyStatePartialValidateRejectsNonUnitOrientation(t *testing.T) {
	q := geom.NewQuat(1, 1, 1, 1) // norm 2, not unit
	p := BodyStatePartial{Orientation: &q}
	if p.Validate() {
		t.Fatalf("expected non-unit orientation to fail validation")
	}
}

func TestBodyStatePartialValidateRejectsNegativeScale(t *testing.T) {
	scale := -1.0
	p := BodyStatePartial{Scale: &scale}
	if p.Validate() {
		t.Fatalf("expected negative scale to fail validation")
	}
}

func TestBoosterForcePayloadIsTarget(t *testing.T) {
	target := BoosterForcePayload{TargetForce: geom.NewVec3(1, 0, 0)}
	if !target.IsTarget() {
		t.Fatalf("expected empty BoosterID to be a target payload")
	}
	clamp := BoosterForcePayload{BoosterID: "b1", Force: 2}
	if clamp.IsTarget() {
		t.Fatalf("expected non-empty BoosterID to be a per-booster clamp command")
	}
}

func TestComputeAABBDegenerateForUnboundedBody(t *testing.T) {
	b := DefaultBody("tmpl")
	b.Position = geom.NewVec3(5, 5, 5)
	a := ComputeAABB(b)
	if a.Min != b.Position || a.Max != b.Position {
		t.Fatalf("expected degenerate point AABB at body position, got min=%+v max=%+v", a.Min, a.Max)
	}
}

func TestAABBOverlapsClosedInterval(t *testing.T) {
	a := AABB{Min: geom.NewVec3(0, 0, 0), Max: geom.NewVec3(1, 1, 1)}
	b := AABB{Min: geom.NewVec3(1, 0, 0), Max: geom.NewVec3(2, 1, 1)}
	if !a.Overlaps(b) {
		t.Fatalf("expected touching faces to count as overlapping")
	}
}
