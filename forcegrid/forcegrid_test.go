package forcegrid

import (
	"testing"

	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

func TestSampleAtOutsideEveryRegionIsZero(t *testing.T) {
	g := New()
	if v := g.SampleAt(geom.NewVec3(5, 5, 5)); v != (geom.Vec3{}) {
		t.Fatalf("expected zero force outside every region, got %+v", v)
	}
}

func TestSampleAtReturnsSetCell(t *testing.T) {
	g := New()
	block := [][][]geom.Vec3{{{geom.NewVec3(1, 2, 3)}}}
	if err := g.SetRegion([3]int{0, 0, 0}, block); err != nil {
		t.Fatalf("SetRegion: %v", err)
	}
	if v := g.SampleAt(geom.NewVec3(0.4, 0.4, 0.4)); v != geom.NewVec3(1, 2, 3) {
		t.Fatalf("expected cell (0,0,0)'s force, got %+v", v)
	}
}

func TestSampleAtFloorsNegativeCoordinatesInsteadOfTruncating(t *testing.T) {
	g := New()
	block := [][][]geom.Vec3{{{geom.NewVec3(9, 9, 9)}}}
	if err := g.SetRegion([3]int{-1, -1, -1}, block); err != nil {
		t.Fatalf("SetRegion: %v", err)
	}
	// -0.4 floors to cell -1, which is the one set region here. Truncating
	// toward zero would instead put -0.4 in cell 0, missing it.
	if v := g.SampleAt(geom.NewVec3(-0.4, -0.4, -0.4)); v != geom.NewVec3(9, 9, 9) {
		t.Fatalf("expected cell (-1,-1,-1)'s force for point -0.4, got %+v", v)
	}
	if v := g.SampleAt(geom.NewVec3(0.4, 0.4, 0.4)); v != (geom.Vec3{}) {
		t.Fatalf("expected cell (0,0,0) (unset) to be zero for point 0.4, got %+v", v)
	}
}
