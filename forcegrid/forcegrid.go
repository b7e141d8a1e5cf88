// Package forcegrid implements the external force-grid contract (§6): a
// read-only lookup sampled once per body per tick (§4.4 step 4). SampleAt
// takes a shared read lock, so samples never wait on each other but do wait
// while a SetRegion call holds the write lock. The force-grid *sampler* itself is external
// collaborator territory (§1); this package is the thin contract plus a
// sparse reference implementation so Leonard has something to sample
// against in tests.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package forcegrid

import (
	"math"
	"sync"

	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

// Grid is the §6 contract: sampleAt(point) -> vector; setRegion(offset,
// block) -> ok; values default to zero outside set regions.
type Grid interface {
	SampleAt(point geom.Vec3) geom.Vec3
	SetRegion(offset [3]int, block [][][]geom.Vec3) error
}

// region is a dense force block anchored at Offset, one entry per unit
// cell.
type region struct {
	offset [3]int
	block  [][][]geom.Vec3
}

// SparseGrid is a reference Grid backed by a handful of regions, each a
// dense 3-D block of force vectors. A point outside every region samples to
// the zero vector (§6).
type SparseGrid struct {
	mu      sync.RWMutex
	regions []region
}

func New() *SparseGrid { return &SparseGrid{} }

func (g *SparseGrid) SetRegion(offset [3]int, block [][][]geom.Vec3) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.regions = append(g.regions, region{offset: offset, block: block})
	return nil
}

// SampleAt returns the force-grid vector at point, floored to the
// enclosing integer cell — int() truncates toward zero, which would map
// both -0.4 and 0.4 to cell 0 instead of -1 and 0. Bodies outside every
// set region receive zero (§4.4 step 4: "Bodies outside the grid receive
// zero").
func (g *SparseGrid) SampleAt(point geom.Vec3) geom.Vec3 {
	cell := [3]int{
		int(math.Floor(point.X)),
		int(math.Floor(point.Y)),
		int(math.Floor(point.Z)),
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, r := range g.regions {
		x := cell[0] - r.offset[0]
		y := cell[1] - r.offset[1]
		z := cell[2] - r.offset[2]
		if x < 0 || y < 0 || z < 0 {
			continue
		}
		if x >= len(r.block) || y >= len(r.block[x]) || z >= len(r.block[x][y]) {
			continue
		}
		return r.block[x][y][z]
	}
	return geom.Vec3{}
}
