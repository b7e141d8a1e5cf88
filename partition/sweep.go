package partition

import (
	"sort"

	"github.com/olitheolix/azrael-sub000/cluster"
)

// axis indexes X=0, Y=1, Z=2.
type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

func componentOf(v [3]float64, a axis) float64 { return v[a] }

func vecArr(x, y, z float64) [3]float64 { return [3]float64{x, y, z} }

// chooseAxis picks the axis with the largest variance of box centres, ties
// broken by axis index (§4.3 step 1).
func chooseAxis(boxes []cluster.AABB) axis {
	n := float64(len(boxes))
	if n == 0 {
		return axisX
	}
	var sum, sumSq [3]float64
	for _, b := range boxes {
		c := vecArr((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2, (b.Min.Z+b.Max.Z)/2)
		for a := 0; a < 3; a++ {
			sum[a] += c[a]
			sumSq[a] += c[a] * c[a]
		}
	}
	best, bestVar := axisX, -1.0
	for a := 0; a < 3; a++ {
		mean := sum[a] / n
		variance := sumSq[a]/n - mean*mean
		if variance > bestVar {
			bestVar = variance
			best = axis(a)
		}
	}
	return best
}

type event struct {
	value   float64
	id      cluster.ObjectID
	isStart bool
}

// Partition computes the collision islands for the given set of AABBs
// (§4.3). Empty input returns an empty partition; a single id returns one
// island of size one; ids with identical AABBs all land in one island;
// touching-on-a-face counts as overlapping (closed intervals, via
// AABB.Overlaps).
func Partition(boxes []cluster.AABB) [][]cluster.ObjectID {
	if len(boxes) == 0 {
		return nil
	}
	if len(boxes) == 1 {
		return [][]cluster.ObjectID{{boxes[0].ObjectID}}
	}

	byID := make(map[cluster.ObjectID]cluster.AABB, len(boxes))
	ids := make([]cluster.ObjectID, 0, len(boxes))
	for _, b := range boxes {
		byID[b.ObjectID] = b
		ids = append(ids, b.ObjectID)
	}

	a := chooseAxis(boxes)
	events := make([]event, 0, 2*len(boxes))
	for _, b := range boxes {
		lo := componentOf(vecArr(b.Min.X, b.Min.Y, b.Min.Z), a)
		hi := componentOf(vecArr(b.Max.X, b.Max.Y, b.Max.Z), a)
		events = append(events, event{value: lo, id: b.ObjectID, isStart: true})
		events = append(events, event{value: hi, id: b.ObjectID, isStart: false})
	}
	// Ends sort before starts at equal coordinates would miss the closed
	// interval touching case, so starts sort before ends on ties.
	sort.Slice(events, func(i, j int) bool {
		if events[i].value != events[j].value {
			return events[i].value < events[j].value
		}
		return events[i].isStart && !events[j].isStart
	})

	uf := newUnionFind(ids)
	open := map[cluster.ObjectID]struct{}{}
	for _, e := range events {
		if e.isStart {
			newBox := byID[e.id]
			for otherID := range open {
				if newBox.Overlaps(byID[otherID]) {
					uf.union(e.id, otherID)
				}
			}
			open[e.id] = struct{}{}
		} else {
			delete(open, e.id)
		}
	}

	islands := uf.classes()
	for _, members := range islands {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	}
	sort.Slice(islands, func(i, j int) bool { return islands[i][0] < islands[j][0] })
	return islands
}
