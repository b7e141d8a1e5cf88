// Package partition implements the Broad-phase Partitioner (C3, §4.3):
// sweep-and-prune along the highest-variance axis, with island membership
// tracked by a union-find over the active object ids.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package partition

import "github.com/olitheolix/azrael-sub000/cluster"

type unionFind struct {
	parent map[cluster.ObjectID]cluster.ObjectID
	rank   map[cluster.ObjectID]int
}

func newUnionFind(ids []cluster.ObjectID) *unionFind {
	uf := &unionFind{
		parent: make(map[cluster.ObjectID]cluster.ObjectID, len(ids)),
		rank:   make(map[cluster.ObjectID]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(x cluster.ObjectID) cluster.ObjectID {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b cluster.ObjectID) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// classes returns the equivalence classes as islands, in no particular
// order; Partition sorts them.
func (uf *unionFind) classes() [][]cluster.ObjectID {
	groups := map[cluster.ObjectID][]cluster.ObjectID{}
	for id := range uf.parent {
		root := uf.find(id)
		groups[root] = append(groups[root], id)
	}
	islands := make([][]cluster.ObjectID, 0, len(groups))
	for _, members := range groups {
		islands = append(islands, members)
	}
	return islands
}
