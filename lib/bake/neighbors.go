package bake

import "github.com/oriumgames/navgraph/lib/navblob"

// neighborOffset is one of the six primary hex neighbours of a node,
// expressed as an integer offset in global lattice space plus the
// MovementFlags bit it occupies.
type neighborOffset struct {
	dgx, dgz int64
	dir      navblob.Direction
}

// evenRowNeighbors and oddRowNeighbors are the parity-dependent hex
// neighbour tables (spec §3): six offsets per row parity, each
// claiming one of the twelve direction bits. A node only ever sets
// the six bits belonging to its own row's table, which is why
// MovementFlags.IsCore (popcount of bits 0-11 == 6) is meaningful —
// the other six bits are always zero for that node.
var evenRowNeighbors = [6]neighborOffset{
	{dgx: +1, dgz: 0, dir: navblob.DirE},
	{dgx: -1, dgz: 0, dir: navblob.DirW},
	{dgx: 0, dgz: +1, dir: navblob.DirNE},
	{dgx: -1, dgz: +1, dir: navblob.DirNW},
	{dgx: 0, dgz: -1, dir: navblob.DirSE},
	{dgx: -1, dgz: -1, dir: navblob.DirSW},
}

var oddRowNeighbors = [6]neighborOffset{
	{dgx: +1, dgz: 0, dir: navblob.DirEN},
	{dgx: -1, dgz: 0, dir: navblob.DirWS},
	{dgx: +1, dgz: +1, dir: navblob.DirN},
	{dgx: 0, dgz: +1, dir: navblob.DirWN},
	{dgx: +1, dgz: -1, dir: navblob.DirES},
	{dgx: 0, dgz: -1, dir: navblob.DirS},
}

func neighborTable(rowOdd bool) [6]neighborOffset {
	if rowOdd {
		return oddRowNeighbors
	}
	return evenRowNeighbors
}

// yTiers is the Δy search order pass-1 probes when resolving a
// neighbour: try the layer above first, then the same layer, then the
// layer below (spec §4.C7 step 4).
var yTiers = [3]int64{+1, 0, -1}
