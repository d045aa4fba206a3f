package lattice_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oriumgames/navgraph/lib/lattice"
)

const epsilon = 1e-9

func closeTo(t *testing.T, want, got float64) {
	t.Helper()
	assert.InDeltaf(t, want, got, epsilon, "want %v got %v", want, got)
}

// TestStaggeredSnap is scenario A of spec §8.
func TestStaggeredSnap(t *testing.T) {
	pos := lattice.Vec3{X: 0.75, Y: 0.0, Z: 0.4330127}
	coord := lattice.WorldToGraph(pos)

	global := lattice.GraphToWorldBase(coord.Section, coord.Chunk, coord.Node)

	closeTo(t, 0.75, global.X)
	closeTo(t, 0.0, global.Y)
	closeTo(t, lattice.NodeSpacingZ, global.Z) // row gz=1

	// Reconstructed from NodeOffset, the original position is
	// reproduced exactly.
	closeTo(t, pos.X, global.X+coord.NodeOffset.X)
	closeTo(t, pos.Y, global.Y+coord.NodeOffset.Y)
	closeTo(t, pos.Z, global.Z+coord.NodeOffset.Z)
}

// TestWorldToGraphRoundTrip is §8 property 3: graph_to_world_base
// applied to world_to_graph(p) reproduces the snapped vertex, and the
// node offset reproduces p, over many random positions.
func TestWorldToGraphRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		pos := lattice.Vec3{
			X: (rng.Float64() - 0.5) * 200,
			Y: (rng.Float64() - 0.5) * 40,
			Z: (rng.Float64() - 0.5) * 200,
		}
		coord := lattice.WorldToGraph(pos)
		base := lattice.GraphToWorldBase(coord.Section, coord.Chunk, coord.Node)

		closeTo(t, pos.X, base.X+coord.NodeOffset.X)
		closeTo(t, pos.Y, base.Y+coord.NodeOffset.Y)
		closeTo(t, pos.Z, base.Z+coord.NodeOffset.Z)

		// The snapped vertex found must be at least as close (in 2D)
		// as the candidates one node over in X in the same row, i.e.
		// no more than half a node away in X.
		assert.LessOrEqual(t, math.Abs(coord.NodeOffset.X), lattice.NodeSize/2+epsilon)
	}
}

func TestChunkMortonIndexRoundTrip(t *testing.T) {
	for x := uint8(0); x < 32; x++ {
		for y := uint8(0); y < 4; y++ {
			for z := uint8(0); z < 32; z++ {
				idx := lattice.ChunkIdx{X: x, Y: y, Z: z}
				got := lattice.ChunkIdxFromMorton(idx.ChunkMorton())
				assert.Equal(t, idx, got)
			}
		}
	}
}

func TestNodeMortonIndexRoundTrip(t *testing.T) {
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			idx := lattice.NodeIdx{X: x, Z: z}
			got := lattice.NodeIdxFromMorton(idx.NodeMorton())
			assert.Equal(t, idx, got)
		}
	}
}

func TestNegativeCoordinatesFloorDivide(t *testing.T) {
	pos := lattice.Vec3{X: -0.3, Y: -5, Z: -0.1}
	coord := lattice.WorldToGraph(pos)
	// Regardless of the exact snap, the section/chunk/node indices
	// must be well-formed (floor division, never negative node/chunk
	// indices from a naive truncating division).
	assert.True(t, coord.Chunk.X < 32)
	assert.True(t, coord.Chunk.Z < 32)
	assert.True(t, coord.Node.X < 16)
	assert.True(t, coord.Node.Z < 16)
}

func TestSectionExtentMatchesSpec(t *testing.T) {
	closeTo(t, 32*16*lattice.NodeSize, lattice.SectionExtent.X)
	closeTo(t, 4*lattice.ChunkHeight, lattice.SectionExtent.Y)
	closeTo(t, 32*16*lattice.NodeSpacingZ, lattice.SectionExtent.Z)
}

func TestNodeSpacingZConstant(t *testing.T) {
	closeTo(t, lattice.NodeSize*math.Sqrt(3)/2, lattice.NodeSpacingZ)
}
