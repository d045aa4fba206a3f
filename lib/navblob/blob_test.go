package navblob_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/navgraph/lib/navblob"
)

func oneChunk(morton uint16, fill func(j int) navblob.BuiltNode) navblob.BuiltChunk {
	var c navblob.BuiltChunk
	c.MortonCode = morton
	for j := range c.Nodes {
		c.Nodes[j] = fill(j)
	}
	return c
}

// TestChunkLookupRoundTrip is scenario C of spec §8: two chunks at
// ChunkMorton 7 and 42 produce chunk_lookup[7]=0, chunk_lookup[42]=1,
// everything else -1.
func TestChunkLookupRoundTrip(t *testing.T) {
	allNaN := func(int) navblob.BuiltNode {
		return navblob.BuiltNode{Y: float32(math.NaN()), ExitMask: navblob.Unreachable}
	}
	chunks := []navblob.BuiltChunk{
		oneChunk(7, allNaN),
		oneChunk(42, allNaN),
	}
	bytes, err := navblob.BuildSection(0, chunks)
	require.NoError(t, err)

	r, err := navblob.NewReader(bytes)
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	section := r.Section()
	assert.Equal(t, int16(0), section.ChunkLookup(7))
	assert.Equal(t, int16(1), section.ChunkLookup(42))
	assert.Equal(t, int16(-1), section.ChunkLookup(0))
	assert.Equal(t, int16(-1), section.ChunkLookup(8))

	c, ok := section.LookupChunk(42)
	require.True(t, ok)
	assert.Equal(t, uint16(42), c.MortonCode())

	_, ok = section.LookupChunk(100)
	assert.False(t, ok)
}

func TestBuildThenReadBitwiseEqual(t *testing.T) {
	chunk := oneChunk(5, func(j int) navblob.BuiltNode {
		if j%3 == 0 {
			return navblob.BuiltNode{Y: float32(math.NaN()), ExitMask: navblob.Unreachable}
		}
		mask := navblob.MovementFlags(0).WithDirection(navblob.DirN, true).WithDirection(navblob.DirS, true)
		return navblob.BuiltNode{Y: float32(j) * 0.5, ExitMask: mask}
	})
	bytes, err := navblob.BuildSection(3, []navblob.BuiltChunk{chunk})
	require.NoError(t, err)

	r, err := navblob.NewReader(bytes)
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	section := r.Section()
	assert.Equal(t, int32(3), section.MortonCode())
	got := section.Chunk(0)
	assert.Equal(t, uint16(5), got.MortonCode())
	for j := 0; j < navblob.NodesPerChunk; j++ {
		node := got.Node(uint8(j))
		if j%3 == 0 {
			assert.False(t, node.Exists())
			assert.Equal(t, navblob.Unreachable, node.ExitMask())
		} else {
			assert.True(t, node.Exists())
			assert.InDelta(t, float32(j)*0.5, node.Y(), 1e-6)
			assert.True(t, node.ExitMask().HasDirection(navblob.DirN))
			assert.True(t, node.ExitMask().HasDirection(navblob.DirS))
			assert.False(t, node.ExitMask().HasDirection(navblob.DirE))
		}
	}
}

func TestVersionMismatch(t *testing.T) {
	chunk := oneChunk(0, func(int) navblob.BuiltNode {
		return navblob.BuiltNode{Y: float32(math.NaN()), ExitMask: navblob.Unreachable}
	})
	bytes, err := navblob.BuildSection(0, []navblob.BuiltChunk{chunk})
	require.NoError(t, err)

	bytes[0] = 1 // corrupt the version word (little-endian byte 0)
	_, err = navblob.NewReader(bytes)
	require.Error(t, err)
	var verErr *navblob.VersionMismatchError
	assert.ErrorAs(t, err, &verErr)
}

func TestTruncatedBufferIsCorrupt(t *testing.T) {
	chunk := oneChunk(0, func(int) navblob.BuiltNode {
		return navblob.BuiltNode{Y: float32(math.NaN()), ExitMask: navblob.Unreachable}
	})
	bytes, err := navblob.BuildSection(0, []navblob.BuiltChunk{chunk})
	require.NoError(t, err)

	_, err = navblob.NewReader(bytes[:10])
	require.Error(t, err)
	var corruptErr *navblob.CorruptBlobError
	assert.ErrorAs(t, err, &corruptErr)
}

func TestNonAscendingChunksRejected(t *testing.T) {
	allNaN := func(int) navblob.BuiltNode {
		return navblob.BuiltNode{Y: float32(math.NaN()), ExitMask: navblob.Unreachable}
	}
	_, err := navblob.BuildSection(0, []navblob.BuiltChunk{
		oneChunk(5, allNaN),
		oneChunk(5, allNaN),
	})
	assert.Error(t, err)
}

func TestMovementFlagsCorePopcount(t *testing.T) {
	var f navblob.MovementFlags
	// A node only ever has one row parity's six directions available;
	// core means all six of THOSE are set, not all twelve.
	evenRowDirs := []navblob.Direction{
		navblob.DirE, navblob.DirW, navblob.DirNE, navblob.DirNW, navblob.DirSE, navblob.DirSW,
	}
	assert.False(t, f.IsCore())
	for i, d := range evenRowDirs {
		f = f.WithDirection(d, true)
		assert.Equal(t, i+1, f.CorePopcount())
		assert.Equal(t, i+1 == len(evenRowDirs), f.IsCore())
	}
	assert.True(t, f.IsCore())

	// Setting an opposite-parity bit too doesn't change the 6-count
	// check's meaning, but popcount now exceeds 6 so IsCore goes false.
	f = f.WithDirection(navblob.DirN, true)
	assert.Equal(t, 7, f.CorePopcount())
	assert.False(t, f.IsCore())
}
