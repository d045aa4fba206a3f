package morton_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/navgraph/lib/morton"
)

func TestChunkMortonRoundTrip(t *testing.T) {
	for x := uint8(0); x < 32; x++ {
		for y := uint8(0); y < 4; y++ {
			for z := uint8(0); z < 32; z++ {
				code, err := morton.Encode3D5Bits(x, y, z)
				require.NoError(t, err)
				gx, gy, gz := morton.Decode3D5Bits(code)
				assert.Equal(t, x, gx)
				assert.Equal(t, y, gy)
				assert.Equal(t, z, gz)
			}
		}
	}
}

func TestNodeMortonRoundTrip(t *testing.T) {
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			code, err := morton.Encode2D4Bits(x, z)
			require.NoError(t, err)
			gx, gz := morton.Decode2D4Bits(code)
			assert.Equal(t, x, gx)
			assert.Equal(t, z, gz)
		}
	}
}

// TestSectionIDBijection is §8 property 1.
func TestSectionIDBijection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		sx := int32(rng.Intn(1024) - 512)
		sy := int32(rng.Intn(1024) - 512)
		sz := int32(rng.Intn(1024) - 512)
		id, err := morton.PackSectionID(sx, sy, sz)
		require.NoError(t, err)
		gx, gy, gz := morton.UnpackSectionID(id)
		assert.Equal(t, sx, gx)
		assert.Equal(t, sy, gy)
		assert.Equal(t, sz, gz)
	}
}

// TestSectionIDOutOfRange is scenario B of §8.
func TestSectionIDOutOfRange(t *testing.T) {
	_, err := morton.PackSectionID(-3, 0, 5)
	require.NoError(t, err)

	_, err = morton.PackSectionID(-513, 0, 0)
	require.Error(t, err)
	var rangeErr *morton.OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestSectionIDExample(t *testing.T) {
	id, err := morton.PackSectionID(-3, 0, 5)
	require.NoError(t, err)
	sx, sy, sz := morton.UnpackSectionID(id)
	assert.Equal(t, int32(-3), sx)
	assert.Equal(t, int32(0), sy)
	assert.Equal(t, int32(5), sz)
}
