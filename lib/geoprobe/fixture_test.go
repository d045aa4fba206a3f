package geoprobe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/navgraph/lib/geoprobe"
	"github.com/oriumgames/navgraph/lib/lattice"
)

const ground geoprobe.LayerMask = 1

func TestFixtureProbeRaycastAndCapsule(t *testing.T) {
	p := &geoprobe.FixtureProbe{
		Boxes: []geoprobe.Box{
			{
				Center:      lattice.Vec3{X: 0, Y: 0, Z: 0},
				HalfExtents: lattice.Vec3{X: 5, Y: 0.5, Z: 5},
				Mask:        ground,
				Collider:    1,
			},
		},
	}

	hit, ok := p.RaycastColumn(lattice.Vec3{X: 1, Y: 10, Z: 1}, 20, ground)
	require.True(t, ok)
	assert.InDelta(t, 0.5, hit.Position.Y, 1e-9)
	assert.Equal(t, geoprobe.ColliderID(1), hit.Collider)

	_, ok = p.RaycastColumn(lattice.Vec3{X: 100, Y: 10, Z: 100}, 20, ground)
	assert.False(t, ok)

	collider, obstructed := p.CapsuleOverlap(
		lattice.Vec3{X: 1, Y: 0.6, Z: 1},
		lattice.Vec3{X: 1, Y: 2.4, Z: 1},
		0.1, ground)
	assert.False(t, obstructed)
	assert.Equal(t, geoprobe.ColliderID(0), collider)

	assert.True(t, p.BoxOverlap(lattice.Vec3{X: 0, Y: 0, Z: 0}, lattice.Vec3{X: 0.1, Y: 0.1, Z: 0.1}, ground))
	assert.False(t, p.BoxOverlap(lattice.Vec3{X: 100, Y: 100, Z: 100}, lattice.Vec3{X: 0.1, Y: 0.1, Z: 0.1}, ground))
}
