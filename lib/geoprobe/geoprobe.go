// Package geoprobe defines the GeometryProbe interface the baker
// (lib/bake) queries against a host engine's collision world (spec
// §4.C7). The engine's own batching/broadphase internals are out of
// scope (spec §5) — this package only defines the query surface and a
// FixtureProbe test double for exercising the baker without a real
// engine.
package geoprobe

import "github.com/oriumgames/navgraph/lib/lattice"

// LayerMask selects which collision layers a query considers.
type LayerMask uint32

// ColliderID opaquely identifies whatever collider a raycast or
// capsule query hit; the baker only ever compares it for equality
// (the step-2 scan's "hit the ground collider itself" check).
type ColliderID uint64

// HitPoint is the result of a successful raycast_column query.
type HitPoint struct {
	Position lattice.Vec3
	Collider ColliderID
}

// GeometryProbe is the engine-provided read-only query surface the
// baker drives (spec §4.C7).
type GeometryProbe interface {
	// BoxOverlap reports whether any collider on mask overlaps the
	// axis-aligned box centred at center with the given half extents.
	BoxOverlap(center lattice.Vec3, halfExtents lattice.Vec3, mask LayerMask) bool

	// RaycastColumn casts a ray straight down from origin for up to
	// downLength world units against mask, returning the nearest hit.
	RaycastColumn(origin lattice.Vec3, downLength float64, mask LayerMask) (HitPoint, bool)

	// CapsuleOverlap reports the first collider (on mask) a vertical
	// capsule between bottom and top with the given radius overlaps,
	// if any.
	CapsuleOverlap(bottom, top lattice.Vec3, radius float64, mask LayerMask) (ColliderID, bool)
}
