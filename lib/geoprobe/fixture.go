package geoprobe

import "github.com/oriumgames/navgraph/lib/lattice"

// Box is an axis-aligned ground fixture: a flat-topped solid block on
// a given LayerMask, used by FixtureProbe.
type Box struct {
	Center      lattice.Vec3
	HalfExtents lattice.Vec3
	Mask        LayerMask
	Collider    ColliderID
}

func (b Box) containsColumn(x, z float64) bool {
	return x >= b.Center.X-b.HalfExtents.X && x <= b.Center.X+b.HalfExtents.X &&
		z >= b.Center.Z-b.HalfExtents.Z && z <= b.Center.Z+b.HalfExtents.Z
}

func (b Box) overlapsBox(center, halfExtents lattice.Vec3) bool {
	return absDiff(b.Center.X, center.X) <= b.HalfExtents.X+halfExtents.X &&
		absDiff(b.Center.Y, center.Y) <= b.HalfExtents.Y+halfExtents.Y &&
		absDiff(b.Center.Z, center.Z) <= b.HalfExtents.Z+halfExtents.Z
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// FixtureProbe is a GeometryProbe test double backed by a flat list
// of Box fixtures, letting bake tests and the `navd bake` CLI (which
// reads them from <scene-dir>/fixtures.json) exercise the baker
// without a real engine.
type FixtureProbe struct {
	Boxes []Box
}

var _ GeometryProbe = (*FixtureProbe)(nil)

func (p *FixtureProbe) BoxOverlap(center, halfExtents lattice.Vec3, mask LayerMask) bool {
	for _, b := range p.Boxes {
		if b.Mask&mask == 0 {
			continue
		}
		if b.overlapsBox(center, halfExtents) {
			return true
		}
	}
	return false
}

func (p *FixtureProbe) RaycastColumn(origin lattice.Vec3, downLength float64, mask LayerMask) (HitPoint, bool) {
	var best HitPoint
	found := false
	for _, b := range p.Boxes {
		if b.Mask&mask == 0 {
			continue
		}
		if !b.containsColumn(origin.X, origin.Z) {
			continue
		}
		top := b.Center.Y + b.HalfExtents.Y
		if top > origin.Y || top < origin.Y-downLength {
			continue
		}
		if !found || top > best.Position.Y {
			best = HitPoint{Position: lattice.Vec3{X: origin.X, Y: top, Z: origin.Z}, Collider: b.Collider}
			found = true
		}
	}
	return best, found
}

func (p *FixtureProbe) CapsuleOverlap(bottom, top lattice.Vec3, radius float64, mask LayerMask) (ColliderID, bool) {
	lo, hi := bottom.Y, top.Y
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, b := range p.Boxes {
		if b.Mask&mask == 0 {
			continue
		}
		if !b.containsColumn(bottom.X, bottom.Z) {
			continue
		}
		boxLo := b.Center.Y - b.HalfExtents.Y
		boxHi := b.Center.Y + b.HalfExtents.Y
		if boxHi >= lo && boxLo <= hi {
			return b.Collider, true
		}
	}
	return 0, false
}
