package bake

import "github.com/oriumgames/navgraph/lib/lattice"

// SectionResult is one section's BakeSection outcome within a
// BakeRect sweep.
type SectionResult struct {
	Key   lattice.SectionKey
	Bytes []byte // nil when the section has no navigable geometry
	Err   error
}

// BakeRect bakes every section in the inclusive rectangular range
// [lo, hi] (each axis independently) using a single Baker, so the
// shared height/connectivity cache avoids rescanning chunks that sit
// on a boundary shared by two sections. Sweep order does not affect
// the baked bytes (spec §8 property 12); sections are visited in
// ascending X/Y/Z order purely for predictable progress reporting.
func BakeRect(b *Baker, lo, hi lattice.SectionKey) []SectionResult {
	var results []SectionResult
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				key := lattice.SectionKey{X: x, Y: y, Z: z}
				bytes, err := b.BakeSection(key)
				results = append(results, SectionResult{Key: key, Bytes: bytes, Err: err})
			}
		}
	}
	return results
}
