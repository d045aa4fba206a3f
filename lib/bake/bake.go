// Package bake implements bake_section, the geometry-probe-driven
// algorithm that turns a GeometryProbe query surface into the
// immutable navblob format for one section (spec §4.C7).
package bake

import (
	"fmt"
	"math"
	"sort"

	"github.com/oriumgames/navgraph/lib/containers"
	"github.com/oriumgames/navgraph/lib/geoprobe"
	"github.com/oriumgames/navgraph/lib/lattice"
	"github.com/oriumgames/navgraph/lib/morton"
	"github.com/oriumgames/navgraph/lib/navblob"
)

// defaultHeightCacheChunks bounds how many chunks' worth of scanned
// geometry (heights) and derived connectivity the Baker keeps resident
// across a BakeRect sweep; it's sized generously above one section
// (4096 chunks) so a sweep's shared section boundaries stay hot.
const defaultHeightCacheChunks = 8192

// chunkKey identifies a chunk globally, across section boundaries,
// for use as a cache key: neighbour resolution routinely crosses into
// an adjacent section.
type chunkKey struct {
	Section lattice.SectionKey
	Chunk   lattice.ChunkIdx
}

// chunkData holds one chunk's baked state: per-node height (step 2)
// and, once computed, per-node exit mask (pass-1/pass-2). It is dense
// and indexed directly by NodeMorton, matching the blob layout.
type chunkData struct {
	heights   [navblob.NodesPerChunk]float32
	exitMasks [navblob.NodesPerChunk]navblob.MovementFlags
	connDone  bool
}

func (c *chunkData) active() bool {
	for _, h := range c.heights {
		if !isNaN32(h) {
			return true
		}
	}
	return false
}

func isNaN32(f float32) bool { return f != f }

// Baker runs bake_section against a GeometryProbe, caching scanned
// geometry and derived connectivity so that a BakeRect sweep over many
// sections doesn't repeat raycasts at shared section boundaries, and
// so that the result is independent of the sweep's visitation order
// (spec §8 property 12: determinism).
type Baker struct {
	probe  geoprobe.GeometryProbe
	params Params
	cache  *containers.LRUCache[chunkKey, *chunkData]
}

// NewBaker constructs a Baker. The same Baker should be reused across
// every section in a BakeRect sweep so the height/connectivity cache
// is shared.
func NewBaker(probe geoprobe.GeometryProbe, params Params) *Baker {
	return &Baker{
		probe:  probe,
		params: params,
		cache:  containers.NewLRUCache[chunkKey, *chunkData](defaultHeightCacheChunks),
	}
}

func (b *Baker) getChunkData(section lattice.SectionKey, chunk lattice.ChunkIdx) *chunkData {
	key := chunkKey{Section: section, Chunk: chunk}
	if data, ok := b.cache.Get(key); ok {
		return data
	}
	data := b.scanChunk(section, chunk)
	b.cache.Add(key, data)
	return data
}

// scanChunk performs step 2 of bake_section for one chunk: a raycast
// plus capsule standing-room check at every one of its 256 nodes.
func (b *Baker) scanChunk(section lattice.SectionKey, chunk lattice.ChunkIdx) *chunkData {
	data := &chunkData{}
	capsuleMask := b.params.GeometryMask | b.params.ObstacleMask

	for m := 0; m < navblob.NodesPerChunk; m++ {
		node := lattice.NodeIdxFromMorton(uint8(m))
		base := lattice.GraphToWorldBase(section, chunk, node)
		origin := lattice.Vec3{X: base.X, Y: base.Y + lattice.ChunkHeight, Z: base.Z}

		hit, ok := b.probe.RaycastColumn(origin, lattice.ChunkHeight, b.params.GeometryMask)
		if !ok {
			data.heights[m] = float32(math.NaN())
			continue
		}

		capsuleBottom := lattice.Vec3{X: hit.Position.X, Y: hit.Position.Y + b.params.CapsuleRadius + b.params.GroundClearance, Z: hit.Position.Z}
		capsuleTop := lattice.Vec3{X: hit.Position.X, Y: hit.Position.Y + b.params.CapsuleHeight - b.params.CapsuleRadius + b.params.GroundClearance, Z: hit.Position.Z}

		collider, obstructed := b.probe.CapsuleOverlap(capsuleBottom, capsuleTop, b.params.CapsuleRadius, capsuleMask)
		if obstructed && collider != hit.Collider {
			data.heights[m] = float32(math.NaN())
			continue
		}

		data.heights[m] = float32(hit.Position.Y)
	}
	return data
}

// ensureConnectivity runs pass-1 for one chunk (spec §4.C7 step 4) if
// it hasn't already, filling in exitMasks from the chunk's own heights
// and its neighbours' heights (which may live in other chunks or other
// sections, resolved through DecomposeGlobal). It never recurses into
// a neighbour's own connectivity, only its heights, so this always
// terminates in at most one more cache lookup per neighbour.
func (b *Baker) ensureConnectivity(section lattice.SectionKey, chunk lattice.ChunkIdx) *chunkData {
	data := b.getChunkData(section, chunk)
	if data.connDone {
		return data
	}

	for m := 0; m < navblob.NodesPerChunk; m++ {
		if isNaN32(data.heights[m]) {
			data.exitMasks[m] = navblob.Unreachable
			continue
		}

		node := lattice.NodeIdxFromMorton(uint8(m))
		gx, gy, gz := lattice.GlobalNode(section, chunk, node)
		table := neighborTable(lattice.RowIsOdd(gz))

		var mask navblob.MovementFlags
		for _, off := range table {
			ngx, ngz := gx+off.dgx, gz+off.dgz
			found := false
			for _, dgy := range yTiers {
				ngy := gy + dgy
				nc := lattice.DecomposeGlobal(ngx, ngy, ngz)
				ndata := b.getChunkData(nc.Section, nc.Chunk)
				nh := ndata.heights[nc.Node.NodeMorton()]
				if isNaN32(nh) {
					continue
				}
				if math.Abs(float64(nh)-float64(data.heights[m])) <= b.params.MaxSlope {
					found = true
					break
				}
			}
			if found {
				mask = mask.WithDirection(off.dir, true)
			}
		}
		data.exitMasks[m] = mask
	}

	data.connDone = true
	return data
}

// BakeSection runs bake_section for one section (spec §4.C7). It
// returns (nil, nil) when the section has no navigable geometry at
// all (steps 1 and 3), matching the source algorithm's "no section
// asset" outcome.
func (b *Baker) BakeSection(section lattice.SectionKey) ([]byte, error) {
	corner := lattice.GraphToWorldBase(section, lattice.ChunkIdx{}, lattice.NodeIdx{})
	center := lattice.Vec3{
		X: corner.X + lattice.SectionExtent.X/2,
		Y: corner.Y + lattice.SectionExtent.Y/2,
		Z: corner.Z + lattice.SectionExtent.Z/2,
	}
	halfExtents := lattice.Vec3{
		X: lattice.SectionExtent.X/2 + 0.1,
		Y: lattice.SectionExtent.Y/2 + 0.1,
		Z: lattice.SectionExtent.Z/2 + 0.1,
	}
	if !b.probe.BoxOverlap(center, halfExtents, b.params.GeometryMask) {
		return nil, nil
	}

	// Step 2/3: scan every chunk slot, keep only the non-empty ones.
	var active []lattice.ChunkIdx
	for cy := 0; cy < lattice.ChunksPerSectionY; cy++ {
		for cz := 0; cz < lattice.ChunksPerSectionZ; cz++ {
			for cx := 0; cx < lattice.ChunksPerSectionX; cx++ {
				chunk := lattice.ChunkIdx{X: uint8(cx), Y: uint8(cy), Z: uint8(cz)}
				data := b.getChunkData(section, chunk)
				if data.active() {
					active = append(active, chunk)
				}
			}
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	// Step 4: pass-1 connectivity for every active chunk.
	for _, chunk := range active {
		b.ensureConnectivity(section, chunk)
	}

	// Step 5: pass-2 core/reachability filter.
	for _, chunk := range active {
		data := b.getChunkData(section, chunk)
		for m := 0; m < navblob.NodesPerChunk; m++ {
			mask := data.exitMasks[m]
			if isNaN32(data.heights[m]) || mask.IsCore() {
				continue
			}
			node := lattice.NodeIdxFromMorton(uint8(m))
			gx, gy, gz := lattice.GlobalNode(section, chunk, node)
			table := neighborTable(lattice.RowIsOdd(gz))

			reachable := false
			for _, off := range table {
				if !mask.HasDirection(off.dir) {
					continue
				}
				ngx, ngz := gx+off.dgx, gz+off.dgz
				for _, dgy := range yTiers {
					nc := lattice.DecomposeGlobal(ngx, gy+dgy, ngz)
					ndata := b.getChunkData(nc.Section, nc.Chunk)
					nh := ndata.heights[nc.Node.NodeMorton()]
					if isNaN32(nh) {
						continue
					}
					if math.Abs(float64(nh)-float64(data.heights[m])) > b.params.MaxSlope {
						continue
					}
					if b.ensureConnectivity(nc.Section, nc.Chunk).exitMasks[nc.Node.NodeMorton()].IsCore() {
						reachable = true
					}
					break
				}
				if reachable {
					break
				}
			}
			if !reachable {
				data.exitMasks[m] |= navblob.Unreachable
			}
		}
	}

	// Step 6: emit the blob, sorted ascending by ChunkMorton.
	sort.Slice(active, func(i, j int) bool {
		return active[i].ChunkMorton() < active[j].ChunkMorton()
	})

	builtChunks := make([]navblob.BuiltChunk, len(active))
	for i, chunk := range active {
		data := b.getChunkData(section, chunk)
		bc := navblob.BuiltChunk{MortonCode: chunk.ChunkMorton()}
		for m := 0; m < navblob.NodesPerChunk; m++ {
			bc.Nodes[m] = navblob.BuiltNode{
				Y:        data.heights[m],
				ExitMask: data.exitMasks[m],
			}
		}
		builtChunks[i] = bc
	}

	if _, err := morton.PackSectionID(section.X, section.Y, section.Z); err != nil {
		return nil, fmt.Errorf("bake: %w", err)
	}
	// Section identity lives in the (SceneId, SectionId) resource key /
	// address, not the blob body: morton_code is reserved, 0 in v0.
	return navblob.BuildSection(0, builtChunks)
}
