// Package lattice implements the world-space <-> graph-space mapping
// for the staggered (hex-like) navigation lattice (spec §3, §4.C2).
//
// The lattice is not a regular grid: every other row of nodes along Z
// is shifted by half a node's X spacing, which produces six primary
// hex neighbours per node instead of four or eight. This package owns
// the row parity and its X shift (RowIsOdd); the parity-dependent hex
// neighbour offset tables built on it live in lib/bake/neighbors.go.
package lattice

import (
	"math"

	"github.com/oriumgames/navgraph/lib/morton"
)

// Fixed coordinate-system constants (spec §3). These must match
// bit-for-bit between the baker and the runtime reader.
const (
	NodeSize     = 0.5                // X spacing between adjacent lattice columns
	NodeSpacingZ = NodeSize * 0.866025403784438646763723170752936 // NodeSize * sqrt(3)/2

	NodesPerChunkX = 16
	NodesPerChunkZ = 16

	ChunksPerSectionX = 32
	ChunksPerSectionY = 4
	ChunksPerSectionZ = 32

	ChunkHeight = 4.0

	MaxSlopeHeight = 0.25
)

// SectionExtent is the size, in world units, of one section.
var SectionExtent = Vec3{
	X: ChunksPerSectionX * NodesPerChunkX * NodeSize,
	Y: ChunksPerSectionY * ChunkHeight,
	Z: ChunksPerSectionZ * NodesPerChunkZ * NodeSpacingZ,
}

// Vec3 is a plain float64 3-vector; the lattice math is done in
// float64 even though the baked blob stores float32 heights, so that
// snapping decisions aren't perturbed by the storage precision.
type Vec3 struct {
	X, Y, Z float64
}

// SectionKey is a signed triple identifying a section (spec §3).
type SectionKey struct {
	X, Y, Z int32
}

// ChunkIdx locates a chunk within a section (spec §3).
type ChunkIdx struct {
	X, Y, Z uint8 // X,Z in [0,31]; Y in [0,3]
}

// NodeIdx locates a node within a chunk (spec §3).
type NodeIdx struct {
	X, Z uint8 // in [0,15]
}

// ChunkMorton returns the 15-bit Morton code for idx.
func (idx ChunkIdx) ChunkMorton() uint16 {
	code, err := morton.Encode3D5Bits(idx.X, idx.Y, idx.Z)
	if err != nil {
		// ChunkIdx's own invariant (X,Z<32, Y<4) guarantees this
		// never fires; a violation means a caller built a ChunkIdx
		// by hand instead of through this package.
		panic(err)
	}
	return code
}

// ChunkIdxFromMorton is the inverse of ChunkIdx.ChunkMorton.
func ChunkIdxFromMorton(code uint16) ChunkIdx {
	x, y, z := morton.Decode3D5Bits(code)
	return ChunkIdx{X: x, Y: y, Z: z}
}

// NodeMorton returns the 8-bit Morton code for idx.
func (idx NodeIdx) NodeMorton() uint8 {
	code, err := morton.Encode2D4Bits(idx.X, idx.Z)
	if err != nil {
		panic(err)
	}
	return code
}

// NodeIdxFromMorton is the inverse of NodeIdx.NodeMorton.
func NodeIdxFromMorton(code uint8) NodeIdx {
	x, z := morton.Decode2D4Bits(code)
	return NodeIdx{X: x, Z: z}
}

// floorDivMod implements Euclidean (floor) division: unlike Go's
// native integer division, it rounds toward negative infinity,
// which is required so that negative world coordinates map onto the
// correct section/chunk/node rather than wrapping across zero (spec
// §4.C2).
func floorDivMod(a, b int64) (q, r int64) {
	q = a / b
	r = a % b
	if r != 0 && (r < 0) != (b < 0) {
		q--
		r += b
	}
	return q, r
}

// GraphCoord is the fully decomposed address of a lattice vertex plus
// the fractional offset within its node cell.
type GraphCoord struct {
	Section    SectionKey
	Chunk      ChunkIdx
	Node       NodeIdx
	NodeOffset Vec3 // pos - graph_to_world_base(Section, Chunk, Node)
}

// globalNodeRow returns the global (unbounded) lattice row index for a
// world Z coordinate, using floor division so negative Z is handled
// correctly.
func globalNodeRow(z float64) int64 {
	return int64(math.Floor(z / NodeSpacingZ))
}

// rowIsOdd reports the stagger parity of global row gz (spec §3).
func rowIsOdd(gz int64) bool {
	m := gz % 2
	if m < 0 {
		m += 2
	}
	return m == 1
}

// rowXOffset returns the X shift applied to every node in global row
// gz.
func rowXOffset(gz int64) float64 {
	if rowIsOdd(gz) {
		return NodeSize / 2
	}
	return 0
}

// nearestGlobalNodeInRow returns the global lattice column index
// closest to world X within row gz, and the resulting snapped world X.
func nearestGlobalNodeInRow(x float64, gz int64) (gx int64, snappedX float64) {
	offset := rowXOffset(gz)
	gx = int64(math.Round((x - offset) / NodeSize))
	return gx, float64(gx)*NodeSize + offset
}

// WorldToGraph computes the nearest lattice vertex to pos, by testing
// the two candidate rows (floor(z/NodeSpacingZ) and floor+1), applying
// the parity-dependent X offset, and selecting the candidate with the
// smaller 2D squared distance; ties favour the lower row (spec §4.C2).
func WorldToGraph(pos Vec3) GraphCoord {
	rowLo := globalNodeRow(pos.Z)
	rowHi := rowLo + 1

	gxLo, xLo := nearestGlobalNodeInRow(pos.X, rowLo)
	zLo := float64(rowLo) * NodeSpacingZ
	dLo := sqDist2D(pos.X, pos.Z, xLo, zLo)

	gxHi, xHi := nearestGlobalNodeInRow(pos.X, rowHi)
	zHi := float64(rowHi) * NodeSpacingZ
	dHi := sqDist2D(pos.X, pos.Z, xHi, zHi)

	gx, gz, snappedX, snappedZ := gxLo, rowLo, xLo, zLo
	if dHi < dLo {
		gx, gz, snappedX, snappedZ = gxHi, rowHi, xHi, zHi
	}

	gy := int64(math.Floor(pos.Y / ChunkHeight))

	coord := decomposeGlobal(gx, gy, gz)
	coord.NodeOffset = Vec3{
		X: pos.X - snappedX,
		Y: pos.Y - float64(gy)*ChunkHeight,
		Z: pos.Z - snappedZ,
	}
	return coord
}

func sqDist2D(x0, z0, x1, z1 float64) float64 {
	dx := x0 - x1
	dz := z0 - z1
	return dx*dx + dz*dz
}

// DecomposeGlobal splits global (unbounded) lattice indices into
// (SectionKey, ChunkIdx, NodeIdx). It is the building block the baker
// uses to resolve a node's hex neighbours, which are found by taking
// simple integer offsets in global lattice space (spec §4.C7 pass-1).
func DecomposeGlobal(gx, gy, gz int64) GraphCoord {
	return decomposeGlobal(gx, gy, gz)
}

// GlobalNode returns the (gx, gy, gz) global lattice indices for a
// node address, the inverse of DecomposeGlobal.
func GlobalNode(section SectionKey, chunk ChunkIdx, node NodeIdx) (gx, gy, gz int64) {
	gx = int64(section.X)*int64(ChunksPerSectionX*NodesPerChunkX) + int64(chunk.X)*NodesPerChunkX + int64(node.X)
	gz = int64(section.Z)*int64(ChunksPerSectionZ*NodesPerChunkZ) + int64(chunk.Z)*NodesPerChunkZ + int64(node.Z)
	gy = int64(section.Y)*ChunksPerSectionY + int64(chunk.Y)
	return gx, gy, gz
}

// RowIsOdd reports the stagger parity of global row gz (spec §3); the
// baker uses this to pick the parity-dependent hex neighbour table.
func RowIsOdd(gz int64) bool {
	return rowIsOdd(gz)
}

// decomposeGlobal splits global lattice indices into
// (SectionKey, ChunkIdx, NodeIdx).
func decomposeGlobal(gx, gy, gz int64) GraphCoord {
	nodesPerSectionX := int64(ChunksPerSectionX * NodesPerChunkX)
	nodesPerSectionZ := int64(ChunksPerSectionZ * NodesPerChunkZ)

	sx, localX := floorDivMod(gx, nodesPerSectionX)
	sz, localZ := floorDivMod(gz, nodesPerSectionZ)
	sy, localY := floorDivMod(gy, ChunksPerSectionY)

	cx, nx := floorDivMod(localX, NodesPerChunkX)
	cz, nz := floorDivMod(localZ, NodesPerChunkZ)

	return GraphCoord{
		Section: SectionKey{X: int32(sx), Y: int32(sy), Z: int32(sz)},
		Chunk:   ChunkIdx{X: uint8(cx), Y: uint8(localY), Z: uint8(cz)},
		Node:    NodeIdx{X: uint8(nx), Z: uint8(nz)},
	}
}

// GraphToWorldBase returns the lattice vertex (not a cell centre) for
// the given section/chunk/node address (spec §4.C2).
func GraphToWorldBase(section SectionKey, chunk ChunkIdx, node NodeIdx) Vec3 {
	gx := int64(section.X)*int64(ChunksPerSectionX*NodesPerChunkX) + int64(chunk.X)*NodesPerChunkX + int64(node.X)
	gz := int64(section.Z)*int64(ChunksPerSectionZ*NodesPerChunkZ) + int64(chunk.Z)*NodesPerChunkZ + int64(node.Z)
	gy := int64(section.Y)*ChunksPerSectionY + int64(chunk.Y)

	offset := rowXOffset(gz)
	return Vec3{
		X: float64(gx)*NodeSize + offset,
		Y: float64(gy) * ChunkHeight,
		Z: float64(gz) * NodeSpacingZ,
	}
}
