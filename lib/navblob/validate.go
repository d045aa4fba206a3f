package navblob

import "fmt"

// Validate performs the deep structural checks spec §3's invariants
// require, beyond what NewReader's header check covers: chunks sorted
// ascending and unique by ChunkMorton, chunk_lookup agreement in both
// directions, and that every NaN-height node has exit_mask exactly
// Unreachable (a finite node carrying Unreachable is not rejected).
// This is a supplemented feature (SPEC_FULL §4): the in-place reader
// is deliberately cheap and only checks bounds, so callers that need
// the stronger guarantee (e.g. the `navd inspect` subcommand and the
// asset provider) call Validate explicitly.
func (r *Reader) Validate() error {
	section := r.Section()
	lookupOff, lookupN := section.lookupPtr()
	if lookupN != ChunkLookupLen {
		return &CorruptBlobError{Reason: fmt.Sprintf("chunk_lookup length %d, want %d", lookupN, ChunkLookupLen)}
	}
	if !r.rangeOK(int(lookupOff), int(lookupN)*2) {
		return &CorruptBlobError{Reason: "chunk_lookup out of buffer range"}
	}

	n := section.ChunkCount()
	if n == 0 {
		return &CorruptBlobError{Reason: "section has no chunks"}
	}

	seenAtMorton := make(map[uint16]int, n)
	var prevMorton uint16
	for i := 0; i < n; i++ {
		chunk := section.Chunk(i)
		m := chunk.MortonCode()
		if i > 0 && m <= prevMorton {
			return &CorruptBlobError{Reason: fmt.Sprintf("chunks not strictly ascending at index %d: %d <= %d", i, m, prevMorton)}
		}
		prevMorton = m
		seenAtMorton[m] = i

		_, nodeCount := chunk.nodesPtr()
		if nodeCount != NodesPerChunk {
			return &CorruptBlobError{Reason: fmt.Sprintf("chunk %d has %d nodes, want %d", m, nodeCount, NodesPerChunk)}
		}
		for j := 0; j < NodesPerChunk; j++ {
			node := chunk.Node(uint8(j))
			if isNaN32(node.Y()) {
				if node.ExitMask() != Unreachable {
					return &CorruptBlobError{Reason: fmt.Sprintf("chunk %d node %d: NaN height but exit_mask != Unreachable", m, j)}
				}
			}
		}
	}

	for m := 0; m < ChunkLookupLen; m++ {
		k := section.ChunkLookup(m)
		if k == -1 {
			if _, ok := seenAtMorton[uint16(m)]; ok {
				return &CorruptBlobError{Reason: fmt.Sprintf("chunk_lookup[%d] == -1 but a chunk exists there", m)}
			}
			continue
		}
		if int(k) < 0 || int(k) >= n {
			return &CorruptBlobError{Reason: fmt.Sprintf("chunk_lookup[%d] == %d out of chunk range", m, k)}
		}
		if got := section.Chunk(int(k)).MortonCode(); got != uint16(m) {
			return &CorruptBlobError{Reason: fmt.Sprintf("chunk_lookup[%d] == %d but chunks[%d].morton_code == %d", m, k, k, got)}
		}
	}
	return nil
}
