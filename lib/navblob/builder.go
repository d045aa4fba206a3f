package navblob

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BuiltNode is the baker's in-memory representation of a Node before
// serialisation (spec §4.C7 step 6).
type BuiltNode struct {
	Y        float32
	ExitMask MovementFlags
}

// BuiltChunk is the baker's in-memory representation of a Chunk:
// exactly NodesPerChunk nodes, indexed densely by NodeMorton.
type BuiltChunk struct {
	MortonCode uint16
	Nodes      [NodesPerChunk]BuiltNode
}

// Builder assembles a Section blob using a relocating buffer: offsets
// recorded during construction are 32-bit byte offsets from the start
// of the finished buffer, resolved as each piece is appended rather
// than patched after the fact (spec §4.C5).
type Builder struct {
	buf []byte
}

// BuildSection serialises chunks (which the caller must have already
// sorted ascending and unique by MortonCode, per spec §4.C7 step 6)
// into a Section blob, writing sectionMorton into the Section's
// reserved morton_code word (spec §3: "reserved; 0 in v0" — section
// identity is carried by the resource key, not the blob body, so v0
// callers should pass 0). NaN heights are canonicalised to
// CanonicalNaN so the output is byte-identical across runs given
// identical inputs (spec §8 property 12).
func BuildSection(sectionMorton int32, chunks []BuiltChunk) ([]byte, error) {
	for i := 1; i < len(chunks); i++ {
		if chunks[i].MortonCode <= chunks[i-1].MortonCode {
			return nil, fmt.Errorf("navblob: chunks not strictly ascending at index %d: %d <= %d",
				i, chunks[i].MortonCode, chunks[i-1].MortonCode)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("navblob: section has no chunks")
	}

	b := &Builder{buf: make([]byte, headerSize+sectionHeaderSize)}

	chunksOff := len(b.buf)
	b.buf = append(b.buf, make([]byte, len(chunks)*chunkEntrySize)...)

	for i, chunk := range chunks {
		nodesOff := len(b.buf)
		b.buf = append(b.buf, make([]byte, NodesPerChunk*nodeEntrySize)...)
		for j, node := range chunk.Nodes {
			y := node.Y
			mask := node.ExitMask
			if isNaN32(y) {
				y = CanonicalNaN
				mask = Unreachable
			}
			off := nodesOff + j*nodeEntrySize
			binary.LittleEndian.PutUint32(b.buf[off:off+4], math.Float32bits(y))
			binary.LittleEndian.PutUint64(b.buf[off+4:off+12], uint64(mask))
		}

		entryOff := chunksOff + i*chunkEntrySize
		binary.LittleEndian.PutUint16(b.buf[entryOff:entryOff+2], chunk.MortonCode)
		binary.LittleEndian.PutUint32(b.buf[entryOff+4:entryOff+8], uint32(nodesOff))
		binary.LittleEndian.PutUint32(b.buf[entryOff+8:entryOff+12], NodesPerChunk)
	}

	lookupOff := len(b.buf)
	lookup := make([]int16, ChunkLookupLen)
	for i := range lookup {
		lookup[i] = -1
	}
	for i, chunk := range chunks {
		lookup[chunk.MortonCode] = int16(i)
	}
	b.buf = append(b.buf, make([]byte, ChunkLookupLen*2)...)
	for i, v := range lookup {
		binary.LittleEndian.PutUint16(b.buf[lookupOff+i*2:], uint16(v))
	}

	sectionOff := headerSize
	binary.LittleEndian.PutUint32(b.buf[sectionOff:sectionOff+4], uint32(sectionMorton))
	binary.LittleEndian.PutUint32(b.buf[sectionOff+4:sectionOff+8], uint32(chunksOff))
	binary.LittleEndian.PutUint32(b.buf[sectionOff+8:sectionOff+12], uint32(len(chunks)))
	binary.LittleEndian.PutUint32(b.buf[sectionOff+12:sectionOff+16], uint32(lookupOff))
	binary.LittleEndian.PutUint32(b.buf[sectionOff+16:sectionOff+20], ChunkLookupLen)

	putHeader(b.buf, header{
		Version:     BlobVersion,
		TotalLength: uint32(len(b.buf)),
		TypeID:      TypeIDSection,
	})

	return b.buf, nil
}
