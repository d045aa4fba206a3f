// Package navblob implements the immutable, relocatable-pointer blob
// format a baked Section is serialised to (spec §4.C5): a small fixed
// header (encoding/binary, little-endian) followed by the Section
// tree, addressed by 32-bit offsets from the start of the buffer
// rather than real pointers, so the whole blob can be read zero-copy
// straight out of the bytes backing it.
package navblob

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// CanonicalNaN is the single NaN bit pattern the builder canonicalises
// every non-existent node's height to, so that bake_section is
// deterministic byte-for-byte (spec §4.C7, §8 property 12; Open
// Question resolved in DESIGN.md).
var CanonicalNaN = math.Float32frombits(0x7FC00000)

const (
	// BlobVersion is the only header version this reader accepts.
	BlobVersion uint32 = 0

	// TypeIDSection identifies a Section root.
	TypeIDSection uint32 = 1

	headerSize        = 16 // version(4) + total_length(4) + type_id(4) + reserved(4)
	sectionHeaderSize = 4 + 8 + 8
	chunkEntrySize    = 2 + 2 + 8 // morton_code(2) + pad(2) + nodes ptr/count(8)
	nodeEntrySize     = 4 + 8     // y(4) + exit_mask(8)

	// NodesPerChunk and ChunkLookupLen are fixed by the coordinate
	// system (spec §3: NodeMorton in [0,255], ChunkMorton in [0,32767]).
	NodesPerChunk  = 256
	ChunkLookupLen = 32768
)

// VersionMismatchError is returned when a blob's header version isn't
// BlobVersion.
type VersionMismatchError struct {
	Got uint32
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("navblob: version mismatch: got %d, want %d", e.Got, BlobVersion)
}

// CorruptBlobError is returned when a blob fails in-place structural
// validation: truncated buffer, an offset/length pointing out of
// range, or (in Validate) a chunk_lookup/morton_code disagreement.
type CorruptBlobError struct {
	Reason string
}

func (e *CorruptBlobError) Error() string {
	return "navblob: corrupt blob: " + e.Reason
}

var errBufferTooShort = errors.New("navblob: buffer shorter than header")

type header struct {
	Version     uint32
	TotalLength uint32
	TypeID      uint32
	Reserved    uint32
}

func parseHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, errBufferTooShort
	}
	h := header{
		Version:     binary.LittleEndian.Uint32(buf[0:4]),
		TotalLength: binary.LittleEndian.Uint32(buf[4:8]),
		TypeID:      binary.LittleEndian.Uint32(buf[8:12]),
		Reserved:    binary.LittleEndian.Uint32(buf[12:16]),
	}
	return h, nil
}

func putHeader(buf []byte, h header) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	binary.LittleEndian.PutUint32(buf[4:8], h.TotalLength)
	binary.LittleEndian.PutUint32(buf[8:12], h.TypeID)
	binary.LittleEndian.PutUint32(buf[12:16], h.Reserved)
}

// Reader is a zero-copy, non-owning view over a validated blob
// buffer. The caller must keep buf alive for as long as the Reader
// (and any SectionView/ChunkView/NodeView derived from it) is in use.
type Reader struct {
	buf []byte
}

// NewReader validates buf's header in place (spec §4.C5: length,
// version, total_length bound) and returns a Reader. It does not walk
// the Section tree; call Validate for the deep structural checks.
func NewReader(buf []byte) (*Reader, error) {
	if len(buf) < headerSize+sectionHeaderSize {
		return nil, &CorruptBlobError{Reason: "buffer shorter than header + minimum section size"}
	}
	h, err := parseHeader(buf)
	if err != nil {
		return nil, &CorruptBlobError{Reason: err.Error()}
	}
	if h.Version != BlobVersion {
		return nil, &VersionMismatchError{Got: h.Version}
	}
	if int(h.TotalLength) > len(buf) {
		return nil, &CorruptBlobError{Reason: "total_length exceeds buffer length"}
	}
	return &Reader{buf: buf[:h.TotalLength]}, nil
}

// Section returns a view of the blob's root Section.
func (r *Reader) Section() SectionView {
	return SectionView{buf: r.buf, off: headerSize}
}

func (r *Reader) rangeOK(off, n int) bool {
	return off >= 0 && n >= 0 && off+n <= len(r.buf)
}

// SectionView is a zero-copy view of a Section (spec §3).
type SectionView struct {
	buf []byte
	off int
}

func (s SectionView) MortonCode() int32 {
	return int32(binary.LittleEndian.Uint32(s.buf[s.off : s.off+4]))
}

func (s SectionView) chunksPtr() (offset, count uint32) {
	b := s.buf[s.off+4:]
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8])
}

func (s SectionView) lookupPtr() (offset, count uint32) {
	b := s.buf[s.off+12:]
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8])
}

// ChunkCount returns the number of active chunks in the section.
func (s SectionView) ChunkCount() int {
	_, n := s.chunksPtr()
	return int(n)
}

// Chunk returns the i'th chunk, in ascending ChunkMorton order.
func (s SectionView) Chunk(i int) ChunkView {
	off, n := s.chunksPtr()
	if i < 0 || uint32(i) >= n {
		panic("navblob: chunk index out of range")
	}
	return ChunkView{buf: s.buf, off: int(off) + i*chunkEntrySize}
}

// ChunkLookupLen is always 32768 (spec §3); ChunkLookup returns the
// index into Chunk(), or -1 if no chunk exists at that ChunkMorton.
func (s SectionView) ChunkLookup(morton int) int16 {
	off, n := s.lookupPtr()
	if morton < 0 || uint32(morton) >= n {
		panic("navblob: chunk_lookup index out of range")
	}
	return int16(binary.LittleEndian.Uint16(s.buf[int(off)+morton*2:]))
}

// LookupChunk resolves a ChunkMorton to its ChunkView, if present.
func (s SectionView) LookupChunk(morton uint16) (ChunkView, bool) {
	k := s.ChunkLookup(int(morton))
	if k < 0 {
		return ChunkView{}, false
	}
	return s.Chunk(int(k)), true
}

// ChunkView is a zero-copy view of a Chunk (spec §3).
type ChunkView struct {
	buf []byte
	off int
}

func (c ChunkView) MortonCode() uint16 {
	return binary.LittleEndian.Uint16(c.buf[c.off : c.off+2])
}

func (c ChunkView) nodesPtr() (offset, count uint32) {
	b := c.buf[c.off+4:]
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8])
}

// Node returns the node at the given NodeMorton index (always
// NodesPerChunk == 256 entries, dense).
func (c ChunkView) Node(morton uint8) NodeView {
	off, n := c.nodesPtr()
	if uint32(morton) >= n {
		panic("navblob: node index out of range")
	}
	return NodeView{buf: c.buf, off: int(off) + int(morton)*nodeEntrySize}
}

// NodeView is a zero-copy view of a Node (spec §3).
type NodeView struct {
	buf []byte
	off int
}

func (n NodeView) Y() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(n.buf[n.off : n.off+4]))
}

func (n NodeView) ExitMask() MovementFlags {
	return MovementFlags(binary.LittleEndian.Uint64(n.buf[n.off+4 : n.off+12]))
}

// Exists reports whether the node has a finite height.
func (n NodeView) Exists() bool {
	return !isNaN32(n.Y())
}

func isNaN32(f float32) bool {
	return f != f
}
