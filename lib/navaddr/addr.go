// Package navaddr defines the addressing types shared across the
// navigation engine: SceneId, SectionAddress, ChunkAddress, and
// NodeAddress (spec §3), plus the resource-key convention the asset
// provider and streaming system key off of (spec §6).
package navaddr

import (
	"encoding/hex"
	"fmt"

	"github.com/oriumgames/navgraph/lib/lattice"
	"github.com/oriumgames/navgraph/lib/morton"
)

// SceneID is the 128-bit opaque scene hash (spec §3, SectionAddress).
type SceneID [16]byte

func (id SceneID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseSceneID parses a 32-hex-digit lowercase scene hash, the form
// used in resource keys (spec §6).
func ParseSceneID(s string) (SceneID, error) {
	var id SceneID
	if len(s) != 32 {
		return id, fmt.Errorf("navaddr: scene id %q must be 32 hex digits", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("navaddr: scene id %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

// SectionAddress is the user-facing, globally unique key for a baked
// section (spec §3).
type SectionAddress struct {
	SceneID   SceneID
	SectionID uint32
}

func (a SectionAddress) String() string {
	return fmt.Sprintf("%s/%d", a.SceneID, a.SectionID)
}

// ResourceKey returns the stable resource-key string the asset
// provider and streaming system use to refer to a.'s backing bytes
// (spec §6): "Data/SubScene_{SceneId}/Section_{SectionId}".
func (a SectionAddress) ResourceKey() string {
	return fmt.Sprintf("Data/SubScene_%s/Section_%d", a.SceneID, a.SectionID)
}

// ChunkAddress fully qualifies a chunk: a scene, section, and chunk
// Morton code within that section (spec §3).
type ChunkAddress struct {
	SceneID     SceneID
	SectionID   uint32
	ChunkMorton uint16
}

// NodeAddress fully qualifies a single lattice vertex (spec §3).
type NodeAddress struct {
	SceneID     SceneID
	SectionID   uint32
	ChunkMorton uint16
	NodeMorton  uint8
}

// GetChunkAddress packs a SceneID + SectionKey + ChunkIdx into a
// ChunkAddress, deriving the SectionId via Morton packing (spec
// §4.C2).
func GetChunkAddress(scene SceneID, section lattice.SectionKey, chunk lattice.ChunkIdx) (ChunkAddress, error) {
	sid, err := morton.PackSectionID(section.X, section.Y, section.Z)
	if err != nil {
		return ChunkAddress{}, err
	}
	return ChunkAddress{
		SceneID:     scene,
		SectionID:   sid,
		ChunkMorton: chunk.ChunkMorton(),
	}, nil
}
