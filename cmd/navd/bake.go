package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/oriumgames/navgraph/lib/bake"
	"github.com/oriumgames/navgraph/lib/geoprobe"
	"github.com/oriumgames/navgraph/lib/lattice"
)

const (
	geometryLayer geoprobe.LayerMask = 1 << 0
	obstacleLayer geoprobe.LayerMask = 1 << 1
)

// fixtureFile is the on-disk shape of <scene-dir>/fixtures.json: a flat
// list of boxes fed into a geoprobe.FixtureProbe, standing in for the
// real physics engine GeometryProbe is meant to front (spec §6).
type fixtureFile struct {
	Boxes []fixtureBox `json:"boxes"`
}

type fixtureBox struct {
	Center      [3]float64          `json:"center"`
	HalfExtents [3]float64          `json:"halfExtents"`
	Obstacle    bool                `json:"obstacle"`
	Collider    geoprobe.ColliderID `json:"collider"`
}

func loadFixtures(path string) (*geoprobe.FixtureProbe, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading fixtures: %w", err)
	}
	var ff fixtureFile
	if err := json.Unmarshal(buf, &ff); err != nil {
		return nil, fmt.Errorf("parsing fixtures %q: %w", path, err)
	}

	probe := &geoprobe.FixtureProbe{}
	for _, b := range ff.Boxes {
		mask := geometryLayer
		if b.Obstacle {
			mask = obstacleLayer
		}
		probe.Boxes = append(probe.Boxes, geoprobe.Box{
			Center:      lattice.Vec3{X: b.Center[0], Y: b.Center[1], Z: b.Center[2]},
			HalfExtents: lattice.Vec3{X: b.HalfExtents[0], Y: b.HalfExtents[1], Z: b.HalfExtents[2]},
			Mask:        mask,
			Collider:    b.Collider,
		})
	}
	return probe, nil
}

func newBakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bake <scene-dir> <sx> <sy> <sz>",
		Short: "Bake one section from <scene-dir>/fixtures.json into a .navblob file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sceneDir := args[0]
			var coords [3]int64
			for i, name := range []string{"sx", "sy", "sz"} {
				v, err := strconv.ParseInt(args[1+i], 10, 32)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				coords[i] = v
			}
			section := lattice.SectionKey{X: int32(coords[0]), Y: int32(coords[1]), Z: int32(coords[2])}

			probe, err := loadFixtures(filepath.Join(sceneDir, "fixtures.json"))
			if err != nil {
				return err
			}

			baker := bake.NewBaker(probe, bake.DefaultParams(geometryLayer, obstacleLayer))
			blob, err := baker.BakeSection(section)
			if err != nil {
				return fmt.Errorf("baking section %+v: %w", section, err)
			}
			if blob == nil {
				dlog.Infof(ctx, "section %+v has no navigable geometry; nothing written", section)
				return nil
			}

			outPath := filepath.Join(sceneDir, fmt.Sprintf("Section_%d_%d_%d.navblob", section.X, section.Y, section.Z))
			if err := os.WriteFile(outPath, blob, 0o644); err != nil {
				return fmt.Errorf("writing %q: %w", outPath, err)
			}
			dlog.Infof(ctx, "wrote %d bytes to %s", len(blob), outPath)
			return nil
		},
	}
}
