package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/oriumgames/navgraph/lib/navblob"
	"github.com/oriumgames/navgraph/lib/textui"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <blob-file>",
		Short: "Zero-copy load a .navblob file and dump its header and chunk summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			r, err := navblob.NewReader(buf)
			if err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return fmt.Errorf("blob failed validation: %w", err)
			}

			section := r.Section()
			textui.Fprintf(os.Stdout, "section morton=%d chunks=%d\n", section.MortonCode(), section.ChunkCount())

			for i := 0; i < section.ChunkCount(); i++ {
				chunk := section.Chunk(i)
				existing := 0
				core := 0
				for m := 0; m < navblob.NodesPerChunk; m++ {
					node := chunk.Node(uint8(m))
					if !node.Exists() {
						continue
					}
					existing++
					if node.ExitMask().IsCore() {
						core++
					}
				}
				textui.Fprintf(os.Stdout, "  chunk morton=%d nodes_existing=%d/%d core=%d\n",
					chunk.MortonCode(), existing, navblob.NodesPerChunk, core)
			}

			if section.ChunkCount() > 0 {
				first := section.Chunk(0)
				type sampleNode struct {
					ChunkMorton uint16
					NodeMorton  uint8
					Y           float32
					ExitMask    navblob.MovementFlags
				}
				spew.Fdump(os.Stdout, sampleNode{
					ChunkMorton: first.MortonCode(),
					NodeMorton:  0,
					Y:           first.Node(0).Y(),
					ExitMask:    first.Node(0).ExitMask(),
				})
			}
			return nil
		},
	}
}
