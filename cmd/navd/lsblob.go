package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oriumgames/navgraph/lib/navblob"
	"github.com/oriumgames/navgraph/lib/textui"
)

func newLsblobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsblob <blob-file>",
		Short: "List ChunkMorton, NodeMorton and height of every node with finite height, one per line",
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

			section := r.Section()
			for i := 0; i < section.ChunkCount(); i++ {
				chunk := section.Chunk(i)
				for m := 0; m < navblob.NodesPerChunk; m++ {
					node := chunk.Node(uint8(m))
					if !node.Exists() {
						continue
					}
					textui.Fprintf(os.Stdout, "%d %d %v\n", chunk.MortonCode(), m, node.Y())
				}
			}
			return nil
		},
	}
}
