package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/oriumgames/navgraph/lib/assets"
	"github.com/oriumgames/navgraph/lib/navaddr"
	"github.com/oriumgames/navgraph/lib/navblob"
	"github.com/oriumgames/navgraph/lib/registry"
	"github.com/oriumgames/navgraph/lib/streaming"
)

// newServeCmd runs a toy interest loop: each stdin line is one command
// (load/unload/tick/quit) against a streaming.System backed by a
// DiskLoader rooted at sceneDir, logging the events Tick produces.
func newServeCmd(sceneDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the streaming system against stdin commands (load/unload/tick/quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			provider := assets.NewProvider(ctx, assets.DiskLoader{Dir: *sceneDir})
			reg := registry.NewRegistry[navaddr.SectionAddress]()
			sections, err := registry.RegisterType[navaddr.SectionAddress, *navblob.Reader](reg)
			if err != nil {
				return err
			}
			sys := streaming.NewSystem(ctx, provider, sections)

			dlog.Infof(ctx, "serving from %s; commands: load <scene32hex> <id>, unload <scene32hex> <id>, tick, quit", *sceneDir)

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				fields := strings.Fields(scanner.Text())
				if len(fields) == 0 {
					continue
				}

				switch fields[0] {
				case "quit", "exit":
					logEvents(ctx, sys.Tick(ctx))
					return nil
				case "tick":
					logEvents(ctx, sys.Tick(ctx))
				case "load", "unload":
					addr, err := parseSectionAddress(fields)
					if err != nil {
						dlog.Errorf(ctx, "%v", err)
						continue
					}
					if fields[0] == "load" {
						sys.RequestLoad(addr)
					} else {
						sys.RequestUnload(addr)
					}
					logEvents(ctx, sys.Tick(ctx))
				default:
					dlog.Errorf(ctx, "unknown command %q", fields[0])
				}
			}
			logEvents(ctx, sys.Tick(ctx))
			return scanner.Err()
		},
	}
}

func parseSectionAddress(fields []string) (navaddr.SectionAddress, error) {
	if len(fields) != 3 {
		return navaddr.SectionAddress{}, fmt.Errorf("usage: %s <scene32hex> <section-id>", fields[0])
	}
	scene, err := navaddr.ParseSceneID(fields[1])
	if err != nil {
		return navaddr.SectionAddress{}, err
	}
	id, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return navaddr.SectionAddress{}, err
	}
	return navaddr.SectionAddress{SceneID: scene, SectionID: uint32(id)}, nil
}

func logEvents(ctx context.Context, events []streaming.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case streaming.SectionLoaded:
			dlog.Infof(ctx, "loaded %s", e.Addr)
		case streaming.SectionUnloaded:
			dlog.Infof(ctx, "unloaded %s", e.Addr)
		case streaming.UnloadDeferred:
			dlog.Warnf(ctx, "unload deferred for %s: %s", e.Addr, e.Reason)
		case streaming.AssetLoadFailed:
			dlog.Errorf(ctx, "load failed for %s", e.Addr)
		}
	}
}
