package streaming_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/navgraph/lib/assets"
	"github.com/oriumgames/navgraph/lib/navaddr"
	"github.com/oriumgames/navgraph/lib/navblob"
	"github.com/oriumgames/navgraph/lib/registry"
	"github.com/oriumgames/navgraph/lib/streaming"
)

type memLoader struct {
	files map[string][]byte
}

func (m memLoader) Load(_ context.Context, key string) ([]byte, error) {
	buf, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("memLoader: no such key %q", key)
	}
	return buf, nil
}

func oneNodeSection(t *testing.T) []byte {
	t.Helper()
	chunk := navblob.BuiltChunk{MortonCode: 0}
	for i := range chunk.Nodes {
		chunk.Nodes[i] = navblob.BuiltNode{Y: float32(math.NaN()), ExitMask: navblob.Unreachable}
	}
	buf, err := navblob.BuildSection(0, []navblob.BuiltChunk{chunk})
	require.NoError(t, err)
	return buf
}

func newTestSystem(t *testing.T, loader assets.Loader) (*streaming.System, *registry.TypedColumn[navaddr.SectionAddress, *navblob.Reader]) {
	t.Helper()
	ctx := context.Background()
	provider := assets.NewProvider(ctx, loader)
	reg := registry.NewRegistry[navaddr.SectionAddress]()
	col, err := registry.RegisterType[navaddr.SectionAddress, *navblob.Reader](reg)
	require.NoError(t, err)
	sys := streaming.NewSystem(ctx, provider, col)
	return sys, col
}

func testAddr() navaddr.SectionAddress {
	return navaddr.SectionAddress{SceneID: navaddr.SceneID{1, 2, 3}, SectionID: 7}
}

func waitForEvent[T streaming.Event](t *testing.T, sys *streaming.System, ctx context.Context, timeout time.Duration) T {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, ev := range sys.Tick(ctx) {
			if match, ok := ev.(T); ok {
				return match
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for event of type %T", *new(T))
	var zero T
	return zero
}

func TestLoadReadUnloadSequence(t *testing.T) {
	addr := testAddr()
	loader := memLoader{files: map[string][]byte{addr.ResourceKey(): oneNodeSection(t)}}
	sys, col := newTestSystem(t, loader)
	ctx := context.Background()

	sys.RequestLoad(addr)
	waitForEvent[streaming.SectionLoaded](t, sys, ctx, 2*time.Second)
	assert.Equal(t, streaming.Loaded, sys.State(addr))

	rh := col.AcquireRead(addr)
	require.True(t, rh.IsAccessible())
	require.NotNil(t, *rh.Value())

	sys.RequestUnload(addr)
	events := sys.Tick(ctx)
	require.Len(t, events, 1)
	deferred, ok := events[0].(streaming.UnloadDeferred)
	require.True(t, ok)
	assert.Equal(t, streaming.ReasonLocked, deferred.Reason)
	assert.Equal(t, streaming.RequestedUnload, sys.State(addr))

	rh.Release()

	var unloaded streaming.SectionUnloaded
	for i := 0; i < 10; i++ {
		evs := sys.Tick(ctx)
		found := false
		for _, ev := range evs {
			if u, ok := ev.(streaming.SectionUnloaded); ok {
				unloaded = u
				found = true
			}
		}
		if found {
			break
		}
	}
	assert.Equal(t, addr, unloaded.Addr)
	assert.Equal(t, streaming.NotLoaded, sys.State(addr))
}

func TestRequestUnloadBeforeLoadedDefersAsStillLoading(t *testing.T) {
	addr := testAddr()
	loader := memLoader{files: map[string][]byte{addr.ResourceKey(): oneNodeSection(t)}}
	sys, _ := newTestSystem(t, loader)
	ctx := context.Background()

	sys.RequestLoad(addr)
	sys.RequestUnload(addr)

	events := sys.Tick(ctx)
	var sawStillLoading bool
	for _, ev := range events {
		if d, ok := ev.(streaming.UnloadDeferred); ok && d.Reason == streaming.ReasonStillLoading {
			sawStillLoading = true
		}
	}
	assert.True(t, sawStillLoading)

	loaded := waitForEvent[streaming.SectionUnloaded](t, sys, ctx, 2*time.Second)
	assert.Equal(t, addr, loaded.Addr)
	assert.Equal(t, streaming.NotLoaded, sys.State(addr))
}

func TestDuplicateLoadRequestIsIgnoredOnceLoading(t *testing.T) {
	addr := testAddr()
	loader := memLoader{files: map[string][]byte{addr.ResourceKey(): oneNodeSection(t)}}
	sys, _ := newTestSystem(t, loader)
	ctx := context.Background()

	sys.RequestLoad(addr)
	sys.RequestLoad(addr)
	sys.Tick(ctx)
	assert.NoError(t, sys.Wait())
}

func TestAssetLoadFailureReportsEvent(t *testing.T) {
	addr := testAddr()
	loader := memLoader{files: map[string][]byte{}}
	sys, _ := newTestSystem(t, loader)
	ctx := context.Background()

	sys.RequestLoad(addr)
	failed := waitForEvent[streaming.AssetLoadFailed](t, sys, ctx, 2*time.Second)
	assert.Equal(t, addr, failed.Addr)
	assert.Equal(t, streaming.NotLoaded, sys.State(addr))
}
