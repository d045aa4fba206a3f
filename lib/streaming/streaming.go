// Package streaming implements the streaming system (spec §4.C8): the
// coordinator that turns request_load/request_unload intents into
// Provider checkouts and Registry<SectionAddress> installs, all inside
// a single tick so every structural mutation happens on one thread
// (spec §5).
package streaming

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/oriumgames/navgraph/lib/assets"
	"github.com/oriumgames/navgraph/lib/containers"
	"github.com/oriumgames/navgraph/lib/navaddr"
	"github.com/oriumgames/navgraph/lib/navblob"
	"github.com/oriumgames/navgraph/lib/registry"
)

// State is one of the states a SectionEntry may be in (spec §4.C8):
// NotLoaded -> RequestedLoad -> Loading -> Loaded -> RequestedUnload
// -> Unloading -> NotLoaded. NeverExisted isn't represented
// explicitly: an address with no entries map slot is NeverExisted.
type State int

const (
	NotLoaded State = iota
	RequestedLoad
	Loading
	Loaded
	RequestedUnload
	Unloading
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case RequestedLoad:
		return "RequestedLoad"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	case RequestedUnload:
		return "RequestedUnload"
	case Unloading:
		return "Unloading"
	default:
		return "Unknown"
	}
}

// SectionEntry is one SectionAddress's lifecycle bookkeeping. It is
// only ever mutated from inside System.Tick.
type SectionEntry struct {
	State State

	// unloadRequested is set when request_unload(addr) is drained
	// while the entry is still Loading/RequestedLoad: the section
	// isn't installed yet, so there's nothing to clear. Once the
	// pending load lands (Loading -> Loaded) Tick immediately folds
	// this into the same tick's unload pass, rather than requiring
	// the caller to call RequestUnload again.
	unloadRequested bool

	// pendingInstall holds a loaded Reader awaiting a successful
	// acquire_write promotion (some external reader may be holding
	// the freshly-registered, still-empty slot). Retried every tick
	// alongside pendingUnload rather than spun on inline.
	pendingInstall *navblob.Reader
}

// DeferReason is why a requested unload didn't complete this tick.
type DeferReason int

const (
	// ReasonLocked: the registry slot's write intent couldn't be
	// promoted because a reader still holds it.
	ReasonLocked DeferReason = iota
	// ReasonStillLoading: unload was requested before the section
	// finished loading; it's recorded and retried once loaded.
	ReasonStillLoading
	// ReasonStillPinned is reserved for a future reference-count
	// policy above the asset provider's own ref_count (e.g. gameplay
	// pins); nothing in this package currently produces it.
	ReasonStillPinned
)

func (r DeferReason) String() string {
	switch r {
	case ReasonLocked:
		return "Locked"
	case ReasonStillLoading:
		return "StillLoading"
	case ReasonStillPinned:
		return "StillPinned"
	default:
		return "Unknown"
	}
}

// Event is one of SectionLoaded, SectionUnloaded, UnloadDeferred, or
// AssetLoadFailed, returned by Tick.
type Event interface{ isEvent() }

type SectionLoaded struct{ Addr navaddr.SectionAddress }
type SectionUnloaded struct{ Addr navaddr.SectionAddress }
type UnloadDeferred struct {
	Addr   navaddr.SectionAddress
	Reason DeferReason
}
type AssetLoadFailed struct{ Addr navaddr.SectionAddress }

func (SectionLoaded) isEvent()   {}
func (SectionUnloaded) isEvent() {}
func (UnloadDeferred) isEvent()  {}
func (AssetLoadFailed) isEvent() {}

type readyResult struct {
	addr   navaddr.SectionAddress
	reader *navblob.Reader
}

// System is the streaming coordinator (spec §4.C8). RequestLoad and
// RequestUnload may be called from any goroutine; they only enqueue.
// Tick must be called from a single coordinator goroutine and is where
// every state transition and registry mutation happens.
type System struct {
	provider *assets.Provider
	sections *registry.TypedColumn[navaddr.SectionAddress, *navblob.Reader]
	grp      *dgroup.Group

	loadQueue   chan navaddr.SectionAddress
	unloadQueue chan navaddr.SectionAddress
	ready       chan readyResult

	entries        map[navaddr.SectionAddress]*SectionEntry
	pendingUnload  containers.Set[navaddr.SectionAddress]
	pendingInstall containers.Set[navaddr.SectionAddress]

	loadSeq uint64
}

// NewSystem constructs a System over an already-constructed Provider
// and the Section column of a Registry<SectionAddress> (spec §6: "for
// each SectionAddress, a typed read handle to BlobAssetReference
// <Section>").
func NewSystem(ctx context.Context, provider *assets.Provider, sections *registry.TypedColumn[navaddr.SectionAddress, *navblob.Reader]) *System {
	return &System{
		provider:       provider,
		sections:       sections,
		grp:            dgroup.NewGroup(ctx, dgroup.GroupConfig{}),
		loadQueue:      make(chan navaddr.SectionAddress, 256),
		unloadQueue:    make(chan navaddr.SectionAddress, 256),
		ready:          make(chan readyResult, 256),
		entries:        make(map[navaddr.SectionAddress]*SectionEntry),
		pendingUnload:  containers.NewSet[navaddr.SectionAddress](),
		pendingInstall: containers.NewSet[navaddr.SectionAddress](),
	}
}

// Wait blocks until every load goroutine dispatched by Tick has
// delivered its result to the ready channel.
func (s *System) Wait() error {
	return s.grp.Wait()
}

// RequestLoad enqueues a load intent for addr; processed on the next
// Tick (spec §4.C8 step 1).
func (s *System) RequestLoad(addr navaddr.SectionAddress) {
	s.loadQueue <- addr
}

// RequestUnload enqueues an unload intent for addr; processed on the
// next Tick (spec §4.C8 step 3).
func (s *System) RequestUnload(addr navaddr.SectionAddress) {
	s.unloadQueue <- addr
}

// State reports addr's current lifecycle state. An address with no
// entry is NeverExisted, reported here as NotLoaded since the two are
// externally indistinguishable (neither has ever been installed).
func (s *System) State(addr navaddr.SectionAddress) State {
	e, ok := s.entries[addr]
	if !ok {
		return NotLoaded
	}
	return e.State
}

// Tick drains the load queue, the async-load-completion queue, and the
// unload queue, in that order, and returns the events produced (spec
// §4.C8 steps 1-4). Tick itself must only ever run on one goroutine at
// a time; it is the sole place Section's Registry column is mutated.
func (s *System) Tick(ctx context.Context) []Event {
	var events []Event

	events = append(events, s.drainLoadRequests(ctx)...)
	events = append(events, s.drainReady()...)
	events = append(events, s.retryPendingInstalls()...)
	events = append(events, s.drainUnloadRequests()...)
	events = append(events, s.retryPendingUnloads()...)

	return events
}

// drainLoadRequests is step 1: NotLoaded -> RequestedLoad -> Loading,
// dispatching, for each newly-requested address, a supervised
// goroutine that calls the provider's synchronous CheckOut.
// Provider.CheckOutAsync is not used here.
func (s *System) drainLoadRequests(ctx context.Context) []Event {
	var events []Event
	for {
		var addr navaddr.SectionAddress
		select {
		case addr = <-s.loadQueue:
		default:
			return events
		}

		e, ok := s.entries[addr]
		if !ok {
			e = &SectionEntry{State: NotLoaded}
			s.entries[addr] = e
		}
		if e.State != NotLoaded {
			continue // already loading, loaded, or mid-unload: ignore duplicate
		}

		e.State = RequestedLoad
		s.sections.RegisterKey(addr)
		e.State = Loading

		key := addr.ResourceKey()
		goroutineName := fmt.Sprintf("streaming-load:%s:%d", key, atomic.AddUint64(&s.loadSeq, 1))
		s.grp.Go(goroutineName, func(ctx context.Context) error {
			reader, ok := s.provider.CheckOut(ctx, key)
			if !ok {
				dlog.Errorf(ctx, "streaming: load %s failed", addr)
				s.ready <- readyResult{addr: addr, reader: nil}
				return nil
			}
			s.ready <- readyResult{addr: addr, reader: reader}
			return nil
		})
	}
}

// drainReady is step 2: on load success the Reader is parked as
// pendingInstall and handed to retryPendingInstalls to promote into
// the registry (a reader may still be holding the freshly-registered,
// pre-install slot). On failure the entry reverts to NotLoaded.
func (s *System) drainReady() []Event {
	var events []Event
	for {
		var res readyResult
		select {
		case res = <-s.ready:
		default:
			return events
		}

		e, ok := s.entries[res.addr]
		if !ok {
			continue // entry was torn down (Unload raced a load); drop silently
		}

		if res.reader == nil {
			e.State = NotLoaded
			events = append(events, AssetLoadFailed{Addr: res.addr})
			continue
		}

		e.pendingInstall = res.reader
		s.pendingInstall.Insert(res.addr)
	}
}

// retryPendingInstalls attempts acquire_write/TryPromote for every
// address with a loaded Reader awaiting installation, completing the
// Loading -> Loaded transition on success.
func (s *System) retryPendingInstalls() []Event {
	var events []Event
	for addr := range s.pendingInstall {
		e := s.entries[addr]
		if e == nil || e.pendingInstall == nil {
			s.pendingInstall.Delete(addr)
			continue
		}

		wh := s.sections.AcquireWrite(addr)
		if !wh.IsAccessible() || !wh.TryPromote() {
			wh.Release()
			continue // retried again next tick
		}

		*wh.Value() = e.pendingInstall
		wh.Release()
		e.pendingInstall = nil
		s.pendingInstall.Delete(addr)

		e.State = Loaded
		events = append(events, SectionLoaded{Addr: addr})

		if e.unloadRequested {
			e.unloadRequested = false
			e.State = RequestedUnload
			s.pendingUnload.Insert(addr)
		}
	}
	return events
}

// drainUnloadRequests is the new-request half of step 3: Loaded ->
// RequestedUnload for freshly-requested addresses, deferring ones that
// aren't loaded yet, and queuing the rest for promotion attempts.
func (s *System) drainUnloadRequests() []Event {
	var events []Event
	for {
		var addr navaddr.SectionAddress
		select {
		case addr = <-s.unloadQueue:
		default:
			return events
		}

		e, ok := s.entries[addr]
		if !ok {
			continue // nothing to unload
		}

		switch e.State {
		case Loaded:
			e.State = RequestedUnload
			s.pendingUnload.Insert(addr)
		case RequestedUnload, Unloading:
			// already in flight, nothing new to do
		case NotLoaded:
			// nothing loaded or loading: nothing to unload
		default:
			e.unloadRequested = true
			events = append(events, UnloadDeferred{Addr: addr, Reason: ReasonStillLoading})
		}
	}
}

// retryPendingUnloads attempts acquire_write/TryPromote for every
// address still awaiting unload, including ones deferred on earlier
// ticks (spec §4.C8: "Unload deferral is never fatal; it retries on
// subsequent ticks").
func (s *System) retryPendingUnloads() []Event {
	var events []Event
	for addr := range s.pendingUnload {
		e := s.entries[addr]
		if e == nil {
			s.pendingUnload.Delete(addr)
			continue
		}

		wh := s.sections.AcquireWrite(addr)
		if !wh.IsAccessible() || !wh.TryPromote() {
			wh.Release()
			events = append(events, UnloadDeferred{Addr: addr, Reason: ReasonLocked})
			continue
		}

		e.State = Unloading
		*wh.Value() = nil
		wh.Release()
		s.provider.Release(addr.ResourceKey())

		e.State = NotLoaded
		s.pendingUnload.Delete(addr)
		events = append(events, SectionUnloaded{Addr: addr})
	}
	return events
}
