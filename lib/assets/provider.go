// Package assets implements the process-wide coalescing blob cache
// (spec §4.C6): check_out/check_out_async/release/unload/is_loaded/
// force_reload, keyed by resource key string, backed by a Loader and
// handing out zero-copy navblob.Reader views.
package assets

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/oriumgames/navgraph/lib/navblob"
)

// Callback is fired by CheckOutAsync on completion, with a nil Reader
// on load failure, cancellation (Unload), or ref_count reaching zero
// while the load was still pending.
type Callback func(*navblob.Reader)

// entry is one resource key's coalescing cache state (spec §4.C6).
type entry struct {
	refCount  int
	buffer    []byte
	reader    *navblob.Reader
	pending   bool
	callbacks []Callback
	dead      bool // released/unloaded while a load was still in flight
}

// Stats is SPEC_FULL's supplemented observability surface over an
// otherwise-opaque cache.
type Stats struct {
	Loaded        int
	Pending       int
	TotalRefCount int
}

// Provider is the asset provider (spec §4.C6). All public operations
// are expected to be called from a single coordinator goroutine
// (spec §5); CheckOutAsync's background load still needs Provider's
// own mutex, since its completion races against further coordinator
// calls.
type Provider struct {
	mu      sync.Mutex
	loader  Loader
	grp     *dgroup.Group
	entries map[string]*entry
	loadSeq uint64
}

// NewProvider constructs a Provider. Call Wait during shutdown to let
// any in-flight CheckOutAsync loads drain.
func NewProvider(ctx context.Context, loader Loader) *Provider {
	return &Provider{
		loader:  loader,
		grp:     dgroup.NewGroup(ctx, dgroup.GroupConfig{}),
		entries: make(map[string]*entry),
	}
}

// Wait blocks until every in-flight async load has completed.
func (p *Provider) Wait() error {
	return p.grp.Wait()
}

// CheckOut synchronously loads key if not already cached, validates it
// (spec §4.C5), and on success increments ref_count and returns a
// Reader. On failure ref_count is left untouched.
func (p *Provider) CheckOut(ctx context.Context, key string) (*navblob.Reader, bool) {
	p.mu.Lock()
	if e, ok := p.entries[key]; ok && e.reader != nil {
		e.refCount++
		r := e.reader
		p.mu.Unlock()
		return r, true
	}
	p.mu.Unlock()

	buf, err := p.loader.Load(ctx, key)
	if err != nil {
		return nil, false
	}
	r, err := validate(buf)
	if err != nil {
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		e = &entry{}
		p.entries[key] = e
	}
	if e.reader == nil {
		e.buffer = buf
		e.reader = r
	}
	e.refCount++
	return e.reader, true
}

// CheckOutAsync increments ref_count immediately and appends cb.
// If no load is already in flight and nothing is cached, it schedules
// one on the Provider's supervised goroutine group.
func (p *Provider) CheckOutAsync(ctx context.Context, key string, cb Callback) {
	p.mu.Lock()
	e, ok := p.entries[key]
	if !ok {
		e = &entry{}
		p.entries[key] = e
	}
	e.refCount++
	if e.reader != nil {
		r := e.reader
		p.mu.Unlock()
		cb(r)
		return
	}
	e.callbacks = append(e.callbacks, cb)
	if e.pending {
		p.mu.Unlock()
		return
	}
	e.pending = true
	p.mu.Unlock()

	goroutineName := fmt.Sprintf("load:%s:%d", key, atomic.AddUint64(&p.loadSeq, 1))
	p.grp.Go(goroutineName, func(ctx context.Context) error {
		buf, loadErr := p.loader.Load(ctx, key)
		var r *navblob.Reader
		if loadErr == nil {
			r, loadErr = validate(buf)
		}

		p.mu.Lock()
		if e.dead {
			p.mu.Unlock()
			return nil
		}
		e.pending = false
		cbs := e.callbacks
		e.callbacks = nil

		if loadErr != nil {
			dlog.Errorf(ctx, "assets: load %q: %v", key, loadErr)
			e.refCount -= len(cbs)
			if e.refCount <= 0 {
				e.dead = true
				delete(p.entries, key)
			}
			p.mu.Unlock()
			for _, fn := range cbs {
				fn(nil)
			}
			return nil
		}

		e.buffer = buf
		e.reader = r
		p.mu.Unlock()
		for _, fn := range cbs {
			fn(r)
		}
		return nil
	})
}

// Release decrements ref_count; at zero the entry (and any still-
// pending callbacks, notified with nil) is dropped.
func (p *Provider) Release(key string) {
	p.mu.Lock()
	e, ok := p.entries[key]
	if !ok {
		p.mu.Unlock()
		return
	}
	e.refCount--
	if e.refCount > 0 {
		p.mu.Unlock()
		return
	}
	cbs := e.callbacks
	e.callbacks = nil
	e.dead = true
	delete(p.entries, key)
	p.mu.Unlock()

	for _, fn := range cbs {
		fn(nil)
	}
}

// Unload force-ejects key regardless of ref_count, notifying any
// pending callbacks with nil.
func (p *Provider) Unload(key string) {
	p.mu.Lock()
	e, ok := p.entries[key]
	if !ok {
		p.mu.Unlock()
		return
	}
	cbs := e.callbacks
	e.callbacks = nil
	e.dead = true
	delete(p.entries, key)
	p.mu.Unlock()

	for _, fn := range cbs {
		fn(nil)
	}
}

// IsLoaded reports whether key currently has a validated buffer
// cached (regardless of ref_count).
func (p *Provider) IsLoaded(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	return ok && e.reader != nil
}

// ForceReload synchronously reloads key's bytes, replacing the cached
// buffer. Readers holding an earlier *navblob.Reader value keep
// referring to the old bytes until they call CheckOut again — the
// old Reader's buffer slice is never mutated in place, so this falls
// out of ordinary Go value semantics rather than needing explicit
// invalidation (spec §4.C6's documented caveat).
func (p *Provider) ForceReload(ctx context.Context, key string) error {
	p.mu.Lock()
	_, ok := p.entries[key]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("assets: %q is not checked out", key)
	}

	buf, err := p.loader.Load(ctx, key)
	if err != nil {
		return err
	}
	r, err := validate(buf)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		return fmt.Errorf("assets: %q was unloaded during reload", key)
	}
	e.buffer = buf
	e.reader = r
	return nil
}

// Stats summarises the cache's current state.
func (p *Provider) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	var s Stats
	for _, e := range p.entries {
		if e.reader != nil {
			s.Loaded++
		}
		if e.pending {
			s.Pending++
		}
		s.TotalRefCount += e.refCount
	}
	return s
}

func validate(buf []byte) (*navblob.Reader, error) {
	r, err := navblob.NewReader(buf)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
