package autosave

import (
	"sync"
	"time"

	"tripweaver/models"
)

// DefaultIdleTTL is how long an editing session may sit without edits before
// the sweeper releases it.
const DefaultIdleTTL = 10 * time.Minute

// LoadFunc reads the persisted document a new session starts from.
type LoadFunc func() (models.Itinerary, error)

// Registry holds the open editing sessions, one per itinerary id. A session
// stays registered until its final write has landed, so callers never start
// a second session for the same id from a stale copy.
type Registry struct {
	save  SaveFunc
	opts  []Option
	clock Clock

	mu     sync.Mutex
	savers map[string]*Autosaver
	// bumped whenever a session leaves the map
	gen uint64

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(save SaveFunc, opts ...Option) *Registry {
	return &Registry{
		save:   save,
		opts:   opts,
		clock:  buildOptions(opts).clock,
		savers: make(map[string]*Autosaver),
	}
}

// Open returns the session for id. If none is open, it starts one from load.
// A session that is still closing is waited for before its replacement is loaded.
func (r *Registry) Open(id string, load LoadFunc) (*Autosaver, error) {
	for {
		r.mu.Lock()
		if a, ok := r.savers[id]; ok {
			r.mu.Unlock()
			if !a.closing() {
				return a, nil
			}
			<-a.Done()
			r.remove(id, a)
			continue
		}
		gen := r.gen
		r.mu.Unlock()

		doc, err := load()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if _, ok := r.savers[id]; ok || r.gen != gen {
			// a session came or went while loading; doc may predate its write
			r.mu.Unlock()
			continue
		}
		a := New(id, doc, r.save, r.opts...)
		r.savers[id] = a
		r.mu.Unlock()
		return a, nil
	}
}

// Get returns the registered session for id, including one that is closing.
func (r *Registry) Get(id string) (*Autosaver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.savers[id]
	return a, ok
}

func (r *Registry) remove(id string, a *Autosaver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.savers[id] == a {
		delete(r.savers, id)
		r.gen++
	}
}

// Release closes the session for id, flushing any pending write before it is
// unregistered.
func (r *Registry) Release(id string) bool {
	a, ok := r.Get(id)
	if !ok {
		return false
	}
	a.Close()
	r.remove(id, a)
	return true
}

// Discard ends the session for id without writing, e.g. after the document was deleted.
func (r *Registry) Discard(id string) {
	a, ok := r.Get(id)
	if !ok {
		return
	}
	a.discard()
	r.remove(id, a)
}

// Sweep releases the sessions that have nothing left to write and saw no edit
// for idle. It returns how many it released.
func (r *Registry) Sweep(idle time.Duration) int {
	now := r.clock.Now()
	r.mu.Lock()
	var stale []*Autosaver
	for _, a := range r.savers {
		if a.idle(now, idle) {
			stale = append(stale, a)
		}
	}
	r.mu.Unlock()

	for _, a := range stale {
		a.Close()
		r.remove(a.id, a)
	}
	return len(stale)
}

// StartSweeper runs Sweep every interval until Close. Later calls are no-ops.
func (r *Registry) StartSweeper(every, idle time.Duration) {
	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	stop, done := r.stop, r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.Sweep(idle)
			}
		}
	}()
}

// Close stops the sweeper, then flushes and closes every open session. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	savers := make(map[string]*Autosaver, len(r.savers))
	for id, a := range r.savers {
		savers[id] = a
	}
	r.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	for id, a := range savers {
		a.Close()
		r.remove(id, a)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.savers)
}
