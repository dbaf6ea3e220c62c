package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"tripweaver/models"
)

var ErrClosed = errors.New("editing session is closed")

const (
	DefaultDelay   = 2 * time.Second
	DefaultTimeout = 10 * time.Second
)

// SaveFunc writes the full document for id to the persistence API.
type SaveFunc func(ctx context.Context, id string, doc models.Itinerary) error

type Option func(*options)

type options struct {
	delay   time.Duration
	timeout time.Duration
	clock   Clock
	logger  *zap.Logger
}

func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func withClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	o := options{
		delay:   DefaultDelay,
		timeout: DefaultTimeout,
		clock:   realClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Autosaver is the editing session of one persisted itinerary. Edits replace the
// in-memory document and schedule a debounced write of whatever is current when
// the quiet interval ends. Write failures are logged and dropped.
type Autosaver struct {
	id     string
	save   SaveFunc
	opts   options
	logger *zap.Logger

	mu         sync.Mutex
	doc        models.Itinerary
	dirty      bool
	closed     bool
	lastActive time.Time

	// serializes writes so an older flush cannot land after a newer one from this session
	writeMu sync.Mutex

	// closed once the session is closed and no write of it is in flight
	done chan struct{}

	debounce *Debouncer
}

func New(id string, initial models.Itinerary, save SaveFunc, opts ...Option) *Autosaver {
	o := buildOptions(opts)
	a := &Autosaver{
		id:         id,
		save:       save,
		opts:       o,
		logger:     o.logger.With(zap.String("itinerary_id", id)),
		doc:        initial,
		lastActive: o.clock.Now(),
		done:       make(chan struct{}),
	}
	a.debounce = newDebouncer(o.clock, o.delay, a.write)
	return a
}

// Edit records doc as the current state and (re)schedules the write. It reports
// false once the session is closed.
func (a *Autosaver) Edit(doc models.Itinerary) bool {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false
	}
	a.record(doc)
	a.mu.Unlock()
	a.debounce.Trigger()
	return true
}

// Update applies fn to the current document under the session lock and, on
// success, records the result like Edit. Concurrent updates are serialized.
func (a *Autosaver) Update(fn func(models.Itinerary) (models.Itinerary, error)) (models.Itinerary, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return models.Itinerary{}, ErrClosed
	}
	next, err := fn(a.doc)
	if err != nil {
		cur := a.doc
		a.mu.Unlock()
		return cur, err
	}
	a.record(next)
	a.mu.Unlock()
	a.debounce.Trigger()
	return next, nil
}

// record must be called with mu held.
func (a *Autosaver) record(doc models.Itinerary) {
	a.doc = doc
	a.dirty = true
	a.lastActive = a.opts.clock.Now()
}

// Current returns the in-memory document, which is authoritative for the session.
func (a *Autosaver) Current() models.Itinerary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc
}

func (a *Autosaver) Pending() bool { return a.debounce.Pending() }

// Saved records a document written through the explicit save path and drops any
// pending debounced write, which it supersedes.
func (a *Autosaver) Saved(doc models.Itinerary) {
	a.debounce.Cancel()
	a.mu.Lock()
	a.doc = doc
	a.dirty = false
	a.lastActive = a.opts.clock.Now()
	a.mu.Unlock()
}

// Close writes any unflushed edit synchronously and ends the session. It
// returns once no write of the session is in flight, also when another
// goroutine is already closing it.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.debounce.Stop()
	a.writeMu.Lock()
	if a.writeLocked() {
		a.logger.Debug("flushed pending autosave on close")
	}
	a.writeMu.Unlock()
	close(a.done)
}

// Done is closed when the session has been closed and flushed.
func (a *Autosaver) Done() <-chan struct{} { return a.done }

func (a *Autosaver) closing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// idle reports whether the session has nothing left to write and saw no edit for at least ttl.
func (a *Autosaver) idle(now time.Time, ttl time.Duration) bool {
	a.mu.Lock()
	quiet := !a.closed && !a.dirty && now.Sub(a.lastActive) >= ttl
	a.mu.Unlock()
	return quiet && !a.Pending()
}

func (a *Autosaver) discard() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.debounce.Stop()
	// taking writeMu waits out a write already in flight
	a.writeMu.Lock()
	a.mu.Lock()
	a.dirty = false
	a.mu.Unlock()
	a.writeMu.Unlock()
	close(a.done)
}

func (a *Autosaver) write() {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.writeLocked()
}

// writeLocked saves the current document if it has unwritten edits. writeMu must be held.
func (a *Autosaver) writeLocked() bool {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return false
	}
	doc := a.doc
	a.dirty = false
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.opts.timeout)
	defer cancel()

	start := a.opts.clock.Now()
	if err := a.save(ctx, a.id, doc); err != nil {
		a.logger.Warn("autosave failed", zap.Error(err))
		return true
	}
	a.logger.Debug("autosaved", zap.Int("days", len(doc.Days)), zap.Duration("took", a.opts.clock.Now().Sub(start)))
	return true
}
