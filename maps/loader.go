package maps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
)

var ErrNotConfigured = errors.New("maps are not configured")

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Config is what the frontend needs to boot the map widget.
type Config struct {
	ScriptURL string `json:"scriptUrl"`
	Center    LatLng `json:"center"`
	Zoom      int    `json:"zoom"`
}

// Resolver produces the widget configuration. It runs at most once per
// successful load.
type Resolver func(ctx context.Context) (Config, error)

// Static returns a Resolver that appends the key to scriptURL.
func Static(scriptURL, apiKey string) Resolver {
	return func(context.Context) (Config, error) {
		if apiKey == "" {
			return Config{}, ErrNotConfigured
		}
		u, err := url.Parse(scriptURL)
		if err != nil {
			return Config{}, fmt.Errorf("maps script url: %w", err)
		}
		q := u.Query()
		q.Set("key", apiKey)
		q.Set("libraries", "places")
		u.RawQuery = q.Encode()
		return Config{
			ScriptURL: u.String(),
			Center:    LatLng{Lat: 20, Lng: 0},
			Zoom:      2,
		}, nil
	}
}

type attempt struct {
	done chan struct{}
	cfg  Config
	err  error
}

func (a *attempt) failed() bool {
	select {
	case <-a.done:
		return a.err != nil
	default:
		return false
	}
}

func (a *attempt) wait(ctx context.Context) (Config, error) {
	select {
	case <-a.done:
		return a.cfg, a.err
	case <-ctx.Done():
		return Config{}, ctx.Err()
	}
}

// Loader resolves the map configuration once and lets any number of callers
// wait for it. A failed load is retried by the next Load call.
type Loader struct {
	resolve Resolver

	mu    sync.Mutex
	cur   *attempt
	ready chan struct{}
}

func NewLoader(resolve Resolver) *Loader {
	return &Loader{resolve: resolve, ready: make(chan struct{})}
}

// Load resolves the configuration, or joins a load already in flight.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	l.mu.Lock()
	a := l.cur
	start := a == nil || a.failed()
	if start {
		a = &attempt{done: make(chan struct{})}
		l.cur = a
	}
	l.mu.Unlock()

	if start {
		l.run(ctx, a)
	}
	return a.wait(ctx)
}

func (l *Loader) run(ctx context.Context, a *attempt) {
	a.cfg, a.err = l.resolve(ctx)
	close(a.done)
	if a.err != nil {
		return
	}
	l.mu.Lock()
	if l.cur == a {
		close(l.ready)
	}
	l.mu.Unlock()
}

// Ready is closed once a load has succeeded.
func (l *Loader) Ready() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// Wait returns the loaded configuration, starting a load if none has been
// attempted. If the latest load failed its error is returned.
func (l *Loader) Wait(ctx context.Context) (Config, error) {
	l.mu.Lock()
	a := l.cur
	l.mu.Unlock()
	if a == nil {
		return l.Load(ctx)
	}
	return a.wait(ctx)
}

// Reset forgets the loaded configuration. Meant for tests.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cur = nil
	l.ready = make(chan struct{})
}
