package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tripweaver/access"
	"tripweaver/autosave"
	"tripweaver/models"
)

// ShareLookup resolves share ids; implemented by the share store.
type ShareLookup interface {
	GetShare(ctx context.Context, shareID string) (*models.Share, error)
}

// Change describes one accepted edit.
type Change struct {
	ItineraryID string           `json:"itineraryId"`
	Itinerary   models.Itinerary `json:"itinerary"`
	Op          *Op              `json:"op,omitempty"`
	UserID      string           `json:"userId"`
	Saved       bool             `json:"saved"`
}

// Notifier is told about every accepted edit and explicit save.
type Notifier interface {
	ItineraryChanged(ctx context.Context, c Change)
}

// Access is the caller's view of one itinerary.
type Access struct {
	Doc   models.StoredItinerary
	Share *models.Share
	Role  access.Role
}

// Service is the editing workflow on top of Store: role checks, debounced
// persistence of edit ops, explicit saves and fan-out of changes.
type Service struct {
	store    Store
	sessions *autosave.Registry
	shares   ShareLookup
	notifier Notifier
	logger   *zap.Logger
}

func NewService(store Store, shares ShareLookup, logger *zap.Logger, opts ...autosave.Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, shares: shares, logger: logger}
	opts = append([]autosave.Option{autosave.WithLogger(logger)}, opts...)
	s.sessions = autosave.NewRegistry(s.persist, opts...)
	return s
}

// SetNotifier installs the change listener. Call before serving traffic.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

func (s *Service) Store() Store { return s.store }

func (s *Service) persist(ctx context.Context, id string, doc models.Itinerary) error {
	_, err := s.store.Update(ctx, id, Patch{Itinerary: &doc})
	return err
}

// Resolve loads the itinerary and the caller's role. shareID may be empty for
// direct access. The returned document reflects unsaved edits of an open session.
func (s *Service) Resolve(ctx context.Context, id, userID, shareID string) (Access, error) {
	// a session registered before the read holds edits the store may not have yet
	sess, open := s.sessions.Get(id)
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return Access{}, err
	}

	var share *models.Share
	if shareID != "" && s.shares != nil {
		sh, err := s.shares.GetShare(ctx, shareID)
		if err == nil && sh.ItineraryID == id {
			share = sh
		}
	}

	role := access.Resolve(userID, doc.UserID, share)
	if role == access.None {
		return Access{}, access.ErrForbidden
	}
	if open {
		doc.Itinerary = sess.Current()
	}
	return Access{Doc: doc, Share: share, Role: role}, nil
}

// ResolveShare loads the itinerary behind shareID for userID.
func (s *Service) ResolveShare(ctx context.Context, shareID, userID string) (Access, error) {
	if s.shares == nil {
		return Access{}, ErrNotFound
	}
	sh, err := s.shares.GetShare(ctx, shareID)
	if err != nil {
		return Access{}, err
	}
	return s.Resolve(ctx, sh.ItineraryID, userID, shareID)
}

const maxEditAttempts = 3

// Edit applies op to the session copy and schedules the debounced write.
func (s *Service) Edit(ctx context.Context, id, userID, shareID string, op Op) (models.Itinerary, error) {
	acc, err := s.Resolve(ctx, id, userID, shareID)
	if err != nil {
		return models.Itinerary{}, err
	}
	if err := access.Require(acc.Role, access.Edit); err != nil {
		return models.Itinerary{}, err
	}

	apply := func(cur models.Itinerary) (models.Itinerary, error) { return Apply(cur, op) }
	load := func() (models.Itinerary, error) {
		doc, err := s.store.Get(ctx, id)
		return doc.Itinerary, err
	}
	var next models.Itinerary
	for attempt := 0; ; attempt++ {
		sess, err := s.sessions.Open(id, load)
		if err != nil {
			return models.Itinerary{}, err
		}
		next, err = sess.Update(apply)
		// a session closed under us; Open waits for its flush and reloads
		if errors.Is(err, autosave.ErrClosed) && attempt < maxEditAttempts {
			continue
		}
		if err != nil {
			return models.Itinerary{}, err
		}
		break
	}

	s.notify(ctx, Change{ItineraryID: id, Itinerary: next, Op: &op, UserID: userID})
	return next, nil
}

// Save writes doc immediately and supersedes any pending autosave.
func (s *Service) Save(ctx context.Context, id, userID, shareID string, doc models.Itinerary) (models.StoredItinerary, error) {
	acc, err := s.Resolve(ctx, id, userID, shareID)
	if err != nil {
		return models.StoredItinerary{}, err
	}
	if err := access.Require(acc.Role, access.Edit); err != nil {
		return models.StoredItinerary{}, err
	}

	doc = Renumber(doc).WithEmptySlices()
	saved, err := s.store.Update(ctx, id, Patch{Itinerary: &doc})
	if err != nil {
		return models.StoredItinerary{}, fmt.Errorf("save itinerary: %w", err)
	}
	if sess, ok := s.sessions.Get(id); ok {
		sess.Saved(saved.Itinerary)
	}

	s.notify(ctx, Change{ItineraryID: id, Itinerary: saved.Itinerary, UserID: userID, Saved: true})
	return saved, nil
}

// Close flushes and ends the editing session of id. It reports whether one was open.
func (s *Service) Close(ctx context.Context, id, userID, shareID string) (bool, error) {
	acc, err := s.Resolve(ctx, id, userID, shareID)
	if err != nil {
		return false, err
	}
	if err := access.Require(acc.Role, access.Edit); err != nil {
		return false, err
	}
	return s.sessions.Release(id), nil
}

// Delete soft-deletes id. Owner only; a pending autosave is discarded.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	acc, err := s.Resolve(ctx, id, userID, "")
	if err != nil {
		return err
	}
	if err := access.Require(acc.Role, access.Delete); err != nil {
		return err
	}
	s.sessions.Discard(id)
	return s.store.Delete(ctx, id)
}

// Fork copies an itinerary the caller can view into the caller's account.
func (s *Service) Fork(ctx context.Context, id, userID, shareID string) (models.StoredItinerary, error) {
	if userID == "" {
		return models.StoredItinerary{}, access.ErrForbidden
	}
	acc, err := s.Resolve(ctx, id, userID, shareID)
	if err != nil {
		return models.StoredItinerary{}, err
	}

	it := acc.Doc.Itinerary
	it.Days = cloneDays(it.Days)
	it.Tips = append([]string(nil), it.Tips...)
	if acc.Doc.UserID != userID {
		it.Title = "Forked - " + it.Title
	}

	original := id
	return s.store.Create(ctx, userID, Draft{
		Itinerary:   it,
		Preferences: acc.Doc.Preferences,
		IsDemo:      acc.Doc.IsDemo,
		ForkedFrom:  &original,
	})
}

// StartSweeper releases editing sessions that saw no edit for idle, checking
// every interval. Shutdown stops it.
func (s *Service) StartSweeper(every, idle time.Duration) {
	s.sessions.StartSweeper(every, idle)
}

// OpenSessions reports how many editing sessions are registered.
func (s *Service) OpenSessions() int { return s.sessions.Len() }

// Shutdown flushes every open editing session.
func (s *Service) Shutdown() {
	n := s.sessions.Len()
	s.sessions.Close()
	if n > 0 {
		s.logger.Info("flushed editing sessions", zap.Int("count", n))
	}
}

func (s *Service) notify(ctx context.Context, c Change) {
	if s.notifier != nil {
		s.notifier.ItineraryChanged(ctx, c)
	}
}

func cloneDays(days []models.Day) []models.Day {
	out := make([]models.Day, len(days))
	for i, d := range days {
		d.Activities = append([]string(nil), d.Activities...)
		out[i] = d
	}
	return out
}
