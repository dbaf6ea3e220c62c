package itinerary

import (
	"context"
	"sort"
	"sync"
	"time"

	"tripweaver/models"
)

// MemoryStore is an in-process Store for tests and local runs without MongoDB.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]models.StoredItinerary
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]models.StoredItinerary), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, userID string, d Draft) (models.StoredItinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := newStored(userID, d, m.now().UTC())
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]models.ItinerarySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []models.StoredItinerary
	for _, d := range m.docs {
		if d.UserID == userID && !d.Deleted {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	out := make([]models.ItinerarySummary, len(docs))
	for i, d := range docs {
		out[i] = d.Summary()
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.StoredItinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.Deleted {
		return models.StoredItinerary{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, p Patch) (models.StoredItinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.Deleted {
		return models.StoredItinerary{}, ErrNotFound
	}
	if p.Itinerary != nil {
		d.Itinerary = p.Itinerary.WithEmptySlices()
	}
	if p.Preferences != nil {
		d.Preferences = p.Preferences
	}
	if p.IsDemo != nil {
		d.IsDemo = *p.IsDemo
	}
	d.UpdatedAt = m.now().UTC()
	m.docs[id] = d
	return d, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.Deleted {
		return ErrNotFound
	}
	d.Deleted = true
	m.docs[id] = d
	return nil
}
