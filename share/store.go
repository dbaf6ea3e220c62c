package share

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripweaver/models"
	"tripweaver/utils"
)

var ErrNotFound = errors.New("share not found")

// Update lists the share settings to change; nil fields are left alone.
type Update struct {
	ShareMode *models.ShareMode `json:"shareMode,omitempty"`
	IsPublic  *bool             `json:"isPublic,omitempty"`
}

type Store interface {
	Create(ctx context.Context, s models.Share) (*models.Share, error)
	GetShare(ctx context.Context, shareID string) (*models.Share, error)
	Update(ctx context.Context, shareID string, u Update) (*models.Share, error)
	Delete(ctx context.Context, shareID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Share, error)
	AddViews(ctx context.Context, shareID string, n int64) error
}

func prepare(s models.Share, now time.Time) models.Share {
	s.ShareID = utils.GetUUID()
	s.ViewCount = 0
	s.CreatedAt = now
	s.UpdatedAt = now
	if !s.ShareMode.Valid() {
		s.ShareMode = models.ShareModeView
	}
	return s
}

// MongoStore keeps shares in the shares collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func liveFilter(id string) bson.M {
	return bson.M{"shareid": id, "deleted": bson.M{"$ne": true}}
}

func (m *MongoStore) Create(ctx context.Context, s models.Share) (*models.Share, error) {
	s = prepare(s, time.Now().UTC())
	if _, err := m.coll.InsertOne(ctx, s); err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) GetShare(ctx context.Context, shareID string) (*models.Share, error) {
	var s models.Share
	err := m.coll.FindOne(ctx, liveFilter(shareID)).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) Update(ctx context.Context, shareID string, u Update) (*models.Share, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.ShareMode != nil {
		set["share_mode"] = *u.ShareMode
	}
	if u.IsPublic != nil {
		set["is_public"] = *u.IsPublic
	}
	var s models.Share
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.coll.FindOneAndUpdate(ctx, liveFilter(shareID), bson.M{"$set": set}, opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update share: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) Delete(ctx context.Context, shareID string) error {
	res, err := m.coll.UpdateOne(ctx, liveFilter(shareID), bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Share, error) {
	filter := bson.M{"owner_id": ownerID, "deleted": bson.M{"$ne": true}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return utils.FindAndDecode[models.Share](ctx, m.coll, filter, opts)
}

// AddViews folds n flushed views into the stored count. Views of deleted shares are dropped.
func (m *MongoStore) AddViews(ctx context.Context, shareID string, n int64) error {
	_, err := m.coll.UpdateOne(ctx, liveFilter(shareID), bson.M{"$inc": bson.M{"view_count": n}})
	return err
}

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	shares  map[string]models.Share
	deleted map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shares: make(map[string]models.Share), deleted: make(map[string]bool)}
}

func (m *MemoryStore) Create(_ context.Context, s models.Share) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s = prepare(s, time.Now().UTC())
	m.shares[s.ShareID] = s
	return &s, nil
}

func (m *MemoryStore) GetShare(_ context.Context, shareID string) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[shareID]
	if !ok || m.deleted[shareID] {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Update(_ context.Context, shareID string, u Update) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[shareID]
	if !ok || m.deleted[shareID] {
		return nil, ErrNotFound
	}
	if u.ShareMode != nil {
		s.ShareMode = *u.ShareMode
	}
	if u.IsPublic != nil {
		s.IsPublic = *u.IsPublic
	}
	s.UpdatedAt = time.Now().UTC()
	m.shares[shareID] = s
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, shareID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[shareID]; !ok || m.deleted[shareID] {
		return ErrNotFound
	}
	m.deleted[shareID] = true
	return nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Share{}
	for id, s := range m.shares {
		if s.OwnerID == ownerID && !m.deleted[id] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) AddViews(_ context.Context, shareID string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.shares[shareID]; ok && !m.deleted[shareID] {
		s.ViewCount += n
		m.shares[shareID] = s
	}
	return nil
}
