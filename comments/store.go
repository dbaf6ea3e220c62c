package comments

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

var ErrNotFound = errors.New("comment not found")

// Filter narrows a listing. The zero value lists everything.
type Filter struct {
	Day     *int // only comments on this day
	General bool // only comments not tied to a day
}

func (f Filter) match(c models.Comment) bool {
	switch {
	case f.General:
		return c.DayIndex == nil
	case f.Day != nil:
		return c.DayIndex != nil && *c.DayIndex == *f.Day
	}
	return true
}

type Store interface {
	Create(ctx context.Context, c models.Comment) (models.Comment, error)
	List(ctx context.Context, shareID string, f Filter) ([]models.Comment, error)
	Get(ctx context.Context, shareID, commentID string) (models.Comment, error)
	Delete(ctx context.Context, shareID, commentID string) error
	SetResolved(ctx context.Context, shareID, commentID string, resolved bool) (models.Comment, error)
}

func prepare(c models.Comment, now time.Time) models.Comment {
	c.ID = utils.GetUUID()
	c.CreatedAt = now
	return c
}

// MongoStore keeps comments in the comments collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	c = prepare(c, time.Now().UTC())
	if _, err := m.coll.InsertOne(ctx, c); err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (m *MongoStore) List(ctx context.Context, shareID string, f Filter) ([]models.Comment, error) {
	filter := bson.M{"shareid": shareID}
	switch {
	case f.General:
		filter["day_index"] = nil
	case f.Day != nil:
		filter["day_index"] = *f.Day
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return utils.FindAndDecode[models.Comment](ctx, m.coll, filter, opts)
}

func (m *MongoStore) Get(ctx context.Context, shareID, commentID string) (models.Comment, error) {
	var c models.Comment
	err := m.coll.FindOne(ctx, bson.M{"shareid": shareID, "commentid": commentID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return c, ErrNotFound
	}
	return c, err
}

func (m *MongoStore) Delete(ctx context.Context, shareID, commentID string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"shareid": shareID, "commentid": commentID})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) SetResolved(ctx context.Context, shareID, commentID string, resolved bool) (models.Comment, error) {
	var c models.Comment
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.coll.FindOneAndUpdate(ctx,
		bson.M{"shareid": shareID, "commentid": commentID},
		bson.M{"$set": bson.M{"resolved": resolved}}, opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return c, ErrNotFound
	}
	return c, err
}

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
	seq      int
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{comments: make(map[string]models.Comment), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, c models.Comment) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// strictly increasing timestamps keep listing order stable
	m.seq++
	c = prepare(c, m.now().UTC().Add(time.Duration(m.seq)))
	m.comments[c.ID] = c
	return c, nil
}

func (m *MemoryStore) List(_ context.Context, shareID string, f Filter) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.ShareID == shareID && f.match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, shareID, commentID string) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ShareID != shareID {
		return models.Comment{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) Delete(_ context.Context, shareID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ShareID != shareID {
		return ErrNotFound
	}
	delete(m.comments, commentID)
	return nil
}

func (m *MemoryStore) SetResolved(_ context.Context, shareID, commentID string, resolved bool) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ShareID != shareID {
		return models.Comment{}, ErrNotFound
	}
	c.Resolved = resolved
	m.comments[commentID] = c
	return c, nil
}
