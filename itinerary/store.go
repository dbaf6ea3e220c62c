package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripweaver/models"
	"tripweaver/utils"
)

var ErrNotFound = errors.New("itinerary not found")

// Draft is what callers supply when persisting a new itinerary.
type Draft struct {
	Itinerary   models.Itinerary
	Preferences *models.TripPreferences
	IsDemo      bool
	ForkedFrom  *string
}

// Patch lists the fields to overwrite; nil fields are left alone.
type Patch struct {
	Itinerary   *models.Itinerary
	Preferences *models.TripPreferences
	IsDemo      *bool
}

// Store is the persistence API for itineraries. Deleted documents behave as missing.
type Store interface {
	Create(ctx context.Context, userID string, d Draft) (models.StoredItinerary, error)
	List(ctx context.Context, userID string) ([]models.ItinerarySummary, error)
	Get(ctx context.Context, id string) (models.StoredItinerary, error)
	Update(ctx context.Context, id string, p Patch) (models.StoredItinerary, error)
	Delete(ctx context.Context, id string) error
}

func newStored(userID string, d Draft, now time.Time) models.StoredItinerary {
	return models.StoredItinerary{
		ID:          utils.GenerateRandomString(13),
		UserID:      userID,
		Itinerary:   Renumber(d.Itinerary).WithEmptySlices(),
		Preferences: d.Preferences,
		IsDemo:      d.IsDemo,
		ForkedFrom:  d.ForkedFrom,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MongoStore keeps itineraries in the itinerary collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func liveFilter(id string) bson.M {
	return bson.M{"itineraryid": id, "deleted": bson.M{"$ne": true}}
}

func (m *MongoStore) Create(ctx context.Context, userID string, d Draft) (models.StoredItinerary, error) {
	doc := newStored(userID, d, time.Now().UTC())
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return models.StoredItinerary{}, fmt.Errorf("insert itinerary: %w", err)
	}
	return doc, nil
}

func (m *MongoStore) List(ctx context.Context, userID string) ([]models.ItinerarySummary, error) {
	filter := bson.M{"user_id": userID, "deleted": bson.M{"$ne": true}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	docs, err := utils.FindAndDecode[models.StoredItinerary](ctx, m.coll, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	out := make([]models.ItinerarySummary, len(docs))
	for i, d := range docs {
		out[i] = d.Summary()
	}
	return out, nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (models.StoredItinerary, error) {
	var doc models.StoredItinerary
	err := m.coll.FindOne(ctx, liveFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("get itinerary: %w", err)
	}
	doc.Itinerary = doc.Itinerary.WithEmptySlices()
	return doc, nil
}

func (m *MongoStore) Update(ctx context.Context, id string, p Patch) (models.StoredItinerary, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Itinerary != nil {
		set["itinerary"] = p.Itinerary.WithEmptySlices()
	}
	if p.Preferences != nil {
		set["preferences"] = p.Preferences
	}
	if p.IsDemo != nil {
		set["is_demo"] = *p.IsDemo
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc models.StoredItinerary
	err := m.coll.FindOneAndUpdate(ctx, liveFilter(id), bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("update itinerary: %w", err)
	}
	return doc, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.UpdateOne(ctx, liveFilter(id), bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("delete itinerary: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
