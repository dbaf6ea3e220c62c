package models

import "time"

type ShareMode string

const (
	ShareModeView        ShareMode = "view"
	ShareModeCollaborate ShareMode = "collaborate"
)

func (m ShareMode) Valid() bool {
	return m == ShareModeView || m == ShareModeCollaborate
}

// Share grants access to one itinerary through an opaque share id.
type Share struct {
	ShareID     string    `json:"shareId" bson:"shareid"`
	ItineraryID string    `json:"itineraryId" bson:"itineraryid"`
	OwnerID     string    `json:"ownerId" bson:"owner_id"`
	ShareMode   ShareMode `json:"shareMode" bson:"share_mode"`
	IsPublic    bool      `json:"isPublic" bson:"is_public"`
	ViewCount   int64     `json:"viewCount" bson:"view_count"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// Comment is attached to a share, either to one day (DayIndex set) or to the whole trip.
type Comment struct {
	ID        string    `json:"id" bson:"commentid"`
	ShareID   string    `json:"shareId" bson:"shareid"`
	DayIndex  *int      `json:"dayIndex" bson:"day_index"`
	UserID    string    `json:"userId" bson:"user_id"`
	UserName  string    `json:"userName" bson:"user_name"`
	Content   string    `json:"content" bson:"content"`
	Resolved  bool      `json:"resolved" bson:"resolved"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
