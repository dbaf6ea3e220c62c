package live

import (
	"tripweaver/access"
	"tripweaver/itinerary"
	"tripweaver/models"
)

const (
	EventSnapshot = "snapshot"
	EventChange   = "change"
	EventSaved    = "saved"
	EventError    = "error"
)

// Event is what clients receive and what instances exchange over Redis.
type Event struct {
	Type        string            `json:"type"`
	ItineraryID string            `json:"itineraryId"`
	Itinerary   *models.Itinerary `json:"itinerary,omitempty"`
	Op          *itinerary.Op     `json:"op,omitempty"`
	UserID      string            `json:"userId,omitempty"`
	Role        *access.Role      `json:"role,omitempty"`
	Error       string            `json:"error,omitempty"`
	Origin      string            `json:"origin,omitempty"`
}

// inbound is a message sent by a client.
//
//	{"type":"edit","op":{"op":"addTip"}}
type inbound struct {
	Type string       `json:"type"`
	Op   itinerary.Op `json:"op"`
}

func changeEvent(c itinerary.Change) Event {
	typ := EventChange
	if c.Saved {
		typ = EventSaved
	}
	it := c.Itinerary
	return Event{
		Type:        typ,
		ItineraryID: c.ItineraryID,
		Itinerary:   &it,
		Op:          c.Op,
		UserID:      c.UserID,
	}
}
