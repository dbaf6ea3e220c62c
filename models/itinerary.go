package models

import "time"

// Itinerary is the trip plan document produced by the generator and edited by users.
type Itinerary struct {
	Title       string   `json:"title" bson:"title"`
	Destination string   `json:"destination" bson:"destination"`
	Duration    string   `json:"duration" bson:"duration"`
	TotalBudget string   `json:"totalBudget" bson:"totalBudget"`
	Overview    string   `json:"overview" bson:"overview"`
	Days        []Day    `json:"days" bson:"days"`
	Tips        []string `json:"tips" bson:"tips"`
}

// Day is one day of the plan. Day is the 1-based position within Itinerary.Days.
type Day struct {
	Day           int      `json:"day" bson:"day"`
	Date          string   `json:"date" bson:"date"`
	Activities    []string `json:"activities" bson:"activities"`
	Meals         Meals    `json:"meals" bson:"meals"`
	Accommodation string   `json:"accommodation,omitempty" bson:"accommodation,omitempty"`
	EstimatedCost string   `json:"estimatedCost,omitempty" bson:"estimatedCost,omitempty"`
	Notes         string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Meals holds the recommended meal for each slot. An empty slot means no recommendation.
type Meals struct {
	Breakfast string `json:"breakfast,omitempty" bson:"breakfast,omitempty"`
	Lunch     string `json:"lunch,omitempty" bson:"lunch,omitempty"`
	Dinner    string `json:"dinner,omitempty" bson:"dinner,omitempty"`
}

// WithEmptySlices replaces nil slices with empty ones so clients always get arrays.
func (it Itinerary) WithEmptySlices() Itinerary {
	if it.Tips == nil {
		it.Tips = []string{}
	}
	if it.Days == nil {
		it.Days = []Day{}
		return it
	}
	days := make([]Day, len(it.Days))
	copy(days, it.Days)
	for i := range days {
		if days[i].Activities == nil {
			days[i].Activities = []string{}
		}
	}
	it.Days = days
	return it
}

// StoredItinerary is an itinerary persisted under an owner account.
type StoredItinerary struct {
	ID          string           `json:"id" bson:"itineraryid"`
	UserID      string           `json:"userId" bson:"user_id"`
	Itinerary   Itinerary        `json:"itinerary" bson:"itinerary"`
	Preferences *TripPreferences `json:"preferences,omitempty" bson:"preferences,omitempty"`
	IsDemo      bool             `json:"isDemo" bson:"is_demo"`
	ForkedFrom  *string          `json:"forkedFrom,omitempty" bson:"forked_from,omitempty"`
	Deleted     bool             `json:"-" bson:"deleted,omitempty"` // Internal use only
	CreatedAt   time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updated_at"`
}

// ItinerarySummary is the list view of a stored itinerary.
type ItinerarySummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination"`
	Duration    string    `json:"duration"`
	IsDemo      bool      `json:"isDemo"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s StoredItinerary) Summary() ItinerarySummary {
	return ItinerarySummary{
		ID:          s.ID,
		Title:       s.Itinerary.Title,
		Destination: s.Itinerary.Destination,
		Duration:    s.Itinerary.Duration,
		IsDemo:      s.IsDemo,
		UpdatedAt:   s.UpdatedAt,
	}
}
