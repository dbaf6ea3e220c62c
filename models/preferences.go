package models

import (
	"strings"
	"time"
)

// DateLayout is the format of every date carried by preferences and days.
const DateLayout = "2006-01-02"

const (
	BudgetLow      = "budget"
	BudgetModerate = "moderate"
	BudgetLuxury   = "luxury"

	PaceRelaxed  = "relaxed"
	PaceModerate = "moderate"
	PacePacked   = "packed"
)

// TripPreferences is what the planning form collects.
type TripPreferences struct {
	Destination   string   `json:"destination" bson:"destination"`
	StartDate     string   `json:"startDate" bson:"start_date"`
	EndDate       string   `json:"endDate" bson:"end_date"`
	Travelers     int      `json:"travelers" bson:"travelers"`
	Budget        string   `json:"budget" bson:"budget"`
	Pace          string   `json:"pace" bson:"pace"`
	Interests     []string `json:"interests" bson:"interests"`
	Accommodation string   `json:"accommodation,omitempty" bson:"accommodation,omitempty"`
	Notes         string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Start parses StartDate.
func (p TripPreferences) Start() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(p.StartDate))
}

// End parses EndDate.
func (p TripPreferences) End() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(p.EndDate))
}

// DurationDays is the number of days between start and end. It returns 0 when
// either date is missing or malformed.
func (p TripPreferences) DurationDays() int {
	start, err := p.Start()
	if err != nil {
		return 0
	}
	end, err := p.End()
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
