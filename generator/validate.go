package generator

import (
	"fmt"
	"sort"
	"strings"

	"tripweaver/models"
)

const MaxTripDays = 30

// ValidationError lists problems with submitted preferences, keyed by JSON field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid trip preferences: " + strings.Join(parts, "; ")
}

// ValidatePreferences runs the form checks that must pass before anything is sent
// to the completion service.
func ValidatePreferences(p models.TripPreferences) error {
	fields := map[string]string{}

	if strings.TrimSpace(p.Destination) == "" {
		fields["destination"] = "destination is required"
	}
	start, startErr := p.Start()
	end, endErr := p.End()
	switch {
	case strings.TrimSpace(p.StartDate) == "":
		fields["startDate"] = "start date is required"
	case startErr != nil:
		fields["startDate"] = "start date must be YYYY-MM-DD"
	}
	switch {
	case strings.TrimSpace(p.EndDate) == "":
		fields["endDate"] = "end date is required"
	case endErr != nil:
		fields["endDate"] = "end date must be YYYY-MM-DD"
	}
	if startErr == nil && endErr == nil {
		if !end.After(start) {
			fields["endDate"] = "end date must be after start date"
		} else if d := p.DurationDays(); d > MaxTripDays {
			fields["endDate"] = fmt.Sprintf("trips are limited to %d days", MaxTripDays)
		}
	}
	if p.Travelers < 1 {
		fields["travelers"] = "at least one traveler is required"
	}
	if _, ok := budgetGuidance[p.Budget]; !ok {
		fields["budget"] = "budget must be one of budget, moderate, luxury"
	}
	if _, ok := paceGuidance[p.Pace]; !ok {
		fields["pace"] = "pace must be one of relaxed, moderate, packed"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
