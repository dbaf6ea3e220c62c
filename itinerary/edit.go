package itinerary

import "tripweaver/models"

// WithField returns a copy of it with one top-level field replaced. Field names
// are the JSON names. A value of the wrong type or an unknown field leaves the
// copy unchanged; callers are responsible for passing type-correct values.
func WithField(it models.Itinerary, field string, value any) models.Itinerary {
	out := it
	switch field {
	case "title":
		setString(&out.Title, value)
	case "destination":
		setString(&out.Destination, value)
	case "duration":
		setString(&out.Duration, value)
	case "totalBudget":
		setString(&out.TotalBudget, value)
	case "overview":
		setString(&out.Overview, value)
	case "days":
		if v, ok := value.([]models.Day); ok {
			out.Days = v
		}
	case "tips":
		if v, ok := value.([]string); ok {
			out.Tips = v
		}
	}
	return out
}

// WithDayField is WithField for a single day. The "day" position itself is not
// editable here; it is owned by the day list operations.
func WithDayField(d models.Day, field string, value any) models.Day {
	out := d
	switch field {
	case "date":
		setString(&out.Date, value)
	case "activities":
		if v, ok := value.([]string); ok {
			out.Activities = v
		}
	case "meals":
		if v, ok := value.(models.Meals); ok {
			out.Meals = v
		}
	case "meals.breakfast":
		setString(&out.Meals.Breakfast, value)
	case "meals.lunch":
		setString(&out.Meals.Lunch, value)
	case "meals.dinner":
		setString(&out.Meals.Dinner, value)
	case "accommodation":
		setString(&out.Accommodation, value)
	case "estimatedCost":
		setString(&out.EstimatedCost, value)
	case "notes":
		setString(&out.Notes, value)
	}
	return out
}

func setString(dst *string, value any) {
	if s, ok := value.(string); ok {
		*dst = s
	}
}

// fieldKinds maps editable field names to the Go type their values decode into.
var fieldKinds = map[string]string{
	"title":       "string",
	"destination": "string",
	"duration":    "string",
	"totalBudget": "string",
	"overview":    "string",
	"days":        "days",
	"tips":        "strings",
}

var dayFieldKinds = map[string]string{
	"date":            "string",
	"activities":      "strings",
	"meals":           "meals",
	"meals.breakfast": "string",
	"meals.lunch":     "string",
	"meals.dinner":    "string",
	"accommodation":   "string",
	"estimatedCost":   "string",
	"notes":           "string",
}
