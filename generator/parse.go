package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"tripweaver/itinerary"
	"tripweaver/models"
)

var (
	ErrEmptyResponse = errors.New("empty response")
	ErrNoJSON        = errors.New("no JSON object in response")
	ErrMissingTitle  = errors.New("response has no title")
	ErrMissingDays   = errors.New("response has no days")
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// ParseItinerary extracts the itinerary from a raw completion. Markdown fences and
// prose around the JSON object are ignored.
func ParseItinerary(raw string) (models.Itinerary, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return models.Itinerary{}, ErrEmptyResponse
	}
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.Itinerary{}, ErrNoJSON
	}

	var it models.Itinerary
	if err := json.Unmarshal([]byte(text[start:end+1]), &it); err != nil {
		return models.Itinerary{}, fmt.Errorf("decode itinerary: %w", err)
	}
	if strings.TrimSpace(it.Title) == "" {
		return models.Itinerary{}, ErrMissingTitle
	}
	if it.Days == nil {
		return models.Itinerary{}, ErrMissingDays
	}
	return itinerary.Renumber(it).WithEmptySlices(), nil
}

// ParseOrDemo parses raw and falls back to DemoItinerary(prefs) when it cannot.
func ParseOrDemo(raw string, prefs models.TripPreferences) Result {
	it, err := ParseItinerary(raw)
	if err != nil {
		return Result{
			Itinerary: DemoItinerary(prefs),
			Error:     "could not read the generated itinerary: " + err.Error(),
			IsDemo:    true,
		}
	}
	return Result{Itinerary: it, Success: true}
}
