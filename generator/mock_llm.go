package generator

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tripweaver/models"
)

// MockLLM answers locally with a fenced JSON itinerary wrapped in prose, the way
// real models often reply. Useful for local runs without credentials.
type MockLLM struct{}

var (
	mockDestRe  = regexp.MustCompile(`itinerary for (.+)\.\n`)
	mockDaysRe  = regexp.MustCompile(`detailed (\d+)-day`)
	mockDatesRe = regexp.MustCompile(`Dates: (\S+) to (\S+)`)
)

func (MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	prefs := models.TripPreferences{Destination: "Somewhere", Travelers: 1, Budget: models.BudgetModerate}
	if m := mockDestRe.FindStringSubmatch(prompt.User); m != nil {
		prefs.Destination = m[1]
	}
	if m := mockDatesRe.FindStringSubmatch(prompt.User); m != nil {
		prefs.StartDate, prefs.EndDate = m[1], m[2]
	} else if m := mockDaysRe.FindStringSubmatch(prompt.User); m != nil {
		n, _ := strconv.Atoi(m[1])
		start := time.Now().UTC()
		prefs.StartDate = start.Format(models.DateLayout)
		prefs.EndDate = start.AddDate(0, 0, n).Format(models.DateLayout)
	}

	it := DemoItinerary(prefs)
	it.Title = strings.Replace(it.Title, "Trip to", "Adventure in", 1)
	data, err := json.MarshalIndent(it, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Sure, here is your itinerary:\n\n```json\n")
	sb.Write(data)
	sb.WriteString("\n```\n\nHave a great trip!")
	return sb.String(), nil
}
