package generator

import (
	"fmt"
	"strings"

	"tripweaver/models"
)

const systemPrompt = "You are an expert travel planner. Reply with a single JSON object that matches " +
	"the requested schema exactly. Do not add commentary before or after the JSON."

var budgetGuidance = map[string]string{
	models.BudgetLow:      "Keep costs low: hostels or budget hotels, street food, free attractions and public transport.",
	models.BudgetModerate: "Aim for mid-range comfort: 3-star hotels, casual restaurants and a few paid attractions.",
	models.BudgetLuxury:   "Plan a luxury trip: 5-star hotels, fine dining, private tours and premium experiences.",
}

var paceGuidance = map[string]string{
	models.PaceRelaxed:  "Keep the pace relaxed: at most two main activities per day with plenty of free time.",
	models.PaceModerate: "Keep a moderate pace: about three activities per day.",
	models.PacePacked:   "Pack the days: four or more activities per day, starting early.",
}

const jsonShape = `{
  "title": "string",
  "destination": "string",
  "duration": "string, e.g. \"5 days\"",
  "totalBudget": "string with currency symbol",
  "overview": "one paragraph",
  "days": [
    {
      "day": 1,
      "date": "YYYY-MM-DD",
      "activities": ["Morning: ...", "Afternoon: ...", "Evening: ..."],
      "meals": {"breakfast": "string", "lunch": "string", "dinner": "string"},
      "accommodation": "string",
      "estimatedCost": "string with currency symbol",
      "notes": "string"
    }
  ],
  "tips": ["string"]
}`

// BuildPrompt renders trip preferences into the completion request.
func BuildPrompt(p models.TripPreferences) Prompt {
	days := p.DurationDays()
	if days < 1 {
		days = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Create a detailed %d-day travel itinerary for %s.\n\n", days, strings.TrimSpace(p.Destination)))
	sb.WriteString("Trip details:\n")
	sb.WriteString(fmt.Sprintf("- Dates: %s to %s\n", p.StartDate, p.EndDate))
	sb.WriteString(fmt.Sprintf("- Travelers: %d\n", max(p.Travelers, 1)))
	sb.WriteString(fmt.Sprintf("- Budget tier: %s\n", p.Budget))
	sb.WriteString(fmt.Sprintf("- Pace: %s\n", p.Pace))
	if len(p.Interests) > 0 {
		sb.WriteString(fmt.Sprintf("- Interests: %s\n", strings.Join(p.Interests, ", ")))
	}
	if p.Accommodation != "" {
		sb.WriteString(fmt.Sprintf("- Preferred accommodation: %s\n", p.Accommodation))
	}
	if p.Notes != "" {
		sb.WriteString(fmt.Sprintf("- Additional notes: %s\n", p.Notes))
	}

	sb.WriteString("\nRequirements:\n")
	if g, ok := budgetGuidance[p.Budget]; ok {
		sb.WriteString("- " + g + "\n")
	}
	if g, ok := paceGuidance[p.Pace]; ok {
		sb.WriteString("- " + g + "\n")
	}
	if len(p.Interests) > 0 {
		sb.WriteString("- Prioritise activities that match the listed interests.\n")
	}
	sb.WriteString(fmt.Sprintf("- Include exactly %d entries in \"days\", numbered from 1, dated consecutively from %s.\n", days, p.StartDate))
	sb.WriteString("- Give every day breakfast, lunch and dinner suggestions, accommodation and an estimated cost.\n")
	sb.WriteString(fmt.Sprintf("- Estimate costs for %d traveler(s) and state the total in \"totalBudget\".\n", max(p.Travelers, 1)))
	sb.WriteString("- Add 5 to 8 practical tips for the destination.\n")
	sb.WriteString("\nRespond with JSON in exactly this shape:\n")
	sb.WriteString(jsonShape)

	return Prompt{System: systemPrompt, User: sb.String()}
}
