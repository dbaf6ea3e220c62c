package generator

import (
	"fmt"
	"strings"
	"time"

	"tripweaver/models"
)

// daily cost per traveler by budget tier, in dollars
var dailyCost = map[string]int{
	models.BudgetLow:      80,
	models.BudgetModerate: 180,
	models.BudgetLuxury:   450,
}

var stayByBudget = map[string]string{
	models.BudgetLow:      "Well-reviewed hostel or budget guesthouse",
	models.BudgetModerate: "Central 3-star hotel",
	models.BudgetLuxury:   "5-star hotel with concierge service",
}

var defaultInterests = []string{"local culture", "food", "sightseeing"}

// DemoItinerary builds a structurally valid placeholder plan from the preferences
// alone. It is deterministic and is used whenever real generation is unavailable.
func DemoItinerary(p models.TripPreferences) models.Itinerary {
	n := max(p.DurationDays(), 1)
	travelers := max(p.Travelers, 1)
	destination := strings.TrimSpace(p.Destination)
	if destination == "" {
		destination = "your destination"
	}
	budget := p.Budget
	if _, ok := dailyCost[budget]; !ok {
		budget = models.BudgetModerate
	}
	interests := p.Interests
	if len(interests) == 0 {
		interests = defaultInterests
	}

	start, err := p.Start()
	if err != nil {
		start = time.Time{}
	}

	perDay := dailyCost[budget] * travelers
	days := make([]models.Day, n)
	for i := range days {
		interest := interests[i%len(interests)]
		date := ""
		if !start.IsZero() {
			date = start.AddDate(0, 0, i).Format(models.DateLayout)
		}
		days[i] = models.Day{
			Day:  i + 1,
			Date: date,
			Activities: []string{
				fmt.Sprintf("Morning: Explore %s with a focus on %s", destination, interest),
				fmt.Sprintf("Afternoon: Visit a highly rated %s spot recommended by locals", interest),
				fmt.Sprintf("Evening: Stroll through the liveliest neighbourhood of %s", destination),
			},
			Meals: models.Meals{
				Breakfast: "Breakfast at a café near your accommodation",
				Lunch:     "Lunch at a popular local eatery",
				Dinner:    fmt.Sprintf("Dinner featuring regional dishes of %s", destination),
			},
			Accommodation: stayByBudget[budget],
			EstimatedCost: fmt.Sprintf("$%d", perDay),
			Notes:         "Demo plan: generate again once the planning service is available for tailored suggestions.",
		}
	}

	return models.Itinerary{
		Title:       fmt.Sprintf("%d-Day Trip to %s", n, destination),
		Destination: destination,
		Duration:    pluralDays(n),
		TotalBudget: fmt.Sprintf("$%d", perDay*n),
		Overview: fmt.Sprintf("A %s-budget, %s-paced %s in %s for %d traveler(s), built around %s.",
			budget, paceOrDefault(p.Pace), pluralDays(n), destination, travelers, strings.Join(interests, ", ")),
		Days: days,
		Tips: []string{
			"Check entry requirements and travel advisories before departure.",
			"Book popular attractions in advance to skip the queues.",
			"Keep digital and paper copies of your travel documents.",
			"Learn a few phrases in the local language.",
			"Carry a reusable water bottle and a portable charger.",
		},
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func paceOrDefault(pace string) string {
	if _, ok := paceGuidance[pace]; ok {
		return pace
	}
	return models.PaceModerate
}
