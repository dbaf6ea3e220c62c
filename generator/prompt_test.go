package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptIncludesPreferences(t *testing.T) {
	p := samplePrefs()
	p.Accommodation = "ryokan"
	p.Notes = "vegetarian"

	prompt := BuildPrompt(p)
	assert.Equal(t, systemPrompt, prompt.System)

	for _, want := range []string{
		"Create a detailed 3-day travel itinerary for Kyoto.",
		"- Dates: 2025-04-01 to 2025-04-04",
		"- Travelers: 2",
		"- Interests: temples, food",
		"- Preferred accommodation: ryokan",
		"- Additional notes: vegetarian",
		budgetGuidance[p.Budget],
		paceGuidance[p.Pace],
		`"estimatedCost"`,
	} {
		assert.Contains(t, prompt.User, want)
	}
}

func TestBuildPromptOmitsEmptyOptionals(t *testing.T) {
	p := samplePrefs()
	p.Interests = nil

	prompt := BuildPrompt(p)
	assert.NotContains(t, prompt.User, "Interests:")
	assert.NotContains(t, prompt.User, "Preferred accommodation")
	assert.NotContains(t, prompt.User, "Additional notes")
}
