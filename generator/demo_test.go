package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/models"
)

func TestDemoItineraryMatchesPreferences(t *testing.T) {
	prefs := samplePrefs()
	it := DemoItinerary(prefs)

	require.Len(t, it.Days, 3)
	assert.Equal(t, "3-Day Trip to Kyoto", it.Title)
	assert.Equal(t, "Kyoto", it.Destination)
	assert.Equal(t, "3 days", it.Duration)
	assert.Equal(t, "$1080", it.TotalBudget)
	assert.NotEmpty(t, it.Tips)

	for i, d := range it.Days {
		assert.Equal(t, i+1, d.Day)
		assert.NotEmpty(t, d.Activities)
		assert.NotEmpty(t, d.Meals.Dinner)
	}
	assert.Equal(t, "2025-04-01", it.Days[0].Date)
	assert.Equal(t, "2025-04-03", it.Days[2].Date)
}

func TestDemoItineraryIsDeterministic(t *testing.T) {
	assert.Equal(t, DemoItinerary(samplePrefs()), DemoItinerary(samplePrefs()))
}

func TestDemoItineraryToleratesBadInput(t *testing.T) {
	it := DemoItinerary(models.TripPreferences{})
	require.Len(t, it.Days, 1)
	assert.Equal(t, "1-Day Trip to your destination", it.Title)
	assert.Equal(t, "1 day", it.Duration)
	assert.Empty(t, it.Days[0].Date)
}
