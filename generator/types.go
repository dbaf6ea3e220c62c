package generator

import (
	"context"

	"tripweaver/models"
)

// Prompt is the message pair sent to the completion service.
type Prompt struct {
	System string
	User   string
}

// CompletionClient abstracts the text-completion backend so it can be swapped or mocked.
type CompletionClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Result is what generation hands back to callers. It always carries a usable
// itinerary; Success and Error describe whether it came from the model.
type Result struct {
	Itinerary models.Itinerary `json:"itinerary"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	IsDemo    bool             `json:"isDemo"`
}
