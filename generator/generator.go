package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tripweaver/models"
)

const DefaultTimeout = 60 * time.Second

var ErrNoClient = errors.New("itinerary service is not configured")

// Generator turns preferences into an itinerary, degrading to DemoItinerary on
// any upstream failure.
type Generator struct {
	client  CompletionClient
	logger  *zap.Logger
	timeout time.Duration
}

// New returns a Generator. A nil client is allowed and yields demo output.
func New(client CompletionClient, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger, timeout: DefaultTimeout}
}

func (g *Generator) Configured() bool { return g.client != nil }

// Generate never fails; check Result.Success to tell real output from the demo plan.
func (g *Generator) Generate(ctx context.Context, prefs models.TripPreferences) Result {
	if g.client == nil {
		return g.fallback(prefs, ErrNoClient)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.client.Complete(ctx, BuildPrompt(prefs))
	if err != nil {
		return g.fallback(prefs, fmt.Errorf("completion request failed: %w", err))
	}
	res := ParseOrDemo(raw, prefs)
	if !res.Success {
		g.logger.Warn("falling back to demo itinerary",
			zap.String("destination", prefs.Destination),
			zap.String("reason", res.Error))
		return res
	}

	g.logger.Info("itinerary generated",
		zap.String("destination", prefs.Destination),
		zap.Int("days", len(res.Itinerary.Days)),
		zap.Duration("took", time.Since(start)))
	return res
}

func (g *Generator) fallback(prefs models.TripPreferences, cause error) Result {
	g.logger.Warn("falling back to demo itinerary",
		zap.String("destination", prefs.Destination),
		zap.Error(cause))
	return Result{
		Itinerary: DemoItinerary(prefs),
		Success:   false,
		Error:     cause.Error(),
		IsDemo:    true,
	}
}
