package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubClient struct {
	reply  string
	err    error
	prompt Prompt
}

func (s *stubClient) Complete(_ context.Context, p Prompt) (string, error) {
	s.prompt = p
	return s.reply, s.err
}

func TestGenerateUsesClientReply(t *testing.T) {
	client := &stubClient{reply: "```json\n" + `{"title":"Kyoto Calm","days":[{"day":1},{"day":2},{"day":3}]}` + "\n```"}
	g := New(client, zap.NewNop())

	res := g.Generate(context.Background(), samplePrefs())
	require.True(t, res.Success)
	assert.False(t, res.IsDemo)
	assert.Equal(t, "Kyoto Calm", res.Itinerary.Title)
	assert.Contains(t, client.prompt.User, "Kyoto")
}

func TestGenerateFallsBackOnClientError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := New(&stubClient{err: errors.New("rate limited")}, zap.New(core))

	res := g.Generate(context.Background(), samplePrefs())
	assert.False(t, res.Success)
	assert.True(t, res.IsDemo)
	assert.Contains(t, res.Error, "rate limited")
	assert.Len(t, res.Itinerary.Days, 3)
	assert.Equal(t, 1, logs.FilterMessage("falling back to demo itinerary").Len())
}

func TestGenerateFallsBackOnUnreadableReply(t *testing.T) {
	g := New(&stubClient{reply: "I cannot plan trips right now."}, nil)

	res := g.Generate(context.Background(), samplePrefs())
	assert.False(t, res.Success)
	assert.True(t, res.IsDemo)
	assert.NotEmpty(t, res.Itinerary.Title)
}

func TestGenerateWithoutClient(t *testing.T) {
	g := New(nil, nil)
	assert.False(t, g.Configured())

	res := g.Generate(context.Background(), samplePrefs())
	assert.False(t, res.Success)
	assert.Equal(t, ErrNoClient.Error(), res.Error)
	assert.Equal(t, DemoItinerary(samplePrefs()), res.Itinerary)
}

func TestMockLLMRoundTrip(t *testing.T) {
	g := New(MockLLM{}, nil)

	res := g.Generate(context.Background(), samplePrefs())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "3-Day Adventure in Kyoto", res.Itinerary.Title)
	assert.Len(t, res.Itinerary.Days, 3)
}

func TestNewClientFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := NewClientFromConfig(ctx, LLMSettings{Provider: "openai"})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewClientFromConfig(ctx, LLMSettings{Provider: "mock", APIKey: "x"})
	require.NoError(t, err)
	assert.IsType(t, MockLLM{}, c)

	c, err = NewClientFromConfig(ctx, LLMSettings{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLM{}, c)

	_, err = NewClientFromConfig(ctx, LLMSettings{Provider: "carrier-pigeon", APIKey: "x"})
	assert.Error(t, err)
}
