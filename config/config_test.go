package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envOf(nil))

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "tripweaver", cfg.MongoDB)
	assert.Equal(t, 2*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, 10*time.Minute, cfg.EditIdleTimeout)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.Development())
	assert.Empty(t, cfg.LLMKey())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(envOf(map[string]string{
		"PORT":              "9000",
		"APP_ENV":           "development",
		"AUTOSAVE_DELAY":    "1500",
		"EDIT_IDLE_TIMEOUT": "90s",
		"TOKEN_TTL":         "12h",
		"LLM_PROVIDER":      "gemini",
		"GEMINI_API_KEY":    "g-key",
		"GEMINI_MODEL":      "gemini-pro",
		"OPENAI_API_KEY":    "o-key",
		"PUBLIC_BASE_URL":   "https://trips.example.com/",
	}))

	assert.Equal(t, ":9000", cfg.Port)
	assert.True(t, cfg.Development())
	assert.Equal(t, 1500*time.Millisecond, cfg.AutosaveDelay)
	assert.Equal(t, 90*time.Second, cfg.EditIdleTimeout)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "g-key", cfg.LLMKey())
	assert.Equal(t, "gemini-pro", cfg.LLMModel())
	assert.Equal(t, "https://trips.example.com", cfg.PublicBaseURL)
}

func TestParseDurationFallsBack(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, time.Second, parseDuration("-5", time.Second))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Second))
}
