package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port   string
	AppEnv string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	JWTSecret []byte
	TokenTTL  time.Duration

	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	AutosaveDelay   time.Duration
	EditIdleTimeout time.Duration
	PublicBaseURL   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	MapsAPIKey    string
	MapsScriptURL string
}

func (c Config) Development() bool { return c.AppEnv == "development" }

// LLMKey returns the API key for the selected provider.
func (c Config) LLMKey() string {
	switch strings.ToLower(c.LLMProvider) {
	case "gemini":
		return c.GeminiAPIKey
	case "mock":
		return "mock"
	}
	return c.OpenAIAPIKey
}

func (c Config) LLMModel() string {
	if strings.EqualFold(c.LLMProvider, "gemini") {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

// Load reads .env if present and then the environment. A missing .env is not an error.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests need not touch the process env.
func FromEnv(getenv func(string) string) Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	port := get("PORT", ":8080")
	if port[0] != ':' {
		port = ":" + port
	}

	return Config{
		Port:   port,
		AppEnv: get("APP_ENV", "production"),

		MongoURI: get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  get("MONGO_DB", "tripweaver"),

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),

		JWTSecret: []byte(get("JWT_SECRET", "dev-secret-change-me")),
		TokenTTL:  parseDuration(get("TOKEN_TTL", ""), 72*time.Hour),

		LLMProvider:   get("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIModel:   get("OPENAI_MODEL", ""),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		GeminiAPIKey:  get("GEMINI_API_KEY", ""),
		GeminiModel:   get("GEMINI_MODEL", ""),

		AutosaveDelay:   parseDuration(get("AUTOSAVE_DELAY", ""), 2*time.Second),
		EditIdleTimeout: parseDuration(get("EDIT_IDLE_TIMEOUT", ""), 10*time.Minute),
		PublicBaseURL:   strings.TrimRight(get("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),

		SMTPHost: get("SMTP_HOST", ""),
		SMTPPort: parseInt(get("SMTP_PORT", ""), 587),
		SMTPUser: get("SMTP_USER", ""),
		SMTPPass: get("SMTP_PASS", ""),
		SMTPFrom: get("SMTP_FROM", "no-reply@tripweaver.local"),

		MapsAPIKey:    get("MAPS_API_KEY", ""),
		MapsScriptURL: get("MAPS_SCRIPT_URL", "https://maps.googleapis.com/maps/api/js"),
	}
}

// parseDuration accepts Go durations ("2s") or bare milliseconds ("2000").
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if ms, err := strconv.Atoi(s); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
