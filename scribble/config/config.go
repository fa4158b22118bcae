package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server and the terminal client need.
// Rate limit knobs live here so each limiter is built from explicit values
// instead of package constants.
type Config struct {
	Port string

	// Upstream OpenAI-compatible provider.
	UpstreamURL   string
	UpstreamKey   string
	UpstreamModel string
	SystemPrompt  string

	// Browser origins allowed to call the suggestions endpoint.
	AllowedOrigins []string

	// GitHub issue tracker for feedback.
	GitHubToken string
	GitHubRepo  string // "owner/name"

	// Per-IP server limits.
	ChatLimit      int
	ChatWindow     time.Duration
	SuggestLimit   int
	SuggestWindow  time.Duration
	FeedbackLimit  int
	FeedbackWindow time.Duration

	// Client-side knobs.
	ServerURL    string
	StorePath    string
	ClientLimit  int
	ClientWindow time.Duration
	MaxTurns     int
}

const defaultSystemPrompt = "You are the resident sketch assistant on a hand-drawn " +
	"portfolio site. Answer briefly and warmly. When the visitor clearly wants a page, " +
	"append exactly one tag like [[NAVIGATE:/projects]] at the end of your reply. " +
	"Valid pages: /, /about, /projects, /resume, /chat. You may also use " +
	"[[THEME:dark]], [[THEME:light]], [[THEME:toggle]], [[OPEN:github]], " +
	"[[OPEN:linkedin]], [[OPEN:email]] or [[FEEDBACK]]. Never more than one tag."

func LoadConfig() Config {
	// Missing .env is fine; the environment may carry everything already.
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8000"),
		UpstreamURL:   getEnv("UPSTREAM_URL", "https://api.openai.com/v1/chat/completions"),
		UpstreamKey:   getEnv("UPSTREAM_API_KEY", ""),
		UpstreamModel: getEnv("UPSTREAM_MODEL", "gpt-4o-mini"),
		SystemPrompt:  getEnv("SYSTEM_PROMPT", defaultSystemPrompt),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		GitHubToken: getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:  getEnv("GITHUB_REPO", ""),

		ChatLimit:      getEnvInt("CHAT_RATE_LIMIT", 20),
		ChatWindow:     getEnvDuration("CHAT_RATE_WINDOW", 5*time.Minute),
		SuggestLimit:   getEnvInt("SUGGEST_RATE_LIMIT", 10),
		SuggestWindow:  getEnvDuration("SUGGEST_RATE_WINDOW", 5*time.Minute),
		FeedbackLimit:  getEnvInt("FEEDBACK_RATE_LIMIT", 5),
		FeedbackWindow: getEnvDuration("FEEDBACK_RATE_WINDOW", 10*time.Minute),

		ServerURL:    getEnv("SCRIBBLE_SERVER_URL", "http://localhost:8000"),
		StorePath:    getEnv("SCRIBBLE_STORE_PATH", defaultStorePath()),
		ClientLimit:  getEnvInt("CLIENT_RATE_LIMIT", 8),
		ClientWindow: getEnvDuration("CLIENT_RATE_WINDOW", time.Minute),
		MaxTurns:     getEnvInt("MAX_TURNS", 20),
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "scribble.db"
	}
	return home + "/.scribble/history.db"
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
