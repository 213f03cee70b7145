package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend kinds selectable via STORAGE_BACKEND.
const (
	BackendLocal  = "local"
	BackendGitHub = "github"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// StorageBackend selects where record collections live: local | github | redis.
	StorageBackend string
	// DataDir is the directory holding answers.json / pending-students.json /
	// exam-config.json for the local backend.
	DataDir string
	// QuestionsDir is the directory holding the question set files. Always a
	// local directory unless the github backend is selected.
	QuestionsDir string

	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string
	GitHubToken   string
	GitHubAPIBase string
	// GitHubQuestionsPath is the repo subdirectory holding question sets.
	GitHubQuestionsPath string

	RedisURL string

	// StorageTimeout bounds every remote storage round-trip so a hung
	// connection cannot stall a retry chain.
	StorageTimeout time.Duration
	// PendingStaleAfter is the uniform staleness threshold for pending-student
	// records. Applied on every write to that store and by the reaper.
	PendingStaleAfter time.Duration
	// ReaperInterval is how often the background reaper prunes stale
	// pending-student records.
	ReaperInterval time.Duration

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "pretty"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendLocal),
		DataDir:        getEnv("DATA_DIR", "."),
		QuestionsDir:   getEnv("QUESTIONS_DIR", "./public"),

		GitHubOwner:         getEnv("GITHUB_OWNER", ""),
		GitHubRepo:          getEnv("GITHUB_REPO", ""),
		GitHubBranch:        getEnv("GITHUB_BRANCH", "main"),
		GitHubToken:         getEnv("GITHUB_TOKEN", ""),
		GitHubAPIBase:       getEnv("GITHUB_API_BASE", "https://api.github.com"),
		GitHubQuestionsPath: getEnv("GITHUB_QUESTIONS_PATH", "public"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		StorageTimeout:    time.Duration(getEnvInt("STORAGE_TIMEOUT_SECONDS", 15)) * time.Second,
		PendingStaleAfter: time.Duration(getEnvInt("PENDING_STALE_AFTER_MIN", 70)) * time.Minute,
		ReaperInterval:    time.Duration(getEnvInt("REAPER_INTERVAL_MIN", 10)) * time.Minute,

		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
