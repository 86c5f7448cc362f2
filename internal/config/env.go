package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvSecrets holds the server-wide secrets read from the environment.
// These are the second tier of the credential fallback chain; user-stored
// secrets always win over them.
type EnvSecrets struct {
	LightningAPIKey string
	OpenAIAPIKey    string
	SerperAPIKey    string
	TavilyAPIKey    string
	// OAuth client secrets for the two Google token exchange paths.
	// They are not credentials themselves; users still bring their
	// own refresh tokens.
	GoogleAntigravitySecret string
	GoogleCLISecret         string
	AppwriteAPIKey          string
	SessionSecret           string
}

// LoadEnv loads a .env file if present and returns the server secrets.
// A missing .env file is not an error; variables already set in the
// process environment take precedence either way.
func LoadEnv(path string) EnvSecrets {
	if path == "" {
		path = ".env"
	}
	// godotenv never overwrites existing variables.
	_ = godotenv.Load(path)

	return EnvSecrets{
		LightningAPIKey:         os.Getenv("LIGHTNING_API_KEY"),
		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		SerperAPIKey:            os.Getenv("SERPER_API_KEY"),
		TavilyAPIKey:            os.Getenv("TAVILY_API_KEY"),
		GoogleAntigravitySecret: os.Getenv("GOOGLE_ANTIGRAVITY_SECRET"),
		GoogleCLISecret:         os.Getenv("GOOGLE_CLI_SECRET"),
		AppwriteAPIKey:          os.Getenv("APPWRITE_API_KEY"),
		SessionSecret:           os.Getenv("SESSION_SECRET"),
	}
}

// applyEnvOverrides updates the configuration from environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("STORAGE_DRIVER"); val != "" {
		cfg.Storage.Driver = val
	}
	if val := os.Getenv("APPWRITE_ENDPOINT"); val != "" {
		cfg.Appwrite.Endpoint = val
	}
	if val := os.Getenv("APPWRITE_PROJECT_ID"); val != "" {
		cfg.Appwrite.Project = val
	}
	if val := os.Getenv("APPWRITE_DB_ID"); val != "" {
		cfg.Appwrite.Database = val
	}
	if val := os.Getenv("SEARCH_PROVIDER"); val != "" {
		cfg.Tools.SearchProvider = val
	}
	if val := os.Getenv("UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.Timeout = d
		} else if secs, err := strconv.Atoi(val); err == nil {
			cfg.Upstream.Timeout = time.Duration(secs) * time.Second
		}
	}
}
