package config

import (
	"fmt"
	"os"
	"time"

	"groupme-analyzer/backend/internal/constants"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Source selects which messaging service messages are pulled from
	Source string

	// GroupMe
	GroupMeToken  string
	GroupMeAPIURL string
	PageSize      int
	HTTPTimeout   time.Duration

	// Discord
	DiscordBotToken     string
	DiscordGuildID      string
	DiscordMessageLimit int

	// Export
	OutputPath string

	// Neo4j (optional, graph export is disabled when Neo4jURI is empty)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// AI (optional, recaps are disabled when LiteLLMURL is empty)
	LiteLLMURL       string
	ModelID          string
	OpenRouterAPIKey string
}

// Load reads configuration from environment variables. It does not validate:
// callers apply their own overrides first and then call Validate.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		Source:              getEnv("SOURCE", constants.SourceGroupMe),
		GroupMeToken:        getEnv("GROUPME_TOKEN", ""),
		GroupMeAPIURL:       getEnv("GROUPME_API_URL", constants.DefaultGroupMeAPIURL),
		PageSize:            getEnvInt("PAGE_SIZE", constants.MaxPageSize),
		HTTPTimeout:         time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		DiscordBotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordGuildID:      getEnv("DISCORD_GUILD_ID", ""),
		DiscordMessageLimit: getEnvInt("DISCORD_MESSAGE_LIMIT", 1000),
		OutputPath:          getEnv("OUTPUT_PATH", constants.DefaultOutputPath),
		Neo4jURI:            getEnv("NEO4J_URI", ""),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", ""),
		LiteLLMURL:          getEnv("LITELLM_URL", ""),
		ModelID:             getEnv("MODEL_ID", "openrouter/anthropic/claude-3.5-sonnet"),
		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
// Tokens are not required here: the CLI can still prompt for one.
func (c *Config) Validate() error {
	switch c.Source {
	case constants.SourceGroupMe:
		if c.GroupMeAPIURL == "" {
			return apperrors.NewConfigValidationFailed("GROUPME_API_URL", "must not be empty")
		}
	case constants.SourceDiscord:
		if c.DiscordGuildID == "" {
			return apperrors.NewConfigValidationFailed("DISCORD_GUILD_ID", "required when SOURCE=discord")
		}
		if c.DiscordMessageLimit <= 0 {
			return apperrors.NewConfigValidationFailed("DISCORD_MESSAGE_LIMIT", "must be positive")
		}
	default:
		return apperrors.NewConfigValidationFailed("SOURCE", fmt.Sprintf("unknown source %q", c.Source))
	}
	if c.PageSize <= 0 || c.PageSize > constants.MaxPageSize {
		return apperrors.NewConfigValidationFailed("PAGE_SIZE", fmt.Sprintf("must be between 1 and %d", constants.MaxPageSize))
	}
	if c.OutputPath == "" {
		return apperrors.NewConfigValidationFailed("OUTPUT_PATH", "must not be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GraphEnabled reports whether analyses should be persisted to Neo4j
func (c *Config) GraphEnabled() bool {
	return c.Neo4jURI != ""
}

// RecapEnabled reports whether an LLM endpoint is configured
func (c *Config) RecapEnabled() bool {
	return c.LiteLLMURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
