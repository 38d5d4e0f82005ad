package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Supabase      SupabaseConfig
	OpenFoodFacts OpenFoodFactsConfig
	Lookup        LookupConfig
	OpenAI        OpenAIConfig
	Database      DatabaseConfig
	Cache         CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SupabaseConfig holds identity-provider configuration
type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
}

// OpenFoodFactsConfig holds public food-facts API configuration
type OpenFoodFactsConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// LookupConfig holds configuration for the optional local lookup tool.
// ToolPath empty means the tool is not deployed; lookups go straight to
// the public REST API.
type LookupConfig struct {
	ToolPath    string `mapstructure:"tool_path"`
	ToolCommand string `mapstructure:"tool_command"`
}

// OpenAIConfig holds recipe-generation endpoint configuration
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// DatabaseConfig holds sqlite configuration
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	AuthTTL time.Duration `mapstructure:"auth_ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fridge/")

	// Environment variable settings
	v.SetEnvPrefix("FRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// OpenFoodFacts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.timeout", "10s")
	v.SetDefault("openfoodfacts.user_agent", "FridgeApp/1.0 (https://github.com/fridge/backend)")

	// Local lookup tool defaults: disabled unless a path is provided
	v.SetDefault("lookup.tool_path", "")
	v.SetDefault("lookup.tool_command", "node")

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")

	// Database defaults
	v.SetDefault("database.dsn", "fridge.db")

	// Cache defaults
	v.SetDefault("cache.auth_ttl", "5m")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Supabase.URL == "" {
		return fmt.Errorf("Supabase URL is required (set FRIDGE_SUPABASE_URL)")
	}

	if config.Supabase.AnonKey == "" {
		return fmt.Errorf("Supabase anon key is required (set FRIDGE_SUPABASE_ANON_KEY)")
	}

	if config.OpenFoodFacts.Timeout <= 0 {
		return fmt.Errorf("OpenFoodFacts timeout must be positive, got: %s", config.OpenFoodFacts.Timeout)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	return nil
}
