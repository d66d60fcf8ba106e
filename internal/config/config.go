package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Env      Environment `envconfig:"ENV" default:"development"`
	LogLevel string      `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool        `envconfig:"DEBUG" default:"false"`

	// Server
	Server ServerConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// OpenAI
	OpenAI OpenAIConfig

	// Scraper
	Scraper ScraperConfig

	// Research
	Research ResearchConfig

	// Rate Limits
	RateLimits RateLimitConfig

	// Security
	Security SecurityConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	MaxRequestSize  int64         `envconfig:"SERVER_MAX_REQUEST_SIZE" default:"1048576"` // 1MB
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"ecoguard"`
	Password        string        `envconfig:"DB_PASSWORD" required:"true"`
	Database        string        `envconfig:"DB_NAME" default:"ecoguard"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"1m"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Host         string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port         int           `envconfig:"REDIS_PORT" default:"6379"`
	Password     string        `envconfig:"REDIS_PASSWORD" default:""`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"5"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Addr returns Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OpenAIConfig holds OpenAI chat completion settings. The API key here is a
// server-level fallback; per-user keys stored in settings take precedence.
type OpenAIConfig struct {
	APIKey        string        `envconfig:"OPENAI_API_KEY" default:""`
	BaseURL       string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	Model         string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo-0125"`
	MaxTokens     int           `envconfig:"OPENAI_MAX_TOKENS" default:"800"`
	Temperature   float64       `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	Timeout       time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	RateLimitRPM  int           `envconfig:"OPENAI_RATE_LIMIT_RPM" default:"50"`
	CacheTTL      time.Duration `envconfig:"OPENAI_CACHE_TTL" default:"1h"`
	CacheSize     int           `envconfig:"OPENAI_CACHE_SIZE" default:"500"`
	EnableCaching bool          `envconfig:"OPENAI_ENABLE_CACHING" default:"true"`
}

// ScraperConfig holds headless browser settings
type ScraperConfig struct {
	Headless       bool          `envconfig:"SCRAPER_HEADLESS" default:"true"`
	NavTimeout     time.Duration `envconfig:"SCRAPER_NAV_TIMEOUT" default:"30s"`
	SettleDelay    time.Duration `envconfig:"SCRAPER_SETTLE_DELAY" default:"2s"`
	MaxTextLength  int           `envconfig:"SCRAPER_MAX_TEXT_LENGTH" default:"5000"`
	UserAgent      string        `envconfig:"SCRAPER_USER_AGENT" default:""`
	BrowserPath    string        `envconfig:"SCRAPER_BROWSER_PATH" default:""`
	MaxConcurrency int           `envconfig:"SCRAPER_MAX_CONCURRENCY" default:"3"`
}

// ResearchConfig holds external research settings
type ResearchConfig struct {
	Enabled       bool          `envconfig:"RESEARCH_ENABLED" default:"true"`
	MaxQueries    int           `envconfig:"RESEARCH_MAX_QUERIES" default:"4"`
	QueryInterval time.Duration `envconfig:"RESEARCH_QUERY_INTERVAL" default:"500ms"`
	Timeout       time.Duration `envconfig:"RESEARCH_TIMEOUT" default:"10s"`
	CacheTTL      time.Duration `envconfig:"RESEARCH_CACHE_TTL" default:"24h"`
}

// RateLimitConfig holds API rate limiting settings
type RateLimitConfig struct {
	Enabled        bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMin int  `envconfig:"RATE_LIMIT_REQUESTS_PER_MIN" default:"60"`
	BurstSize      int  `envconfig:"RATE_LIMIT_BURST_SIZE" default:"10"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	UserIDHeader string `envconfig:"SECURITY_USER_ID_HEADER" default:"X-User-ID"`

	// CORS
	CORSEnabled        bool     `envconfig:"CORS_ENABLED" default:"true"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with defaults for missing required fields (for CLI tools)
func LoadWithDefaults() (*Config, error) {
	var cfg Config

	// Try to load from env, but don't fail on missing required fields
	envconfig.Process("", &cfg)

	if cfg.Database.Password == "" {
		cfg.Database.Password = "ecoguard"
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Env != EnvDevelopment {
		if c.Database.Password == "" {
			errors = append(errors, "DB_PASSWORD is required in non-development mode")
		}
	}

	if c.Research.MaxQueries < 0 {
		errors = append(errors, "RESEARCH_MAX_QUERIES must not be negative")
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errors = append(errors, "OPENAI_TEMPERATURE must be between 0 and 2")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// GetLogLevel returns the appropriate zap log level
func (c *Config) GetLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
