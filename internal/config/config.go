package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"port"`
	GinMode  string `mapstructure:"gin_mode"`
	LogLevel string `mapstructure:"log_level"`

	DBDriver   string `mapstructure:"db_driver"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	SessionSecret string `mapstructure:"session_secret"`

	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiry    time.Duration `mapstructure:"jwt_expiry"`
	AuthRequired bool          `mapstructure:"auth_required"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	OAuthCallbackURL   string `mapstructure:"oauth_callback_url"`
	FrontendURL        string `mapstructure:"frontend_url"`

	LLMProvider      string        `mapstructure:"llm_provider"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key"`
	OpenAIModel      string        `mapstructure:"openai_model"`
	AnthropicAPIKey  string        `mapstructure:"anthropic_api_key"`
	AnthropicModel   string        `mapstructure:"anthropic_model"`
	LLMTimeout       time.Duration `mapstructure:"llm_timeout"`
	LLMMaxConcurrent int           `mapstructure:"llm_max_concurrent"`

	ChatRatePerMinute int      `mapstructure:"chat_rate_per_minute"`
	CORSOrigins       []string `mapstructure:"cors_origins"`
}

// Load reads configuration from an optional config file and the environment.
// Environment variables use the upper-cased key names, e.g. DB_HOST.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Placeholder secrets used for local development only.
const (
	DefaultSessionSecret = "default-secret-key-change-me"
	DefaultJWTSecret     = "default-jwt-secret-change-me"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "coach")
	v.SetDefault("db_password", "coachpassword")
	v.SetDefault("db_name", "coaching_plans")
	v.SetDefault("db_sslmode", "disable")

	// Empty host selects the cookie session store.
	v.SetDefault("redis_host", "")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("session_secret", DefaultSessionSecret)

	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("jwt_expiry", "24h")
	v.SetDefault("auth_required", false)

	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("oauth_callback_url", "http://localhost:3001")
	v.SetDefault("frontend_url", "http://localhost:3000")

	v.SetDefault("llm_provider", "openai")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm_timeout", "30s")
	v.SetDefault("llm_max_concurrent", 4)

	v.SetDefault("chat_rate_per_minute", 20)
	v.SetDefault("cors_origins", "http://localhost:3000")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.IsProduction() || c.AuthRequired {
		if c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret {
			return errors.New("JWT_SECRET must be set to a non-default value in release mode or when AUTH_REQUIRED is true")
		}
		if c.SessionSecret == "" || c.SessionSecret == DefaultSessionSecret {
			return errors.New("SESSION_SECRET must be set to a non-default value in release mode or when AUTH_REQUIRED is true")
		}
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.LLMMaxConcurrent < 1 {
		return fmt.Errorf("LLM_MAX_CONCURRENT must be at least 1")
	}
	return nil
}

// RedisAddr returns host:port, or an empty string when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

// GoogleOAuthEnabled reports whether Google sign-in credentials are present.
func (c *Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}
