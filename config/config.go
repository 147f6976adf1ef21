package config

import (
	"errors"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Cloudinary   CloudinaryConfig
	Firebase     FirebaseConfig
	Mail         MailConfig
	Reputation   ReputationConfig
	Suggestions  SuggestionsConfig
	Verification VerificationConfig
	Log          LogConfig
	RateLimit    RateLimitConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" env-default:"8099"`
	Env          string        `env:"APP_ENV" env-default:"development"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	// QueryTimeout bounds every store fetch made on behalf of a request.
	QueryTimeout time.Duration `env:"SERVER_QUERY_TIMEOUT" env-default:"5s"`
	FrontendURL  string        `env:"FRONTEND_URL" env-default:"https://mrohaung.com"`
}

type DatabaseConfig struct {
	DSN             string        `env:"DB_DSN" env-default:"infinity:infinity@tcp(localhost:3306)/infinity?charset=utf8mb4&parseTime=True&loc=UTC"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

type JWTConfig struct {
	AccessSecret string        `env:"JWT_SECRET" env-default:"change-me-in-production"`
	AccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" env-default:"168h"`
	Issuer       string        `env:"JWT_ISSUER" env-default:"infinity"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
}

type FirebaseConfig struct {
	ServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
}

// MailConfig is the SMTP relay used for verification mail. An empty Host disables sending.
type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM" env-default:"Infinity Network <no-reply@mrohaung.com>"`
}

type ReputationConfig struct {
	MaxRetries int           `env:"REPUTATION_MAX_RETRIES" env-default:"3"`
	BaseDelay  time.Duration `env:"REPUTATION_RETRY_BASE_DELAY" env-default:"200ms"`
	MaxDelay   time.Duration `env:"REPUTATION_RETRY_MAX_DELAY" env-default:"5s"`
	Timeout    time.Duration `env:"REPUTATION_TIMEOUT" env-default:"3s"`
}

type SuggestionsConfig struct {
	DefaultLimit  int `env:"SUGGESTIONS_DEFAULT_LIMIT" env-default:"5"`
	MaxLimit      int `env:"SUGGESTIONS_MAX_LIMIT" env-default:"50"`
	MutualPreview int `env:"SUGGESTIONS_MUTUAL_PREVIEW" env-default:"3"`
}

type VerificationConfig struct {
	// TokenTTL of zero keeps issued tokens valid until consumed or re-issued.
	TokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" env-default:"0s"`
	Required bool          `env:"VERIFICATION_REQUIRED" env-default:"false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"console"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `env:"RATE_LIMIT_PER_MINUTE" env-default:"100"`
	Burst             int `env:"RATE_LIMIT_BURST" env-default:"20"`
}

var ErrMissingSecret = errors.New("JWT_SECRET must be set in production")

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWT.AccessSecret == "" || c.JWT.AccessSecret == "change-me-in-production") {
		return ErrMissingSecret
	}
	if c.Suggestions.MaxLimit < 1 {
		c.Suggestions.MaxLimit = 50
	}
	if c.Suggestions.DefaultLimit < 1 || c.Suggestions.DefaultLimit > c.Suggestions.MaxLimit {
		c.Suggestions.DefaultLimit = 5
	}
	if c.Suggestions.MutualPreview < 0 {
		c.Suggestions.MutualPreview = 0
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
