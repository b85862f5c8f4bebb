package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	News      NewsConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins string
	BodyLimit      int
}

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig drives both halves of the token chain. Remote verification is
// enabled when a JWKS URL can be resolved, local signing/verification when
// LocalSecret is set.
type JWTConfig struct {
	Issuer            string
	JWKSURL           string
	JWKSCacheTTL      time.Duration
	LocalSecret       string
	RemoteIssuanceURL string
	RemoteTimeout     time.Duration
	RemoteBudget      time.Duration
	AccessTokenExpiry time.Duration
}

type AuthConfig struct {
	BcryptCost int
	// RevokeOnLogout blacklists the presented access token on logout. Off by
	// default: with it on, a repeated logout with the same token is rejected
	// by the auth middleware instead of returning the closed session.
	RevokeOnLogout bool
}

type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

type NewsConfig struct {
	SerpAPIKey string
	BaseURL    string
	Timeout    time.Duration
	Results    int
	Language   string
	Country    string
	CacheTTL   time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real environments inject variables directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", getEnv("PORT", "3000")),
			Environment:    getEnv("ENVIRONMENT", EnvDevelopment),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			BodyLimit:      getIntEnv("SERVER_BODY_LIMIT", 10*1024),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "citynews"),
			Password:    getEnv("DB_PASSWORD", "citynews"),
			DBName:      getEnv("DB_NAME", "citynews"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Issuer:            getEnv("JWT_ISSUER", "city-news-api"),
			JWKSURL:           getEnv("JWT_JWKS_URL", ""),
			JWKSCacheTTL:      getDurationEnv("JWT_JWKS_CACHE_TTL", time.Hour),
			LocalSecret:       getEnv("JWT_LOCAL_SECRET", ""),
			RemoteIssuanceURL: strings.TrimRight(getEnv("JWT_REMOTE_ISSUANCE_URL", ""), "/"),
			RemoteTimeout:     getDurationEnv("JWT_REMOTE_TIMEOUT", 5*time.Second),
			RemoteBudget:      getDurationEnv("JWT_REMOTE_BUDGET", 15*time.Second),
			AccessTokenExpiry: getDurationEnv("JWT_ACCESS_EXPIRY", time.Hour),
		},
		Auth: AuthConfig{
			BcryptCost:     getIntEnv("AUTH_BCRYPT_COST", 12),
			RevokeOnLogout: getBoolEnv("AUTH_REVOKE_ON_LOGOUT", false),
		},
		RateLimit: RateLimitConfig{
			Window:      getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
			MaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		},
		News: NewsConfig{
			SerpAPIKey: getEnv("SERP_API_KEY", ""),
			BaseURL:    getEnv("SERP_API_URL", "https://serpapi.com/search"),
			Timeout:    getDurationEnv("SERP_API_TIMEOUT", 10*time.Second),
			Results:    getIntEnv("SERP_API_RESULTS", 10),
			Language:   getEnv("SERP_API_LANGUAGE", "en"),
			Country:    getEnv("SERP_API_COUNTRY", "in"),
			CacheTTL:   getDurationEnv("NEWS_CACHE_TTL", 10*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("unknown ENVIRONMENT %q", c.Server.Environment))
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	if c.RateLimit.MaxRequests < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS must be positive"))
	}

	if c.JWT.AccessTokenExpiry <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_EXPIRY must be positive"))
	}

	if c.JWT.LocalSecret == "" && c.JWT.RemoteIssuanceURL == "" {
		errs = append(errs, errors.New("either JWT_LOCAL_SECRET or JWT_REMOTE_ISSUANCE_URL must be set"))
	}

	return errors.Join(errs...)
}

func (c *ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ResolvedJWKSURL returns the key-set location: the explicit JWKS URL if set,
// otherwise the well-known path under an http(s) issuer. Empty means remote
// verification is disabled.
func (c *JWTConfig) ResolvedJWKSURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	u, err := url.Parse(c.Issuer)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return strings.TrimRight(c.Issuer, "/") + "/.well-known/jwks.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
