// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Remote authentication modes.
const (
	AuthNone   = "none"
	AuthJWT    = "jwt"
	AuthOAuth2 = "oauth2"
)

// Config holds the configuration for the application.
type Config struct {
	Addr        string
	WebDir      string
	CORSOrigins []string

	Store       string
	SQLitePath  string
	DatabaseURL string

	LogLevel  string
	LogFormat string

	// Remote authority. An empty RemoteURL disables sync.
	RemoteURL         string
	RemoteAuth        string
	RemoteKey         string
	OIDCIssuer        string
	OAuthClientID     string
	OAuthClientSecret string

	RedisAddr     string
	RedisPassword string

	SyncInterval    time.Duration
	SyncMaxAttempts int
	SyncBackoff     time.Duration
	SyncConcurrency int

	CooldownDays      int
	HomemadeAgeMonths int
	StrictSafety      bool
	InventoryFile     string
	SeedFile          string
}

// Load reads the optional env files (".env" when none are given) and then
// the process environment. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{
		Addr:              env("BABYPLATE_ADDR", ":8080"),
		WebDir:            os.Getenv("BABYPLATE_WEB_DIR"),
		CORSOrigins:       list(os.Getenv("BABYPLATE_CORS_ORIGINS")),
		Store:             strings.ToLower(env("BABYPLATE_STORE", StoreSQLite)),
		SQLitePath:        env("BABYPLATE_SQLITE_PATH", "data/babyplate.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LogLevel:          env("BABYPLATE_LOG_LEVEL", "info"),
		LogFormat:         env("BABYPLATE_LOG_FORMAT", "json"),
		RemoteURL:         os.Getenv("BABYPLATE_REMOTE_URL"),
		RemoteAuth:        strings.ToLower(env("BABYPLATE_REMOTE_AUTH", AuthNone)),
		RemoteKey:         os.Getenv("BABYPLATE_REMOTE_KEY"),
		OIDCIssuer:        os.Getenv("BABYPLATE_OIDC_ISSUER"),
		OAuthClientID:     os.Getenv("BABYPLATE_OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("BABYPLATE_OAUTH_CLIENT_SECRET"),
		RedisAddr:         os.Getenv("BABYPLATE_REDIS_ADDR"),
		RedisPassword:     os.Getenv("BABYPLATE_REDIS_PASSWORD"),
		InventoryFile:     os.Getenv("BABYPLATE_INVENTORY_FILE"),
		SeedFile:          os.Getenv("BABYPLATE_SEED_FILE"),
	}

	var err error
	if c.SyncInterval, err = duration("BABYPLATE_SYNC_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.SyncBackoff, err = duration("BABYPLATE_SYNC_BACKOFF", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if c.SyncMaxAttempts, err = positive("BABYPLATE_SYNC_MAX_ATTEMPTS", 4); err != nil {
		return nil, err
	}
	if c.SyncConcurrency, err = positive("BABYPLATE_SYNC_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if c.CooldownDays, err = nonNegative("BABYPLATE_COOLDOWN_DAYS", 2); err != nil {
		return nil, err
	}
	if c.HomemadeAgeMonths, err = nonNegative("BABYPLATE_HOMEMADE_AGE_MONTHS", 12); err != nil {
		return nil, err
	}
	if v := os.Getenv("BABYPLATE_STRICT_SAFETY"); v != "" {
		if c.StrictSafety, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("BABYPLATE_STRICT_SAFETY: %q is not a boolean", v)
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("BABYPLATE_STORE: unknown store %q", c.Store)
	}

	switch c.RemoteAuth {
	case AuthNone:
	case AuthJWT:
		if c.RemoteKey == "" {
			return fmt.Errorf("BABYPLATE_REMOTE_KEY is required for jwt auth")
		}
	case AuthOAuth2:
		if c.OIDCIssuer == "" || c.OAuthClientID == "" || c.OAuthClientSecret == "" {
			return fmt.Errorf("BABYPLATE_OIDC_ISSUER, BABYPLATE_OAUTH_CLIENT_ID and BABYPLATE_OAUTH_CLIENT_SECRET are required for oauth2 auth")
		}
	default:
		return fmt.Errorf("BABYPLATE_REMOTE_AUTH: unknown mode %q", c.RemoteAuth)
	}
	return nil
}

// SyncEnabled reports whether a remote authority is configured.
func (c *Config) SyncEnabled() bool {
	return c.RemoteURL != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func list(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: %q is not a valid duration", key, v)
	}
	return d, nil
}

func positive(key string, fallback int) (int, error) {
	n, err := nonNegative(key, fallback)
	if err == nil && n == 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return n, err
}

func nonNegative(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a valid count", key, v)
	}
	return n, nil
}
