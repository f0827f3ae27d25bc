package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	OMDb      OMDbConfig      `toml:"omdb"`
	Auth      AuthConfig      `toml:"auth"`
	Database  DatabaseConfig  `toml:"database"`
	Firestore FirestoreConfig `toml:"firestore"`
	Server    ServerConfig    `toml:"server"`
}

// OMDbConfig contains movie catalog API settings.
type OMDbConfig struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// AuthConfig contains identity provider and session settings.
type AuthConfig struct {
	SessionFile         string       `toml:"session_file"`
	TokenSecret         string       `toml:"token_secret"`
	TokenTTLHours       int          `toml:"token_ttl_hours"`
	GuardTimeoutSeconds int          `toml:"guard_timeout_seconds"`
	MinPasswordLength   int          `toml:"min_password_length"`
	Google              GoogleConfig `toml:"google"`
}

// GoogleConfig contains OAuth2/OIDC credentials for federated sign-in.
type GoogleConfig struct {
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	RedirectURI    string `toml:"redirect_uri"`
	Issuer         string `toml:"issuer"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
//
// Driver is one of "sqlite3", "postgres" or "firestore".
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// FirestoreConfig contains settings for the Firestore document store.
type FirestoreConfig struct {
	ProjectID       string `toml:"project_id"`
	CredentialsFile string `toml:"credentials_file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the OMDb request timeout.
func (o OMDbConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// CacheTTL returns the movie detail cache expiration.
func (o OMDbConfig) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLMinutes) * time.Minute
}

// Guard timeout bounds, in seconds.
const (
	MinGuardTimeoutSeconds     = 3
	MaxGuardTimeoutSeconds     = 5
	DefaultGuardTimeoutSeconds = MaxGuardTimeoutSeconds
)

// GuardTimeout returns how long route guards wait for session restoration: zero selects the
// default and other values are clamped to [MinGuardTimeoutSeconds, MaxGuardTimeoutSeconds].
func (a AuthConfig) GuardTimeout() time.Duration {
	secs := a.GuardTimeoutSeconds
	switch {
	case secs == 0:
		secs = DefaultGuardTimeoutSeconds
	case secs < MinGuardTimeoutSeconds:
		secs = MinGuardTimeoutSeconds
	case secs > MaxGuardTimeoutSeconds:
		secs = MaxGuardTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// TokenTTL returns the lifetime of a persisted session token.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// SessionPath resolves the persisted session file, defaulting to ~/.freemovies/session.json.
func (a AuthConfig) SessionPath() (string, error) {
	if a.SessionFile != "" {
		return a.SessionFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".freemovies", "session.json"), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads a .env file if present. A missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OMDB_API_KEY"); v != "" {
		c.OMDb.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.Auth.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.Auth.Google.ClientSecret = v
	}
	if v := os.Getenv("FREEMOVIES_TOKEN_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.Driver = "postgres"
		c.Database.DSN = v
	}
	if v := os.Getenv("FIRESTORE_PROJECT_ID"); v != "" {
		c.Firestore.ProjectID = v
	}
}

// Validate checks settings the application cannot run without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres", "firestore":
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required for postgres", ErrInvalidConfig)
	}
	if c.Database.Driver == "firestore" && c.Firestore.ProjectID == "" {
		return fmt.Errorf("%w: firestore.project_id is required", ErrInvalidConfig)
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("%w: auth.token_secret is required", ErrMissingCredentials)
	}
	if g := c.Auth.GuardTimeoutSeconds; g != 0 && (g < MinGuardTimeoutSeconds || g > MaxGuardTimeoutSeconds) {
		return fmt.Errorf("%w: auth.guard_timeout_seconds must be between %d and %d, got %d",
			ErrInvalidConfig, MinGuardTimeoutSeconds, MaxGuardTimeoutSeconds, g)
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("%w: auth.min_password_length must be positive", ErrInvalidConfig)
	}
	return nil
}
