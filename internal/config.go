package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/terjecfg/internal/catalog"
	"github.com/starford/terjecfg/internal/history"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Settings SettingsConfig    `yaml:"settings"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	History  HistoryConfig     `yaml:"history"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Auth     AuthConfig        `yaml:"auth"`
	CORS     CORSConfig        `yaml:"cors"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.CORS.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SettingsConfig points at the game-server settings directory.
//
// Exclude holds doublestar patterns relative to Path, e.g. "backup/**".
// The root .gitignore is honoured as well.
type SettingsConfig struct {
	Path    string   `yaml:"path"`
	Exclude []string `yaml:"exclude"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Exclude, validation.Each(validation.Required)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// HistoryConfig controls the version listing.
type HistoryConfig struct {
	// Limit is how many versions a history listing returns.
	Limit int `yaml:"limit"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	if c.Limit == 0 {
		c.Limit = history.DefaultListLimit
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Limit, validation.Min(1), validation.Max(1000)),
	)
}

// CatalogConfig selects the setting catalog. An empty Path uses the
// built-in catalog.
type CatalogConfig struct {
	Path   string `yaml:"path"`
	Locale string `yaml:"locale"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if c.Locale == "" {
		c.Locale = catalog.DefaultLocale
	}
	locales := make([]any, len(catalog.Locales))
	for i, l := range catalog.Locales {
		locales[i] = l
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Locale, validation.In(locales...)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Validate validates the CORS configuration. "*" or absolute URLs only.
func (c *CORSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AllowedOrigins, validation.Each(validation.Required, validation.By(originRule))),
	)
}

func originRule(v any) error {
	s, _ := v.(string)
	if s == "*" {
		return nil
	}
	return is.URL.Validate(s)
}

// WatchConfig controls the external change watcher.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Settings: SettingsConfig{
			Path: "./settings",
		},
		SQLite: SQLiteConfig{
			Path: "./terjecfg.db",
		},
		History: HistoryConfig{
			Limit: history.DefaultListLimit,
		},
		Catalog: CatalogConfig{
			Locale: catalog.DefaultLocale,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Watch: WatchConfig{
			Enabled: true,
		},
	}
}
