// Package config is the configuration shared by the daemon and the cli.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bibhubhatta/wecare/internal/alert"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/lib/configutil"
	"github.com/bibhubhatta/wecare/lib/telemetry"
)

const DefaultPath = "config.json5"

type PantryConfig struct {
	BaseUrl  string `json:"base_url" env:"PANTRYSOFT_URL"`
	Username string `json:"username" env:"PANTRYSOFT_USERNAME"`
	Password string `json:"password" env:"PANTRYSOFT_PASSWORD"`
	PageSize int    `json:"page_size"`
	// RequestsPerSecond of 0 leaves requests unlimited.
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

type CatalogConfig struct {
	BaseUrl  string `json:"base_url"`
	SiteHost string `json:"site_host"`
	MemoSize int    `json:"memo_size"`
}

type SessionConfig struct {
	// Driver is "chromedp" or "rod".
	Driver string `json:"driver"`
	// Store is "sqlite" or "redis".
	Store       string `json:"store"`
	RedisUrl    string `json:"redis_url" env:"REDIS_URL"`
	RedisPrefix string `json:"redis_prefix"`
	// ShowBrowser runs the browser with a window, for debugging logins.
	ShowBrowser     bool   `json:"show_browser"`
	BrowserPath     string `json:"browser_path" env:"PANTRY_BROWSER_PATH"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	LifetimeMinutes int    `json:"lifetime_minutes"`
}

type WorkerConfig struct {
	PollIntervalMs int `json:"poll_interval_ms"`
}

type HttpConfig struct {
	Addr           string   `json:"addr" env:"PANTRY_HTTP_ADDR"`
	AllowedOrigins []string `json:"allowed_origins"`
	// JwtSecret enables bearer token auth on the intake when set.
	JwtSecret string `json:"jwt_secret" env:"PANTRY_JWT_SECRET"`
}

type AlertConfig struct {
	Smtp alert.SmtpConfig `json:"smtp"`
	To   []string         `json:"to"`
}

type Config struct {
	Database  string           `json:"database" env:"PANTRY_DATABASE"`
	Pantry    PantryConfig     `json:"pantry"`
	Catalog   CatalogConfig    `json:"catalog"`
	Session   SessionConfig    `json:"session"`
	Worker    WorkerConfig     `json:"worker"`
	Http      HttpConfig       `json:"http"`
	Alert     AlertConfig      `json:"alert"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = "pantry.db"
	}
	if c.Session.Driver == "" {
		c.Session.Driver = "chromedp"
	}
	if c.Session.Store == "" {
		c.Session.Store = "sqlite"
	}
	if c.Http.Addr == "" {
		c.Http.Addr = ":8000"
	}
}

// Read reads the json5 config at path (a missing file is an empty config)
// and overlays the environment and a .env file beside it. A config that
// does not decode is KindInvalid.
func Read(path string) (Config, error) {
	cfg, err := configutil.Load[Config](path)
	if errors.Is(err, configutil.ErrMalformed) {
		return Config{}, inventory.Wrap(inventory.KindInvalid, "config.read", err)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Load is Read followed by Validate.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Pantry.Username == "" {
		errs = append(errs, errors.New("pantry.username (PANTRYSOFT_USERNAME) is required"))
	}
	if c.Pantry.Password == "" {
		errs = append(errs, errors.New("pantry.password (PANTRYSOFT_PASSWORD) is required"))
	}
	if c.Pantry.PageSize < 0 {
		errs = append(errs, errors.New("pantry.page_size must not be negative"))
	}
	if !slices.Contains([]string{"chromedp", "rod"}, c.Session.Driver) {
		errs = append(errs, fmt.Errorf("session.driver %q must be chromedp or rod", c.Session.Driver))
	}
	switch c.Session.Store {
	case "sqlite":
	case "redis":
		if c.Session.RedisUrl == "" {
			errs = append(errs, errors.New("session.redis_url (REDIS_URL) is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.store %q must be sqlite or redis", c.Session.Store))
	}
	if len(c.Alert.To) > 0 && c.Alert.Smtp.Server == "" {
		errs = append(errs, errors.New("alert.smtp.server is required when alert.to is set"))
	}
	return errors.Join(errs...)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c PantryConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

func (c SessionConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

func (c SessionConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeMinutes) * time.Minute
}

func (c WorkerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
