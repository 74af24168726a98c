package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port                  string  `mapstructure:"PORT"`
	Env                   string  `mapstructure:"ENV"`
	StoreDriver           string  `mapstructure:"STORE_DRIVER"`
	DatabaseURL           string  `mapstructure:"DATABASE_URL"`
	SQLitePath            string  `mapstructure:"SQLITE_PATH"`
	DBMaxConns            int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32   `mapstructure:"DB_MIN_CONNS"`
	BusinessTimezone      string  `mapstructure:"BUSINESS_TIMEZONE"`
	LogLevel              string  `mapstructure:"LOG_LEVEL"`
	LogFile               string  `mapstructure:"LOG_FILE"`
	JWTSecret             string  `mapstructure:"JWT_HMAC_SECRET"`
	StaticTokens          string  `mapstructure:"STATIC_TOKENS"`
	BookingRateLimitRPS   float64 `mapstructure:"BOOKING_RATE_LIMIT_RPS"`
	BookingRateLimitBurst int     `mapstructure:"BOOKING_RATE_LIMIT_BURST"`
	GoogleClientID        string  `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string  `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL     string  `mapstructure:"GOOGLE_REDIRECT_URL"`
	GoogleCalendarID      string  `mapstructure:"GOOGLE_CALENDAR_ID"`
	GoogleCalendarToken   string  `mapstructure:"GOOGLE_CALENDAR_TOKEN"`
}

var keys = []string{
	"PORT", "ENV", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "BUSINESS_TIMEZONE", "LOG_LEVEL", "LOG_FILE",
	"JWT_HMAC_SECRET", "STATIC_TOKENS", "BOOKING_RATE_LIMIT_RPS", "BOOKING_RATE_LIMIT_BURST",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
	"GOOGLE_CALENDAR_ID", "GOOGLE_CALENDAR_TOKEN",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. It does not validate; call Validate.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; a malformed one is.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("SQLITE_PATH", "goldenpaws.db")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("BUSINESS_TIMEZONE", "America/Chicago")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BOOKING_RATE_LIMIT_RPS", 1)
	v.SetDefault("BOOKING_RATE_LIMIT_BURST", 5)
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is complete for the chosen store
// and that staff routes are protected outside development.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER is %q", DriverSQLite)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.StoreDriver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if !c.IsDev() && c.JWTSecret == "" && len(c.Tokens()) == 0 {
		return fmt.Errorf("JWT_HMAC_SECRET or STATIC_TOKENS must be set outside development")
	}

	if c.BookingRateLimitRPS < 0 || c.BookingRateLimitBurst < 0 {
		return fmt.Errorf("booking rate limit settings must not be negative")
	}

	if c.GoogleCalendarToken != "" && !c.GoogleConfigured() {
		return fmt.Errorf("GOOGLE_CALENDAR_TOKEN requires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL")
	}
	return nil
}

// Location returns the business time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	return loc, nil
}

// Tokens returns the non-empty entries of STATIC_TOKENS.
func (c *Config) Tokens() []string {
	var out []string
	for _, t := range strings.Split(c.StaticTokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
