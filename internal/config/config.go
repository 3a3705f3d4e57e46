package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

type LogConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text / json
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// AppSubConfig holds ledger defaults.
type AppSubConfig struct {
	ActivityWindowDays int    `mapstructure:"activity_window_days"`
	DefaultCurrency    string `mapstructure:"default_currency"`
	DefaultTheme       string `mapstructure:"default_theme"`
	Locale             string `mapstructure:"locale"`
}

// AuthConfig configures federated sign-in. An empty GoogleClientID disables it.
type AuthConfig struct {
	GoogleClientID string `mapstructure:"google_client_id"`
}

// RelayConfig configures the AMQP change relay. An empty URL disables it.
type RelayConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Backup   BackupConfig   `mapstructure:"backup"`
	App      AppSubConfig   `mapstructure:"app"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Relay    RelayConfig    `mapstructure:"relay"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for "config.yaml" in the working directory
// and falls back to defaults plus environment when no file exists.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		appConfig, err = load(path)
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. TL_SERVER_PORT=9000
	v.SetEnvPrefix("TL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "./data/trackfinance.db")
	v.SetDefault("database.log_mode", false)

	// keys without a useful default are still registered so that
	// AutomaticEnv can bind them during Unmarshal
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "trackfinance")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.encryption_key", "")

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("backup.dir", "./data/backups")

	v.SetDefault("app.activity_window_days", 30)
	v.SetDefault("app.default_currency", "USD")
	v.SetDefault("app.default_theme", "dark")
	v.SetDefault("app.locale", "en-US")

	v.SetDefault("auth.google_client_id", "")

	v.SetDefault("relay.url", "")
	v.SetDefault("relay.exchange", "trackfinance.changes")
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		errs = append(errs, fmt.Sprintf("invalid server mode '%s': must be debug, release or test", c.Server.Mode))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, "jwt secret cannot be empty")
	}
	if c.JWT.ExpireHours < 0 {
		errs = append(errs, fmt.Sprintf("invalid jwt expire_hours %d: must not be negative", c.JWT.ExpireHours))
	}

	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.Security.BcryptCost))
	}
	if c.Security.EncryptionKey == "" {
		errs = append(errs, "encryption key cannot be empty")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.Log.Format))
	}

	if c.App.ActivityWindowDays < 1 || c.App.ActivityWindowDays > 366 {
		errs = append(errs, fmt.Sprintf("invalid activity window %d: must be between 1 and 366 days", c.App.ActivityWindowDays))
	}
	if _, err := currency.ParseISO(c.App.DefaultCurrency); err != nil {
		errs = append(errs, fmt.Sprintf("invalid default currency '%s'", c.App.DefaultCurrency))
	}
	if c.App.DefaultTheme != "dark" && c.App.DefaultTheme != "light" {
		errs = append(errs, fmt.Sprintf("invalid default theme '%s': must be dark or light", c.App.DefaultTheme))
	}

	if c.Relay.URL != "" {
		if u, err := url.Parse(c.Relay.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid relay URL '%s': %v", c.Relay.URL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid relay URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.Relay.Exchange == "" {
			errs = append(errs, "relay exchange cannot be empty when relay URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
