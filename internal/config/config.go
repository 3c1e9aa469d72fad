package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

// EnvPrefix prefixes every environment override, e.g. SUIVI_AUTH_JWT_SECRET.
const EnvPrefix = "SUIVI"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Options  CatalogConfig  `mapstructure:"catalog"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	ResetTTL  time.Duration `mapstructure:"reset_ttl"`
}

// CatalogConfig overrides the option lists offered in the grid.
type CatalogConfig struct {
	Clients        []string `mapstructure:"clients"`
	Activities     []string `mapstructure:"activities"`
	AbsenceReasons []string `mapstructure:"absence_reasons"`
	Positions      []string `mapstructure:"positions"`
	InternalClient string   `mapstructure:"internal_client"`
}

// Load reads configPath, or suivi.yaml from the usual places when
// configPath is empty. A missing file is fine unless it was named
// explicitly. A .env file in the working directory is loaded first.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("suivi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/suivi")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = "suivi.db"
	}
	cat := timesheet.DefaultCatalog()

	v.SetDefault("database.path", dbPath)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.reset_ttl", "1h")
	v.SetDefault("catalog.clients", cat.Clients)
	v.SetDefault("catalog.activities", cat.Activities)
	v.SetDefault("catalog.absence_reasons", cat.AbsenceReasons)
	v.SetDefault("catalog.positions", cat.Positions)
	v.SetDefault("catalog.internal_client", cat.InternalClient)
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.ResetTTL <= 0 {
		return fmt.Errorf("auth.reset_ttl must be positive")
	}

	if len(c.Options.Clients) == 0 {
		return fmt.Errorf("catalog.clients must not be empty")
	}
	if len(c.Options.Activities) == 0 {
		return fmt.Errorf("catalog.activities must not be empty")
	}
	if len(c.Options.AbsenceReasons) == 0 {
		return fmt.Errorf("catalog.absence_reasons must not be empty")
	}
	if c.Options.InternalClient == "" {
		return fmt.Errorf("catalog.internal_client is required")
	}
	return nil
}

// RequireSecret is checked by commands that issue tokens.
func (c *Config) RequireSecret() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set %s_AUTH_JWT_SECRET)", EnvPrefix)
	}
	return nil
}

// Catalog returns the configured option lists.
func (c *Config) Catalog() timesheet.Catalog {
	return timesheet.Catalog{
		Clients:        trimAll(c.Options.Clients),
		Activities:     trimAll(c.Options.Activities),
		AbsenceReasons: trimAll(c.Options.AbsenceReasons),
		Positions:      trimAll(c.Options.Positions),
		InternalClient: strings.TrimSpace(c.Options.InternalClient),
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
