// Package config loads the process configuration once at startup into an
// immutable Config value that is passed into each component's constructor.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full process configuration. Constructed once by Load and
// treated as read-only afterwards; the admin-designation allow-list is the
// single hot-reloadable piece and lives behind its own accessor.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Uploads  UploadConfig

	adminMu           sync.RWMutex
	adminDesignations map[string]struct{}
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr    string
	BaseURL string
}

// DatabaseConfig holds the relational store settings.
type DatabaseConfig struct {
	Driver   string // postgres, mysql, sqlite3
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Schema   string
	SSLMode  string
}

// DSN builds the driver-specific connection string.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", d.User, d.Password, d.Host, d.Port, d.Name)
	case "sqlite3":
		return d.Name
	default:
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, sslMode)
		if d.Schema != "" {
			dsn += fmt.Sprintf(" search_path=%s", d.Schema)
		}
		return dsn
	}
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// RedisConfig holds cache settings. Empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// UploadConfig holds blob storage settings.
type UploadConfig struct {
	Dir     string
	BaseURL string
}

// IsAdminDesignation reports whether designation is on the allow-list.
// Matching is case-insensitive.
func (c *Config) IsAdminDesignation(designation string) bool {
	c.adminMu.RLock()
	defer c.adminMu.RUnlock()
	_, ok := c.adminDesignations[strings.ToLower(strings.TrimSpace(designation))]
	return ok
}

// AdminDesignations returns a copy of the current allow-list.
func (c *Config) AdminDesignations() []string {
	c.adminMu.RLock()
	defer c.adminMu.RUnlock()
	out := make([]string, 0, len(c.adminDesignations))
	for d := range c.adminDesignations {
		out = append(out, d)
	}
	return out
}

func (c *Config) setAdminDesignations(list []string) {
	set := make(map[string]struct{}, len(list))
	for _, d := range list {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	c.adminMu.Lock()
	c.adminDesignations = set
	c.adminMu.Unlock()
}

// Load reads timeflow.yaml (plus TIMEFLOW_* env overrides) and returns the
// resolved Config. When the config file changes on disk, only the
// admin-designation allow-list is re-read; everything else stays fixed for
// the process lifetime.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("timeflow")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/timeflow")
	}
	v.SetEnvPrefix("TIMEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine; env + defaults cover everything.
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:    v.GetString("server.addr"),
			BaseURL: v.GetString("server.base_url"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("database.driver"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			Schema:   v.GetString("database.schema"),
			SSLMode:  v.GetString("database.ssl_mode"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("auth.jwt_secret"),
			AccessTokenTTL:  v.GetDuration("auth.access_token_ttl"),
			RefreshTokenTTL: v.GetDuration("auth.refresh_token_ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Uploads: UploadConfig{
			Dir:     v.GetString("uploads.dir"),
			BaseURL: v.GetString("uploads.base_url"),
		},
	}
	cfg.setAdminDesignations(v.GetStringSlice("auth.admin_designations"))

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("[config] %s changed, reloading admin designations", e.Name)
		cfg.setAdminDesignations(v.GetStringSlice("auth.admin_designations"))
	})
	v.WatchConfig()

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.schema", "sts_ts")
	v.SetDefault("auth.access_token_ttl", 60*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.admin_designations", []string{
		"director", "general manager", "operations manager", "project manager", "team lead sr.",
	})
	v.SetDefault("redis.ttl", 15*time.Minute)
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.base_url", "http://localhost:8080/files/")
}
