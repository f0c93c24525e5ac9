package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig        `yaml:"server"`
	Database     DatabaseConfig      `yaml:"database"`
	JWT          JWTConfig           `yaml:"jwt"`
	Security     SecurityConfig      `yaml:"security"`
	Session      SessionConfig       `yaml:"session"`
	Audit        AuditConfig         `yaml:"audit"`
	Documents    DocumentsConfig     `yaml:"documents"`
	KV           KVConfig            `yaml:"kv"`
	CORS         CORSConfig          `yaml:"cors"`
	DefaultUsers []DefaultUserConfig `yaml:"default_users"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Mode        string `yaml:"mode"`
	FrontendDir string `yaml:"frontend_dir"`
	LogFormat   string `yaml:"log_format"` // text, json
	LogLevel    string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Type   string       `yaml:"type"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn string `yaml:"expires_in"`
	Issuer    string `yaml:"issuer"`
}

type SecurityConfig struct {
	BcryptCost        int `yaml:"bcrypt_cost"`
	MinPasswordLength int `yaml:"min_password_length"`
	// MinPasswordScore is a zxcvbn score (0-4); 0 disables the check.
	MinPasswordScore int `yaml:"min_password_score"`
}

type SessionConfig struct {
	InactivityTimeout string `yaml:"inactivity_timeout"`
	CookieName        string `yaml:"cookie_name"`
}

type AuditConfig struct {
	MaxEntries int    `yaml:"max_entries"`
	StorageKey string `yaml:"storage_key"`
}

type DocumentsConfig struct {
	Driver     string `yaml:"driver"` // database, http
	BackendURL string `yaml:"backend_url"`
	Timeout    string `yaml:"timeout"`
}

type KVConfig struct {
	Driver string      `yaml:"driver"` // database, redis
	Prefix string      `yaml:"prefix"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
	PoolSize int    `yaml:"pool_size"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DefaultUserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        "release",
			FrontendDir: filepath.Join("web", "dist"),
			LogFormat:   "text",
			LogLevel:    "info",
		},
		Database: DatabaseConfig{
			Type:   "sqlite",
			SQLite: SQLiteConfig{Path: filepath.Join("data", "store-admin.db")},
			MySQL:  MySQLConfig{Port: 3306, Charset: "utf8mb4"},
		},
		JWT: JWTConfig{
			ExpiresIn: "24h",
			Issuer:    "store-admin",
		},
		Security: SecurityConfig{
			BcryptCost:        10,
			MinPasswordLength: 6,
		},
		Session: SessionConfig{
			InactivityTimeout: "15m",
			CookieName:        "admin_session",
		},
		Audit: AuditConfig{
			MaxEntries: 500,
			StorageKey: "audit_logs",
		},
		Documents: DocumentsConfig{
			Driver:  "database",
			Timeout: "10s",
		},
		KV: KVConfig{
			Driver: "database",
			Prefix: "store-admin:",
			Redis:  RedisConfig{Address: "localhost:6379", PoolSize: 10},
		},
		DefaultUsers: []DefaultUserConfig{
			{Username: "cuth-tech", Password: "Silence@1", Role: "superadmin", Name: "CUTH TECH Admin", Email: "superadmin@example.com"},
			{Username: "manager", Password: "Manager@12", Role: "manager", Name: "Store Manager", Email: "manager@example.com"},
			{Username: "editor", Password: "Editor@123", Role: "editor", Name: "Content Editor", Email: "editor@example.com"},
		},
	}
}

// Load reads the configuration file, a .env file next to the working
// directory (if any) and STOREADMIN_* environment variables.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure data directory exists for SQLite
	if cfg.UsesDatabase() && cfg.Database.Type == "sqlite" {
		dataDir := filepath.Dir(cfg.Database.SQLite.Path)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOREADMIN_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("STOREADMIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("STOREADMIN_DB_TYPE"); v != "" {
		c.Database.Type = v
	}
	if v := os.Getenv("STOREADMIN_DB_PATH"); v != "" {
		c.Database.SQLite.Path = v
	}
	if v := os.Getenv("STOREADMIN_MYSQL_HOST"); v != "" {
		c.Database.MySQL.Host = v
	}
	if v := os.Getenv("STOREADMIN_MYSQL_USER"); v != "" {
		c.Database.MySQL.Username = v
	}
	if v := os.Getenv("STOREADMIN_MYSQL_PASSWORD"); v != "" {
		c.Database.MySQL.Password = v
	}
	if v := os.Getenv("STOREADMIN_MYSQL_DATABASE"); v != "" {
		c.Database.MySQL.Database = v
	}
	if v := os.Getenv("STOREADMIN_BACKEND_URL"); v != "" {
		c.Documents.BackendURL = v
		c.Documents.Driver = "http"
	}
	if v := os.Getenv("STOREADMIN_REDIS_ADDR"); v != "" {
		c.KV.Redis.Address = v
		c.KV.Driver = "redis"
	}
	if v := os.Getenv("STOREADMIN_REDIS_PASSWORD"); v != "" {
		c.KV.Redis.Password = v
	}
	if v := os.Getenv("STOREADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("STOREADMIN_CORS_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = strings.Split(v, ",")
	}
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"jwt.expires_in":             c.JWT.ExpiresIn,
		"session.inactivity_timeout": c.Session.InactivityTimeout,
		"documents.timeout":          c.Documents.Timeout,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}

	if c.Server.Mode == "release" && c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required in release mode")
	}

	if c.Audit.MaxEntries <= 0 {
		return fmt.Errorf("audit.max_entries must be positive")
	}
	if c.Security.MinPasswordScore < 0 || c.Security.MinPasswordScore > 4 {
		return fmt.Errorf("security.min_password_score must be between 0 and 4")
	}

	switch c.Documents.Driver {
	case "database":
	case "http":
		if c.Documents.BackendURL == "" {
			return fmt.Errorf("documents.backend_url is required for the http driver")
		}
	default:
		return fmt.Errorf("unsupported documents driver: %s", c.Documents.Driver)
	}

	switch c.KV.Driver {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported kv driver: %s", c.KV.Driver)
	}

	// Validate MySQL configuration if MySQL is selected
	if c.UsesDatabase() && c.Database.Type == "mysql" {
		if c.Database.MySQL.Username == "" {
			return fmt.Errorf("MySQL username is required")
		}
		if c.Database.MySQL.Database == "" {
			return fmt.Errorf("MySQL database name is required")
		}
	}

	if len(c.DefaultUsers) == 0 {
		return fmt.Errorf("at least one default user is required")
	}
	hasSuperadmin := false
	for _, u := range c.DefaultUsers {
		if u.Role == "superadmin" {
			hasSuperadmin = true
		}
	}
	if !hasSuperadmin {
		return fmt.Errorf("default_users must contain a superadmin")
	}

	return nil
}

// UsesDatabase reports whether any store is backed by the SQL database.
func (c *Config) UsesDatabase() bool {
	return c.Documents.Driver == "database" || c.KV.Driver == "database"
}

func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.ExpiresIn)
	return d
}

func (c *Config) InactivityTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Session.InactivityTimeout)
	return d
}

func (c *Config) BackendTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Documents.Timeout)
	return d
}
