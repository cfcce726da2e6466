package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port" env:"PORT"`
		Mode            string        `yaml:"mode" env:"GIN_MODE"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		// DSN is a postgres URL, or "sqlite:<path>" for a local file database.
		DSN             string        `yaml:"dsn" env:"DATABASE_URL"`
		MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Redis struct {
		// URL is optional; without it revoked tokens are tracked in memory.
		URL string `yaml:"url" env:"REDIS_URL"`
	} `yaml:"redis"`

	JWT struct {
		Secret string        `yaml:"secret" env:"JWT_SECRET"`
		TTL    time.Duration `yaml:"ttl" env:"JWT_TTL"`
	} `yaml:"jwt"`

	Session struct {
		CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		Secure     bool   `yaml:"secure" env:"SESSION_COOKIE_SECURE"`
	} `yaml:"session"`

	Media struct {
		Root        string `yaml:"root" env:"MEDIA_ROOT"`
		URLPrefix   string `yaml:"url_prefix" env:"MEDIA_URL"`
		MaxUploadMB int    `yaml:"max_upload_mb" env:"MEDIA_MAX_UPLOAD_MB"`
	} `yaml:"media"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	} `yaml:"cors"`

	Metrics struct {
		// Addr, when set, serves /metrics on its own listener (e.g. "127.0.0.1:9090").
		// Otherwise /metrics is on the main port for staff sessions only.
		Addr string `yaml:"addr" env:"METRICS_ADDR"`
	} `yaml:"metrics"`

	Admin struct {
		SiteHeader string `yaml:"site_header" env:"ADMIN_SITE_HEADER"`
		SiteTitle  string `yaml:"site_title" env:"ADMIN_SITE_TITLE"`
		IndexTitle string `yaml:"index_title" env:"ADMIN_INDEX_TITLE"`
	} `yaml:"admin"`
}

// LoadEnvFiles loads .env.local, falling back to .env. Missing files are not an error.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			return false
		}
	}
	return true
}

// Path returns the config file location, honouring STUDYBUD_CONFIG.
func Path() string {
	if p := os.Getenv("STUDYBUD_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(config, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "release"
	config.Server.ReadTimeout = 15 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.ShutdownTimeout = 10 * time.Second

	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = time.Hour

	config.JWT.TTL = 24 * time.Hour

	config.Session.CookieName = "studybud_session"

	config.Media.Root = "media"
	config.Media.URLPrefix = "/media/"
	config.Media.MaxUploadMB = 10

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.CORS.AllowedOrigins = []string{"*"}

	config.Admin.SiteHeader = "StudyBud Administration"
	config.Admin.SiteTitle = "StudyBud Admin"
	config.Admin.IndexTitle = "Welcome to StudyBud Administration"
}

func validateConfig(config *Config) error {
	if config.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if config.JWT.TTL <= 0 {
		return fmt.Errorf("JWT ttl must be positive")
	}
	if config.Media.MaxUploadMB <= 0 {
		return fmt.Errorf("media max upload size must be positive")
	}
	return nil
}
