package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = 3001
	defaultRegion          = "auto"
	defaultTokenTTL        = 24 * time.Hour
	defaultStoreTimeout    = 10 * time.Second
	defaultUpstreamTimeout = 10 * time.Second
	defaultMaxConcurrent   = 4
	defaultMaxUploadBytes  = int64(50 << 20)
	defaultPlacesBaseURL   = "https://maps.googleapis.com/maps/api/place/details/json"
	defaultLoginRate       = 1.0
	defaultLoginBurst      = 5
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	JWT     JWTConfig     `yaml:"jwt"`
	CORS    CORSConfig    `yaml:"cors"`
	Reviews ReviewsConfig `yaml:"reviews"`
	Upload  UploadConfig  `yaml:"upload"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig holds the S3-compatible object store configuration (Cloudflare R2)
type StorageConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Region       string        `yaml:"region"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	Bucket       string        `yaml:"bucket"`
	PublicDomain string        `yaml:"public_domain"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

// AdminConfig holds the operator credentials. Password may be a bcrypt hash.
type AdminConfig struct {
	Email    string  `yaml:"email"`
	Password string  `yaml:"password"`
	LoginRPS float64 `yaml:"login_rps"`
	Burst    int     `yaml:"login_burst"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// CORSConfig holds the allowed browser origin
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"`
}

// ReviewsConfig holds the places API settings
type ReviewsConfig struct {
	APIKey  string        `yaml:"api_key"`
	PlaceID string        `yaml:"place_id"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxConcurrent int   `yaml:"max_concurrent"`
	MaxBytes      int64 `yaml:"max_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the optional YAML file at path, then the optional .env file, and lets
// environment variables override both.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "HOST")
	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.Storage.Endpoint, "R2_ENDPOINT")
	setString(&c.Storage.Region, "R2_REGION")
	setString(&c.Storage.AccessKey, "R2_ACCESS_KEY_ID")
	setString(&c.Storage.SecretKey, "R2_SECRET_ACCESS_KEY")
	setString(&c.Storage.Bucket, "R2_BUCKET_NAME")
	setString(&c.Storage.PublicDomain, "R2_PUBLIC_DOMAIN")

	setString(&c.Admin.Email, "ADMIN_EMAIL")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.CORS.AllowedOrigin, "CORS_ORIGIN")

	setString(&c.Reviews.APIKey, "GOOGLE_PLACES_API_KEY")
	setString(&c.Reviews.PlaceID, "GOOGLE_PLACE_ID")
	setString(&c.Reviews.BaseURL, "GOOGLE_PLACES_BASE_URL")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Upload.MaxConcurrent, "UPLOAD_MAX_CONCURRENT"); err != nil {
		return err
	}
	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid UPLOAD_MAX_BYTES %q: %w", v, err)
		}
		c.Upload.MaxBytes = n
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL %q: %w", v, err)
		}
		c.JWT.TTL = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Storage.Region == "" {
		c.Storage.Region = defaultRegion
	}
	if c.Storage.Timeout == 0 {
		c.Storage.Timeout = defaultStoreTimeout
	}
	if c.Storage.MaxAttempts == 0 {
		c.Storage.MaxAttempts = 3
	}
	c.Storage.PublicDomain = strings.TrimRight(c.Storage.PublicDomain, "/")
	if c.JWT.TTL == 0 {
		c.JWT.TTL = defaultTokenTTL
	}
	if c.Admin.LoginRPS == 0 {
		c.Admin.LoginRPS = defaultLoginRate
	}
	if c.Admin.Burst == 0 {
		c.Admin.Burst = defaultLoginBurst
	}
	if c.Reviews.BaseURL == "" {
		c.Reviews.BaseURL = defaultPlacesBaseURL
	}
	if c.Reviews.Timeout == 0 {
		c.Reviews.Timeout = defaultUpstreamTimeout
	}
	if c.Upload.MaxConcurrent <= 0 {
		c.Upload.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = defaultMaxUploadBytes
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every missing secret the server cannot start without
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"R2_ENDPOINT", c.Storage.Endpoint},
		{"R2_ACCESS_KEY_ID", c.Storage.AccessKey},
		{"R2_SECRET_ACCESS_KEY", c.Storage.SecretKey},
		{"R2_BUCKET_NAME", c.Storage.Bucket},
		{"R2_PUBLIC_DOMAIN", c.Storage.PublicDomain},
		{"ADMIN_EMAIL", c.Admin.Email},
		{"ADMIN_PASSWORD", c.Admin.Password},
		{"JWT_SECRET", c.JWT.Secret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ReviewsEnabled reports whether the reviews proxy has its upstream credential
func (c *Config) ReviewsEnabled() bool {
	return c.Reviews.APIKey != "" && c.Reviews.PlaceID != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
