package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/pkg/helpers"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"SERVER_PORT"`
		Mode         string `yaml:"mode" env:"SERVER_MODE"`
		StoragePath  string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		BaseURL      string `yaml:"base_url" env:"SERVER_BASE_URL"`
		ReadTimeout  string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		SeedDemo        bool   `yaml:"seed_demo" env:"DB_SEED_DEMO"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	SuperAdmin struct {
		Email string `yaml:"email" env:"SUPER_ADMIN_EMAIL"`
	} `yaml:"super_admin"`

	Storage struct {
		Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
		GCS    struct {
			Bucket          string `yaml:"bucket" env:"GCS_BUCKET"`
			CredentialsFile string `yaml:"credentials_file" env:"GCS_CREDENTIALS_FILE"`
			PublicBaseURL   string `yaml:"public_base_url" env:"GCS_PUBLIC_BASE_URL"`
		} `yaml:"gcs"`
	} `yaml:"storage"`

	Import struct {
		StoreTimeout         time.Duration `yaml:"store_timeout" env:"IMPORT_STORE_TIMEOUT"`
		PhotoDownloadTimeout time.Duration `yaml:"photo_download_timeout" env:"IMPORT_PHOTO_DOWNLOAD_TIMEOUT"`
		PhotoUploadTimeout   time.Duration `yaml:"photo_upload_timeout" env:"IMPORT_PHOTO_UPLOAD_TIMEOUT"`
		MaxUploadBytes       int64         `yaml:"max_upload_bytes" env:"IMPORT_MAX_UPLOAD_BYTES"`
		PhotoRatePerSecond   float64       `yaml:"photo_rate_per_second" env:"IMPORT_PHOTO_RATE_PER_SECOND"`
	} `yaml:"import"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// Supported driver names
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"

	StorageDriverGCS   = "gcs"
	StorageDriverLocal = "local"
)

// LoadConfig loads configuration from a .env file, a YAML file and environment variables,
// in that order of increasing precedence.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

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

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "./uploads"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.ReadTimeout = "30s"
	config.Server.WriteTimeout = "120s"

	// Database defaults
	config.Database.Driver = DatabaseDriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "edutrack"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "edutrack.admin"

	// Storage defaults
	config.Storage.Driver = StorageDriverLocal

	// Import defaults
	config.Import.StoreTimeout = 10 * time.Second
	config.Import.PhotoDownloadTimeout = 30 * time.Second
	config.Import.PhotoUploadTimeout = 60 * time.Second
	config.Import.MaxUploadBytes = 10 << 20
	config.Import.PhotoRatePerSecond = 5

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DatabaseDriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DatabaseDriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if strings.TrimSpace(config.SuperAdmin.Email) == "" {
		return fmt.Errorf("super admin email is required")
	}

	switch config.Storage.Driver {
	case StorageDriverGCS:
		if config.Storage.GCS.Bucket == "" {
			return fmt.Errorf("gcs bucket is required when storage driver is gcs")
		}
	case StorageDriverLocal:
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if config.Import.StoreTimeout <= 0 || config.Import.PhotoDownloadTimeout <= 0 || config.Import.PhotoUploadTimeout <= 0 {
		return fmt.Errorf("import timeouts must be positive")
	}

	if config.Import.MaxUploadBytes <= 0 {
		return fmt.Errorf("import max upload bytes must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// AccessTokenTTL returns the parsed access token lifetime. LoadConfig has already validated it.
func (c *Config) AccessTokenTTL() time.Duration {
	return helpers.ParseDuration(c.JWT.AccessTokenExpiration, 12*time.Hour)
}

// ServerTimeouts returns the parsed HTTP read and write timeouts, falling back to the defaults.
func (c *Config) ServerTimeouts() (read, write time.Duration) {
	return helpers.ParseDuration(c.Server.ReadTimeout, 30*time.Second),
		helpers.ParseDuration(c.Server.WriteTimeout, 120*time.Second)
}
