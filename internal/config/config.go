// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Span exporters accepted in TRACING_EXPORTER.
const (
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

// Storage providers accepted in STORAGE_PROVIDER.
const (
	StorageFilesystem = "filesystem"
	StorageMinio      = "minio"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBReadHost     string `mapstructure:"DB_READ_HOST"`
	DBReadPort     string `mapstructure:"DB_READ_PORT"`
	DBReadUser     string `mapstructure:"DB_READ_USER"`
	DBReadPassword string `mapstructure:"DB_READ_PASSWORD"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	Env            string `mapstructure:"APP_ENV"`

	// PublicAPIKey, when set, must accompany every request in the apikey header.
	PublicAPIKey             string `mapstructure:"PUBLIC_API_KEY"`
	RequireEmailConfirmation bool   `mapstructure:"REQUIRE_EMAIL_CONFIRMATION"`
	PublicBaseURL            string `mapstructure:"PUBLIC_BASE_URL"`

	StorageProvider string `mapstructure:"STORAGE_PROVIDER"`
	StorageDir      string `mapstructure:"STORAGE_DIR"`
	MinioEndpoint   string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey  string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string `mapstructure:"MINIO_SECRET_KEY"`
	MinioUseSSL     bool   `mapstructure:"MINIO_USE_SSL"`
	MinioPublicURL  string `mapstructure:"MINIO_PUBLIC_URL"`
	AvatarBucket    string `mapstructure:"AVATAR_BUCKET"`
	ResourceBucket  string `mapstructure:"RESOURCE_BUCKET"`
	MaxUploadSizeMB int    `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	// DevBootstrapAdmin creates a confirmed admin account at startup in development.
	DevBootstrapAdmin    bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminEmail        string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword     string `mapstructure:"DEV_ADMIN_PASSWORD"`
	SeedBuiltInResources bool   `mapstructure:"SEED_BUILTIN_RESOURCES"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	OTLPInsecure       bool    `mapstructure:"OTLP_INSECURE"`
	// Version is reported as service.version on every span.
	Version string `mapstructure:"APP_VERSION"`
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "sharify")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("PUBLIC_API_KEY", "")
	viper.SetDefault("REQUIRE_EMAIL_CONFIRMATION", true)
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8375")
	viper.SetDefault("STORAGE_PROVIDER", "filesystem")
	viper.SetDefault("STORAGE_DIR", "./data/media")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "")
	viper.SetDefault("MINIO_SECRET_KEY", "")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("MINIO_PUBLIC_URL", "")
	viper.SetDefault("AVATAR_BUCKET", "avatars")
	viper.SetDefault("RESOURCE_BUCKET", "resources")
	viper.SetDefault("MAX_UPLOAD_SIZE_MB", 10)
	viper.SetDefault("DEV_BOOTSTRAP_ADMIN", false)
	viper.SetDefault("DEV_ADMIN_EMAIL", "admin@sharify.local")
	viper.SetDefault("DEV_ADMIN_PASSWORD", "")
	viper.SetDefault("SEED_BUILTIN_RESOURCES", true)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("OTLP_INSECURE", true)
	viper.SetDefault("APP_VERSION", "dev")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.StorageProvider = strings.ToLower(strings.TrimSpace(c.StorageProvider))
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MaxUploadSizeMB <= 0 {
		return errors.New("MAX_UPLOAD_SIZE_MB must be positive")
	}
	switch c.StorageProvider {
	case "", StorageFilesystem:
	case StorageMinio:
		if c.MinioEndpoint == "" {
			return errors.New("MINIO_ENDPOINT is required when STORAGE_PROVIDER is minio")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}

	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}
	switch c.TracingExporter {
	case "", TracingStdout, TracingOTLP:
	default:
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.TracingExporter)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// ClientConfig configures the command-line client.
type ClientConfig struct {
	APIURL         string        `mapstructure:"API_URL"`
	APIKey         string        `mapstructure:"API_KEY"`
	SessionFile    string        `mapstructure:"SESSION_FILE"`
	SearchDebounce time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

// LoadClientConfig reads SHARIFY_* environment variables and an optional
// sharify.yml. It uses its own viper instance so it never mixes with the
// server configuration.
func LoadClientConfig() (*ClientConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SHARIFY")
	v.AutomaticEnv()
	v.SetConfigName("sharify")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetDefault("API_URL", "http://localhost:8375")
	v.SetDefault("API_KEY", "")
	v.SetDefault("SESSION_FILE", ".sharify-session.yml")
	v.SetDefault("SEARCH_DEBOUNCE", 300*time.Millisecond)
	v.SetDefault("REQUEST_TIMEOUT", 15*time.Second)

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode client config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.APIURL == "" {
		return nil, errors.New("SHARIFY_API_URL is required")
	}
	return &cfg, nil
}
