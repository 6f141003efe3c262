package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the export source and outputs,
// the schedule, the HTTP server, the run history database, and graceful
// shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the level implied by Environment when set (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// Source contains settings for fetching the raw statistics document
	Source struct {
		// URL of the raw JSON document
		URL string `env:"SOURCE_URL" env-default:"https://covid.ourworldindata.org/data/owid-covid-data.json" yaml:"url"` //nolint: lll
		// Timeout bounds a single download attempt
		Timeout time.Duration `env:"SOURCE_TIMEOUT" env-default:"5m" yaml:"timeout"`
		// MaxRetries is the number of retries after a failed attempt
		MaxRetries uint64 `env:"SOURCE_MAX_RETRIES" env-default:"3" yaml:"maxRetries"`
	} `yaml:"source"`

	// Output contains settings for the local artifact directory
	Output struct {
		// Dir is the directory artifacts are written to
		Dir string `env:"OUTPUT_DIR" env-default:"data" yaml:"dir"`
		// Concurrency bounds parallel artifact writes
		Concurrency int `env:"OUTPUT_CONCURRENCY" env-default:"4" yaml:"concurrency"`
	} `yaml:"output"`

	// S3 contains settings for publishing artifacts to an S3 compatible bucket
	S3 struct {
		// Enabled turns the S3 publisher on
		Enabled bool `env:"S3_ENABLED" env-default:"false" yaml:"enabled"`
		// Endpoint is the S3 endpoint host, without scheme
		Endpoint string `env:"S3_ENDPOINT" env-default:"s3.amazonaws.com" yaml:"endpoint"`
		// Region is the bucket region
		Region string `env:"S3_BUCKET_REGION" env-default:"us-east-1" yaml:"region"`
		// Bucket is the destination bucket name
		Bucket string `env:"S3_BUCKET_NAME" yaml:"bucket"`
		// Prefix is prepended to every object key
		Prefix string `env:"S3_PREFIX" yaml:"prefix"`
		// AccessKeyID is the access key used to sign requests
		AccessKeyID string `env:"AWS_ACCESS_KEY_ID" yaml:"accessKeyId"`
		// SecretAccessKey is the secret used to sign requests
		SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" yaml:"secretAccessKey"`
		// UseSSL selects https for the endpoint
		UseSSL bool `env:"S3_USE_SSL" env-default:"true" yaml:"useSSL"`
		// Gzip uploads gzip compressed bodies with Content-Encoding: gzip
		Gzip bool `env:"S3_GZIP" env-default:"false" yaml:"gzip"`
	} `yaml:"s3"`

	// GitHub contains settings for committing artifacts to a repository
	GitHub struct {
		// Enabled turns the GitHub publisher on
		Enabled bool `env:"GITHUB_ENABLED" env-default:"false" yaml:"enabled"`
		// Token is a personal access token with contents write permission
		Token string `env:"GITHUB_TOKEN" yaml:"token"`
		// Owner of the destination repository
		Owner string `env:"GITHUB_OWNER" yaml:"owner"`
		// Repo is the destination repository name
		Repo string `env:"GITHUB_REPO" yaml:"repo"`
		// Branch to commit to, the repository default branch when empty
		Branch string `env:"GITHUB_BRANCH" yaml:"branch"`
		// PathPrefix is the directory inside the repository
		PathPrefix string `env:"GITHUB_PATH_PREFIX" env-default:"data" yaml:"pathPrefix"`
	} `yaml:"github"`

	// Schedule contains settings of the periodic export job
	Schedule struct {
		// Hour of the day (UTC) the export runs at
		Hour int `env:"SCHEDULE_HOUR" env-default:"0" yaml:"hour"`
		// Minute of the hour the export runs at
		Minute int `env:"SCHEDULE_MINUTE" env-default:"0" yaml:"minute"`
		// RunOnStart triggers an export as soon as the scheduler starts
		RunOnStart bool `env:"SCHEDULE_RUN_ON_START" env-default:"false" yaml:"runOnStart"`
	} `yaml:"schedule"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"covidexport" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// DotEnvFile is loaded into the process environment before the config is read, if it exists.
const DotEnvFile = ".env"

// Load receives the path for yaml config file and returns a filled Config struct.
// Variables from DotEnvFile are applied first, without overriding the ones
// already set in the environment. A missing config file is not an error, the
// environment and the defaults are used instead.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load %s: %w", DotEnvFile, err)
	}

	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that cannot be expressed with defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		errs = append(errs, fmt.Errorf("schedule.hour must be within 0-23, got %d", c.Schedule.Hour))
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		errs = append(errs, fmt.Errorf("schedule.minute must be within 0-59, got %d", c.Schedule.Minute))
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3.bucket is required when s3 is enabled"))
	}
	if c.GitHub.Enabled && (c.GitHub.Owner == "" || c.GitHub.Repo == "" || c.GitHub.Token == "") {
		errs = append(errs, errors.New("github.owner, github.repo and github.token are required when github is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
