package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "CARSALES"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Regression RegressionConfig `yaml:"regression" envconfig:"REGRESSION"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"20s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DatasetConfig locates and bounds the sales source file
type DatasetConfig struct {
	Path         string   `yaml:"path" envconfig:"PATH" default:"data/car_prices.csv"`
	MaxFileBytes int64    `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES" default:"1073741824"`
	DateLayouts  []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"54s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
	MaxMessageBytes int64         `yaml:"max_message_bytes" envconfig:"MAX_MESSAGE_BYTES" default:"4096"`
}

// TelemetryConfig controls tracing and metrics exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"carsales-dashboard"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// RegressionConfig controls the live model refit
type RegressionConfig struct {
	EnableLive bool    `yaml:"enable_live" envconfig:"ENABLE_LIVE" default:"true"`
	TestRatio  float64 `yaml:"test_ratio" envconfig:"TEST_RATIO" default:"0.2"`
	Seed       uint64  `yaml:"seed" envconfig:"SEED" default:"42"`
}

// Load reads an optional .env file, then environment variables and an optional
// YAML config file. Explicitly set environment variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs copies non-zero file values into the env config unless the
// matching environment variable was set explicitly.
func mergeConfigs(fileConfig, envConfig Config) Config {
	mergeField(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	mergeField(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	mergeField(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	mergeField(&envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	mergeField(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	mergeField(&envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout, "SERVER_REQUEST_TIMEOUT")

	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	mergeField(&envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, "SECURITY_RATE_LIMIT_RPS")
	mergeField(&envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")

	mergeField(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	mergeField(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	mergeField(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	mergeField(&envConfig.Dataset.Path, fileConfig.Dataset.Path, "DATASET_PATH")
	mergeField(&envConfig.Dataset.MaxFileBytes, fileConfig.Dataset.MaxFileBytes, "DATASET_MAX_FILE_BYTES")
	if len(fileConfig.Dataset.DateLayouts) > 0 && !envSet("DATASET_DATE_LAYOUTS") {
		envConfig.Dataset.DateLayouts = fileConfig.Dataset.DateLayouts
	}

	mergeField(&envConfig.WebSocket.PingPeriod, fileConfig.WebSocket.PingPeriod, "WEBSOCKET_PING_PERIOD")
	mergeField(&envConfig.WebSocket.PongWait, fileConfig.WebSocket.PongWait, "WEBSOCKET_PONG_WAIT")

	mergeField(&envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	mergeField(&envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")
	mergeField(&envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, "TELEMETRY_TRACE_EXPORTER")
	mergeField(&envConfig.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter, "TELEMETRY_METRIC_EXPORTER")

	mergeField(&envConfig.Regression.TestRatio, fileConfig.Regression.TestRatio, "REGRESSION_TEST_RATIO")
	mergeField(&envConfig.Regression.Seed, fileConfig.Regression.Seed, "REGRESSION_SEED")

	return envConfig
}

func mergeField[T comparable](dst *T, fileValue T, envKey string) {
	var zero T
	if fileValue == zero || envSet(envKey) {
		return
	}
	*dst = fileValue
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}

	if strings.TrimSpace(c.Dataset.Path) == "" {
		return fmt.Errorf("dataset path is required")
	}

	if c.Regression.TestRatio <= 0 || c.Regression.TestRatio >= 1 {
		return fmt.Errorf("regression test ratio must be in (0, 1), got %v", c.Regression.TestRatio)
	}

	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket ping period must be shorter than pong wait")
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// DatasetPath returns the dataset path, resolved against the working directory
func (c *Config) DatasetPath() string {
	if filepath.IsAbs(c.Dataset.Path) {
		return c.Dataset.Path
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, c.Dataset.Path)
	}
	return c.Dataset.Path
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Dataset: DatasetConfig{
			Path:         "data/car_prices.csv",
			MaxFileBytes: 1 << 30,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
			MaxMessageBytes: 4096,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "carsales-dashboard",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
		Regression: RegressionConfig{
			EnableLive: true,
			TestRatio:  0.2,
			Seed:       42,
		},
	}
}
