package middleware

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the middleware server configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Device     DeviceConfig     `yaml:"device"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string     `yaml:"host"`
	Port int        `yaml:"port"`
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// DeviceConfig selects where the symbol tables come from. A snapshot gives
// an offline client; otherwise a simulated device is built from the fixture
// file, or from the bundled house project when Fixture is empty.
type DeviceConfig struct {
	Fixture              string   `yaml:"fixture"`
	Snapshot             string   `yaml:"snapshot"`
	Source               string   `yaml:"source"`
	UploadTimeoutSeconds int      `yaml:"upload_timeout_seconds"`
	ExcludedTypePrefixes []string `yaml:"excluded_type_prefixes"`
}

// MiddlewareConfig contains middleware-specific configuration
type MiddlewareConfig struct {
	MaxBatchSize int `yaml:"max_batch_size"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				AllowCredentials: false,
			},
		},
		Device: DeviceConfig{
			Source:               "house",
			UploadTimeoutSeconds: 30,
		},
		Middleware: MiddlewareConfig{
			MaxBatchSize: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Device.Fixture != "" && c.Device.Snapshot != "" {
		return fmt.Errorf("device fixture and snapshot are mutually exclusive")
	}

	if c.Device.UploadTimeoutSeconds < 1 {
		return fmt.Errorf("upload timeout must be at least 1 second")
	}

	if c.Middleware.MaxBatchSize < 1 {
		return fmt.Errorf("max batch size must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// Address returns the server address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// UploadTimeout returns the schema upload timeout as a time.Duration
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Device.UploadTimeoutSeconds) * time.Second
}

// SaveExample saves an example configuration file
func SaveExample(filename string) error {
	config := DefaultConfig()
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
