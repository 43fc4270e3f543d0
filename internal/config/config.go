package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Engine    EngineConfig    `yaml:"engine" envconfig:"ENGINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8090"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
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
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/chartdesk.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// EngineConfig tunes the display-transform engine defaults
type EngineConfig struct {
	WindowLookback  int `yaml:"window_lookback" envconfig:"WINDOW_LOOKBACK" default:"12"`
	WindowLookahead int `yaml:"window_lookahead" envconfig:"WINDOW_LOOKAHEAD" default:"8"`
}

// Load loads configuration from environment variables and an optional
// config file (CHARTDESK_CONFIG_FILE or chartdesk.yaml next to the binary).
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CHARTDESK", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func configFilePath() string {
	if p := os.Getenv("CHARTDESK_CONFIG_FILE"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "chartdesk.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "chartdesk.yaml")
}

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

// mergeConfigs overlays file values onto the env-derived config. A file
// value applies only where the file sets it and the corresponding
// environment variable was not set explicitly (envconfig fills defaults, so
// a plain zero-check on the env side would let defaults clobber the file).
func mergeConfigs(file, env Config) Config {
	merged := env

	if file.Server.Port != 0 && !envSet("SERVER_PORT") {
		merged.Server.Port = file.Server.Port
	}
	if file.Server.ReadTimeout != 0 && !envSet("SERVER_READ_TIMEOUT") {
		merged.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if file.Server.WriteTimeout != 0 && !envSet("SERVER_WRITE_TIMEOUT") {
		merged.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if file.Server.IdleTimeout != 0 && !envSet("SERVER_IDLE_TIMEOUT") {
		merged.Server.IdleTimeout = file.Server.IdleTimeout
	}
	if file.Server.MaxHeaderBytes != 0 && !envSet("SERVER_MAX_HEADER_BYTES") {
		merged.Server.MaxHeaderBytes = file.Server.MaxHeaderBytes
	}
	if file.Server.ShutdownTimeout != 0 && !envSet("SERVER_SHUTDOWN_TIMEOUT") {
		merged.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}
	if file.Server.MaxUploadBytes != 0 && !envSet("SERVER_MAX_UPLOAD_BYTES") {
		merged.Server.MaxUploadBytes = file.Server.MaxUploadBytes
	}
	if len(file.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		merged.Security.AllowedOrigins = file.Security.AllowedOrigins
	}
	if file.Security.RateLimit.RPS != 0 && !envSet("SECURITY_RATE_LIMIT_RPS") {
		merged.Security.RateLimit.RPS = file.Security.RateLimit.RPS
	}
	if file.Security.RateLimit.Burst != 0 && !envSet("SECURITY_RATE_LIMIT_BURST") {
		merged.Security.RateLimit.Burst = file.Security.RateLimit.Burst
	}
	if file.Logging.Level != "" && !envSet("LOGGING_LEVEL") {
		merged.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" && !envSet("LOGGING_FORMAT") {
		merged.Logging.Format = file.Logging.Format
	}
	if file.Logging.Output != "" && !envSet("LOGGING_OUTPUT") {
		merged.Logging.Output = file.Logging.Output
	}
	if file.Logging.FilePath != "" && !envSet("LOGGING_FILE_PATH") {
		merged.Logging.FilePath = file.Logging.FilePath
	}
	if file.Paths.DataDir != "" && !envSet("PATHS_DATA_DIR") {
		merged.Paths.DataDir = file.Paths.DataDir
	}
	if file.Paths.LogsDir != "" && !envSet("PATHS_LOGS_DIR") {
		merged.Paths.LogsDir = file.Paths.LogsDir
	}
	if file.WebSocket.ReadBufferSize != 0 && !envSet("WEBSOCKET_READ_BUFFER_SIZE") {
		merged.WebSocket.ReadBufferSize = file.WebSocket.ReadBufferSize
	}
	if file.WebSocket.WriteBufferSize != 0 && !envSet("WEBSOCKET_WRITE_BUFFER_SIZE") {
		merged.WebSocket.WriteBufferSize = file.WebSocket.WriteBufferSize
	}
	if file.WebSocket.PingPeriod != 0 && !envSet("WEBSOCKET_PING_PERIOD") {
		merged.WebSocket.PingPeriod = file.WebSocket.PingPeriod
	}
	if file.WebSocket.PongWait != 0 && !envSet("WEBSOCKET_PONG_WAIT") {
		merged.WebSocket.PongWait = file.WebSocket.PongWait
	}
	if file.Engine.WindowLookback != 0 && !envSet("ENGINE_WINDOW_LOOKBACK") {
		merged.Engine.WindowLookback = file.Engine.WindowLookback
	}
	if file.Engine.WindowLookahead != 0 && !envSet("ENGINE_WINDOW_LOOKAHEAD") {
		merged.Engine.WindowLookahead = file.Engine.WindowLookahead
	}

	return merged
}

func envSet(suffix string) bool {
	_, ok := os.LookupEnv("CHARTDESK_" + suffix)
	return ok
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got %f", c.Security.RateLimit.RPS)
	}
	if c.Engine.WindowLookback < 0 || c.Engine.WindowLookahead < 0 {
		return fmt.Errorf("window lookback/lookahead must be non-negative")
	}
	return nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
