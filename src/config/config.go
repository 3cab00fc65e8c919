package config

import (
	"fmt"
	"os"
	"strings"

	"trade-streamer/src/helpers"
	"trade-streamer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment overrides (secrets and endpoints never live in YAML)
	config.applyEnvOverrides()

	// 4. Fill defaults for optional numerics
	config.applyDefaults()

	// 5. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRADE_STREAMER_STREAM_URL"); v != "" {
		c.Stream.URL = v
	}
	if v := os.Getenv("TRADE_STREAMER_DB_CONN"); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv("TRADE_STREAMER_REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Stream.DialTimeoutSeconds <= 0 {
		c.Stream.DialTimeoutSeconds = 10
	}
	if c.Stream.HeartbeatIntervalSeconds <= 0 {
		c.Stream.HeartbeatIntervalSeconds = 15
	}
	if c.Stream.HeartbeatTimeoutSeconds <= 0 {
		c.Stream.HeartbeatTimeoutSeconds = 5
	}
	if c.Stream.Reconnect.BaseDelayMs <= 0 {
		c.Stream.Reconnect.BaseDelayMs = 1000
	}
	if c.Stream.Reconnect.MaxDelayMs <= 0 {
		c.Stream.Reconnect.MaxDelayMs = 30000
	}
	if c.Stream.Reconnect.MaxAttempts <= 0 {
		c.Stream.Reconnect.MaxAttempts = 5
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = c.Name
	}
	if c.Calendar.MIC == "" {
		c.Calendar.MIC = "xnys"
	}
	if c.Monitor.RecentOrdersCap <= 0 {
		c.Monitor.RecentOrdersCap = 100
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 {
		if c.GrpcPort <= 1024 || c.GrpcPort > 65535 {
			return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
		}
		if c.GrpcPort == c.Port {
			return fmt.Errorf("grpc port must differ from server port")
		}
	}

	// Validate Stream configuration
	if c.Stream.URL == "" {
		return fmt.Errorf("stream url cannot be empty")
	}
	if !strings.HasPrefix(c.Stream.URL, "ws://") && !strings.HasPrefix(c.Stream.URL, "wss://") {
		return fmt.Errorf("stream url must use ws:// or wss:// scheme, got '%s'", c.Stream.URL)
	}
	if c.Stream.HeartbeatTimeoutSeconds >= c.Stream.HeartbeatIntervalSeconds {
		return fmt.Errorf("heartbeat timeout (%ds) must be shorter than the interval (%ds)",
			c.Stream.HeartbeatTimeoutSeconds, c.Stream.HeartbeatIntervalSeconds)
	}
	if c.Stream.Reconnect.BaseDelayMs > c.Stream.Reconnect.MaxDelayMs {
		return fmt.Errorf("reconnect base delay cannot exceed max delay")
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	case "redis":
		if c.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host cannot be empty")
		}
		if c.Storage.Redis.Port <= 0 || c.Storage.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis port number: %d", c.Storage.Redis.Port)
		}
	case "memory":
		// Nothing to validate
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unknown database type '%s' (expected sqlite, postgres, redis or memory)", c.Storage.DBType)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
