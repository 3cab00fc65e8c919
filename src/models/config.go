package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	GrpcHost string          `yaml:"grpc_host"`
	GrpcPort int             `yaml:"grpc_port"`
	Stream   MStreamConfig   `yaml:"stream"`
	Storage  MStorageConfig  `yaml:"storage"`
	Calendar MCalendarConfig `yaml:"calendar"`
	Monitor  MMonitorConfig  `yaml:"monitor"`
}

type MStreamConfig struct {
	URL                      string           `yaml:"url"`
	DialTimeoutSeconds       int              `yaml:"dial_timeout_seconds"`
	HeartbeatIntervalSeconds int              `yaml:"heartbeat_interval_seconds"`
	HeartbeatTimeoutSeconds  int              `yaml:"heartbeat_timeout_seconds"`
	Reconnect                MReconnectConfig `yaml:"reconnect"`
}

type MReconnectConfig struct {
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
	MaxAttempts int `yaml:"max_attempts"`
}

type MStorageConfig struct {
	DBType             string       `yaml:"db_type"` // sqlite | postgres | redis | memory
	DBPath             string       `yaml:"db_path"`
	DBConnectionString string       `yaml:"db_connection_string"`
	Namespace          string       `yaml:"namespace"`
	Redis              MRedisConfig `yaml:"redis"`
}

type MRedisConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"` // Optional, 0 keeps entries until purged
}

type MCalendarConfig struct {
	MIC string `yaml:"mic"`
}

type MMonitorConfig struct {
	Enabled         bool `yaml:"enabled"`
	RecentOrdersCap int  `yaml:"recent_orders_cap"`
}
