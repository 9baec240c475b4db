package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type StorageConfig struct {
	Root          string `yaml:"root" validate:"required|unixPath"`
	PublicPrefix  string `yaml:"publicPrefix" validate:"required"`
	PublicBaseURL string `yaml:"publicBaseURL"`
	MaxImageBytes int    `yaml:"maxImageBytes" validate:"required|min:1"`
	// MaxUploadMemory bounds the in-memory part of multipart parsing.
	MaxUploadMemory int64 `yaml:"maxUploadMemory"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required|in:sqlite3,sqlite"`
	DSN    string `yaml:"dsn" validate:"required"`
}

type FetcherConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
	// TTL in seconds for cached query responses.
	TTL int `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MaintenanceConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server            `yaml:"webServer"`
	Storage     StorageConfig     `yaml:"storage"`
	Database    DatabaseConfig    `yaml:"database"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}
