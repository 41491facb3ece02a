package config

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Views    ViewsConfig    `yaml:"views"`
	Fallback FallbackConfig `yaml:"fallback"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Demo     DemoConfig     `yaml:"demo"`
}

// ServiceConfig points the console at the remote helpdesk service.
type ServiceConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ViewsConfig fixes the page size per view.
type ViewsConfig struct {
	TicketPageSize   int `yaml:"ticket_page_size"`
	WorkflowPageSize int `yaml:"workflow_page_size"`
}

// FallbackConfig controls the demo data source. When disabled the
// console shows an error state on first-load failures instead.
type FallbackConfig struct {
	Enabled bool `yaml:"enabled"`
	Seed    int  `yaml:"seed"` // number of demo tickets to generate
}

// AuthConfig is the external capability the console is told about; it
// does not authenticate anyone itself.
type AuthConfig struct {
	Admin       bool   `yaml:"admin"`
	RequesterID string `yaml:"requester_id"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json, text
	Output     string `yaml:"output"` // stdout, file, both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// TracingConfig configures the optional OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

// DemoConfig configures the local stub service.
type DemoConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func Load() *Config {
	var config Config
	// decode by the yaml tags, so multi-word keys like base_url land
	if err := viper.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		panic(err)
	}
	applyDefaults(&config)
	return &config
}

// GetDefaultConfig returns the built-in defaults.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = "http://localhost:8090"
	}
	if cfg.Service.Timeout == 0 {
		cfg.Service.Timeout = 30 * time.Second
	}
	if cfg.Service.MaxRetries == 0 {
		cfg.Service.MaxRetries = 3
	}
	if cfg.Service.RetryDelay == 0 {
		cfg.Service.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Views.TicketPageSize == 0 {
		cfg.Views.TicketPageSize = 10
	}
	if cfg.Views.WorkflowPageSize == 0 {
		cfg.Views.WorkflowPageSize = 10
	}
	if cfg.Fallback.Seed == 0 {
		cfg.Fallback.Seed = 25
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.FilePath == "" {
		cfg.Log.FilePath = "./logs/deskview.log"
	}
	if cfg.Log.MaxSize == 0 {
		cfg.Log.MaxSize = 100
	}
	if cfg.Log.MaxAge == 0 {
		cfg.Log.MaxAge = 7
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "http://localhost:4317"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "deskview"
	}
	if cfg.Demo.Host == "" {
		cfg.Demo.Host = "127.0.0.1"
	}
	if cfg.Demo.Port == 0 {
		cfg.Demo.Port = 8090
	}
}
