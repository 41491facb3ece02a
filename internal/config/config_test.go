package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "http://localhost:8090", cfg.Service.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Service.Timeout)
	assert.Equal(t, 3, cfg.Service.MaxRetries)
	assert.Equal(t, 10, cfg.Views.TicketPageSize)
	assert.Equal(t, 10, cfg.Views.WorkflowPageSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "deskview", cfg.Tracing.ServiceName)
	assert.Equal(t, 8090, cfg.Demo.Port)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Service.BaseURL = "https://desk.example.com"
	cfg.Views.TicketPageSize = 50
	applyDefaults(cfg)

	assert.Equal(t, "https://desk.example.com", cfg.Service.BaseURL)
	assert.Equal(t, 50, cfg.Views.TicketPageSize)
	// untouched fields still get defaults
	assert.Equal(t, 3, cfg.Service.MaxRetries)
}

func TestLoadDecodesMultiWordKeys(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("service.base_url", "https://desk.example.com")
	viper.Set("service.max_retries", 7)
	viper.Set("views.ticket_page_size", 42)
	viper.Set("log.max_backups", 9)

	cfg := Load()

	assert.Equal(t, "https://desk.example.com", cfg.Service.BaseURL)
	assert.Equal(t, 7, cfg.Service.MaxRetries)
	assert.Equal(t, 42, cfg.Views.TicketPageSize)
	assert.Equal(t, 9, cfg.Log.MaxBackups)
}

func TestInitLoggerLevels(t *testing.T) {
	logger := InitLogger(&LogConfig{Level: "debug", Format: "json", Output: "stdout"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	// unknown level falls back to info
	logger = InitLogger(&LogConfig{Level: "chatty", Format: "text", Output: "stdout"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
