package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger builds a logrus logger from the log section. Unknown
// levels fall back to info with a warning.
func InitLogger(cfg *LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.Warnf("unknown log level %q, using info", cfg.Level)
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch cfg.Output {
	case "file":
		logger.SetOutput(fileWriter(cfg))
	case "both":
		logger.SetOutput(io.MultiWriter(os.Stdout, fileWriter(cfg)))
	default:
		logger.SetOutput(os.Stdout)
	}

	return logger
}

func fileWriter(cfg *LogConfig) io.Writer {
	if dir := filepath.Dir(cfg.FilePath); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}
