package logging

import (
	"log/slog"
	"os"
)

const (
	// KeyError is the attribute key used for error values.
	KeyError = "err"

	// KeyDal is the attribute key used for the data access layer name.
	KeyDal = "dal"

	// KeyAppName is the attribute key used for the application name.
	KeyAppName = "app"

	// KeyEvent is the attribute key used for the platform event type.
	KeyEvent = "event"

	// KeyGuild is the attribute key used for the guild (tenant) ID.
	KeyGuild = "guild_id"

	// KeyChannel is the attribute key used for the channel ID.
	KeyChannel = "channel_id"

	// KeyRequestID is the attribute key used for HTTP request IDs.
	KeyRequestID = "request_id"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the application name attached to every record.
	name Name

	// level is the minimum level to log at.
	level slog.Level
}

// NewConfig creates a new logging configuration.
func NewConfig(name Name) *Config {
	level := slog.LevelInfo
	if os.Getenv("LOG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return &Config{
		name:  name,
		level: level,
	}
}

// CommonLogger creates the common logger for the application.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})
	l := slog.New(h).With(slog.String(KeyAppName, string(c.name)))
	slog.SetDefault(l)
	return l, nil
}
