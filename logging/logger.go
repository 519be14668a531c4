// Package logging builds the process logger and the round-scoped child
// loggers the engine attaches to every round.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration
type Config struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Field names shared by the request log, the session and the audit trail.
const (
	FieldPlayerID  = "player_id"
	FieldGameKind  = "game_kind"
	FieldRoundID   = "round_id"
	FieldComponent = "component"
)

func shortCaller(_ uintptr, file string, line int) string {
	dir, name := filepath.Split(file)
	return filepath.Base(dir) + "/" + name + ":" + strconv.Itoa(line)
}

// New creates the process logger and installs it as the global log.Logger.
func New(config Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(config.Level))
	zerolog.CallerMarshalFunc = shortCaller
	zerolog.DurationFieldUnit = time.Millisecond

	var out io.Writer = os.Stdout
	if config.Output == "stderr" {
		out = os.Stderr
	}
	if config.Format == "pretty" || config.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().Timestamp().Caller().Logger()
	log.Logger = logger
	return logger
}

// ParseLevel accepts zerolog level names plus "warning". Anything unknown is info.
func ParseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithPlayerID adds player_id to logger context
func WithPlayerID(logger zerolog.Logger, playerID string) zerolog.Logger {
	return logger.With().Str(FieldPlayerID, playerID).Logger()
}

// WithGameKind adds game_kind to logger context
func WithGameKind(logger zerolog.Logger, kind string) zerolog.Logger {
	return logger.With().Str(FieldGameKind, kind).Logger()
}

// WithRoundID adds round_id to logger context
func WithRoundID(logger zerolog.Logger, roundID string) zerolog.Logger {
	return logger.With().Str(FieldRoundID, roundID).Logger()
}

// WithComponent adds component name to logger context
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str(FieldComponent, component).Logger()
}
