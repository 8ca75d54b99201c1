// Package common provides configuration, logging and protocol primitives
// shared by the server and client.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// switchWriter routes log output through a swappable destination so that
// InitLoggers also affects loggers created during package initialization.
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

var (
	output     = &switchWriter{w: os.Stdout}
	baseLogger = zerolog.New(output).With().Timestamp().Logger()
)

// GetLogger returns a named logger for the given component. All loggers
// derive from one base logger so InitLoggers applies globally.
func GetLogger(component string) zerolog.Logger {
	return baseLogger.With().Str("component", component).Logger()
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers sets the global log level and optionally switches log output
// to human-readable console format (used by the interactive client).
func InitLoggers(level string, console bool) error {
	parsed, err := parseLogLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)

	if console {
		output.set(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

// parseLogLevel converts a string level to zerolog.Level
func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}
