package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// VerbosityLevel defines the logging verbosity.
type VerbosityLevel int

const (
	Verbose VerbosityLevel = iota
	Info
	Warning
	Error
	Off
)

var verbosityNames = [...]string{"Verbose", "Info", "Warning", "Error", "Off"}

func (v VerbosityLevel) String() string {
	if v < Verbose || v > Off {
		return fmt.Sprintf("VerbosityLevel(%d)", int(v))
	}
	return verbosityNames[v]
}

// ParseVerbosity maps a case-insensitive level name to a VerbosityLevel.
func ParseVerbosity(s string) (VerbosityLevel, error) {
	for i, name := range verbosityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return VerbosityLevel(i), nil
		}
	}
	return Info, fmt.Errorf("invalid verbosity level '%s'. Valid levels are Verbose, Info, Warning, Error, Off", s)
}

// Level is the slog level that lets through messages at this verbosity.
func (v VerbosityLevel) Level() slog.Level {
	switch v {
	case Verbose:
		return slog.LevelDebug
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger creates a text logger writing to w. Off discards everything.
func NewLogger(v VerbosityLevel, w io.Writer) *slog.Logger {
	if v == Off || w == nil {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: v.Level()}))
}
