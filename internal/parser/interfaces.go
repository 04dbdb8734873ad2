package parser

import (
	"log/slog"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// ParserConfig defines the lean configuration required by a parser.
// This consumer-defined interface decouples parsers from the main report configuration.
type ParserConfig interface {
	// SourceDirectories are used to resolve relative file names in a report.
	SourceDirectories() []string
	Logger() *slog.Logger
}

// IParser defines the contract for every input document parser.
type IParser interface {
	Name() string
	Kind() model.SourceKind
	SupportsFile(filePath string) bool
	Parse(filePath string, config ParserConfig) (*model.Document, error)
}

// LoggerOf returns the config's logger, or slog's default one.
func LoggerOf(config ParserConfig) *slog.Logger {
	if config != nil {
		if l := config.Logger(); l != nil {
			return l
		}
	}
	return slog.Default()
}
