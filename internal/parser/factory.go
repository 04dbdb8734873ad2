package parser

import (
	"fmt"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

var registeredParsers []IParser

// RegisterParser adds a parser to the registry. Parsers call it from init, so
// a parser package takes part once it is imported.
func RegisterParser(p IParser) {
	registeredParsers = append(registeredParsers, p)
}

// GetParsers returns the registered parsers in registration order.
func GetParsers() []IParser {
	return registeredParsers
}

// FindParserForFile returns the first parser producing kind documents that
// recognizes filePath. Parsers of other kinds are not asked, so a file passed
// as coverage is never picked up by a metrics parser.
func FindParserForFile(filePath string, kind model.SourceKind) (IParser, error) {
	var others []string
	for _, p := range registeredParsers {
		if p.Kind() != kind {
			continue
		}
		if p.SupportsFile(filePath) {
			return p, nil
		}
		others = append(others, p.Name())
	}
	if len(others) == 0 {
		return nil, fmt.Errorf("no %s parser registered", kind)
	}
	return nil, fmt.Errorf("no suitable %s parser found for file %s (tried %s)", kind, filePath, strings.Join(others, ", "))
}

// FindParserByName returns the registered parser called name.
func FindParserByName(name string) (IParser, error) {
	for _, p := range registeredParsers {
		if strings.EqualFold(p.Name(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no parser registered as %q", name)
}
