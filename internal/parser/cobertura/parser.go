package cobertura

import (
	"fmt"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
)

// CoberturaParser implements the parser.IParser interface for Cobertura XML reports.
type CoberturaParser struct{}

// NewCoberturaParser creates a new CoberturaParser.
func NewCoberturaParser() parser.IParser {
	return &CoberturaParser{}
}

func init() {
	parser.RegisterParser(NewCoberturaParser())
}

// Name returns the name of the parser.
func (cp *CoberturaParser) Name() string {
	return "Cobertura"
}

// Kind reports that Cobertura files are coverage documents.
func (cp *CoberturaParser) Kind() model.SourceKind {
	return model.SourceCoverage
}

// SupportsFile checks if the given file is likely a Cobertura XML report.
func (cp *CoberturaParser) SupportsFile(filePath string) bool {
	if !strings.HasSuffix(strings.ToLower(filePath), ".xml") {
		return false
	}
	return filereader.RootElement(filePath) == "coverage"
}

// Parse reads the Cobertura XML file and turns every class and method into a
// coverage element.
func (cp *CoberturaParser) Parse(filePath string, config parser.ParserConfig) (*model.Document, error) {
	var rawReport CoberturaRoot
	if err := filereader.DecodeXMLFile(filePath, &rawReport); err != nil {
		return nil, fmt.Errorf("failed to load/unmarshal Cobertura XML from %s: %w", filePath, err)
	}

	sourceDirs := config.SourceDirectories()
	if len(sourceDirs) == 0 {
		sourceDirs = rawReport.Sources.Source
	}

	o := newProcessingOrchestrator(config, sourceDirs)
	elements := o.processPackages(rawReport.Packages.Package)

	return &model.Document{
		Kind:     model.SourceCoverage,
		Source:   filePath,
		Elements: elements,
	}, nil
}

