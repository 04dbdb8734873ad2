// Package opencover reads OpenCover XML reports (<CoverageSession>). Besides
// sequence and branch coverage they carry cyclomatic and NPath complexity per
// method, and keep async/iterator state machines as separate nested classes.
package opencover

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

// OpenCoverParser implements parser.IParser for OpenCover XML reports.
type OpenCoverParser struct{}

// NewOpenCoverParser creates a new OpenCoverParser.
func NewOpenCoverParser() parser.IParser {
	return &OpenCoverParser{}
}

func init() {
	parser.RegisterParser(NewOpenCoverParser())
}

func (p *OpenCoverParser) Name() string { return "OpenCover" }

func (p *OpenCoverParser) Kind() model.SourceKind { return model.SourceCoverage }

// SupportsFile checks for an XML file whose root is <CoverageSession>.
func (p *OpenCoverParser) SupportsFile(filePath string) bool {
	if !strings.HasSuffix(strings.ToLower(filePath), ".xml") {
		return false
	}
	return filereader.RootElement(filePath) == "CoverageSession"
}

// Parse turns every class of every instrumented module into a type element
// followed by its method elements.
func (p *OpenCoverParser) Parse(filePath string, config parser.ParserConfig) (*model.Document, error) {
	var session CoverageSessionXML
	if err := filereader.DecodeXMLFile(filePath, &session); err != nil {
		return nil, fmt.Errorf("failed to load/unmarshal OpenCover XML from %s: %w", filePath, err)
	}
	log := parser.LoggerOf(config)
	var sourceDirs []string
	if config != nil {
		sourceDirs = config.SourceDirectories()
	}

	doc := &model.Document{Kind: model.SourceCoverage, Source: filePath}
	for _, module := range session.Modules {
		if module.SkippedDueTo != "" || module.ModuleName == "" {
			log.Debug("Skipping OpenCover module", "module", module.ModulePath, "reason", module.SkippedDueTo)
			continue
		}
		files := make(map[string]string, len(module.Files))
		for _, f := range module.Files {
			files[f.UID] = utils.ResolveSourcePath(f.FullPath, sourceDirs)
		}
		for _, class := range module.Classes {
			doc.Elements = append(doc.Elements, classElements(module.ModuleName, class, files, log)...)
		}
	}
	return doc, nil
}

// pointTally counts visited and total points and tracks their line span.
type pointTally struct {
	visited, total      int
	firstLine, lastLine int
}

func (t *pointTally) add(visits string, start, end int) {
	t.total++
	if utils.ParseLargeInteger(visits, 0) > 0 {
		t.visited++
	}
	if start <= 0 {
		return
	}
	end = max(end, start)
	if t.firstLine == 0 || start < t.firstLine {
		t.firstLine = start
	}
	t.lastLine = max(t.lastLine, end)
}

func (t *pointTally) merge(o pointTally) {
	t.visited += o.visited
	t.total += o.total
	if o.firstLine > 0 && (t.firstLine == 0 || o.firstLine < t.firstLine) {
		t.firstLine = o.firstLine
	}
	t.lastLine = max(t.lastLine, o.lastLine)
}

func (t pointTally) percent() (float64, bool) {
	if t.total == 0 {
		return 0, false
	}
	return float64(t.visited) / float64(t.total) * 100, true
}

func (t pointTally) location(path string) *model.SourceLocation {
	if path == "" || t.firstLine == 0 {
		return nil
	}
	return &model.SourceLocation{Path: path, StartLine: t.firstLine, EndLine: t.lastLine}
}

// isSkippedClass reports compiler-generated classes other than async/iterator
// state machines, which the reconciler folds back into their method.
func isSkippedClass(name string) bool {
	if _, _, ok := symbols.ParseStateMachineName(name); ok {
		return false
	}
	return symbols.IsCompilerGenerated(name)
}

func classElements(assembly string, class ClassXML, files map[string]string, log *slog.Logger) []model.Element {
	logicalName := symbols.NormalizeTypeName(class.FullName)
	if class.SkippedDueTo != "" || logicalName == "" || isSkippedClass(logicalName) {
		return nil
	}
	namespace, typeName := symbols.SplitTypeFullName(logicalName)

	var members []model.Element
	var classLines, classBranches pointTally
	var classPath string
	var complexity, npath float64
	hasComplexity, hasNPath := false, false

	for _, m := range class.Methods {
		if m.SkippedDueTo != "" || m.Name == "" {
			continue
		}
		if symbols.IsCompilerGenerated(symbols.BareMethodName(m.Name)) {
			log.Debug("Skipping compiler-generated OpenCover method", "method", m.Name)
			continue
		}
		path := files[m.FileRef.UID]
		if classPath == "" {
			classPath = path
		}

		var lines, branches pointTally
		for _, sp := range m.SequencePoints {
			lines.add(sp.VisitCount, utils.ParseLargeInteger(sp.StartLine, 0), utils.ParseLargeInteger(sp.EndLine, 0))
		}
		for _, bp := range m.BranchPoints {
			branches.add(bp.VisitCount, 0, 0)
		}
		classLines.merge(lines)
		classBranches.merge(branches)

		metrics := make(map[model.MetricIdentifier]*model.MetricValue)
		if v, ok := lines.percent(); ok {
			metrics[model.LineCoverage] = model.NewMetricValue(v)
		} else if v, ok := utils.ParseFloat(m.SequenceCoverage); ok {
			metrics[model.LineCoverage] = model.NewMetricValue(v)
		}
		if v, ok := branches.percent(); ok {
			metrics[model.BranchCoverage] = model.NewMetricValue(v)
		}
		if v, ok := utils.ParseFloat(m.CyclomaticComplexity); ok {
			metrics[model.CyclomaticComplexity] = model.NewMetricValue(v)
			complexity += v
			hasComplexity = true
		}
		if v, ok := utils.ParseFloat(m.NPathComplexity); ok {
			metrics[model.NPathComplexity] = model.NewMetricValue(v)
			npath += v
			hasNPath = true
		}

		members = append(members, model.Element{
			Kind:               model.ElementMember,
			MemberKind:         memberKindOf(m),
			Assembly:           assembly,
			Namespace:          namespace,
			TypeName:           typeName,
			Name:               m.Name,
			FullyQualifiedName: m.Name,
			Location:           lines.location(path),
			Metrics:            metrics,
		})
	}
	if len(members) == 0 {
		return nil
	}

	typeMetrics := make(map[model.MetricIdentifier]*model.MetricValue)
	if v, ok := classLines.percent(); ok {
		typeMetrics[model.LineCoverage] = model.NewMetricValue(v)
	}
	if v, ok := classBranches.percent(); ok {
		typeMetrics[model.BranchCoverage] = model.NewMetricValue(v)
	}
	if hasComplexity {
		typeMetrics[model.CyclomaticComplexity] = model.NewMetricValue(complexity)
	}
	if hasNPath {
		typeMetrics[model.NPathComplexity] = model.NewMetricValue(npath)
	}

	return append([]model.Element{{
		Kind:               model.ElementType,
		Assembly:           assembly,
		Namespace:          namespace,
		TypeName:           typeName,
		Name:               typeName,
		FullyQualifiedName: logicalName,
		Location:           classLines.location(classPath),
		Metrics:            typeMetrics,
	}}, members...)
}

func memberKindOf(m MethodXML) model.MemberKind {
	if strings.EqualFold(m.IsGetter, "true") || strings.EqualFold(m.IsSetter, "true") {
		return model.MemberAccessor
	}
	return model.MemberMethod
}
