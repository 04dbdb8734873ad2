// Package codemetrics reads the XML report of the .NET code-metrics tool
// (<CodeMetricsReport>): maintainability, complexity, coupling, inheritance
// depth and line counts per type and member, located by declaration line.
package codemetrics

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

type reportXML struct {
	XMLName xml.Name    `xml:"CodeMetricsReport"`
	Targets []targetXML `xml:"Targets>Target"`
}

type targetXML struct {
	Name       string        `xml:"Name,attr"`
	Assemblies []assemblyXML `xml:"Assembly"`
}

type assemblyXML struct {
	Name       string         `xml:"Name,attr"`
	Metrics    []metricXML    `xml:"Metrics>Metric"`
	Namespaces []namespaceXML `xml:"Namespaces>Namespace"`
}

type namespaceXML struct {
	Name    string      `xml:"Name,attr"`
	Metrics []metricXML `xml:"Metrics>Metric"`
	Types   []typeXML   `xml:"Types>NamedType"`
}

type typeXML struct {
	Name    string      `xml:"Name,attr"`
	File    string      `xml:"File,attr"`
	Line    string      `xml:"Line,attr"`
	Metrics []metricXML `xml:"Metrics>Metric"`
	Members membersXML  `xml:"Members"`
}

type membersXML struct {
	Items []memberXML `xml:",any"`
}

// memberXML is a <Method>, <Property>, <Field> or <Event>; the element name
// carries the kind.
type memberXML struct {
	XMLName   xml.Name
	Name      string      `xml:"Name,attr"`
	File      string      `xml:"File,attr"`
	Line      string      `xml:"Line,attr"`
	Metrics   []metricXML `xml:"Metrics>Metric"`
	Accessors []memberXML `xml:"Accessors>Method"`
}

type metricXML struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
}

// metricAliases maps names used by older versions of the tool.
var metricAliases = map[string]model.MetricIdentifier{
	"LinesOfCode":           model.SourceLines,
	"ExecutableLinesOfCode": model.ExecutableLines,
}

// CodeMetricsParser implements parser.IParser for code-metrics XML reports.
type CodeMetricsParser struct{}

// NewCodeMetricsParser creates a new CodeMetricsParser.
func NewCodeMetricsParser() parser.IParser {
	return &CodeMetricsParser{}
}

func init() {
	parser.RegisterParser(NewCodeMetricsParser())
}

func (p *CodeMetricsParser) Name() string { return "CodeMetrics" }

func (p *CodeMetricsParser) Kind() model.SourceKind { return model.SourceMetrics }

// SupportsFile checks for an XML file whose root is <CodeMetricsReport>.
func (p *CodeMetricsParser) SupportsFile(filePath string) bool {
	if !strings.HasSuffix(strings.ToLower(filePath), ".xml") {
		return false
	}
	return filereader.RootElement(filePath) == "CodeMetricsReport"
}

// Parse reads every named type and member of every target.
func (p *CodeMetricsParser) Parse(filePath string, config parser.ParserConfig) (*model.Document, error) {
	var report reportXML
	if err := filereader.DecodeXMLFile(filePath, &report); err != nil {
		return nil, fmt.Errorf("failed to load/unmarshal code metrics XML from %s: %w", filePath, err)
	}
	log := parser.LoggerOf(config)

	doc := &model.Document{Kind: model.SourceMetrics, Source: filePath}
	for _, target := range report.Targets {
		for _, asm := range target.Assemblies {
			asmName := symbols.NormalizeAssemblyName(asm.Name)
			for _, ns := range asm.Namespaces {
				for _, typ := range ns.Types {
					doc.Elements = append(doc.Elements, typeElements(asmName, ns.Name, typ, log)...)
				}
			}
		}
	}
	if len(report.Targets) == 1 {
		doc.SolutionName = strings.TrimSuffix(report.Targets[0].Name, ".csproj")
	}
	return doc, nil
}

func typeElements(asmName, namespace string, typ typeXML, log *slog.Logger) []model.Element {
	typeName := strings.TrimPrefix(symbols.NormalizeTypeName(typ.Name), namespace+".")
	elements := []model.Element{{
		Kind:               model.ElementType,
		Assembly:           asmName,
		Namespace:          namespace,
		TypeName:           typeName,
		Name:               typeName,
		FullyQualifiedName: joinName(namespace, typeName),
		Location:           declaration(typ.File, typ.Line),
		Metrics:            convertMetrics(typ.Metrics, log),
	}}

	for _, m := range typ.Members.Items {
		kind, ok := memberKinds[m.XMLName.Local]
		if !ok {
			log.Debug("Skipping unknown code metrics member element", "element", m.XMLName.Local, "type", typ.Name)
			continue
		}
		elements = append(elements, memberElement(asmName, namespace, typeName, kind, m.Name, m, log))
		for _, accessor := range m.Accessors {
			// Accessors are methods; the parameter list lets their key match
			// the coverage tool's "get_Name()".
			elements = append(elements, memberElement(asmName, namespace, typeName, model.MemberAccessor, accessor.Name+"()", accessor, log))
		}
	}
	return elements
}

var memberKinds = map[string]model.MemberKind{
	"Method":   model.MemberMethod,
	"Property": model.MemberProperty,
	"Field":    model.MemberField,
	"Event":    model.MemberEvent,
}

func memberElement(asmName, namespace, typeName string, kind model.MemberKind, rawName string, m memberXML, log *slog.Logger) model.Element {
	return model.Element{
		Kind:               model.ElementMember,
		MemberKind:         kind,
		Assembly:           asmName,
		Namespace:          namespace,
		TypeName:           typeName,
		Name:               rawName,
		FullyQualifiedName: joinName(namespace, typeName) + "." + symbols.NormalizeSignature(rawName),
		Location:           declaration(m.File, m.Line),
		Metrics:            convertMetrics(m.Metrics, log),
	}
}

func convertMetrics(metrics []metricXML, log *slog.Logger) map[model.MetricIdentifier]*model.MetricValue {
	out := make(map[model.MetricIdentifier]*model.MetricValue, len(metrics))
	for _, m := range metrics {
		id, ok := metricAliases[m.Name]
		if !ok {
			parsed, err := model.ParseMetricIdentifier(m.Name)
			if err != nil {
				log.Debug("Ignoring unknown code metric", "metric", m.Name)
				continue
			}
			id = parsed
		}
		v, ok := utils.ParseFloat(m.Value)
		if !ok {
			log.Warn("Ignoring malformed code metric value", "metric", m.Name, "value", m.Value)
			continue
		}
		out[id] = model.NewMetricValue(v)
	}
	return out
}

// declaration is a declaration-only location; nil without a file.
func declaration(file, line string) *model.SourceLocation {
	if file == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n <= 0 {
		return nil
	}
	return &model.SourceLocation{Path: file, StartLine: n}
}

func joinName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
