package cobertura

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

// This file turns Cobertura XML into coverage elements. The design is centered
// around a 'processingOrchestrator' struct which holds the configuration and
// the source directories of one parsing operation.
//
// The main responsibilities are:
// - Iterating through packages (assemblies) and classes defined in the XML.
// - Grouping partial class definitions that may be spread across multiple files.
// - Merging line hits and branch data from different XML fragments.
// - Computing line and branch coverage percentages per class and per method.
// - Dropping closures, lambdas and local functions. Async/iterator state
//   machines and nested types are kept; the aggregator reconciles them.

var (
	// conditionCoverageRegexCobertura matches "50% (1/2)".
	conditionCoverageRegexCobertura = regexp.MustCompile(`\((?P<NumberOfCoveredBranches>\d+)/(?P<NumberOfTotalBranches>\d+)\)$`)

	// lambdaMethodNameRegexCobertura matches compiler-generated lambda and
	// local function bodies such as "<Main>b__0_0" or "<Run>g__Local|3_0".
	lambdaMethodNameRegexCobertura = regexp.MustCompile(`<.+>.+__`)
)

// branchDetail is the visit count of one branch of a line.
type branchDetail struct {
	identifier string
	visits     int
}

// coverageAccumulator merges line hits and branches across XML fragments.
type coverageAccumulator struct {
	lineHits map[int]int
	branches map[int][]branchDetail
	minLine  int
	maxLine  int
}

func newCoverageAccumulator() *coverageAccumulator {
	return &coverageAccumulator{
		lineHits: make(map[int]int),
		branches: make(map[int][]branchDetail),
		minLine:  math.MaxInt32,
	}
}

func (c *coverageAccumulator) addLines(lines []LineXML) {
	for _, lineXML := range lines {
		lineNumber := utils.ParseLargeInteger(lineXML.Number, 0)
		if lineNumber <= 0 {
			continue
		}
		c.minLine = min(c.minLine, lineNumber)
		c.maxLine = max(c.maxLine, lineNumber)

		if hits := utils.ParseLargeInteger(lineXML.Hits, -1); hits >= 0 {
			if _, ok := c.lineHits[lineNumber]; !ok {
				c.lineHits[lineNumber] = hits
			} else if hits > 0 {
				c.lineHits[lineNumber] += hits
			}
		}

		if strings.EqualFold(lineXML.Branch, "true") {
			c.branches[lineNumber] = mergeBranches(c.branches[lineNumber], parseBranches(lineNumber, lineXML))
		}
	}
}

func (c *coverageAccumulator) hasLines() bool {
	return c.maxLine > 0
}

// lineCoverage is the percentage of coverable lines with at least one hit.
func (c *coverageAccumulator) lineCoverage() (float64, bool) {
	var covered, valid int
	for _, hits := range c.lineHits {
		if hits < 0 {
			continue
		}
		valid++
		if hits > 0 {
			covered++
		}
	}
	if valid == 0 {
		return 0, false
	}
	return float64(covered) / float64(valid) * 100, true
}

// branchCoverage is the percentage of visited branches. ok is false when no
// line of the accumulator is a branch point.
func (c *coverageAccumulator) branchCoverage() (float64, bool) {
	var covered, valid int
	for _, details := range c.branches {
		for _, b := range details {
			valid++
			if b.visits > 0 {
				covered++
			}
		}
	}
	if valid == 0 {
		return 0, false
	}
	return float64(covered) / float64(valid) * 100, true
}

func (c *coverageAccumulator) location(path string) *model.SourceLocation {
	if path == "" || !c.hasLines() {
		return nil
	}
	return &model.SourceLocation{Path: path, StartLine: c.minLine, EndLine: c.maxLine}
}

// methodAccumulator collects one method over all fragments of its class.
type methodAccumulator struct {
	rawName    string
	path       string
	lines      *coverageAccumulator
	complexity *float64
	lineRate   *float64
}

// processingOrchestrator holds dependencies and state for a single parsing operation.
type processingOrchestrator struct {
	config     parser.ParserConfig
	sourceDirs []string
	log        *slog.Logger
	resolved   map[string]string
}

// newProcessingOrchestrator creates a new orchestrator for processing Cobertura data.
func newProcessingOrchestrator(config parser.ParserConfig, sourceDirs []string) *processingOrchestrator {
	return &processingOrchestrator{
		config:     config,
		sourceDirs: sourceDirs,
		log:        parser.LoggerOf(config),
		resolved:   make(map[string]string),
	}
}

// processPackages is the entry point for the orchestrator.
func (o *processingOrchestrator) processPackages(packages []PackageXML) []model.Element {
	var elements []model.Element
	for _, pkgXML := range packages {
		if strings.TrimSpace(pkgXML.Name) == "" {
			o.log.Warn("Skipping Cobertura package without a name.")
			continue
		}
		elements = append(elements, o.processPackage(pkgXML)...)
	}
	return elements
}

// processPackage turns one package into the elements of its classes.
func (o *processingOrchestrator) processPackage(pkgXML PackageXML) []model.Element {
	names, groups := o.groupClassesByLogicalName(pkgXML.Classes.Class)
	var elements []model.Element
	for _, logicalName := range names {
		if isFilteredRawClassName(logicalName) {
			continue
		}
		elements = append(elements, o.processClassGroup(pkgXML.Name, logicalName, groups[logicalName])...)
	}
	return elements
}

// processClassGroup merges all XML fragments of one logical class into a type
// element followed by its member elements.
func (o *processingOrchestrator) processClassGroup(assembly, logicalName string, fragments []ClassXML) []model.Element {
	namespace, typeName := symbols.SplitTypeFullName(logicalName)
	classLines := newCoverageAccumulator()

	var methodOrder []string
	methods := make(map[string]*methodAccumulator)
	var classPath string
	var classComplexity float64
	hasComplexity := false

	for _, fragment := range fragments {
		path := o.resolvePath(fragment.Filename)
		if classPath == "" {
			classPath = path
		}
		classLines.addLines(fragment.Lines.Line)

		for _, methodXML := range fragment.Methods.Method {
			raw := methodXML.Name + methodXML.Signature
			if lambdaMethodNameRegexCobertura.MatchString(methodXML.Name) {
				continue
			}
			acc, ok := methods[raw]
			if !ok {
				acc = &methodAccumulator{rawName: raw, path: path, lines: newCoverageAccumulator()}
				methods[raw] = acc
				methodOrder = append(methodOrder, raw)
			}
			acc.lines.addLines(methodXML.Lines.Line)
			classLines.addLines(methodXML.Lines.Line)
			if v, ok := utils.ParseFloat(methodXML.Complexity); ok && !math.IsNaN(v) {
				if acc.complexity == nil {
					classComplexity += v
					hasComplexity = true
				}
				acc.complexity = &v
			}
			if v, ok := utils.ParseFloat(methodXML.LineRate); ok {
				acc.lineRate = &v
			}
		}
	}

	typeMetrics := make(map[model.MetricIdentifier]*model.MetricValue)
	if v, ok := classLines.lineCoverage(); ok {
		typeMetrics[model.LineCoverage] = model.NewMetricValue(v)
	}
	if v, ok := classLines.branchCoverage(); ok {
		typeMetrics[model.BranchCoverage] = model.NewMetricValue(v)
	}
	if hasComplexity {
		typeMetrics[model.CyclomaticComplexity] = model.NewMetricValue(classComplexity)
	}

	elements := []model.Element{{
		Kind:               model.ElementType,
		Assembly:           assembly,
		Namespace:          namespace,
		TypeName:           typeName,
		Name:               typeName,
		FullyQualifiedName: logicalName,
		Location:           classLines.location(classPath),
		Metrics:            typeMetrics,
	}}

	for _, raw := range methodOrder {
		elements = append(elements, o.methodElement(assembly, namespace, typeName, logicalName, methods[raw]))
	}
	return elements
}

func (o *processingOrchestrator) methodElement(assembly, namespace, typeName, logicalName string, acc *methodAccumulator) model.Element {
	metrics := make(map[model.MetricIdentifier]*model.MetricValue)
	if v, ok := acc.lines.lineCoverage(); ok {
		metrics[model.LineCoverage] = model.NewMetricValue(v)
	} else if acc.lineRate != nil {
		metrics[model.LineCoverage] = model.NewMetricValue(*acc.lineRate * 100)
	}
	if v, ok := acc.lines.branchCoverage(); ok {
		metrics[model.BranchCoverage] = model.NewMetricValue(v)
	}
	if acc.complexity != nil {
		metrics[model.CyclomaticComplexity] = model.NewMetricValue(*acc.complexity)
	}

	return model.Element{
		Kind:               model.ElementMember,
		MemberKind:         memberKindOf(acc.rawName),
		Assembly:           assembly,
		Namespace:          namespace,
		TypeName:           typeName,
		Name:               acc.rawName,
		FullyQualifiedName: logicalName + "::" + acc.rawName,
		Location:           acc.lines.location(acc.path),
		Metrics:            metrics,
	}
}

// memberKindOf classifies compiler-emitted accessor methods.
func memberKindOf(rawName string) model.MemberKind {
	for _, prefix := range []string{"get_", "set_", "add_", "remove_"} {
		if strings.HasPrefix(rawName, prefix) {
			return model.MemberAccessor
		}
	}
	return model.MemberMethod
}

// resolvePath maps a file name from the report onto the source directories.
func (o *processingOrchestrator) resolvePath(filename string) string {
	if filename == "" {
		return ""
	}
	if p, ok := o.resolved[filename]; ok {
		return p
	}
	p := utils.ResolveSourcePath(filename, o.sourceDirs)
	o.resolved[filename] = p
	return p
}

// groupClassesByLogicalName groups partial-class fragments by their
// normalized name, keeping first-seen order.
func (o *processingOrchestrator) groupClassesByLogicalName(classes []ClassXML) ([]string, map[string][]ClassXML) {
	var order []string
	grouped := make(map[string][]ClassXML)
	for _, classXML := range classes {
		logicalName := symbols.NormalizeTypeName(classXML.Name)
		if logicalName == "" {
			o.log.Warn("Skipping Cobertura class without a name.")
			continue
		}
		if _, seen := grouped[logicalName]; !seen {
			order = append(order, logicalName)
		}
		grouped[logicalName] = append(grouped[logicalName], classXML)
	}
	return order, grouped
}

// isFilteredRawClassName reports closures, display classes, anonymous types
// and local function containers. State machines ("<Run>d__3") are not
// filtered.
func isFilteredRawClassName(name string) bool {
	if strings.Contains(name, "<>c") || strings.Contains(name, "<>f__") ||
		strings.Contains(name, ">e__") ||
		(strings.Contains(name, "|") && strings.Contains(name, ">g__")) {
		return true
	}
	if idx := strings.LastIndexAny(name, "+"); idx != -1 {
		nestedPart := name[idx+1:]
		if strings.HasPrefix(nestedPart, "<") && strings.Contains(nestedPart, ">g__") {
			return true
		}
	}
	return false
}

// parseBranches reads the branches of one branch-point line.
func parseBranches(lineNumber int, lineXML LineXML) []branchDetail {
	var branches []branchDetail
	if matches := conditionCoverageRegexCobertura.FindStringSubmatch(lineXML.ConditionCoverage); matches != nil {
		covered, errC := strconv.Atoi(findNamedGroup(conditionCoverageRegexCobertura, matches, "NumberOfCoveredBranches"))
		total, errT := strconv.Atoi(findNamedGroup(conditionCoverageRegexCobertura, matches, "NumberOfTotalBranches"))
		if errC == nil && errT == nil && total > 0 {
			for i := 0; i < total; i++ {
				var visits int
				if i < covered {
					visits = 1
				}
				identifier := fmt.Sprintf("%d_%d", lineNumber, i)
				if i < len(lineXML.Conditions.Condition) {
					identifier = lineXML.Conditions.Condition[i].Number
				}
				branches = append(branches, branchDetail{identifier: identifier, visits: visits})
			}
			return branches
		}
	}
	if len(lineXML.Conditions.Condition) > 0 {
		for _, condition := range lineXML.Conditions.Condition {
			var visits int
			if strings.HasPrefix(condition.Coverage, "100") {
				visits = 1
			}
			branches = append(branches, branchDetail{identifier: condition.Number, visits: visits})
		}
		return branches
	}

	// Branch point without any detail: one branch, visited when the line was.
	var visits int
	if utils.ParseLargeInteger(lineXML.Hits, 0) > 0 {
		visits = 1
	}
	return []branchDetail{{identifier: fmt.Sprintf("%d_0", lineNumber), visits: visits}}
}

func mergeBranches(existing, incoming []branchDetail) []branchDetail {
	if existing == nil {
		return incoming
	}
	for _, newBranch := range incoming {
		found := false
		for i, existingBranch := range existing {
			if existingBranch.identifier == newBranch.identifier {
				existing[i].visits += newBranch.visits
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, newBranch)
		}
	}
	return existing
}

// findNamedGroup safely retrieves a captured group's value from a regex match slice.
func findNamedGroup(re *regexp.Regexp, match []string, groupName string) string {
	for i, name := range re.SubexpNames() {
		if i > 0 && i < len(match) && name == groupName {
			return match[i]
		}
	}
	return ""
}
