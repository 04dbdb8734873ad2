package gocover

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/gocyclo"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

// processingOrchestrator holds dependencies and state for a single parsing operation.
type processingOrchestrator struct {
	sourceDirs []string
	log        *slog.Logger
	fset       *token.FileSet
	modules    map[string]module
	types      map[string]*typeCoverage
	order      []string
}

type module struct {
	root string
	name string
}

type lineInfo struct {
	hitCount      int
	isLastInBlock bool
}

type funcCoverage struct {
	name      string
	location  *model.SourceLocation
	covered   int
	coverable int
}

type typeCoverage struct {
	assembly  string
	namespace string
	name      string
	location  *model.SourceLocation
	funcs     []funcCoverage
}

func newProcessingOrchestrator(sourceDirs []string, log *slog.Logger) *processingOrchestrator {
	return &processingOrchestrator{
		sourceDirs: sourceDirs,
		log:        log,
		fset:       token.NewFileSet(),
		modules:    make(map[string]module),
		types:      make(map[string]*typeCoverage),
	}
}

// processBlocks groups the blocks per file, measures each file and returns the
// elements plus the solution name derived from the first module seen.
func (o *processingOrchestrator) processBlocks(blocks []ProfileBlock) ([]model.Element, string) {
	byFile := make(map[string][]ProfileBlock)
	var files []string
	for _, b := range blocks {
		if _, ok := byFile[b.FileName]; !ok {
			files = append(files, b.FileName)
		}
		byFile[b.FileName] = append(byFile[b.FileName], b)
	}

	solution := ""
	for _, name := range files {
		resolved, ok := utils.FindFileInSourceDirs(name, o.sourceDirs)
		if !ok {
			o.log.Warn("Source file not found, its coverage is skipped.", "file", name)
			continue
		}
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
		mod := o.moduleOf(resolved)
		if solution == "" {
			solution = path.Base(mod.name)
		}
		if err := o.processFile(resolved, mod, byFile[name]); err != nil {
			o.log.Warn("Failed to parse Go source for functions, its coverage is skipped.", "file", resolved, "error", err)
		}
	}
	return o.elements(), solution
}

func (o *processingOrchestrator) moduleOf(file string) module {
	dir := filepath.Dir(file)
	if m, ok := o.modules[dir]; ok {
		return m
	}
	root, name, err := gocyclo.FindModule(dir)
	if err != nil {
		o.log.Warn("Could not discover Go module name, using the directory name.", "error", err)
		root, name = dir, filepath.Base(dir)
	}
	m := module{root: root, name: name}
	o.modules[dir] = m
	return m
}

func (o *processingOrchestrator) processFile(file string, mod module, blocks []ProfileBlock) error {
	sourceLines, err := filereader.ReadLinesInFile(file)
	if err != nil {
		return err
	}
	if len(sourceLines) == 0 {
		return fmt.Errorf("source file is empty")
	}

	lineData := make(map[int]lineInfo)
	for _, block := range blocks {
		for line := block.StartLine; line <= block.EndLine; line++ {
			info := lineData[line]
			if block.HitCount > info.hitCount {
				info.hitCount = block.HitCount
			}
			if line == block.EndLine {
				info.isLastInBlock = true
			}
			lineData[line] = info
		}
	}
	coverable := func(line int) (bool, bool) {
		data, ok := lineData[line]
		if !ok || line > len(sourceLines) {
			return false, false
		}
		// The closing brace that ends a block carries no statement.
		if data.isLastInBlock && strings.TrimSpace(sourceLines[line-1]) == "}" {
			return false, false
		}
		return true, data.hitCount > 0
	}

	f, err := goparser.ParseFile(o.fset, file, strings.Join(sourceLines, "\n"), 0)
	if err != nil {
		return err
	}
	namespace := importPath(mod, file)

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				acc := o.typeCov(mod.name, namespace, ts.Name.Name)
				if acc.location == nil {
					acc.location = o.span(file, ts.Pos(), ts.End())
				}
			}
		case *ast.FuncDecl:
			owner := f.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				owner = gocyclo.ReceiverTypeName(d.Recv.List[0].Type)
			}
			fn := funcCoverage{name: d.Name.Name + "()", location: o.span(file, d.Pos(), d.End())}
			for line := fn.location.StartLine; line <= fn.location.EndLine; line++ {
				if ok, hit := coverable(line); ok {
					fn.coverable++
					if hit {
						fn.covered++
					}
				}
			}
			if fn.coverable == 0 {
				continue
			}
			acc := o.typeCov(mod.name, namespace, owner)
			acc.funcs = append(acc.funcs, fn)
		}
	}
	return nil
}

func (o *processingOrchestrator) typeCov(assembly, namespace, name string) *typeCoverage {
	key := namespace + "\x00" + name
	acc, ok := o.types[key]
	if !ok {
		acc = &typeCoverage{assembly: assembly, namespace: namespace, name: name}
		o.types[key] = acc
		o.order = append(o.order, key)
	}
	return acc
}

func (o *processingOrchestrator) span(file string, from, to token.Pos) *model.SourceLocation {
	return &model.SourceLocation{
		Path:      file,
		StartLine: o.fset.Position(from).Line,
		EndLine:   o.fset.Position(to).Line,
	}
}

// importPath maps the directory of file to its package import path.
func importPath(mod module, file string) string {
	rel, err := filepath.Rel(mod.root, filepath.Dir(file))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return mod.name
	}
	return mod.name + "/" + filepath.ToSlash(rel)
}

func coverageMetrics(covered, coverable int) map[model.MetricIdentifier]*model.MetricValue {
	return map[model.MetricIdentifier]*model.MetricValue{
		model.LineCoverage:    model.NewMetricValue(float64(covered) / float64(coverable) * 100),
		model.ExecutableLines: model.NewMetricValue(float64(coverable)),
	}
}

// elements emits types in first-seen order, each followed by its functions in
// source order. Types without coverable functions are left out.
func (o *processingOrchestrator) elements() []model.Element {
	var out []model.Element
	for _, key := range o.order {
		acc := o.types[key]
		if len(acc.funcs) == 0 {
			continue
		}
		sort.SliceStable(acc.funcs, func(i, j int) bool {
			if acc.funcs[i].location.Path != acc.funcs[j].location.Path {
				return acc.funcs[i].location.Path < acc.funcs[j].location.Path
			}
			return acc.funcs[i].location.StartLine < acc.funcs[j].location.StartLine
		})
		typeFQN := acc.namespace + "." + acc.name
		var covered, coverable int
		for _, fn := range acc.funcs {
			covered += fn.covered
			coverable += fn.coverable
		}
		out = append(out, model.Element{
			Kind:               model.ElementType,
			Assembly:           acc.assembly,
			Namespace:          acc.namespace,
			TypeName:           acc.name,
			Name:               acc.name,
			FullyQualifiedName: typeFQN,
			Location:           acc.location,
			Metrics:            coverageMetrics(covered, coverable),
		})
		for _, fn := range acc.funcs {
			out = append(out, model.Element{
				Kind:               model.ElementMember,
				MemberKind:         model.MemberMethod,
				Assembly:           acc.assembly,
				Namespace:          acc.namespace,
				TypeName:           acc.name,
				Name:               fn.name,
				FullyQualifiedName: typeFQN + "." + fn.name,
				Location:           fn.location,
				Metrics:            coverageMetrics(fn.covered, fn.coverable),
			})
		}
	}
	return out
}
