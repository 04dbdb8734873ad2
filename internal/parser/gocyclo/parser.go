// Package gocyclo measures a Go source tree with github.com/fzipp/gocyclo
// and reports it as a metrics document: the module is the assembly, the
// import path the namespace, the receiver type (or the package itself for
// plain functions) the type, and every function a member.
package gocyclo

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fzipp/gocyclo"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	iparser "github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
)

// ParserName is the registered name of the Go complexity parser.
const ParserName = "GoCyclo"

// GoCycloParser implements parser.IParser for Go source directories.
type GoCycloParser struct{}

// NewGoCycloParser creates a new GoCycloParser.
func NewGoCycloParser() iparser.IParser {
	return &GoCycloParser{}
}

func init() {
	iparser.RegisterParser(NewGoCycloParser())
}

func (p *GoCycloParser) Name() string { return ParserName }

func (p *GoCycloParser) Kind() model.SourceKind { return model.SourceMetrics }

// SupportsFile accepts a .go file or a directory that is the root of a Go module.
func (p *GoCycloParser) SupportsFile(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return strings.HasSuffix(filePath, ".go")
	}
	_, err = os.Stat(filepath.Join(filePath, "go.mod"))
	return err == nil
}

// Parse analyzes every non-test Go file below filePath.
func (p *GoCycloParser) Parse(filePath string, config iparser.ParserConfig) (*model.Document, error) {
	log := iparser.LoggerOf(config)

	root, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Go source path %s: %w", filePath, err)
	}
	modRoot, modName, err := FindModule(root)
	if err != nil {
		log.Warn("Could not discover Go module name, using the directory name.", "error", err)
		modRoot = root
		if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
			modRoot = filepath.Dir(root)
		}
		modName = filepath.Base(modRoot)
	}

	files, err := goFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list Go files under %s: %w", filePath, err)
	}

	a := &analysis{
		log:     log,
		fset:    token.NewFileSet(),
		modRoot: modRoot,
		modName: modName,
		types:   make(map[string]*typeAccumulator),
	}
	for _, f := range files {
		if err := a.analyzeFile(f); err != nil {
			log.Warn("Skipping unparsable Go file", "file", f, "error", err)
		}
	}

	return &model.Document{
		Kind:         model.SourceMetrics,
		Source:       filePath,
		SolutionName: path.Base(modName),
		Elements:     a.elements(),
	}, nil
}

// FindModule walks up from start to the nearest go.mod and returns its
// directory and module path.
func FindModule(start string) (dir, module string, err error) {
	dir = start
	if info, statErr := os.Stat(start); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(start)
	}
	for {
		goMod := filepath.Join(dir, "go.mod")
		if _, statErr := os.Stat(goMod); statErr == nil {
			lines, readErr := filereader.ReadLinesInFile(goMod)
			if readErr != nil {
				return "", "", fmt.Errorf("could not read go.mod at %s: %w", goMod, readErr)
			}
			for _, line := range lines {
				line = strings.TrimSpace(line)
				if strings.HasPrefix(line, "module ") {
					return dir, strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "module ")), `"`), nil
				}
			}
			return "", "", fmt.Errorf("'module' directive not found in %s", goMod)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("go.mod not found in parent directories of %s", start)
		}
		dir = parent
	}
}

// goFiles lists the Go files to measure, skipping tests, vendored code,
// testdata and hidden directories.
func goFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, ".go") && !strings.HasSuffix(p, "_test.go") {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

type funcInfo struct {
	name       string
	location   *model.SourceLocation
	complexity int
}

type typeAccumulator struct {
	namespace string
	name      string
	location  *model.SourceLocation
	funcs     []funcInfo
}

type analysis struct {
	log     *slog.Logger
	fset    *token.FileSet
	modRoot string
	modName string
	types   map[string]*typeAccumulator
	order   []string
}

func (a *analysis) typeAcc(namespace, name string) *typeAccumulator {
	key := namespace + "\x00" + name
	acc, ok := a.types[key]
	if !ok {
		acc = &typeAccumulator{namespace: namespace, name: name}
		a.types[key] = acc
		a.order = append(a.order, key)
	}
	return acc
}

// importPath maps the directory of file to its package import path.
func (a *analysis) importPath(file string) string {
	rel, err := filepath.Rel(a.modRoot, filepath.Dir(file))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return a.modName
	}
	return a.modName + "/" + filepath.ToSlash(rel)
}

func (a *analysis) analyzeFile(file string) error {
	f, err := parser.ParseFile(a.fset, file, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	namespace := a.importPath(file)

	type lineCol struct{ line, col int }
	complexity := make(map[lineCol]int)
	for _, s := range gocyclo.AnalyzeASTFile(f, a.fset, nil) {
		complexity[lineCol{s.Pos.Line, s.Pos.Column}] = s.Complexity
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				acc := a.typeAcc(namespace, ts.Name.Name)
				if acc.location == nil {
					acc.location = a.span(file, ts.Pos(), ts.End())
				}
			}
		case *ast.FuncDecl:
			pos := a.fset.Position(d.Pos())
			c, ok := complexity[lineCol{pos.Line, pos.Column}]
			if !ok {
				// gocyclo:ignore directive.
				continue
			}
			owner := f.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				owner = ReceiverTypeName(d.Recv.List[0].Type)
			}
			acc := a.typeAcc(namespace, owner)
			acc.funcs = append(acc.funcs, funcInfo{
				name:       d.Name.Name + "()",
				location:   a.span(file, d.Pos(), d.End()),
				complexity: c,
			})
		}
	}
	return nil
}

func (a *analysis) span(file string, from, to token.Pos) *model.SourceLocation {
	return &model.SourceLocation{
		Path:      file,
		StartLine: a.fset.Position(from).Line,
		EndLine:   a.fset.Position(to).Line,
	}
}

// ReceiverTypeName strips pointers and type parameters from a receiver.
func ReceiverTypeName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return fmt.Sprintf("%T", e)
		}
	}
}

// elements emits types in first-seen order. Types without functions are left
// out; they carry no measurement.
func (a *analysis) elements() []model.Element {
	var out []model.Element
	for _, key := range a.order {
		acc := a.types[key]
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
		total := 0
		for _, fn := range acc.funcs {
			total += fn.complexity
		}
		out = append(out, model.Element{
			Kind:               model.ElementType,
			Assembly:           a.modName,
			Namespace:          acc.namespace,
			TypeName:           acc.name,
			Name:               acc.name,
			FullyQualifiedName: typeFQN,
			Location:           acc.location,
			Metrics: map[model.MetricIdentifier]*model.MetricValue{
				model.CyclomaticComplexity: model.NewMetricValue(float64(total)),
			},
		})
		for _, fn := range acc.funcs {
			out = append(out, model.Element{
				Kind:               model.ElementMember,
				MemberKind:         model.MemberMethod,
				Assembly:           a.modName,
				Namespace:          acc.namespace,
				TypeName:           acc.name,
				Name:               fn.name,
				FullyQualifiedName: typeFQN + "." + fn.name,
				Location:           fn.location,
				Metrics: map[model.MetricIdentifier]*model.MetricValue{
					model.CyclomaticComplexity: model.NewMetricValue(float64(fn.complexity)),
					model.SourceLines:          model.NewMetricValue(float64(fn.location.EndLine - fn.location.StartLine + 1)),
				},
			})
		}
	}
	return out
}
