package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/filtering"
)

type testConfig struct {
	assemblies filtering.IFilter
	types      filtering.IFilter
	files      filtering.IFilter
	members    filtering.MemberKindFilter
}

func (c testConfig) AssemblyFilters() filtering.IFilter       { return c.assemblies }
func (c testConfig) TypeFilters() filtering.IFilter           { return c.types }
func (c testConfig) FileFilters() filtering.IFilter           { return c.files }
func (c testConfig) MemberFilter() filtering.MemberKindFilter { return c.members }
func (testConfig) Logger() *slog.Logger                       { return slog.New(slog.DiscardHandler) }

func fptr(v float64) *float64 { return &v }

func loc(path string, start, end int) *model.SourceLocation {
	return &model.SourceLocation{Path: path, StartLine: start, EndLine: end}
}

func metrics(kv ...any) map[model.MetricIdentifier]*model.MetricValue {
	out := make(map[model.MetricIdentifier]*model.MetricValue)
	for i := 0; i < len(kv); i += 2 {
		out[kv[i].(model.MetricIdentifier)] = model.NewMetricValue(kv[i+1].(float64))
	}
	return out
}

func typeEl(assembly, namespace, name string, l *model.SourceLocation, m map[model.MetricIdentifier]*model.MetricValue) model.Element {
	return model.Element{Kind: model.ElementType, Assembly: assembly, Namespace: namespace, Name: name, Location: l, Metrics: m}
}

func memberEl(assembly, namespace, typeName, name string, l *model.SourceLocation, m map[model.MetricIdentifier]*model.MetricValue) model.Element {
	return model.Element{Kind: model.ElementMember, Assembly: assembly, Namespace: namespace, TypeName: typeName, Name: name, Location: l, Metrics: m}
}

func diagnostic(rule, path string, line int) model.Element {
	return model.Element{
		Kind:     model.ElementMember,
		Name:     rule,
		Location: loc(path, line, 0),
		Metrics: map[model.MetricIdentifier]*model.MetricValue{
			model.DiagnosticMetricForRule(rule): {
				Value: fptr(1),
				Breakdown: map[string]*model.RuleBreakdown{
					rule: {Count: 1, Violations: []model.ViolationDetail{{Message: rule + " fired", URI: path, StartLine: line}}},
				},
			},
		},
	}
}

func doc(kind model.SourceKind, source string, elements ...model.Element) *model.Document {
	return &model.Document{Kind: kind, Source: source, Elements: elements}
}

func aggregate(t *testing.T, cfg Config, in Input) *Result {
	t.Helper()
	res, err := Aggregate(context.Background(), in, cfg)
	require.NoError(t, err)
	return res
}

func findType(t *testing.T, sol *model.Solution, fqn string) *model.Type {
	t.Helper()
	var found *model.Type
	model.Walk(sol, func(n, _ model.Node) {
		if typ, ok := n.(*model.Type); ok && typ.FullyQualifiedName == fqn {
			found = typ
		}
	})
	return found
}

func findMember(t *testing.T, sol *model.Solution, fqn string) *model.Member {
	t.Helper()
	var found *model.Member
	model.Walk(sol, func(n, _ model.Node) {
		if m, ok := n.(*model.Member); ok && m.FullyQualifiedName == fqn {
			found = m
		}
	})
	return found
}

func countLevel(sol *model.Solution, level model.SymbolLevel) int {
	n := 0
	model.Walk(sol, func(node, _ model.Node) {
		if node.Level() == level {
			n++
		}
	})
	return n
}

func TestAggregate_SymbolUnification(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		typeEl("Rca.Loader", "Rca.Loader", "Rca.Loader.LoaderApp", loc("C:/src/Rca.Loader/LoaderApp.cs", 10, 200), metrics(model.LineCoverage, 50.0)),
		memberEl("Rca.Loader", "Rca.Loader", "Rca.Loader.LoaderApp",
			"System.Void Rca.Loader.LoaderApp::OnApplicationIdling(System.Object,Autodesk.Revit.UI.Events.IdlingEventArgs)",
			loc("C:/src/Rca.Loader/LoaderApp.cs", 40, 60), metrics(model.LineCoverage, 50.0)),
	)
	coverage.SolutionName = "Rca"
	metricsDoc := doc(model.SourceMetrics, "metrics.xml",
		memberEl("Rca.Loader, Version=1.0.0.0, Culture=neutral", "Rca.Loader", "LoaderApp",
			"void OnApplicationIdling(object? sender, IdlingEventArgs e)",
			loc("C:/src/Rca.Loader/LoaderApp.cs", 40, 0), metrics(model.MaintainabilityIndex, 80.0)),
	)

	res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage, metricsDoc}})
	sol := res.Solution
	assert.Equal(t, "Rca", sol.Name)
	assert.Equal(t, 1, countLevel(sol, model.LevelAssembly))
	assert.Equal(t, 1, countLevel(sol, model.LevelType))
	require.Equal(t, 1, countLevel(sol, model.LevelMember), "both signatures collapse onto one member")

	m := findMember(t, sol, "Rca.Loader.LoaderApp.OnApplicationIdling(...)")
	require.NotNil(t, m)
	assert.Equal(t, "OnApplicationIdling(...)", m.Name)
	assert.InDelta(t, 50.0, m.Metric(model.LineCoverage).Float(), 1e-9)
	assert.InDelta(t, 80.0, m.Metric(model.MaintainabilityIndex).Float(), 1e-9)
	assert.Equal(t, 60, m.Location.EndLine, "a ranged location is kept over a declaration line")
}

func TestAggregate_OperatorsAndIndexersUnify(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		memberEl("App", "Ns", "Ns.T", "System.Boolean Ns.T::op_Equality(Ns.T,Ns.T)", loc("T.cs", 10, 14), metrics(model.LineCoverage, 100.0)),
		memberEl("App", "Ns", "Ns.T", "System.String Ns.T::get_Item(System.Int32)", loc("T.cs", 20, 22), metrics(model.LineCoverage, 50.0)),
	)
	metricsDoc := doc(model.SourceMetrics, "metrics.xml",
		memberEl("App", "Ns", "T", "bool T.operator ==(T a, T b)", loc("T.cs", 10, 0), metrics(model.CyclomaticComplexity, 2.0)),
		memberEl("App", "Ns", "T", "string T.this[int index].get()", loc("T.cs", 20, 0), metrics(model.CyclomaticComplexity, 1.0)),
	)
	res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage, metricsDoc}})
	assert.Equal(t, 2, countLevel(res.Solution, model.LevelMember))

	eq := findMember(t, res.Solution, "Ns.T.op_Equality(...)")
	require.NotNil(t, eq)
	assert.InDelta(t, 100.0, eq.Metric(model.LineCoverage).Float(), 1e-9)
	assert.InDelta(t, 2.0, eq.Metric(model.CyclomaticComplexity).Float(), 1e-9)

	item := findMember(t, res.Solution, "Ns.T.get_Item(...)")
	require.NotNil(t, item)
	assert.InDelta(t, 50.0, item.Metric(model.LineCoverage).Float(), 1e-9)
	assert.InDelta(t, 1.0, item.Metric(model.CyclomaticComplexity).Float(), 1e-9)
}

func TestAggregate_OverloadsCollapse(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		memberEl("Asm", "Ns", "T", "Run(System.Int32)", loc("T.cs", 10, 12), metrics(model.LineCoverage, 100.0)),
		memberEl("Asm", "Ns", "T", "Run(System.String)", loc("T.cs", 14, 16), metrics(model.LineCoverage, 0.0)),
	)
	res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage}})
	assert.Equal(t, 1, countLevel(res.Solution, model.LevelMember))
	run := findMember(t, res.Solution, "Ns.T.Run(...)")
	require.NotNil(t, run)
	assert.InDelta(t, 100.0, run.Metric(model.LineCoverage).Float(), 1e-9, "the first overload in a document wins")
	assert.Equal(t, 10, run.Location.StartLine)

	// A later document still overwrites what the first one merged.
	metricsDoc := doc(model.SourceMetrics, "metrics.xml",
		memberEl("Asm", "Ns", "T", "void Run(int value)", loc("T.cs", 10, 0), metrics(model.CyclomaticComplexity, 3.0)),
		memberEl("Asm", "Ns", "T", "void Run(string value)", loc("T.cs", 14, 0), metrics(model.CyclomaticComplexity, 9.0)),
	)
	res = aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage, metricsDoc}})
	run = findMember(t, res.Solution, "Ns.T.Run(...)")
	require.NotNil(t, run)
	assert.InDelta(t, 3.0, run.Metric(model.CyclomaticComplexity).Float(), 1e-9)
	assert.InDelta(t, 100.0, run.Metric(model.LineCoverage).Float(), 1e-9)
}

func TestAggregate_DuplicateSymbols(t *testing.T) {
	first := doc(model.SourceCoverage, "a.xml", memberEl("Asm", "Ns", "T", "M()", nil, metrics(model.LineCoverage, 10.0)))
	second := doc(model.SourceCoverage, "b.xml", memberEl("Asm", "Ns", "T", "M()", nil, metrics(model.LineCoverage, 20.0)))

	_, err := Aggregate(context.Background(), Input{Documents: []*model.Document{first, second}}, testConfig{})
	var dupErr *DuplicateSymbolError
	require.ErrorAs(t, err, &dupErr)
	require.Len(t, dupErr.Duplicates, 1)
	assert.Equal(t, DuplicateSymbol{Kind: model.SourceCoverage, Identity: "Asm|Ns.T.M(...)", FirstSource: "a.xml", SecondSource: "b.xml"}, dupErr.Duplicates[0])
	assert.Contains(t, err.Error(), "a.xml and b.xml")

	// The same identity in a coverage and a metrics document is the normal case.
	metricsDoc := doc(model.SourceMetrics, "m.xml", memberEl("Asm", "Ns", "T", "M()", nil, metrics(model.CyclomaticComplexity, 2.0)))
	_, err = Aggregate(context.Background(), Input{Documents: []*model.Document{first, metricsDoc}}, testConfig{})
	assert.NoError(t, err)
}

func TestAggregate_InvalidInput(t *testing.T) {
	_, err := Aggregate(context.Background(), Input{Documents: []*model.Document{nil}}, testConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Aggregate(context.Background(), Input{}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	inverted := model.ThresholdDefinitions{
		model.LineCoverage: {model.LevelType: {Warning: fptr(50), Error: fptr(80), HigherIsBetter: true}},
	}
	_, err = Aggregate(context.Background(), Input{Thresholds: inverted}, testConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	unknown := model.ThresholdDefinitions{
		model.MetricIdentifier("CA1822"): {model.LevelMember: {Warning: fptr(1), Error: fptr(2)}},
	}
	_, err = Aggregate(context.Background(), Input{Thresholds: unknown}, testConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "unknown metric")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Aggregate(ctx, Input{}, testConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_Filters(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		memberEl("App", "Ns", "T", "Run()", loc("src/T.cs", 1, 5), metrics(model.LineCoverage, 10.0)),
		memberEl("App", "Ns", "T", "get_Name()", loc("src/T.cs", 6, 6), metrics(model.LineCoverage, 10.0)),
		model.Element{Kind: model.ElementMember, MemberKind: model.MemberProperty, Assembly: "App", Namespace: "Ns", TypeName: "T", Name: "Name", Metrics: metrics(model.LineCoverage, 10.0)},
		memberEl("App", "Ns.Generated", "G", "Run()", loc("obj/G.cs", 1, 5), metrics(model.LineCoverage, 10.0)),
		memberEl("App.Tests", "Ns", "TTests", "Run()", loc("tests/TTests.cs", 1, 5), metrics(model.LineCoverage, 10.0)),
	)
	cfg := testConfig{
		assemblies: filtering.MustNewDefaultFilter("-*.Tests"),
		types:      filtering.MustNewDefaultFilter("-Ns.Generated.*"),
		files:      filtering.MustNewDefaultFilter("-*obj/*"),
		members:    filtering.MemberKindFilter{ExcludeProperties: true},
	}
	res := aggregate(t, cfg, Input{Documents: []*model.Document{coverage}})
	assert.Equal(t, 1, countLevel(res.Solution, model.LevelAssembly))
	assert.Equal(t, 1, countLevel(res.Solution, model.LevelType))
	assert.Equal(t, 2, countLevel(res.Solution, model.LevelMember), "Run and get_Name remain; the property is excluded")
	assert.Nil(t, findMember(t, res.Solution, "Ns.T.Name"))
}

// recordingFilter rejects everything and records what it was asked about.
type recordingFilter struct {
	custom bool
	asked  []string
}

func (f *recordingFilter) IsElementIncludedInReport(name string) bool {
	f.asked = append(f.asked, name)
	return false
}

func (f *recordingFilter) HasCustomFilters() bool { return f.custom }

func TestAggregate_EmptyFiltersNotConsulted(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		memberEl("App", "Ns", "T", "Run()", loc("src/T.cs", 1, 5), metrics(model.LineCoverage, 10.0)),
	)
	empty := &recordingFilter{}
	res := aggregate(t, testConfig{assemblies: empty, types: empty, files: empty}, Input{Documents: []*model.Document{coverage}})
	assert.Empty(t, empty.asked)
	assert.NotNil(t, findMember(t, res.Solution, "Ns.T.Run(...)"))

	rejecting := &recordingFilter{custom: true}
	res = aggregate(t, testConfig{types: rejecting}, Input{Documents: []*model.Document{coverage}})
	assert.Contains(t, rejecting.asked, "Ns.T")
	assert.Equal(t, 0, countLevel(res.Solution, model.LevelType))
}

func TestAggregate_Diagnostics(t *testing.T) {
	const appFile = "C:/src/App/T.cs"
	coverage := doc(model.SourceCoverage, "coverage.xml",
		typeEl("App", "Ns", "T", loc(appFile, 1, 100), metrics(model.LineCoverage, 80.0)),
		memberEl("App", "Ns", "T", "A()", loc(appFile, 20, 22), metrics(model.LineCoverage, 80.0)),
		memberEl("App", "Ns", "T", "B()", loc(appFile, 20, 30), metrics(model.LineCoverage, 80.0)),
		memberEl("App.Tests", "Ns", "TTests", "Run()", loc("C:/src/Tests/TTests.cs", 1, 9), metrics(model.LineCoverage, 80.0)),
	)
	sarif := doc(model.SourceSarif, "build.sarif",
		diagnostic("CA1822", `src\App\T.cs`, 21),
		diagnostic("XYZ", appFile, 21),
		diagnostic("IDE0005", appFile, 90),
		diagnostic("CA2000", "C:/src/Unknown.cs", 5),
		diagnostic("CA1031", "C:/src/Tests/TTests.cs", 3),
	)
	cfg := testConfig{assemblies: filtering.MustNewDefaultFilter("-*.Tests")}
	res := aggregate(t, cfg, Input{Documents: []*model.Document{coverage, sarif}})

	a := findMember(t, res.Solution, "Ns.T.A(...)")
	require.NotNil(t, a)
	ca := a.Metric(model.CodeAnalysisDiagnostics)
	require.NotNil(t, ca)
	assert.InDelta(t, 2.0, ca.Float(), 1e-9, "recognized and unrecognized rules are both counted")
	require.Len(t, ca.Breakdown, 1, "only recognized rule ids get a breakdown")
	assert.Equal(t, 1, ca.Breakdown["CA1822"].Count)
	assert.Equal(t, 21, ca.Breakdown["CA1822"].Violations[0].StartLine)
	assert.Nil(t, findMember(t, res.Solution, "Ns.T.B(...)").Metric(model.CodeAnalysisDiagnostics))

	typ := findType(t, res.Solution, "Ns.T")
	assert.InDelta(t, 1.0, typ.Metric(model.CodeStyleDiagnostics).Float(), 1e-9, "no member near line 90; the type takes it")

	root := res.Solution.Metric(model.CodeAnalysisDiagnostics)
	require.NotNil(t, root)
	assert.InDelta(t, 2.0, root.Float(), 1e-9, "unknown files and excluded assemblies land on the solution")
	assert.Contains(t, root.Breakdown, "CA2000")
	assert.Contains(t, root.Breakdown, "CA1031")
}

func TestAggregate_IteratorReconciliation(t *testing.T) {
	tests := []struct {
		name            string
		methodCoverage  float64
		machineCoverage float64
		methodBranch    bool
		wantRemoved     bool
		wantCoverage    float64
		wantFlag        bool
	}{
		{name: "zero method, covered machine", methodCoverage: 0, machineCoverage: 75, wantRemoved: true, wantCoverage: 75, wantFlag: true},
		{name: "zero method with branch entry", methodCoverage: 0, machineCoverage: 75, methodBranch: true, wantRemoved: true, wantCoverage: 75, wantFlag: true},
		{name: "both zero, machine reports only branches", methodCoverage: 0, machineCoverage: 0, wantRemoved: true, wantCoverage: 0},
		{name: "covered method, zero machine", methodCoverage: 40, machineCoverage: 0, wantCoverage: 40},
		{name: "both covered", methodCoverage: 40, machineCoverage: 75, wantCoverage: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			methodMetrics := metrics(model.LineCoverage, tt.methodCoverage)
			if tt.methodBranch {
				methodMetrics[model.BranchCoverage] = model.NewMetricValue(0)
			}
			coverage := doc(model.SourceCoverage, "coverage.xml",
				typeEl("App", "Ns", "Ns.Outer", loc("Outer.cs", 1, 50), metrics(model.LineCoverage, tt.methodCoverage)),
				memberEl("App", "Ns", "Ns.Outer", "LoadAsync()", loc("Outer.cs", 10, 20), methodMetrics),
				typeEl("App", "Ns", "Ns.Outer/<LoadAsync>d__3", loc("Outer.cs", 10, 20),
					metrics(model.LineCoverage, tt.machineCoverage, model.BranchCoverage, 50.0, model.CyclomaticComplexity, 4.0, model.NPathComplexity, 12.0)),
				memberEl("App", "Ns", "Ns.Outer/<LoadAsync>d__3", "MoveNext()", loc("Outer.cs", 10, 20), metrics(model.LineCoverage, tt.machineCoverage)),
			)
			res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage}})

			machine := findType(t, res.Solution, "Ns.Outer+<LoadAsync>d__3")
			assert.Equal(t, tt.wantRemoved, machine == nil)

			m := findMember(t, res.Solution, "Ns.Outer.LoadAsync(...)")
			require.NotNil(t, m)
			assert.InDelta(t, tt.wantCoverage, m.Metric(model.LineCoverage).Float(), 1e-9)
			assert.Equal(t, tt.wantFlag, m.IncludesIteratorStateMachineCoverage)
			if !tt.wantFlag {
				assert.Nil(t, m.Metric(model.NPathComplexity))
				return
			}
			assert.InDelta(t, 4.0, m.Metric(model.CyclomaticComplexity).Float(), 1e-9)
			assert.InDelta(t, 12.0, m.Metric(model.NPathComplexity).Float(), 1e-9)
			if tt.methodBranch {
				assert.InDelta(t, 50.0, m.Metric(model.BranchCoverage).Float(), 1e-9, "an existing branch entry is overwritten")
			} else {
				assert.Nil(t, m.Metric(model.BranchCoverage), "branch coverage is only moved onto methods that report branches")
			}
		})
	}
}

func TestAggregate_NestedTypeReconciliation(t *testing.T) {
	metricsDoc := doc(model.SourceMetrics, "metrics.xml",
		typeEl("App", "Ns", "Outer.Inner", loc("Outer.cs", 30, 0), metrics(model.MaintainabilityIndex, 70.0)),
		memberEl("App", "Ns", "Outer.Inner", "void Run()", loc("Outer.cs", 32, 0), metrics(model.MaintainabilityIndex, 60.0)),
	)

	t.Run("transfer", func(t *testing.T) {
		coverage := doc(model.SourceCoverage, "coverage.xml",
			typeEl("App", "Ns", "Ns.Outer/Inner", loc("Outer.cs", 30, 60), metrics(model.LineCoverage, 80.0)),
			memberEl("App", "Ns", "Ns.Outer/Inner", "System.Void Ns.Outer/Inner::Run()", loc("Outer.cs", 32, 40), metrics(model.LineCoverage, 80.0)),
			memberEl("App", "Ns", "Ns.Outer/Inner", "System.Void Ns.Outer/Inner::Helper()", loc("Outer.cs", 42, 50), metrics(model.LineCoverage, 0.0)),
		)
		res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage, metricsDoc}})

		assert.Nil(t, findType(t, res.Solution, "Ns.Outer+Inner"))
		dot := findType(t, res.Solution, "Ns.Outer.Inner")
		require.NotNil(t, dot)
		assert.InDelta(t, 80.0, dot.Metric(model.LineCoverage).Float(), 1e-9)
		assert.InDelta(t, 70.0, dot.Metric(model.MaintainabilityIndex).Float(), 1e-9)
		assert.Equal(t, 60, dot.Location.EndLine)

		run := findMember(t, res.Solution, "Ns.Outer.Inner.Run(...)")
		require.NotNil(t, run)
		assert.InDelta(t, 80.0, run.Metric(model.LineCoverage).Float(), 1e-9)
		assert.InDelta(t, 60.0, run.Metric(model.MaintainabilityIndex).Float(), 1e-9)
		helper := findMember(t, res.Solution, "Ns.Outer.Inner.Helper(...)")
		require.NotNil(t, helper, "members only the coverage side reported are created")
		assert.NotNil(t, helper.Metric(model.LineCoverage))
	})

	t.Run("type coverage on both sides still transfers", func(t *testing.T) {
		coverage := doc(model.SourceCoverage, "coverage.xml",
			typeEl("App", "Ns", "Ns.Outer/Inner", loc("Outer.cs", 30, 60), metrics(model.LineCoverage, 80.0)),
			memberEl("App", "Ns", "Ns.Outer/Inner", "Run()", loc("Outer.cs", 32, 40), metrics(model.LineCoverage, 80.0)),
			typeEl("App", "Ns", "Outer.Inner", loc("Outer.cs", 30, 60), metrics(model.LineCoverage, 20.0)),
			memberEl("App", "Ns", "Outer.Inner", "Stop()", loc("Outer.cs", 42, 50), metrics(model.LineCoverage, 20.0)),
		)
		res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage}})
		assert.Nil(t, findType(t, res.Solution, "Ns.Outer+Inner"))
		dot := findType(t, res.Solution, "Ns.Outer.Inner")
		require.NotNil(t, dot)
		assert.InDelta(t, 80.0, dot.Metric(model.LineCoverage).Float(), 1e-9)
		assert.NotNil(t, findMember(t, res.Solution, "Ns.Outer.Inner.Run(...)"))
		assert.NotNil(t, findMember(t, res.Solution, "Ns.Outer.Inner.Stop(...)"))
	})

	t.Run("conflict", func(t *testing.T) {
		coverage := doc(model.SourceCoverage, "coverage.xml",
			memberEl("App", "Ns", "Ns.Outer/Inner", "Run()", loc("Outer.cs", 32, 40), metrics(model.LineCoverage, 80.0)),
			memberEl("App", "Ns", "Outer.Inner", "Run()", loc("Outer.cs", 32, 40), metrics(model.LineCoverage, 30.0)),
		)
		res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage}})
		assert.NotNil(t, findType(t, res.Solution, "Ns.Outer+Inner"), "both sides measured; nothing moves")
		assert.InDelta(t, 30.0, findMember(t, res.Solution, "Ns.Outer.Inner.Run(...)").Metric(model.LineCoverage).Float(), 1e-9)
	})
}

func TestAggregate_CrapScoreAndThresholds(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		memberEl("App", "Ns", "T", "Run()", loc("T.cs", 1, 10), metrics(model.LineCoverage, 0.0, model.CyclomaticComplexity, 5.0)),
	)
	defs := model.ThresholdDefinitions{
		model.CrapScore:    {model.LevelMember: {Warning: fptr(15), Error: fptr(30)}},
		model.LineCoverage: {model.LevelType: {Warning: fptr(80), Error: fptr(60), HigherIsBetter: true}},
	}
	res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage}, Thresholds: defs})

	m := findMember(t, res.Solution, "Ns.T.Run(...)")
	require.NotNil(t, m)
	assert.InDelta(t, 30.0, m.Metric(model.CrapScore).Float(), 1e-9)
	assert.Equal(t, model.StatusWarning, m.Metric(model.CrapScore).Status, "30 does not exceed the error bound")
	assert.Equal(t, model.StatusError, m.Metric(model.LineCoverage).Status, "member falls back to the type threshold")
	assert.Equal(t, model.StatusSuccess, m.Metric(model.CyclomaticComplexity).Status)
	assert.Equal(t, defs, res.Metadata.Thresholds)
}

func TestCalculateCrapScore(t *testing.T) {
	v, ok := calculateCrapScore(100, 5)
	require.True(t, ok)
	assert.InDelta(t, 5.0, v, 1e-9)

	v, ok = calculateCrapScore(50, 4)
	require.True(t, ok)
	assert.InDelta(t, 6.0, v, 1e-9)

	_, ok = calculateCrapScore(50, -1)
	assert.False(t, ok)
}

func TestEvaluateThreshold(t *testing.T) {
	defs := model.ThresholdDefinitions{
		model.CyclomaticComplexity: {model.LevelType: {Warning: fptr(10), Error: fptr(20)}},
		model.LineCoverage: {
			model.LevelMember: {Warning: fptr(80), Error: fptr(60), HigherIsBetter: true},
		},
		model.ClassCoupling: {model.LevelType: {Error: fptr(40)}},
	}
	tests := []struct {
		name   string
		metric model.MetricIdentifier
		value  *float64
		level  model.SymbolLevel
		want   model.Status
	}{
		{"unmeasured", model.CyclomaticComplexity, nil, model.LevelMember, model.StatusNotApplicable},
		{"no policy", model.MaintainabilityIndex, fptr(1), model.LevelMember, model.StatusSuccess},
		{"member falls back to type", model.CyclomaticComplexity, fptr(15), model.LevelMember, model.StatusWarning},
		{"error beats warning", model.CyclomaticComplexity, fptr(25), model.LevelMember, model.StatusError},
		{"on the bound", model.CyclomaticComplexity, fptr(10), model.LevelType, model.StatusSuccess},
		{"higher is better", model.LineCoverage, fptr(70), model.LevelMember, model.StatusWarning},
		{"higher is better error", model.LineCoverage, fptr(59.9), model.LevelMember, model.StatusError},
		{"no level and no type fallback", model.LineCoverage, fptr(0), model.LevelAssembly, model.StatusSuccess},
		{"missing warning bound", model.ClassCoupling, fptr(39), model.LevelType, model.StatusSuccess},
		{"only error bound", model.ClassCoupling, fptr(41), model.LevelType, model.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateThreshold(tt.metric, tt.value, defs, tt.level))
		})
	}
}

func TestCalculateDelta(t *testing.T) {
	assert.Nil(t, CalculateDelta(fptr(10), fptr(10)))
	d := CalculateDelta(fptr(10), fptr(7))
	require.NotNil(t, d)
	assert.InDelta(t, 3.0, *d, 1e-9)
	assert.Nil(t, CalculateDelta(nil, fptr(7)))
	assert.Nil(t, CalculateDelta(fptr(10), nil))
}

func TestAggregate_Deltas(t *testing.T) {
	coverage := doc(model.SourceCoverage, "coverage.xml",
		memberEl("App", "Ns", "T", "Run()", loc("T.cs", 1, 10), metrics(model.LineCoverage, 60.0)),
		memberEl("App", "Ns", "T", "Stop()", loc("T.cs", 11, 20), metrics(model.LineCoverage, 10.0)),
		memberEl("App", "Ns", "T", "Added()", loc("T.cs", 21, 30), metrics(model.LineCoverage, 10.0)),
	)
	baseline := aggregate(t, testConfig{}, Input{Documents: []*model.Document{
		doc(model.SourceCoverage, "old.xml",
			memberEl("App", "Ns", "T", "Run()", loc("T.cs", 1, 10), metrics(model.LineCoverage, 50.0)),
			memberEl("App", "Ns", "T", "Stop()", loc("T.cs", 11, 20), metrics(model.LineCoverage, 10.0)),
		),
	}}).Solution

	res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage}, Baseline: baseline, BaselineName: "old.json"})
	run := findMember(t, res.Solution, "Ns.T.Run(...)")
	require.NotNil(t, run.Metric(model.LineCoverage).Delta)
	assert.InDelta(t, 10.0, *run.Metric(model.LineCoverage).Delta, 1e-9)
	assert.False(t, run.IsNew)
	assert.Nil(t, findMember(t, res.Solution, "Ns.T.Stop(...)").Metric(model.LineCoverage).Delta, "unchanged values carry no delta")
	assert.True(t, findMember(t, res.Solution, "Ns.T.Added(...)").IsNew)
	assert.False(t, findType(t, res.Solution, "Ns.T").IsNew)
	assert.Equal(t, "old.json", res.Metadata.Baseline)
}

func TestAggregate_Suppressions(t *testing.T) {
	const file = "T.cs"
	coverage := doc(model.SourceCoverage, "coverage.xml",
		typeEl("App", "Ns", "T", loc(file, 1, 100), metrics(model.LineCoverage, 10.0)),
		memberEl("App", "Ns", "T", "Run(System.Int32)", loc(file, 10, 20), metrics(model.LineCoverage, 10.0)),
	)
	sarif := doc(model.SourceSarif, "build.sarif", diagnostic("CA1822", file, 12))

	suppressions := []*model.SuppressedSymbolInfo{
		{FullyQualifiedName: "Ns.T.Run(Int32)", RuleID: "CA1822"},
		{FullyQualifiedName: "Ns.T.Run(Int32)", RuleID: "IDE0005"},
		{FullyQualifiedName: "Ns.T.Run(Int32)", RuleID: "CA1822", Metric: "codestylediagnostics"},
		{FullyQualifiedName: "Ns.Missing", RuleID: "CA1822"},
		{FullyQualifiedName: "Ns.T", RuleID: "CA1822", Metric: "CA1822"},
	}
	res := aggregate(t, testConfig{}, Input{Documents: []*model.Document{coverage, sarif}, Suppressions: suppressions})

	got := make([]string, 0, len(suppressions))
	for _, s := range res.Metadata.Suppressions {
		got = append(got, s.Metric)
	}
	assert.Equal(t, []string{
		"CodeAnalysisDiagnostics",
		"CodeAnalysisDiagnostics",
		"CodeStyleDiagnostics",
		"",
		"",
	}, got)
	assert.Same(t, suppressions[0], res.Metadata.Suppressions[0], "suppressions are bound in place")
}

func TestAggregate_Idempotent(t *testing.T) {
	docs := []*model.Document{
		doc(model.SourceCoverage, "coverage.xml",
			typeEl("App", "Ns", "Ns.Outer", loc("Outer.cs", 1, 50), metrics(model.LineCoverage, 0.0)),
			memberEl("App", "Ns", "Ns.Outer", "LoadAsync()", loc("Outer.cs", 10, 20), metrics(model.LineCoverage, 0.0)),
			typeEl("App", "Ns", "Ns.Outer+<LoadAsync>d__3", loc("Outer.cs", 10, 20), metrics(model.LineCoverage, 75.0)),
		),
		doc(model.SourceMetrics, "metrics.xml",
			memberEl("App", "Ns", "Outer", "Task LoadAsync()", loc("Outer.cs", 10, 0), metrics(model.CyclomaticComplexity, 3.0)),
		),
		doc(model.SourceSarif, "build.sarif", diagnostic("CA2007", "Outer.cs", 15), diagnostic("CA2007", "Outer.cs", 16)),
	}
	defs := model.ThresholdDefinitions{model.LineCoverage: {model.LevelType: {Warning: fptr(80), Error: fptr(60), HigherIsBetter: true}}}

	first := aggregate(t, testConfig{}, Input{Documents: docs, Thresholds: defs})
	second := aggregate(t, testConfig{}, Input{Documents: docs, Thresholds: defs})
	if diff := cmp.Diff(first.Solution, second.Solution); diff != "" {
		t.Errorf("aggregation is not deterministic (-first +second):\n%s", diff)
	}
	firstJSON, err := json.Marshal(first.Solution)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Solution)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
	m := findMember(t, first.Solution, "Ns.Outer.LoadAsync(...)")
	require.NotNil(t, m)
	assert.InDelta(t, 2.0, m.Metric(model.CodeAnalysisDiagnostics).Float(), 1e-9)
}
