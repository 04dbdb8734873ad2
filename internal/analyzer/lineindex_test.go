package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

const indexedFile = "C:/src/App/Service.cs"

func member(name string, start, end int) *model.Member {
	return &model.Member{Symbol: model.Symbol{Name: name, FullyQualifiedName: "Ns.Service." + name, Location: loc(indexedFile, start, end)}}
}

// indexedSolution lays out one file:
//
//	Service   1-200   A 20-22, B 20-30, D 52, E 85, F 110-120, C 160-170
//	Nested    60-80   no members
func indexedSolution() *model.Solution {
	service := &model.Type{
		Symbol: model.Symbol{Name: "Service", FullyQualifiedName: "Ns.Service", Location: loc(indexedFile, 1, 200)},
		Members: []*model.Member{
			member("A(...)", 20, 22),
			member("B(...)", 20, 30),
			member("C(...)", 160, 170),
			member("D(...)", 52, 0),
			member("E(...)", 85, 0),
			member("F(...)", 110, 120),
			member("<D>b__0(...)", 52, 54),
		},
	}
	nested := &model.Type{Symbol: model.Symbol{Name: "Nested", FullyQualifiedName: "Ns.Nested", Location: loc(indexedFile, 60, 80)}}
	asm := &model.Assembly{
		Symbol:     model.Symbol{Name: "App"},
		Namespaces: []*model.Namespace{{Symbol: model.Symbol{Name: "Ns"}, Types: []*model.Type{service, nested}}},
	}
	return &model.Solution{Symbol: model.Symbol{Name: "Solution"}, Assemblies: []*model.Assembly{asm}}
}

func TestLineIndex_FindNode(t *testing.T) {
	idx := NewLineIndex(indexedSolution(), nil)

	tests := []struct {
		name string
		path string
		line int
		want string
	}{
		{name: "innermost containing member", path: indexedFile, line: 21, want: "A(...)"},
		{name: "wider member when only it contains the line", path: indexedFile, line: 25, want: "B(...)"},
		{name: "member starting one line below", path: indexedFile, line: 159, want: "C(...)"},
		{name: "preceding declaration-only member", path: indexedFile, line: 54, want: "D(...)"},
		{name: "declaration-only member at its own line", path: indexedFile, line: 85, want: "E(...)"},
		{name: "declaration-only member after a nested type ends", path: indexedFile, line: 100, want: "E(...)"},
		{name: "nested type started in between", path: indexedFile, line: 70, want: "Nested"},
		{name: "inside the type between members", path: indexedFile, line: 130, want: "Service"},
		{name: "beyond every type", path: indexedFile, line: 300, want: "App"},
		{name: "backslashes and case", path: `c:\SRC\app\service.cs`, line: 21, want: "A(...)"},
		{name: "relative suffix", path: "App/Service.cs", line: 21, want: "A(...)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := idx.FindNode(tt.path, tt.line)
			require.True(t, ok)
			require.NotNil(t, match.Node)
			assert.Equal(t, tt.want, match.Node.Sym().Name)
			assert.Equal(t, "App", match.AssemblyName)
			assert.False(t, match.Excluded)
		})
	}
}

func TestLineIndex_UnknownAndExcludedFiles(t *testing.T) {
	idx := NewLineIndex(indexedSolution(), map[string]string{"c:/src/tests/servicetests.cs": "App.Tests"})

	_, ok := idx.FindNode("C:/src/Other/Unknown.cs", 10)
	assert.False(t, ok)
	_, ok = idx.FindNode("", 10)
	assert.False(t, ok)

	match, ok := idx.FindNode(`C:\src\Tests\ServiceTests.cs`, 3)
	require.True(t, ok)
	assert.True(t, match.Excluded)
	assert.Nil(t, match.Node)
	assert.Equal(t, "App.Tests", match.AssemblyName)
}

func TestLineIndex_SkipsCompilerGeneratedMembers(t *testing.T) {
	idx := NewLineIndex(indexedSolution(), nil)
	match, ok := idx.FindNode(indexedFile, 53)
	require.True(t, ok)
	assert.Equal(t, "D(...)", match.Node.Sym().Name, "the closure spanning 52-54 is not indexed")
}

func TestLineIndex_SuffixMatch(t *testing.T) {
	typeIn := func(name, path string) *model.Type {
		return &model.Type{Symbol: model.Symbol{Name: name, FullyQualifiedName: "Ns." + name, Location: loc(path, 1, 50)}}
	}
	asm := &model.Assembly{
		Symbol: model.Symbol{Name: "App"},
		Namespaces: []*model.Namespace{{Symbol: model.Symbol{Name: "Ns"}, Types: []*model.Type{
			typeIn("First", "/repo/a/Service.cs"),
			typeIn("Second", "/repo/b/Service.cs"),
			typeIn("Third", "/repo/c/Worker.cs"),
		}}},
	}
	idx := NewLineIndex(&model.Solution{Symbol: model.Symbol{Name: "Solution"}, Assemblies: []*model.Assembly{asm}}, nil)

	_, ok := idx.FindNode("Service.cs", 10)
	assert.False(t, ok, "two indexed files end with the same name")

	match, ok := idx.FindNode("b/Service.cs", 10)
	require.True(t, ok)
	assert.Equal(t, "Second", match.Node.Sym().Name)

	match, ok = idx.FindNode("Worker.cs", 10)
	require.True(t, ok)
	assert.Equal(t, "Third", match.Node.Sym().Name)

	match, ok = idx.FindNode("/build/agent/repo/a/Service.cs", 10)
	require.True(t, ok)
	assert.Equal(t, "First", match.Node.Sym().Name)
}
