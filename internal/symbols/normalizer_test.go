package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSignature(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"System.Void Rca.Loader.LoaderApp::OnApplicationIdling(System.Object,Autodesk.Revit.UI.Events.IdlingEventArgs)", "OnApplicationIdling(Object, IdlingEventArgs)"},
		{"void LoaderApp.OnApplicationIdling(object? sender, IdlingEventArgs e)", "OnApplicationIdling(object, IdlingEventArgs)"},
		{"Task<IReadOnlyList<string>> Repo.LoadAsync<T>(CancellationToken ct = default)", "LoadAsync(CancellationToken)"},
		{"System.Collections.Generic.List`1<System.String> Repo::Find(System.Int32[])", "Find(Int32[])"},
		{"bool Parser.TryParse(string s, out int value)", "TryParse(string, int)"},
		{"(int, string) Splitter.Split(ref Span<char> buffer)", "Split(Span)"},
		{"string Widget.Name { get; set; }", "Name"},
		{"Widget.Widget()", "Widget()"},
		{"bool Money.operator !=(Money? a, Money? b)", "op_Inequality(Money, Money)"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSignature(tt.raw))
		})
	}
}

func TestMemberKey(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		typeName string
		want     string
	}{
		{"clr method", "System.Void Rca.Loader.LoaderApp::OnApplicationIdling(System.Object,Autodesk.Revit.UI.Events.IdlingEventArgs)", "LoaderApp", "OnApplicationIdling(...)"},
		{"csharp method", "void OnApplicationIdling(object? sender, IdlingEventArgs e)", "LoaderApp", "OnApplicationIdling(...)"},
		{"empty parameter list", "Run()", "Worker", "Run(...)"},
		{"clr constructor", "System.Void Ns.Widget::.ctor(System.String)", "Widget", "Widget(...)"},
		{"csharp constructor", "Widget.Widget(string name)", "Widget", "Widget(...)"},
		{"static constructor of nested type", ".cctor()", "Outer+Inner", "Inner(...)"},
		{"clr getter", "System.String Ns.Widget::get_Name()", "Widget", "get_Name(...)"},
		{"csharp getter", "string Widget.Name.get", "Widget", "get_Name"},
		{"property", "string Widget.Name { get; }", "Widget", "Name"},
		{"generic method", "T Cache.Get<T>(string key)", "Cache", "Get(...)"},
		{"csharp equality operator", "bool Money.operator ==(Money a, Money b)", "Money", "op_Equality(...)"},
		{"clr equality operator", "System.Boolean Ns.Money::op_Equality(Ns.Money,Ns.Money)", "Money", "op_Equality(...)"},
		{"less than operator", "bool Money.operator <(Money a, Money b)", "Money", "op_LessThan(...)"},
		{"shift operator", "Money Money.operator <<(Money a, int n)", "Money", "op_LeftShift(...)"},
		{"binary minus", "Money Money.operator -(Money a, Money b)", "Money", "op_Subtraction(...)"},
		{"unary minus", "Money Money.operator -(Money a)", "Money", "op_UnaryNegation(...)"},
		{"checked operator", "Money Money.operator checked +(Money a, Money b)", "Money", "op_CheckedAddition(...)"},
		{"implicit conversion", "Money.implicit operator decimal(Money m)", "Money", "op_Implicit(...)"},
		{"explicit conversion", "public static explicit operator Money(decimal d)", "Money", "op_Explicit(...)"},
		{"truth operator", "bool Money.operator true(Money m)", "Money", "op_True(...)"},
		{"operator-like method name", "void Calc.RunOperator(int x)", "Calc", "RunOperator(...)"},
		{"indexer", "string Table.this[int index] { get; }", "Table", "Item"},
		{"indexer getter", "string Table.this[int index].get()", "Table", "get_Item(...)"},
		{"indexer setter with array key", "void Table.this[int[] keys].set()", "Table", "set_Item(...)"},
		{"clr indexer getter", "System.String Ns.Table::get_Item(System.Int32)", "Table", "get_Item(...)"},
		{"extension method", "int Ext.Count(this int[] values)", "Ext", "Count(...)"},
		{"blank", "  ", "Widget", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MemberKey(tt.raw, tt.typeName))
		})
	}
}

func TestBareMethodName(t *testing.T) {
	assert.Equal(t, "OnApplicationIdling", BareMethodName("void LoaderApp.OnApplicationIdling(object? s)"))
	assert.Equal(t, "MoveNext", BareMethodName("System.Boolean Ns.Outer/<Run>d__3::MoveNext()"))
	assert.Equal(t, "LoadAsync", BareMethodName("LoadAsync(...)"))
}

func TestNormalizeTypeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Ns.Repository`1", "Ns.Repository"},
		{"Ns.Repository<T>", "Ns.Repository"},
		{"Ns.Map`2[[System.String],[System.Int32]]", "Ns.Map"},
		{"Ns.Outer/Inner", "Ns.Outer+Inner"},
		{"global::Ns.Widget", "Ns.Widget"},
		{"Ns.Outer/<LoadAsync>d__3", "Ns.Outer+<LoadAsync>d__3"},
		{"Ns.Outer<T>/<Run>d__1<T>", "Ns.Outer+<Run>d__1"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTypeName(tt.raw))
		})
	}
}

func TestNormalizeAssemblyName(t *testing.T) {
	assert.Equal(t, "Rca.Loader", NormalizeAssemblyName("Rca.Loader, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null"))
	assert.Equal(t, "Rca.Loader", NormalizeAssemblyName(" Rca.Loader "))
}

func TestSplitTypeFullName(t *testing.T) {
	tests := []struct {
		full, namespace, typeName string
	}{
		{"Ns.Sub.Widget", "Ns.Sub", "Widget"},
		{"Ns.Sub.Outer+Inner", "Ns.Sub", "Outer+Inner"},
		{"Ns.Sub.Outer/Inner.Deep", "Ns.Sub", "Outer+Inner.Deep"},
		{"Ns.Outer+<Run>d__2", "Ns", "Outer+<Run>d__2"},
		{"Widget", "", "Widget"},
		{"Ns.List`1", "Ns", "List"},
	}
	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			ns, name := SplitTypeFullName(tt.full)
			assert.Equal(t, tt.namespace, ns)
			assert.Equal(t, tt.typeName, name)
		})
	}
}

func TestSimpleTypeName(t *testing.T) {
	assert.Equal(t, "Inner", SimpleTypeName("Ns.Outer+Inner"))
	assert.Equal(t, "Widget", SimpleTypeName("Ns.Widget`1"))
	assert.Equal(t, "Widget", SimpleTypeName("Widget"))
}
