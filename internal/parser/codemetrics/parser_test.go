package codemetrics

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

type testConfig struct{}

func (testConfig) SourceDirectories() []string { return nil }
func (testConfig) Logger() *slog.Logger        { return slog.New(slog.DiscardHandler) }

const sampleReport = `<?xml version="1.0" encoding="utf-8"?>
<CodeMetricsReport Version="1.0">
  <Targets>
    <Target Name="Rca.Loader.csproj">
      <Assembly Name="Rca.Loader, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null">
        <Metrics>
          <Metric Name="MaintainabilityIndex" Value="84" />
        </Metrics>
        <Namespaces>
          <Namespace Name="Rca.Loader">
            <Types>
              <NamedType Name="LoaderApp" File="C:\src\Rca.Loader\LoaderApp.cs" Line="12">
                <Metrics>
                  <Metric Name="MaintainabilityIndex" Value="78" />
                  <Metric Name="CyclomaticComplexity" Value="9" />
                  <Metric Name="ClassCoupling" Value="11" />
                  <Metric Name="DepthOfInheritance" Value="1" />
                  <Metric Name="SourceLines" Value="140" />
                  <Metric Name="ExecutableLines" Value="38" />
                </Metrics>
                <Members>
                  <Method Name="void LoaderApp.OnApplicationIdling(object? sender, IdlingEventArgs e)" File="C:\src\Rca.Loader\LoaderApp.cs" Line="49">
                    <Metrics>
                      <Metric Name="MaintainabilityIndex" Value="80" />
                      <Metric Name="CyclomaticComplexity" Value="2" />
                    </Metrics>
                  </Method>
                  <Property Name="string LoaderApp.Title { get; }" File="C:\src\Rca.Loader\LoaderApp.cs" Line="20">
                    <Metrics>
                      <Metric Name="MaintainabilityIndex" Value="98" />
                    </Metrics>
                    <Accessors>
                      <Method Name="string LoaderApp.Title.get" File="C:\src\Rca.Loader\LoaderApp.cs" Line="20">
                        <Metrics>
                          <Metric Name="CyclomaticComplexity" Value="1" />
                        </Metrics>
                      </Method>
                    </Accessors>
                  </Property>
                  <Field Name="int LoaderApp._count" File="C:\src\Rca.Loader\LoaderApp.cs" Line="14">
                    <Metrics>
                      <Metric Name="Unknown" Value="1" />
                    </Metrics>
                  </Field>
                </Members>
              </NamedType>
              <NamedType Name="LoaderApp.Options" File="C:\src\Rca.Loader\LoaderApp.cs" Line="120">
                <Metrics>
                  <Metric Name="MaintainabilityIndex" Value="91" />
                </Metrics>
              </NamedType>
            </Types>
          </Namespace>
        </Namespaces>
      </Assembly>
    </Target>
  </Targets>
</CodeMetricsReport>`

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o600))
	return path
}

func TestCodeMetricsParser_Parse(t *testing.T) {
	path := writeReport(t)
	p := NewCodeMetricsParser()
	require.True(t, p.SupportsFile(path))

	doc, err := p.Parse(path, testConfig{})
	require.NoError(t, err)
	assert.Equal(t, model.SourceMetrics, doc.Kind)
	assert.Equal(t, "Rca.Loader", doc.SolutionName)
	require.Len(t, doc.Elements, 6)

	typ := doc.Elements[0]
	assert.Equal(t, model.ElementType, typ.Kind)
	assert.Equal(t, "Rca.Loader", typ.Assembly)
	assert.Equal(t, "LoaderApp", typ.TypeName)
	assert.Equal(t, &model.SourceLocation{Path: `C:\src\Rca.Loader\LoaderApp.cs`, StartLine: 12}, typ.Location)
	assert.InDelta(t, 11.0, typ.Metrics[model.ClassCoupling].Float(), 1e-9)
	assert.InDelta(t, 38.0, typ.Metrics[model.ExecutableLines].Float(), 1e-9)

	method := doc.Elements[1]
	assert.Equal(t, model.MemberMethod, method.MemberKind)
	assert.Equal(t, "Rca.Loader.LoaderApp.OnApplicationIdling(object, IdlingEventArgs)", method.FullyQualifiedName)
	assert.False(t, method.Location.HasRange(), "code metrics only report declaration lines")

	property := doc.Elements[2]
	assert.Equal(t, model.MemberProperty, property.MemberKind)

	accessor := doc.Elements[3]
	assert.Equal(t, model.MemberAccessor, accessor.MemberKind)
	assert.Equal(t, "string LoaderApp.Title.get()", accessor.Name)

	field := doc.Elements[4]
	assert.Equal(t, model.MemberField, field.MemberKind)
	assert.Empty(t, field.Metrics, "unknown metric names are ignored")

	nested := doc.Elements[5]
	assert.Equal(t, "LoaderApp.Options", nested.TypeName)
}

func TestCodeMetricsParser_SupportsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<coverage line-rate="1"></coverage>`), 0o600))
	assert.False(t, NewCodeMetricsParser().SupportsFile(path))
}
