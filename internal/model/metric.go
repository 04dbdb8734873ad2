package model

import (
	"fmt"
	"strings"
)

// MetricIdentifier names a metric carried by a tree node.
type MetricIdentifier string

const (
	LineCoverage            MetricIdentifier = "LineCoverage"
	BranchCoverage          MetricIdentifier = "BranchCoverage"
	CyclomaticComplexity    MetricIdentifier = "CyclomaticComplexity"
	NPathComplexity         MetricIdentifier = "NPathComplexity"
	CrapScore               MetricIdentifier = "CrapScore"
	MaintainabilityIndex    MetricIdentifier = "MaintainabilityIndex"
	ClassCoupling           MetricIdentifier = "ClassCoupling"
	DepthOfInheritance      MetricIdentifier = "DepthOfInheritance"
	SourceLines             MetricIdentifier = "SourceLines"
	ExecutableLines         MetricIdentifier = "ExecutableLines"
	CodeAnalysisDiagnostics MetricIdentifier = "CodeAnalysisDiagnostics"
	CodeStyleDiagnostics    MetricIdentifier = "CodeStyleDiagnostics"
)

// KnownMetrics lists every recognized identifier in display order.
var KnownMetrics = []MetricIdentifier{
	LineCoverage,
	BranchCoverage,
	CyclomaticComplexity,
	NPathComplexity,
	CrapScore,
	MaintainabilityIndex,
	ClassCoupling,
	DepthOfInheritance,
	SourceLines,
	ExecutableLines,
	CodeAnalysisDiagnostics,
	CodeStyleDiagnostics,
}

// IsKnown reports whether id is one of KnownMetrics.
func (id MetricIdentifier) IsKnown() bool {
	for _, k := range KnownMetrics {
		if k == id {
			return true
		}
	}
	return false
}

// ParseMetricIdentifier resolves a metric name case-insensitively.
func ParseMetricIdentifier(s string) (MetricIdentifier, error) {
	for _, k := range KnownMetrics {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Status is the outcome of a threshold evaluation. Higher values are worse.
type Status int

const (
	StatusNotApplicable Status = iota
	StatusSuccess
	StatusWarning
	StatusError
)

var statusNames = [...]string{"NotApplicable", "Success", "Warning", "Error"}

func (s Status) String() string {
	if s < StatusNotApplicable || s > StatusError {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(string(text), name) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// ViolationDetail describes one diagnostic occurrence.
type ViolationDetail struct {
	Message   string `json:"message"`
	URI       string `json:"uri"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine,omitempty"`
}

// RuleBreakdown is the per-rule share of a diagnostic-count metric.
type RuleBreakdown struct {
	Count      int               `json:"count"`
	Violations []ViolationDetail `json:"violations,omitempty"`
}

// MetricValue is a single measurement on a node. A nil Value means the metric
// was not measured, which is different from zero.
type MetricValue struct {
	Value     *float64                  `json:"value,omitempty"`
	Status    Status                    `json:"status"`
	Delta     *float64                  `json:"delta,omitempty"`
	Breakdown map[string]*RuleBreakdown `json:"breakdown,omitempty"`
}

// NewMetricValue returns a value holding v.
func NewMetricValue(v float64) *MetricValue {
	return &MetricValue{Value: &v}
}

// Float returns the value or 0 when unmeasured.
func (m *MetricValue) Float() float64 {
	if m == nil || m.Value == nil {
		return 0
	}
	return *m.Value
}

// IsNonZero reports whether the metric was measured with a value other than 0.
func (m *MetricValue) IsNonZero() bool {
	return m != nil && m.Value != nil && *m.Value != 0
}

// Clone returns a deep copy of m.
func (m *MetricValue) Clone() *MetricValue {
	if m == nil {
		return nil
	}
	c := &MetricValue{Status: m.Status}
	if m.Value != nil {
		v := *m.Value
		c.Value = &v
	}
	if m.Delta != nil {
		d := *m.Delta
		c.Delta = &d
	}
	if m.Breakdown != nil {
		c.Breakdown = make(map[string]*RuleBreakdown, len(m.Breakdown))
		for rule, b := range m.Breakdown {
			c.Breakdown[rule] = &RuleBreakdown{
				Count:      b.Count,
				Violations: append([]ViolationDetail(nil), b.Violations...),
			}
		}
	}
	return c
}

// Threshold holds the bounds of one metric at one symbol level. A nil bound is
// not checked.
type Threshold struct {
	Warning        *float64 `json:"warning,omitempty" yaml:"warning" toml:"warning"`
	Error          *float64 `json:"error,omitempty" yaml:"error" toml:"error"`
	HigherIsBetter bool     `json:"higherIsBetter,omitempty" yaml:"higherIsBetter" toml:"higherIsBetter"`
}

// ThresholdDefinitions maps a metric to its per-level thresholds.
type ThresholdDefinitions map[MetricIdentifier]map[SymbolLevel]Threshold
