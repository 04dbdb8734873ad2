package model

import "regexp"

var (
	codeAnalysisRuleRegex = regexp.MustCompile(`^CA\d{4}$`)
	codeStyleRuleRegex    = regexp.MustCompile(`^IDE\d{4}$`)
)

// DiagnosticMetrics is the ordered list of diagnostic-count metrics used when
// a rule id does not point at one directly.
var DiagnosticMetrics = []MetricIdentifier{CodeAnalysisDiagnostics, CodeStyleDiagnostics}

// MetricForRule returns the diagnostic-count metric implied by the naming
// convention of ruleID. ok is false for ids following neither convention.
func MetricForRule(ruleID string) (MetricIdentifier, bool) {
	switch {
	case codeAnalysisRuleRegex.MatchString(ruleID):
		return CodeAnalysisDiagnostics, true
	case codeStyleRuleRegex.MatchString(ruleID):
		return CodeStyleDiagnostics, true
	}
	return "", false
}

// IsRecognizedRuleID reports whether ruleID follows a known naming convention
// and may therefore appear in a per-rule breakdown.
func IsRecognizedRuleID(ruleID string) bool {
	_, ok := MetricForRule(ruleID)
	return ok
}

// DiagnosticMetricForRule is the metric a SARIF result is counted under:
// the convention's metric, or CodeAnalysisDiagnostics for any other id.
func DiagnosticMetricForRule(ruleID string) MetricIdentifier {
	if id, ok := MetricForRule(ruleID); ok {
		return id
	}
	return CodeAnalysisDiagnostics
}
