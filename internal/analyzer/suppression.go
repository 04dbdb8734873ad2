package analyzer

import (
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
)

// bindSuppressions fills in the Metric of suppressions that only name a rule.
// The suppressed symbol is looked up by its fully qualified name; the metric
// is the one the rule's naming convention points at if the symbol carries it,
// otherwise the first diagnostic metric the symbol carries. Entries that
// cannot be resolved are left with an empty Metric.
func bindSuppressions(t *tree, suppressions []*model.SuppressedSymbolInfo) {
	for _, s := range suppressions {
		if s == nil {
			continue
		}
		if id, err := model.ParseMetricIdentifier(s.Metric); err == nil {
			s.Metric = string(id)
			continue
		}
		s.Metric = ""
		sym := suppressionTarget(t, s.FullyQualifiedName)
		if sym == nil {
			continue
		}
		if id, ok := model.MetricForRule(s.RuleID); ok && sym.Metric(id) != nil {
			s.Metric = string(id)
			continue
		}
		for _, id := range model.DiagnosticMetrics {
			if sym.Metric(id) != nil {
				s.Metric = string(id)
				break
			}
		}
	}
}

// suppressionTarget resolves a suppression's FQN. Member names are matched by
// their normalized key first, then the suppression falls back to the type.
func suppressionTarget(t *tree, fqn string) *model.Symbol {
	if sym := t.lookupSymbol(fqn); sym != nil {
		return sym
	}
	head := fqn
	if open := strings.IndexByte(fqn, '('); open >= 0 {
		head = fqn[:open]
	}
	dot := strings.LastIndexByte(head, '.')
	if dot <= 0 {
		return nil
	}
	typeFQN := symbols.NormalizeTypeName(fqn[:dot])
	if key := symbols.MemberKey(fqn[dot+1:], typeFQN); key != "" {
		if sym := t.lookupSymbol(typeFQN + "." + key); sym != nil {
			return sym
		}
	}
	return t.lookupSymbol(typeFQN)
}
