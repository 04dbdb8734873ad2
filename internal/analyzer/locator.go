package analyzer

import (
	"sort"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// applyDiagnostics places every SARIF element of doc on the node its location
// resolves to. A diagnostic is never dropped: unknown files, unmatched lines
// and files of excluded assemblies fall through to the solution root.
func (a *aggregation) applyDiagnostics(doc *model.Document) {
	placed := map[model.SymbolLevel]int{}
	for i := range doc.Elements {
		el := &doc.Elements[i]
		target := a.locate(el.Location)
		placed[target.Level()]++
		addDiagnostics(target.Sym(), el.Metrics)
	}
	a.log.Debug("Applied diagnostics", "source", doc.Source,
		"members", placed[model.LevelMember],
		"types", placed[model.LevelType],
		"assemblies", placed[model.LevelAssembly],
		"solution", placed[model.LevelSolution])
}

func (a *aggregation) locate(loc *model.SourceLocation) model.Node {
	if loc == nil || loc.Path == "" || a.index == nil {
		return a.tree.solution
	}
	match, ok := a.index.FindNode(loc.Path, loc.StartLine)
	if !ok || match.Excluded || match.Node == nil {
		return a.tree.solution
	}
	return match.Node
}

// addDiagnostics sums each measured value into sym. Per-rule breakdowns are
// kept only for rule ids following a known naming convention.
func addDiagnostics(sym *model.Symbol, metrics map[model.MetricIdentifier]*model.MetricValue) {
	ids := make([]model.MetricIdentifier, 0, len(metrics))
	for id := range metrics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		incoming := metrics[id]
		if incoming == nil || incoming.Value == nil {
			continue
		}
		existing := sym.Metric(id)
		if existing == nil {
			existing = model.NewMetricValue(0)
			sym.SetMetric(id, existing)
		} else if existing.Value == nil {
			zero := 0.0
			existing.Value = &zero
		}
		*existing.Value += *incoming.Value

		rules := make([]string, 0, len(incoming.Breakdown))
		for rule := range incoming.Breakdown {
			rules = append(rules, rule)
		}
		sort.Strings(rules)
		for _, rule := range rules {
			b := incoming.Breakdown[rule]
			if b == nil || !model.IsRecognizedRuleID(rule) {
				continue
			}
			if existing.Breakdown == nil {
				existing.Breakdown = make(map[string]*model.RuleBreakdown)
			}
			eb, ok := existing.Breakdown[rule]
			if !ok {
				eb = &model.RuleBreakdown{}
				existing.Breakdown[rule] = eb
			}
			eb.Count += b.Count
			eb.Violations = append(eb.Violations, b.Violations...)
		}
	}
}
