package analyzer

import (
	"log/slog"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
)

// coverageMetrics are the metrics only a coverage tool measures.
var coverageMetrics = []model.MetricIdentifier{model.LineCoverage, model.BranchCoverage}

// hasCoverage reports whether sym has non-zero sequence coverage. Branch
// coverage alone does not count: state machine scaffolding reports branch
// points even when none of the method body ran.
func hasCoverage(sym *model.Symbol) bool {
	return sym.Metric(model.LineCoverage).IsNonZero()
}

// reconcileIteratorCoverage moves coverage measured on async/iterator state
// machines ("Outer+<Load>d__3") back onto the user-authored method and
// returns the state machine types that should be removed.
//
//	method   state machine   action
//	zero     zero            remove state machine
//	zero     non-zero        transfer, remove state machine
//	non-zero zero            keep both
//	non-zero non-zero        keep both
func reconcileIteratorCoverage(t *tree, log *slog.Logger) []model.TypeEntry {
	var removals []model.TypeEntry
	for _, rec := range t.records() {
		outerName, methodName, ok := symbols.ParseStateMachineName(rec.Type.Name)
		if !ok {
			continue
		}
		outer, ok := t.lookupType(rec.Assembly.Name, joinName(rec.Namespace.FullyQualifiedName, outerName))
		if !ok {
			log.Debug("No outer type for state machine", "type", rec.Type.FullyQualifiedName)
			continue
		}
		target := findMemberByBareName(outer.Type, methodName)
		if target == nil {
			log.Debug("No user method for state machine", "type", rec.Type.FullyQualifiedName, "method", methodName)
			continue
		}

		source := stateMachineSource(rec.Type)
		methodCovered := hasCoverage(&target.Symbol)
		machineCovered := hasCoverage(source)
		switch {
		case methodCovered:
			continue
		case machineCovered:
			transferIteratorMetrics(target, source)
			log.Debug("Moved state machine coverage", "from", rec.Type.FullyQualifiedName, "to", target.FullyQualifiedName)
		}
		removals = append(removals, rec.TypeEntry)
	}
	return removals
}

// stateMachineSource is the symbol carrying the state machine's metrics: the
// type itself, or its MoveNext member when the type has no coverage of its own.
func stateMachineSource(typ *model.Type) *model.Symbol {
	if typ.Metric(model.LineCoverage) != nil {
		return &typ.Symbol
	}
	for _, m := range typ.Members {
		if symbols.BareMethodName(m.Name) == "MoveNext" {
			return &m.Symbol
		}
	}
	return &typ.Symbol
}

func transferIteratorMetrics(target *model.Member, source *model.Symbol) {
	for _, id := range []model.MetricIdentifier{model.LineCoverage, model.CyclomaticComplexity, model.NPathComplexity} {
		if v := source.Metric(id); v != nil {
			target.SetMetric(id, v.Clone())
		}
	}
	if target.Metric(model.BranchCoverage) != nil {
		if v := source.Metric(model.BranchCoverage); v != nil {
			target.SetMetric(model.BranchCoverage, v.Clone())
		}
	}
	target.IncludesIteratorStateMachineCoverage = true
}

// findMemberByBareName returns the first member of typ named name, ignoring
// parameter lists.
func findMemberByBareName(typ *model.Type, name string) *model.Member {
	for _, m := range typ.Members {
		if symbols.BareMethodName(m.Name) == name {
			return m
		}
	}
	return nil
}

// findMemberByKey returns the member of typ whose key equals key.
func findMemberByKey(typ *model.Type, key string) *model.Member {
	for _, m := range typ.Members {
		if m.Name == key {
			return m
		}
	}
	return nil
}
