package analyzer

import (
	"log/slog"
	"sort"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
)

// reconcileNestedTypeCoverage folds coverage recorded on "Outer+Inner" into
// the "Outer.Inner" type the code-metrics tool reports for the same nested
// type, and returns the "+" types to remove. A pair is left alone when both
// sides measured non-zero coverage for the same member.
func reconcileNestedTypeCoverage(t *tree, log *slog.Logger) []model.TypeEntry {
	var removals []model.TypeEntry
	for _, plus := range t.records() {
		dotName, ok := symbols.NestedTypeDotName(plus.Type.Name)
		if !ok {
			continue
		}
		dot, ok := t.lookupType(plus.Assembly.Name, joinName(plus.Namespace.FullyQualifiedName, dotName))
		if !ok || dot.Type == plus.Type {
			continue
		}
		if m, conflict := nestedConflict(plus.Type, dot.Type); conflict {
			log.Warn("Nested type measured twice; keeping both",
				"type", plus.Type.FullyQualifiedName, "counterpart", dot.Type.FullyQualifiedName, "member", m)
			continue
		}

		transferMeasurements(&dot.Type.Symbol, &plus.Type.Symbol)
		dot.Type.Location = upgradeLocation(dot.Type.Location, plus.Type.Location)
		for _, pm := range plus.Type.Members {
			dm := findMemberByKey(dot.Type, pm.Name)
			if dm == nil {
				dm = t.memberNode(dot, pm.Name, pm.Kind)
			}
			transferMeasurements(&dm.Symbol, &pm.Symbol)
			dm.Location = upgradeLocation(dm.Location, pm.Location)
			dm.IncludesIteratorStateMachineCoverage = dm.IncludesIteratorStateMachineCoverage || pm.IncludesIteratorStateMachineCoverage
		}
		log.Debug("Merged nested type", "from", plus.Type.FullyQualifiedName, "to", dot.Type.FullyQualifiedName)
		removals = append(removals, plus.TypeEntry)
	}
	return removals
}

// nestedConflict returns the first member present on both sides with non-zero
// coverage on both.
func nestedConflict(plus, dot *model.Type) (string, bool) {
	for _, pm := range plus.Members {
		dm := findMemberByKey(dot, pm.Name)
		if dm != nil && hasCoverage(&pm.Symbol) && hasCoverage(&dm.Symbol) {
			return pm.Name, true
		}
	}
	return "", false
}

// transferMeasurements copies src's metrics onto dst. Coverage-sourced metrics
// overwrite unless that would replace a non-zero value with zero; every other
// metric is only filled in where dst has none.
func transferMeasurements(dst, src *model.Symbol) {
	ids := make([]model.MetricIdentifier, 0, len(src.Metrics))
	for id := range src.Metrics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		v := src.Metrics[id]
		if v == nil {
			continue
		}
		existing := dst.Metric(id)
		switch {
		case existing == nil:
			dst.SetMetric(id, v.Clone())
		case isCoverageSourced(id) && !(existing.IsNonZero() && !v.IsNonZero()):
			dst.SetMetric(id, v.Clone())
		}
	}
}

// isCoverageSourced reports metrics only the coverage tool measures.
func isCoverageSourced(id model.MetricIdentifier) bool {
	for _, c := range coverageMetrics {
		if c == id {
			return true
		}
	}
	return id == model.NPathComplexity
}

// upgradeLocation replaces a missing or declaration-only location with a
// ranged one.
func upgradeLocation(existing, candidate *model.SourceLocation) *model.SourceLocation {
	if candidate == nil || candidate.Path == "" {
		return existing
	}
	if existing == nil || (!existing.HasRange() && candidate.HasRange()) {
		c := *candidate
		return &c
	}
	return existing
}
