package analyzer

import (
	"fmt"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// EvaluateThreshold classifies value against the threshold configured for
// metric at level. A level without its own threshold uses the Type-level one.
//
// Lower-is-better metrics fail above a bound, higher-is-better ones below it.
// The Error bound is checked first; a nil bound is never checked.
func EvaluateThreshold(metric model.MetricIdentifier, value *float64, defs model.ThresholdDefinitions, level model.SymbolLevel) model.Status {
	if value == nil {
		return model.StatusNotApplicable
	}
	levels, ok := defs[metric]
	if !ok {
		return model.StatusSuccess
	}
	th, ok := levels[level]
	if !ok {
		th, ok = levels[model.LevelType]
		if !ok {
			return model.StatusSuccess
		}
	}

	v := *value
	exceeds := func(bound *float64) bool {
		if bound == nil {
			return false
		}
		if th.HigherIsBetter {
			return v < *bound
		}
		return v > *bound
	}
	switch {
	case exceeds(th.Error):
		return model.StatusError
	case exceeds(th.Warning):
		return model.StatusWarning
	}
	return model.StatusSuccess
}

// applyThresholds sets the status of every metric on every node.
func applyThresholds(solution *model.Solution, defs model.ThresholdDefinitions) {
	model.Walk(solution, func(n, _ model.Node) {
		for id, mv := range n.Sym().Metrics {
			if mv == nil {
				continue
			}
			mv.Status = EvaluateThreshold(id, mv.Value, defs, n.Level())
		}
	})
}

// validateThresholds rejects bounds whose warning level is stricter than the
// error level, which would make Warning unreachable.
func validateThresholds(defs model.ThresholdDefinitions) error {
	for metric, levels := range defs {
		if !metric.IsKnown() {
			return fmt.Errorf("threshold for unknown metric %q", metric)
		}
		for level, th := range levels {
			if th.Warning == nil || th.Error == nil {
				continue
			}
			inverted := *th.Warning > *th.Error
			if th.HigherIsBetter {
				inverted = *th.Warning < *th.Error
			}
			if inverted {
				return fmt.Errorf("threshold %s at %s level: warning %g is beyond error %g", metric, level, *th.Warning, *th.Error)
			}
		}
	}
	return nil
}
