package analyzer

import (
	"math"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// calculateCrapScore calculates the CRAP score of a method or type.
// coverage is a percentage between 0 and 100; complexity is the cyclomatic
// complexity. ok is false for values the formula is undefined for.
func calculateCrapScore(coverage, complexity float64) (float64, bool) {
	if math.IsNaN(complexity) || math.IsInf(complexity, 0) || complexity < 0 {
		return 0, false
	}
	if math.IsNaN(coverage) || math.IsInf(coverage, 0) || coverage < 0 || coverage > 100 {
		coverage = 0
	}
	uncoveredRatio := 1.0 - coverage/100.0
	// CRAP = complexity^2 * uncoveredRatio^3 + complexity
	return math.Pow(complexity, 2)*math.Pow(uncoveredRatio, 3) + complexity, true
}

// applyCrapScores sets CrapScore on every type and member carrying both a
// cyclomatic complexity and a line coverage value.
func applyCrapScores(solution *model.Solution) {
	model.Walk(solution, func(n, _ model.Node) {
		if l := n.Level(); l != model.LevelType && l != model.LevelMember {
			return
		}
		sym := n.Sym()
		cc, lc := sym.Metric(model.CyclomaticComplexity), sym.Metric(model.LineCoverage)
		if cc == nil || cc.Value == nil || lc == nil || lc.Value == nil {
			return
		}
		if crap, ok := calculateCrapScore(lc.Float(), cc.Float()); ok {
			sym.SetMetric(model.CrapScore, model.NewMetricValue(crap))
		}
	})
}
