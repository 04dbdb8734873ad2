package reporting

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

var (
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.Bold)
)

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusWarning:
		return warningColor
	case model.StatusError:
		return errorColor
	case model.StatusSuccess:
		return successColor
	}
	return color.New(color.Reset)
}

// statusCounts tallies metric statuses per symbol level.
type statusCounts map[model.SymbolLevel]map[model.Status]int

func countStatuses(solution *model.Solution) statusCounts {
	counts := statusCounts{}
	model.Walk(solution, func(n, _ model.Node) {
		for _, mv := range n.Sym().Metrics {
			if mv == nil || mv.Status == model.StatusNotApplicable {
				continue
			}
			if counts[n.Level()] == nil {
				counts[n.Level()] = map[model.Status]int{}
			}
			counts[n.Level()][mv.Status]++
		}
	})
	return counts
}

// PrintSummary writes the solution-level metrics and the number of warnings
// and errors per level to w. Colors follow the fatih/color settings, so they
// are dropped when w is not a terminal.
func PrintSummary(w io.Writer, r *Report) {
	if r == nil || r.Solution == nil {
		return
	}
	sol := r.Solution
	headerColor.Fprintf(w, "Summary: %s\n", sol.Name)
	fmt.Fprintf(w, "  Assemblies: %d\n", len(sol.Assemblies))
	if r.Metadata.Baseline != "" {
		fmt.Fprintf(w, "  Baseline:   %s\n", r.Metadata.Baseline)
	}

	ids := make([]string, 0, len(sol.Metrics))
	for id := range sol.Metrics {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		mv := sol.Metrics[model.MetricIdentifier(id)]
		if mv == nil || mv.Value == nil {
			continue
		}
		line := fmt.Sprintf("  %-24s %10.2f", id, mv.Float())
		if mv.Delta != nil {
			line += fmt.Sprintf(" (%+.2f)", *mv.Delta)
		}
		statusColor(mv.Status).Fprintln(w, line)
	}

	counts := countStatuses(sol)
	for level := model.LevelSolution; level <= model.LevelMember; level++ {
		c := counts[level]
		if c[model.StatusWarning] == 0 && c[model.StatusError] == 0 {
			continue
		}
		var parts []string
		if n := c[model.StatusError]; n > 0 {
			parts = append(parts, errorColor.Sprintf("%d errors", n))
		}
		if n := c[model.StatusWarning]; n > 0 {
			parts = append(parts, warningColor.Sprintf("%d warnings", n))
		}
		fmt.Fprintf(w, "  %-10s %s\n", level.String()+":", strings.Join(parts, ", "))
	}
	if n := len(r.Metadata.Suppressions); n > 0 {
		fmt.Fprintf(w, "  Suppressions: %d\n", n)
	}
}

// HasErrors reports whether any metric in the tree has status Error.
func HasErrors(solution *model.Solution) bool {
	if solution == nil {
		return false
	}
	for _, c := range countStatuses(solution) {
		if c[model.StatusError] > 0 {
			return true
		}
	}
	return false
}
