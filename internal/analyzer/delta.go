package analyzer

import (
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// CalculateDelta returns current - baseline, or nil when either side is
// unmeasured or nothing changed.
func CalculateDelta(current, baseline *float64) *float64 {
	if current == nil || baseline == nil {
		return nil
	}
	d := *current - *baseline
	if d == 0 {
		return nil
	}
	return &d
}

// applyDeltas matches every node of current to its baseline counterpart,
// sets per-metric deltas and marks unmatched nodes as new. The roots always
// match each other.
func applyDeltas(current, baseline *model.Solution) {
	index := make(map[string]*model.Symbol)
	walkWithAssembly(baseline, func(n model.Node, asm string) {
		key := deltaKey(n, asm)
		if _, seen := index[key]; !seen {
			index[key] = n.Sym()
		}
	})

	walkWithAssembly(current, func(n model.Node, asm string) {
		sym := n.Sym()
		var base *model.Symbol
		if n.Level() == model.LevelSolution {
			base = &baseline.Symbol
		} else {
			base = index[deltaKey(n, asm)]
		}
		if base == nil {
			sym.IsNew = true
			return
		}
		sym.IsNew = false
		for id, mv := range sym.Metrics {
			if mv == nil {
				continue
			}
			var prev *float64
			if b := base.Metric(id); b != nil {
				prev = b.Value
			}
			mv.Delta = CalculateDelta(mv.Value, prev)
		}
	})
}

// deltaKey identifies a node across runs: its level, owning assembly and
// fully qualified name. Namespaces and assemblies match by name.
func deltaKey(n model.Node, asm string) string {
	sym := n.Sym()
	name := sym.Key()
	if n.Level() == model.LevelNamespace || n.Level() == model.LevelAssembly {
		name = sym.Name
	}
	return n.Level().String() + "|" + asm + "|" + name
}

func walkWithAssembly(root *model.Solution, visit func(n model.Node, asm string)) {
	visit(root, "")
	for _, a := range root.Assemblies {
		model.Walk(a, func(n, _ model.Node) {
			visit(n, a.Name)
		})
	}
}
