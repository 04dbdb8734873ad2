package analyzer

import (
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/filtering"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

const unknownAssemblyName = "(unknown)"

// resolvedElement is an element with every name normalized to its tree key.
type resolvedElement struct {
	assembly  string
	namespace string
	typeName  string
	typeFQN   string
	memberKey string
	memberFQN string
}

// identity is the key used to detect the same symbol in two documents.
func (r resolvedElement) identity() string {
	if r.memberFQN != "" {
		return scopedKey(r.assembly, r.memberFQN)
	}
	return scopedKey(r.assembly, r.typeFQN)
}

// skipReason says why an element does not enter the tree.
type skipReason int

const (
	notSkipped skipReason = iota
	skipAssemblyFilter
	skipFileFilter
	skipTypeFilter
	skipMemberFilter
	skipUnnamed
)

// resolve normalizes the owning chain of el and applies the configured
// filters.
func (a *aggregation) resolve(el *model.Element) (resolvedElement, skipReason) {
	var r resolvedElement
	r.assembly = symbols.NormalizeAssemblyName(el.Assembly)
	if r.assembly == "" {
		r.assembly = unknownAssemblyName
	}
	if excludes(a.cfg.AssemblyFilters(), r.assembly) {
		return r, skipAssemblyFilter
	}
	if el.Location != nil && el.Location.Path != "" {
		if excludes(a.cfg.FileFilters(), el.Location.Path) {
			return r, skipFileFilter
		}
	}

	rawType := el.TypeName
	if rawType == "" && el.Kind == model.ElementType {
		rawType = el.Name
	}
	r.namespace = el.Namespace
	r.typeName = symbols.NormalizeTypeName(rawType)
	if r.namespace == "" {
		r.namespace, r.typeName = symbols.SplitTypeFullName(rawType)
	} else {
		r.typeName = trimNamespace(r.typeName, r.namespace)
	}
	if r.typeName == "" {
		return r, skipUnnamed
	}
	r.typeFQN = joinName(r.namespace, r.typeName)
	if excludes(a.cfg.TypeFilters(), r.typeFQN) {
		return r, skipTypeFilter
	}

	if el.Kind == model.ElementMember {
		if !a.cfg.MemberFilter().Includes(el.MemberKind) {
			return r, skipMemberFilter
		}
		r.memberKey = symbols.MemberKey(el.Name, r.typeName)
		if r.memberKey == "" {
			return r, skipUnnamed
		}
		r.memberFQN = r.typeFQN + "." + r.memberKey
	}
	return r, notSkipped
}

// excludes reports whether f carries include or exclude patterns that reject
// name. An empty filter is never consulted.
func excludes(f filtering.IFilter, name string) bool {
	return f != nil && f.HasCustomFilters() && !f.IsElementIncludedInReport(name)
}

// trimNamespace drops a namespace prefix some sources repeat in the type name.
func trimNamespace(typeName, namespace string) string {
	prefix := namespace + "."
	if len(typeName) > len(prefix) && typeName[:len(prefix)] == prefix {
		return typeName[len(prefix):]
	}
	return typeName
}

// mergeDocument folds every coverage or metrics element of doc into the tree.
// Overloads share a member key; within one document the first of them wins.
func (a *aggregation) mergeDocument(doc *model.Document) {
	merged, skipped := 0, 0
	seen := make(map[*model.Member]struct{})
	for i := range doc.Elements {
		el := &doc.Elements[i]
		r, reason := a.resolve(el)
		switch reason {
		case notSkipped:
		case skipAssemblyFilter:
			if el.Location != nil && el.Location.Path != "" {
				a.excludedFiles[utils.NormalizePath(el.Location.Path)] = r.assembly
			}
			skipped++
			continue
		default:
			skipped++
			continue
		}

		asm := a.tree.assembly(r.assembly)
		ns := a.tree.namespace(asm, r.namespace)
		rec := a.tree.typeNode(asm, ns, r.typeName, r.typeFQN)
		if el.Kind == model.ElementType {
			mergeSymbol(&rec.Type.Symbol, el)
		} else {
			m := a.tree.memberNode(rec, r.memberKey, el.MemberKind)
			if _, dup := seen[m]; dup {
				a.log.Debug("Overload collapsed onto earlier member", "member", r.memberFQN, "source", doc.Source)
				skipped++
				continue
			}
			seen[m] = struct{}{}
			mergeSymbol(&m.Symbol, el)
		}
		merged++
	}
	a.log.Debug("Merged document", "source", doc.Source, "kind", doc.Kind, "merged", merged, "skipped", skipped)
}

// mergeSymbol copies the metrics of el onto sym, overwriting per identifier,
// and merges its location.
func mergeSymbol(sym *model.Symbol, el *model.Element) {
	sym.Location = mergeLocation(sym.Location, el.Location)
	for id, v := range el.Metrics {
		if v == nil {
			continue
		}
		sym.SetMetric(id, v.Clone())
	}
}

// mergeLocation keeps an existing ranged location over a declaration-only
// one; otherwise the incoming location wins.
func mergeLocation(existing, incoming *model.SourceLocation) *model.SourceLocation {
	if incoming == nil || incoming.Path == "" {
		return existing
	}
	if existing == nil {
		c := *incoming
		return &c
	}
	if existing.HasRange() && !incoming.HasRange() {
		return existing
	}
	c := *incoming
	return &c
}
