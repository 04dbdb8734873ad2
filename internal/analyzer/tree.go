package analyzer

import (
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// typeRecord is the arena entry of a type: the node, its owning assembly and
// namespace, and the key it is stored under.
type typeRecord struct {
	model.TypeEntry
	Namespace *model.Namespace
	key       string
}

// tree owns the in-progress solution and the lookup maps built next to it.
// Keys are scoped by assembly name so equal type names in two assemblies stay
// apart; the *ByFQN maps keep the first node seen for a bare FQN.
type tree struct {
	solution   *model.Solution
	assemblies map[string]*model.Assembly
	namespaces map[string]*model.Namespace
	types      map[string]*typeRecord
	members    map[string]*model.Member
	typeOrder  []string

	typesByFQN   map[string]*model.Type
	membersByFQN map[string]*model.Member
}

func newTree(solutionName string) *tree {
	return &tree{
		solution:     &model.Solution{Symbol: model.Symbol{Name: solutionName}},
		assemblies:   make(map[string]*model.Assembly),
		namespaces:   make(map[string]*model.Namespace),
		types:        make(map[string]*typeRecord),
		members:      make(map[string]*model.Member),
		typesByFQN:   make(map[string]*model.Type),
		membersByFQN: make(map[string]*model.Member),
	}
}

func scopedKey(assembly, fqn string) string {
	return assembly + "|" + fqn
}

func (t *tree) assembly(name string) *model.Assembly {
	if a, ok := t.assemblies[name]; ok {
		return a
	}
	a := &model.Assembly{Symbol: model.Symbol{Name: name, FullyQualifiedName: name}}
	t.assemblies[name] = a
	t.solution.Assemblies = append(t.solution.Assemblies, a)
	return a
}

func (t *tree) namespace(a *model.Assembly, name string) *model.Namespace {
	key := scopedKey(a.Name, name)
	if ns, ok := t.namespaces[key]; ok {
		return ns
	}
	display := name
	if display == "" {
		display = "(global)"
	}
	ns := &model.Namespace{Symbol: model.Symbol{Name: display, FullyQualifiedName: name}}
	t.namespaces[key] = ns
	a.Namespaces = append(a.Namespaces, ns)
	return ns
}

// typeNode finds or creates the type typeFQN inside namespace ns of a.
func (t *tree) typeNode(a *model.Assembly, ns *model.Namespace, typeName, typeFQN string) *typeRecord {
	key := scopedKey(a.Name, typeFQN)
	if rec, ok := t.types[key]; ok {
		return rec
	}
	typ := &model.Type{Symbol: model.Symbol{Name: typeName, FullyQualifiedName: typeFQN}}
	rec := &typeRecord{
		TypeEntry: model.TypeEntry{Type: typ, Assembly: a},
		Namespace: ns,
		key:       key,
	}
	ns.Types = append(ns.Types, typ)
	t.types[key] = rec
	t.typeOrder = append(t.typeOrder, key)
	if _, seen := t.typesByFQN[typeFQN]; !seen {
		t.typesByFQN[typeFQN] = typ
	}
	return rec
}

// memberNode finds or creates the member memberKey of the type in rec.
func (t *tree) memberNode(rec *typeRecord, memberKey string, kind model.MemberKind) *model.Member {
	fqn := rec.Type.FullyQualifiedName + "." + memberKey
	key := scopedKey(rec.Assembly.Name, fqn)
	if m, ok := t.members[key]; ok {
		return m
	}
	m := &model.Member{
		Symbol: model.Symbol{Name: memberKey, FullyQualifiedName: fqn},
		Kind:   kind,
	}
	rec.Type.Members = append(rec.Type.Members, m)
	t.members[key] = m
	if _, seen := t.membersByFQN[fqn]; !seen {
		t.membersByFQN[fqn] = m
	}
	return m
}

// lookupType returns the record of typeFQN in assembly, if present.
func (t *tree) lookupType(assembly, typeFQN string) (*typeRecord, bool) {
	rec, ok := t.types[scopedKey(assembly, typeFQN)]
	return rec, ok
}

// records returns the live type records in creation order.
func (t *tree) records() []*typeRecord {
	out := make([]*typeRecord, 0, len(t.types))
	for _, key := range t.typeOrder {
		if rec, ok := t.types[key]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// lookupSymbol resolves a fully qualified name to the first member, type,
// namespace or assembly carrying it.
func (t *tree) lookupSymbol(fqn string) *model.Symbol {
	if m, ok := t.membersByFQN[fqn]; ok {
		return &m.Symbol
	}
	if typ, ok := t.typesByFQN[fqn]; ok {
		return &typ.Symbol
	}
	for _, a := range t.solution.Assemblies {
		if a.Name == fqn {
			return &a.Symbol
		}
		for _, ns := range a.Namespaces {
			if ns.FullyQualifiedName == fqn && fqn != "" {
				return &ns.Symbol
			}
		}
	}
	return nil
}

// removeType deletes a type and its members from the solution and from every
// lookup map.
func (t *tree) removeType(entry model.TypeEntry) bool {
	if !entry.Assembly.RemoveType(entry.Type) {
		return false
	}
	fqn := entry.Type.FullyQualifiedName
	delete(t.types, scopedKey(entry.Assembly.Name, fqn))
	if t.typesByFQN[fqn] == entry.Type {
		delete(t.typesByFQN, fqn)
	}
	for _, m := range entry.Type.Members {
		delete(t.members, scopedKey(entry.Assembly.Name, m.FullyQualifiedName))
		if t.membersByFQN[m.FullyQualifiedName] == m {
			delete(t.membersByFQN, m.FullyQualifiedName)
		}
	}
	for key, ns := range t.namespaces {
		if !containsNamespace(entry.Assembly, ns) && key == scopedKey(entry.Assembly.Name, ns.FullyQualifiedName) {
			delete(t.namespaces, key)
		}
	}
	return true
}

func containsNamespace(a *model.Assembly, ns *model.Namespace) bool {
	for _, candidate := range a.Namespaces {
		if candidate == ns {
			return true
		}
	}
	return false
}

func joinName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
