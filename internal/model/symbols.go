package model

import (
	"fmt"
	"strings"
)

// SymbolLevel identifies one of the five fixed levels of the report tree.
type SymbolLevel int

const (
	LevelSolution SymbolLevel = iota
	LevelAssembly
	LevelNamespace
	LevelType
	LevelMember
)

var symbolLevelNames = [...]string{"Solution", "Assembly", "Namespace", "Type", "Member"}

func (l SymbolLevel) String() string {
	if l < LevelSolution || l > LevelMember {
		return fmt.Sprintf("SymbolLevel(%d)", int(l))
	}
	return symbolLevelNames[l]
}

// ParseSymbolLevel parses a level name case-insensitively.
func ParseSymbolLevel(s string) (SymbolLevel, error) {
	for i, name := range symbolLevelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return SymbolLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown symbol level %q", s)
}

func (l SymbolLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *SymbolLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseSymbolLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// SourceLocation is a file range. EndLine is 0 when the source only reported a
// declaration line.
type SourceLocation struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine,omitempty"`
}

// HasRange reports whether the location spans more than its declaration line.
func (l *SourceLocation) HasRange() bool {
	return l != nil && l.EndLine > l.StartLine
}

// LastLine returns the effective last line, treating declaration-only locations
// as single-line spans.
func (l *SourceLocation) LastLine() int {
	if l.EndLine < l.StartLine {
		return l.StartLine
	}
	return l.EndLine
}

// Symbol holds the state shared by every node kind.
type Symbol struct {
	Name               string                            `json:"name"`
	FullyQualifiedName string                            `json:"fullyQualifiedName,omitempty"`
	Location           *SourceLocation                   `json:"location,omitempty"`
	IsNew              bool                              `json:"isNew,omitempty"`
	Metrics            map[MetricIdentifier]*MetricValue `json:"metrics,omitempty"`
}

// Metric returns the metric value for id, or nil.
func (s *Symbol) Metric(id MetricIdentifier) *MetricValue {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics[id]
}

// SetMetric stores v under id, allocating the map on first use.
func (s *Symbol) SetMetric(id MetricIdentifier, v *MetricValue) {
	if s.Metrics == nil {
		s.Metrics = make(map[MetricIdentifier]*MetricValue)
	}
	s.Metrics[id] = v
}

// Key returns the identity used to match the symbol across runs.
func (s *Symbol) Key() string {
	if s.FullyQualifiedName != "" {
		return s.FullyQualifiedName
	}
	return s.Name
}

// Node is implemented by the five tree kinds.
type Node interface {
	Level() SymbolLevel
	Sym() *Symbol
}

type Solution struct {
	Symbol
	Assemblies []*Assembly `json:"assemblies,omitempty"`
}

type Assembly struct {
	Symbol
	Namespaces []*Namespace `json:"namespaces,omitempty"`
}

type Namespace struct {
	Symbol
	Types []*Type `json:"types,omitempty"`
}

type Type struct {
	Symbol
	Members []*Member `json:"members,omitempty"`
}

type Member struct {
	Symbol
	Kind MemberKind `json:"kind"`
	// IncludesIteratorStateMachineCoverage marks coverage moved here from a
	// compiler-generated async/iterator state machine.
	IncludesIteratorStateMachineCoverage bool `json:"includesIteratorStateMachineCoverage,omitempty"`
}

func (*Solution) Level() SymbolLevel  { return LevelSolution }
func (*Assembly) Level() SymbolLevel  { return LevelAssembly }
func (*Namespace) Level() SymbolLevel { return LevelNamespace }
func (*Type) Level() SymbolLevel      { return LevelType }
func (*Member) Level() SymbolLevel    { return LevelMember }

func (n *Solution) Sym() *Symbol  { return &n.Symbol }
func (n *Assembly) Sym() *Symbol  { return &n.Symbol }
func (n *Namespace) Sym() *Symbol { return &n.Symbol }
func (n *Type) Sym() *Symbol      { return &n.Symbol }
func (n *Member) Sym() *Symbol    { return &n.Symbol }

// Children returns the direct children of n in tree order.
func Children(n Node) []Node {
	var out []Node
	switch v := n.(type) {
	case *Solution:
		for _, a := range v.Assemblies {
			out = append(out, a)
		}
	case *Assembly:
		for _, ns := range v.Namespaces {
			out = append(out, ns)
		}
	case *Namespace:
		for _, t := range v.Types {
			out = append(out, t)
		}
	case *Type:
		for _, m := range v.Members {
			out = append(out, m)
		}
	case *Member:
	default:
		panic(fmt.Sprintf("model: unexpected node type %T", n))
	}
	return out
}

// Walk visits n and all of its descendants depth-first in tree order. The
// parent of the root is nil.
func Walk(n Node, visit func(node, parent Node)) {
	walk(n, nil, visit)
}

func walk(n, parent Node, visit func(node, parent Node)) {
	visit(n, parent)
	for _, child := range Children(n) {
		walk(child, n, visit)
	}
}

// TypeEntry pairs a type with the assembly that owns it so it can be removed
// from exactly that assembly.
type TypeEntry struct {
	Type     *Type
	Assembly *Assembly
}

// RemoveType detaches t from whichever namespace of a holds it and drops
// namespaces left without types or metrics. It reports whether t was found.
func (a *Assembly) RemoveType(t *Type) bool {
	for i, ns := range a.Namespaces {
		for j, candidate := range ns.Types {
			if candidate != t {
				continue
			}
			ns.Types = append(ns.Types[:j], ns.Types[j+1:]...)
			if len(ns.Types) == 0 && len(ns.Metrics) == 0 {
				a.Namespaces = append(a.Namespaces[:i], a.Namespaces[i+1:]...)
			}
			return true
		}
	}
	return false
}
