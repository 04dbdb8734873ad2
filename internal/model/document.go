package model

import (
	"fmt"
	"strings"
)

// SourceKind identifies which tool produced a document.
type SourceKind int

const (
	SourceCoverage SourceKind = iota
	SourceMetrics
	SourceSarif
)

func (k SourceKind) String() string {
	switch k {
	case SourceCoverage:
		return "Coverage"
	case SourceMetrics:
		return "Metrics"
	case SourceSarif:
		return "Sarif"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// ElementKind is the tree level a parsed element maps onto.
type ElementKind int

const (
	ElementType ElementKind = iota
	ElementMember
)

func (k ElementKind) String() string {
	if k == ElementMember {
		return "Member"
	}
	return "Type"
}

// MemberKind distinguishes members for member-kind filtering.
type MemberKind int

const (
	MemberMethod MemberKind = iota
	MemberProperty
	MemberField
	MemberEvent
	// MemberAccessor is a property or event accessor method such as get_Name.
	MemberAccessor
)

var memberKindNames = [...]string{"Method", "Property", "Field", "Event", "Accessor"}

func (k MemberKind) String() string {
	if k < MemberMethod || k > MemberAccessor {
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
	return memberKindNames[k]
}

func (k MemberKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MemberKind) UnmarshalText(text []byte) error {
	for i, name := range memberKindNames {
		if strings.EqualFold(string(text), name) {
			*k = MemberKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown member kind %q", text)
}

// Element is one symbol reported by a source document. Assembly, Namespace and
// TypeName carry the owning chain as the source emitted it; SARIF elements
// leave them empty and are placed by location.
type Element struct {
	Kind               ElementKind
	MemberKind         MemberKind
	Assembly           string
	Namespace          string
	TypeName           string
	Name               string
	FullyQualifiedName string
	Location           *SourceLocation
	Metrics            map[MetricIdentifier]*MetricValue
}

// Document is the uniform intermediate shape every input parser produces.
type Document struct {
	Kind             SourceKind
	Source           string
	SolutionName     string
	Elements         []Element
	RuleDescriptions map[string]string
}

// SuppressedSymbolInfo is a declared suppression. Metric is filled in by the
// aggregator when the declaration only names a rule id.
type SuppressedSymbolInfo struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Metric             string `json:"metric,omitempty"`
	RuleID             string `json:"ruleId"`
	Justification      string `json:"justification,omitempty"`
}

// Metadata travels next to the report tree.
type Metadata struct {
	Thresholds       ThresholdDefinitions    `json:"thresholds,omitempty"`
	Baseline         string                  `json:"baseline,omitempty"`
	Suppressions     []*SuppressedSymbolInfo `json:"suppressions,omitempty"`
	RuleDescriptions map[string]string       `json:"ruleDescriptions,omitempty"`
}
