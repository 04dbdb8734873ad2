package filtering

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// IFilter decides whether a named element (assembly, type or file) takes part
// in the report.
type IFilter interface {
	IsElementIncludedInReport(name string) bool
	HasCustomFilters() bool
}

// DefaultFilter matches names against "+pattern" include and "-pattern"
// exclude rules. Exclusions win; with no include rule everything is included.
type DefaultFilter struct {
	includeFilters []*regexp.Regexp
	excludeFilters []*regexp.Regexp
	hasCustom      bool
}

// NewDefaultFilter compiles filters such as "+MyCompany.*" or "-*.Tests".
// When osIndependantPathSeparator is set, "/" and "\" match each other so file
// filters work for reports produced on another OS.
func NewDefaultFilter(filters []string, osIndependantPathSeparator ...bool) (IFilter, error) {
	osPathSep := len(osIndependantPathSeparator) > 0 && osIndependantPathSeparator[0]

	df := &DefaultFilter{}
	var errs []string
	for _, f := range filters {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		re, err := createFilterRegex(f, osPathSep)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid filter '%s': %v", f, err))
			continue
		}
		switch f[0] {
		case '+':
			df.includeFilters = append(df.includeFilters, re)
		case '-':
			df.excludeFilters = append(df.excludeFilters, re)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("error creating default filter: %s", strings.Join(errs, "; "))
	}

	df.hasCustom = len(df.includeFilters) > 0 || len(df.excludeFilters) > 0
	if len(df.includeFilters) == 0 {
		re, _ := createFilterRegex("+*", false)
		df.includeFilters = append(df.includeFilters, re)
	}
	return df, nil
}

// MustNewDefaultFilter is NewDefaultFilter for filters known to be valid.
func MustNewDefaultFilter(filters ...string) IFilter {
	f, err := NewDefaultFilter(filters)
	if err != nil {
		panic(err)
	}
	return f
}

// IsElementIncludedInReport checks if the given name matches the filter rules.
func (df *DefaultFilter) IsElementIncludedInReport(name string) bool {
	for _, excludeRe := range df.excludeFilters {
		if excludeRe.MatchString(name) {
			return false
		}
	}
	for _, includeRe := range df.includeFilters {
		if includeRe.MatchString(name) {
			return true
		}
	}
	return false
}

// HasCustomFilters returns true if any include or exclude filters were specified.
func (df *DefaultFilter) HasCustomFilters() bool {
	return df.hasCustom
}

// createFilterRegex converts "+Name.*" style filters into an anchored,
// case-insensitive regular expression. "*" matches any run of characters,
// "?" a single one.
func createFilterRegex(filter string, osIndependantPathSeparator bool) (*regexp.Regexp, error) {
	if len(filter) < 2 || (filter[0] != '+' && filter[0] != '-') {
		return nil, fmt.Errorf("filter must start with '+' or '-' and contain a pattern")
	}
	pattern := regexp.QuoteMeta(filter[1:])
	pattern = strings.ReplaceAll(pattern, `\*`, ".*")
	pattern = strings.ReplaceAll(pattern, `\?`, ".")

	if osIndependantPathSeparator {
		pattern = strings.ReplaceAll(pattern, `\\`, "/")
		pattern = strings.ReplaceAll(pattern, "/", `[/\\]`)
	}
	return regexp.Compile("(?i)^" + pattern + "$")
}

// MemberKindFilter excludes whole categories of members from the tree.
type MemberKindFilter struct {
	ExcludeFields     bool `yaml:"excludeFields" toml:"excludeFields"`
	ExcludeProperties bool `yaml:"excludeProperties" toml:"excludeProperties"`
	ExcludeEvents     bool `yaml:"excludeEvents" toml:"excludeEvents"`
	ExcludeAccessors  bool `yaml:"excludeAccessors" toml:"excludeAccessors"`
}

// Includes reports whether members of kind k enter the tree.
func (f MemberKindFilter) Includes(k model.MemberKind) bool {
	switch k {
	case model.MemberField:
		return !f.ExcludeFields
	case model.MemberProperty:
		return !f.ExcludeProperties
	case model.MemberEvent:
		return !f.ExcludeEvents
	case model.MemberAccessor:
		return !f.ExcludeAccessors
	}
	return true
}
