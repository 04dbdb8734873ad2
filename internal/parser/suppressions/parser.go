// Package suppressions reads assembly-level SuppressMessage attributes, as
// found in GlobalSuppressions.cs, into suppression entries.
package suppressions

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
)

var (
	attributeRegex = regexp.MustCompile(`(?s)\[\s*assembly\s*:\s*(?:global::)?(?:System\.Diagnostics\.CodeAnalysis\.)?SuppressMessage(?:Attribute)?\s*\((.*?)\)\s*\]`)
	argumentRegex  = regexp.MustCompile(`(?:(\w+)\s*[=:]\s*)?(@?)"((?:[^"\\]|\\.|"")*)"`)
)

// Parse reads the suppressions declared in the C# source file at filePath.
func Parse(filePath string, log *slog.Logger) ([]*model.SuppressedSymbolInfo, error) {
	data, err := filereader.ReadAll(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read suppressions from %s: %w", filePath, err)
	}
	if log == nil {
		log = slog.Default()
	}
	out := ParseSource(string(data), log)
	log.Debug("Read suppressions", "file", filePath, "count", len(out))
	return out, nil
}

// ParseSource extracts every SuppressMessage attribute with a rule id and a
// resolvable target. Attributes without a target apply to the whole module
// and cannot be bound to a symbol; they are skipped.
func ParseSource(src string, log *slog.Logger) []*model.SuppressedSymbolInfo {
	src = stripLineComments(src)
	var out []*model.SuppressedSymbolInfo
	for _, m := range attributeRegex.FindAllStringSubmatch(src, -1) {
		attr := parseArguments(m[1])
		ruleID := attr.ruleID()
		if ruleID == "" {
			log.Debug("Skipping suppression without rule id", "attribute", strings.TrimSpace(m[0]))
			continue
		}
		fqn := TargetToName(attr.named["target"])
		if fqn == "" {
			log.Debug("Skipping module-wide suppression", "rule", ruleID)
			continue
		}
		out = append(out, &model.SuppressedSymbolInfo{
			FullyQualifiedName: fqn,
			RuleID:             ruleID,
			Justification:      attr.named["justification"],
		})
	}
	return out
}

type arguments struct {
	positional []string
	named      map[string]string
}

// ruleID takes the id part of a check id such as "CA1822:Mark members as static".
func (a arguments) ruleID() string {
	if len(a.positional) < 2 {
		return ""
	}
	check := a.positional[1]
	if i := strings.IndexByte(check, ':'); i >= 0 {
		check = check[:i]
	}
	return strings.TrimSpace(check)
}

func parseArguments(s string) arguments {
	a := arguments{named: make(map[string]string)}
	for _, m := range argumentRegex.FindAllStringSubmatch(s, -1) {
		value := unquote(m[3], m[2] == "@")
		if m[1] != "" {
			a.named[strings.ToLower(m[1])] = value
			continue
		}
		a.positional = append(a.positional, value)
	}
	return a
}

func unquote(s string, verbatim bool) string {
	if verbatim {
		return strings.ReplaceAll(s, `""`, `"`)
	}
	r := strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\n`, "\n", `\t`, "\t")
	return r.Replace(s)
}

func stripLineComments(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// TargetToName converts a documentation comment id such as
// "~M:Ns.Type.Method(System.Int32)" into a fully qualified symbol name.
// Constructors ("#ctor") are named after their type.
func TargetToName(target string) string {
	target = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(target), "~"))
	if target == "" {
		return ""
	}
	kind := byte('T')
	if len(target) > 2 && target[1] == ':' {
		kind = target[0]
		target = target[2:]
	}
	switch kind {
	case 'N':
		return target
	case 'T':
		return symbols.NormalizeTypeName(target)
	}

	head := target
	if open := strings.IndexByte(target, '('); open >= 0 {
		head = target[:open]
	}
	dot := strings.LastIndexByte(head, '.')
	if dot <= 0 {
		return ""
	}
	typeName := symbols.NormalizeTypeName(target[:dot])
	member := target[dot+1:]
	switch {
	case strings.HasPrefix(member, "#ctor"):
		member = symbols.SimpleTypeName(typeName) + strings.TrimPrefix(member, "#ctor")
	case strings.HasPrefix(member, "#cctor"):
		member = symbols.SimpleTypeName(typeName) + strings.TrimPrefix(member, "#cctor")
	}
	if kind == 'M' {
		if sig := symbols.NormalizeSignature(member); sig != "" {
			member = sig
		}
	}
	return typeName + "." + member
}
