package symbols

import (
	"regexp"
	"strings"
)

// Grammars of compiler-generated type names, after NormalizeTypeName:
//
//	stateMachine = outer "+" "<" method ">" "d__" digits
//	nested       = segment ( "+" segment )+
//
// outer may itself be nested ("Outer+Inner"). method is the user-authored
// method the async/iterator state machine was generated for.
var stateMachineNameRegex = regexp.MustCompile(`^(?P<Outer>.+)\+<(?P<Method>[^<>]+)>d__\d+$`)

// ParseStateMachineName recognizes an async/iterator state machine type name
// such as "Outer+<LoadAsync>d__3" and returns the outer type name and the
// method name.
func ParseStateMachineName(typeName string) (outer, method string, ok bool) {
	match := stateMachineNameRegex.FindStringSubmatch(NormalizeTypeName(typeName))
	if match == nil {
		return "", "", false
	}
	return match[stateMachineNameRegex.SubexpIndex("Outer")], match[stateMachineNameRegex.SubexpIndex("Method")], true
}

// ParseNestedTypeName splits a "+"-separated nested type name into its
// segments. ok is false for non-nested names and for names containing a
// compiler-generated segment.
func ParseNestedTypeName(typeName string) (segments []string, ok bool) {
	name := NormalizeTypeName(typeName)
	if !strings.Contains(name, "+") {
		return nil, false
	}
	segments = strings.Split(name, "+")
	for _, s := range segments {
		if s == "" || IsCompilerGenerated(s) {
			return nil, false
		}
	}
	return segments, true
}

// NestedTypeDotName returns the "."-separated spelling the code-metrics tool
// uses for a "+"-separated nested type: "Outer+Inner" becomes "Outer.Inner".
func NestedTypeDotName(typeName string) (string, bool) {
	segments, ok := ParseNestedTypeName(typeName)
	if !ok {
		return "", false
	}
	return strings.Join(segments, "."), true
}

// IsCompilerGenerated reports whether name contains a compiler-generated
// segment: closures ("<>c"), state machines ("<Run>d__2"), local functions
// ("<Run>g__Local|0_0") or anonymous types. Generic argument lists are erased
// first, so any remaining "<" marks a synthesized name.
func IsCompilerGenerated(name string) bool {
	return strings.ContainsRune(eraseGenerics(name), '<')
}
