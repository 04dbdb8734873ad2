// Package symbols turns the member and type names emitted by coverage,
// code-metrics and SARIF tooling into one comparable key.
//
// The three sources disagree on almost everything: coverage tools emit CLR
// names ("System.Void Ns.Type::Method(System.Object)", ".ctor", "get_Name",
// "List`1"), the code-metrics tool emits C# declarations
// ("void Type.Method(object? sender)", "string Type.Name { get; }",
// "List<T>"). The functions here strip what differs and keep only the
// declaring name, so the same member reported twice collapses to one key.
//
// Parameter lists are collapsed to "(...)" once the name is known. Overloads of
// one method therefore share a key and the first member with that name wins.
package symbols

import (
	"regexp"
	"strings"
	"unicode"
)

// ParameterPlaceholder replaces every parameter list in a member key.
const ParameterPlaceholder = "(...)"

var parameterModifiers = map[string]struct{}{
	"ref": {}, "out": {}, "in": {}, "params": {}, "this": {}, "scoped": {}, "readonly": {},
}

// operatorPattern finds the operator keyword of a C# operator declaration,
// with the conversion kind and "checked" modifier when present.
var operatorPattern = regexp.MustCompile(`(?:^|[\s.])(?:(implicit|explicit)\s+)?operator\b(?:\s+(checked)\b)?\s*`)

// clrOperators maps C# operator tokens to the method names the compiler emits.
// "+" and "-" with one parameter are the unary forms.
var clrOperators = map[string]string{
	"+": "op_Addition", "-": "op_Subtraction", "*": "op_Multiply", "/": "op_Division",
	"%": "op_Modulus", "&": "op_BitwiseAnd", "|": "op_BitwiseOr", "^": "op_ExclusiveOr",
	"<<": "op_LeftShift", ">>": "op_RightShift", ">>>": "op_UnsignedRightShift",
	"==": "op_Equality", "!=": "op_Inequality", "<": "op_LessThan", ">": "op_GreaterThan",
	"<=": "op_LessThanOrEqual", ">=": "op_GreaterThanOrEqual",
	"!": "op_LogicalNot", "~": "op_OnesComplement", "++": "op_Increment", "--": "op_Decrement",
	"true": "op_True", "false": "op_False",
}

var unaryOperators = map[string]string{"+": "op_UnaryPlus", "-": "op_UnaryNegation"}

var accessorSuffixes = map[string]string{
	"get":    "get_",
	"set":    "set_",
	"init":   "set_",
	"add":    "add_",
	"remove": "remove_",
}

// NormalizeSignature returns the canonical "Name(Type, Type)" form of a raw
// member signature: return type, declaring type, parameter namespaces,
// parameter names, generic arguments and nullability markers are removed.
func NormalizeSignature(raw string) string {
	head, params, hasParams := splitSignature(raw)
	name := bareName(head)
	if name == "" {
		return ""
	}
	if !hasParams {
		return name
	}
	types := make([]string, 0, len(params))
	for _, p := range params {
		if t := normalizeParameterType(p); t != "" {
			types = append(types, t)
		}
	}
	return name + "(" + strings.Join(types, ", ") + ")"
}

// MemberKey returns the matching key of a member: its bare name followed by
// ParameterPlaceholder when the raw form carries a parameter list.
// Constructors are keyed by the simple name of typeName so ".ctor()" and
// "Type.Type()" collapse.
func MemberKey(raw, typeName string) string {
	head, _, hasParams := splitSignature(raw)
	name := bareName(head)
	if name == ".ctor" || name == ".cctor" || name == "ctor" || name == "cctor" {
		name = SimpleTypeName(typeName)
	}
	if name == "" {
		return ""
	}
	if hasParams {
		return name + ParameterPlaceholder
	}
	return name
}

// BareMethodName returns only the member name of a raw signature, e.g.
// "OnApplicationIdling" for "void LoaderApp.OnApplicationIdling(object? s)".
func BareMethodName(raw string) string {
	head, _, _ := splitSignature(raw)
	return bareName(head)
}

// NormalizeTypeName erases generic arity and argument lists, maps the "/"
// nested separator to "+" and drops a "global::" prefix. Compiler-generated
// segments such as "<Run>d__4" are kept intact.
func NormalizeTypeName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "global::")
	s = strings.ReplaceAll(s, "/", "+")
	return eraseGenerics(s)
}

// NormalizeAssemblyName strips the version/culture/key suffix from an assembly
// display name.
func NormalizeAssemblyName(raw string) string {
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// SplitTypeFullName splits a full type name into namespace and type name at
// the last "." preceding the first nested separator.
// "Ns.Sub.Outer+Inner" yields ("Ns.Sub", "Outer+Inner").
func SplitTypeFullName(full string) (namespace, typeName string) {
	full = NormalizeTypeName(full)
	prefix := full
	if i := strings.IndexAny(full, "+<"); i >= 0 {
		prefix = full[:i]
	}
	dot := strings.LastIndexByte(prefix, '.')
	if dot < 0 {
		return "", full
	}
	return full[:dot], full[dot+1:]
}

// SimpleTypeName returns the innermost segment of a type name:
// "Ns.Outer+Inner" yields "Inner".
func SimpleTypeName(typeName string) string {
	typeName = NormalizeTypeName(typeName)
	if i := strings.LastIndexAny(typeName, ".+"); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}

// splitSignature separates the part before the parameter list from the
// parameters themselves. Operator declarations come back with their CLR
// method name as head and indexers are renamed to "Item".
func splitSignature(raw string) (head string, params []string, hasParams bool) {
	s := collapseIndexer(strings.TrimSpace(raw))
	if s == "" {
		return "", nil, false
	}
	if head, params, ok := splitOperator(s); ok {
		return head, params, true
	}
	if i := strings.Index(s, "{"); i >= 0 && !strings.Contains(s[:i], "(") {
		// Property with an accessor block: "string Type.Name { get; set; }".
		return strings.TrimSpace(s[:i]), nil, false
	}
	open := indexAtDepthZero(s, '(')
	if open == 0 {
		// Tuple return type: "(int, string) Type.Method(int x)".
		skip := matchingParen(s, 0) + 1
		if skip >= len(s) {
			return "", nil, false
		}
		next := indexAtDepthZero(s[skip:], '(')
		if next < 0 {
			return s[skip:], nil, false
		}
		open = skip + next
	}
	if open < 0 {
		return s, nil, false
	}
	closeIdx := matchingParen(s, open)
	inner := s[open+1 : closeIdx]
	return s[:open], splitTopLevel(inner, ','), true
}

// bareName reduces the head of a signature to the member name.
func bareName(head string) string {
	h := eraseGenerics(strings.TrimSpace(head))
	h = strings.ReplaceAll(h, "::", ".")
	h = stripReturnType(h)
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}

	for _, ctor := range []string{".cctor", ".ctor"} {
		if h == ctor {
			return ctor
		}
		if strings.HasSuffix(h, "."+ctor) {
			return ctor
		}
	}

	segments := strings.Split(h, ".")
	last := segments[len(segments)-1]
	if prefix, ok := accessorSuffixes[last]; ok && len(segments) > 1 {
		return prefix + segments[len(segments)-2]
	}
	if i := strings.LastIndexByte(last, '+'); i >= 0 {
		last = last[i+1:]
	}
	return last
}

// stripReturnType drops a leading return type and modifiers such as "static"
// or "event".
func stripReturnType(h string) string {
	fields := strings.Fields(h)
	if len(fields) <= 1 {
		return h
	}
	return fields[len(fields)-1]
}

// splitOperator handles "bool Money.operator ==(Money a, Money b)" and
// "Money.implicit operator decimal(Money m)". The returned head is the CLR
// name, e.g. "op_Equality" or "op_Implicit".
func splitOperator(s string) (head string, params []string, ok bool) {
	m := operatorPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return "", nil, false
	}
	rest := s[m[1]:]
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return "", nil, false
	}
	closeIdx := matchingParen(rest, open)
	params = splitTopLevel(rest[open+1:closeIdx], ',')

	if m[2] >= 0 {
		if s[m[2]:m[3]] == "implicit" {
			return "op_Implicit", params, true
		}
		return "op_Explicit", params, true
	}
	token := strings.TrimSpace(rest[:open])
	name, known := clrOperators[token]
	if unary, isUnary := unaryOperators[token]; isUnary && len(params) == 1 {
		name = unary
	}
	if !known {
		return "", nil, false
	}
	if m[4] >= 0 {
		name = "op_Checked" + strings.TrimPrefix(name, "op_")
	}
	return name, params, true
}

// collapseIndexer renames an indexer declaration "T.this[int i]" to "T.Item",
// the name its accessors get_Item and set_Item carry in compiled code.
func collapseIndexer(s string) string {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], "this")
		if i < 0 {
			return s
		}
		i += from
		j := i + len("this")
		for j < len(s) && s[j] == ' ' {
			j++
		}
		startsSegment := i == 0 || s[i-1] == '.' || s[i-1] == ' '
		if startsSegment && j < len(s) && s[j] == '[' {
			runes := []rune(s[j:])
			end := len(string(runes[:skipBalanced(runes, 0, '[', ']')+1]))
			return s[:i] + "Item" + s[j+end:]
		}
		from = j
	}
	return s
}

func normalizeParameterType(p string) string {
	p = strings.TrimSpace(p)
	for strings.HasPrefix(p, "[") {
		end := strings.IndexByte(p, ']')
		if end < 0 {
			break
		}
		p = strings.TrimSpace(p[end+1:])
	}
	if i := strings.IndexByte(p, '='); i >= 0 {
		p = p[:i]
	}
	p = eraseGenerics(p)
	fields := strings.Fields(p)
	for len(fields) > 0 {
		if _, isModifier := parameterModifiers[fields[0]]; !isModifier {
			break
		}
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	t := strings.TrimRight(fields[0], "?&*")
	t = strings.ReplaceAll(t, "?", "")
	if i := strings.LastIndexByte(strings.TrimSuffix(t, "[]"), '.'); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// eraseGenerics removes "<...>" argument lists that follow an identifier
// character and CLR arity markers such as "`1" or "`2[[...]]". A "<" that
// starts a segment is part of a compiler-generated name and is kept.
func eraseGenerics(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	runes := []rune(s)
	var prev rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '<' && isIdentRune(prev):
			i = skipBalanced(runes, i, '<', '>')
			continue
		case r == '`':
			for i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				i++
			}
			if i+1 < len(runes) && runes[i+1] == '[' {
				i = skipBalanced(runes, i+1, '[', ']')
			}
			continue
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}

// skipBalanced returns the index of the closer matching the opener at start,
// or the last index when the input is unbalanced.
func skipBalanced(runes []rune, start int, opener, closer rune) int {
	depth := 0
	for i := start; i < len(runes); i++ {
		switch runes[i] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(runes) - 1
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func indexAtDepthZero(s string, target byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[':
			depth++
		case '>', ']':
			if depth > 0 {
				depth--
			}
		case target:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(s)
}

// splitTopLevel splits s at sep characters that are not nested inside
// brackets of any kind.
func splitTopLevel(s string, sep byte) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
