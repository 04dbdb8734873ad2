// Package glob expands input file patterns. Supported syntax, matched
// case-insensitively:
//   - `?` one character of a name, `*` any run of characters of a name;
//   - `**` any number of directories;
//   - `[abc]`, `[a-z]`, `[!a-z]` character sets;
//   - `{one,two}` alternatives.
package glob

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filesystem"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

const globCharacters = "*?[]{}"

// Glob holds a pattern and the file system it is expanded against.
type Glob struct {
	pattern string
	fs      filesystem.Filesystem
}

// NewGlob creates a Glob over fsys; nil means the host file system.
func NewGlob(pattern string, fsys filesystem.Filesystem) *Glob {
	if fsys == nil {
		fsys = filesystem.DefaultFS{}
	}
	return &Glob{pattern: pattern, fs: fsys}
}

func (g *Glob) String() string { return g.pattern }

// Expand returns the absolute paths of the files matching the pattern, sorted.
// A pattern without wildcards yields the file itself when it exists.
func (g *Glob) Expand() ([]string, error) {
	pattern := strings.TrimSpace(g.pattern)
	if pattern == "" {
		return nil, nil
	}
	slashed := filepath.ToSlash(pattern)
	if !strings.ContainsAny(slashed, globCharacters) {
		abs, err := g.fs.Abs(pattern)
		if err != nil {
			return nil, err
		}
		if info, err := g.fs.Stat(abs); err == nil && !info.IsDir() {
			return []string{abs}, nil
		}
		return nil, nil
	}

	base, rest := splitBase(slashed)
	re, err := compile(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
	}
	root, err := g.fs.Abs(filepath.FromSlash(base))
	if err != nil {
		return nil, err
	}

	var matches []string
	recursive := strings.Contains(rest, "**")
	depth := strings.Count(rest, "/")
	if err := g.walk(root, "", recursive, depth, re, &matches); err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// walk visits dir, matching every file path relative to the walk root. A
// non-recursive pattern never descends deeper than its own segment count.
func (g *Glob) walk(dir, rel string, recursive bool, depth int, re *regexp.Regexp, matches *[]string) error {
	entries, err := g.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil
		}
		return fmt.Errorf("error reading directory '%s': %w", dir, err)
	}
	for _, e := range entries {
		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}
		child := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if recursive || strings.Count(childRel, "/") < depth {
				if err := g.walk(child, childRel, recursive, depth, re, matches); err != nil {
					return err
				}
			}
			continue
		}
		if re.MatchString(childRel) {
			*matches = append(*matches, child)
		}
	}
	return nil
}

// splitBase separates the leading directories without wildcards from the
// rest of the pattern.
func splitBase(pattern string) (base, rest string) {
	segments := strings.Split(pattern, "/")
	i := 0
	for ; i < len(segments)-1; i++ {
		if strings.ContainsAny(segments[i], globCharacters) {
			break
		}
	}
	base = strings.Join(segments[:i], "/")
	switch {
	case base == "" && i > 0:
		base = "/"
	case base == "":
		base = "."
	case len(base) == 2 && base[1] == ':':
		base += "/"
	}
	return base, strings.Join(segments[i:], "/")
}

// compile converts the relative part of a pattern into an anchored regexp.
func compile(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?i)^")
	braces := 0
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					sb.WriteString("(?:.*/)?")
				} else {
					sb.WriteString(".*")
				}
				continue
			}
			sb.WriteString("[^/]*")
		case '?':
			sb.WriteString("[^/]")
		case '[':
			end := strings.IndexRune(string(runes[i+1:]), ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated character set")
			}
			set := string(runes[i+1 : i+1+end])
			if strings.HasPrefix(set, "!") {
				set = "^" + set[1:]
			}
			sb.WriteString("[" + strings.ReplaceAll(set, `\`, `\\`) + "]")
			i += end + 1
		case '{':
			braces++
			sb.WriteString("(?:")
		case '}':
			if braces == 0 {
				return nil, fmt.Errorf("unbalanced '}'")
			}
			braces--
			sb.WriteString(")")
		case ',':
			if braces > 0 {
				sb.WriteString("|")
			} else {
				sb.WriteString(",")
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if braces != 0 {
		return nil, fmt.Errorf("unbalanced '{'")
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// ExpandPatterns expands a ";"-separated list of patterns. Files are returned
// once each, in pattern order; unmatched lists the patterns that matched
// nothing.
func ExpandPatterns(list string, fsys filesystem.Filesystem) (files, unmatched []string, err error) {
	seen := make(map[string]struct{})
	for _, pattern := range utils.SplitThatEnsuresGlobsAreSafe(list, []rune{';'}) {
		found, err := NewGlob(pattern, fsys).Expand()
		if err != nil {
			return nil, nil, err
		}
		if len(found) == 0 {
			unmatched = append(unmatched, pattern)
			continue
		}
		for _, f := range found {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}
	return files, unmatched, nil
}
