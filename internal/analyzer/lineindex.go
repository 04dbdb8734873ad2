package analyzer

import (
	"sort"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/symbols"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

// declarationSkew is how far a diagnostic may sit above the first line a
// source attributed to a member.
const declarationSkew = 1

// LineMatch is the node a file line resolves to.
type LineMatch struct {
	// Node is the resolved member, type or assembly. Nil when the file
	// belongs to an assembly excluded by the filters.
	Node model.Node
	// Assembly owns Node; nil for excluded files.
	Assembly *model.Assembly
	// AssemblyName is set even for excluded files.
	AssemblyName string
	// Excluded reports that the file was declared by a filtered-out assembly.
	Excluded bool
}

type span struct {
	start, end int
	ranged     bool
	node       model.Node
	owner      *model.Type
	assembly   *model.Assembly
	order      int
}

func (s span) contains(line int) bool {
	return line >= s.start && line <= s.end
}

type fileIndex struct {
	members  []span
	types    []span
	assembly *model.Assembly
	excluded string
}

// LineIndex maps (file, line) to the innermost symbol declared there.
type LineIndex struct {
	files map[string]*fileIndex
	paths []string
}

// NewLineIndex indexes every located type and member of solution.
// Compiler-generated types and members are skipped so a diagnostic never lands
// on a node a reconciler may later remove. excluded maps normalized paths to
// the filtered-out assembly that declared them.
func NewLineIndex(solution *model.Solution, excluded map[string]string) *LineIndex {
	idx := &LineIndex{files: make(map[string]*fileIndex)}
	order := 0
	for _, asm := range solution.Assemblies {
		for _, ns := range asm.Namespaces {
			for _, typ := range ns.Types {
				if symbols.IsCompilerGenerated(typ.Name) {
					continue
				}
				if s, ok := newSpan(typ, typ, asm, order); ok {
					f := idx.file(typ.Location.Path)
					f.types = append(f.types, s)
					if f.assembly == nil {
						f.assembly = asm
					}
					order++
				}
				for _, m := range typ.Members {
					if symbols.IsCompilerGenerated(m.Name) {
						continue
					}
					if s, ok := newSpan(m, typ, asm, order); ok {
						f := idx.file(m.Location.Path)
						f.members = append(f.members, s)
						if f.assembly == nil {
							f.assembly = asm
						}
						order++
					}
				}
			}
		}
	}
	for p, asmName := range excluded {
		f := idx.file(p)
		if f.assembly == nil {
			f.excluded = asmName
		}
	}
	for _, f := range idx.files {
		sortSpans(f.members)
		sortSpans(f.types)
	}
	sort.Strings(idx.paths)
	return idx
}

func newSpan(n model.Node, owner *model.Type, asm *model.Assembly, order int) (span, bool) {
	loc := n.Sym().Location
	if loc == nil || loc.Path == "" || loc.StartLine <= 0 {
		return span{}, false
	}
	return span{
		start:    loc.StartLine,
		end:      loc.LastLine(),
		ranged:   loc.HasRange(),
		node:     n,
		owner:    owner,
		assembly: asm,
		order:    order,
	}, true
}

func sortSpans(spans []span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].order < spans[j].order
	})
}

func (idx *LineIndex) file(p string) *fileIndex {
	key := utils.NormalizePath(p)
	f, ok := idx.files[key]
	if !ok {
		f = &fileIndex{}
		idx.files[key] = f
		idx.paths = append(idx.paths, key)
	}
	return f
}

// lookup finds the indexed file for p. An unknown path falls back to the one
// indexed path that ends with p, then to the longest indexed path that p ends
// with. A relative path ending two indexed files matches neither.
func (idx *LineIndex) lookup(p string) *fileIndex {
	key := utils.NormalizePath(p)
	if key == "" {
		return nil
	}
	if f, ok := idx.files[key]; ok {
		return f
	}
	var longer []string
	best := ""
	for _, candidate := range idx.paths {
		switch {
		case utils.HasPathSuffix(candidate, key):
			longer = append(longer, candidate)
		case utils.HasPathSuffix(key, candidate) && len(candidate) > len(best):
			best = candidate
		}
	}
	switch {
	case len(longer) == 1:
		return idx.files[longer[0]]
	case len(longer) > 1:
		return nil
	case best != "":
		return idx.files[best]
	}
	return nil
}

// FindNode resolves a diagnostic at line of path. ok is false when the file is
// unknown; the caller then attributes the diagnostic to the solution.
func (idx *LineIndex) FindNode(path string, line int) (LineMatch, bool) {
	f := idx.lookup(path)
	if f == nil {
		return LineMatch{}, false
	}
	if f.assembly == nil {
		return LineMatch{AssemblyName: f.excluded, Excluded: true}, true
	}
	if s, ok := f.findMember(line); ok {
		return matchOf(s), true
	}
	if s, ok := f.findType(line); ok {
		return matchOf(s), true
	}
	return LineMatch{Node: f.assembly, Assembly: f.assembly, AssemblyName: f.assembly.Name}, true
}

func matchOf(s span) LineMatch {
	return LineMatch{Node: s.node, Assembly: s.assembly, AssemblyName: s.assembly.Name}
}

func (f *fileIndex) findMember(line int) (span, bool) {
	// Innermost containing member; ties go to the later start, then to the
	// first indexed.
	var best span
	found := false
	for _, s := range f.members {
		if !s.contains(line) {
			continue
		}
		if !found || s.end-s.start < best.end-best.start ||
			(s.end-s.start == best.end-best.start && s.start > best.start) {
			best, found = s, true
		}
	}
	if found {
		return best, true
	}

	// A member starting just below the line: attribute lists and doc
	// comments put diagnostics above the line a coverage tool reports.
	for _, s := range f.members {
		if s.start > line && s.start <= line+declarationSkew {
			return s, true
		}
		if s.start > line+declarationSkew {
			break
		}
	}

	// Nearest preceding declaration-only member, if nothing else starts in
	// between and it belongs to the ranged type around the line.
	prev := -1
	for i, s := range f.members {
		if s.start >= line {
			break
		}
		if prev < 0 || s.start > f.members[prev].start {
			prev = i
		}
	}
	if prev < 0 || f.members[prev].ranged {
		return span{}, false
	}
	candidate := f.members[prev]
	for _, t := range f.types {
		if t.start > candidate.start && t.start <= line && t.node != model.Node(candidate.owner) {
			return span{}, false
		}
	}
	if enclosing, ok := f.innermostRangedType(line); ok && enclosing.node != model.Node(candidate.owner) {
		return span{}, false
	}
	return candidate, true
}

func (f *fileIndex) innermostRangedType(line int) (span, bool) {
	var best span
	found := false
	for _, t := range f.types {
		if !t.ranged || !t.contains(line) {
			continue
		}
		if !found || t.end-t.start < best.end-best.start ||
			(t.end-t.start == best.end-best.start && t.start > best.start) {
			best, found = t, true
		}
	}
	return best, found
}

func (f *fileIndex) findType(line int) (span, bool) {
	if t, ok := f.innermostRangedType(line); ok {
		return t, true
	}
	var best span
	found := false
	for _, t := range f.types {
		if t.ranged || t.start > line {
			continue
		}
		if !found || t.start > best.start {
			best, found = t, true
		}
	}
	return best, found
}

func (a *aggregation) buildLineIndex() {
	a.index = NewLineIndex(a.tree.solution, a.excludedFiles)
}
