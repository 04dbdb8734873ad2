package analyzer

import (
	"fmt"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// DuplicateSymbol is one identity reported by two documents of the same kind.
type DuplicateSymbol struct {
	Kind         model.SourceKind
	Identity     string
	FirstSource  string
	SecondSource string
}

// DuplicateSymbolError is returned when two coverage documents, or two
// metrics documents, report the same symbol. Nothing is merged in that case.
type DuplicateSymbolError struct {
	Duplicates []DuplicateSymbol
}

func (e *DuplicateSymbolError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d symbol(s) reported by more than one document", len(e.Duplicates))
	for i, d := range e.Duplicates {
		if i == 5 {
			fmt.Fprintf(&sb, "; and %d more", len(e.Duplicates)-i)
			break
		}
		fmt.Fprintf(&sb, "; %s %s in %s and %s", d.Kind, d.Identity, d.FirstSource, d.SecondSource)
	}
	return sb.String()
}

// validateDocuments checks that no identity appears in two coverage documents
// or in two metrics documents. Repeats within one document are allowed; they
// are how overloads and partial declarations show up.
func (a *aggregation) validateDocuments(docs []*model.Document) error {
	type origin struct {
		doc    int
		source string
	}
	seen := map[model.SourceKind]map[string]origin{
		model.SourceCoverage: {},
		model.SourceMetrics:  {},
	}

	var dups []DuplicateSymbol
	for di, doc := range docs {
		ids, ok := seen[doc.Kind]
		if !ok {
			continue
		}
		for i := range doc.Elements {
			r, reason := a.resolve(&doc.Elements[i])
			if reason != notSkipped {
				continue
			}
			id := r.identity()
			first, exists := ids[id]
			if !exists {
				ids[id] = origin{doc: di, source: documentName(doc, di)}
				continue
			}
			if first.doc != di {
				dups = append(dups, DuplicateSymbol{
					Kind:         doc.Kind,
					Identity:     id,
					FirstSource:  first.source,
					SecondSource: documentName(doc, di),
				})
			}
		}
	}
	if len(dups) > 0 {
		return &DuplicateSymbolError{Duplicates: dups}
	}
	return nil
}

func documentName(doc *model.Document, index int) string {
	if doc.Source != "" {
		return doc.Source
	}
	return fmt.Sprintf("document #%d", index)
}
