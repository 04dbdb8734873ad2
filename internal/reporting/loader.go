package reporting

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
)

// Source is one input to load. Parser names a registered parser; when empty
// the parser is detected from the file. Kind is the document kind the caller
// expects from it.
type Source struct {
	Path   string
	Kind   model.SourceKind
	Parser string
}

// LoadDocuments parses sources concurrently, at most jobs at a time
// (GOMAXPROCS when jobs <= 0). Documents are returned in source order. The
// first failure cancels the remaining work.
func LoadDocuments(ctx context.Context, sources []Source, cfg parser.ParserConfig, jobs int) ([]*model.Document, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	log := parser.LoggerOf(cfg)

	docs := make([]*model.Document, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(sources)))
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := parserFor(src)
			if err != nil {
				return err
			}
			if p.Kind() != src.Kind {
				return fmt.Errorf("%s is a %s document (%s parser), expected %s", src.Path, p.Kind(), p.Name(), src.Kind)
			}
			log.Info("Parsing input", "file", src.Path, "parser", p.Name())
			doc, err := p.Parse(src.Path, cfg)
			if err != nil {
				return fmt.Errorf("error parsing file %s with %s parser: %w", src.Path, p.Name(), err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func parserFor(src Source) (parser.IParser, error) {
	if src.Parser != "" {
		return parser.FindParserByName(src.Parser)
	}
	return parser.FindParserForFile(src.Path, src.Kind)
}
