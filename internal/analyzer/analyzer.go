// Package analyzer fuses coverage, code-metrics and SARIF documents into one
// Solution → Assembly → Namespace → Type → Member report tree.
//
// Aggregate runs a fixed pipeline: duplicate validation, coverage merge,
// metrics merge, diagnostic placement, iterator and nested-type
// reconciliation, derived metrics, threshold evaluation, baseline deltas and
// suppression binding. Each step sees the output of the previous one.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/filtering"
)

// ErrInvalidInput is returned for inputs that cannot be aggregated at all.
var ErrInvalidInput = errors.New("invalid aggregation input")

// defaultSolutionName names the root when no document carries one.
const defaultSolutionName = "Solution"

// Config is what the aggregator needs from the surrounding configuration.
type Config interface {
	AssemblyFilters() filtering.IFilter
	TypeFilters() filtering.IFilter
	FileFilters() filtering.IFilter
	MemberFilter() filtering.MemberKindFilter
	Logger() *slog.Logger
}

// Input is one aggregation request. Suppressions are bound in place.
type Input struct {
	Documents    []*model.Document
	Baseline     *model.Solution
	BaselineName string
	Suppressions []*model.SuppressedSymbolInfo
	Thresholds   model.ThresholdDefinitions
}

// Result is the finished tree plus the metadata that travels with it.
type Result struct {
	Solution *model.Solution
	Metadata model.Metadata
}

// Aggregate builds the report tree for in. It is single-threaded; ctx is only
// checked before any work starts.
func Aggregate(ctx context.Context, in Input, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", ErrInvalidInput)
	}
	for i, doc := range in.Documents {
		if doc == nil {
			return nil, fmt.Errorf("%w: document %d is nil", ErrInvalidInput, i)
		}
	}
	if err := validateThresholds(in.Thresholds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	a := newAggregation(cfg, solutionName(in.Documents))
	if err := a.validateDocuments(in.Documents); err != nil {
		return nil, err
	}

	for _, kind := range []model.SourceKind{model.SourceCoverage, model.SourceMetrics} {
		for _, doc := range in.Documents {
			if doc.Kind == kind {
				a.mergeDocument(doc)
			}
		}
	}

	a.buildLineIndex()
	for _, doc := range in.Documents {
		if doc.Kind == model.SourceSarif {
			a.applyDiagnostics(doc)
		}
	}

	a.applyRemovals("iterator", reconcileIteratorCoverage(a.tree, a.log))
	a.applyRemovals("nested type", reconcileNestedTypeCoverage(a.tree, a.log))

	applyCrapScores(a.tree.solution)
	applyThresholds(a.tree.solution, in.Thresholds)
	if in.Baseline != nil {
		applyDeltas(a.tree.solution, in.Baseline)
	}
	bindSuppressions(a.tree, in.Suppressions)

	return &Result{
		Solution: a.tree.solution,
		Metadata: model.Metadata{
			Thresholds:       in.Thresholds,
			Baseline:         in.BaselineName,
			Suppressions:     in.Suppressions,
			RuleDescriptions: ruleDescriptions(in.Documents),
		},
	}, nil
}

// aggregation carries the state of one Aggregate call.
type aggregation struct {
	cfg  Config
	log  *slog.Logger
	tree *tree

	// excludedFiles maps a normalized path to the filtered-out assembly that
	// declared it.
	excludedFiles map[string]string
	index         *LineIndex
}

func newAggregation(cfg Config, solution string) *aggregation {
	logger := cfg.Logger()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &aggregation{
		cfg:           cfg,
		log:           logger,
		tree:          newTree(solution),
		excludedFiles: make(map[string]string),
	}
}

func (a *aggregation) applyRemovals(step string, removals []model.TypeEntry) {
	for _, entry := range removals {
		if !a.tree.removeType(entry) {
			a.log.Warn("Type scheduled for removal not found", "step", step, "type", entry.Type.FullyQualifiedName)
		}
	}
	if len(removals) > 0 {
		a.log.Debug("Removed reconciled types", "step", step, "count", len(removals))
	}
}

func solutionName(docs []*model.Document) string {
	for _, doc := range docs {
		if doc.SolutionName != "" {
			return doc.SolutionName
		}
	}
	return defaultSolutionName
}

func ruleDescriptions(docs []*model.Document) map[string]string {
	var out map[string]string
	for _, doc := range docs {
		for id, desc := range doc.RuleDescriptions {
			if out == nil {
				out = make(map[string]string)
			}
			if _, seen := out[id]; !seen {
				out[id] = desc
			}
		}
	}
	return out
}
