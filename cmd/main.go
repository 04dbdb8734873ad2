package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/analyzer"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/glob"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/logging"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/suppressions"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/reportconfig"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/reporting"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"

	_ "github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/cobertura"
	_ "github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/codemetrics"
	_ "github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/gocover"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/gocyclo"
	_ "github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/opencover"
	_ "github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/sarif"
)

// errQualityGate is returned when --fail-on-error is set and the report
// contains an Error status. The report is still written.
var errQualityGate = errors.New("quality gate failed")

type flags struct {
	coverage        string
	metrics         string
	sarif           string
	goSource        string
	suppressions    string
	baseline        string
	config          string
	output          string
	sourceDirs      string
	assemblyFilters string
	classFilters    string
	fileFilters     string
	verbosity       string
	jobs            int
	failOnError     bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "quality-aggregator",
		Short: "Merge coverage, code metrics and SARIF diagnostics into one quality report",
		Long: `quality-aggregator fuses Cobertura coverage, Visual Studio code-metrics,
SARIF diagnostics and Go cyclomatic complexity into a single
Solution > Assembly > Namespace > Type > Member tree, evaluates thresholds,
computes deltas against a baseline report and binds SuppressMessage entries.

File arguments accept ";"-separated lists of files or glob patterns.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.coverage, "coverage", "", "Cobertura or Go coverage profile files or patterns")
	fl.StringVar(&f.metrics, "metrics", "", "Code-metrics XML files or patterns")
	fl.StringVar(&f.sarif, "sarif", "", "SARIF files or patterns")
	fl.StringVar(&f.goSource, "go-source", "", "Go module directories to measure with gocyclo (\";\"-separated)")
	fl.StringVar(&f.suppressions, "suppressions", "", "GlobalSuppressions.cs files or patterns")
	fl.StringVar(&f.baseline, "baseline", "", "Previous report (.json or .msgpack) to compute deltas against")
	fl.StringVar(&f.config, "config", "", "Settings file (.yaml, .yml or .toml)")
	fl.StringVarP(&f.output, "output", "o", "quality-report.json", "Report file; the extension selects JSON or msgpack")
	fl.StringVar(&f.sourceDirs, "sourcedirs", "", "Source directories used to resolve relative paths (\";\"-separated)")
	fl.StringVar(&f.assemblyFilters, "assemblyfilters", "", "Assembly filters, e.g. \"+Rca.*;-*.Tests\"")
	fl.StringVar(&f.classFilters, "classfilters", "", "Class filters")
	fl.StringVar(&f.fileFilters, "filefilters", "", "File filters")
	fl.StringVar(&f.verbosity, "verbosity", "Info", "Logging verbosity (Verbose, Info, Warning, Error, Off)")
	fl.IntVarP(&f.jobs, "jobs", "j", 0, "Number of inputs parsed concurrently (0 = GOMAXPROCS)")
	fl.BoolVar(&f.failOnError, "fail-on-error", false, "Exit with a non-zero code when any metric has status Error")
	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	start := time.Now()
	verbosity, err := logging.ParseVerbosity(f.verbosity)
	if err != nil {
		return err
	}
	log := logging.NewLogger(verbosity, cmd.ErrOrStderr())

	expand := func(name, list string) ([]string, error) {
		files, unmatched, err := glob.ExpandPatterns(list, nil)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		for _, p := range unmatched {
			log.Warn("No files found for pattern", "flag", name, "pattern", p)
		}
		return files, nil
	}
	coverage, err := expand("coverage", f.coverage)
	if err != nil {
		return err
	}
	metrics, err := expand("metrics", f.metrics)
	if err != nil {
		return err
	}
	sarif, err := expand("sarif", f.sarif)
	if err != nil {
		return err
	}
	suppressionFiles, err := expand("suppressions", f.suppressions)
	if err != nil {
		return err
	}

	cfg, err := reportconfig.NewReportConfiguration(reportconfig.Options{
		CoverageFiles:       coverage,
		MetricsFiles:        metrics,
		SarifFiles:          sarif,
		GoSourceDirectories: splitList(f.goSource),
		SuppressionFiles:    suppressionFiles,
		BaselineFile:        f.baseline,
		OutputFile:          f.output,
		SourceDirectories:   splitList(f.sourceDirs),
		AssemblyFilters:     splitList(f.assemblyFilters),
		ClassFilters:        splitList(f.classFilters),
		FileFilters:         splitList(f.fileFilters),
		SettingsFile:        f.config,
		Verbosity:           verbosity,
		Logger:              log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	docs, err := reporting.LoadDocuments(ctx, sourcesOf(cfg), cfg, f.jobs)
	if err != nil {
		return err
	}

	var suppressed []*model.SuppressedSymbolInfo
	for _, path := range cfg.SuppressionFiles() {
		entries, err := suppressions.Parse(path, log)
		if err != nil {
			return err
		}
		suppressed = append(suppressed, entries...)
	}

	var baseline *model.Solution
	if cfg.BaselineFile() != "" {
		if baseline, err = reporting.ReadBaseline(cfg.BaselineFile()); err != nil {
			return err
		}
	}

	result, err := analyzer.Aggregate(ctx, analyzer.Input{
		Documents:    docs,
		Baseline:     baseline,
		BaselineName: cfg.BaselineFile(),
		Suppressions: suppressed,
		Thresholds:   cfg.Thresholds(),
	}, cfg)
	if err != nil {
		return err
	}

	report := &reporting.Report{Solution: result.Solution, Metadata: result.Metadata}
	if err := reporting.WriteReport(cfg.OutputFile(), report); err != nil {
		return err
	}
	reporting.PrintSummary(cmd.OutOrStdout(), report)
	log.Info("Report written", "path", cfg.OutputFile(), "elapsed", time.Since(start).Round(time.Millisecond))

	if f.failOnError && reporting.HasErrors(report.Solution) {
		return errQualityGate
	}
	return nil
}

// sourcesOf lists the parse inputs in a stable order: coverage, metrics, Go
// modules, then SARIF.
func sourcesOf(cfg reportconfig.IReportConfiguration) []reporting.Source {
	var sources []reporting.Source
	for _, p := range cfg.CoverageFiles() {
		sources = append(sources, reporting.Source{Path: p, Kind: model.SourceCoverage})
	}
	for _, p := range cfg.MetricsFiles() {
		sources = append(sources, reporting.Source{Path: p, Kind: model.SourceMetrics})
	}
	for _, p := range cfg.GoSourceDirectories() {
		sources = append(sources, reporting.Source{Path: p, Kind: model.SourceMetrics, Parser: gocyclo.ParserName})
	}
	for _, p := range cfg.SarifFiles() {
		sources = append(sources, reporting.Source{Path: p, Kind: model.SourceSarif})
	}
	return sources
}

func splitList(s string) []string {
	return utils.SplitThatEnsuresGlobsAreSafe(s, []rune{';'})
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errQualityGate) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
