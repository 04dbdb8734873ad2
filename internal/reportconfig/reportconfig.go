package reportconfig

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/logging"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/filtering"
)

// ErrInvalidConfig reports configuration that cannot be used: unknown metric
// or level names, malformed filters or an unreadable settings file.
var ErrInvalidConfig = errors.New("invalid configuration")

// IReportConfiguration defines the configuration for an aggregation run.
type IReportConfiguration interface {
	CoverageFiles() []string
	MetricsFiles() []string
	SarifFiles() []string
	GoSourceDirectories() []string
	SuppressionFiles() []string
	BaselineFile() string
	OutputFile() string
	SourceDirectories() []string
	AssemblyFilters() filtering.IFilter
	TypeFilters() filtering.IFilter
	FileFilters() filtering.IFilter
	MemberFilter() filtering.MemberKindFilter
	Thresholds() model.ThresholdDefinitions
	VerbosityLevel() logging.VerbosityLevel
	Logger() *slog.Logger
}

// Options are the raw values a configuration is built from, typically the
// command-line flags.
type Options struct {
	CoverageFiles       []string
	MetricsFiles        []string
	SarifFiles          []string
	GoSourceDirectories []string
	SuppressionFiles    []string
	BaselineFile        string
	OutputFile          string
	SourceDirectories   []string
	AssemblyFilters     []string
	ClassFilters        []string
	FileFilters         []string
	SettingsFile        string
	Verbosity           logging.VerbosityLevel
	Logger              *slog.Logger
}

// ReportConfiguration is the concrete implementation of IReportConfiguration.
type ReportConfiguration struct {
	CovFiles       []string
	MetFiles       []string
	SarFiles       []string
	GoSourceDirs   []string
	SuppFiles      []string
	Baseline       string
	Output         string
	SDirectories   []string
	assemblyFilter filtering.IFilter
	typeFilter     filtering.IFilter
	fileFilter     filtering.IFilter
	MemberKinds    filtering.MemberKindFilter
	ThresholdDefs  model.ThresholdDefinitions
	VLevel         logging.VerbosityLevel
	log            *slog.Logger
}

func (rc *ReportConfiguration) CoverageFiles() []string                  { return rc.CovFiles }
func (rc *ReportConfiguration) MetricsFiles() []string                   { return rc.MetFiles }
func (rc *ReportConfiguration) SarifFiles() []string                     { return rc.SarFiles }
func (rc *ReportConfiguration) GoSourceDirectories() []string            { return rc.GoSourceDirs }
func (rc *ReportConfiguration) SuppressionFiles() []string               { return rc.SuppFiles }
func (rc *ReportConfiguration) BaselineFile() string                     { return rc.Baseline }
func (rc *ReportConfiguration) OutputFile() string                       { return rc.Output }
func (rc *ReportConfiguration) SourceDirectories() []string              { return rc.SDirectories }
func (rc *ReportConfiguration) AssemblyFilters() filtering.IFilter       { return rc.assemblyFilter }
func (rc *ReportConfiguration) TypeFilters() filtering.IFilter           { return rc.typeFilter }
func (rc *ReportConfiguration) FileFilters() filtering.IFilter           { return rc.fileFilter }
func (rc *ReportConfiguration) MemberFilter() filtering.MemberKindFilter { return rc.MemberKinds }
func (rc *ReportConfiguration) Thresholds() model.ThresholdDefinitions   { return rc.ThresholdDefs }
func (rc *ReportConfiguration) VerbosityLevel() logging.VerbosityLevel   { return rc.VLevel }
func (rc *ReportConfiguration) Logger() *slog.Logger                     { return rc.log }

// NewReportConfiguration validates opts, merges the optional settings file
// and compiles the filters. Filters and source directories given in opts are
// appended to those of the settings file; settings thresholds replace the
// defaults per metric and level.
func NewReportConfiguration(opts Options) (*ReportConfiguration, error) {
	rc := &ReportConfiguration{
		CovFiles:      opts.CoverageFiles,
		MetFiles:      opts.MetricsFiles,
		SarFiles:      opts.SarifFiles,
		GoSourceDirs:  opts.GoSourceDirectories,
		SuppFiles:     opts.SuppressionFiles,
		Baseline:      opts.BaselineFile,
		Output:        opts.OutputFile,
		SDirectories:  opts.SourceDirectories,
		ThresholdDefs: DefaultThresholds(),
		VLevel:        opts.Verbosity,
		log:           opts.Logger,
	}
	if rc.log == nil {
		rc.log = slog.New(slog.DiscardHandler)
	}

	assemblyFilters, classFilters, fileFilters := opts.AssemblyFilters, opts.ClassFilters, opts.FileFilters
	if opts.SettingsFile != "" {
		s, err := LoadSettings(opts.SettingsFile)
		if err != nil {
			return nil, err
		}
		defs, err := s.ThresholdDefinitions()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.SettingsFile, err)
		}
		for metric, levels := range defs {
			if rc.ThresholdDefs[metric] == nil {
				rc.ThresholdDefs[metric] = make(map[model.SymbolLevel]model.Threshold, len(levels))
			}
			for level, th := range levels {
				rc.ThresholdDefs[metric][level] = th
			}
		}
		rc.SDirectories = append(append([]string{}, s.SourceDirectories...), rc.SDirectories...)
		assemblyFilters = append(append([]string{}, s.AssemblyFilters...), assemblyFilters...)
		classFilters = append(append([]string{}, s.ClassFilters...), classFilters...)
		fileFilters = append(append([]string{}, s.FileFilters...), fileFilters...)
		rc.MemberKinds = s.MemberFilter
		rc.log.Debug("Loaded settings file", "path", opts.SettingsFile)
	}

	var err error
	if rc.assemblyFilter, err = filtering.NewDefaultFilter(assemblyFilters); err != nil {
		return nil, fmt.Errorf("%w: assembly filters: %v", ErrInvalidConfig, err)
	}
	if rc.typeFilter, err = filtering.NewDefaultFilter(classFilters); err != nil {
		return nil, fmt.Errorf("%w: class filters: %v", ErrInvalidConfig, err)
	}
	if rc.fileFilter, err = filtering.NewDefaultFilter(fileFilters, true); err != nil {
		return nil, fmt.Errorf("%w: file filters: %v", ErrInvalidConfig, err)
	}

	if len(rc.CovFiles)+len(rc.MetFiles)+len(rc.SarFiles)+len(rc.GoSourceDirs) == 0 {
		return nil, fmt.Errorf("%w: no coverage, metrics, SARIF or Go source inputs", ErrInvalidConfig)
	}
	return rc, nil
}
