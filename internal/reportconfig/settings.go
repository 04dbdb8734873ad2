package reportconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser/filtering"
)

// Settings is the content of an optional settings file (.yaml, .yml or
// .toml). Thresholds are keyed by metric name, then by symbol level name:
//
//	thresholds:
//	  LineCoverage:
//	    Member: {warning: 80, error: 60, higherIsBetter: true}
type Settings struct {
	Thresholds        map[string]map[string]model.Threshold `yaml:"thresholds" toml:"thresholds"`
	SourceDirectories []string                              `yaml:"sourceDirectories" toml:"sourceDirectories"`
	AssemblyFilters   []string                              `yaml:"assemblyFilters" toml:"assemblyFilters"`
	ClassFilters      []string                              `yaml:"classFilters" toml:"classFilters"`
	FileFilters       []string                              `yaml:"fileFilters" toml:"fileFilters"`
	MemberFilter      filtering.MemberKindFilter            `yaml:"memberFilter" toml:"memberFilter"`
}

// LoadSettings decodes the settings file at path, choosing the format by
// extension.
func LoadSettings(path string) (*Settings, error) {
	data, err := filereader.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	var s Settings
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: failed to parse YAML: %v", ErrInvalidConfig, path, err)
		}
	case ".toml":
		meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: failed to parse TOML: %v", ErrInvalidConfig, path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: %s: unknown settings %v", ErrInvalidConfig, path, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported settings file extension %q", ErrInvalidConfig, ext)
	}
	return &s, nil
}

// ThresholdDefinitions converts the name-keyed thresholds of the file.
func (s *Settings) ThresholdDefinitions() (model.ThresholdDefinitions, error) {
	if len(s.Thresholds) == 0 {
		return nil, nil
	}
	defs := make(model.ThresholdDefinitions, len(s.Thresholds))
	for metricName, levels := range s.Thresholds {
		metric, err := model.ParseMetricIdentifier(metricName)
		if err != nil {
			return nil, fmt.Errorf("%w: thresholds: %v", ErrInvalidConfig, err)
		}
		if defs[metric] == nil {
			defs[metric] = make(map[model.SymbolLevel]model.Threshold, len(levels))
		}
		for levelName, th := range levels {
			level, err := model.ParseSymbolLevel(levelName)
			if err != nil {
				return nil, fmt.Errorf("%w: thresholds.%s: %v", ErrInvalidConfig, metricName, err)
			}
			defs[metric][level] = th
		}
	}
	return defs, nil
}

func ptr(v float64) *float64 { return &v }

// DefaultThresholds are applied when no settings file overrides them.
func DefaultThresholds() model.ThresholdDefinitions {
	coverage := model.Threshold{Warning: ptr(80), Error: ptr(60), HigherIsBetter: true}
	return model.ThresholdDefinitions{
		model.LineCoverage: {
			model.LevelMember:   coverage,
			model.LevelType:     coverage,
			model.LevelAssembly: coverage,
			model.LevelSolution: coverage,
		},
		model.BranchCoverage: {
			model.LevelMember: {Warning: ptr(70), Error: ptr(50), HigherIsBetter: true},
			model.LevelType:   {Warning: ptr(70), Error: ptr(50), HigherIsBetter: true},
		},
		model.CyclomaticComplexity: {
			model.LevelMember: {Warning: ptr(10), Error: ptr(20)},
		},
		model.CrapScore: {
			model.LevelMember: {Warning: ptr(15), Error: ptr(30)},
		},
		model.MaintainabilityIndex: {
			model.LevelMember: {Warning: ptr(20), Error: ptr(10), HigherIsBetter: true},
			model.LevelType:   {Warning: ptr(20), Error: ptr(10), HigherIsBetter: true},
		},
		model.ClassCoupling: {
			model.LevelType: {Warning: ptr(40), Error: ptr(80)},
		},
		model.DepthOfInheritance: {
			model.LevelType: {Warning: ptr(5), Error: ptr(8)},
		},
	}
}
