// Package sarif reads SARIF logs (2.1.0, and the 1.0 layout still written by
// older compilers) and turns every located result into a diagnostic element.
package sarif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/utils"
)

// SarifParser implements parser.IParser for SARIF logs.
type SarifParser struct{}

// NewSarifParser creates a new SarifParser.
func NewSarifParser() parser.IParser {
	return &SarifParser{}
}

func init() {
	parser.RegisterParser(NewSarifParser())
}

func (p *SarifParser) Name() string { return "Sarif" }

func (p *SarifParser) Kind() model.SourceKind { return model.SourceSarif }

// SupportsFile accepts .sarif files, and .json files whose head looks like a
// SARIF log.
func (p *SarifParser) SupportsFile(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".sarif":
		return true
	case ".json":
		return looksLikeSarif(filePath)
	}
	return false
}

func looksLikeSarif(filePath string) bool {
	rc, err := filereader.Open(filePath)
	if err != nil {
		return false
	}
	defer rc.Close()
	head := make([]byte, 4096)
	n, _ := io.ReadFull(rc, head)
	head = bytes.ToLower(head[:n])
	if !bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("{")) {
		return false
	}
	return bytes.Contains(head, []byte("sarif")) && bytes.Contains(head, []byte(`"runs"`))
}

// Parse decodes the log and emits one element per result carrying a rule id
// and a primary physical location.
func (p *SarifParser) Parse(filePath string, config parser.ParserConfig) (*model.Document, error) {
	data, err := filereader.ReadAll(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SARIF log %s: %w", filePath, err)
	}
	var raw LogJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal SARIF log from %s: %w", filePath, err)
	}

	log := parser.LoggerOf(config)
	var sourceDirs []string
	if config != nil {
		sourceDirs = config.SourceDirectories()
	}

	doc := &model.Document{
		Kind:             model.SourceSarif,
		Source:           filePath,
		RuleDescriptions: make(map[string]string),
	}
	skipped := 0
	for i := range raw.Runs {
		run := &raw.Runs[i]
		collectRuleDescriptions(run, doc.RuleDescriptions)
		for _, res := range run.Results {
			el, ok := resultElement(run, res, sourceDirs, log)
			if !ok {
				skipped++
				continue
			}
			doc.Elements = append(doc.Elements, el)
		}
	}
	if skipped > 0 {
		log.Debug("Skipped SARIF results", "file", filePath, "count", skipped)
	}
	return doc, nil
}

// collectRuleDescriptions keeps the first description seen per rule id,
// preferring the full description over the short one.
func collectRuleDescriptions(run *RunJSON, out map[string]string) {
	add := func(id string, d ReportingDescriptorJSON) {
		if id == "" {
			return
		}
		if _, exists := out[id]; exists {
			return
		}
		switch {
		case d.FullDescription != nil && d.FullDescription.Text != "":
			out[id] = d.FullDescription.Text
		case d.ShortDescription != nil && d.ShortDescription.Text != "":
			out[id] = d.ShortDescription.Text
		}
	}
	for _, d := range run.Tool.Driver.Rules {
		add(d.ID, d)
	}
	for _, ext := range run.Tool.Extensions {
		for _, d := range ext.Rules {
			add(d.ID, d)
		}
	}
	for id, d := range run.LegacyRules {
		add(id, d)
	}
}

func resultElement(run *RunJSON, res ResultJSON, sourceDirs []string, log *slog.Logger) (model.Element, bool) {
	ruleID := res.RuleID
	if ruleID == "" && res.Rule != nil {
		ruleID = res.Rule.ID
	}
	if ruleID == "" {
		return model.Element{}, false
	}
	if isSuppressedInSource(res.Suppressions) {
		log.Debug("Skipping suppressed SARIF result", "rule", ruleID)
		return model.Element{}, false
	}
	physical := primaryLocation(res.Locations)
	if physical == nil {
		return model.Element{}, false
	}
	uri := physical.ArtifactLocation.URI
	if uri == "" {
		uri = physical.URI
	}
	if uri == "" {
		return model.Element{}, false
	}
	path := resolveURI(run, uri, physical.ArtifactLocation.URIBaseID, sourceDirs)

	loc := &model.SourceLocation{Path: path}
	if physical.Region != nil {
		loc.StartLine = physical.Region.StartLine
		if physical.Region.EndLine > physical.Region.StartLine {
			loc.EndLine = physical.Region.EndLine
		}
	}

	value := model.NewMetricValue(1)
	value.Breakdown = map[string]*model.RuleBreakdown{
		ruleID: {
			Count: 1,
			Violations: []model.ViolationDetail{{
				Message:   res.Message.Text,
				URI:       path,
				StartLine: loc.StartLine,
				EndLine:   loc.EndLine,
			}},
		},
	}
	return model.Element{
		Kind:     model.ElementMember,
		Name:     ruleID,
		Location: loc,
		Metrics:  map[model.MetricIdentifier]*model.MetricValue{model.DiagnosticMetricForRule(ruleID): value},
	}, true
}

func primaryLocation(locations []LocationJSON) *PhysicalLocationJSON {
	for _, l := range locations {
		if l.PhysicalLocation != nil {
			return l.PhysicalLocation
		}
		if l.ResultFile != nil {
			return l.ResultFile
		}
	}
	return nil
}

// isSuppressedInSource reports a result silenced by a pragma or attribute.
// Rejected suppressions leave the result active.
func isSuppressedInSource(suppressions []SuppressionJSON) bool {
	for _, s := range suppressions {
		if !strings.EqualFold(s.Status, "rejected") {
			return true
		}
	}
	return false
}

// resolveURI turns a result URI into a file path: a uriBaseId is expanded
// from originalUriBaseIds, file URIs are decoded and relative paths are
// resolved against the source directories.
func resolveURI(run *RunJSON, uri, baseID string, sourceDirs []string) string {
	if baseID != "" {
		if base, ok := run.OriginalURIBaseIDs[baseID]; ok && base.URI != "" {
			uri = strings.TrimRight(base.URI, "/") + "/" + strings.TrimLeft(uri, "/")
		}
	}
	if strings.HasPrefix(strings.ToLower(uri), "file:") {
		if u, err := url.Parse(uri); err == nil {
			p := u.Path
			if u.Host != "" && u.Host != "localhost" {
				p = "//" + u.Host + p
			}
			// "/C:/src/a.cs"
			if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
				p = p[1:]
			}
			return p
		}
	}
	if decoded, err := url.PathUnescape(uri); err == nil {
		uri = decoded
	}
	return utils.ResolveSourcePath(uri, sourceDirs)
}
