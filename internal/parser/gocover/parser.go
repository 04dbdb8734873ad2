// Package gocover reads Go coverage profiles (go test -coverprofile) and
// reports line coverage per function, named the way the gocyclo parser names
// Go symbols so both documents land on the same members.
package gocover

import (
	"bufio"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/parser"
)

const modePrefix = "mode:"

// blockRegex matches "name.go:line.column,line.column numberOfStatements count".
var blockRegex = regexp.MustCompile(`^(.+):(\d+)\.(\d+),(\d+)\.(\d+) (\d+) (\d+)$`)

// ProfileBlock is one line of a coverage profile.
type ProfileBlock struct {
	FileName  string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	NumStmt   int
	HitCount  int
}

// GoCoverParser implements parser.IParser for Go coverage profiles.
type GoCoverParser struct{}

// NewGoCoverParser creates a new GoCoverParser.
func NewGoCoverParser() parser.IParser {
	return &GoCoverParser{}
}

func init() {
	parser.RegisterParser(NewGoCoverParser())
}

func (p *GoCoverParser) Name() string { return "GoCover" }

func (p *GoCoverParser) Kind() model.SourceKind { return model.SourceCoverage }

// SupportsFile checks for the "mode:" header every profile starts with.
func (p *GoCoverParser) SupportsFile(filePath string) bool {
	return filereader.HasPrefix(filePath, modePrefix)
}

// Parse reads the profile and measures the functions of every file it names.
// Files are resolved against the configured source directories, then against
// the directory of the profile.
func (p *GoCoverParser) Parse(filePath string, config parser.ParserConfig) (*model.Document, error) {
	log := parser.LoggerOf(config)

	blocks, err := readProfile(filePath)
	if err != nil {
		return nil, err
	}

	var sourceDirs []string
	if config != nil {
		sourceDirs = append(sourceDirs, config.SourceDirectories()...)
	}
	if abs, err := filepath.Abs(filepath.Dir(filePath)); err == nil {
		sourceDirs = append(sourceDirs, abs)
	}

	o := newProcessingOrchestrator(sourceDirs, log)
	elements, solution := o.processBlocks(blocks)
	log.Debug("Processed coverage profile", "file", filePath, "blocks", len(blocks), "elements", len(elements))

	return &model.Document{
		Kind:         model.SourceCoverage,
		Source:       filePath,
		SolutionName: solution,
		Elements:     elements,
	}, nil
}

func readProfile(filePath string) ([]ProfileBlock, error) {
	rc, err := filereader.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage profile %s: %w", filePath, err)
	}
	defer rc.Close()

	var blocks []ProfileBlock
	scanner := bufio.NewScanner(rc)
	lineNo := 0
	header := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !header {
			if !strings.HasPrefix(line, modePrefix) {
				return nil, fmt.Errorf("%s is not a Go coverage profile: missing %q header", filePath, modePrefix)
			}
			header = true
			continue
		}
		// Merged profiles repeat the header.
		if strings.HasPrefix(line, modePrefix) {
			continue
		}
		block, err := parseBlock(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filePath, lineNo, err)
		}
		blocks = append(blocks, block)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coverage profile %s: %w", filePath, err)
	}
	return blocks, nil
}

func parseBlock(line string) (ProfileBlock, error) {
	m := blockRegex.FindStringSubmatch(line)
	if m == nil {
		return ProfileBlock{}, fmt.Errorf("malformed profile line %q", line)
	}
	n := make([]int, 6)
	for i := range n {
		v, err := strconv.Atoi(m[i+2])
		if err != nil {
			return ProfileBlock{}, fmt.Errorf("malformed profile line %q: %w", line, err)
		}
		n[i] = v
	}
	return ProfileBlock{
		FileName:  m[1],
		StartLine: n[0],
		StartCol:  n[1],
		EndLine:   n[2],
		EndCol:    n[3],
		NumStmt:   n[4],
		HitCount:  n[5],
	}, nil
}
