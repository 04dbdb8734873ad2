package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/filereader"
	"github.com/IgorBayerl/ReportGenerator/go_quality_aggregator/internal/model"
)

// Report is the persisted result of an aggregation run. A previous report
// serves as the baseline of the next one.
type Report struct {
	Solution *model.Solution `json:"solution"`
	Metadata model.Metadata  `json:"metadata"`
}

// Format is the encoding of a report file.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
)

// FormatForPath picks the encoding from the file extension: ".msgpack" and
// ".mpk" are MessagePack, everything else JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		return FormatMsgpack
	}
	return FormatJSON
}

// Encode writes r to w. MessagePack output reuses the JSON field names.
func (r *Report) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.SetOmitEmpty(true)
		return enc.Encode(r)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
}

// DecodeReport reads a report written by Encode.
func DecodeReport(rd io.Reader, format Format) (*Report, error) {
	var r Report
	switch format {
	case FormatMsgpack:
		dec := msgpack.NewDecoder(rd)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&r); err != nil {
			return nil, err
		}
	default:
		if err := json.NewDecoder(rd).Decode(&r); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// WriteReport writes r to path atomically, creating parent directories.
func WriteReport(path string, r *Report) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = r.Encode(f, FormatForPath(path)); err != nil {
		return fmt.Errorf("failed to encode report %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place at %s: %w", path, err)
	}
	return nil
}

// ReadReport reads a report file in the format given by its extension.
func ReadReport(path string) (*Report, error) {
	format := FormatForPath(path)
	var (
		rc  io.ReadCloser
		err error
	)
	if format == FormatMsgpack {
		rc, err = os.Open(path)
	} else {
		// JSON is text and may carry a BOM.
		rc, err = filereader.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", path, err)
	}
	defer rc.Close()
	r, err := DecodeReport(rc, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return r, nil
}

// ErrEmptyBaseline is returned for a baseline report without a solution.
var ErrEmptyBaseline = errors.New("baseline report has no solution")

// ReadBaseline returns the solution tree of a previous report.
func ReadBaseline(path string) (*model.Solution, error) {
	r, err := ReadReport(path)
	if err != nil {
		return nil, err
	}
	if r.Solution == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyBaseline)
	}
	return r.Solution, nil
}
