// Package filereader opens input documents with their byte order mark and
// declared encoding taken into account.
package filereader

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodingReader strips a UTF-8 BOM and transcodes UTF-16 (with BOM) to UTF-8.
// Input without a BOM passes through unchanged.
func decodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Open opens filePath for reading as UTF-8 text.
func Open(filePath string) (io.ReadCloser, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return readCloser{Reader: decodingReader(f), Closer: f}, nil
}

// ReadAll reads filePath as UTF-8 text.
func ReadAll(filePath string) ([]byte, error) {
	rc, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return data, nil
}

// NewXMLDecoder returns a decoder over r that honors non-UTF-8 encodings
// declared in the XML prolog, e.g. encoding="windows-1252".
func NewXMLDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(decodingReader(r))
	d.CharsetReader = charsetReader
	return d
}

// charsetReader decodes the prolog's encoding. UTF-16 input was already
// transcoded from its BOM.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(label), "utf-16") {
		return input, nil
	}
	return charset.NewReaderLabel(label, input)
}

// DecodeXMLFile unmarshals the XML document at filePath into v.
func DecodeXMLFile(filePath string, v any) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := NewXMLDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", filePath, err)
	}
	return nil
}

// RootElement returns the local name of the first element of the XML document
// at filePath, or "" when the file is not readable XML.
func RootElement(filePath string) string {
	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()
	d := NewXMLDecoder(io.LimitReader(f, 64*1024))
	for {
		tok, err := d.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local
		}
	}
}

// ReadLinesInFile reads all lines from a file and returns them as a slice of strings.
func ReadLinesInFile(filePath string) ([]string, error) {
	data, err := ReadAll(filePath)
	if err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// HasPrefix reports whether the text content of filePath starts with prefix
// after leading whitespace, reading at most the first few kilobytes.
func HasPrefix(filePath string, prefix string) bool {
	rc, err := Open(filePath)
	if err != nil {
		return false
	}
	defer rc.Close()
	head := make([]byte, 4096)
	n, _ := io.ReadFull(rc, head)
	return bytes.HasPrefix(bytes.TrimLeft(head[:n], " \t\r\n"), []byte(prefix))
}
