package emitter

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ivorycirrus/aws-pdk/internal/naming"
)

const (
	fileStartSentinel = "###WRITE_FILE###"
	fileEndSentinel   = "###/WRITE_FILE###"
)

// FileDirective is the JSON header that opens an emitted file segment.
type FileDirective struct {
	ID                      string `json:"id,omitempty"`
	Dir                     string `json:"dir"`
	Name                    string `json:"name"`
	Ext                     string `json:"ext"`
	Overwrite               bool   `json:"overwrite,omitempty"`
	KebabCaseFileName       bool   `json:"kebabCaseFileName,omitempty"`
	GenerateConditionallyID string `json:"generateConditionallyId,omitempty"`
}

// Path resolves the directive's destination relative to the output root.
func (d FileDirective) Path() string {
	name := d.Name
	if d.KebabCaseFileName {
		name = strings.ReplaceAll(naming.SnakeCase(name), "_", "-")
	}
	ext := d.Ext
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(filepath.FromSlash(d.Dir), name+ext)
}

// Segment is one file a rendered template asked to write.
type Segment struct {
	Directive FileDirective
	Contents  string
}

// ParseSegments scans rendered template output for file segments. Text
// outside the sentinels is discarded, which lets templates interleave
// comments and whitespace between files.
func ParseSegments(rendered string) ([]Segment, error) {
	var out []Segment
	rest := rendered
	for {
		start := strings.Index(rest, fileStartSentinel)
		if start < 0 {
			break
		}
		rest = rest[start+len(fileStartSentinel):]
		end := strings.Index(rest, fileEndSentinel)
		if end < 0 {
			return nil, fmt.Errorf("emitter: unterminated %s segment", fileStartSentinel)
		}
		segment := rest[:end]
		rest = rest[end+len(fileEndSentinel):]

		directive, body, err := splitDirective(segment)
		if err != nil {
			return nil, err
		}
		if directive.Name == "" {
			return nil, fmt.Errorf("emitter: file directive is missing a name")
		}
		out = append(out, Segment{Directive: directive, Contents: body})
	}
	return out, nil
}

// splitDirective peels the JSON header off a segment. The decoder's input
// offset marks where the literal file body begins.
func splitDirective(segment string) (FileDirective, string, error) {
	trimmed := strings.TrimLeft(segment, " \t\r\n")
	dec := json.NewDecoder(strings.NewReader(trimmed))
	var d FileDirective
	if err := dec.Decode(&d); err != nil {
		return d, "", fmt.Errorf("emitter: parse file directive: %w", err)
	}
	body := trimmed[dec.InputOffset():]
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")
	return d, body, nil
}
