package emitter

import (
	"testing"
)

func TestParseSegments_Basic(t *testing.T) {
	t.Parallel()
	rendered := `leading noise
###WRITE_FILE###
{"id": "model", "dir": "models", "name": "widget", "ext": ".ts", "overwrite": true}
export interface Widget {}
###/WRITE_FILE###
trailing noise
###WRITE_FILE###
{"dir": "docs", "name": "README", "ext": ".md"}
# Widget
###/WRITE_FILE###
`
	segments, err := ParseSegments(rendered)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}

	first := segments[0]
	if first.Directive.ID != "model" || !first.Directive.Overwrite {
		t.Fatalf("directive = %+v", first.Directive)
	}
	if first.Directive.Path() != "models/widget.ts" {
		t.Fatalf("path = %q", first.Directive.Path())
	}
	if first.Contents != "export interface Widget {}\n" {
		t.Fatalf("contents = %q", first.Contents)
	}

	second := segments[1]
	if second.Directive.Path() != "docs/README.md" {
		t.Fatalf("path = %q", second.Directive.Path())
	}
	if second.Directive.Overwrite {
		t.Fatalf("overwrite should default to false")
	}
}

func TestParseSegments_KebabCaseFileName(t *testing.T) {
	t.Parallel()
	rendered := `###WRITE_FILE###
{"dir": "src", "name": "WidgetService", "ext": ".ts", "kebabCaseFileName": true}
body
###/WRITE_FILE###`
	segments, err := ParseSegments(rendered)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := segments[0].Directive.Path(); got != "src/widget-service.ts" {
		t.Fatalf("kebab path = %q", got)
	}
}

func TestParseSegments_ExtWithoutDot(t *testing.T) {
	t.Parallel()
	rendered := `###WRITE_FILE###
{"dir": ".", "name": "setup", "ext": "py"}
pass
###/WRITE_FILE###`
	segments, err := ParseSegments(rendered)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := segments[0].Directive.Path(); got != "setup.py" {
		t.Fatalf("path = %q", got)
	}
}

func TestParseSegments_Unterminated(t *testing.T) {
	t.Parallel()
	_, err := ParseSegments(`###WRITE_FILE###
{"dir": ".", "name": "x", "ext": ".txt"}
never closed`)
	if err == nil {
		t.Fatalf("expected error for unterminated segment")
	}
}

func TestParseSegments_BadDirective(t *testing.T) {
	t.Parallel()
	_, err := ParseSegments(`###WRITE_FILE###
not json at all
###/WRITE_FILE###`)
	if err == nil {
		t.Fatalf("expected error for invalid directive")
	}
}

func TestParseSegments_MissingName(t *testing.T) {
	t.Parallel()
	_, err := ParseSegments(`###WRITE_FILE###
{"dir": "x", "ext": ".txt"}
body
###/WRITE_FILE###`)
	if err == nil {
		t.Fatalf("expected error for directive without a name")
	}
}

func TestParseSegments_NoSegments(t *testing.T) {
	t.Parallel()
	segments, err := ParseSegments("plain output with no directives")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}
