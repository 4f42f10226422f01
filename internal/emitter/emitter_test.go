package emitter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivorycirrus/aws-pdk/internal/model"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func testData() *model.RenderData {
	return &model.RenderData{
		Info: model.Info{Title: "Widget API", Version: "1.0.0"},
		Models: []*model.Model{
			{Name: "Widget", Kind: model.KindGeneric},
		},
	}
}

func TestEmit_WritesDeclaredFiles(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tplDir, "models.tmpl", `###WRITE_FILE###
{"dir": "models", "name": "index", "ext": ".ts", "overwrite": true}
// {{.Info.Title}}
{{range .Models}}export interface {{.Name}} {}
{{end}}###/WRITE_FILE###
`)

	res, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(res.Planned) != 1 || res.Planned[0].RelPath != "models/index.ts" {
		t.Fatalf("planned = %+v", res.Planned)
	}

	written, err := os.ReadFile(filepath.Join(outDir, "models", "index.ts"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(written), "// Widget API") {
		t.Fatalf("template data not rendered: %q", written)
	}
	if !strings.Contains(string(written), "export interface Widget {}") {
		t.Fatalf("models not rendered: %q", written)
	}

	manifest, err := os.ReadFile(filepath.Join(outDir, ".codegen", "manifest"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if strings.TrimSpace(string(manifest)) != "models/index.ts" {
		t.Fatalf("manifest = %q", manifest)
	}
}

func TestEmit_DryRunWritesNothing(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tplDir, "a.tmpl", `###WRITE_FILE###
{"dir": ".", "name": "out", "ext": ".txt", "overwrite": true}
content
###/WRITE_FILE###
`)

	res, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(res.Planned) != 1 {
		t.Fatalf("planned = %+v", res.Planned)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read out dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run must not write, found %d entries", len(entries))
	}
}

func TestEmit_SkipsExistingWithoutOverwrite(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tplDir, "a.tmpl", `###WRITE_FILE###
{"dir": ".", "name": "keep", "ext": ".txt"}
new content
###/WRITE_FILE###
`)
	if err := os.WriteFile(filepath.Join(outDir, "keep.txt"), []byte("original"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "keep.txt" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
	got, _ := os.ReadFile(filepath.Join(outDir, "keep.txt"))
	if string(got) != "original" {
		t.Fatalf("existing file was overwritten: %q", got)
	}
}

func TestEmit_ForceOverwrites(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tplDir, "a.tmpl", `###WRITE_FILE###
{"dir": ".", "name": "keep", "ext": ".txt"}
new content
###/WRITE_FILE###
`)
	if err := os.WriteFile(filepath.Join(outDir, "keep.txt"), []byte("original"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
		Force:        true,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(outDir, "keep.txt"))
	if !strings.Contains(string(got), "new content") {
		t.Fatalf("force should overwrite, got %q", got)
	}
}

func TestEmit_ConditionalGeneration(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	// The conditional file depends on an id that is never written.
	writeTemplate(t, tplDir, "a.tmpl", `###WRITE_FILE###
{"dir": ".", "name": "anchor", "ext": ".txt", "id": "anchor", "overwrite": true}
anchor
###/WRITE_FILE###
###WRITE_FILE###
{"dir": ".", "name": "follows", "ext": ".txt", "overwrite": true, "generateConditionallyId": "anchor"}
follows
###/WRITE_FILE###
###WRITE_FILE###
{"dir": ".", "name": "orphan", "ext": ".txt", "overwrite": true, "generateConditionallyId": "missing"}
orphan
###/WRITE_FILE###
`)

	res, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "follows.txt")); err != nil {
		t.Fatalf("conditional file with satisfied id should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "orphan.txt")); !os.IsNotExist(err) {
		t.Fatalf("conditional file with unsatisfied id must be skipped")
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "orphan.txt" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
}

func TestEmit_CleansPreviousManifest(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tplDir, "a.tmpl", `###WRITE_FILE###
{"dir": ".", "name": "current", "ext": ".txt", "overwrite": true}
current
###/WRITE_FILE###
`)
	// Simulate a prior run that generated a file no longer produced.
	if err := os.WriteFile(filepath.Join(outDir, "stale.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(outDir, ".codegen"), 0o755); err != nil {
		t.Fatalf("seed manifest dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ".codegen", "manifest"), []byte("stale.txt\n"), 0o644); err != nil {
		t.Fatalf("seed manifest: %v", err)
	}

	_, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "stale.txt")); !os.IsNotExist(err) {
		t.Fatalf("stale output should be cleaned")
	}
	manifest, _ := os.ReadFile(filepath.Join(outDir, ".codegen", "manifest"))
	if strings.TrimSpace(string(manifest)) != "current.txt" {
		t.Fatalf("manifest = %q", manifest)
	}
}

func TestEmit_LegacyManifestFallback(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tplDir, "a.tmpl", `###WRITE_FILE###
{"dir": ".", "name": "current", "ext": ".txt", "overwrite": true}
current
###/WRITE_FILE###
`)
	if err := os.WriteFile(filepath.Join(outDir, "stale.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(outDir, ".openapi-generator"), 0o755); err != nil {
		t.Fatalf("seed legacy dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ".openapi-generator", "FILES"), []byte("stale.txt\n"), 0o644); err != nil {
		t.Fatalf("seed legacy manifest: %v", err)
	}

	_, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "stale.txt")); !os.IsNotExist(err) {
		t.Fatalf("legacy manifest entries should be cleaned")
	}
}

func TestEmit_MissingTemplateDir(t *testing.T) {
	t.Parallel()
	_, err := Emit(context.Background(), testData(), Options{
		OutDir:       t.TempDir(),
		TemplateDirs: []string{filepath.Join(t.TempDir(), "nope")},
	})
	if !errors.Is(err, ErrTemplateDirectoryNotFound) {
		t.Fatalf("expected ErrTemplateDirectoryNotFound, got %v", err)
	}
}

func TestEmit_TemplateDirSearchOrder(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "absent")
	present := t.TempDir()
	writeTemplate(t, present, "a.tmpl", "no directives\n")

	res, err := Emit(context.Background(), testData(), Options{
		OutDir:       t.TempDir(),
		TemplateDirs: []string{missing, present},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if res.TemplateDir != present {
		t.Fatalf("template dir = %q, want %q", res.TemplateDir, present)
	}
}

func TestEmit_CustomRenderFunc(t *testing.T) {
	t.Parallel()
	tplDir := t.TempDir()
	writeTemplate(t, tplDir, "a.tmpl", "ignored")
	outDir := t.TempDir()

	custom := func(path string, data *model.RenderData) (string, error) {
		return `###WRITE_FILE###
{"dir": ".", "name": "custom", "ext": ".txt", "overwrite": true}
from custom renderer
###/WRITE_FILE###`, nil
	}
	_, err := Emit(context.Background(), testData(), Options{
		OutDir:       outDir,
		TemplateDirs: []string{tplDir},
		Render:       custom,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "custom.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(got), "from custom renderer") {
		t.Fatalf("content = %q", got)
	}
}
