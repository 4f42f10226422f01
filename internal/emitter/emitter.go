// Package emitter renders templates against compiled render data and writes
// the files their output declares through the embedded file directives.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ivorycirrus/aws-pdk/internal/logger"
	"github.com/ivorycirrus/aws-pdk/internal/model"
)

// RenderFunc renders one template file to text. The default implementation
// is RenderTemplate; tests and embedding tools may substitute their own.
type RenderFunc func(templatePath string, data *model.RenderData) (string, error)

// Options controls how the emitter renders and writes a generation run.
type Options struct {
	OutDir       string   // required; output root
	TemplateDirs []string // searched in order; first existing wins
	Render       RenderFunc
	Force        bool // write even when a file exists and overwrite is unset
	DryRun       bool // plan only, no filesystem changes
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath   string
	Size      int
	Overwrite bool
}

// Result returns the resolved template directory and the files of the run.
type Result struct {
	TemplateDir string
	Planned     []PlannedFile
	Skipped     []string
}

// Emit renders every template in the resolved template directory and writes
// the declared files under OutDir. Templates render concurrently; writes are
// serialized in template-declaration order so conditional directives observe
// earlier writes.
func Emit(ctx context.Context, data *model.RenderData, opts Options) (*Result, error) {
	if data == nil {
		return nil, errors.New("emitter: nil render data")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("emitter: OutDir is required")
	}
	render := opts.Render
	if render == nil {
		render = RenderTemplate
	}

	templateDir, err := FindTemplateDir(opts.TemplateDirs...)
	if err != nil {
		return nil, err
	}
	names, err := ListTemplates(templateDir)
	if err != nil {
		return nil, err
	}
	logger.Debugw("rendering templates", "dir", templateDir, "count", len(names))

	rendered := make([]string, len(names))
	renderErrs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				renderErrs[i] = err
				return
			}
			rendered[i], renderErrs[i] = render(filepath.Join(templateDir, name), data)
		}(i, name)
	}
	wg.Wait()
	for i, err := range renderErrs {
		if err != nil {
			return nil, fmt.Errorf("emitter: template %s: %w", names[i], err)
		}
	}

	var segments []Segment
	for i, text := range rendered {
		segs, err := ParseSegments(text)
		if err != nil {
			return nil, fmt.Errorf("emitter: template %s: %w", names[i], err)
		}
		segments = append(segments, segs...)
	}

	absOut, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("emitter: resolve output directory: %w", err)
	}
	if err := validateOutputDirectory(absOut); err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := cleanPreviousOutputs(absOut); err != nil {
			return nil, err
		}
	}

	result := &Result{TemplateDir: templateDir}
	writtenIDs := map[string]bool{}
	var manifest []string
	for _, seg := range segments {
		d := seg.Directive
		rel := d.Path()
		if d.GenerateConditionallyID != "" && !writtenIDs[d.GenerateConditionallyID] {
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		full := filepath.Join(absOut, rel)
		if _, statErr := os.Stat(full); statErr == nil && !d.Overwrite && !opts.Force {
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		result.Planned = append(result.Planned, PlannedFile{
			RelPath:   filepath.ToSlash(rel),
			Size:      len(seg.Contents),
			Overwrite: d.Overwrite,
		})
		if !opts.DryRun {
			if err := writeFileAtomic(absOut, rel, []byte(seg.Contents)); err != nil {
				return nil, err
			}
			logger.Debugw("wrote file", "path", rel, "bytes", len(seg.Contents))
		}
		if d.ID != "" {
			writtenIDs[d.ID] = true
		}
		if d.Overwrite {
			manifest = append(manifest, filepath.ToSlash(rel))
		}
	}

	if !opts.DryRun {
		if err := writeManifest(absOut, manifest); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// validateOutputDirectory checks the output root is usable. A missing
// directory is fine; it is created on first write.
func validateOutputDirectory(absPath string) error {
	stat, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("emitter: cannot access output directory %q: %w", absPath, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("emitter: output path %q is not a directory", absPath)
	}
	return nil
}

// writeFileAtomic writes via temp file + rename so readers never observe a
// partially written file.
func writeFileAtomic(baseDir, relPath string, content []byte) error {
	fullPath := filepath.Join(baseDir, relPath)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("emitter: ensure directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-emit-*")
	if err != nil {
		return fmt.Errorf("emitter: create temp file for %s: %w", relPath, err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
		}
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("emitter: write %s: %w", relPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("emitter: sync %s: %w", relPath, err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		return fmt.Errorf("emitter: chmod %s: %w", relPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("emitter: close %s: %w", relPath, err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("emitter: rename into place %s: %w", relPath, err)
	}
	success = true
	return nil
}
