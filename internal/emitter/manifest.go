package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// manifestPath records files written with overwrite=true, one relative
	// path per line, so the next run can clean them up first.
	manifestPath = ".codegen/manifest"

	// legacyManifestPath is honored as a fallback cleanup source when the
	// current manifest is absent.
	legacyManifestPath = ".openapi-generator/FILES"
)

// previousOutputs returns the relative paths a prior run recorded, preferring
// the current manifest over the legacy one.
func previousOutputs(outDir string) []string {
	for _, rel := range []string{manifestPath, legacyManifestPath} {
		raw, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		var files []string
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			files = append(files, line)
		}
		return files
	}
	return nil
}

// cleanPreviousOutputs deletes the files a prior run's manifest lists.
// Missing files are not an error; the manifest may be stale.
func cleanPreviousOutputs(outDir string) error {
	for _, rel := range previousOutputs(outDir) {
		full := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("emitter: clean previous output %s: %w", rel, err)
		}
	}
	return nil
}

// writeManifest records the overwritable files of this run.
func writeManifest(outDir string, files []string) error {
	full := filepath.Join(outDir, filepath.FromSlash(manifestPath))
	if len(files) == 0 {
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("emitter: remove manifest: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("emitter: create manifest directory: %w", err)
	}
	content := strings.Join(files, "\n") + "\n"
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("emitter: write manifest: %w", err)
	}
	return nil
}
