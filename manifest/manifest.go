// Package manifest handles ivan.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest represents an ivan.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Output  Output  `toml:"output"`

	// Dir is the directory containing the ivan.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where interface definition files live.
type Source struct {
	Dirs []string `toml:"dirs"`
}

// Output configures where generated headers are written.
type Output struct {
	Dir string `toml:"dir"`
}

// Load parses an ivan.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "ivan.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if m.Output.Dir == "" {
		m.Output.Dir = "include"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an ivan.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "ivan.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// OutputDirPath returns the absolute path of the header output directory.
func (m *Manifest) OutputDirPath() string {
	return filepath.Join(m.Dir, m.Output.Dir)
}

// HeaderPath returns where the header for a dotted module name is written.
// Dots become path separators, so "duck.shape" lands at <out>/duck/shape.h.
func (m *Manifest) HeaderPath(moduleName string) string {
	rel := strings.ReplaceAll(moduleName, ".", string(filepath.Separator)) + ".h"
	return filepath.Join(m.OutputDirPath(), rel)
}

// ModuleName derives the dotted module name for a source file under one of
// the configured source directories. Returns false when the file is outside
// every source directory or is not a .ivan file.
func (m *Manifest) ModuleName(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(abs, ".ivan") {
		return "", false
	}
	for _, dir := range m.SourceDirPaths() {
		rel, err := filepath.Rel(dir, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = strings.TrimSuffix(rel, ".ivan")
		return strings.ReplaceAll(rel, string(filepath.Separator), "."), true
	}
	return "", false
}
