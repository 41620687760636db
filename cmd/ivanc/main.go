// Ivan compiler CLI - compiles .ivan interface definitions to C11 headers
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/ivan-lang/ivan/compiler"
	"github.com/ivan-lang/ivan/compiler/snapshot"
	"github.com/ivan-lang/ivan/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("ivanc")

func main() {
	output := flag.String("o", "", "Output path (default: input path with .h, or the manifest's output dir)")
	moduleName := flag.String("module", "", "Override the module name (default: derived from the file path)")
	emit := flag.String("emit", "header", "What to emit: header, ast, fingerprint")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ivanc [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles .ivan interface definitions to C11 headers.\n")
		fmt.Fprintf(os.Stderr, "With no files, compiles every source file of the enclosing ivan.toml project.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ivanc basic.ivan                  # Write basic.h next to the input\n")
		fmt.Fprintf(os.Stderr, "  ivanc -o - basic.ivan             # Write the header to stdout\n")
		fmt.Fprintf(os.Stderr, "  ivanc -emit fingerprint basic.ivan  # Print the module's content hash\n")
		fmt.Fprintf(os.Stderr, "  ivanc                             # Compile the whole project\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	switch *emit {
	case "header", "ast", "fingerprint":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown -emit mode %q\n", *emit)
		os.Exit(2)
	}

	files := flag.Args()
	if len(files) == 0 {
		if err := compileProject(*emit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *output != "" && len(files) > 1 {
		fmt.Fprintf(os.Stderr, "Error: -o cannot be combined with multiple input files\n")
		os.Exit(2)
	}
	for _, file := range files {
		name := *moduleName
		if name == "" {
			name = moduleNameForFile(file)
		}
		out := *output
		if out == "" {
			out = strings.TrimSuffix(file, ".ivan") + ".h"
		}
		if err := compileFile(file, name, out, *emit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// moduleNameForFile derives a module name from a path outside any project:
// the base name without its extension.
func moduleNameForFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".ivan")
}

// compileFile compiles one source file and writes the requested artifact.
// An output path of "-" writes to stdout.
func compileFile(path, moduleName, outputPath, emit string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	log.Infof("compiling %s (module %s)", path, moduleName)

	artifact, err := emitArtifact(moduleName, string(source), emit)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if outputPath == "-" {
		_, err = os.Stdout.Write(artifact)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, artifact, 0o644)
}

// emitArtifact runs the pipeline and renders the requested output form.
func emitArtifact(moduleName, source, emit string) ([]byte, error) {
	switch emit {
	case "header":
		header, err := compiler.CompileModule(moduleName, source)
		if err != nil {
			return nil, err
		}
		return []byte(header), nil
	case "ast":
		module, err := compiler.ParseModule(moduleName, source)
		if err != nil {
			return nil, err
		}
		return snapshot.Marshal(snapshot.FromModule(module))
	case "fingerprint":
		module, err := compiler.ParseModule(moduleName, source)
		if err != nil {
			return nil, err
		}
		hex, err := snapshot.FingerprintHex(module)
		if err != nil {
			return nil, err
		}
		return []byte(hex + "\n"), nil
	default:
		return nil, fmt.Errorf("unknown emit mode %q", emit)
	}
}

// compileProject compiles every .ivan file under the enclosing project's
// source directories into its output directory.
func compileProject(emit string) error {
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no ivan.toml found (and no input files given)")
	}
	log.Infof("project %s at %s", m.Project.Name, m.Dir)

	compiled := 0
	for _, dir := range m.SourceDirPaths() {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".ivan") {
				return err
			}
			name, ok := m.ModuleName(path)
			if !ok {
				return nil
			}
			out := m.HeaderPath(name)
			if emit != "header" {
				out = "-"
			}
			if err := compileFile(path, name, out, emit); err != nil {
				return err
			}
			compiled++
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
	}
	if compiled == 0 {
		return fmt.Errorf("no .ivan files found under %v", m.Source.Dirs)
	}
	log.Infof("compiled %d modules", compiled)
	return nil
}
