package agentloop

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Workspace is the project directory the documentation tools operate on.
// Every path is resolved relative to the root; escapes via "..", absolute
// paths, or symlink-free traversal are rejected.
type Workspace struct {
	root string
}

// Directories never worth documenting.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
}

// NewWorkspace creates a Workspace rooted at dir.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// resolve turns a project-relative path into an absolute one, rejecting
// anything that would land outside the root.
func (w *Workspace) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path %q must be relative to the project root", path)
	}
	abs := filepath.Clean(filepath.Join(w.root, path))
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", path)
	}
	return abs, nil
}

// ReadFile returns the content of a project file.
func (w *Workspace) ReadFile(path string) (string, error) {
	abs, err := w.resolve(path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(content), nil
}

// WriteFile writes content to a project file, creating parent directories.
// An existing file is only replaced when overwrite is set.
func (w *Workspace) WriteFile(path, content string, overwrite bool) error {
	abs, err := w.resolve(path)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(abs); err == nil {
			return fmt.Errorf("file %s already exists; pass overwrite to replace it", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ListFiles returns project-relative file paths, sorted. An extension filter
// like ".go" narrows the result; recursive descends into subdirectories.
func (w *Workspace) ListFiles(extension string, recursive bool) ([]string, error) {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped; a listing never fails on them.
			return nil
		}
		if d.IsDir() {
			if path == w.root {
				return nil
			}
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if extension != "" && filepath.Ext(d.Name()) != extension {
			return nil
		}
		rel, rerr := filepath.Rel(w.root, path)
		if rerr != nil {
			return rerr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list project files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// todoMarkers are the comment markers FindTodos looks for.
var todoMarkers = []string{"TODO", "FIXME", "XXX", "HACK"}

// sourceExtensions bounds the TODO and import scans to text source files.
var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".rs": true, ".java": true, ".c": true, ".h": true,
	".cpp": true, ".rb": true, ".sh": true, ".md": true, ".yaml": true,
	".yml": true, ".toml": true,
}

// FindTodos scans source files for TODO-style markers and returns
// "path:line: text" entries, sorted by path.
func (w *Workspace) FindTodos() ([]string, error) {
	files, err := w.ListFiles("", true)
	if err != nil {
		return nil, err
	}

	var hits []string
	for _, rel := range files {
		if !sourceExtensions[filepath.Ext(rel)] {
			continue
		}
		abs, err := w.resolve(rel)
		if err != nil {
			continue
		}
		f, err := os.Open(abs)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			for _, marker := range todoMarkers {
				if strings.Contains(line, marker) {
					hits = append(hits, fmt.Sprintf("%s:%d: %s", rel, lineNo, strings.TrimSpace(line)))
					break
				}
			}
		}
		f.Close()
	}
	return hits, nil
}

// importPrefixes recognize import statements across the languages a project
// workspace typically mixes.
var importPrefixes = []string{"import ", "from ", "require(", "use ", "#include "}

// AnalyzeImports extracts import statements from a source file, preserving
// file order. Go import blocks are expanded line by line.
func (w *Workspace) AnalyzeImports(path string) ([]string, error) {
	content, err := w.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var imports []string
	inGoBlock := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if inGoBlock {
			if trimmed == ")" {
				inGoBlock = false
				continue
			}
			if trimmed != "" {
				imports = append(imports, trimmed)
			}
			continue
		}
		if trimmed == "import (" {
			inGoBlock = true
			continue
		}

		for _, prefix := range importPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				imports = append(imports, trimmed)
				break
			}
		}
	}
	return imports, nil
}

// sensitiveEnvPatterns are case-insensitive suffixes for environment
// variables that are excluded by default.
var sensitiveEnvPatterns = []string{
	"_API_KEY",
	"_SECRET",
	"_TOKEN",
	"_PASSWORD",
	"_CREDENTIAL",
}

// safeEnvVars are always included regardless of filtering.
var safeEnvVars = map[string]bool{
	"PATH": true, "HOME": true, "USER": true, "SHELL": true,
	"LANG": true, "TERM": true, "TMPDIR": true,
	"GOPATH": true, "GOROOT": true,
	"XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true, "XDG_CACHE_HOME": true,
}

// isSensitiveEnvVar checks if a variable name matches sensitive patterns.
func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)
	for _, pattern := range sensitiveEnvPatterns {
		if strings.HasSuffix(upper, pattern) {
			return true
		}
	}
	return false
}

// FilteredEnvironment returns the process environment variable names with
// sensitive ones excluded. Values are never exposed to the model.
func FilteredEnvironment() []string {
	var names []string
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := parts[0]
		if safeEnvVars[name] || !isSensitiveEnvVar(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
