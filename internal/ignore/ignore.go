// Package ignore decides which paths under the settings root are hidden from
// the file tree, the baseline sync and the watcher.
package ignore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// DefaultIgnoreDirs are directory names that are always skipped.
var DefaultIgnoreDirs = []string{
	".git", ".svn", ".hg",
	".idea", ".vscode", ".vs",
	"node_modules", ".cache",
}

// Matcher combines default directory names, the root .gitignore and custom
// doublestar patterns. Reload takes the write lock, ShouldIgnore the read lock.
type Matcher struct {
	mu        sync.RWMutex
	rootDir   string
	gitIgnore gitignore.GitIgnore
	patterns  []string
}

// MatcherOptions configures the matcher.
type MatcherOptions struct {
	RootDir string
	// Patterns are doublestar globs matched against slash-separated paths
	// relative to RootDir, e.g. "backup/**" or "**/*.bak.xml".
	Patterns []string
}

// NewMatcher creates a matcher. Invalid patterns are rejected.
func NewMatcher(opts MatcherOptions) (*Matcher, error) {
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("ignore: invalid pattern %q", p)
		}
	}
	m := &Matcher{
		rootDir:  opts.RootDir,
		patterns: append([]string(nil), opts.Patterns...),
	}
	m.gitIgnore = loadIgnoreFile(filepath.Join(opts.RootDir, ".gitignore"), opts.RootDir)
	return m, nil
}

// ShouldIgnore reports whether rel (slash-separated, relative to the root)
// is hidden.
func (m *Matcher) ShouldIgnore(rel string, isDir bool) bool {
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
	if rel == "." || rel == "" {
		return false
	}

	for _, part := range strings.Split(rel, "/") {
		for _, d := range DefaultIgnoreDirs {
			if part == d {
				return true
			}
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.gitIgnore != nil {
		if match := m.gitIgnore.Relative(rel, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// ShouldIgnoreAbs is ShouldIgnore for an absolute path. Paths outside the
// root are ignored.
func (m *Matcher) ShouldIgnoreAbs(abs string, isDir bool) bool {
	rel, err := filepath.Rel(m.rootDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	return m.ShouldIgnore(rel, isDir)
}

// Reload re-reads the root .gitignore.
func (m *Matcher) Reload() {
	gi := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = gi
}

func loadIgnoreFile(filePath, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
