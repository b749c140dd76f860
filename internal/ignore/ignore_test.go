package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnore_Defaults(t *testing.T) {
	m, err := NewMatcher(MatcherOptions{RootDir: t.TempDir()})
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore(".git", true))
	assert.True(t, m.ShouldIgnore("mods/.git/config.xml", false))
	assert.False(t, m.ShouldIgnore("Core.cfg", false))
	assert.False(t, m.ShouldIgnore(".", true))
}

func TestShouldIgnore_Patterns(t *testing.T) {
	m, err := NewMatcher(MatcherOptions{
		RootDir:  t.TempDir(),
		Patterns: []string{"backup/**", "**/*.bak.xml", "backup"},
	})
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore("backup", true))
	assert.True(t, m.ShouldIgnore("backup/Core.cfg", false))
	assert.True(t, m.ShouldIgnore("Items/Food.bak.xml", false))
	assert.False(t, m.ShouldIgnore("Items/Food.xml", false))
}

func TestNewMatcher_InvalidPattern(t *testing.T) {
	_, err := NewMatcher(MatcherOptions{RootDir: t.TempDir(), Patterns: []string{"[oops"}})
	assert.Error(t, err)
}

func TestShouldIgnore_GitIgnore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.old.cfg\n"), 0o644))

	m, err := NewMatcher(MatcherOptions{RootDir: root})
	require.NoError(t, err)
	assert.True(t, m.ShouldIgnore("Core.old.cfg", false))
	assert.False(t, m.ShouldIgnore("Core.cfg", false))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("Core.cfg\n"), 0o644))
	m.Reload()
	assert.True(t, m.ShouldIgnore("Core.cfg", false))
	assert.False(t, m.ShouldIgnore("Core.old.cfg", false))
}

func TestShouldIgnoreAbs(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(MatcherOptions{RootDir: root, Patterns: []string{"skip/**"}})
	require.NoError(t, err)

	assert.False(t, m.ShouldIgnoreAbs(filepath.Join(root, "Core.cfg"), false))
	assert.True(t, m.ShouldIgnoreAbs(filepath.Join(root, "skip", "a.cfg"), false))
	assert.True(t, m.ShouldIgnoreAbs(filepath.Join(filepath.Dir(root), "elsewhere.cfg"), false))
}
