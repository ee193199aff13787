package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTarget_AllEntriesOld(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "debug", "demo"), "0123456789")
	writeFile(t, filepath.Join(dir, "CACHEDIR.TAG"), tagContent)
	ageTree(t, dir, time.Now().Add(-72*time.Hour))

	size, eligible, err := evaluateTarget(dir, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, eligible)
	assert.Equal(t, int64(10+len(tagContent)), size)
}

func TestEvaluateTarget_NewerFileIneligible(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "debug", "old"), "old")
	ageTree(t, dir, time.Now().Add(-72*time.Hour))
	writeFile(t, filepath.Join(dir, "debug", "fresh"), "fresh")

	_, eligible, err := evaluateTarget(dir, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestEvaluateTarget_NewerDirectoryIneligible(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "debug", "old"), "old")
	ageTree(t, dir, time.Now().Add(-72*time.Hour))
	// Directory mtimes count too: a fresh subdirectory blocks deletion
	// even when every file in it is old.
	require.NoError(t, os.Chtimes(filepath.Join(dir, "debug"), time.Now(), time.Now()))

	_, eligible, err := evaluateTarget(dir, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestEvaluateTarget_ExactCutoffStillEligible(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "artifact"), "data")

	// Only strictly newer entries block deletion.
	cutoff := time.Now().Add(-time.Hour).Truncate(time.Second)
	ageTree(t, dir, cutoff)

	size, eligible, err := evaluateTarget(dir, cutoff)
	require.NoError(t, err)
	assert.True(t, eligible)
	assert.Equal(t, int64(4), size)
}

func TestEvaluateTarget_EmptyDirEligible(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "target")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	ageTree(t, dir, time.Now().Add(-72*time.Hour))

	size, eligible, err := evaluateTarget(dir, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, eligible)
	assert.Zero(t, size)
}

func TestDirectorySize_SumsRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), "12345")
	writeFile(t, filepath.Join(dir, "sub", "b"), "1234567")
	// Symlinks aren't followed and don't count toward the total.
	require.NoError(t, os.Symlink(filepath.Join(dir, "a"), filepath.Join(dir, "link")))

	size, err := directorySize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(12), size)
}
