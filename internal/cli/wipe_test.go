package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorfs/statecache/internal/statecache"
)

func TestTruncate_RefusedWithoutYes(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "acct1")

	_, err := runCLI(t, "truncate", "--dir", dir, "--account", "acct1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// The cache is untouched.
	out, err := runCLI(t, "status", "--dir", dir, "--account", "acct1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes:            2")
}

func TestTruncate_ClearsAllTables(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "acct1")

	out, err := runCLI(t, "truncate", "--dir", dir, "--account", "acct1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "truncated")

	out, err = runCLI(t, "status", "--dir", dir, "--account", "acct1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes:            0")
	assert.Contains(t, out, "Scalar slots:     0")
	assert.Contains(t, out, "SCSN present:     false")
}

func TestWipe_RefusedWithoutYes(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "acct1")

	_, err := runCLI(t, "wipe", "--dir", dir, "--account", "acct1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, statErr := os.Stat(statecache.Path(dir, "acct1"))
	assert.NoError(t, statErr, "backing file must survive a refused wipe")
}

func TestWipe_RemovesBackingFile(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "acct1")

	out, err := runCLI(t, "wipe", "--dir", dir, "--account", "acct1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, statecache.Path(dir, "acct1"))

	_, statErr := os.Stat(statecache.Path(dir, "acct1"))
	assert.True(t, os.IsNotExist(statErr), "backing file must be gone after wipe")
}
