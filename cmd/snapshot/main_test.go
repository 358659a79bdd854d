package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registrationsJSON = `[
  {"id": "a", "createdAt": "2024-01-15T10:30:00Z", "cohort": "C1", "course": "Math", "paidPrice": 100,
   "paymentCurrency": "€", "sourceOfDiscovery": "Instagram", "status": "paid", "userIp": "ip1"}
]`

func setupEnv(t *testing.T) (dir, storePath string) {
	t.Helper()
	dir = t.TempDir()
	source := filepath.Join(dir, "registrations.json")
	require.NoError(t, os.WriteFile(source, []byte(registrationsJSON), 0644))

	storePath = filepath.Join(dir, "runs.db")
	t.Setenv("GO_ENV", "snapshot-test")
	t.Setenv("SOURCE_TYPE", "file")
	t.Setenv("SOURCE_URL", source)
	t.Setenv("STORE_PATH", storePath)
	return dir, storePath
}

func TestRunRejectsFormatBeforeLoading(t *testing.T) {
	dir, storePath := setupEnv(t)

	err := run("", "xlsx", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")

	assert.NoFileExists(t, storePath)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestRunExportsTables(t *testing.T) {
	dir, _ := setupEnv(t)
	out := filepath.Join(dir, "out")

	require.NoError(t, run("", "csv", out))

	runs, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.FileExists(t, filepath.Join(out, runs[0].Name(), "cohort_discovery.csv"))
}
