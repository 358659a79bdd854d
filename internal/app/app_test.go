package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration-analytics/config"
)

const registrationsJSON = `[
  {"id": "a", "createdAt": "2024-01-15T10:30:00Z", "cohort": "C1", "course": "Math", "paidPrice": 100,
   "paymentCurrency": "€", "sourceOfDiscovery": "Instagram", "status": "paid", "userIp": "ip1"},
  {"id": "b", "createdAt": "2024-01-16T09:00:00Z", "cohort": "C2", "course": "Physics", "paidPrice": 5000,
   "paymentCurrency": "₦", "sourceOfDiscovery": "Friend", "status": "pending", "userIp": "ip2"}
]`

func fileConfig(t *testing.T) *config.Configuration {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "registrations.json")
	require.NoError(t, os.WriteFile(path, []byte(registrationsJSON), 0644))

	return &config.Configuration{
		SourceType:              "file",
		SourceURL:               path,
		Collection:              "CourseRegistration",
		ReferenceCurrencySymbol: "€",
		RejectPolicy:            "skip",
		LoadTimeout:             5 * time.Second,
		LoadMaxRetries:          1,
		LoadRetryInitialDelay:   time.Millisecond,
		LoadRetryMaxDelay:       time.Millisecond,
		StorePath:               filepath.Join(dir, "runs.db"),
	}
}

func TestNewWithFileSource(t *testing.T) {
	a, err := New(context.Background(), fileConfig(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Store)
	snap, err := a.Service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 2)
	assert.Equal(t, []string{"C1", "C2"}, snap.Cohorts)

	runs, err := a.Store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewWithoutStore(t *testing.T) {
	cfg := fileConfig(t)
	cfg.StorePath = ""

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, a.Store)
	assert.NoError(t, a.Close())
}

func TestNewRejectsBadPolicy(t *testing.T) {
	cfg := fileConfig(t)
	cfg.RejectPolicy = "ignore"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
