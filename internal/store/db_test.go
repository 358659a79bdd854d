package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration-analytics/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", "CourseRegistration"))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPending, run.Status)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, s.UpdateRunStatus(ctx, "run-1", model.RunStatusLoading))
	require.NoError(t, s.FinishRun(ctx, "run-1", 10, 8, 2, nil))

	run, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, "CourseRegistration", run.Collection)
	assert.Equal(t, 10, run.Loaded)
	assert.Equal(t, 8, run.Accepted)
	assert.Equal(t, 2, run.Rejected)
	require.NotNil(t, run.FinishedAt)
}

func TestFinishRunWithError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", "CourseRegistration"))
	require.NoError(t, s.FinishRun(ctx, "run-1", 0, 0, 0, errors.New("connection refused")))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "connection refused", run.Error)
}

func TestUnknownRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.UpdateRunStatus(ctx, "missing", model.RunStatusLoading), ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "old", "CourseRegistration"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.SaveRun(ctx, "new", "CourseRegistration"))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)

	runs, err = s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", "CourseRegistration"))
	require.NoError(t, s.SaveRunErrors(ctx, []model.RunError{
		{RunID: "run-1", RecordIndex: 4, Field: "createdAt", Message: "malformed timestamp"},
		{RunID: "run-1", RecordIndex: 1, RecordID: "doc-1", Field: "paymentCurrency", Message: "missing field"},
	}))
	require.NoError(t, s.SaveRunErrors(ctx, nil))

	errs, err := s.GetRunErrors(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, 1, errs[0].RecordIndex)
	assert.Equal(t, "doc-1", errs[0].RecordID)
	assert.Equal(t, "createdAt", errs[1].Field)

	errs, err = s.GetRunErrors(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, errs)
}
