// Package dashboard keeps the current registration snapshot and serves
// dashboard tables computed from it.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"registration-analytics/internal/loader"
	"registration-analytics/internal/logger"
	"registration-analytics/internal/metrics"
	"registration-analytics/internal/model"
	"registration-analytics/internal/pipeline"
)

// RunStore records refresh runs
type RunStore interface {
	SaveRun(ctx context.Context, runID, collection string) error
	UpdateRunStatus(ctx context.Context, runID, status string) error
	FinishRun(ctx context.Context, runID string, loaded, accepted, rejected int, runErr error) error
	SaveRunErrors(ctx context.Context, runErrors []model.RunError) error
}

// Snapshot is an immutable derived record set from one load
type Snapshot struct {
	RunID    string
	LoadedAt time.Time
	Total    int
	Records  []model.DerivedRecord
	Cohorts  []string
	Rejected []*pipeline.RecordError
}

// Options configures a Service
type Options struct {
	Collection  string
	Pipeline    pipeline.Options
	TTL         time.Duration // 0 keeps a snapshot until the next explicit refresh
	LoadTimeout time.Duration
}

// Service owns the current snapshot. Once a snapshot exists readers never
// wait for a load: an expired snapshot keeps being served while a single
// background refresh replaces it.
type Service struct {
	loader  loader.Loader
	store   RunStore
	metrics *metrics.Metrics
	opts    Options
	now     func() time.Time

	mu          sync.RWMutex
	current     *Snapshot
	attemptedAt time.Time // start of the latest refresh, successful or not

	refreshMu sync.Mutex
}

// NewService creates a Service. store and m may be nil.
func NewService(l loader.Loader, store RunStore, m *metrics.Metrics, opts Options) *Service {
	return &Service{
		loader:  l,
		store:   store,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

// Current returns the current snapshot without refreshing, or nil
func (s *Service) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshot returns the current snapshot. Only the first call, before any
// snapshot exists, loads synchronously. An expired snapshot is returned as
// is and a background refresh is started.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.Current(); snap != nil {
		if s.due() {
			s.refreshInBackground()
		}
		return snap, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another caller may have loaded while we waited
	if snap := s.Current(); snap != nil {
		return snap, nil
	}
	return s.refresh(ctx)
}

// Refresh loads a new snapshot and makes it current. On failure the
// previous snapshot stays current.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

// due reports whether the TTL has passed since the last refresh attempt.
// Measuring from the attempt keeps a failing source from being hit on
// every request.
func (s *Service) due() bool {
	if s.opts.TTL <= 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().Sub(s.attemptedAt) > s.opts.TTL
}

// refreshInBackground starts a refresh unless one is already running
func (s *Service) refreshInBackground() {
	if !s.refreshMu.TryLock() {
		return
	}
	go func() {
		defer s.refreshMu.Unlock()
		if _, err := s.refresh(context.Background()); err != nil {
			logger.GetAppLogger().WithError(err).Warn("Background refresh failed, serving previous snapshot")
		}
	}()
}

func (s *Service) refresh(ctx context.Context) (*Snapshot, error) {
	runID := uuid.New().String()
	start := s.now()
	s.mu.Lock()
	s.attemptedAt = start
	s.mu.Unlock()
	log := logger.GetAppLogger().WithFields(logrus.Fields{
		"run_id":     runID,
		"collection": s.opts.Collection,
	})
	log.Info("Starting snapshot refresh")

	s.track(ctx, log, func(st RunStore) error { return st.SaveRun(ctx, runID, s.opts.Collection) })

	snap, err := s.load(ctx, runID, log)

	loaded, accepted, rejected := 0, 0, 0
	if snap != nil {
		loaded, accepted, rejected = snap.Total, len(snap.Records), len(snap.Rejected)
	}
	took := s.now().Sub(start)
	s.metrics.ObserveRefresh(loaded, accepted, rejected, took, err)
	s.track(ctx, log, func(st RunStore) error {
		return st.FinishRun(context.WithoutCancel(ctx), runID, loaded, accepted, rejected, err)
	})

	if err != nil {
		log.WithError(err).Error("Snapshot refresh failed")
		return nil, err
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	log.WithFields(logrus.Fields{
		"loaded":      loaded,
		"accepted":    accepted,
		"rejected":    rejected,
		"duration_ms": took.Milliseconds(),
	}).Info("Snapshot refresh completed")
	return snap, nil
}

func (s *Service) load(ctx context.Context, runID string, log *logrus.Entry) (*Snapshot, error) {
	s.track(ctx, log, func(st RunStore) error { return st.UpdateRunStatus(ctx, runID, model.RunStatusLoading) })

	loadCtx := ctx
	if s.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, s.opts.LoadTimeout)
		defer cancel()
	}
	raw, err := s.loader.Load(loadCtx, s.opts.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.opts.Collection, err)
	}

	s.track(ctx, log, func(st RunStore) error { return st.UpdateRunStatus(ctx, runID, model.RunStatusDeriving) })

	res, err := pipeline.Derive(raw, s.opts.Pipeline)
	snap := &Snapshot{
		RunID:    runID,
		LoadedAt: s.now(),
		Total:    res.Total,
		Records:  res.Records,
		Cohorts:  pipeline.Distinct(res.Records, model.FieldCohort),
		Rejected: res.Rejected,
	}

	if len(res.Rejected) > 0 {
		for i, rej := range res.Rejected {
			if i == 5 {
				log.Warnf("... and %d more rejected records", len(res.Rejected)-i)
				break
			}
			log.WithError(rej).Warn("Record rejected")
		}
		s.track(ctx, log, func(st RunStore) error { return st.SaveRunErrors(ctx, runErrors(runID, res.Rejected)) })
	}

	return snap, err
}

// track runs a store operation if a store is configured; failures are logged only
func (s *Service) track(ctx context.Context, log *logrus.Entry, op func(RunStore) error) {
	if s.store == nil {
		return
	}
	if err := op(s.store); err != nil {
		log.WithError(err).Warn("Failed to record run state")
	}
}

func runErrors(runID string, rejected []*pipeline.RecordError) []model.RunError {
	out := make([]model.RunError, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, model.RunError{
			RunID:       runID,
			RecordIndex: r.Index,
			RecordID:    r.ID,
			Field:       r.Field,
			Message:     r.Err.Error(),
		})
	}
	return out
}

// Dashboard returns every table for cohort. An empty cohort selects the
// first cohort of the snapshot.
func (s *Service) Dashboard(ctx context.Context, cohort string) (model.Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return model.Dashboard{}, err
	}
	return pipeline.BuildDashboard(snap.Records, defaultCohort(snap, cohort))
}

// Table returns one named table for cohort
func (s *Service) Table(ctx context.Context, cohort, name string) (model.Table, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return model.Table{}, err
	}
	return pipeline.BuildTable(snap.Records, defaultCohort(snap, cohort), name)
}

// Cohorts returns the cohorts of the current snapshot in first-seen order
func (s *Service) Cohorts(ctx context.Context) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Cohorts, nil
}

func defaultCohort(snap *Snapshot, cohort string) string {
	if cohort == "" && len(snap.Cohorts) > 0 {
		return snap.Cohorts[0]
	}
	return cohort
}
