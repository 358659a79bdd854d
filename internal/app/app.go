// Package app assembles the dashboard service from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"registration-analytics/config"
	"registration-analytics/internal/dashboard"
	"registration-analytics/internal/loader"
	"registration-analytics/internal/logger"
	"registration-analytics/internal/metrics"
	"registration-analytics/internal/model"
	"registration-analytics/internal/pipeline"
	"registration-analytics/internal/store"
)

// App owns the long-lived resources behind the dashboard
type App struct {
	Config   *config.Configuration
	Service  *dashboard.Service
	Store    *store.Store // nil when STORE_PATH is empty
	Registry *prometheus.Registry

	closers []func() error
}

// New connects to the record source and run store and builds the service
func New(ctx context.Context, cfg *config.Configuration) (*App, error) {
	policy, err := pipeline.ParseRejectPolicy(cfg.RejectPolicy)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	source, err := a.newLoader(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var runs dashboard.RunStore
	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		a.Store = st
		a.closers = append(a.closers, st.Close)
		runs = st
	}

	a.Service = dashboard.NewService(source, runs, metrics.New(a.Registry), dashboard.Options{
		Collection: cfg.Collection,
		Pipeline: pipeline.Options{
			ReferenceCurrency: cfg.ReferenceCurrencySymbol,
			RejectPolicy:      policy,
		},
		TTL:         cfg.SnapshotTTL,
		LoadTimeout: cfg.LoadTimeout,
	})
	return a, nil
}

func (a *App) newLoader(ctx context.Context) (loader.Loader, error) {
	var source loader.Loader
	switch a.Config.SourceType {
	case "file":
		source = loader.NewFileLoader(a.Config.SourceURL)
	case "mongo":
		client, err := loader.Connect(ctx, a.Config.MongoDBConnectionURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return loader.Disconnect(client) })
		source = loader.NewMongoLoader(client, a.Config.MongoDBName)
	default:
		return nil, fmt.Errorf("unknown source type %q", a.Config.SourceType)
	}

	logger.GetAppLogger().WithField("source", a.Config.SourceType).Info("Record source configured")
	return loader.NewRetryLoader(source, model.RetryConfig{
		MaxRetries:    a.Config.LoadMaxRetries,
		InitialDelay:  a.Config.LoadRetryInitialDelay,
		MaxDelay:      a.Config.LoadRetryMaxDelay,
		BackoffFactor: model.DefaultRetryConfig.BackoffFactor,
	}), nil
}

// Close releases every resource in reverse order of acquisition
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
