package loader

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"registration-analytics/internal/logger"
	"registration-analytics/internal/model"
)

// RetryLoader retries a Loader with exponential backoff. ErrNotFound and
// context errors are not retried.
type RetryLoader struct {
	next   Loader
	config model.RetryConfig
}

// NewRetryLoader wraps next. Zero fields of config take their defaults.
func NewRetryLoader(next Loader, config model.RetryConfig) *RetryLoader {
	if config.InitialDelay <= 0 {
		config.InitialDelay = model.DefaultRetryConfig.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = model.DefaultRetryConfig.MaxDelay
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = model.DefaultRetryConfig.BackoffFactor
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &RetryLoader{next: next, config: config}
}

// Load implements Loader
func (l *RetryLoader) Load(ctx context.Context, collection string) ([]model.RawRecord, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.config.InitialDelay
	b.MaxInterval = l.config.MaxDelay
	b.Multiplier = l.config.BackoffFactor

	log := logger.GetAppLogger().WithField("collection", collection)
	attempt := 0

	return backoff.Retry(ctx, func() ([]model.RawRecord, error) {
		attempt++
		records, err := l.next.Load(ctx, collection)
		if err == nil {
			return records, nil
		}
		if isPermanent(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(l.config.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithError(err).WithFields(logrus.Fields{
				"attempt":    attempt,
				"next_retry": next.String(),
			}).Warn("Load failed, retrying")
		}),
	)
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
