// Package loader retrieves raw registration documents from a record source.
package loader

import (
	"context"
	"errors"

	"registration-analytics/internal/model"
)

// ErrNotFound is returned when the source or collection does not exist.
// Retrying does not help.
var ErrNotFound = errors.New("source not found")

// Loader returns every document of a named collection, fully materialized
type Loader interface {
	Load(ctx context.Context, collection string) ([]model.RawRecord, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, collection string) ([]model.RawRecord, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context, collection string) ([]model.RawRecord, error) {
	return f(ctx, collection)
}
