package upstream

import (
	"context"
	"errors"
	"fmt"

	"cellhub/pkg/logutils"
	"cellhub/pkg/models"
)

// Source is implemented by anything that can serve the two portal indexes:
// the live API, a local mirror, or a stored snapshot.
type Source interface {
	Name() string
	FetchCollections(ctx context.Context) ([]models.CollectionResponse, error)
	FetchDatasets(ctx context.Context) ([]models.DatasetResponse, error)
}

// FallbackSource asks each source in order and returns the first success.
// Each resource falls back on its own, so collections and datasets may come
// from different sources when only one request to the first source fails.
type FallbackSource struct {
	Sources []Source
}

// NewFallback creates a FallbackSource over the given sources.
func NewFallback(sources ...Source) *FallbackSource {
	return &FallbackSource{Sources: sources}
}

func (f *FallbackSource) Name() string { return "fallback" }

func (f *FallbackSource) FetchCollections(ctx context.Context) ([]models.CollectionResponse, error) {
	return firstOf(ctx, f.Sources, "collections", func(ctx context.Context, s Source) ([]models.CollectionResponse, error) {
		return s.FetchCollections(ctx)
	})
}

func (f *FallbackSource) FetchDatasets(ctx context.Context) ([]models.DatasetResponse, error) {
	return firstOf(ctx, f.Sources, "datasets", func(ctx context.Context, s Source) ([]models.DatasetResponse, error) {
		return s.FetchDatasets(ctx)
	})
}

func firstOf[T any](ctx context.Context, sources []Source, what string, fetch func(context.Context, Source) ([]T, error)) ([]T, error) {
	log := logutils.Component("upstream")
	if len(sources) == 0 {
		return nil, fmt.Errorf("%s: no sources configured", what)
	}

	var errs []error
	for _, src := range sources {
		out, err := fetch(ctx, src)
		if err == nil {
			if len(errs) > 0 {
				log.WithFields(logutils.Fields{"source": src.Name(), "resource": what}).Info("served from fallback source")
			}
			return out, nil
		}
		log.WithFields(logutils.Fields{"source": src.Name(), "resource": what, "error": err}).Warn("source failed")
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		// keep going unless the caller gave up
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%s: all sources failed: %w", what, errors.Join(errs...))
}
