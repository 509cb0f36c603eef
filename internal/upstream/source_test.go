package upstream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellhub/pkg/models"
)

type stubSource struct {
	name        string
	collections []models.CollectionResponse
	datasets    []models.DatasetResponse
	err         error
	calls       int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchCollections(context.Context) ([]models.CollectionResponse, error) {
	s.calls++
	return s.collections, s.err
}

func (s *stubSource) FetchDatasets(context.Context) ([]models.DatasetResponse, error) {
	s.calls++
	return s.datasets, s.err
}

func TestFallbackSource(t *testing.T) {
	down := &stubSource{name: "live", err: errors.New("connection refused")}
	stored := &stubSource{
		name:        "snapshot",
		collections: []models.CollectionResponse{{ID: "c1"}},
		datasets:    []models.DatasetResponse{{ID: "d1"}},
	}

	f := NewFallback(down, stored)
	collections, err := f.FetchCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c1", collections[0].ID)

	datasets, err := f.FetchDatasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d1", datasets[0].ID)
	assert.Equal(t, 2, down.calls)

	t.Run("first success wins", func(t *testing.T) {
		stored.calls = 0
		_, err := NewFallback(stored, down).FetchDatasets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stored.calls)
	})

	t.Run("all fail", func(t *testing.T) {
		other := &stubSource{name: "mirror", err: errors.New("no such host")}
		_, err := NewFallback(down, other).FetchCollections(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "live: connection refused")
		assert.ErrorContains(t, err, "mirror: no such host")
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := NewFallback().FetchDatasets(context.Background())
		assert.Error(t, err)
	})
}

// collectionsDown fails only the collections index.
type collectionsDown struct{ stubSource }

func (s *collectionsDown) FetchCollections(context.Context) ([]models.CollectionResponse, error) {
	return nil, errors.New("502 bad gateway")
}

func TestFallbackIsPerResource(t *testing.T) {
	live := &collectionsDown{stubSource{name: "live", datasets: []models.DatasetResponse{{ID: "d-live"}}}}
	stored := &stubSource{
		name:        "snapshot",
		collections: []models.CollectionResponse{{ID: "c-stored"}},
		datasets:    []models.DatasetResponse{{ID: "d-stored"}},
	}
	f := NewFallback(live, stored)

	collections, err := f.FetchCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c-stored", collections[0].ID)

	datasets, err := f.FetchDatasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d-live", datasets[0].ID)
	assert.Equal(t, 1, stored.calls)
}
