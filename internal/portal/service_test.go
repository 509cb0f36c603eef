package portal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellhub/internal/filter"
	"cellhub/internal/querycache"
	"cellhub/pkg/models"
)

type fakeSource struct {
	collections    []models.CollectionResponse
	datasets       []models.DatasetResponse
	collectionsErr error
	datasetsErr    error
	gate           chan struct{}

	collectionCalls atomic.Int32
	datasetCalls    atomic.Int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) FetchCollections(ctx context.Context) ([]models.CollectionResponse, error) {
	f.collectionCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.collections, f.collectionsErr
}

func (f *fakeSource) FetchDatasets(ctx context.Context) ([]models.DatasetResponse, error) {
	f.datasetCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.datasets, f.datasetsErr
}

func ont(labels ...string) []models.Ontology {
	out := make([]models.Ontology, 0, len(labels))
	for _, l := range labels {
		out = append(out, models.Ontology{Label: l})
	}
	return out
}

func int64p(v int64) *int64 { return &v }

func newFixture() *fakeSource {
	return &fakeSource{
		collections: []models.CollectionResponse{
			{ID: "c1", Name: "Lung atlas", PublishedAt: 10},
			{ID: "c2", Name: "Empty", PublishedAt: 20},
		},
		datasets: []models.DatasetResponse{
			{
				ID: "d1", CollectionID: "c1", Name: "Airway", CellCount: int64p(5_000_000),
				IsPrimaryData:      models.PrimaryDataBoth,
				OntologyCategories: models.OntologyCategories{Tissue: ont("lung"), Disease: ont("normal")},
			},
			{
				ID: "d2", CollectionID: "c1", Name: "Parenchyma", CellCount: int64p(100),
				IsPrimaryData:      models.PrimaryDataPrimary,
				OntologyCategories: models.OntologyCategories{Tissue: ont("Heart", "lung")},
			},
			{ID: "d3", CollectionID: "gone", Name: "Orphan"},
		},
	}
}

func newTestService(src *fakeSource) *Service {
	return NewService(src, querycache.New(), 4_000_000)
}

func TestFetchDatasetRows(t *testing.T) {
	svc := newTestService(newFixture())

	res := svc.FetchDatasetRows(context.Background())
	require.NoError(t, res.Err)
	assert.False(t, res.IsError)
	assert.False(t, res.IsLoading)
	require.Len(t, res.Rows, 3)

	d1 := res.Rows[0]
	assert.Equal(t, "Lung atlas", d1.CollectionName)
	assert.True(t, d1.IsOverMaxCellCount)
	assert.Equal(t, []models.IsPrimaryData{models.PrimaryDataPrimary, models.PrimaryDataSecondary}, d1.IsPrimaryData)
	assert.NotNil(t, d1.Assay)

	assert.Equal(t, filter.MissingCollectionName, res.Rows[2].CollectionName)
	assert.Empty(t, res.Rows[2].IsPrimaryData)
}

func TestFetchCollectionRows(t *testing.T) {
	svc := newTestService(newFixture())

	res := svc.FetchCollectionRows(context.Background())
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 2)

	c1 := res.Rows[0]
	assert.Equal(t, "c1", c1.ID)
	var tissues []string
	for _, o := range c1.Tissue {
		tissues = append(tissues, o.Label)
	}
	assert.Equal(t, []string{"Heart", "lung"}, tissues)
	assert.Equal(t, []models.IsPrimaryData{models.PrimaryDataPrimary, models.PrimaryDataSecondary}, c1.IsPrimaryData)

	c2 := res.Rows[1]
	assert.Equal(t, "c2", c2.ID)
	assert.Empty(t, c2.Tissue)
	assert.Empty(t, c2.IsPrimaryData)
}

func TestFetchCollectionDatasetRows(t *testing.T) {
	svc := newTestService(newFixture())

	res := svc.FetchCollectionDatasetRows(context.Background(), "c1")
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "d1", res.Rows[0].ID)
	assert.Equal(t, "d2", res.Rows[1].ID)

	assert.Empty(t, svc.FetchCollectionDatasetRows(context.Background(), "c2").Rows)
	gone := svc.FetchCollectionDatasetRows(context.Background(), "gone")
	assert.False(t, gone.IsError)
	assert.Empty(t, gone.Rows, "orphans referencing an unindexed id are not a collection")
}

func TestEitherFailureIsError(t *testing.T) {
	t.Run("datasets", func(t *testing.T) {
		src := newFixture()
		src.datasetsErr = errors.New("503")
		res := newTestService(src).FetchCollectionRows(context.Background())
		assert.True(t, res.IsError)
		assert.Empty(t, res.Rows)
		assert.ErrorContains(t, res.Err, "datasets: 503")
	})

	t.Run("collections", func(t *testing.T) {
		src := newFixture()
		src.collectionsErr = errors.New("timeout")
		res := newTestService(src).FetchDatasetRows(context.Background())
		assert.True(t, res.IsError)
		assert.Empty(t, res.Rows)
		assert.ErrorContains(t, res.Err, "collections: timeout")
	})

	t.Run("retried after failure", func(t *testing.T) {
		src := newFixture()
		src.datasetsErr = errors.New("503")
		svc := newTestService(src)
		require.True(t, svc.FetchDatasetRows(context.Background()).IsError)

		src.datasetsErr = nil
		res := svc.FetchDatasetRows(context.Background())
		assert.False(t, res.IsError)
		assert.Len(t, res.Rows, 3)
		assert.Equal(t, int32(2), src.datasetCalls.Load())
		assert.Equal(t, int32(1), src.collectionCalls.Load())
	})
}

func TestNonBlockingRowsWhileLoading(t *testing.T) {
	src := newFixture()
	src.gate = make(chan struct{})
	svc := newTestService(src)

	res := svc.DatasetRows()
	assert.True(t, res.IsLoading)
	assert.False(t, res.IsError)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)

	close(src.gate)
	require.Eventually(t, func() bool {
		return !svc.CollectionRows().IsLoading
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, svc.CollectionRows().Rows, 2)
	assert.Equal(t, int32(1), src.collectionCalls.Load())
	assert.Equal(t, int32(1), src.datasetCalls.Load())
}

func TestDerivedRowsAreMemoized(t *testing.T) {
	src := newFixture()
	svc := newTestService(src)

	first := svc.FetchDatasetRows(context.Background()).Rows
	second := svc.FetchDatasetRows(context.Background()).Rows
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0])

	svc.Invalidate()
	third := svc.FetchDatasetRows(context.Background()).Rows
	require.NotEmpty(t, third)
	assert.NotSame(t, &first[0], &third[0])
	assert.Equal(t, first, third)
	assert.Equal(t, int32(2), src.datasetCalls.Load())
}

func TestFacets(t *testing.T) {
	svc := newTestService(newFixture())

	idx, err := svc.DatasetFacets(context.Background())
	require.NoError(t, err)
	rows := idx.Filter(filter.Selection{
		Categories: map[models.CategoryKey][]string{models.CategoryTissue: {"Heart"}},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "d2", rows[0].ID)

	cidx, err := svc.CollectionFacets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cidx.Len())

	src := newFixture()
	src.collectionsErr = errors.New("down")
	_, err = newTestService(src).DatasetFacets(context.Background())
	assert.Error(t, err)
}
