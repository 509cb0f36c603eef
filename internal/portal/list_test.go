package portal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellhub/internal/filter"
	"cellhub/pkg/models"
)

func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{Sort: "bogus", Limit: 10_000, Offset: -4}.Normalize()
	assert.Equal(t, SortRecency, q.Sort)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
}

func TestListDatasetRows(t *testing.T) {
	src := newFixture()
	src.datasets[0].PublishedAt = 30
	src.datasets[1].PublishedAt = 10
	src.datasets[2].PublishedAt = 20
	svc := newTestService(src)
	ctx := context.Background()

	page, err := svc.ListDatasetRows(ctx, ListQuery{Desc: true})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"d1", "d3", "d2"}, rowIDs(page.Items))

	page, err = svc.ListDatasetRows(ctx, ListQuery{Sort: SortName, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d3"}, rowIDs(page.Items))

	page, err = svc.ListDatasetRows(ctx, ListQuery{Sort: SortName, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, rowIDs(page.Items))

	page, err = svc.ListDatasetRows(ctx, ListQuery{Offset: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)

	page, err = svc.ListDatasetRows(ctx, ListQuery{
		Q:         "PAR",
		Selection: filter.Selection{Categories: map[models.CategoryKey][]string{models.CategoryTissue: {"lung"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, rowIDs(page.Items))

	// sorting a page never reorders the shared rows
	all := svc.FetchDatasetRows(ctx).Rows
	assert.Equal(t, []string{"d1", "d2", "d3"}, rowIDs(all))
}

func TestCollectionDatasets(t *testing.T) {
	svc := newTestService(newFixture())
	ctx := context.Background()

	rows, err := svc.CollectionDatasets(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = svc.CollectionDatasets(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	_, err = svc.CollectionDatasets(ctx, "gone")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func rowIDs(rows []models.DatasetRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
