package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellhub/pkg/models"
)

func ont(labels ...string) []models.Ontology {
	out := make([]models.Ontology, 0, len(labels))
	for _, l := range labels {
		out = append(out, models.Ontology{Label: l, OntologyTermID: "term:" + l})
	}
	return out
}

func labelsOf(ontologies []models.Ontology) []string {
	out := make([]string, 0, len(ontologies))
	for _, o := range ontologies {
		out = append(out, o.Label)
	}
	return out
}

func int64p(v int64) *int64 { return &v }

func TestSanitizeDataset(t *testing.T) {
	t.Run("missing fields get defaults", func(t *testing.T) {
		var raw models.DatasetResponse
		require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","collection_id":"c1","tissue":null}`), &raw))

		got := SanitizeDataset(raw)
		for _, key := range models.OntologyCategoryKeys {
			assert.NotNil(t, got.Ontologies(key), key)
			assert.Empty(t, got.Ontologies(key), key)
		}
		assert.Equal(t, models.PrimaryDataNone, got.IsPrimaryData)
	})

	t.Run("present fields are kept and input is untouched", func(t *testing.T) {
		raw := models.DatasetResponse{ID: "d1", IsPrimaryData: models.PrimaryDataSecondary}
		raw.Tissue = ont("lung", "heart")

		got := SanitizeDataset(raw)
		assert.Equal(t, []string{"lung", "heart"}, labelsOf(got.Tissue))
		assert.Equal(t, models.PrimaryDataSecondary, got.IsPrimaryData)

		got.Tissue[0].Label = "changed"
		assert.Equal(t, "lung", raw.Tissue[0].Label)
		assert.Nil(t, raw.Assay)
	})
}

func TestUniqueOntologies(t *testing.T) {
	in := []models.Ontology{
		{Label: "lung", OntologyTermID: "a"},
		{Label: "heart", OntologyTermID: "b"},
		{Label: "lung", OntologyTermID: "c"},
		{Label: "Lung", OntologyTermID: "d"},
	}
	got := UniqueOntologies(in)
	assert.Equal(t, []models.Ontology{
		{Label: "lung", OntologyTermID: "a"},
		{Label: "heart", OntologyTermID: "b"},
		{Label: "Lung", OntologyTermID: "d"},
	}, got)

	assert.Empty(t, UniqueOntologies(nil))
}

func TestSortOntologies(t *testing.T) {
	got := SortOntologies(ont("Blood", "amnion"))
	assert.Equal(t, []string{"amnion", "Blood"}, labelsOf(got))

	mixed := ont("lung", "Heart", "blood", "Adipose")
	once := labelsOf(SortOntologies(mixed))
	twice := labelsOf(SortOntologies(mixed))
	assert.Equal(t, []string{"Adipose", "blood", "Heart", "lung"}, once)
	assert.Equal(t, once, twice)

	assert.Empty(t, SortOntologies(nil))

	assert.Negative(t, CompareOntologies(models.Ontology{Label: "amnion"}, models.Ontology{Label: "Blood"}))
	assert.Zero(t, CompareOntologies(models.Ontology{Label: "lung"}, models.Ontology{Label: "Lung"}))
}

func TestExpandIsPrimaryData(t *testing.T) {
	assert.Equal(t,
		[]models.IsPrimaryData{models.PrimaryDataPrimary, models.PrimaryDataSecondary},
		ExpandIsPrimaryData(models.PrimaryDataBoth))
	assert.Equal(t, []models.IsPrimaryData{models.PrimaryDataPrimary}, ExpandIsPrimaryData(models.PrimaryDataPrimary))
	assert.Equal(t, []models.IsPrimaryData{models.PrimaryDataSecondary}, ExpandIsPrimaryData(models.PrimaryDataSecondary))
	assert.Equal(t, []models.IsPrimaryData{}, ExpandIsPrimaryData(models.PrimaryDataNone))
	assert.Equal(t, []models.IsPrimaryData{"Both"}, ExpandIsPrimaryData("Both"), "matching is case sensitive")
}

func TestCheckIsOverMaxCellCount(t *testing.T) {
	assert.False(t, CheckIsOverMaxCellCount(nil, 10))
	assert.False(t, CheckIsOverMaxCellCount(int64p(10), 10))
	assert.True(t, CheckIsOverMaxCellCount(int64p(11), 10))
}

func TestKeyCollectionsByID(t *testing.T) {
	idx := KeyCollectionsByID([]models.CollectionResponse{
		{ID: "c1", Name: "first"},
		{ID: "c2", Name: "second"},
		{ID: "c1", Name: "first again"},
	})

	assert.Equal(t, 2, idx.Len())
	c, ok := idx.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "first again", c.Name)

	_, ok = idx.Get("missing")
	assert.False(t, ok)

	got := idx.Collections()
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "c2", got[1].ID)

	var nilIdx *CollectionIndex
	_, ok = nilIdx.Get("c1")
	assert.False(t, ok)
	assert.Zero(t, nilIdx.Len())
}

func TestBuildDatasetRows(t *testing.T) {
	b := RowBuilder{MaxCellCount: 100}
	idx := KeyCollectionsByID([]models.CollectionResponse{{ID: "c1", Name: "Study A"}})

	d1 := SanitizeDataset(models.DatasetResponse{ID: "d1", CollectionID: "c1", CellCount: int64p(500), IsPrimaryData: models.PrimaryDataPrimary})
	d1.Disease = ont("normal", "COVID-19", "asthma")
	orphan := SanitizeDataset(models.DatasetResponse{ID: "d2", CollectionID: "gone"})

	rows := b.BuildDatasetRows(idx, []models.DatasetResponse{d1, orphan})
	require.Len(t, rows, 2)

	assert.Equal(t, "Study A", rows[0].CollectionName)
	assert.True(t, rows[0].IsOverMaxCellCount)
	assert.Equal(t, []string{"asthma", "COVID-19", "normal"}, labelsOf(rows[0].Disease))
	assert.Equal(t, []string{"normal", "COVID-19", "asthma"}, labelsOf(d1.Disease), "input must not be reordered")

	assert.Equal(t, MissingCollectionName, rows[1].CollectionName)
	assert.False(t, rows[1].IsOverMaxCellCount)
	assert.Equal(t, []models.IsPrimaryData{}, rows[1].IsPrimaryData)
}

func TestRecency(t *testing.T) {
	revised := 20.0
	assert.Equal(t, 20.0, Recency(10, &revised))
	assert.Equal(t, 10.0, Recency(10, nil))
	zero := 0.0
	assert.Equal(t, 10.0, Recency(10, &zero))
}

func TestBuildCollectionRows(t *testing.T) {
	b := RowBuilder{MaxCellCount: 100}
	idx := KeyCollectionsByID([]models.CollectionResponse{
		{ID: "c2", Name: "Empty"},
		{ID: "c1", Name: "Study"},
	})

	d1 := SanitizeDataset(models.DatasetResponse{ID: "d1", CollectionID: "c1", IsPrimaryData: models.PrimaryDataSecondary})
	d1.Tissue = ont("lung")
	d2 := SanitizeDataset(models.DatasetResponse{ID: "d2", CollectionID: "c1", IsPrimaryData: models.PrimaryDataBoth})
	d2.Tissue = ont("lung", "heart")
	orphan := SanitizeDataset(models.DatasetResponse{ID: "d3", CollectionID: "nowhere"})
	orphan.Tissue = ont("brain")

	rows := BuildCollectionRows(idx, b.BuildDatasetRows(idx, []models.DatasetResponse{d1, d2, orphan}))
	require.Len(t, rows, 2)

	t.Run("rows follow index order", func(t *testing.T) {
		assert.Equal(t, "c2", rows[0].ID)
		assert.Equal(t, "c1", rows[1].ID)
	})

	t.Run("empty collection has empty categories", func(t *testing.T) {
		empty := rows[0]
		for _, key := range models.OntologyCategoryKeys {
			assert.NotNil(t, empty.Ontologies(key), key)
			assert.Empty(t, empty.Ontologies(key), key)
		}
		assert.NotNil(t, empty.IsPrimaryData)
		assert.Empty(t, empty.IsPrimaryData)
	})

	t.Run("categories are unioned and sorted", func(t *testing.T) {
		study := rows[1]
		assert.Equal(t, []string{"heart", "lung"}, labelsOf(study.Tissue))
		assert.Equal(t,
			[]models.IsPrimaryData{models.PrimaryDataPrimary, models.PrimaryDataSecondary},
			study.IsPrimaryData)
	})

	t.Run("orphans never surface", func(t *testing.T) {
		for _, r := range rows {
			assert.NotContains(t, labelsOf(r.Tissue), "brain")
		}
	})
}

func TestPipelineEndToEnd(t *testing.T) {
	var collections []models.CollectionResponse
	require.NoError(t, json.Unmarshal([]byte(
		`[{"id":"c1","name":"Study A","published_at":1,"revised_at":2}]`), &collections))

	var datasets []models.DatasetResponse
	require.NoError(t, json.Unmarshal([]byte(`[{
		"id":"d1","collection_id":"c1","name":"DS1","cell_count":5000,"is_primary_data":"both",
		"tissue":[{"label":"Lung","ontology_term_id":"x"}],
		"assay":[],"cell_type":[],"disease":[],"organism":[],"sex":[]
	}]`), &datasets))

	idx := KeyCollectionsByID(collections)
	b := RowBuilder{MaxCellCount: 4_000_000}
	datasetRows := b.BuildDatasetRows(idx, SanitizeDatasets(datasets))
	collectionRows := BuildCollectionRows(idx, datasetRows)

	require.Len(t, datasetRows, 1)
	row := datasetRows[0]
	assert.Equal(t, "Study A", row.CollectionName)
	assert.False(t, row.IsOverMaxCellCount)
	assert.Equal(t, []models.IsPrimaryData{models.PrimaryDataPrimary, models.PrimaryDataSecondary}, row.IsPrimaryData)
	assert.Equal(t, []models.Ontology{{Label: "Lung", OntologyTermID: "x"}}, row.Tissue)

	require.Len(t, collectionRows, 1)
	coll := collectionRows[0]
	assert.Equal(t, "c1", coll.ID)
	assert.Equal(t, 2.0, coll.Recency)
	assert.Equal(t, row.Tissue, coll.Tissue)
	assert.Equal(t, row.IsPrimaryData, coll.IsPrimaryData)

	b2, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(b2), `"collection_name":"Study A"`)
	assert.Contains(t, string(b2), `"is_primary_data":["primary","secondary"]`)
	assert.Contains(t, string(b2), `"assay":[]`)
}
