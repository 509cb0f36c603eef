package filter

import "cellhub/pkg/models"

// GroupDatasetRowsByCollection groups rows under their collection id,
// orphans included. Rows keep their relative order within a group.
func GroupDatasetRowsByCollection(rows []models.DatasetRow) map[string][]models.DatasetRow {
	out := make(map[string][]models.DatasetRow)
	for _, row := range rows {
		out[row.CollectionID] = append(out[row.CollectionID], row)
	}
	return out
}

// AggregateCollectionDatasetRows unions each category over the given rows.
// Ontology lists are de-duplicated by label; the result is not yet sorted.
func AggregateCollectionDatasetRows(rows []models.DatasetRow) models.Categories {
	var acc models.Categories
	for _, key := range models.OntologyCategoryKeys {
		var values []models.Ontology
		for _, row := range rows {
			values = append(values, row.Ontologies(key)...)
		}
		acc.SetOntologies(key, UniqueOntologies(values))
	}

	seen := make(map[models.IsPrimaryData]struct{})
	acc.IsPrimaryData = []models.IsPrimaryData{}
	for _, row := range rows {
		for _, v := range row.IsPrimaryData {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			acc.IsPrimaryData = append(acc.IsPrimaryData, v)
		}
	}
	return acc
}

// BuildCollectionRows emits one row per indexed collection, in index order,
// carrying the aggregated categories of its datasets. Collections without
// datasets get empty categories; datasets of unknown collections never
// appear.
func BuildCollectionRows(idx *CollectionIndex, datasetRows []models.DatasetRow) []models.CollectionRow {
	byCollection := GroupDatasetRowsByCollection(datasetRows)

	rows := make([]models.CollectionRow, 0, idx.Len())
	for _, c := range idx.Collections() {
		row := models.CollectionRow{
			ID:          c.ID,
			Name:        c.Name,
			PublishedAt: c.PublishedAt,
			RevisedAt:   c.RevisedAt,
			Recency:     Recency(c.PublishedAt, &c.RevisedAt),
			Categories:  AggregateCollectionDatasetRows(byCollection[c.ID]),
		}
		sortCategoryValues(&row.Categories)
		rows = append(rows, row)
	}
	return rows
}
