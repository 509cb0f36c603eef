package filter

import "cellhub/pkg/models"

// MissingCollectionName is shown for datasets whose collection is unknown.
const MissingCollectionName = "-"

// RowBuilder joins datasets with their collections.
type RowBuilder struct {
	// MaxCellCount is the largest cell count the explorer accepts.
	MaxCellCount int64
}

// ExpandIsPrimaryData converts the tri-state flag into a set: "both" becomes
// primary and secondary, a single value becomes a singleton and the empty
// sentinel becomes the empty set.
func ExpandIsPrimaryData(v models.IsPrimaryData) []models.IsPrimaryData {
	switch v {
	case models.PrimaryDataNone:
		return []models.IsPrimaryData{}
	case models.PrimaryDataBoth:
		return []models.IsPrimaryData{models.PrimaryDataPrimary, models.PrimaryDataSecondary}
	default:
		return []models.IsPrimaryData{v}
	}
}

// CheckIsOverMaxCellCount reports whether cellCount exceeds max. A null
// count is never over the limit.
func CheckIsOverMaxCellCount(cellCount *int64, max int64) bool {
	if cellCount == nil {
		return false
	}
	return *cellCount > max
}

// Recency is the revision time when known, else the publication time.
func Recency(publishedAt float64, revisedAt *float64) float64 {
	if revisedAt != nil && *revisedAt > 0 {
		return *revisedAt
	}
	return publishedAt
}

// BuildDatasetRow joins a sanitized dataset with its collection, which is
// nil for orphans. Category values come back sorted.
func (b RowBuilder) BuildDatasetRow(dataset models.DatasetResponse, collection *models.CollectionResponse) models.DatasetRow {
	collectionName := MissingCollectionName
	if collection != nil {
		collectionName = collection.Name
	}

	row := models.DatasetRow{
		ID:                 dataset.ID,
		CollectionID:       dataset.CollectionID,
		CollectionName:     collectionName,
		Name:               dataset.Name,
		ExplorerURL:        dataset.ExplorerURL,
		CellCount:          dataset.CellCount,
		IsOverMaxCellCount: CheckIsOverMaxCellCount(dataset.CellCount, b.MaxCellCount),
		PublishedAt:        dataset.PublishedAt,
		RevisedAt:          dataset.RevisedAt,
		Recency:            Recency(dataset.PublishedAt, dataset.RevisedAt),
	}
	for _, key := range models.OntologyCategoryKeys {
		row.SetOntologies(key, append([]models.Ontology{}, dataset.Ontologies(key)...))
	}
	row.IsPrimaryData = ExpandIsPrimaryData(dataset.IsPrimaryData)

	sortCategoryValues(&row.Categories)
	return row
}

// BuildDatasetRows joins every dataset with its collection from idx.
func (b RowBuilder) BuildDatasetRows(idx *CollectionIndex, datasets []models.DatasetResponse) []models.DatasetRow {
	rows := make([]models.DatasetRow, 0, len(datasets))
	for _, d := range datasets {
		var collection *models.CollectionResponse
		if c, ok := idx.Get(d.CollectionID); ok {
			collection = &c
		}
		rows = append(rows, b.BuildDatasetRow(d, collection))
	}
	return rows
}
