package models

// DatasetResponse is one entry of the datasets index as received. Category
// lists may be missing (nil) and is_primary_data may be absent; run the
// record through the sanitizer before use.
type DatasetResponse struct {
	ID            string        `json:"id"`
	CollectionID  string        `json:"collection_id"`
	Name          string        `json:"name"`
	ExplorerURL   string        `json:"explorer_url"`
	CellCount     *int64        `json:"cell_count"`
	IsPrimaryData IsPrimaryData `json:"is_primary_data"`
	PublishedAt   float64       `json:"published_at"`
	RevisedAt     *float64      `json:"revised_at,omitempty"`
	OntologyCategories
}

// DatasetRow is a dataset joined with its collection: the dataset view model
// consumed by filters and tables.
type DatasetRow struct {
	ID                 string   `json:"id"`
	CollectionID       string   `json:"collection_id"`
	CollectionName     string   `json:"collection_name"` // "-" when the collection is unknown
	Name               string   `json:"name"`
	ExplorerURL        string   `json:"explorer_url"`
	CellCount          *int64   `json:"cell_count"`
	IsOverMaxCellCount bool     `json:"isOverMaxCellCount"`
	PublishedAt        float64  `json:"published_at"`
	RevisedAt          *float64 `json:"revised_at,omitempty"`
	Recency            float64  `json:"recency"`
	Categories
}

// CellCountValue returns the cell count and whether upstream reported one.
func (r DatasetRow) CellCountValue() (int64, bool) {
	if r.CellCount == nil {
		return 0, false
	}
	return *r.CellCount, true
}
