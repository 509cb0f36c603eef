package models

// CollectionResponse is one entry of the collections index: only the core
// fields needed to join datasets and sort by recency.
type CollectionResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PublishedAt float64 `json:"published_at"`
	RevisedAt   float64 `json:"revised_at"`
}

// CollectionRow is the collection view model: core collection fields plus
// the union of every category across the collection's datasets.
type CollectionRow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PublishedAt float64 `json:"published_at"`
	RevisedAt   float64 `json:"revised_at"`
	Recency     float64 `json:"recency"`
	Categories
}
