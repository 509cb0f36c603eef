package grpcserver

import "cellhub/pkg/models"

type ListRowsRequest struct {
	Q            string              `json:"q,omitempty"`
	Categories   map[string][]string `json:"categories,omitempty"`
	MinCellCount *int64              `json:"min_cell_count,omitempty"`
	MaxCellCount *int64              `json:"max_cell_count,omitempty"`
	Sort         string              `json:"sort,omitempty"`  // "recency" or "name"
	Order        string              `json:"order,omitempty"` // "asc" or "desc"
	Limit        int32               `json:"limit,omitempty"`
	Offset       int32               `json:"offset,omitempty"`
}

type ListCollectionRowsResponse struct {
	Total  int32                  `json:"total"`
	Limit  int32                  `json:"limit"`
	Offset int32                  `json:"offset"`
	Items  []models.CollectionRow `json:"items"`
}

type ListDatasetRowsResponse struct {
	Total  int32               `json:"total"`
	Limit  int32               `json:"limit"`
	Offset int32               `json:"offset"`
	Items  []models.DatasetRow `json:"items"`
}

type ListCollectionDatasetsRequest struct {
	CollectionID string `json:"collection_id"`
}
