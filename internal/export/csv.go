// Package export writes row view models as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cellhub/pkg/models"
)

// listSep joins multi-valued cells.
const listSep = ";"

var datasetHeader = []string{
	"id", "name", "collection_id", "collection_name", "cell_count", "is_over_max_cell_count",
	"assay", "cell_type", "disease", "organism", "sex", "tissue", "is_primary_data",
	"published_at", "revised_at", "recency", "explorer_url",
}

var collectionHeader = []string{
	"id", "name",
	"assay", "cell_type", "disease", "organism", "sex", "tissue", "is_primary_data",
	"published_at", "revised_at", "recency",
}

func WriteDatasetRows(out io.Writer, rows []models.DatasetRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(datasetHeader); err != nil {
		return err
	}
	for _, r := range rows {
		cellCount := ""
		if n, ok := r.CellCountValue(); ok {
			cellCount = strconv.FormatInt(n, 10)
		}
		revised := ""
		if r.RevisedAt != nil {
			revised = formatFloat(*r.RevisedAt)
		}

		record := []string{r.ID, r.Name, r.CollectionID, r.CollectionName, cellCount, strconv.FormatBool(r.IsOverMaxCellCount)}
		record = append(record, categoryCells(r.Categories)...)
		record = append(record, formatFloat(r.PublishedAt), revised, formatFloat(r.Recency), r.ExplorerURL)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write dataset %s: %w", r.ID, err)
		}
	}
	w.Flush()
	return w.Error()
}

func WriteCollectionRows(out io.Writer, rows []models.CollectionRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(collectionHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.ID, r.Name}
		record = append(record, categoryCells(r.Categories)...)
		record = append(record, formatFloat(r.PublishedAt), formatFloat(r.RevisedAt), formatFloat(r.Recency))
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write collection %s: %w", r.ID, err)
		}
	}
	w.Flush()
	return w.Error()
}

// categoryCells renders the categories in header order.
func categoryCells(c models.Categories) []string {
	cells := make([]string, 0, len(models.CategoryKeys))
	for _, key := range models.CategoryKeys {
		cells = append(cells, strings.Join(c.CategoryValues(key), listSep))
	}
	return cells
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
