package portal

import (
	"context"
	"errors"
	"slices"
	"strings"

	"cellhub/internal/filter"
	"cellhub/pkg/models"
)

const (
	SortRecency = "recency"
	SortName    = "name"

	DefaultLimit = 50
	MaxLimit     = 500
)

var ErrCollectionNotFound = errors.New("collection not found")

// ListQuery narrows, orders and pages a row listing.
type ListQuery struct {
	Q         string
	Selection filter.Selection
	Sort      string // SortRecency (default) or SortName
	Desc      bool
	Limit     int
	Offset    int
}

// Normalize fills defaults and clamps paging.
func (q ListQuery) Normalize() ListQuery {
	if q.Sort != SortName {
		q.Sort = SortRecency
	}
	if q.Limit <= 0 || q.Limit > MaxLimit {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

type Page[T any] struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Items  []T `json:"items"`
}

// ListDatasetRows filters the dataset rows with q and returns one page.
func (s *Service) ListDatasetRows(ctx context.Context, q ListQuery) (Page[models.DatasetRow], error) {
	idx, err := s.DatasetFacets(ctx)
	if err != nil {
		return Page[models.DatasetRow]{}, err
	}
	return list(idx.Filter(q.Selection), q.Normalize(), datasetAccess), nil
}

// ListCollectionRows is ListDatasetRows for collections. A cell count range
// does not apply to collections and is ignored.
func (s *Service) ListCollectionRows(ctx context.Context, q ListQuery) (Page[models.CollectionRow], error) {
	idx, err := s.CollectionFacets(ctx)
	if err != nil {
		return Page[models.CollectionRow]{}, err
	}
	q.Selection.CellCount = nil
	return list(idx.Filter(q.Selection), q.Normalize(), collectionAccess), nil
}

// CollectionDatasets returns the dataset rows of a known collection, or
// ErrCollectionNotFound.
func (s *Service) CollectionDatasets(ctx context.Context, collectionID string) ([]models.DatasetRow, error) {
	st := s.load(ctx)
	if st.d == nil {
		return nil, st.failure()
	}
	if _, ok := st.collections.Data.Get(collectionID); !ok {
		return nil, ErrCollectionNotFound
	}
	rows := st.d.byCollection[collectionID]
	if rows == nil {
		rows = []models.DatasetRow{}
	}
	return rows, nil
}

type rowAccess[T any] struct {
	name    func(T) string
	recency func(T) float64
}

var datasetAccess = rowAccess[models.DatasetRow]{
	name:    func(r models.DatasetRow) string { return r.Name },
	recency: func(r models.DatasetRow) float64 { return r.Recency },
}

var collectionAccess = rowAccess[models.CollectionRow]{
	name:    func(r models.CollectionRow) string { return r.Name },
	recency: func(r models.CollectionRow) float64 { return r.Recency },
}

func list[T any](rows []T, q ListQuery, acc rowAccess[T]) Page[T] {
	matched := make([]T, 0, len(rows))
	kw := strings.ToLower(strings.TrimSpace(q.Q))
	for _, r := range rows {
		if kw == "" || strings.Contains(strings.ToLower(acc.name(r)), kw) {
			matched = append(matched, r)
		}
	}

	var cmp func(a, b T) int
	switch q.Sort {
	case SortName:
		labels := filter.LabelComparator()
		cmp = func(a, b T) int { return labels(acc.name(a), acc.name(b)) }
	default:
		cmp = func(a, b T) int {
			ra, rb := acc.recency(a), acc.recency(b)
			switch {
			case ra < rb:
				return -1
			case ra > rb:
				return 1
			}
			return 0
		}
	}
	if q.Desc {
		asc := cmp
		cmp = func(a, b T) int { return asc(b, a) }
	}
	slices.SortStableFunc(matched, cmp)

	page := Page[T]{Total: len(matched), Limit: q.Limit, Offset: q.Offset, Items: []T{}}
	if q.Offset < len(matched) {
		end := min(q.Offset+q.Limit, len(matched))
		page.Items = matched[q.Offset:end]
	}
	return page
}
