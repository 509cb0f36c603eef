// Package portal joins the cached collections and datasets indexes into the
// row view models served by the HTTP and gRPC surfaces.
package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"cellhub/internal/filter"
	"cellhub/internal/querycache"
	"cellhub/internal/upstream"
	"cellhub/pkg/models"
)

var (
	CollectionsKey = querycache.Key{ID: "collectionsIndex", Entities: []string{"collection"}}
	DatasetsKey    = querycache.Key{ID: "datasetIndex", Entities: []string{"dataset"}}
)

// FetchRows is the result of a joined fetch. Rows is empty unless both
// indexes resolved. Rows may be shared between callers; do not modify.
type FetchRows[T any] struct {
	IsError   bool  `json:"isError"`
	IsLoading bool  `json:"isLoading"`
	Rows      []T   `json:"rows"`
	Err       error `json:"-"`
}

// Service fetches both indexes through the cache and derives rows from them.
type Service struct {
	cache       *querycache.Cache
	collections querycache.Query[*filter.CollectionIndex]
	datasets    querycache.Query[[]models.DatasetResponse]
	builder     filter.RowBuilder

	mu   sync.Mutex
	memo *derived
}

// derived holds everything computed from one pair of resolved snapshots.
type derived struct {
	collGen, dsGen uint64

	datasetRows    []models.DatasetRow
	collectionRows []models.CollectionRow
	byCollection   map[string][]models.DatasetRow

	datasetFacets    *filter.FacetIndex[models.DatasetRow]
	collectionFacets *filter.FacetIndex[models.CollectionRow]
}

func NewService(src upstream.Source, cache *querycache.Cache, maxCellCount int64) *Service {
	return &Service{
		cache: cache,
		collections: querycache.Query[*filter.CollectionIndex]{
			Cache: cache,
			Key:   CollectionsKey,
			Fetch: func(ctx context.Context) (*filter.CollectionIndex, error) {
				collections, err := src.FetchCollections(ctx)
				if err != nil {
					return nil, err
				}
				return filter.KeyCollectionsByID(collections), nil
			},
		},
		datasets: querycache.Query[[]models.DatasetResponse]{
			Cache: cache,
			Key:   DatasetsKey,
			Fetch: func(ctx context.Context) ([]models.DatasetResponse, error) {
				datasets, err := src.FetchDatasets(ctx)
				if err != nil {
					return nil, err
				}
				return filter.SanitizeDatasets(datasets), nil
			},
		},
		builder: filter.RowBuilder{MaxCellCount: maxCellCount},
	}
}

func (s *Service) Cache() *querycache.Cache { return s.cache }

// FetchDatasetRows blocks until both indexes settle and returns every
// dataset joined with its collection.
func (s *Service) FetchDatasetRows(ctx context.Context) FetchRows[models.DatasetRow] {
	return datasetRowsOf(s.load(ctx))
}

// FetchCollectionRows blocks until both indexes settle and returns one row
// per collection with its datasets' categories aggregated.
func (s *Service) FetchCollectionRows(ctx context.Context) FetchRows[models.CollectionRow] {
	return collectionRowsOf(s.load(ctx))
}

// FetchCollectionDatasetRows returns the dataset rows of one collection. An
// id missing from the collections index yields no rows, not an error, even
// when orphan datasets reference it: orphans belong to no collection.
func (s *Service) FetchCollectionDatasetRows(ctx context.Context, collectionID string) FetchRows[models.DatasetRow] {
	st := s.load(ctx)
	out := FetchRows[models.DatasetRow]{IsError: st.isError, IsLoading: st.isLoading, Err: st.err, Rows: []models.DatasetRow{}}
	if st.d == nil {
		return out
	}
	if _, ok := st.collections.Data.Get(collectionID); ok {
		if rows := st.d.byCollection[collectionID]; rows != nil {
			out.Rows = rows
		}
	}
	return out
}

// DatasetRows reports the current state without blocking, starting any
// fetch that is not yet running.
func (s *Service) DatasetRows() FetchRows[models.DatasetRow] {
	return datasetRowsOf(s.peek())
}

// CollectionRows is the non-blocking form of FetchCollectionRows.
func (s *Service) CollectionRows() FetchRows[models.CollectionRow] {
	return collectionRowsOf(s.peek())
}

// DatasetFacets returns the facet index over the current dataset rows, or
// nil while the indexes are loading or failed.
func (s *Service) DatasetFacets(ctx context.Context) (*filter.FacetIndex[models.DatasetRow], error) {
	st := s.load(ctx)
	if st.d == nil {
		return nil, st.failure()
	}
	return st.d.datasetFacets, nil
}

// CollectionFacets is DatasetFacets over collection rows.
func (s *Service) CollectionFacets(ctx context.Context) (*filter.FacetIndex[models.CollectionRow], error) {
	st := s.load(ctx)
	if st.d == nil {
		return nil, st.failure()
	}
	return st.d.collectionFacets, nil
}

// Invalidate drops both indexes so the next request refetches them.
func (s *Service) Invalidate() {
	s.collections.Invalidate()
	s.datasets.Invalidate()
}

type state struct {
	collections querycache.Result[*filter.CollectionIndex]
	datasets    querycache.Result[[]models.DatasetResponse]
	isError     bool
	isLoading   bool
	err         error
	d           *derived
}

var errNotReady = errors.New("indexes are still loading")

func (st state) failure() error {
	if st.err != nil {
		return st.err
	}
	return errNotReady
}

func (s *Service) load(ctx context.Context) state {
	var (
		g              errgroup.Group
		coll           querycache.Result[*filter.CollectionIndex]
		ds             querycache.Result[[]models.DatasetResponse]
		collErr, dsErr error
	)
	// each fetch records its own outcome so one failure does not hide the other
	g.Go(func() error {
		coll, collErr = s.collections.Get(ctx)
		return nil
	})
	g.Go(func() error {
		ds, dsErr = s.datasets.Get(ctx)
		return nil
	})
	_ = g.Wait()

	st := s.settle(coll, ds)
	var errs []error
	if collErr != nil {
		errs = append(errs, fmt.Errorf("collections: %w", collErr))
	}
	if dsErr != nil {
		errs = append(errs, fmt.Errorf("datasets: %w", dsErr))
	}
	st.err = errors.Join(errs...)
	return st
}

func (s *Service) peek() state {
	s.collections.Prefetch()
	s.datasets.Prefetch()
	coll, ds := s.collections.Peek(), s.datasets.Peek()
	st := s.settle(coll, ds)
	st.err = errors.Join(coll.Err, ds.Err)
	return st
}

func (s *Service) settle(coll querycache.Result[*filter.CollectionIndex], ds querycache.Result[[]models.DatasetResponse]) state {
	st := state{
		collections: coll,
		datasets:    ds,
		isError:     coll.IsError || ds.IsError,
		isLoading:   coll.IsLoading || ds.IsLoading,
	}
	if !st.isError && coll.HasData && ds.HasData {
		st.d = s.derive(coll, ds)
	}
	return st
}

// derive recomputes rows only when either snapshot changed.
func (s *Service) derive(coll querycache.Result[*filter.CollectionIndex], ds querycache.Result[[]models.DatasetResponse]) *derived {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.memo; m != nil && m.collGen == coll.Generation && m.dsGen == ds.Generation {
		return m
	}

	datasetRows := s.builder.BuildDatasetRows(coll.Data, ds.Data)
	collectionRows := filter.BuildCollectionRows(coll.Data, datasetRows)
	s.memo = &derived{
		collGen:          coll.Generation,
		dsGen:            ds.Generation,
		datasetRows:      datasetRows,
		collectionRows:   collectionRows,
		byCollection:     filter.GroupDatasetRowsByCollection(datasetRows),
		datasetFacets:    filter.NewFacetIndex(datasetRows),
		collectionFacets: filter.NewFacetIndex(collectionRows),
	}
	return s.memo
}

func datasetRowsOf(st state) FetchRows[models.DatasetRow] {
	out := FetchRows[models.DatasetRow]{IsError: st.isError, IsLoading: st.isLoading, Err: st.err, Rows: []models.DatasetRow{}}
	if st.d != nil {
		out.Rows = st.d.datasetRows
	}
	return out
}

func collectionRowsOf(st state) FetchRows[models.CollectionRow] {
	out := FetchRows[models.CollectionRow]{IsError: st.isError, IsLoading: st.isLoading, Err: st.err, Rows: []models.CollectionRow{}}
	if st.d != nil {
		out.Rows = st.d.collectionRows
	}
	return out
}
