package snapshot

import (
	"context"

	"cellhub/pkg/models"
)

// Source serves the indexes from the newest stored snapshot.
type Source struct {
	Repo *Repo
}

func NewSource(repo *Repo) *Source {
	return &Source{Repo: repo}
}

func (s *Source) Name() string { return "snapshot" }

func (s *Source) FetchCollections(ctx context.Context) ([]models.CollectionResponse, error) {
	latest, err := s.Repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return s.Repo.LoadCollections(ctx, latest.ID)
}

func (s *Source) FetchDatasets(ctx context.Context) ([]models.DatasetResponse, error) {
	latest, err := s.Repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return s.Repo.LoadDatasets(ctx, latest.ID)
}
