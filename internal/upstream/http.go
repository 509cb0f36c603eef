package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cellhub/pkg/models"
)

const (
	CollectionsIndexPath = "/dp/v1/collections/index"
	DatasetsIndexPath    = "/dp/v1/datasets/index"
)

// StatusError is returned when the portal API answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// HTTPSource fetches the indexes from the portal REST API.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return "portal-api" }

func (s *HTTPSource) FetchCollections(ctx context.Context) ([]models.CollectionResponse, error) {
	var out []models.CollectionResponse
	if err := s.getJSON(ctx, CollectionsIndexPath, &out); err != nil {
		return nil, fmt.Errorf("collections index: %w", err)
	}
	return out, nil
}

func (s *HTTPSource) FetchDatasets(ctx context.Context) ([]models.DatasetResponse, error) {
	var out []models.DatasetResponse
	if err := s.getJSON(ctx, DatasetsIndexPath, &out); err != nil {
		return nil, fmt.Errorf("datasets index: %w", err)
	}
	return out, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, dst any) error {
	url := s.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
