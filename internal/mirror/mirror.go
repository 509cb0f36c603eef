// Package mirror writes the portal indexes to JSON fixtures and serves them
// back at the portal API paths, so the services can run against a local
// stand-in for the portal.
package mirror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"cellhub/internal/upstream"
	"cellhub/pkg/logutils"
	"cellhub/pkg/models"
)

const (
	CollectionsFile = "collections.json"
	DatasetsFile    = "datasets.json"
)

// Write stores both indexes under dir.
func Write(dir string, collections []models.CollectionResponse, datasets []models.DatasetResponse) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if collections == nil {
		collections = []models.CollectionResponse{}
	}
	if datasets == nil {
		datasets = []models.DatasetResponse{}
	}
	if err := writeJSON(filepath.Join(dir, CollectionsFile), collections); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, DatasetsFile), datasets)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Read loads both indexes from dir.
func Read(dir string) ([]models.CollectionResponse, []models.DatasetResponse, error) {
	var (
		collections []models.CollectionResponse
		datasets    []models.DatasetResponse
	)
	if err := readJSON(filepath.Join(dir, CollectionsFile), &collections); err != nil {
		return nil, nil, err
	}
	if err := readJSON(filepath.Join(dir, DatasetsFile), &datasets); err != nil {
		return nil, nil, err
	}
	return collections, datasets, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Handler serves the fixtures in dir at the portal index paths.
func Handler(dir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+upstream.CollectionsIndexPath, serveFile(filepath.Join(dir, CollectionsFile)))
	mux.HandleFunc("GET "+upstream.DatasetsIndexPath, serveFile(filepath.Join(dir, DatasetsFile)))
	return mux
}

func serveFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(path)
		if err != nil {
			logutils.Component("mirror").WithError(err).Warn("read fixture")
			http.Error(w, "cannot read "+filepath.Base(path), http.StatusInternalServerError)
			return
		}
		// validate JSON so a bad file doesn't silently break clients
		if !json.Valid(b) {
			http.Error(w, filepath.Base(path)+" is not valid JSON", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
