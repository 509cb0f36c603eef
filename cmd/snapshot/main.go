package main

import (
	"context"
	"flag"
	"time"

	"cellhub/internal/snapshot"
	"cellhub/internal/upstream"
	"cellhub/pkg/database"
	"cellhub/pkg/logutils"
	"cellhub/pkg/utils"
)

// snapshot pulls both portal indexes and stores them locally; the servers
// fall back to the newest snapshot when the portal is unreachable.
func main() {
	var (
		baseURL = flag.String("api", "", "portal API base URL (defaults to CELLHUB_API_URL)")
		keep    = flag.Int("keep", 5, "how many snapshots to retain, 0 keeps all")
	)
	flag.Parse()

	cfg := utils.MustLoad()
	_ = logutils.Configure(cfg.LogLevel, nil)
	log := logutils.Component("snapshot")
	if *baseURL == "" {
		*baseURL = cfg.Upstream.BaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	src := upstream.NewHTTPSource(*baseURL, cfg.Upstream.Timeout)
	collections, err := src.FetchCollections(ctx)
	if err != nil {
		log.Fatalf("fetch collections failed: %v", err)
	}
	datasets, err := src.FetchDatasets(ctx)
	if err != nil {
		log.Fatalf("fetch datasets failed: %v", err)
	}

	repo := snapshot.NewRepo(db)
	snap, err := repo.Save(ctx, *baseURL, collections, datasets)
	if err != nil {
		log.Fatalf("save failed: %v", err)
	}
	log.WithFields(logutils.Fields{
		"id":          snap.ID,
		"collections": snap.Collections,
		"datasets":    snap.Datasets,
	}).Info("snapshot stored")

	if *keep > 0 {
		n, err := repo.Prune(ctx, *keep)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		if n > 0 {
			log.Infof("pruned %d old snapshots", n)
		}
	}
}
