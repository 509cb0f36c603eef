package main

import (
	"context"
	"flag"
	"time"

	"cellhub/internal/mirror"
	"cellhub/internal/snapshot"
	"cellhub/pkg/database"
	"cellhub/pkg/logutils"
)

func main() {
	var (
		outDir = flag.String("out", "data/mirror", "output directory")
		id     = flag.String("snapshot", "", "snapshot id to export (default: latest)")
	)
	flag.Parse()

	log := logutils.Component("export-mirror")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	repo := snapshot.NewRepo(db)

	var (
		snap snapshot.Snapshot
		err  error
	)
	if *id == "" {
		snap, err = repo.Latest(ctx)
	} else {
		snap, err = repo.Get(ctx, *id)
	}
	if err != nil {
		log.Fatalf("find snapshot failed: %v", err)
	}

	collections, err := repo.LoadCollections(ctx, snap.ID)
	if err != nil {
		log.Fatalf("load collections failed: %v", err)
	}
	datasets, err := repo.LoadDatasets(ctx, snap.ID)
	if err != nil {
		log.Fatalf("load datasets failed: %v", err)
	}

	if err := mirror.Write(*outDir, collections, datasets); err != nil {
		log.Fatalf("write failed: %v", err)
	}
	log.Infof("exported snapshot %s (%d collections, %d datasets) to %s",
		snap.ID, len(collections), len(datasets), *outDir)
}
