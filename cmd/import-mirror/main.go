package main

import (
	"context"
	"flag"
	"path/filepath"
	"time"

	"cellhub/internal/mirror"
	"cellhub/internal/snapshot"
	"cellhub/pkg/database"
	"cellhub/pkg/logutils"
)

// import-mirror stores a fixtures directory as a snapshot, e.g. to seed a
// fresh database for offline use.
func main() {
	dir := flag.String("dir", "data/mirror", "directory holding collections.json and datasets.json")
	flag.Parse()

	log := logutils.Component("import-mirror")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	collections, datasets, err := mirror.Read(*dir)
	if err != nil {
		log.Fatalf("read fixtures failed: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	abs, err := filepath.Abs(*dir)
	if err != nil {
		abs = *dir
	}
	snap, err := snapshot.NewRepo(db).Save(ctx, "file://"+abs, collections, datasets)
	if err != nil {
		log.Fatalf("save failed: %v", err)
	}
	log.Infof("imported %d collections and %d datasets as snapshot %s", snap.Collections, snap.Datasets, snap.ID)
}
