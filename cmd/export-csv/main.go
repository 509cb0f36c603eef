package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"cellhub/internal/export"
	"cellhub/internal/portal"
	"cellhub/internal/querycache"
	"cellhub/internal/snapshot"
	"cellhub/internal/upstream"
	"cellhub/pkg/database"
	"cellhub/pkg/logutils"
	"cellhub/pkg/utils"
)

func main() {
	var (
		datasetsOut    = flag.String("datasets", "data/datasets.csv", "output CSV path for dataset rows")
		collectionsOut = flag.String("collections", "data/collections.csv", "output CSV path for collection rows")
		live           = flag.Bool("live", false, "read the portal API instead of the latest snapshot")
	)
	flag.Parse()

	cfg := utils.MustLoad()
	log := logutils.Component("export-csv")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var src upstream.Source
	if *live {
		src = upstream.NewHTTPSource(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	} else {
		db := database.MustOpen(database.DefaultConfig())
		defer db.Close()
		src = snapshot.NewSource(snapshot.NewRepo(db))
	}

	svc := portal.NewService(src, querycache.New(), cfg.Filter.MaxCellCount)

	datasets := svc.FetchDatasetRows(ctx)
	if datasets.IsError {
		log.Fatalf("load datasets failed: %v", datasets.Err)
	}
	collections := svc.FetchCollectionRows(ctx)
	if collections.IsError {
		log.Fatalf("load collections failed: %v", collections.Err)
	}

	if err := writeFile(*datasetsOut, func(f *os.File) error { return export.WriteDatasetRows(f, datasets.Rows) }); err != nil {
		log.Fatalf("export datasets failed: %v", err)
	}
	if err := writeFile(*collectionsOut, func(f *os.File) error { return export.WriteCollectionRows(f, collections.Rows) }); err != nil {
		log.Fatalf("export collections failed: %v", err)
	}

	log.Infof("exported %d datasets to %s and %d collections to %s",
		len(datasets.Rows), *datasetsOut, len(collections.Rows), *collectionsOut)
}

func writeFile(outPath string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
