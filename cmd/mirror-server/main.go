package main

import (
	"flag"
	"net/http"
	"time"

	"cellhub/internal/mirror"
	"cellhub/pkg/logutils"
)

func main() {
	// serves data/mirror/{collections,datasets}.json at the portal index paths
	dir := flag.String("dir", "data/mirror", "directory written by export-mirror")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	log := logutils.Component("mirror-server")
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mirror.Handler(*dir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("mirror-server serving %s on %s", *dir, *addr)
	log.Fatal(srv.ListenAndServe())
}
