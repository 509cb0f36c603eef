package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"cellhub/internal/grpcserver"
	"cellhub/internal/portal"
	"cellhub/internal/querycache"
	"cellhub/internal/snapshot"
	"cellhub/internal/upstream"
	"cellhub/pkg/database"
	"cellhub/pkg/logutils"
	"cellhub/pkg/utils"
)

func main() {
	cfg := utils.MustLoad()
	_ = logutils.Configure(cfg.LogLevel, os.Stderr)
	log := logutils.Component("grpc")

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	src := upstream.NewFallback(
		upstream.NewHTTPSource(cfg.Upstream.BaseURL, cfg.Upstream.Timeout),
		snapshot.NewSource(snapshot.NewRepo(db)),
	)
	cache := querycache.New(
		querycache.WithMetrics(querycache.NewMetrics(prometheus.DefaultRegisterer)),
		querycache.WithFetchTimeout(2*cfg.Upstream.Timeout),
	)
	svc := portal.NewService(src, cache, cfg.Filter.MaxCellCount)

	listener, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcserver.UnaryLogger()))
	grpcserver.RegisterPortalServer(grpcServer, grpcserver.NewServer(svc))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		grpcServer.GracefulStop()
	}()

	log.Infof("gRPC server listening on %s", cfg.Server.GRPCAddr)
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
}
