package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cellhub/internal/auth"
	"cellhub/internal/catalog"
	"cellhub/internal/notify"
	"cellhub/internal/portal"
	"cellhub/internal/querycache"
	"cellhub/internal/snapshot"
	synchub "cellhub/internal/sync"
	"cellhub/internal/upstream"
	"cellhub/pkg/database"
	"cellhub/pkg/logutils"
	"cellhub/pkg/utils"
)

func main() {
	cfg := utils.MustLoad()
	if err := logutils.Configure(cfg.LogLevel, os.Stderr); err != nil {
		logutils.Log.WithError(err).Warn("bad log level, keeping default")
	}
	log := logutils.Component("api")

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	// live portal first, latest local snapshot when it is down
	snapshots := snapshot.NewRepo(db)
	src := upstream.NewFallback(
		upstream.NewHTTPSource(cfg.Upstream.BaseURL, cfg.Upstream.Timeout),
		snapshot.NewSource(snapshots),
	)

	cache := querycache.New(
		querycache.WithMetrics(querycache.NewMetrics(prometheus.DefaultRegisterer)),
		querycache.WithFetchTimeout(2*cfg.Upstream.Timeout),
	)
	svc := portal.NewService(src, cache, cfg.Filter.MaxCellCount)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := synchub.NewHub()
	detach := synchub.Attach(cache, hub)
	defer detach()
	go hub.Run(ctx)
	tcpSrv := synchub.NewServer(cfg.Server.SyncAddr, hub)

	udpSrv := notify.NewServer(cfg.Server.NotifyAddr, notify.NewRegistry())
	defer udpSrv.Attach(cache)()

	// warm the cache so the first request doesn't pay for both indexes
	svc.DatasetRows()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(gin.Recovery(), catalog.RequestID(), catalog.AccessLog())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.Origins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.Origins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", catalog.HeaderRequestID)
	router.Use(cors.New(corsCfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		rows := svc.DatasetRows()
		body := gin.H{
			"tcp_clients":    stats.TCPClients,
			"ws_clients":     stats.WSClients,
			"portal_loading": rows.IsLoading,
			"portal_error":   rows.IsError,
		}
		if err := db.PingContext(ctx); err != nil {
			body["status"] = "not_ready"
			body["db_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		body["db"] = "ok"
		c.JSON(http.StatusOK, body)
	})

	router.GET("/debug", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"db":       dbCfg.Path,
			"upstream": cfg.Upstream.BaseURL,
			"hub":      hub.Stats(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", synchub.WSHandler(hub))

	catalogHandler := catalog.NewHandler(svc)
	catalogHandler.RegisterRoutes(router.Group("/"))

	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	operator := auth.Operator{Username: cfg.Auth.OperatorUser, PasswordHash: cfg.Auth.OperatorPasswordHash}
	if !operator.Enabled() {
		log.Warn("no operator password hash configured, admin routes are unreachable")
	}
	authHandler := auth.NewHandler(operator, tokenSvc, auth.NewDenylist())
	authHandler.RegisterRoutes(router.Group("/auth"))

	admin := router.Group("/admin")
	admin.Use(authHandler.Middleware())
	admin.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{"username": claims.Username, "role": claims.Role})
	})
	admin.GET("/snapshots", func(c *gin.Context) {
		list, err := snapshots.List(c.Request.Context(), 20)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list snapshots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"snapshots": list})
	})
	catalogHandler.RegisterAdminRoutes(admin)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := udpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("HTTP API server listening on %s", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	log.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	stop()

	wg.Wait()
	log.Info("servers stopped")
}
