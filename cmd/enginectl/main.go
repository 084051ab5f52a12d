// Command enginectl runs the debug/introspection HTTP surface around
// the call frame engine, wiring the config-selected store/cache
// backends into internal/api. Grounded on the teacher's small,
// single-service cmd/* mains (e.g. cmd/indexer): load config, build
// collaborators, start, wait for a signal, shut down.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgerframe/callframe-engine/internal/api"
	"github.com/ledgerframe/callframe-engine/internal/cache"
	"github.com/ledgerframe/callframe-engine/internal/fee"
	"github.com/ledgerframe/callframe-engine/internal/sandbox"
	"github.com/ledgerframe/callframe-engine/internal/store"
	"github.com/ledgerframe/callframe-engine/pkg/config"
	"github.com/ledgerframe/callframe-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	backing, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.WithError(err).Fatal("open substate store")
	}
	defer closeStore()

	cached := wrapCache(cfg.Cache, backing)

	feeMetrics := fee.NewMetrics(prometheus.DefaultRegisterer)
	registry := sandbox.NewRegistry()
	gojaSandbox := sandbox.NewGojaSandbox(registry)

	server := api.NewServer(api.Config{
		Backing:    cached,
		FeeMetrics: feeMetrics,
		Packages:   registry,
		Sandbox:    gojaSandbox,
		Log:        log,
		Version:    "dev",
	})

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: server.Router()}

	go func() {
		log.WithField("addr", addr).Info("debug HTTP surface listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("serve")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

func openStore(cfg config.StoreConfig) (store.SubstateStore, func(), error) {
	if cfg.Driver == "postgres" && cfg.DSN != "" {
		sqlStore, err := store.OpenSQLStore(context.Background(), cfg.DSN)
		if err != nil {
			return nil, func() {}, err
		}
		return sqlStore, func() { _ = sqlStore.Close() }, nil
	}
	return store.NewMemoryStore(), func() {}, nil
}

func wrapCache(cfg config.CacheConfig, backing store.SubstateStore) store.SubstateStore {
	switch cfg.Driver {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
		ttl := time.Duration(cfg.TTLSecs) * time.Second
		return cache.NewCachedStore(backing, cache.NewRedisCache(client, ttl))
	case "none":
		return backing
	default:
		return cache.NewCachedStore(backing, cache.NewMemoryCache(cache.Config{DefaultTTL: time.Duration(cfg.TTLSecs) * time.Second}))
	}
}
