// cmd/scheduler-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pacer/internal/api"
	"pacer/internal/dispatch"
	"pacer/internal/marketplace"
	"pacer/internal/schedule"
	"pacer/pkg/audit"
	"pacer/pkg/config"
	"pacer/pkg/db"
	"pacer/pkg/logger"
	"pacer/pkg/rules"
	"pacer/pkg/shops"
	"pacer/pkg/tokens"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var (
		shopProv   shops.Provider
		tokenStore tokens.Store
		ruleStore  rules.Store
		auditStore audit.Store
		locker     dispatch.Locker
	)
	if pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := shops.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("shops schema", "err", err)
		}
		if err := tokens.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("tokens schema", "err", err)
		}
		if err := rules.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("rules schema", "err", err)
		}
		if err := audit.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("audit schema", "err", err)
		}
		shopProv = shops.NewPostgresProvider(pool, log)
		tokenStore = tokens.NewPostgresStore(pool, log)
		ruleStore = rules.NewPostgresStore(pool, log)
		auditStore = audit.NewPostgresStore(pool, log)
	} else {
		shopProv = shops.NewMemoryProvider()
		tokenStore = tokens.NewMemoryStore()
		ruleStore = rules.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
	}
	if rdb != nil {
		locker = dispatch.NewRedisLocker(rdb)
	} else {
		locker = dispatch.NewMemoryLocker()
	}

	if cfg.RuleSeedPath != "" {
		if err := rules.SeedFromFile(context.Background(), ruleStore, cfg.RuleSeedPath, log); err != nil {
			log.Warnw("rule seed", "err", err)
		}
	}

	matcher, err := schedule.NewMatcher(cfg.ScheduleTZ)
	if err != nil {
		log.Fatalw("matcher", "err", err)
	}
	_, gateway, err := marketplace.NewStack(cfg, log, shopProv, tokenStore)
	if err != nil {
		log.Fatalw("gateway", "err", err)
	}
	dispatcher := dispatch.New(cfg, log, matcher, ruleStore, auditStore, gateway, locker)
	app := api.New(cfg, log, ruleStore, auditStore, dispatcher)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Handler()}
	go func() {
		log.Infow("scheduler-service listening", "addr", cfg.HTTPAddr, "tz", cfg.ScheduleTZ)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("scheduler-service stopped")
}
