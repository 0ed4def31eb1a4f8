package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sms-dispatch-gateway/internal/adapters/provider/registry"
	"sms-dispatch-gateway/internal/config"
	"sms-dispatch-gateway/internal/dispatch"
	"sms-dispatch-gateway/internal/ports"
	"sms-dispatch-gateway/internal/providers"
	"sms-dispatch-gateway/internal/quota"
	"sms-dispatch-gateway/internal/store/postgres"

	"github.com/redis/go-redis/v9"
)

// The dispatcher is the scheduler trigger: on every tick it claims queued
// messages (fresh and retry-eligible alike) and drives them through the
// engine. It runs without the queue; immediate dispatch is the send-worker's
// job.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	conf, err := config.FromEnv()
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	store, err := postgres.New(conf.DatabaseURL)
	if err != nil {
		log.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	reg, err := providers.LoadFile(conf.ProvidersFile)
	if err != nil {
		log.Error("load providers", "err", err)
		os.Exit(1)
	}

	var counter ports.QuotaCounter = ports.NoQuota
	if conf.RedisAddr != "" {
		counter = quota.NewRedisCounter(redis.NewClient(&redis.Options{Addr: conf.RedisAddr}))
	}

	engine := dispatch.New(store, reg, registry.New(), nil, counter, conf.Workers, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(conf.DispatchPeriod)
	defer ticker.Stop()

	log.Info("dispatcher started", "interval", conf.DispatchPeriod.String())

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down dispatcher")
			return

		case <-ticker.C:
			start := time.Now()
			n, err := engine.ProcessQueued(ctx, conf.BatchSize)
			if err != nil {
				log.Error("process queued messages", "err", err)
				continue
			}
			if n > 0 {
				log.Info("dispatch pass completed",
					"processed", n, "duration_ms", time.Since(start).Milliseconds())
			}
		}
	}
}
