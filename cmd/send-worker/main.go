package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sms-dispatch-gateway/internal/adapters/provider/registry"
	"sms-dispatch-gateway/internal/adapters/queue/rabbitmq"
	"sms-dispatch-gateway/internal/config"
	"sms-dispatch-gateway/internal/dispatch"
	"sms-dispatch-gateway/internal/ports"
	"sms-dispatch-gateway/internal/providers"
	"sms-dispatch-gateway/internal/quota"
	"sms-dispatch-gateway/internal/store/postgres"

	"github.com/redis/go-redis/v9"
)

// The send-worker consumes immediate-dispatch jobs published at compose time.
// Claiming is shared with the dispatcher, so a job that raced a scheduler
// pass is simply skipped.
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

	consumer, err := rabbitmq.NewConsumer(conf.AMQPURL, log)
	if err != nil {
		log.Error("connect rabbitmq consumer", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

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

	log.Info("send-worker started")

	if err := consumer.Consume(ctx, func(ctx context.Context, job ports.DispatchJob) error {
		return engine.DispatchByID(ctx, job.MessageID)
	}); err != nil && ctx.Err() == nil {
		log.Error("consumer error", "err", err)
		os.Exit(1)
	}

	log.Info("shutting down send-worker")
}
