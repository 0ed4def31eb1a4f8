package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sms-dispatch-gateway/internal/adapters/provider/registry"
	"sms-dispatch-gateway/internal/adapters/queue/rabbitmq"
	"sms-dispatch-gateway/internal/config"
	"sms-dispatch-gateway/internal/dispatch"
	"sms-dispatch-gateway/internal/middleware"
	"sms-dispatch-gateway/internal/ports"
	"sms-dispatch-gateway/internal/providers"
	"sms-dispatch-gateway/internal/quota"
	"sms-dispatch-gateway/internal/reconcile"
	"sms-dispatch-gateway/internal/store/postgres"
	"sms-dispatch-gateway/internal/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	if err := run(log); err != nil {
		log.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	conf, err := config.FromEnv()
	if err != nil {
		return err
	}

	store, err := postgres.New(conf.DatabaseURL)
	if err != nil {
		return errors.New("failed to connect to postgres: " + err.Error())
	}
	defer store.Close()

	publisher, err := rabbitmq.NewPublisher(conf.AMQPURL)
	if err != nil {
		return errors.New("failed to connect to rabbitmq: " + err.Error())
	}
	defer publisher.Close()

	reg, err := providers.LoadFile(conf.ProvidersFile)
	if err != nil {
		return err
	}

	var counter ports.QuotaCounter = ports.NoQuota
	if conf.RedisAddr != "" {
		counter = quota.NewRedisCounter(redis.NewClient(&redis.Options{Addr: conf.RedisAddr}))
	}

	engine := dispatch.New(store, reg, registry.New(), publisher, counter, conf.Workers, log)
	reconciler := reconcile.New(store, log)

	fiberApp := fiber.New(fiber.Config{
		AppName:               "compose-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "",
		BodyLimit:             1 * 1024 * 1024,
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	fiberApp.Use(middleware.RequestID())
	fiberApp.Use(middleware.SecurityHeaders())
	fiberApp.Use(middleware.CORS())
	fiberApp.Use(middleware.RateLimit(100, time.Minute))

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	handler := transport.NewHandler(engine, reconciler, log)
	handler.Register(fiberApp.Group("/api"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("compose-api started", "addr", conf.HTTPAddr)
		if err := fiberApp.Listen(conf.HTTPAddr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return errors.New("failed to shutdown gracefully: " + err.Error())
	}

	log.Info("compose-api stopped gracefully")
	return nil
}
