package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/infra/events"
	checkoutredis "github.com/dwikikusuma/shoping-checkout/internal/checkout/infra/redis"
	"github.com/dwikikusuma/shoping-checkout/internal/server"
	"github.com/dwikikusuma/shoping-checkout/internal/store/memory"
	"github.com/dwikikusuma/shoping-checkout/pkg/config"
	"github.com/dwikikusuma/shoping-checkout/pkg/logger"
	"github.com/dwikikusuma/shoping-checkout/pkg/observability"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"github.com/dwikikusuma/shoping-checkout/pkg/shutdown"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "api", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background(), func(sig os.Signal) {
		log.Info("signal received", slog.String("signal", sig.String()))
	})
	defer cancel()

	stopTracing, err := observability.SetupTracing(ctx, observability.Options{
		ServiceName:    "shoping-checkout-api",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.OtelEndpoint,
	})
	if err != nil {
		log.Warn("tracing disabled", slog.Any("err", err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = stopTracing(flushCtx)
	}()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	backend, closeBackend := mustBackend(ctx, cfg, log)
	defer closeBackend()

	opts := server.Options{Logger: log, CheckoutTimeout: cfg.CheckoutTimeout}

	if cfg.RedisURL != "" {
		client := mustRedis(ctx, cfg.RedisURL, log)
		closers = append(closers, client)
		opts.Locker = checkoutredis.NewLocker(client, cfg.CheckoutLockTTL)
		log.Info("checkout lock backed by redis")
	}

	publisher, closePublisher := mustPublisher(cfg, log)
	closers = append(closers, closePublisher)
	opts.Events = publisher

	svcs := server.NewServices(backend, opts)

	addr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", addr))
		os.Exit(1)
	}

	grpcServer := server.NewGRPCServer(svcs, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("grpc starting", slog.String("addr", addr), slog.String("store", cfg.StoreDriver), slog.String("events", cfg.EventsDriver))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc serve error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopCtx.Done():
		log.Warn("graceful stop timeout, forcing stop")
		grpcServer.Stop()
	case <-stopped:
	}

	wg.Wait()
	log.Info("bye")
}

func mustBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (server.Backend, func()) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return server.MemoryBackend(memory.New()), func() {}
	case config.StorePostgres:
		pool, err := postgres.Open(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Pass:     cfg.Postgres.Pass,
			DB:       cfg.Postgres.DB,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			log.Error("db open failed", slog.Any("err", err))
			os.Exit(1)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Error("db migrate failed", slog.Any("err", err))
			os.Exit(1)
		}
		return server.PostgresBackend(pool), pool.Close
	default:
		log.Error("unknown store driver", slog.String("driver", cfg.StoreDriver))
		os.Exit(1)
	}
	return server.Backend{}, nil
}

func mustRedis(ctx context.Context, url string, log *slog.Logger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Error("invalid REDIS_URL", slog.Any("err", err))
		os.Exit(1)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("redis ping failed", slog.Any("err", err))
		os.Exit(1)
	}
	return client
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func mustPublisher(cfg config.Config, log *slog.Logger) (checkoutapp.EventPublisher, io.Closer) {
	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		conn, ch, err := events.SetupConn(cfg.AMQPURL, log)
		if err != nil {
			log.Error("rabbitmq setup failed", slog.Any("err", err))
			os.Exit(1)
		}
		return events.NewRabbitPublisher(ch), closerFunc(func() error {
			_ = ch.Close()
			return conn.Close()
		})
	case config.EventsKafka:
		p := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		return p, p
	case config.EventsLog:
		return events.NewLogPublisher(log), closerFunc(func() error { return nil })
	default:
		log.Error("unknown events driver", slog.String("driver", cfg.EventsDriver))
		os.Exit(1)
	}
	return nil, nil
}
