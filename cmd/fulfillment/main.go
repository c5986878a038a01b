package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-realtime-bookorders/internal/config"
	"github.com/ariefcatur/go-realtime-bookorders/internal/fulfillment"
	"github.com/ariefcatur/go-realtime-bookorders/internal/logx"
	"github.com/ariefcatur/go-realtime-bookorders/internal/rabbitmq"
	"github.com/ariefcatur/go-realtime-bookorders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	service := cfg.ServiceName + "-fulfillment"
	log := logx.New(service, cfg.LogLevel, cfg.LogFormat)
	if errors.Is(err, config.ErrMissingRabbitURL) {
		log.Fatal().Msg("RABBITMQ_URL is not set; the consumer has no broker to read from")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &fulfillment.Service{Delay: cfg.FulfillmentDelay, Log: log}

	// Redis: dedup + status relay back to the API
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn().Err(err).Msg("redis not reachable, statuses will not reach the API until it is")
		}
		svc.Dedup = redisx.NewDedup(rdb, service)
		svc.Reporter = redisx.NewStatusPublisher(rdb)
	}

	cons := rabbitmq.NewConsumer(
		rabbitmq.NewDialer(cfg.RabbitURL, cfg.ConnectTimeout),
		cfg.OrderQueue,
		svc,
		log,
		rabbitmq.WithReconnectDelay(cfg.ReconnectDelay),
		rabbitmq.WithSettled(svc.Settled),
		rabbitmq.WithConsumerTag(service),
	)

	done := make(chan error, 1)
	go func() {
		log.Info().Str("queue", cfg.OrderQueue).Dur("reconnect_delay", cfg.ReconnectDelay).Msg("fulfillment consumer started")
		done <- cons.Run(ctx)
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info().Msg("shutting down consumer...")
		cancel()
		if err := <-done; err != nil {
			log.Error().Err(err).Msg("consumer exit")
		}
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("consumer exit")
		}
	}
}
