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

	"github.com/ariefcatur/go-realtime-bookorders/internal/catalog"
	"github.com/ariefcatur/go-realtime-bookorders/internal/config"
	"github.com/ariefcatur/go-realtime-bookorders/internal/httpx"
	kafkax "github.com/ariefcatur/go-realtime-bookorders/internal/kafka"
	"github.com/ariefcatur/go-realtime-bookorders/internal/logx"
	"github.com/ariefcatur/go-realtime-bookorders/internal/notify"
	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	"github.com/ariefcatur/go-realtime-bookorders/internal/rabbitmq"
	"github.com/ariefcatur/go-realtime-bookorders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	service := cfg.ServiceName + "-api"
	log := logx.New(service, cfg.LogLevel, cfg.LogFormat)
	if errors.Is(err, config.ErrMissingRabbitURL) {
		log.Fatal().Msg("RABBITMQ_URL is not set; the API cannot queue orders without a broker")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// Catalog
	store, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("catalog")
	}
	log.Info().Int("books", store.Len()).Msg("catalog loaded")

	// RabbitMQ publisher
	pub := rabbitmq.NewPublisher(rabbitmq.NewDialer(cfg.RabbitURL, cfg.ConnectTimeout), cfg.OrderQueue, cfg.PublishTimeout, log)
	if err := pub.DeclareQueue(ctx); err != nil {
		log.Warn().Err(err).Str("queue", cfg.OrderQueue).Msg("broker not reachable at startup, orders will fail to queue until it is")
	}

	// Realtime sinks: websocket hub, plus kafka lifecycle stream when configured
	hub := notify.NewHub(log, notify.WithOriginCheck(httpx.NewCORS(cfg.CORSOrigins).OriginAllowed))
	sinks := notify.Fanout{hub}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderLifecycle, 1024, log)
		prod.Start()
		sinks = append(sinks, kafkax.NewLifecycleSink(prod, service, log))
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", orders.TopicOrderLifecycle).Msg("lifecycle stream enabled")
	}

	svc := orders.NewService(orders.NewValidator(store), orders.NewLedger(), pub, sinks, log)

	// Redis status relay from the fulfillment worker
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn().Err(err).Msg("redis not reachable, fulfillment statuses will arrive once it is")
		}
		svc.UseStatusSource(redisx.NewStatusCache(rdb))
		sub := redisx.NewStatusSubscriber(rdb, func(ctx context.Context, u orders.StatusUpdate) error {
			_, err := svc.Apply(ctx, u)
			return err
		}, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sub.Run(ctx); err != nil {
				log.Error().Err(err).Msg("status relay stopped")
			}
		}()
	}

	router := httpx.NewRouter(httpx.Deps{
		Catalog:     store,
		Orders:      svc,
		Realtime:    hub,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	hub.Close()
	cancel()
	wg.Wait()
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
}
