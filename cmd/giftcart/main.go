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

	"github.com/fjod/gogift/internal/cart"
	"github.com/fjod/gogift/internal/catalog"
	"github.com/fjod/gogift/internal/checkout"
	h "github.com/fjod/gogift/internal/http"
	"github.com/fjod/gogift/internal/notify"
	"github.com/fjod/gogift/internal/poller"
	"github.com/fjod/gogift/internal/sales"
	"github.com/fjod/gogift/internal/store"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.Level = lvl
	}
	return log
}

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	log := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.StoreDriver == "redis" || cfg.CatalogCache {
		client, err := store.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		defer client.Close()
		redisClient = client
		log.WithField("addr", cfg.RedisAddr).Info("connected to redis")
	}

	kv, closeStore, err := openStore(ctx, cfg, redisClient, log)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("failed to open store")
	}
	defer closeStore()
	log.WithField("driver", cfg.StoreDriver).Info("cart store ready")

	hub := notify.NewHub(cfg.NotificationTTL)
	defer hub.Close()
	sink := notify.Multi{hub, notify.LogSink{Log: log.WithField("component", "notify")}}

	engine := cart.New(kv, sink, cart.WithKey(cfg.CartKey), cart.WithLogger(log.WithField("component", "cart")))
	defer engine.Close()
	if err := engine.Load(ctx); err != nil {
		log.WithError(err).Warn("could not restore cart, starting empty")
	}

	var lookup catalog.Lookup = catalog.NewHTTPClient(cfg.CatalogURL, cfg.ClientTimeout)
	if cfg.CatalogCache {
		lookup = catalog.NewCached(lookup, redisClient, cfg.CatalogCacheTTL, log.WithField("component", "catalog"))
	}

	payments := checkout.NewPreferenceClient(cfg.PaymentURL, cfg.ClientTimeout, log.WithField("component", "payment"))
	checkoutSvc := checkout.NewService(engine, payments, kv, sink, log.WithField("component", "checkout"))

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(checkoutSvc, log.WithField("component", "poller"), cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
		defer p.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx)
		}()
		log.WithField("brokers", cfg.KafkaBrokers).Info("payment event poller started")
	}

	router := h.NewRouter(h.Handlers{
		Cart:     h.NewCartHandler(engine, lookup, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout),
		Feed:     h.NewFeedHandler(engine, hub, log.WithField("component", "feed")),
		Orders:   h.NewOrdersHandler(sales.NewHTTPClient(cfg.OrdersURL, cfg.ClientTimeout), cfg.RequestTimeout),
	}, log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "giftcart"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("giftcart starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	cancel()
	wg.Wait()

	log.Info("server exited")
}
