package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"commerce-engine/internal/config"
	"commerce-engine/internal/db"
	"commerce-engine/internal/httpserver"
	"commerce-engine/internal/notify"
	addressrepo "commerce-engine/internal/repository/address"
	cartrepo "commerce-engine/internal/repository/cart"
	catalogrepo "commerce-engine/internal/repository/catalog"
	orderrepo "commerce-engine/internal/repository/order"
	zonerepo "commerce-engine/internal/repository/zone"
	cartsvc "commerce-engine/internal/service/cart"
	ordersvc "commerce-engine/internal/service/order"
	"commerce-engine/internal/service/shipping"
	zonesvc "commerce-engine/internal/service/zone"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cache.Ping(ctx).Err(); err != nil {
			logger.Printf("redis not reachable at %s, continuing without cache: %v", cfg.RedisAddr, err)
			cache = nil
		}
		defer func() {
			if cache != nil {
				cache.Close()
			}
		}()
	}

	var notifier notify.Notifier = notify.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	catalogRepo := catalogrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool)
	zoneRepo := zonerepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	calculator := shipping.New(zoneRepo, cache, logger)
	zoneService := zonesvc.New(zoneRepo, cache, logger)
	cartService := cartsvc.New(cartRepo, catalogRepo, logger)
	orderService := ordersvc.New(ordersvc.Deps{
		Orders:      orderRepo,
		Carts:       cartRepo,
		Addresses:   addressRepo,
		Catalog:     catalogRepo,
		Shipping:    calculator,
		Notifier:    notifier,
		Logger:      logger,
		StrictItems: cfg.OrderStrictItems,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Zones:       zoneService,
		Carts:       cartService,
		Orders:      orderService,
		Shipping:    calculator,
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
