package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/clock"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/customers"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	store := repository.NewPGStore(pool)
	if err := store.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("init schema")
	}
	reg, err := store.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load model snapshot")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	clk := clock.NewOffset(cfg.Clock.Offset())

	flightService := flights.NewService(reg, store, redisCache, producer, clk, log, cfg.Kafka.BookingEventsTopic)
	bookingService := booking.NewService(reg, store, producer, redisCache, clk, log, cfg.Kafka.BookingEventsTopic)
	customerService := customers.NewService(reg, store, log)

	if err := bootstrap.Run(ctx, cfg, log, flightService, bookingService, customerService); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
