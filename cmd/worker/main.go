package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/rs/zerolog"
)

// The worker turns booking events into customer notifications: creations,
// cancellations with refund amounts, rebookings and cascade cancellations
// from flight deletions.
func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "worker").Logger()

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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer consumer.Close()

	sender := email.NewSender()

	if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
		log.Info().Str("type", event.Type).Str("ref", event.Ref).Float64("refund", event.Refund).Msg("event received")
		return sender.Send(ctx, event)
	}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Int64("skipped", consumer.Skipped()).Msg("consumer stopped")
	}
}
