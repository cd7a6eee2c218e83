package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"eventpass/internal/config"
	"eventpass/internal/notify"
	"eventpass/internal/queue"
	"eventpass/internal/session"
)

// Worker consumes queue messages and emails students their check-in codes
// once an admin verifies them.
func main() {
	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "eventpass-worker").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	redisClient := session.NewClient(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedis(redisClient, "eventpass:notifications")
	}

	mailer := notify.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	if mailer == nil {
		logger.Warn().Msg("smtp not configured; verification emails will be logged and dropped")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("queue consume init failed")
	}

	logger.Info().Msg("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != queue.TypeUserVerified {
			continue
		}

		var p queue.VerifiedPayload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			logger.Warn().Err(err).Msg("bad message body")
			continue
		}

		if mailer == nil {
			logger.Info().Str("email", p.Email).Msg("user verified (email delivery disabled)")
			continue
		}
		if err := mailer.SendVerified(p.Email, p.Name, p.QRCode); err != nil {
			logger.Error().Err(err).Str("email", p.Email).Msg("verification email failed")
			continue
		}
		logger.Info().Str("email", p.Email).Msg("verification email sent")
	}

	logger.Info().Msg("worker stopped")
}
