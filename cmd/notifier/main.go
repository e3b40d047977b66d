package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexuslabs/commerce-core/internal/config"
	kafkax "github.com/nexuslabs/commerce-core/internal/kafka"
	"github.com/nexuslabs/commerce-core/internal/logging"
	"github.com/nexuslabs/commerce-core/internal/notify"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/redisx"
)

// logMailer stands in for the SMTP/provider integration: deliveries
// are best-effort, so logging the message is enough for local runs.
type logMailer struct{ log *zap.Logger }

func (m logMailer) Send(ctx context.Context, userID, subject, body string) error {
	m.log.Info("mail",
		zap.String("user_id", userID),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.New(cfg.ServiceName+"-notifier", cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Dedup:  &notify.RedisDedup{Client: rdb, Service: cfg.ServiceName + "-notifier"},
		Mailer: logMailer{log: logger},
		Log:    logger,
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")

	topics := []string{
		orders.TopicOrderCreated,
		orders.TopicOrderStatusChanged,
		orders.TopicPaymentRecorded,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, logger)
		logger.Info("notifier consumer started",
			zap.String("group", group),
			zap.String("topic", topic),
			zap.Int("workers", workers))
		g.Go(func() error { return cons.Start(gctx, svc.Handle) })
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info("shutting down consumers")
	case <-gctx.Done():
	}
	cancel()
	if err := g.Wait(); err != nil {
		logger.Warn("consumer exit", zap.Error(err))
	}
	time.Sleep(200 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
