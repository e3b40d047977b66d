package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nexuslabs/commerce-core/internal/cart"
	"github.com/nexuslabs/commerce-core/internal/catalog"
	"github.com/nexuslabs/commerce-core/internal/checkout"
	"github.com/nexuslabs/commerce-core/internal/config"
	"github.com/nexuslabs/commerce-core/internal/httpx"
	kafkax "github.com/nexuslabs/commerce-core/internal/kafka"
	"github.com/nexuslabs/commerce-core/internal/lifecycle"
	"github.com/nexuslabs/commerce-core/internal/logging"
	"github.com/nexuslabs/commerce-core/internal/metrics"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/payments"
	"github.com/nexuslabs/commerce-core/internal/postgres"
	"github.com/nexuslabs/commerce-core/internal/pricing"
	"github.com/nexuslabs/commerce-core/internal/redisx"
	"github.com/nexuslabs/commerce-core/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)
	pPayment := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentRecorded, 1024)
	pPayment.Start(ctx)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	// Pricing adjustment from config; zero fees mean no adjustment.
	var adjust pricing.Adjuster = pricing.None{}
	switch {
	case cfg.ShippingFlatCents > 0 && cfg.TaxBasisPoints > 0:
		adjust = composite{
			pricing.FlatShipping{FeeCents: cfg.ShippingFlatCents},
			pricing.PercentTax{BasisPoints: cfg.TaxBasisPoints},
		}
	case cfg.ShippingFlatCents > 0:
		adjust = pricing.FlatShipping{FeeCents: cfg.ShippingFlatCents}
	case cfg.TaxBasisPoints > 0:
		adjust = pricing.PercentTax{BasisPoints: cfg.TaxBasisPoints}
	}

	// Core services over the shared store
	st := store.NewPostgres(db)
	checkoutSvc := &checkout.Service{
		Store: st, Adjust: adjust, Producer: pCreated,
		Metrics: m, Log: logger, ServiceName: cfg.ServiceName,
	}
	lifecycleSvc := &lifecycle.Service{
		Store: st, Producer: pStatus,
		Metrics: m, Log: logger, ServiceName: cfg.ServiceName,
	}
	tracker := &payments.Tracker{
		Store: st, Producer: pPayment,
		Metrics: m, Log: logger, ServiceName: cfg.ServiceName,
	}

	// Router & handlers
	router := httpx.NewRouter(reg)
	oh := &httpx.OrdersHandler{
		Checkout:  checkoutSvc,
		Lifecycle: lifecycleSvc,
		Tracker:   tracker,
		Repo:      &orders.Repo{DB: db},
		Redis:     rdb,
	}
	oh.Register(router)
	ch := &httpx.CartsHandler{Carts: &cart.Repo{DB: db}}
	ch.Register(router)
	ph := &httpx.ProductsHandler{Products: &catalog.Repo{DB: db}}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close()
	pStatus.Close()
	pPayment.Close()
	cancel()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
	pPayment.WaitClosed()
}

// composite sums its adjusters, so shipping and tax stack.
type composite []pricing.Adjuster

func (c composite) Adjust(items []orders.OrderItem) int64 {
	var total int64
	for _, a := range c {
		total += a.Adjust(items)
	}
	return total
}
