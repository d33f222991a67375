package infrastructure

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"tapcard/internal/auth"
	"tapcard/internal/config"
	"tapcard/internal/metrics"
	"tapcard/internal/notification"
	"tapcard/internal/repository"
	"tapcard/internal/service"
	transportHTTP "tapcard/internal/transport/http"
	transportNATS "tapcard/internal/transport/nats"
	"tapcard/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the application.
// Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	db, err := connectPostgres(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	rdb, err := connectRedis(cfg.RedisAddr())
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanupFns = append(cleanupFns, func() {
		db.Close()
		_ = rdb.Close()
	})

	nc, err := connectNats(cfg.NatsAddr())
	if err != nil {
		return nil, runCleanup(cleanupFns), err
	}
	cleanupFns = append(cleanupFns, nc.Close)

	// Stores and caches
	users := repository.NewUserRepo(db)
	customers := repository.NewCustomerRepo(db)
	stalls := repository.NewStallRepo(db)
	orders := repository.NewOrderRepo(db)
	cache := repository.NewCache(rdb)

	bus := transportNATS.NewBus(nc)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTLifetime)
	met := metrics.New(prometheus.DefaultRegisterer)

	var sms service.SMSSender
	if cfg.SMSGatewayURL != "" {
		sms = notification.NewSMSClient(cfg.SMSGatewayURL, cfg.SMSToken)
	} else {
		slog.Warn("sms gateway not configured, notifications will be logged only")
		sms = notification.LogSender{}
	}

	// Services
	orderSvc := service.NewOrderService(users, customers, stalls, orders, cache, bus, met)
	cardSvc := service.NewCardService(customers, users, cache)
	stallSvc := service.NewStallService(stalls)
	authSvc := service.NewAuthService(users, cache, sms, tokens, cfg.OTPTTL)

	handler := transportHTTP.NewHandler(orderSvc, cardSvc, stallSvc, authSvc, tokens)

	servers := []Server{
		transportHTTP.NewServer(cfg.ApiAddr(), handler),
		transportNATS.NewHandler(cardSvc, nc),
		worker.NewNotificationWorker(sms, nc),
	}

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
