package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ishop-be/internal/config"
	"ishop-be/internal/db"
	"ishop-be/internal/logger"
	"ishop-be/internal/metrics"
	"ishop-be/internal/middleware"
	"ishop-be/internal/payment"
	"ishop-be/internal/payment/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	logger.L().Info("payment gateway configured",
		zap.String("base_url", cfg.RazorpayBaseURL),
		zap.String("key_id", config.Mask(cfg.RazorpayKeyID)),
		zap.String("currency", cfg.Currency),
		zap.String("confirmation_policy", cfg.ConfirmationPolicy),
	)

	database := initDBFunc(cfg)
	defer database.Close()

	router, stop, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer stop()

	return startServerFunc(":"+cfg.AppPort, router)
}

// newServer wires the payment stack. The gateway client and secret are built
// once here and shared read-only by every request.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	policy, err := payment.ParseDuplicatePolicy(cfg.ConfirmationPolicy)
	if err != nil {
		return nil, nil, err
	}

	stats := metrics.NewPayments()
	gateway := payment.NewRazorpayGateway(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpaySecret)
	repo := payment.NewRepository(database)
	svc := payment.NewService(gateway, repo, payment.ServiceConfig{
		Secret:   cfg.RazorpaySecret,
		Currency: cfg.Currency,
		Policy:   policy,
		Metrics:  stats,

		MaxAmount: cfg.MaxOrderAmount,
	})

	limiter, stop := middleware.NewRateLimiter()
	return setupRouter(cfg, handler.NewHandler(svc), stats, limiter), stop, nil
}

func setupRouter(cfg *config.Config, paymentHandler *handler.Handler, stats *metrics.Payments, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(commonMiddleware(cfg, limiter)...)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/metrics", stats.Handler())

	r.Route("/api/payment", paymentHandler.Routes)

	// Unprefixed routes kept for existing checkout clients.
	r.Post("/order", paymentHandler.CreateOrder)
	r.Post("/verify", paymentHandler.VerifyPayment)

	return r
}

// commonMiddleware is ordered outermost first. The access log sits outside
// Recovery so a panicking request is still logged with its 500.
func commonMiddleware(cfg *config.Config, limiter *middleware.RateLimiter) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.Recovery,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}),
		limiter.Middleware,
	}
}

func startServer(addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("payment server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.L().Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
