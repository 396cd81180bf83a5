package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhivo/premium-api/config"
	"github.com/rhivo/premium-api/internal/email"
	"github.com/rhivo/premium-api/internal/health"
	"github.com/rhivo/premium-api/internal/infrastructure/postgres"
	ctxlog "github.com/rhivo/premium-api/internal/log"
	"github.com/rhivo/premium-api/internal/metrics"
	"github.com/rhivo/premium-api/internal/payment"
	"github.com/rhivo/premium-api/internal/token"
	httptransport "github.com/rhivo/premium-api/internal/transport/http"
	"github.com/rhivo/premium-api/internal/transport/http/handler"
	"github.com/rhivo/premium-api/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	signer := token.NewSigner([]byte(cfg.JWTSecret))

	// Auth
	authUsecase := usecase.NewAuthUsecase(userRepo, emailSender, signer, cfg.FrontendURL)
	authHandler := handler.NewAuthHandler(authUsecase, logger)
	statusHandler := handler.NewStatusHandler(authUsecase, logger)

	// Payments
	stripeClient := payment.NewClient(cfg.StripeSecretKey, cfg.StripePriceID, cfg.FrontendURL)
	checkoutHandler := handler.NewCheckoutHandler(stripeClient, logger)
	reconciler := usecase.NewReconciler(userRepo, stripeClient, logger)
	webhookHandler := handler.NewWebhookHandler(payment.NewVerifier(cfg.StripeWebhookSecret), reconciler, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger,
			authHandler, checkoutHandler, webhookHandler, statusHandler,
			signer, cfg.AllowedOrigins),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
