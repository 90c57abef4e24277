package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/lottery-ticketing/internal/config"
	"github.com/iliyamo/lottery-ticketing/internal/database"
	"github.com/iliyamo/lottery-ticketing/internal/handler"
	"github.com/iliyamo/lottery-ticketing/internal/logger"
	"github.com/iliyamo/lottery-ticketing/internal/metrics"
	"github.com/iliyamo/lottery-ticketing/internal/middleware"
	"github.com/iliyamo/lottery-ticketing/internal/queue"
	"github.com/iliyamo/lottery-ticketing/internal/ratelimit"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/router"
	"github.com/iliyamo/lottery-ticketing/internal/service"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

const (
	shutdownTimeout = 10 * time.Second
	tokenSweepEvery = time.Hour
	purchaseLogDir  = "logs"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		return err
	}

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		return err
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// repositories
	tokenRepo := repository.NewTokenRepo(db)
	adminRepo := repository.NewAdminRepo(db)
	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	lotteryRepo := repository.NewLotteryRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)

	publisher := queue.NewPublisher(cfg.RabbitURL, log)
	defer publisher.Close()

	// services
	tokens := service.NewTokenService(tokenRepo, service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessExpiry:  cfg.AccessExpiry,
		RefreshExpiry: cfg.RefreshExpiry,
	})
	auth, err := service.NewAuthService(tokens, adminRepo, userRepo, ratelimit.NewLoginGuard(rdb, cfg.Login), m, log,
		service.AuthOptions{LogoutRevokes: cfg.LogoutRevokes, BcryptCost: cfg.BcryptCost})
	if err != nil {
		return err
	}
	otpTTL := utils.Millis(utils.ParseDuration(cfg.OTP.TTL))
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	users, err := service.NewUserService(userRepo, service.NewRedisOTPStore(rdb),
		service.NewOTPIQClient(cfg.OTP.BaseURL, cfg.OTP.APIKey), auth, service.OTPOptions{
			TTL:        otpTTL,
			MaxGuesses: cfg.OTP.MaxGuesses,
			Guesses:    ratelimit.NewCounter(rdb, "otp", "verify-guesses", cfg.OTP.MaxGuesses, otpTTL, 0),
		}, log)
	if err != nil {
		return err
	}
	admins := service.NewAdminService(adminRepo, tokens, cfg.BcryptCost)
	categories := service.NewCategoryService(categoryRepo)
	lotteries := service.NewLotteryService(lotteryRepo, adminRepo)
	checkout := service.NewCheckoutService(purchaseRepo, service.NewRedisIdempotency(rdb), publisher, m, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewErrorHandler(log, cfg.IsProduction())
	e.Validator = handler.NewValidator()
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Use(middleware.RequestID(), middleware.RequestLogger(log, m), echomw.Recover(), echomw.BodyLimit("1M"))

	guards := router.Guards{
		Admin:    middleware.RequireAdmin(auth),
		User:     middleware.RequireUser(auth),
		Throttle: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:    middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	}
	health := &handler.HealthHandler{
		Required: map[string]handler.HealthCheck{"mysql": db.PingContext},
		Optional: map[string]handler.HealthCheck{"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
	router.RegisterRoutes(e, health, metrics.Handler(reg))
	router.RegisterAuth(e, handler.NewAuthHandler(auth, cfg.IsProduction()), guards)
	router.RegisterAdmin(e, handler.NewAdminHandler(admins), handler.NewCategoryHandler(categories), guards)
	router.RegisterUsers(e, handler.NewUserHandler(users, cfg.IsProduction()), guards)
	router.RegisterLotteries(e, handler.NewLotteryHandler(lotteries), handler.NewCheckoutHandler(checkout), guards)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		err := queue.NewConsumer(cfg.RabbitURL, purchaseLogDir, log).Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		sweepTokens(gctx, tokenRepo, log)
		return nil
	})
	return g.Wait()
}

// sweepTokens deletes expired refresh token rows until ctx ends.
func sweepTokens(ctx context.Context, repo *repository.TokenRepo, log *zap.Logger) {
	t := time.NewTicker(tokenSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Warn("token sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired tokens removed", zap.Int64("count", n))
			}
		}
	}
}
