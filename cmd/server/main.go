package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-api/internal/config"
	apphttp "account-api/internal/http"
	"account-api/internal/repository/sqlite"
	"account-api/internal/security"
	"account-api/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.Log.Level) // validated by config.Load
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db, sqlite.Options{
		Timeout: cfg.Database.Timeout,
		Retries: cfg.Database.Retries,
	})
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	clock := security.SystemClock{}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer := security.NewTokenIssuer(clock, cfg.Auth.TokenTTL)

	handler := apphttp.NewHandler(apphttp.Services{
		Registration: service.NewRegistrationService(userRepo, hasher, logger),
		Auth:         service.NewAuthService(userRepo, hasher, issuer, logger),
		Guard:        service.NewSessionGuard(userRepo, clock, logger),
		Profile:      service.NewProfileService(userRepo, hasher, logger),
	}, apphttp.NewMetrics(), logger, cfg.Auth.TokenHeader)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s (sessions valid for %s)", cfg.Server.Addr, issuer.TTL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
