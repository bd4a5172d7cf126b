package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"pomodoro-api/internal/config"
	"pomodoro-api/internal/db"
	"pomodoro-api/internal/email"
	apihttp "pomodoro-api/internal/http"
	"pomodoro-api/internal/repository"
	"pomodoro-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	projectRepo := repository.NewPgProjectRepository(pool)
	tagRepo := repository.NewPgTagRepository(pool)
	taskRepo := repository.NewPgTaskRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.EmailDebugLog {
		emailSender = email.NewLogSender(logger)
	} else if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		requestLimiter service.OTPRateLimiter
		verifyLimiter  service.OTPRateLimiter
		tokenStore     service.RefreshTokenStore
		redisClient    *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			requestLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3, "otp:rl:req:")
			verifyLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 10, "otp:rl:verify:")
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	otpSvc := service.NewOTPService(logger, userRepo, emailSender, requestLimiter, verifyLimiter,
		time.Duration(cfg.OTPTTLSeconds)*time.Second)
	accountSvc := service.NewAccountService(logger, userRepo, otpSvc)
	sessionSvc := service.NewSessionService(logger, sessionRepo, userRepo)

	authHandler := apihttp.NewAuthHandler(logger, accountSvc, jwtSvc)
	profileHandler := apihttp.NewProfileHandler(logger, accountSvc)
	sessionHandler := apihttp.NewSessionHandler(logger, sessionSvc)
	projectHandler := apihttp.NewProjectHandler(logger, projectRepo, tagRepo)
	taskHandler := apihttp.NewTaskHandler(logger, taskRepo)
	router := apihttp.NewRouter(logger, authHandler, profileHandler, sessionHandler, projectHandler, taskHandler, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
