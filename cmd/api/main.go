package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"classtrack/internal/analytics"
	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/config"
	"classtrack/internal/excuse"
	"classtrack/internal/httpapi"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/logging"
	"classtrack/internal/observability"
	"classtrack/internal/queue"
	"classtrack/internal/roster"
	"classtrack/internal/store"
	"classtrack/internal/tally"
	"classtrack/internal/upload"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Closer()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "classtrack-api")
	if err != nil {
		lg.Sugar.Warnw("sentry init failed", "err", err)
	}
	defer flush()

	if err := run(cfg, lg); err != nil {
		observability.CaptureErr(err)
		lg.Sugar.Fatalw("server failed", "err", err)
	}
}

func run(cfg config.App, lg *logging.Log) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	attRepo := attendance.NewRepository(db.Client)
	rosterRepo := roster.NewRepository(db.Client)
	excuseRepo := excuse.NewRepository(db.Client, attRepo)
	authRepo := auth.NewRepository(db.Client)
	analyticsRepo := analytics.NewRepository(db.Client)

	attSvc := attendance.NewService(attRepo, rosterRepo)
	rosterSvc := roster.NewService(rosterRepo, cfg.QRDir)
	excuseSvc := excuse.NewService(excuseRepo, rosterRepo, cfg.ExcuseExpiry)
	authSvc := auth.NewService(authRepo, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)

	counts := tally.New(redisClient.Client)
	engine := analytics.NewEngine(analyticsRepo, counts)

	var uploader *upload.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		uploader = upload.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		lg.Sugar.Infow("cloudinary configured", "cloud", cfg.CloudinaryCloudName)
	} else {
		lg.Sugar.Info("cloudinary not configured, uploads disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpapi.CORSMiddleware())
	r.Use(httpapi.SecurityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	api := &httpapi.API{
		Log:           lg.Sugar,
		Auth:          authSvc,
		Roster:        rosterSvc,
		Att:           attSvc,
		AttRepo:       attRepo,
		Excuses:       excuseSvc,
		Engine:        engine,
		Records:       analyticsRepo,
		Uploader:      uploader,
		Queue:         q,
		JWTSigningKey: cfg.JWTSigningKey,
		JWTIssuer:     cfg.JWTIssuer,
		Healthy: func(c *gin.Context) (bool, bool) {
			return db.Client.PingContext(c.Request.Context()) == nil,
				redisClient.Healthy(c.Request.Context())
		},
	}
	api.RegisterRoutes(r)

	r.Static("/static", "static")

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Sugar.Infow("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.CaptureErr(err)
			lg.Sugar.Fatalw("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Sugar.Warnw("forced shutdown", "err", err)
	}
	lg.Sugar.Info("server exited")
	return nil
}
