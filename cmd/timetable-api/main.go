package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/class-timetable-api/api/swagger"
	"github.com/noah-isme/class-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/class-timetable-api/internal/middleware"
	"github.com/noah-isme/class-timetable-api/internal/repository"
	"github.com/noah-isme/class-timetable-api/internal/service"
	"github.com/noah-isme/class-timetable-api/internal/timetable"
	"github.com/noah-isme/class-timetable-api/pkg/cache"
	"github.com/noah-isme/class-timetable-api/pkg/config"
	"github.com/noah-isme/class-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-timetable-api/pkg/middleware/requestid"
)

// @title Class Timetable API
// @version 1.0.0
// @description Builds conflict-free weekly class timetables from course section catalogs.
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	mode, err := timetable.ParseMode(cfg.Solver.Mode)
	if err != nil {
		return fmt.Errorf("SOLVER_MODE: %w", err)
	}

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, result cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = func(ctx context.Context) error {
				return redisPing(ctx, client)
			}
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	timetableCfg := service.TimetableConfig{
		Mode:          mode,
		MaxNodes:      cfg.Solver.MaxNodes,
		ResultTTL:     cfg.Solver.ResultTTL,
		RoomPrefixes:  cfg.RoomPrefixes,
		Timezone:      cfg.Calendar.Timezone,
		CalendarWeeks: cfg.Calendar.Weeks,
	}
	timetableSvc, err := service.NewTimetableService(cacheSvc, metricsSvc, timetable.NewValidator(), logr, timetableCfg)
	if err != nil {
		return err
	}
	logr.Info("timetable service configured", zap.Stringer("config", timetableCfg), zap.Bool("cache", cacheSvc.Enabled()))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)
	handler.NewTimetableHandler(timetableSvc, cacheSvc).Register(api)

	if cfg.Env != config.EnvProduction {
		swagger.Register(cfg.APIPrefix)
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func redisPing(ctx context.Context, client redis.UniversalClient) error {
	return client.Ping(ctx).Err()
}
