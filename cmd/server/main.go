package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"partymatch/internal/config"
	"partymatch/internal/grouping"
	"partymatch/internal/history"
	"partymatch/internal/metrics"
	"partymatch/internal/narrator"
	"partymatch/internal/profiles"
	"partymatch/internal/queue"
	"partymatch/internal/ratings"
	"partymatch/internal/regional"
	"partymatch/internal/routers"
	"partymatch/internal/scoring"
	"partymatch/internal/sessions"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// History is optional: without a database the service still matches,
	// it just keeps no archive.
	historyStore, err := history.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Warn("history disabled, database unavailable", zap.Error(err))
		historyStore = nil
	}

	var n narrator.Narrator = narrator.Static{}
	if cfg.GeminiAPIKey != "" {
		gem, err := narrator.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("narration degraded to canned lines", zap.Error(err))
		} else {
			n = gem
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	store := profiles.NewStore(scoring.Score, logger)
	finder := grouping.NewFinder(store, cfg.GroupSize, cfg.QualityThreshold, logger)
	manager := sessions.NewManager(logger, m, historyStore)
	codes := sessions.NewCodeService(rdb)
	prefs := sessions.NewPreferenceMatcher(logger)
	ratingStore := ratings.NewStore(rdb)

	scheduler := queue.NewScheduler(ctx, rdb, store, finder, manager, ratingStore, historyStore, m, logger, queue.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		GroupSize: cfg.GroupSize,
		Interval:  cfg.MatchInterval,
	})

	// Housekeeping: refresh the pool gauge every minute, and drop stale
	// queue entries when a max wait is configured.
	housekeeping := cron.New()
	housekeeping.AddFunc("@every 1m", func() {
		m.WaitingPool.Set(float64(store.Size()))
	})
	if cfg.QueueMaxWait > 0 {
		housekeeping.AddFunc("@every 1m", func() {
			scheduler.SweepStale(ctx, cfg.QueueMaxWait)
		})
		logger.Info("stale queue sweep enabled", zap.Duration("maxWait", cfg.QueueMaxWait))
	}
	housekeeping.Start()
	defer housekeeping.Stop()

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	router.Handle("/metrics", promhttp.Handler())
	routers.MatchRoutes(router, scheduler)
	routers.SessionRoutes(router, sessions.NewHandlers(manager, prefs, codes, ratingStore, historyStore, n, logger))
	routers.RegionalRoutes(router, regional.NewMatcher(logger))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("partymatch listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
