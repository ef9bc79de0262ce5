package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/restocatalog/go-services/handlers"
	"github.com/restocatalog/go-services/internal/config"
	"github.com/restocatalog/go-services/internal/database"
	"github.com/restocatalog/go-services/internal/restaurant/cache"
	"github.com/restocatalog/go-services/internal/restaurant/handler"
	"github.com/restocatalog/go-services/internal/restaurant/repository"
	"github.com/restocatalog/go-services/internal/restaurant/service"
	"github.com/restocatalog/go-services/pkg/logger"
	"github.com/restocatalog/go-services/pkg/metrics"
	"github.com/restocatalog/go-services/pkg/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// deps are the runtime dependencies the router reports on in /ready.
type deps struct {
	cfg   *config.Config
	mongo *mongo.Client
	redis *redis.Client
	svc   *service.Service
}

func main() {
	// LOG_LEVEL is honoured before the config is read so config errors are visible
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Encoding)
	logger.Infof("config loaded: mongo=%v in_memory=%v redis=%v", cfg.MongoDB.URI != "", cfg.MongoDB.InMemory, cfg.Redis.Host != "")

	ctx := context.Background()
	d := deps{cfg: cfg}

	if addr := cfg.Redis.Addr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			// cache and shared limiter are optional
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = client.Close()
		} else {
			d.redis = client
			defer func() { _ = client.Close() }()
			logger.Infof("connected to Redis at %s", addr)
		}
	}

	var repo repository.Repository
	if cfg.MongoDB.InMemory {
		logger.Warn("serving from the in-memory store; data is lost on exit")
		repo = repository.NewMemoryRepo()
	} else {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Fatalf("startup aborted: %v", err)
		}
		d.mongo = client
		defer func() { _ = client.Disconnect(context.Background()) }()

		db := client.Database(cfg.MongoDB.Database)
		restaurants := db.Collection(cfg.MongoDB.RestaurantsCollection)
		ratings := db.Collection(cfg.MongoDB.RatingsCollection)
		ictx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
		if err := database.EnsureIndexes(ictx, restaurants, ratings); err != nil {
			cancel()
			logger.Fatalf("failed to create indexes: %v", err)
		}
		cancel()
		repo = repository.NewMongoRepo(restaurants, ratings)
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
	}

	var rankings *cache.RankingCache
	if cfg.Cache.Enabled {
		rankings = cache.NewRankingCache(d.redis, cfg.Cache.Prefix, cfg.Cache.TTL)
	}
	d.svc = service.NewService(repo, rankings)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(d)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting restaurant catalog on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinMiddleware(), gin.Recovery())
	r.Use(middleware.CORS(d.cfg.Server.CORSOrigins))

	if rl := d.cfg.RateLimit; rl.Enabled {
		if rl.UseRedis && d.redis != nil {
			win := time.Duration(rl.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.redis, rl.RPS, rl.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when the store answers; Redis is reported but optional
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		status := map[string]bool{}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if d.mongo != nil {
			status["mongodb"] = d.mongo.Ping(ctx, nil) == nil
			ready = ready && status["mongodb"]
		} else {
			status["memory"] = d.cfg.MongoDB.InMemory
			ready = ready && status["memory"]
		}
		if d.cfg.Redis.Host != "" {
			status["redis"] = d.redis != nil && d.redis.Ping(ctx).Err() == nil
		}

		body := gin.H{"deps": status, "uptime": time.Since(startTime).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	})

	handlers.RegisterSwagger(r)
	handler.RegisterRestaurantRoutes(r, d.svc)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
