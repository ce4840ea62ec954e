package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"structcheck/internal/check/candidate"
	"structcheck/internal/check/controller"
	"structcheck/internal/check/hint"
	"structcheck/internal/check/loader"
	"structcheck/internal/check/repository"
	"structcheck/internal/check/service"
	"structcheck/internal/common/cache"
	"structcheck/internal/common/db"
	commonmw "structcheck/internal/common/http/middleware"
	"structcheck/internal/common/mq"
	"structcheck/internal/common/storage"
	"structcheck/pkg/utils/logger"
	"structcheck/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/check_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	ctx := context.Background()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(ctx, "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	var codes service.CodeStore
	if appCfg.Database.DSN != "" {
		mysqlDB, err := db.NewMySQLWithConfig(&appCfg.Database)
		if err != nil {
			logger.Error(ctx, "init database failed", zap.Error(err))
			return
		}
		defer func() {
			_ = mysqlDB.Close()
		}()
		codes = repository.NewCodeRepositoryWithTTL(mysqlDB, redisCache, appCfg.Code.CacheTTL, appCfg.Code.EmptyCacheTTL)
	} else {
		logger.Warn(ctx, "database dsn is empty, saved code is disabled")
	}

	objStorage, err := buildStorage(ctx, appCfg)
	if err != nil {
		logger.Error(ctx, "init object storage failed", zap.Error(err))
		return
	}
	snapshots, err := repository.NewSnapshotStore(objStorage, appCfg.Source.Bucket, int64(appCfg.Check.MaxSourceBytes))
	if err != nil {
		logger.Error(ctx, "init snapshot store failed", zap.Error(err))
		return
	}

	queue, err := buildQueue(ctx, appCfg.Kafka, appCfg.Status.FinalTopic)
	if err != nil {
		logger.Error(ctx, "init message queue failed", zap.Error(err))
		return
	}
	defer func() {
		_ = queue.Close()
	}()

	checker, err := buildChecker(ctx, appCfg.Check)
	if err != nil {
		logger.Error(ctx, "init checker failed", zap.Error(err))
		return
	}

	checkSvc, err := service.NewService(service.Config{
		Checker:         checker,
		StatusRepo:      repository.NewStatusRepository(redisCache, appCfg.Status.TTL),
		StatusPublisher: repository.NewMQStatusEventPublisher(queue, appCfg.Status.FinalTopic),
		CheckPublisher:  repository.NewMQCheckPublisher(queue, appCfg.Kafka.RequestTopic),
		Sources:         snapshots,
		Codes:           codes,
		PoolSize:        appCfg.Check.PoolSize,
		SlotWait:        appCfg.Check.SlotWait,
		StatusTimeout:   appCfg.Status.Timeout,
		StorageTimeout:  appCfg.Source.Timeout,
		CodeTimeout:     appCfg.Code.Timeout,
	})
	if err != nil {
		logger.Error(ctx, "init check service failed", zap.Error(err))
		return
	}

	limiter := mq.NewTokenLimiter(appCfg.Check.PoolSize)
	if err := queue.Subscribe(ctx, appCfg.Kafka.RequestTopic, checkSvc.HandleMessage, appCfg.Kafka.subscribeOptions(limiter)); err != nil {
		logger.Error(ctx, "subscribe check requests failed", zap.Error(err))
		return
	}
	if err := queue.Start(); err != nil {
		logger.Error(ctx, "start consumer failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg.Server, checkSvc, commonmw.NewRateLimiter(redisCache, 0), redisCache, queue)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(ctx, "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "check http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	_ = queue.Stop()
}

func buildStorage(ctx context.Context, cfg *AppConfig) (storage.ObjectStorage, error) {
	var objStorage storage.ObjectStorage
	if cfg.MinIO.Endpoint == "" {
		logger.Warn(ctx, "minio endpoint is empty, using in-memory snapshots")
		objStorage = storage.NewMemoryStorage()
	} else {
		minioStorage, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		objStorage = minioStorage
	}
	bucketCtx, cancel := context.WithTimeout(ctx, cfg.Source.Timeout)
	defer cancel()
	if err := objStorage.EnsureBucket(bucketCtx, cfg.Source.Bucket); err != nil {
		return nil, err
	}
	return objStorage, nil
}

func buildQueue(ctx context.Context, cfg KafkaConfig, finalTopic string) (mq.MessageQueue, error) {
	if len(cfg.Brokers) == 0 {
		logger.Warn(ctx, "kafka brokers are empty, using in-process queue")
		return mq.NewMemoryQueue(), nil
	}
	queue, err := mq.NewKafkaQueue(cfg.toMQConfig())
	if err != nil {
		return nil, err
	}
	if cfg.AutoCreateTopics {
		topicCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
		if err := queue.EnsureTopics(topicCtx, cfg.RequestTopic, cfg.DeadLetter, finalTopic); err != nil {
			_ = queue.Close()
			return nil, err
		}
	}
	return queue, nil
}

func buildChecker(ctx context.Context, cfg CheckConfig) (*service.Checker, error) {
	var (
		catalog *hint.Catalog
		err     error
	)
	if cfg.RulesDir != "" {
		catalog, err = hint.LoadDir(cfg.RulesDir)
	} else {
		catalog, err = hint.DefaultCatalog()
	}
	if err != nil {
		return nil, err
	}
	l := loader.New(loader.Options{
		AllowedImports: cfg.AllowedImports,
		MaxSourceBytes: cfg.MaxSourceBytes,
		GoBinary:       cfg.GoBinary,
		WorkDir:        cfg.WorkDir,
		GoCache:        cfg.GoCache,
	})
	warmCtx, cancel := context.WithTimeout(ctx, cfg.WarmTimeout)
	defer cancel()
	if err := l.Warm(warmCtx, candidate.HarnessImports...); err != nil {
		logger.Warn(ctx, "build cache warm-up failed, first checks may be slow", zap.Error(err))
	}
	return service.NewChecker(service.CheckerConfig{
		Loader: l,
		Hints:     hint.NewGenerator(catalog),
		Literals:  cfg.Literals,
		BenchSize: cfg.BenchSize,
		Timeout:   cfg.Timeout,
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

func buildHTTPServer(cfg ServerConfig, svc controller.CheckService, limiter *commonmw.RateLimiter, deps ...pinger) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContext())
	router.Use(requestLogger())
	router.Use(commonmw.CORS(cfg.CORS))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthz(deps...))

	ctrl := controller.NewCheckController(svc, cfg.StreamPoll)
	ctrl.SetOriginCheck(cfg.CORS.CheckOrigin)
	ctrl.Register(router.Group("/api/v1"), commonmw.RateLimit(limiter, "check", cfg.RateLimit))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func healthz(deps ...pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for _, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				logger.Warn(ctx, "health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		response.Success(c, gin.H{"status": "ok"})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
