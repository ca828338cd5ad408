package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	config "github.com/krolist-app/go-backend/internal/cfg"
	v1Http "github.com/krolist-app/go-backend/internal/delivery/v1/http"
	"github.com/krolist-app/go-backend/internal/infrastructure/kafka"
	minioInfra "github.com/krolist-app/go-backend/internal/infrastructure/minio"
	"github.com/krolist-app/go-backend/internal/infrastructure/refresher"
	s3Repo "github.com/krolist-app/go-backend/internal/repository/minio"
	"github.com/krolist-app/go-backend/internal/repository/pgdb"
	pgdbConv "github.com/krolist-app/go-backend/internal/repository/pgdb/converter"
	"github.com/krolist-app/go-backend/internal/repository/redis"
	redisConv "github.com/krolist-app/go-backend/internal/repository/redis/converter"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/clients"
	"github.com/krolist-app/go-backend/pkg/closer"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
	"github.com/krolist-app/go-backend/pkg/postgres"
)

// App собирает все зависимости сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	httpSrv     *v1Http.Server
	closer      *closer.Closer
	imagesInfra *minioInfra.MinioInfrastructure

	shutdownCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	const closerTimeout = 10 * time.Second

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	a := &App{
		cfg:            cfg,
		logger:         log,
		closer:         closer.NewCloser(closerTimeout),
		shutdownCancel: shutdownCancel,
	}

	db, err := initPGDB(log, cfg)
	if err != nil {
		shutdownCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	prConv := pgdbConv.NewProductConverter()
	historyConv := pgdbConv.NewPriceHistoryConverter()
	outboxConv := pgdbConv.NewOutboxEventConverter()
	cacheConv := redisConv.NewCacheConverter()

	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	historyRepo := pgdb.NewPriceHistoryRepo(db.Pool, historyConv)
	quotaRepo := pgdb.NewQuotaRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		shutdownCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		shutdownCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	a.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, log, shutdownCtx)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		shutdownCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	cacheRepo := redis.NewCacheRepo(redisClient, cacheConv, cfg.Redis, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		shutdownCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		shutdownCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	outboxWorker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)
	outboxWorker.Start(shutdownCtx)
	a.closer.Add(func(ctx context.Context) error {
		outboxWorker.Stop()
		return nil
	})

	invoker := refresher.NewRefresher(cfg.Refresher, log)

	priceUC := usecase.NewPriceUC(productRepo, historyRepo, cacheRepo, producer, log, cfg.Reconcile)
	refreshUC := usecase.NewRefreshUC(quotaRepo, cacheRepo, invoker, log, cfg.Reconcile)
	catalogUC := usecase.NewCatalogUC(productRepo, cacheRepo, a.imagesInfra, outboxRepo, db.Pool, log)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(catalogUC, priceUC, refreshUC)

	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return a, nil
}

// Run запускает HTTP-сервер и блокируется до сигнала завершения
// или фатальной ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.stop()

	return appErr
}

func (a *App) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	// Дождаться фоновой очистки изображений прежде чем рвать соединения
	done := make(chan error, 1)
	go func() {
		done <- a.imagesInfra.WaitForCleanup(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.logger.Warnf("MinIO cleanup error: %v", err)
		} else {
			a.logger.Infof("MinIO cleanup completed")
		}
	case <-time.After(5 * time.Second):
		a.logger.Warnf("MinIO cleanup did not finish before shutdown, some objects may remain")
	}

	a.shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("close error: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
