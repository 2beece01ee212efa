package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/config"
	handlers "github.com/KarpovAlexandrGo/todo-service/internal/controller/http"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/metrics"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/postgres"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/redis"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/sqlite"
	"github.com/KarpovAlexandrGo/todo-service/internal/telemetry"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	Server      *http.Server
	wg          sync.WaitGroup
	taskUseCase usecase.TaskUseCase
	closers     []func(context.Context) error
}

// NewApp собирает зависимости по конфигурации из ./configs и окружения.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func New(cfg *config.Config) (*App, error) {
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}

	a := &App{}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracer)

	m := metrics.New()

	taskRepo, err := a.initTaskRepository(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	if counter, ok := taskRepo.(interface{ Count() int }); ok {
		m.RegisterTaskCount(counter.Count)
	}

	cacheRepo, err := a.initCache(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	categories, err := usecase.NewCategoryRegistry(cfg.Categories)
	if err != nil {
		a.close()
		return nil, err
	}

	taskUseCase := usecase.NewTaskUseCase(taskRepo, cacheRepo, categories,
		usecase.WithStoreTimeout(cfg.StoreTimeout),
		usecase.WithCacheTTL(cfg.CacheTTL),
		usecase.WithMetrics(m),
	)
	a.taskUseCase = taskUseCase

	if cfg.SeedDemo {
		if err := SeedDemoTasks(ctx, taskUseCase); err != nil {
			a.close()
			return nil, err
		}
	}

	router := setupRouter(taskUseCase, categories, m)

	a.Server = &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) initTaskRepository(ctx context.Context, cfg *config.Config) (usecase.TaskRepository, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		logger.Log.Info("Using PostgreSQL task store")
		return postgres.NewTaskRepository(pool), nil
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return repo.Close() })
		logger.Log.WithField("path", cfg.SQLitePath).Info("Using SQLite task store")
		return repo, nil
	default:
		logger.Log.Info("Using in-memory task store")
		return memory.NewTaskRepository(), nil
	}
}

func (a *App) initCache(ctx context.Context, cfg *config.Config) (usecase.CacheRepository, error) {
	if cfg.RedisAddr == "" {
		return usecase.NopCache{}, nil
	}
	cache := redis.NewCacheRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return cache.Close() })
	logger.Log.WithField("addr", cfg.RedisAddr).Info("Connected to Redis cache")
	return cache, nil
}

// demoTasks набор задач для SEED_DEMO.
var demoTasks = []struct {
	title       string
	description string
	completed   bool
}{
	{title: "Buy milk", description: "From the supermarket"},
	{title: "Wash the car", description: "On the weekend", completed: true},
	{title: "Practice elevator pitch", description: "For the job interview"},
}

// SeedDemoTasks заполняет хранилище демонстрационными задачами.
func SeedDemoTasks(ctx context.Context, uc usecase.TaskUseCase) error {
	for _, d := range demoTasks {
		task, err := uc.Create(ctx, entity.NewTask{Title: d.title, Description: d.description})
		if err != nil {
			return fmt.Errorf("seed demo task %q: %w", d.title, err)
		}
		if d.completed {
			done := true
			if _, err := uc.Update(ctx, task.ID, entity.TaskPatch{IsCompleted: &done}); err != nil {
				return fmt.Errorf("seed demo task %q: %w", d.title, err)
			}
		}
	}
	logger.Log.WithField("count", len(demoTasks)).Info("Demo tasks seeded")
	return nil
}

func setupRouter(taskUC usecase.TaskUseCase, categories usecase.CategoryUseCase, m *metrics.Metrics) *chi.Mux {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Heartbeat("/health"),
		middleware.Timeout(60*time.Second),
		m.Middleware,
	)

	handlers.NewTaskHandler(taskUC).RegisterRoutes(router)
	handlers.NewCategoryHandler(categories).RegisterRoutes(router)

	router.Handle("/metrics", m.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return router
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Log.WithError(err).Warn("Failed to release resource")
		}
	}
	a.closers = nil
}

func (a *App) Run() error {
	defer a.close()

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-sig:
			logger.Log.Info("Shutdown signal received")
		case <-serverCtx.Done():
			return
		}

		shutdownCtx, cancel := context.WithTimeout(serverCtx, shutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Log.Error("Graceful shutdown timed out")
			}
			logger.Log.WithError(err).Error("HTTP server shutdown failed")
		}
		serverStopCtx()
	}()

	logger.Log.Info("Starting server on " + a.Server.Addr)
	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		serverStopCtx()
		a.wg.Wait()
		return fmt.Errorf("server failed: %w", err)
	}

	a.wg.Wait()
	logger.Log.Info("Server stopped gracefully")
	return nil
}
