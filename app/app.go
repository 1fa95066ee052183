package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"petcare-analytics/analytics"
	"petcare-analytics/api"
	"petcare-analytics/cache"
	"petcare-analytics/config"
	"petcare-analytics/database"
	"petcare-analytics/forecaster"
	"petcare-analytics/observability"
	"petcare-analytics/realtime"
)

// App represents the main application
type App struct {
	config    *config.Config
	db        *database.Database
	redis     *cache.RedisClient
	repo      *database.RecordRepository
	broker    *realtime.Broker
	service   *analytics.Service
	apiServer *api.Server
	refresher *SnapshotRefresher
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
		db:     nil, // Will be initialized in Start()
		redis:  nil, // Will be initialized in Start()
	}
}

// Start starts the application
func (a *App) Start() error {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Database Connection
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	// 2. Redis Connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)

	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}

	// Initialize schema
	a.repo = database.NewRecordRepository(a.db)
	if err := a.repo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// 4. Analytics Service
	a.service = analytics.NewService(a.repo, a.config.Analytics)
	a.service.SetMetrics(metrics)

	var analyticsCache *cache.AnalyticsCache
	cacheBackend := api.CacheBackendNone
	if a.redis != nil {
		analyticsCache = cache.NewAnalyticsCache(a.redis)
		a.service.SetCache(analyticsCache)
		cacheBackend = api.CacheBackendRedis
		log.Printf("✅ Branch report cache ENABLED (Redis, TTL: %v)", a.config.Analytics.CacheTTL)
	} else if a.config.Analytics.CacheTTL > 0 {
		a.service.SetCache(cache.NewMemoryReportCache(a.config.Analytics.CacheTTL))
		cacheBackend = api.CacheBackendMemory
		log.Printf("ℹ️  Branch report cache using process memory (TTL: %v)", a.config.Analytics.CacheTTL)
	}

	if a.config.Forecast.Script != "" {
		a.service.SetForecaster(forecaster.NewScriptForecaster(
			a.config.Forecast.Script,
			a.config.Forecast.Args,
			a.config.Forecast.Timeout,
		))
		log.Printf("✅ External forecaster ENABLED (%s, timeout %v)", a.config.Forecast.Script, a.config.Forecast.Timeout)
	} else {
		log.Println("ℹ️  External forecaster DISABLED, using heuristic predictions")
	}

	// Setup WaitGroup for goroutines
	var wg sync.WaitGroup

	// 5. Initialize Realtime Broker
	a.broker = realtime.NewBroker()
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.broker.Run(ctx)
	}()

	// Relay refreshes computed by other instances to our SSE clients
	if analyticsCache != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			analyticsCache.SubscribeRefresh(ctx, func(n cache.RefreshNotice) {
				a.broker.Broadcast(realtime.EventAnalyticsRefreshed, n)
			})
		}()
	}

	// 6. Start API Server
	a.apiServer = api.NewServer(a.service, a.repo, a.broker)
	a.apiServer.SetMetrics(metrics, registry)
	a.apiServer.SetCacheBackend(cacheBackend)

	go func() {
		if err := a.apiServer.Start(a.config.APIPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// 7. Snapshot Refresher
	a.refresher, err = NewSnapshotRefresher(a.service, a.broker, a.config.Analytics.RefreshSchedule, a.config.Analytics.Location)
	if err != nil {
		log.Printf("⚠️  %v; scheduled refresh disabled", err)
	} else if a.refresher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.refresher.Start()
		}()
	} else {
		log.Println("ℹ️  Scheduled refresh DISABLED (REFRESH_SCHEDULE empty)")
	}

	// 8. Wait for interrupt and perform graceful shutdown
	err = a.gracefulShutdown(cancel)
	wg.Wait()
	return err
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	// Setup signal handling
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal
	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown tasks with timeout
	shutdownComplete := make(chan struct{})
	go func() {
		if a.refresher != nil {
			fmt.Println("🔄 Stopping snapshot refresher...")
			a.refresher.Stop()
		}

		// Cancel context to stop the broker and the refresh subscription;
		// open SSE streams end with it.
		cancel()

		if a.apiServer != nil {
			fmt.Println("🌐 Stopping API server...")
			if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error stopping API server: %v", err)
			}
		}

		// Close database connection
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}

		// Close Redis connection
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	// Wait for shutdown to complete or timeout
	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		cancel()
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
