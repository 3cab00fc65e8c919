package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"trade-streamer/src/baseline"
	"trade-streamer/src/config"
	"trade-streamer/src/consumers"
	"trade-streamer/src/grpc_control"
	"trade-streamer/src/helpers"
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/reconcile"
	"trade-streamer/src/server"
	"trade-streamer/src/stream"
	"trade-streamer/src/streamobs"
	"trade-streamer/src/utils"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// Local .env may carry overrides during development
	_ = godotenv.Load()

	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup logger
	appLogger := logger.NewLogger(config.MConfig, config.Name)

	// 4. Tracing pipeline, opt-in via TRADE_STREAMER_TRACING
	if err := streamobs.Init(); err != nil {
		appLogger.Warning("Tracing init failed: %v", err)
	}

	// 5. Soft GC memory limit, 75% of system RAM clamped to [512MB, 4GB]
	memLimitMB := helpers.RecommendedMemoryLimitMB()
	debug.SetMemoryLimit(int64(memLimitMB) * 1024 * 1024)
	appLogger.Info("Memory limit set to %d MB", memLimitMB)

	// 6. Trading calendar for day scoping
	cal := utils.NewTradingCalendar(config.Calendar.MIC)

	// 7. Baseline store
	var store interfaces.IBaselineStore

	switch config.Storage.DBType {
	case "postgres":
		store, err = baseline.NewPostgresStore(config.MConfig, appLogger)
	case "redis":
		store, err = baseline.NewRedisStore(config.MConfig, appLogger)
	case "memory":
		store = baseline.NewMemoryStore()
	default:
		// Default to SQLite
		store, err = baseline.NewSQLiteStore(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init baseline store: %v", err)
	}
	if err := helpers.RetryWithBackoff("baseline store init", 3, 500*time.Millisecond, store.Initialize); err != nil {
		appLogger.Critical("Failed to initialize baseline store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := baseline.NewCache(store, cal, config.Storage.Namespace, appLogger)
	cache.PurgeStale(ctx)

	// 8. Frame router, traced when the pipeline is enabled
	var router interfaces.IMessageRouter = stream.NewHandlerRegistry(appLogger)
	router = streamobs.WrapRouter(router)

	// 9. Consumers
	dashboard := consumers.NewDashboardConsumer(ctx, cache, appLogger)
	dashboard.Register(router)

	reconciler := reconcile.NewReconciler(reconcile.NewRowStore(), appLogger)
	positions := consumers.NewPositionsConsumer(reconciler, appLogger)
	positions.Register(router)

	ring := utils.NewEventRing(config.Monitor.RecentOrdersCap)
	orders := consumers.NewOrdersConsumer(ring, appLogger)
	orders.Register(router)

	account := consumers.NewAccountConsumer(appLogger)
	account.Register(router)

	// 10. Stream manager
	dialer := &stream.WebsocketDialer{
		HandshakeTimeout: time.Duration(config.Stream.DialTimeoutSeconds) * time.Second,
	}
	manager := stream.NewConnectionManager(config.MConfig, appLogger, router, dialer)

	// 11. Status server (REST + monitor websocket)
	var monitor interfaces.IMonitorExchanger = server.NewStatusServer(
		config.MConfig, appLogger, manager, router, dashboard, reconciler, orders, account)
	go func() {
		if err := monitor.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 12. gRPC health surface
	healthSvc := grpc_control.NewHealthService(config.MConfig, appLogger, manager)
	go func() {
		if err := healthSvc.Start(); err != nil {
			appLogger.Error("gRPC health server failed: %v", err)
		}
	}()

	// 13. Connect upstream
	manager.Connect()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")

	// Stream goes first so no frames hit components mid-teardown
	manager.Close()
	monitor.Stop()
	healthSvc.Stop()

	dashboard.Unregister(router)
	positions.Unregister(router)
	orders.Unregister(router)
	account.Unregister(router)

	if err := store.Close(); err != nil {
		appLogger.Warning("Store close failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := streamobs.Shutdown(shutdownCtx); err != nil {
		appLogger.Warning("Tracing shutdown failed: %v", err)
	}

	appLogger.Info("Shutdown complete")
}
