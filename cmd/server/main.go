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
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"blameja-pos/internal/cache"
	"blameja-pos/internal/config"
	"blameja-pos/internal/database"
	"blameja-pos/internal/dispatchnote"
	"blameja-pos/internal/handlers"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/middleware"
	"blameja-pos/internal/repository"
	"blameja-pos/internal/routes"
	"blameja-pos/internal/scheduler"
	"blameja-pos/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Server.GinMode == gin.DebugMode {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) (err error) {
	gin.SetMode(cfg.Server.GinMode)

	postgresDB, err := database.NewPostgresDB(cfg.Database.URL, cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, postgresDB.Close()) }()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(context.Background(), postgresDB.DB, "up", logger); err != nil {
			return err
		}
	}

	redisDB, err := database.NewRedisDB(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisDB.Close()) }()

	m := metrics.New()

	productRepo, err := repository.NewProductRepository(postgresDB.DB, logger.Named("repo.products"))
	if err != nil {
		return err
	}
	stockRepo, err := repository.NewStockRepository(postgresDB.DB)
	if err != nil {
		return err
	}
	receiptRepo, err := repository.NewReceiptRepository(postgresDB.DB)
	if err != nil {
		return err
	}
	catalogRepo, err := repository.NewCatalogRepository(postgresDB.DB)
	if err != nil {
		return err
	}
	financeRepo, err := repository.NewFinanceRepository(postgresDB.DB)
	if err != nil {
		return err
	}
	cartStore := repository.NewCartStore(redisDB.Client, cfg.Cart.TTL)

	productCache := cache.NewProductCache(redisDB.Client, cfg.Cache, m, logger.Named("cache"))
	defer productCache.Stop()

	company := dispatchnote.Company{
		Name:        cfg.Company.Name,
		Address:     cfg.Company.Address,
		Phone:       cfg.Company.Phone,
		BankAccount: cfg.Company.BankAccount,
	}
	if cfg.Company.LogoPath != "" {
		logo, err := dispatchnote.LoadLogo(cfg.Company.LogoPath)
		if err != nil {
			logger.Warn("dispatch note logo not loaded", zap.String("path", cfg.Company.LogoPath), zap.Error(err))
		}
		company.Logo = logo
	}
	renderer, err := dispatchnote.NewRenderer(company)
	if err != nil {
		return err
	}

	searchSvc := services.NewSearchService(productRepo, catalogRepo, productCache, cfg.Search.ProductLimit, logger.Named("svc.search"))
	saleSvc := services.NewSaleService(productRepo, receiptRepo, stockRepo, productCache, m, logger.Named("svc.sale"))
	cartSvc := services.NewCartService(cartStore, productRepo, searchSvc, saleSvc, m, logger.Named("svc.cart"))
	dispatchSvc := services.NewDispatchService(productRepo, receiptRepo, stockRepo, renderer, productCache, m, logger.Named("svc.dispatch"))
	receiveSvc := services.NewReceiveService(productRepo, catalogRepo, stockRepo, productCache, m, logger.Named("svc.receive"))
	inventorySvc := services.NewInventoryService(productRepo, stockRepo, productCache, m, logger.Named("svc.inventory"))
	financeSvc := services.NewFinanceService(financeRepo, logger.Named("svc.finance"))
	monitoringSvc := services.NewMonitoringService(logger.Named("svc.monitoring"), cfg, redisDB.Client, postgresDB.DB, productCache)
	warmer := services.NewCacheWarmer(searchSvc, productCache, logger.Named("svc.warmer"))

	sched := scheduler.NewScheduler(cfg.Scheduler, warmer, financeSvc, m, logger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	monitoringHandler := handlers.NewMonitoringHandler(monitoringSvc, logger.Named("handlers.monitoring"))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger.Named("http")))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(monitoringHandler.RecordRequestMiddleware())

	routes.SetupRoutes(router, routes.Handlers{
		Cart:       handlers.NewCartHandler(cartSvc, logger.Named("handlers.cart")),
		POS:        handlers.NewPOSHandler(searchSvc, saleSvc, productCache, warmer, logger.Named("handlers.pos")),
		Dispatch:   handlers.NewDispatchHandler(dispatchSvc, logger.Named("handlers.dispatch")),
		Stock:      handlers.NewStockHandler(inventorySvc, receiveSvc, logger.Named("handlers.stock")),
		Catalog:    handlers.NewCatalogHandler(catalogRepo, searchSvc, logger.Named("handlers.catalog")),
		Finance:    handlers.NewFinanceHandler(financeSvc, logger.Named("handlers.finance")),
		LiveSearch: handlers.NewLiveSearchHandler(searchSvc, cfg.Search.Debounce, logger.Named("handlers.search")),
		Monitoring: monitoringHandler,
		Health:     middleware.NewHealthChecker(postgresDB, redisDB, cfg.Server.Version, logger.Named("health")),
	}, m, cfg.Server.Version)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		middleware.ServerInfo(cfg.Server.Port, cfg.Server.Version, logger)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
