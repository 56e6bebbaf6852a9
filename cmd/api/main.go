package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartline/internal/config"
	"cartline/internal/handler"
	"cartline/internal/infra/cache"
	"cartline/internal/infra/db"
	"cartline/internal/infra/logger"
	infraRepo "cartline/internal/infra/repository"
	repo "cartline/internal/repository"
	"cartline/internal/server"
	"cartline/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	// .envは無くてもよい
	config.LoadEnvFile(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	// Repository（GORM実装）生成
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	productGorm := infraRepo.NewProductGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	// 読み取りはRedisを挟む（REDIS_ADDRが空なら直接DB）
	var productRepo repo.ProductRepository = productGorm
	var invalidator usecase.ProductInvalidator
	if cfg.RedisAddr != "" {
		store := cache.NewRedisStore(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, product cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = store.Close()
		} else {
			defer func() { _ = store.Close() }()
			pc := cache.NewProductCache(productGorm, store, cfg.ProductCacheTTL, log)
			productRepo = pc
			invalidator = pc
		}
	}

	// Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, txm, cfg.DefaultCurrency, log)
	quoteUC := usecase.NewQuoteUsecase(productRepo, log)
	productUC := usecase.NewProductUsecase(productRepo, productGorm, invalidator, log)

	// Handler生成
	e := server.New(cfg, log, server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		Quote:        handler.NewQuoteHandler(quoteUC),
		Cart:         handler.NewCartHandler(cartUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Server起動
	log.Info("listening", zap.String("addr", cfg.Addr()))
	if err := server.Start(ctx, cfg.Addr(), e); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
