package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/db"
	"storefront/internal/infra/kv"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/view"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//カタログ
	var cat *catalog.YAMLCatalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return err
	}

	//カートの保存先（開けなければメモリ）
	store, _ := kv.Open(ctx, kv.Options{
		Driver: cfg.StorageDriver,
		Postgres: db.PostgresConfig{
			URL:      cfg.DatabaseURL,
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Name:     cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSLMode,

			ConnectTimeout: 5 * time.Second,
		},
		SQLitePath: cfg.SQLitePath,
	}, log)
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()
	storage := infraRepo.NewCartKVStorage(store, log)

	notifier := notify.New(cfg.NotifyDelay)
	defer notifier.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := usecase.NewMetrics(reg)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cat, storage, notifier, &uuidGenerator{}, &realClock{}, log, metrics)
	productUC := usecase.NewProductUsecase(cat)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cartUC.RunJanitor(ctx, time.Minute, cfg.SessionIdleTTL)
	}()

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}
	sessions, err := middleware.NewSessionTokens(middleware.SessionConfig{
		Secret: cfg.SessionSecret,
	})
	if err != nil {
		return err
	}

	//Handler生成
	e := server.New(server.Options{
		Renderer:     renderer,
		Sessions:     sessions,
		CookieSecure: cfg.CookieSecure,
		Logger:       log,
		Gatherer:     reg,
	}, server.Handlers{
		Page:    handler.NewPageHandler(productUC, cartUC, notifier),
		Product: handler.NewProductHandler(productUC),
		Cart:    handler.NewCartHandler(cartUC),
	})

	//Server起動
	err = server.Start(ctx, cfg.Addr(), e, log)
	stop()
	wg.Wait()
	log.Info("bye")
	return err
}
