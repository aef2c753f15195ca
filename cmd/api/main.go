package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "bookstore/docs"
	"bookstore/pkg/account"
	"bookstore/pkg/api"
	"bookstore/pkg/bookstore"
	"bookstore/pkg/catalog"
	"bookstore/pkg/config"
	"bookstore/pkg/events"
	"bookstore/pkg/logger"
	"bookstore/pkg/order"
	"bookstore/pkg/order/memory"
	"bookstore/pkg/otel"
	"bookstore/pkg/seed"
	"bookstore/pkg/session"
)

const shutdownTimeout = 10 * time.Second

// @title Bookstore API
// @version 1.0
// @description API for browsing the catalog, managing carts and approving orders
// @host localhost:8443
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in cookie
// @name session_id
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stderr, logger.LevelError, config.ServiceName, nil).Error(ctx, "load config", "error", err)
		return err
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), config.ServiceName, otel.GetTraceID)
	defer log.Sync()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: config.ServiceName,
		Host:        cfg.OtelHost,
		Probability: cfg.OtelProbability,
	})
	if err != nil {
		log.Error(ctx, "init tracing", "error", err)
		return err
	}
	defer shutdownTracing(context.Background())

	cat := catalog.New()
	dir := account.NewDirectory(cat)
	ledger := order.NewLedger(memory.New(), cat)

	if err := loadSeed(ctx, cfg, log, cat, dir); err != nil {
		log.Error(ctx, "seed", "error", err)
		return err
	}

	publisher := events.Publisher(events.Nop{})
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, log)
		log.Info(ctx, "publishing order events", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	store := bookstore.New(cat, dir, ledger,
		bookstore.WithPublisher(publisher),
		bookstore.WithLogger(log),
		bookstore.WithInfo(cfg.StoreName, cfg.StoreAddress),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error(ctx, "redis ping", "addr", cfg.RedisAddr, "error", err)
		return err
	}

	opts := []api.Option{api.WithTracer(tp.Tracer(config.ServiceName))}
	if cfg.TLS() {
		opts = append(opts, api.WithSecureCookies())
	}
	srv := api.NewServer(store, session.NewRedisStore(redisClient, cfg.SessionTTL), log, opts...)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLS())
		if cfg.TLS() {
			srvErr <- server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server closed", "error", err)
			return err
		}
	case <-stopCtx.Done():
		log.Info(ctx, "shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server shutdown", "error", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

// loadSeed fills the catalog and directory from PostgreSQL when DATABASE_URL
// is set, and from the seed files otherwise.
func loadSeed(ctx context.Context, cfg *config.Config, log *logger.Logger, cat *catalog.Catalog, dir *account.Directory) error {
	var src seed.Source = seed.Files{BooksPath: cfg.SeedBooks, AccountsPath: cfg.SeedAccounts}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return err
		}
		src = seed.NewPostgres(db)
	}

	res, err := seed.Load(ctx, src, cat, dir)
	if err != nil {
		return err
	}
	log.Info(ctx, "seed loaded", "books", res.Books, "customers", res.Customers, "employees", res.Employees)
	return nil
}
