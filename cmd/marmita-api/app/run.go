package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/thiagobertoloto1-max/marmita-api/configs"
	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/cache"
	apihttp "github.com/thiagobertoloto1-max/marmita-api/internal/adapter/http"
	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/http/middleware"
	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/repo"
	"github.com/thiagobertoloto1-max/marmita-api/internal/cart"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/logging"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, "./logs/app.log", cfg.App.LogLevel)

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	if err := repo.RunMigrations(db, cfg.MySQL.MigrationsDir); err != nil {
		return nil, nil, err
	}

	logger.Info("marmita-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	chargeRepo := repo.NewMySQLChargeRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	cartStore := cache.NewRedisCartStore(rdb, cfg.Cart.TTL)
	chargeLock := cache.NewRedisChargeLock(rdb, cfg.Idempotency.TTL)
	gateway := anubis.NewClient(cfg.Anubis.BaseURL, cfg.Anubis.PublicKey, cfg.Anubis.SecretKey, cfg.Anubis.Timeout)

	// use cases
	engine := cart.NewEngine(cartStore, domain.Cents(cfg.Pricing.DeliveryFeeCents), cfg.Pricing.SiteDiscount)
	createOrder := usecase.NewCreateOrder(orderRepo)
	getOrder := usecase.NewGetOrder(orderRepo, chargeRepo)
	updateStatus := usecase.NewUpdateOrderStatus(orderRepo)
	createCharge := usecase.NewCreateCharge(chargeRepo, gateway, chargeLock, logging.New("charge"))
	reconciler := usecase.NewReconciler(orderRepo, chargeRepo, gateway, logging.New("reconcile"))
	checkout := usecase.NewCheckout(engine, createOrder, logging.New("checkout"))

	// handlers + router + middleware
	handlers := apihttp.Handlers{
		Orders:  apihttp.NewOrderHandler(createOrder, getOrder, updateStatus),
		Pix:     apihttp.NewPixHandler(createCharge, reconciler, chargeRepo, cfg.Anubis.PostbackURL),
		Webhook: apihttp.NewWebhookHandler(reconciler),
		Cart:    apihttp.NewCartHandler(engine, productRepo, checkout),
		Token:   apihttp.NewTokenHandler(cfg),
	}
	auth := middleware.NewAuthz(cfg)
	router := apihttp.NewRouter(handlers, auth, logging.New("http"))

	cleanup := func() {
		_ = db.Close()
		_ = rdb.Close()
	}

	return &App{Router: router}, cleanup, nil
}
