package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kyraajewelz/storefront/internal/config"
	"github.com/kyraajewelz/storefront/internal/es"
	"github.com/kyraajewelz/storefront/internal/handlers"
	"github.com/kyraajewelz/storefront/internal/handlers/cart"
	"github.com/kyraajewelz/storefront/internal/handlers/order"
	"github.com/kyraajewelz/storefront/internal/handlers/review"
	"github.com/kyraajewelz/storefront/internal/handlers/wishlist"
	"github.com/kyraajewelz/storefront/internal/logging"
	auth "github.com/kyraajewelz/storefront/internal/middleware/auth"
	"github.com/kyraajewelz/storefront/internal/middleware/csrf"
	"github.com/kyraajewelz/storefront/internal/mykafka"
	ordersvc "github.com/kyraajewelz/storefront/internal/service/order"
	reviewsvc "github.com/kyraajewelz/storefront/internal/service/review"
	httpserver "github.com/kyraajewelz/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	brokers := []string{configuration.KAFKA_ADDRESS}
	topics := []string{"user_events", "cart_events", "wishlist_events", "product_events", "order_events", "review_events"}
	prod, err := mykafka.NewProducer(brokers, topics)
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}
	logger.Info("connected to elasticsearch", "url", configuration.ES_URL)

	orders := &ordersvc.Service{DB: db}
	reviews := &reviewsvc.Service{DB: db}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(csrf.Middleware(csrf.Config{
		Secure: true,
		SkipPaths: []string{
			"/api/v1/register",
			"/api/v1/login",
			"/api/v1/reviews",
		},
	}))

	deps := httpserver.Deps{
		DB:              db,
		AuthHandler:     &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		CategoryHandler: &handlers.CategoryHandler{DB: db, Producer: prod},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, ESIndex: es.ProductIndex, Reviews: reviews},
		SearchHandler:   &handlers.SearchHandler{ES: esClient, Index: es.ProductIndex},
		SettingsHandler: &handlers.SettingsHandler{DB: db},
		CartHandler:     &cart.CartHandler{DB: db, Producer: prod},
		WishlistHandler: &wishlist.WishlistHandler{DB: db, Producer: prod},
		OrderHandler:    &order.OrderHandler{DB: db, Producer: prod, Orders: orders},
		ReviewHandler:   &review.ReviewHandler{DB: db, Producer: prod, Reviews: reviews},
		TokenService:    &auth.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()
	logger.Info("server started", "addr", configuration.HTTP_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "err", err)
		}
	} else {
		logger.Error("db handle error", "err", err)
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "err", err)
	}

	logger.Info("shutdown complete")
}
