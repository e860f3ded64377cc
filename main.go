package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrmenu-api/cache"
	"qrmenu-api/config"
	"qrmenu-api/events"
	"qrmenu-api/handlers"
	"qrmenu-api/logger"
	"qrmenu-api/middleware"
	"qrmenu-api/pricing"
	"qrmenu-api/routes"
	"qrmenu-api/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

const serviceName = "qrmenu-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(serviceName, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Error("startup", "", "database connection failed", err)
		os.Exit(1)
	}
	if err := config.Migrate(db); err != nil {
		log.Error("startup", "", "migration failed", err)
		os.Exit(1)
	}
	log.Info("startup", "", "database ready", slog.String("driver", cfg.DBDriver))

	c := openCache(ctx, cfg, log)

	pub, err := openPublisher(cfg)
	if err != nil {
		log.Error("startup", "", "event publisher unavailable", err)
		os.Exit(1)
	}
	defer pub.Close()

	h := newHandler(cfg, db, c, pub, log)
	engine := routes.NewEngine(h, log)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader, "Content-Disposition"},
		}).Handler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("startup", "", "server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "", "server stopped", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown", "", "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "", "graceful shutdown failed", err)
	}
}

// openCache falls back to no caching when redis is not configured or not
// reachable at startup.
func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.Nop{}
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn("startup", "", "redis unavailable, caching disabled",
			slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		return cache.Nop{}
	}
	return cache.NewRedisCache(client)
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case "kafka":
		return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)), nil
	case "amqp":
		pub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return events.Nop{}, nil
	}
}

func newHandler(cfg *config.Config, db *gorm.DB, c cache.Cache, pub events.Publisher, log *logger.Logger) *handlers.Handler {
	resolver := pricing.NewResolver(time.Now, pricing.Rule{
		Weekday: cfg.PromoWeekday,
		Keyword: cfg.PromoKeyword,
		Factor:  cfg.PromoFactor,
	})

	restaurants := services.NewRestaurantService(db, cfg.TokenSalt, cfg.PublicBaseURL)
	return &handlers.Handler{
		Auth:        middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTTTL),
		Users:       services.NewUserService(db),
		Profiles:    services.NewProfileService(db),
		Restaurants: restaurants,
		Catalog:     services.NewCatalogService(db, c, cfg.MenuCacheTTL, resolver, cfg.GSTNote, time.Now, log),
		Orders: services.NewOrderService(db, services.OrderConfig{
			ServiceCharge: cfg.ServiceCharge,
			Currency:      cfg.EarningsCurrency,
			DefaultTable:  cfg.CheckoutDefaultTable,
			CountTTL:      cfg.OrderCountCacheTTL,
		}, pub, c, log),
		Deliveries: services.NewDeliveryService(db, pub, log),
		Wallets:    services.NewWalletService(db, log),
		Tables:     services.NewTableService(db, restaurants, nil),
		Log:        log,
		Now:        time.Now,
	}
}
