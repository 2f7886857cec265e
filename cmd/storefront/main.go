package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/poller"
	"github.com/fjod/go_cart/storefront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	l := logger.New(cfg.LogLevel, cfg.LogPretty)
	log.Logger = l
	zerolog.DefaultContextLogger = &l

	// Forward W3C trace context to the store API through otelhttp.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session storage
	storage, closeStorage := newStorage(ctx, cfg, l)
	defer closeStorage()

	key, generated, err := cfg.SessionSecret()
	if err != nil {
		l.Fatal().Err(err).Msg("invalid session key")
	}
	if generated {
		l.Warn().Msg("SESSION_KEY not set, using a random key; sessions will not survive a restart")
	}
	cookies := session.NewCookieManager(key, storage, cfg.SessionTTL, cfg.CookieSecure)

	// Upstream store API
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, l)
	l.Info().Str("url", cfg.APIBaseURL).Msg("using store API")

	// Order events: Kafka when brokers are configured, otherwise the cart is
	// cleared in process.
	cleaner := poller.NewCartCleaner(storage, client, l)
	var publisher order.Publisher = order.PublisherFunc(cleaner.Handle)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := order.NewKafkaPublisher(cfg.OrdersTopic, brokers...)
		defer kp.Close()
		publisher = kp

		p := poller.NewPoller(cleaner, cfg.OrdersTopic, l, brokers...)
		defer p.Close()
		go p.Run(ctx)
		l.Info().Strs("brokers", brokers).Str("topic", cfg.OrdersTopic).Msg("publishing order events to kafka")
	}

	carts := cart.NewReconciler(cart.NewStore(l), client, l)
	checkouts := checkout.NewService(carts, l)
	orders := order.NewService(checkouts, publisher, l)
	payments := payment.NewService(client, newProvider(cfg, l), checkouts, orders, cfg.MaxProofSize, l)
	admins := admin.NewService(client, l)

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, l, cookies, h.Handlers{
		Products: h.NewProductHandler(client, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(carts, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkouts, cfg.RequestTimeout),
		Payment:  h.NewPaymentHandler(payments, cfg.MaxProofSize, cfg.RequestTimeout),
		Order:    h.NewOrderHandler(orders, cfg.RequestTimeout),
		Admin:    h.NewAdminHandler(admins, cookies, cfg.MaxProofSize, cfg.RequestTimeout),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("port", cfg.HTTPPort).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	l.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("server exited")
}

func newStorage(ctx context.Context, cfg *config.Config, l zerolog.Logger) (session.Storage, func()) {
	if cfg.StorageBackend != "redis" {
		s := session.NewMemoryStorage(cfg.SessionTTL)
		l.Info().Msg("using in-memory session storage")
		return s, func() { s.Close() }
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		l.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connection failed")
	}
	l.Info().Str("addr", cfg.RedisAddr).Msg("redis ping succeeded")
	return session.NewRedisStorage(redisClient, cfg.SessionTTL), func() { redisClient.Close() }
}

func newProvider(cfg *config.Config, l zerolog.Logger) payment.Provider {
	if cfg.PaymentProvider == "http" {
		l.Info().Str("url", cfg.PaymentProviderURL).Msg("using http payment provider")
		return payment.NewHTTPProvider(cfg.PaymentProviderURL, cfg.PaymentProviderKey, cfg.RequestTimeout)
	}
	l.Warn().Msg("using sandbox payment provider; no real charges are made")
	return payment.NewSandboxProvider()
}
