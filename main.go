package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doctorsportal/auth"
	"doctorsportal/booking"
	"doctorsportal/config"
	"doctorsportal/db"
	"doctorsportal/directory"
	"doctorsportal/globals"
	"doctorsportal/logger"
	"doctorsportal/middleware"
	"doctorsportal/mq"
	"doctorsportal/pay"
	"doctorsportal/ratelim"
	"doctorsportal/rdx"
	"doctorsportal/routes"
	"doctorsportal/stripe"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   globals.ServiceName,
		Short: "Doctors portal booking API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(indexesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the default appointment options",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store db.Store) error {
				n, err := booking.Seed(ctx, store, booking.DefaultOptions)
				if err != nil {
					return err
				}
				log.Info().Int("created", n).Int("total", len(booking.DefaultOptions)).Msg("appointment options seeded")
				return nil
			})
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create unique and expiry indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store db.Store) error {
				if err := db.EnsureIndexes(ctx, store); err != nil {
					return err
				}
				if err := db.EnsureExpiry(ctx, store); err != nil {
					return err
				}
				log.Info().Msg("indexes ensured")
				return nil
			})
		},
	}
}

func withStore(ctx context.Context, fn func(ctx context.Context, store db.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(globals.ServiceName, cfg.IsDev())

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return fn(ctx, store)
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err := db.Connect(ctx, cfg.MongoURI(), cfg.DBName, cfg.DBTransactions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	log.Info().Str("db", cfg.DBName).Msg("connected to mongo")
	return store, nil
}

func openBus(ctx context.Context, cfg *config.Config) (mq.Bus, func()) {
	if cfg.RedisURL == "" {
		return mq.NewLocalBus(), func() {}
	}
	client, err := rdx.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; booking events stay in-process")
		return mq.NewLocalBus(), func() {}
	}
	return mq.NewRedisBus(client), func() { client.Close() }
}

func newGateway(cfg *config.Config) stripe.IntentCreator {
	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; payment intents are stubbed")
		return stripe.Stub{}
	}
	return stripe.NewGateway(cfg.StripeSecretKey)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(globals.ServiceName, cfg.IsDev())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if err := db.EnsureIndexes(ctx, store); err != nil {
		return err
	}
	if err := db.EnsureExpiry(ctx, store); err != nil {
		return err
	}
	if cfg.StoreDriver == config.DriverMemory {
		if _, err := booking.Seed(ctx, store, booking.DefaultOptions); err != nil {
			return err
		}
	}

	bus, closeBus := openBus(ctx, cfg)
	defer closeBus()

	hub := booking.NewHub()
	go hub.Run(ctx, bus)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.Cleanup(ctx, 10*time.Minute)

	directorySvc := directory.NewService(store)
	router := routes.NewRouter(routes.Deps{
		Tokens:      auth.NewTokenService(cfg.AccessToken, cfg.TokenTTL, store),
		Bookings:    booking.NewService(store, bus),
		Payments:    pay.NewService(store, newGateway(cfg), bus),
		Directory:   directorySvc,
		Hub:         hub,
		Idempotency: pay.NewIdempotency(store),
		RateLimiter: rateLimiter,
	})

	// apply middleware: recovery → request id → logging → security headers → CORS → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
	}).Handler(router)

	handler := middleware.Recovery(middleware.RequestID(middleware.Logging(middleware.SecurityHeaders(corsHandler))))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info().Msg("closing websocket subscribers")
		hub.Close()
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received; shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("closing store")
	}

	log.Info().Msg("server stopped cleanly")
	return nil
}
