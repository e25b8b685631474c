package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"tourbook/auth"
	"tourbook/booking"
	"tourbook/config"
	"tourbook/countries"
	"tourbook/db"
	"tourbook/destinations"
	"tourbook/middleware"
	"tourbook/mq"
	"tourbook/ratelim"
	"tourbook/ratings"
	"tourbook/rdx"
	"tourbook/reviews"
	"tourbook/routes"
	"tourbook/tours"
	"tourbook/uploads"
)

func main() {
	cfg := config.LoadConfig()

	ctx := context.Background()
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}

	cache := rdx.NewCache(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.CacheTTL)
	tokens := middleware.NewAuth(cfg.JWTSecret, cfg.JWTTTL)
	images := uploads.NewStore(cfg.UploadDir)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopCleanup := make(chan struct{})
	go rateLimiter.Run(stopCleanup)

	hub := booking.NewHub()
	workerCtx, stopWorker := context.WithCancel(ctx)
	go mq.StartWorker(workerCtx, cache.Conn, hub)
	events := mq.NewEmitter(cache.Conn, hub)
	aggregator := ratings.NewAggregator(store.Reviews, store.Tours, cache)

	router := routes.NewRouter(routes.Handlers{
		Auth:         tokens,
		Limiter:      rateLimiter,
		Users:        auth.NewHandler(auth.NewMongoUsers(store), tokens),
		Tours:        tours.NewHandler(store, cache, images),
		Destinations: destinations.NewHandler(store, cache, images),
		Reviews:      reviews.NewHandler(reviews.NewService(reviews.NewMongoStore(store), aggregator)),
		Bookings:     booking.NewHandler(booking.NewService(booking.NewMongoStore(store), events), hub, cfg.InvoiceSecret),
		Countries:    countries.NewHandler(store, cache),
		UploadDir:    cfg.UploadDir,
	})

	// apply middleware: CORS → security headers → trace id → logging → real ip → recoverer → router
	corsHandler := cors.New(corsOptions(cfg.CORSOrigins))
	handler := corsHandler.Handler(
		middleware.SecurityHeaders(
			middleware.TraceID(
				middleware.Logging(
					chimw.RealIP(
						chimw.Recoverer(router),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		close(stopCleanup)
		stopWorker()
	})

	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}

// corsOptions only allows credentials for an explicit origin list; a wildcard origin is
// served without them.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: len(origins) > 0 && !slices.Contains(origins, "*"),
	}
}
