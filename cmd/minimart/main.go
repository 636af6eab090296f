package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/minimart/minimart/internal/api/handlers"
	"github.com/minimart/minimart/internal/api/middleware"
	"github.com/minimart/minimart/internal/config"
	"github.com/minimart/minimart/internal/health"
	"github.com/minimart/minimart/internal/metrics"
	"github.com/minimart/minimart/internal/models"
	redisrepo "github.com/minimart/minimart/internal/repositories/redis"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/storage"
	"github.com/minimart/minimart/internal/telemetry"
	"github.com/minimart/minimart/internal/utils/response"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing (optional)
	if cfg.Telemetry.Endpoint != "" {
		shutdown, err := telemetry.Init(context.Background(), "minimart", cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Error("Error initializing tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("Error shutting down tracing", slog.String("error", err.Error()))
			}
		}()
	}

	// Storage setup
	store, err := storage.New(cfg)
	if err != nil {
		slog.Error("Error opening the store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Error closing the store", slog.String("error", err.Error()))
		} else {
			slog.Info("Store closed")
		}
	}()

	// Login rate limiter (optional)
	var limiter *redisrepo.RateLimiter

	if cfg.Redis.Enabled {
		limiter, err = redisrepo.New(cfg)
		if err != nil {
			slog.Error("Error connecting to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer limiter.Close()
	}

	userService := service.NewUserService(store, limiter)
	userHandler := handlers.NewUserHandler(userService)
	catalogService := service.NewCatalogService(store)
	productHandler := handlers.NewProductHandler(catalogService)
	cartService := service.NewCartService(store)
	cartHandler := handlers.NewCartHandler(cartService)
	orderService := service.NewOrderService(store)
	orderHandler := handlers.NewOrderHandler(orderService)
	identity := middleware.NewIdentityMiddleware(userService)

	if cfg.Seed {
		seedCatalog(catalogService)
	}

	healthHandler, err := health.NewHealthHandler(cfg, store)
	if err != nil {
		slog.Error("Error building health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Service initialized", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Path))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/auth/signup", userHandler.Signup())
	routerMux.HandleFunc("POST /api/v1/auth/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/me", identity.Resolve(userHandler.Me()))
	routerMux.HandleFunc("POST /api/v1/products", productHandler.CreateProduct())
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/search", productHandler.SearchProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("PUT /api/v1/products/{id}", productHandler.UpdateProduct())
	routerMux.HandleFunc("DELETE /api/v1/products/{id}", productHandler.DeleteProduct())
	routerMux.HandleFunc("GET /api/v1/cart", identity.Resolve(cartHandler.ViewCart()))
	routerMux.HandleFunc("POST /api/v1/cart/items", identity.Resolve(cartHandler.AddItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{productID}", identity.Resolve(cartHandler.RemoveItem()))
	routerMux.HandleFunc("PUT /api/v1/cart/items/{productID}/increase", identity.Resolve(cartHandler.IncreaseQuantity()))
	routerMux.HandleFunc("PUT /api/v1/cart/items/{productID}/decrease", identity.Resolve(cartHandler.DecreaseQuantity()))
	routerMux.HandleFunc("POST /api/v1/checkout", identity.Resolve(orderHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", identity.Resolve(orderHandler.GetOrder()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJson(w, http.StatusOK, map[string]string{"message": "minimart API is running"})
	})

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "minimart")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server starting", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("Server shut down gracefully")
	}
}

// seedCatalog loads a small demo dataset the first time the service runs
// against an empty catalog.
func seedCatalog(catalog *service.CatalogService) {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := catalog.ListProducts(ctx)
	if err != nil || len(existing) > 0 {
		return
	}

	samples := []models.CreateProductRequest{
		{Name: "Sample Phone", Price: 299.99, Description: "A great phone.", Quantity: 10},
		{Name: "Sample Laptop", Price: 899.99, Description: "A powerful laptop.", Quantity: 5},
		{Name: "Sample Headphones", Price: 99.99, Description: "Noise-cancelling headphones.", Quantity: 20},
	}

	for _, sample := range samples {
		if _, err := catalog.AddProduct(ctx, &sample); err != nil {
			slog.Warn("Failed to seed product", slog.String("name", sample.Name), slog.String("error", err.Error()))
		}
	}

	slog.Info("Catalog seeded", slog.Int("products", len(samples)))
}
