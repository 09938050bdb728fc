package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/authgate/internal/handler"
	"github.com/yourorg/authgate/internal/infrastructure/logger"
	"github.com/yourorg/authgate/internal/infrastructure/redis"
	"github.com/yourorg/authgate/internal/observability/metrics"
	"github.com/yourorg/authgate/internal/observability/tracing"
	"github.com/yourorg/authgate/internal/repository"
	"github.com/yourorg/authgate/internal/security/audit"
	"github.com/yourorg/authgate/internal/security/auth"
	"github.com/yourorg/authgate/internal/security/middleware"
	"github.com/yourorg/authgate/internal/security/ratelimit"
	"github.com/yourorg/authgate/internal/service"
	"github.com/yourorg/authgate/pkg/cache"
	"github.com/yourorg/authgate/pkg/config"
	"github.com/yourorg/authgate/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting authgate server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "authgate", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to the directory database
	pool, err := database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Initialize Redis client
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize the user directory
	directory := repository.NewPostgresDirectory(pool.GetDB(), log)

	// 7. Initialize security components. A bad signing setup or missing
	// admin credentials must stop the process here, not surface later.
	tokenManager, err := auth.NewTokenManager(cfg.SecretKey, cfg.JWTAlgorithm, cfg.TokenLifetime())
	if err != nil {
		log.Error("invalid token configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	adminGate, err := auth.NewAdminGate(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Error("invalid admin credentials", slog.String("error", err.Error()))
		os.Exit(1)
	}
	auditLogger := audit.NewLogger(log)
	loginLimiter := ratelimit.NewLoginLimiter(redisClient, cfg.LoginRateLimit, cfg.LoginRateWindow, log)

	// 8. Initialize services
	authService := service.NewAuthService(directory, tokenManager, log)

	// 9. Initialize handlers
	tenantCache := cache.New()
	tokenHandler := handler.NewTokenHandler(authService, loginLimiter, auditLogger, log)
	meHandler := handler.NewMeHandler(log)
	tenantHandler := handler.NewTenantHandler(directory, tenantCache, auditLogger, log)
	userHandler := handler.NewUserHandler(directory, auditLogger, log)
	roleHandler := handler.NewRoleHandler(directory, auditLogger, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	bearerOnly := middleware.BearerAuthMiddleware(authService, log)
	requireJSON := middleware.RequireJSON(log)
	basicAdmin := middleware.AdminAuthMiddleware(adminGate, auditLogger, log)
	adminOnly := func(next http.Handler) http.Handler {
		return basicAdmin(requireJSON(next))
	}

	// 10. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /tokens", tokenHandler)
	mux.Handle("GET /users/me", bearerOnly(meHandler))

	mux.Handle("POST /tenants", adminOnly(http.HandlerFunc(tenantHandler.Create)))
	mux.Handle("GET /tenants", adminOnly(http.HandlerFunc(tenantHandler.List)))
	mux.Handle("GET /tenants/{name}", adminOnly(http.HandlerFunc(tenantHandler.Get)))
	mux.Handle("PUT /tenants/{name}", adminOnly(http.HandlerFunc(tenantHandler.Rename)))
	mux.Handle("DELETE /tenants/{name}", adminOnly(http.HandlerFunc(tenantHandler.Delete)))

	mux.Handle("POST /users", adminOnly(http.HandlerFunc(userHandler.Create)))
	mux.Handle("GET /tenants/{tenant}/users", adminOnly(http.HandlerFunc(userHandler.List)))
	mux.Handle("GET /tenants/{tenant}/users/{username}", adminOnly(http.HandlerFunc(userHandler.Get)))
	mux.Handle("DELETE /tenants/{tenant}/users/{username}", adminOnly(http.HandlerFunc(userHandler.Delete)))

	mux.Handle("POST /roles", adminOnly(http.HandlerFunc(roleHandler.Create)))
	mux.Handle("GET /tenants/{tenant}/roles", adminOnly(http.HandlerFunc(roleHandler.List)))
	mux.Handle("GET /tenants/{tenant}/roles/{name}", adminOnly(http.HandlerFunc(roleHandler.Get)))
	mux.Handle("DELETE /tenants/{tenant}/roles/{name}", adminOnly(http.HandlerFunc(roleHandler.Delete)))

	// Health, readiness and metrics endpoints (no auth required)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> tracing -> CORS -> routes
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			otelhttp.NewHandler(handlerWithCORS, "authgate"),
		),
		log,
	)

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("jwt_algorithm", cfg.JWTAlgorithm),
		slog.Int("token_expiry_seconds", cfg.AccessTokenExpiry),
		slog.Int("login_rate_limit", cfg.LoginRateLimit),
		slog.Duration("login_rate_window", cfg.LoginRateWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
