package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"governance-gateway/internal/config"
	"governance-gateway/internal/governance"
	"governance-gateway/middleware/identity"
	"governance-gateway/middleware/ratelimit/domain"
)

// Exemplo: a cadeia de governança embutida direto no webserver (sem proxy),
// com identidade vinda de um JWT.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, every request will be anonymous and /token is disabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stack, err := governance.New(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("governance setup error", zap.Error(err))
	}
	defer func() { _ = stack.Close() }()

	auth := identity.NewJWTAuthenticator([]byte(cfg.JWTSecret))

	r := chi.NewRouter()
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}
	r.Group(func(r chi.Router) {
		// a identidade precisa estar no context antes da governança
		if cfg.JWTSecret != "" {
			r.Use(auth.Middleware)
		}
		r.Use(stack.Middlewares...)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		})
		r.Get("/protected", func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "You are not logged in"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{
				"message": "Hello, " + identity.Label(r) + ". This is a protected view. Your role is " + id.Role.String() + ".",
			})
		})
	})

	// emite tokens de teste: /token?id=1&email=a@b.c&role=gold
	if cfg.JWTSecret != "" {
		r.Post("/token", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("id") == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
				return
			}
			tok, err := auth.Issue(identity.Identity{
				ID:    q.Get("id"),
				Email: q.Get("email"),
				Role:  domain.ParseRole(q.Get("role")),
			}, time.Hour)
			if err != nil {
				logger.Error("issue token", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": tok})
		})
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
