// Package server provides HTTP server initialization and lifecycle management
// for the match engine REST API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/retreivo/matchengine/internal/config"
	"github.com/retreivo/matchengine/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// postOnly wraps a handler to reject every method except POST.
func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with
// port 0) and the ClaimEventHub for wiring claim event broadcasts.
func Start(ctx context.Context, cfg *config.Config, api *handlers.APIHandlers, hub *handlers.ClaimEventHub) string {
	mux := http.NewServeMux()

	go hub.Run()

	rateLimiter := handlers.NewRateLimiter(float64(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/compare-items", postOnly(api.CompareItems))
	apiMux.HandleFunc("/api/match-lost-found", postOnly(api.MatchLostFound))
	apiMux.HandleFunc("/api/analyze-claim-fraud", postOnly(api.AnalyzeClaimFraud))
	apiMux.HandleFunc("/api/detect-fraud", postOnly(api.DetectFraud))
	apiMux.HandleFunc("/api/store-item", postOnly(api.StoreItem))
	apiMux.HandleFunc("/api/match-item", postOnly(api.MatchItem))
	apiMux.HandleFunc("/api/search-by-image", postOnly(api.SearchByImage))

	apiMux.HandleFunc("/api/claims", postOnly(api.CreateClaim))
	apiMux.HandleFunc("/api/claims/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		api.GetClaim(w, r)
	})
	apiMux.HandleFunc("/api/claims/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		api.ClaimStatus(w, r)
	})
	apiMux.HandleFunc("/api/claims/update", postOnly(api.UpdateClaim))

	// Health endpoint has no auth requirement, used by monitoring
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		api.Health(w, r)
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	mux.Handle("/ws/claims", hub)

	// Wrap the server with request ids, rate limiting, then security headers
	handler := handlers.RequestIDMiddleware(mux)
	handler = handlers.RateLimitMiddleware(handler, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	// Create server with security timeouts
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		hub.Stop()
	}()

	return actualAddr
}

// AllowedOrigins returns the WebSocket origins accepted for the configured
// listen address.
func AllowedOrigins(cfg *config.Config) []string {
	return []string{
		fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
	}
}
