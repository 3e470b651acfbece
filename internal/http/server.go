package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"gastos/internal/cache"
	"gastos/internal/ledger"
	applog "gastos/internal/log"
	"gastos/internal/store"
)

// Server exposes the ledger over a JSON API.
type Server struct {
	http.Server
	ledger      *ledger.Ledger
	audit       store.AuditLog
	auditLimit  int
	rateLimiter *rateLimiter

	// History grows with every recorded month, so responses are cached
	// and purged whenever a movement write lands.
	historyCache *cache.TTLCache[[]monthGroupJSON]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server.
// audit may be nil when the backend has no audit log.
func NewServer(addr string, l *ledger.Ledger, audit store.AuditLog, auditLimit int) *Server {
	mux := http.NewServeMux()

	logger := applog.New(slog.LevelInfo, "http")

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      applog.Middleware(logger)(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ledger:           l,
		audit:            audit,
		auditLimit:       auditLimit,
		rateLimiter:      newRateLimiter(),
		historyCache:     cache.New[[]monthGroupJSON](16, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("/api/movements", s.withSecurityHeaders(s.handleMovements))
	mux.HandleFunc("/api/history", s.withSecurityHeaders(s.handleHistory))
	mux.HandleFunc("/api/month", s.withSecurityHeaders(s.handleSelectMonth))

	mux.HandleFunc("/api/entry", s.withSecurityHeaders(s.handleEntry))
	mux.HandleFunc("/api/entry/receipt", s.withSecurityHeaders(s.handleEntryReceipt))
	mux.HandleFunc("/api/entry/edit", s.withSecurityHeaders(s.handleEntryEdit))
	mux.HandleFunc("/api/entry/submit", s.withSecurityHeaders(s.handleEntrySubmit))
	mux.HandleFunc("/api/entry/cancel", s.withSecurityHeaders(s.handleEntryCancel))

	mux.HandleFunc("/api/movements/delete", s.withSecurityHeaders(s.handleDeleteRequest))
	mux.HandleFunc("/api/movements/delete/confirm", s.withSecurityHeaders(s.handleDeleteConfirm))
	mux.HandleFunc("/api/movements/delete/cancel", s.withSecurityHeaders(s.handleDeleteCancel))

	mux.HandleFunc("/api/settings", s.withSecurityHeaders(s.handleSettings))
	mux.HandleFunc("/api/audit", s.withSecurityHeaders(s.handleAudit))

	return s
}

// startCacheCleanup periodically drops expired history entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.historyCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and a
// request id to responses. Completion logging lives in the log
// middleware wrapping the whole mux.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		// Mutating requests are rate limited; reads pass through.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
