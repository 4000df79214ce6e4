// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/opsforge/internal/logging"
)

// =============================================================================
// RATE LIMITER
// =============================================================================

const (
	// DefaultRatePerSecond is the per-client request rate used when the
	// configuration does not set one.
	DefaultRatePerSecond = 10

	// DefaultRateBurst is the per-client burst allowance used when the
	// configuration does not set one.
	DefaultRateBurst = 20

	// cleanupInterval is how often idle client buckets are swept.
	cleanupInterval = time.Minute

	// clientIdleEviction is how long a client may stay idle before its
	// bucket is dropped.
	clientIdleEviction = 3 * time.Minute
)

// clientLimiter pairs a token bucket with its last activity time.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter dispenses per-client token buckets keyed by IP address.
type RateLimiter struct {
	// clients maps client IPs to their buckets.
	clients map[string]*clientLimiter

	// limit is the sustained request rate per client.
	limit rate.Limit

	// burst is the bucket capacity per client.
	burst int

	// mu protects concurrent access to the clients map.
	mu sync.Mutex
}

// NewRateLimiter creates a RateLimiter allowing perSecond sustained
// requests with the given burst per client. Non-positive inputs fall
// back to the defaults.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRatePerSecond
	}
	if burst < 1 {
		burst = DefaultRateBurst
	}

	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}

	// Sweep idle buckets in the background so one-off clients do not
	// accumulate for the life of the server.
	go rl.cleanup()

	return rl
}

// DefaultRateLimiter returns a RateLimiter with the default settings:
// 10 requests per second with a burst of 20.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultRatePerSecond, DefaultRateBurst)
}

// Allow reports whether a request from the given IP may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()

	return c.limiter.Allow()
}

// SetRate changes the sustained rate and burst for current and future
// clients. Non-positive inputs fall back to the defaults, matching
// NewRateLimiter.
func (rl *RateLimiter) SetRate(perSecond float64, burst int) {
	if perSecond <= 0 {
		perSecond = DefaultRatePerSecond
	}
	if burst < 1 {
		burst = DefaultRateBurst
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limit = rate.Limit(perSecond)
	rl.burst = burst
	for _, c := range rl.clients {
		c.limiter.SetLimit(rl.limit)
		c.limiter.SetBurst(rl.burst)
	}
}

// Rate returns the current sustained rate and burst.
func (rl *RateLimiter) Rate() (float64, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return float64(rl.limit), rl.burst
}

// Clients returns the number of tracked client buckets.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// cleanup periodically drops buckets for clients idle past the
// eviction window.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-clientIdleEviction)

		rl.mu.Lock()
		for ip, c := range rl.clients {
			if c.lastSeen.Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware returns HTTP middleware that enforces per-client
// rate limiting.
//
// Returns 429 Too Many Requests with a Retry-After header when the
// client's bucket is empty.
func RateLimitMiddleware(limiter *RateLimiter, log *logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			if !limiter.Allow(clientIP) {
				w.Header().Set("Retry-After", "1")
				log.Warn("rate limit exceeded",
					"client_ip", clientIP,
					"path", r.URL.Path)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// REQUEST ID MIDDLEWARE
// =============================================================================

// RequestIDHeader is the header carrying the request ID.
const RequestIDHeader = "X-Request-Id"

// ctxKey is the private type for context keys set by this package.
type ctxKey int

// requestIDKey stores the request ID on the request context.
const requestIDKey ctxKey = 0

// RequestIDMiddleware returns HTTP middleware that assigns each request
// a UUID, echoes it in the X-Request-Id response header, and stores it
// on the request context for downstream log correlation.
//
// An incoming X-Request-Id is kept when it parses as a UUID so callers
// can correlate retries; anything else is replaced.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request ID assigned by
// RequestIDMiddleware, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// =============================================================================
// REQUEST LOGGING MIDDLEWARE
// =============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// newResponseWriter creates a wrapped response writer.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware returns HTTP middleware that logs one line per
// completed request with method, path, status, duration, client IP,
// and the request ID when RequestIDMiddleware ran earlier in the chain.
func LoggingMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", GetClientIP(r),
				"request_id", RequestIDFromContext(r.Context()))
		})
	}
}

// =============================================================================
// SECURITY HEADERS MIDDLEWARE
// =============================================================================

// SecurityHeadersMiddleware returns HTTP middleware that adds security
// headers.
//
// Headers set:
//   - X-Content-Type-Options: nosniff
//   - X-Frame-Options: DENY
//   - Content-Security-Policy: default-src 'self'
//   - Cache-Control: no-store, no-cache, must-revalidate
//   - Referrer-Policy: strict-origin-when-cross-origin
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Content Security Policy
			w.Header().Set("Content-Security-Policy", "default-src 'self'")

			// Prevent caching of responses
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

			// Referrer Policy
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// RECOVERY MIDDLEWARE
// =============================================================================

// RecoveryMiddleware returns HTTP middleware that recovers from panics
// in downstream handlers, logs the stack trace, and returns 500 to the
// client.
func RecoveryMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", err,
						"stack", string(debug.Stack()))

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// MIDDLEWARE CHAIN HELPER
// =============================================================================

// Chain composes multiple middleware functions into a single middleware.
// Middlewares are applied in the order provided.
//
// Example:
//
//	chain := Chain(
//	    RecoveryMiddleware(log),
//	    LoggingMiddleware(log),
//	    RateLimitMiddleware(limiter, log),
//	)
//	http.Handle("/", chain(handler))
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		// Apply middlewares in reverse order so they execute in order
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// IP EXTRACTION HELPER
// =============================================================================

// trustedProxies defines CIDR ranges of proxies that are allowed to set
// X-Forwarded-For and X-Real-IP headers. Forwarded headers are only
// honored when the direct connection comes from one of these ranges,
// so remote clients cannot spoof their way past rate limiting.
var trustedProxies = []string{
	"127.0.0.1/32",   // IPv4 localhost
	"::1/128",        // IPv6 localhost
	"10.0.0.0/8",     // Private network (RFC 1918)
	"172.16.0.0/12",  // Private network (RFC 1918)
	"192.168.0.0/16", // Private network (RFC 1918)
	"fc00::/7",       // IPv6 Unique Local Addresses (RFC 4193)
}

// parsedTrustedProxies caches the parsed CIDR networks.
var parsedTrustedProxies []*net.IPNet
var trustedProxiesOnce sync.Once

// parseTrustedProxies parses the trusted proxy CIDR ranges once.
func parseTrustedProxies() {
	trustedProxiesOnce.Do(func() {
		parsedTrustedProxies = make([]*net.IPNet, 0, len(trustedProxies))
		for _, cidr := range trustedProxies {
			if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
				parsedTrustedProxies = append(parsedTrustedProxies, ipNet)
			}
		}
	})
}

// isTrustedProxy checks if the given IP address is in the trusted
// proxy list.
func isTrustedProxy(ipStr string) bool {
	parseTrustedProxies()

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	for _, cidr := range parsedTrustedProxies {
		if cidr.Contains(ip) {
			return true
		}
	}

	return false
}

// getRemoteIP extracts the IP address from r.RemoteAddr.
// RemoteAddr is in the format "IP:port" or "[IPv6]:port".
func getRemoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return remoteAddr
	}
	return host
}

// GetClientIP extracts the client IP address from an HTTP request.
//
// Process:
//  1. Extract the direct connection IP from RemoteAddr
//  2. If the connection is from a trusted proxy, check forwarded
//     headers: X-Forwarded-For (first IP in the list), then X-Real-IP,
//     validating each as a well-formed address
//  3. Fall back to the connection IP when no valid forwarded header
//     is present
func GetClientIP(r *http.Request) string {
	connIP := getRemoteIP(r.RemoteAddr)

	// Direct connection from an untrusted source - use connection IP only
	if !isTrustedProxy(connIP) {
		return connIP
	}

	// Check X-Forwarded-For header (may contain multiple IPs)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		realIP := strings.TrimSpace(xri)
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}

	return connIP
}
