package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	budgetGeneral = "general"
	budgetLogin   = "login"

	clientIdleAfter = 10 * time.Minute
	gcThreshold     = 1000
)

var rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cases_http_rate_limited_total",
	Help: "Requests rejected by the per-client rate limiter.",
}, []string{"budget"})

type clientLimiter struct {
	general  *rate.Limiter
	login    *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies per-client budgets. Login attempts draw from a
// separate, tighter budget. A negative general budget disables it.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if generalRPM == 0 {
		generalRPM = 300
	}
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientLimiter{},
	}
}

func perMinute(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		client := m.client(extractClientIP(r))

		budget, limiter := budgetGeneral, client.general
		if strings.HasPrefix(path, "/api/v1/auth/login") {
			budget, limiter = budgetLogin, client.login
		}

		if wait, ok := take(limiter); !ok {
			rateLimited.WithLabelValues(budget).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take spends one token, or reports how long until one is available.
func take(limiter *rate.Limiter) (time.Duration, bool) {
	if limiter == nil {
		return 0, true
	}
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	if delay == 0 {
		return 0, true
	}
	reservation.Cancel()
	return delay, false
}

func (m *RateLimitMiddleware) client(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c, ok := m.clients[clientIP]
	if !ok {
		c = &clientLimiter{login: perMinute(m.authRPM)}
		if m.generalRPM > 0 {
			c.general = perMinute(m.generalRPM)
		}
		m.clients[clientIP] = c
	}
	c.lastSeen = now

	if len(m.clients) >= gcThreshold {
		cutoff := now.Add(-clientIdleAfter)
		for ip, idle := range m.clients {
			if idle.lastSeen.Before(cutoff) {
				delete(m.clients, ip)
			}
		}
	}

	return c
}

// extractClientIP prefers proxy headers and falls back to the peer address.
func extractClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
