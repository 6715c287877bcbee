package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/errors"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller extracted from the bearer token.
type Principal struct {
	UserID int64
	Email  string
	Roles  []user.Role
}

// HasRole reports whether the principal carries the role.
func (p Principal) HasRole(role user.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// principalFrom returns the authenticated principal, if any.
func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// authenticate validates the bearer token and stores the principal on the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, r, s.log, errors.Unauthorized("missing authorization header"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			writeError(w, r, s.log, errors.Unauthorized("authorization header must use the Bearer scheme"))
			return
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}

		p := Principal{UserID: userID, Email: claims.Email, Roles: claims.Roles}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

// requireRole rejects callers without the role.
func (s *Server) requireRole(role user.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r.Context())
		if !ok {
			writeError(w, r, s.log, errors.Unauthorized("authentication required"))
			return
		}
		if !p.HasRole(role) {
			writeError(w, r, s.log, errors.Forbidden("insufficient permissions"))
			return
		}
		next(w, r)
	}
}

// loginLimiter throttles login attempts per client IP. Idle entries are
// evicted so the map stays bounded.
type loginLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*clientLimiter
	rate       rate.Limit
	burst      int
	maxEntries int
	idleAfter  time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter() *loginLimiter {
	// 1 attempt/sec sustained, bursts of 5 per IP.
	return &loginLimiter{
		limiters:   make(map[string]*clientLimiter),
		rate:       rate.Limit(1),
		burst:      5,
		maxEntries: 10000,
		idleAfter:  10 * time.Minute,
	}
}

func (l *loginLimiter) allow(remoteAddr string) bool {
	host := remoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx > 0 {
		host = remoteAddr[:idx]
	}

	now := time.Now()

	l.mu.Lock()
	if len(l.limiters) >= l.maxEntries {
		l.evictIdleLocked(now)
	}
	entry, ok := l.limiters[host]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[host] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.Allow()
}

func (l *loginLimiter) evictIdleLocked(now time.Time) {
	for host, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleAfter {
			delete(l.limiters, host)
		}
	}
}

// limitLogins rejects clients that exceed the login rate.
func (s *Server) limitLogins(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.logins.allow(r.RemoteAddr) {
			writeError(w, r, s.log, &errors.Error{
				Status:  http.StatusTooManyRequests,
				Code:    "RATE_LIMITED",
				Message: "too many login attempts, slow down",
			})
			return
		}
		next(w, r)
	}
}
