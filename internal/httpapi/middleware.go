package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/playbrawl/party-backend/internal/auth"
)

type sessionKey struct{}

type api struct {
	Deps
	limiters *sessionLimiters
}

// sessionFromRequest validates the bearer token.
func (a *api) sessionFromRequest(r *http.Request) (auth.Session, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return auth.Session{}, auth.ErrInvalidToken
	}
	return a.Tokens.Validate(token)
}

// requireRole gates a route group on a validated session of the given role
// and stashes the session in the request context.
func (a *api) requireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := a.sessionFromRequest(r)
			if err != nil || s.Role != role {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
		})
	}
}

// requireAnyRole admits any validated session.
func (a *api) requireAnyRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := a.sessionFromRequest(r)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
		})
	}
}

func sessionFrom(ctx context.Context) auth.Session {
	s, _ := ctx.Value(sessionKey{}).(auth.Session)
	return s
}

// sessionLimiters throttles poll traffic per session id.
type sessionLimiters struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func newSessionLimiters(r rate.Limit, b int) *sessionLimiters {
	return &sessionLimiters{m: make(map[string]*rate.Limiter), r: r, b: b}
}

func (l *sessionLimiters) allow(sessionID string) bool {
	l.mu.Lock()
	lim, ok := l.m[sessionID]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.m[sessionID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
